package normalizers

import (
	"fmt"
	"iter"
	"unicode/utf8"

	anyascii "github.com/anyascii/go"

	"github.com/example/go-textalign/internal/normalized"
	"github.com/example/go-textalign/internal/pattern"
)

// AnyASCII transliterates non-ASCII characters to ASCII. Characters in the
// char map are replaced by their mapping first, even ASCII ones; text matched
// by the kept pattern passes through untouched. The zero value transliterates
// everything.
type AnyASCII struct {
	keptPattern string
	charMap     map[rune]string

	kept *pattern.Regexp
}

// NewAnyASCII compiles keptPattern. An empty pattern keeps nothing.
func NewAnyASCII(keptPattern string, charMap map[rune]string) (*AnyASCII, error) {
	a := &AnyASCII{keptPattern: keptPattern, charMap: charMap}
	if keptPattern != "" {
		re, err := pattern.Compile(keptPattern)
		if err != nil {
			return nil, err
		}
		a.kept = re
	}
	return a, nil
}

func (a *AnyASCII) Normalize(n *normalized.String) error {
	kept := a.keptChars(n.Current())
	i := 0
	return n.Expand(func(r rune) string {
		defer func() { i++ }()
		if kept[i] {
			return string(r)
		}
		return a.transliterate(r)
	})
}

func (a *AnyASCII) transliterate(r rune) string {
	if repl, ok := a.charMap[r]; ok {
		return repl
	}
	if r < utf8.RuneSelf {
		return string(r)
	}
	return anyascii.Transliterate(string(r))
}

// keptChars marks the character indexes covered by the kept pattern.
func (a *AnyASCII) keptChars(s string) map[int]bool {
	if a.kept == nil {
		return nil
	}
	var kept map[int]bool
	next, stop := iter.Pull(a.kept.FindIter(s))
	defer stop()
	m, ok := next()

	idx := 0
	for b := range s {
		for ok && b >= m.End {
			m, ok = next()
		}
		if ok && b >= m.Start {
			if kept == nil {
				kept = make(map[int]bool)
			}
			kept[idx] = true
		}
		idx++
	}
	return kept
}

// jsonAnyASCII is the serialized form: char_map keys are one-character
// strings.
type jsonAnyASCII struct {
	KeptPattern *string           `json:"kept_pattern"`
	CharMap     map[string]string `json:"char_map"`
}

func (a *AnyASCII) toJSON() jsonAnyASCII {
	out := jsonAnyASCII{CharMap: make(map[string]string, len(a.charMap))}
	if a.keptPattern != "" {
		out.KeptPattern = &a.keptPattern
	}
	for r, s := range a.charMap {
		out.CharMap[string(r)] = s
	}
	return out
}

func (j jsonAnyASCII) build() (*AnyASCII, error) {
	charMap := make(map[rune]string, len(j.CharMap))
	for k, v := range j.CharMap {
		r, size := utf8.DecodeRuneInString(k)
		if size == 0 || size != len(k) {
			return nil, fmt.Errorf("char_map key %q is not a single character", k)
		}
		charMap[r] = v
	}
	var kept string
	if j.KeptPattern != nil {
		kept = *j.KeptPattern
	}
	return NewAnyASCII(kept, charMap)
}
