package normalized

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/example/go-textalign/internal/offsets"
	"github.com/example/go-textalign/internal/pattern"
)

// Rewrite is one output character of a transform together with the number of
// source characters it advances over.
//
//	Delta > 0   consume Delta source characters; Char aligns to their hull
//	            (1 is a plain 1:1 substitution).
//	Delta == 0  consume nothing; Char reuses the span of the previously
//	            emitted character, or the empty span where consumption
//	            starts when nothing precedes it.
//	Delta < 0   drop -Delta source characters, then consume one.
//
// Source characters left unconsumed at the end of the sequence are dropped.
type Rewrite struct {
	Char  rune
	Delta int
}

// Transform rewrites the whole current text. startCursor is the index of the
// first source character the rewrites start consuming from; characters before
// it are dropped.
func (n *String) Transform(rewrites []Rewrite, startCursor int) error {
	return n.TransformRange(offsets.CurrentChars(0, len(n.align)), rewrites, startCursor)
}

// TransformRange rewrites the part of the current text addressed by r,
// leaving the rest untouched. The buffer is unchanged when an error is
// returned.
func (n *String) TransformRange(r offsets.Range, rewrites []Rewrite, startCursor int) error {
	chars, err := n.Convert(r, offsets.Current, offsets.Char)
	if err != nil {
		return err
	}
	cur, err := offsets.CharToByte(n.current, chars)
	if err != nil {
		return err
	}

	src := n.align[chars.Start:chars.End]
	if startCursor < 0 || startCursor > len(src) {
		return fmt.Errorf("%w: start cursor %d outside [0, %d]", ErrInvalidRewrite, startCursor, len(src))
	}

	var b strings.Builder
	b.Grow(len(rewrites))
	out := make([]offsets.Span, 0, len(rewrites))
	cursor := startCursor

	// With nothing before the range, insertions collapse onto the point where
	// consumption starts.
	var prev offsets.Span
	switch {
	case chars.Start > 0:
		prev = n.align[chars.Start-1]
	case startCursor < len(src):
		p := src[startCursor].Start
		prev = offsets.Span{Start: p, End: p}
	case len(src) > 0:
		p := src[len(src)-1].End
		prev = offsets.Span{Start: p, End: p}
	case chars.End < len(n.align):
		p := n.align[chars.End].Start
		prev = offsets.Span{Start: p, End: p}
	default:
		prev = offsets.Span{Start: len(n.original), End: len(n.original)}
	}

	for i, rw := range rewrites {
		var span offsets.Span
		switch {
		case rw.Delta == 0:
			span = prev
		case rw.Delta > 0:
			if cursor+rw.Delta > len(src) {
				return fmt.Errorf("%w: rewrite %d (%q) consumes %d characters at %d of %d",
					ErrInvalidRewrite, i, rw.Char, rw.Delta, cursor, len(src))
			}
			span = offsets.Hull(src[cursor], src[cursor+rw.Delta-1])
			cursor += rw.Delta
		default:
			skip := -rw.Delta
			if cursor+skip+1 > len(src) {
				return fmt.Errorf("%w: rewrite %d (%q) skips %d characters at %d of %d",
					ErrInvalidRewrite, i, rw.Char, skip, cursor, len(src))
			}
			cursor += skip
			span = src[cursor]
			cursor++
		}

		b.WriteRune(rw.Char)
		out = append(out, span)
		prev = span
	}

	n.current = n.current[:cur.Start] + b.String() + n.current[cur.End:]
	n.align = slices.Concat(n.align[:chars.Start], out, n.align[chars.End:])
	return nil
}

// Expand replaces every character with fn(character). An empty result deletes
// the character; a longer one fans out from its span.
func (n *String) Expand(fn func(rune) string) error {
	rewrites := make([]Rewrite, 0, len(n.align))
	skip := 0
	for _, r := range n.current {
		repl := fn(r)
		if repl == "" {
			skip++
			continue
		}
		first := true
		for _, c := range repl {
			delta := 0
			if first {
				delta = 1
				if skip > 0 {
					delta = -skip
				}
				first, skip = false, 0
			}
			rewrites = append(rewrites, Rewrite{Char: c, Delta: delta})
		}
	}
	return n.Transform(rewrites, 0)
}

// Replace substitutes content for every match of p in the current text. Each
// replacement aligns to the hull of the text it replaces; an empty content
// deletes the matches.
func (n *String) Replace(p pattern.Pattern, content string) error {
	matches := slices.Collect(p.FindIter(n.current))
	for _, m := range slices.Backward(matches) {
		width := utf8.RuneCountInString(n.current[m.Start:m.End])
		rewrites := make([]Rewrite, 0, utf8.RuneCountInString(content))
		for _, c := range content {
			delta := 0
			if len(rewrites) == 0 {
				delta = width
			}
			rewrites = append(rewrites, Rewrite{Char: c, Delta: delta})
		}
		if err := n.TransformRange(offsets.CurrentBytes(m.Start, m.End), rewrites, 0); err != nil {
			return fmt.Errorf("replace %s: %w", m, err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Unicode normalization forms
// ---------------------------------------------------------------------------

// NFC applies canonical composition.
func (n *String) NFC() error { return n.normalize(norm.NFC) }

// NFD applies canonical decomposition.
func (n *String) NFD() error { return n.normalize(norm.NFD) }

// NFKC applies compatibility composition.
func (n *String) NFKC() error { return n.normalize(norm.NFKC) }

// NFKD applies compatibility decomposition.
func (n *String) NFKD() error { return n.normalize(norm.NFKD) }

// normalize runs form over each normalization segment of the current text.
// Segments that keep their length are rewritten 1:1; otherwise the first
// output character consumes the whole segment and the rest fan out from it.
func (n *String) normalize(form norm.Form) error {
	if form.IsNormalString(n.current) {
		return nil
	}

	rewrites := make([]Rewrite, 0, len(n.align))
	for s := n.current; s != ""; {
		end := segmentEnd(form, s)
		seg := s[:end]
		s = s[end:]

		out := form.String(seg)
		if out == "" {
			out = seg
		}
		in := utf8.RuneCountInString(seg)
		same := utf8.RuneCountInString(out) == in

		first := true
		for _, c := range out {
			delta := 0
			switch {
			case same:
				delta = 1
			case first:
				delta = in
			}
			first = false
			rewrites = append(rewrites, Rewrite{Char: c, Delta: delta})
		}
	}
	return n.Transform(rewrites, 0)
}

// segmentEnd returns the end of the first normalization segment of s: the
// position of the next character that starts fresh under form.
func segmentEnd(form norm.Form, s string) int {
	_, size := utf8.DecodeRuneInString(s)
	for i := size; i < len(s); {
		p := form.PropertiesString(s[i:])
		if p.BoundaryBefore() {
			return i
		}
		i += max(p.Size(), 1)
	}
	return len(s)
}
