// Package normalizers holds the rewrite strategies: each one mutates an
// alignment buffer in place through its filter, map and transform
// primitives, so alignment to the original text is kept by construction.
package normalizers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"

	"github.com/example/go-textalign/internal/normalized"
)

// Normalizer rewrites a buffer in place.
type Normalizer interface {
	Normalize(n *normalized.String) error
}

// Func adapts a function to the Normalizer interface.
type Func func(n *normalized.String) error

func (f Func) Normalize(n *normalized.String) error { return f(n) }

// NFC applies Unicode canonical composition.
type NFC struct{}

func (NFC) Normalize(n *normalized.String) error { return n.NFC() }

// NFD applies Unicode canonical decomposition.
type NFD struct{}

func (NFD) Normalize(n *normalized.String) error { return n.NFD() }

// NFKC applies Unicode compatibility composition.
type NFKC struct{}

func (NFKC) Normalize(n *normalized.String) error { return n.NFKC() }

// NFKD applies Unicode compatibility decomposition.
type NFKD struct{}

func (NFKD) Normalize(n *normalized.String) error { return n.NFKD() }

// Lowercase maps every character to lower case.
type Lowercase struct{}

func (Lowercase) Normalize(n *normalized.String) error {
	n.Lowercase()
	return nil
}

// Strip removes whitespace from the selected ends.
type Strip struct {
	Left  bool `json:"strip_left"`
	Right bool `json:"strip_right"`
}

func (s Strip) Normalize(n *normalized.String) error {
	switch {
	case s.Left && s.Right:
		n.Strip()
	case s.Left:
		n.LStrip()
	case s.Right:
		n.RStrip()
	}
	return nil
}

var nonSpacingMarks = runes.In(unicode.Mn)

// StripAccents removes non-spacing combining marks. It is meant to run after
// NFD or NFKD, which split accents off their base characters.
type StripAccents struct{}

func (StripAccents) Normalize(n *normalized.String) error {
	if !strings.ContainsFunc(n.Current(), nonSpacingMarks.Contains) {
		return nil
	}
	n.Filter(func(r rune) bool { return !nonSpacingMarks.Contains(r) })
	return nil
}

// Prepend inserts a prefix in front of any non-empty text.
type Prepend struct {
	Prepend string `json:"prepend"`
}

func (p Prepend) Normalize(n *normalized.String) error {
	if !n.IsEmpty() {
		n.Prepend(p.Prepend)
	}
	return nil
}

// Nmt drops ASCII control characters and maps the other code points NMT
// treats as whitespace to a plain space.
type Nmt struct{}

func (Nmt) Normalize(n *normalized.String) error {
	n.Filter(func(r rune) bool {
		switch {
		case r >= 0x01 && r <= 0x08, r == 0x0B, r >= 0x0E && r <= 0x1F,
			r == 0x7F, r == 0x8F, r == 0x9F:
			return false
		}
		return true
	})
	n.Map(func(r rune) rune {
		switch {
		case r == 0x09, r == 0x0A, r == 0x0C, r == 0x0D, r == 0x1680,
			r >= 0x200B && r <= 0x200F, r == 0x2028, r == 0x2029,
			r == 0x2581, r == 0xFEFF, r == 0xFFFD:
			return ' '
		}
		return r
	})
	return nil
}

// Sequence applies normalizers in order, stopping at the first failure.
type Sequence []Normalizer

func (s Sequence) Normalize(n *normalized.String) error {
	for _, norm := range s {
		if err := norm.Normalize(n); err != nil {
			return err
		}
	}
	return nil
}
