// Package pretokenizers holds the split strategies. Each one cuts every
// fragment of a pretokenized.String independently, so they can run over
// fragments in parallel.
package pretokenizers

import (
	"context"
	"unicode"

	"github.com/example/go-textalign/internal/normalized"
	"github.com/example/go-textalign/internal/pattern"
	"github.com/example/go-textalign/internal/pretokenized"
)

// PreTokenizer splits the fragments of a collection.
type PreTokenizer interface {
	PreTokenize(p *pretokenized.String) error
}

// Splitter is a PreTokenizer that handles every fragment on its own.
type Splitter interface {
	PreTokenizer
	SplitFragment(i int, n *normalized.String) ([]*normalized.String, error)
}

// Parallel runs pt over p with up to workers goroutines per split pass.
// Pre-tokenizers that are not Splitters run sequentially.
func Parallel(ctx context.Context, p *pretokenized.String, pt PreTokenizer, workers int) error {
	switch v := pt.(type) {
	case Sequence:
		for _, inner := range v {
			if err := Parallel(ctx, p, inner, workers); err != nil {
				return err
			}
		}
		return nil
	case Splitter:
		return p.SplitParallel(ctx, workers, v.SplitFragment)
	default:
		return pt.PreTokenize(p)
	}
}

// Whitespace keeps runs of word characters and runs of punctuation, dropping
// the whitespace around them.
type Whitespace struct{}

func (w Whitespace) PreTokenize(p *pretokenized.String) error { return p.Split(w.SplitFragment) }

func (Whitespace) SplitFragment(_ int, n *normalized.String) ([]*normalized.String, error) {
	return pretokenized.SplitBuffer(n, pattern.Invert(pattern.WordsOrPunctuation()), pretokenized.Removed)
}

// WhitespaceSplit splits on whitespace characters only.
type WhitespaceSplit struct{}

func (w WhitespaceSplit) PreTokenize(p *pretokenized.String) error { return p.Split(w.SplitFragment) }

func (WhitespaceSplit) SplitFragment(_ int, n *normalized.String) ([]*normalized.String, error) {
	return pretokenized.SplitBuffer(n, pattern.Whitespace(), pretokenized.Removed)
}

// Punctuation splits on punctuation characters.
type Punctuation struct {
	Behavior pretokenized.Behavior `json:"behavior"`
}

// NewPunctuation isolates every punctuation character.
func NewPunctuation() Punctuation { return Punctuation{Behavior: pretokenized.Isolated} }

func (pu Punctuation) PreTokenize(p *pretokenized.String) error { return p.Split(pu.SplitFragment) }

func (pu Punctuation) SplitFragment(_ int, n *normalized.String) ([]*normalized.String, error) {
	return pretokenized.SplitBuffer(n, pattern.Punctuation(), pu.Behavior)
}

// Bert splits on whitespace, then isolates punctuation.
type Bert struct{}

func (b Bert) PreTokenize(p *pretokenized.String) error { return p.Split(b.SplitFragment) }

func (Bert) SplitFragment(i int, n *normalized.String) ([]*normalized.String, error) {
	words, err := WhitespaceSplit{}.SplitFragment(i, n)
	if err != nil {
		return nil, err
	}
	var out []*normalized.String
	for _, w := range words {
		parts, err := NewPunctuation().SplitFragment(i, w)
		if err != nil {
			return nil, err
		}
		out = append(out, parts...)
	}
	return out, nil
}

// Digits splits digits from the text around them, either one digit per
// fragment or one run of digits per fragment.
type Digits struct {
	IndividualDigits bool `json:"individual_digits"`
}

func (d Digits) PreTokenize(p *pretokenized.String) error { return p.Split(d.SplitFragment) }

func (d Digits) SplitFragment(_ int, n *normalized.String) ([]*normalized.String, error) {
	b := pretokenized.Contiguous
	if d.IndividualDigits {
		b = pretokenized.Isolated
	}
	return pretokenized.SplitBuffer(n, pattern.RuneFunc(unicode.IsDigit), b)
}

// Graphemes emits every extended grapheme cluster as its own fragment.
type Graphemes struct{}

func (g Graphemes) PreTokenize(p *pretokenized.String) error { return p.Split(g.SplitFragment) }

func (Graphemes) SplitFragment(_ int, n *normalized.String) ([]*normalized.String, error) {
	return pretokenized.SplitBuffer(n, pattern.Graphemes{}, pretokenized.Isolated)
}

// Sequence applies pre-tokenizers in order, stopping at the first failure.
type Sequence []PreTokenizer

func (s Sequence) PreTokenize(p *pretokenized.String) error {
	for _, pt := range s {
		if err := pt.PreTokenize(p); err != nil {
			return err
		}
	}
	return nil
}
