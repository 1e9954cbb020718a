// Package pretokenized holds a text as an ordered list of fragments, each an
// alignment buffer that still resolves to offsets in the full original text.
// Split strategies replace fragments with sub-fragments; Fragments projects
// the result into any coordinate space.
package pretokenized

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/example/go-textalign/internal/normalized"
	"github.com/example/go-textalign/internal/offsets"
	"github.com/example/go-textalign/internal/tokenizer"
)

// Split is one fragment of the collection. Tokens is nil until the fragment
// has been tokenized; tokenized fragments are no longer split or normalized.
type Split struct {
	Normalized *normalized.String
	Tokens     []tokenizer.Token
}

// SplitFunc replaces the i-th fragment with zero or more fragments. It
// receives a private copy of the fragment and must not touch shared state.
type SplitFunc func(i int, n *normalized.String) ([]*normalized.String, error)

// String is the fragment collection.
type String struct {
	original string
	splits   []Split
}

// New returns a collection holding text as a single fragment.
func New(text string) *String {
	return FromNormalized(normalized.New(text))
}

// FromNormalized returns a collection holding a copy of n as its only
// fragment. n must be a root buffer: its original text becomes the
// collection's original.
func FromNormalized(n *normalized.String) *String {
	p := &String{original: n.Original()}
	if !n.IsEmpty() {
		p.splits = []Split{{Normalized: n.Clone()}}
	}
	return p
}

// Original returns the full input text.
func (p *String) Original() string { return p.original }

// Len returns the number of fragments.
func (p *String) Len() int { return len(p.splits) }

// Splits returns the fragments in order.
func (p *String) Splits() []Split {
	out := make([]Split, len(p.splits))
	for i, s := range p.splits {
		out[i] = Split{Normalized: s.Normalized.Clone(), Tokens: s.Tokens}
	}
	return out
}

// Split applies fn to every untokenized fragment and splices the results in
// order. Empty results are dropped. If fn fails on any fragment the
// collection is left unchanged.
func (p *String) Split(fn SplitFunc) error {
	next := make([]Split, 0, len(p.splits))
	for i, s := range p.splits {
		if s.Tokens != nil {
			next = append(next, s)
			continue
		}
		parts, err := fn(i, s.Normalized.Clone())
		if err != nil {
			return fmt.Errorf("split fragment %d: %w", i, err)
		}
		next = appendParts(next, parts)
	}
	p.splits = next
	return nil
}

// SplitParallel is Split with fragments processed by up to workers
// goroutines. Output order does not depend on scheduling.
func (p *String) SplitParallel(ctx context.Context, workers int, fn SplitFunc) error {
	results := make([][]*normalized.String, len(p.splits))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, s := range p.splits {
		if s.Tokens != nil {
			continue
		}
		frag := s.Normalized.Clone()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			parts, err := fn(i, frag)
			if err != nil {
				return fmt.Errorf("split fragment %d: %w", i, err)
			}
			results[i] = parts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	next := make([]Split, 0, len(p.splits))
	for i, s := range p.splits {
		if s.Tokens != nil {
			next = append(next, s)
			continue
		}
		next = appendParts(next, results[i])
	}
	p.splits = next
	return nil
}

func appendParts(dst []Split, parts []*normalized.String) []Split {
	for _, n := range parts {
		if n != nil && !n.IsEmpty() {
			dst = append(dst, Split{Normalized: n})
		}
	}
	return dst
}

// Normalize applies fn to every untokenized fragment in place. If fn fails
// the collection is left unchanged.
func (p *String) Normalize(fn func(*normalized.String) error) error {
	next := make([]Split, len(p.splits))
	for i, s := range p.splits {
		if s.Tokens != nil {
			next[i] = s
			continue
		}
		n := s.Normalized.Clone()
		if err := fn(n); err != nil {
			return fmt.Errorf("normalize fragment %d: %w", i, err)
		}
		next[i] = Split{Normalized: n}
	}
	p.splits = next
	return nil
}

// Tokenize runs m on the current text of every untokenized fragment. If m
// fails the collection is left unchanged.
func (p *String) Tokenize(m tokenizer.Model) error {
	next := make([]Split, len(p.splits))
	for i, s := range p.splits {
		next[i] = s
		if s.Tokens != nil {
			continue
		}
		toks, err := m.Tokenize(s.Normalized.Current())
		if err != nil {
			return fmt.Errorf("tokenize fragment %d: %w", i, err)
		}
		if toks == nil {
			toks = []tokenizer.Token{}
		}
		next[i].Tokens = toks
	}
	p.splits = next
	return nil
}

// ---------------------------------------------------------------------------
// Projection
// ---------------------------------------------------------------------------

// Fragment is the current text of one fragment and its extent.
type Fragment struct {
	Text string       `json:"text"`
	Span offsets.Span `json:"span"`
}

// Fragments returns every fragment's current text together with its extent in
// the requested space and unit. Original-space extents address the full
// original text; Current-space extents address the concatenation of all
// fragments' current text.
func (p *String) Fragments(space offsets.Space, unit offsets.Unit) ([]Fragment, error) {
	out := make([]Fragment, 0, len(p.splits))
	cursor := 0
	for i, s := range p.splits {
		n := s.Normalized
		var span offsets.Span
		if space == offsets.Original {
			var err error
			span, err = p.originalExtent(n, n.OriginalExtent(), unit)
			if err != nil {
				return nil, fmt.Errorf("fragment %d: %w", i, err)
			}
		} else {
			width := n.Len(offsets.Current, unit)
			span = offsets.Span{Start: cursor, End: cursor + width}
			cursor += width
		}
		out = append(out, Fragment{Text: n.Current(), Span: span})
	}
	return out, nil
}

// Tokens returns the tokens of every tokenized fragment with offsets projected
// into the requested space and unit.
func (p *String) Tokens(space offsets.Space, unit offsets.Unit) ([]tokenizer.Token, error) {
	var out []tokenizer.Token
	cursor := 0
	for i, s := range p.splits {
		n := s.Normalized
		for _, tok := range s.Tokens {
			var span offsets.Span
			var err error
			if space == offsets.Original {
				span, err = n.Convert(offsets.Range{Space: offsets.Current, Unit: offsets.Byte, Span: tok.Offsets}, offsets.Original, offsets.Byte)
				if err == nil {
					span, err = p.originalExtent(n, span, unit)
				}
			} else {
				span, err = offsets.Convert(n.Current(), tok.Offsets, offsets.Byte, unit)
				span = span.Shift(cursor)
			}
			if err != nil {
				return nil, fmt.Errorf("fragment %d token %q: %w", i, tok.Value, err)
			}
			tok.Offsets = span
			out = append(out, tok)
		}
		cursor += n.Len(offsets.Current, unit)
	}
	return out, nil
}

// originalExtent lifts a byte span relative to n's original into the full
// original text and converts it to unit.
func (p *String) originalExtent(n *normalized.String, s offsets.Span, unit offsets.Unit) (offsets.Span, error) {
	s = s.Shift(n.OriginalShift())
	if unit == offsets.Byte {
		return s, offsets.CheckBounds("fragment extent", s, len(p.original))
	}
	return offsets.ByteToChar(p.original, s)
}
