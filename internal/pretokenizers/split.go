package pretokenizers

import (
	"sync"

	"github.com/example/go-textalign/internal/normalized"
	"github.com/example/go-textalign/internal/pattern"
	"github.com/example/go-textalign/internal/pretokenized"
)

// Split cuts fragments on a configurable pattern. With Invert set the
// pattern describes the pieces to keep and its gaps become the delimiters.
type Split struct {
	Pattern  pattern.Source        `json:"pattern"`
	Behavior pretokenized.Behavior `json:"behavior"`
	Invert   bool                  `json:"invert"`

	compiled pattern.Pattern
}

// NewSplit compiles src.
func NewSplit(src pattern.Source, behavior pretokenized.Behavior, invert bool) (*Split, error) {
	p, err := src.Compile()
	if err != nil {
		return nil, err
	}
	if invert {
		p = pattern.Invert(p)
	}
	return &Split{Pattern: src, Behavior: behavior, Invert: invert, compiled: p}, nil
}

func (s *Split) PreTokenize(p *pretokenized.String) error { return p.Split(s.SplitFragment) }

func (s *Split) SplitFragment(_ int, n *normalized.String) ([]*normalized.String, error) {
	p := s.compiled
	if p == nil {
		var err error
		if p, err = s.Pattern.Compile(); err != nil {
			return nil, err
		}
		if s.Invert {
			p = pattern.Invert(p)
		}
	}
	return pretokenized.SplitBuffer(n, p, s.Behavior)
}

var sentenceEnd = sync.OnceValue(func() *pattern.Regexp {
	return pattern.MustCompile(`[.!?]+`)
})

// Sentence splits after runs of sentence terminators and trims whitespace
// around each sentence.
type Sentence struct{}

func (s Sentence) PreTokenize(p *pretokenized.String) error { return p.Split(s.SplitFragment) }

func (Sentence) SplitFragment(_ int, n *normalized.String) ([]*normalized.String, error) {
	parts, err := pretokenized.SplitBuffer(n, sentenceEnd(), pretokenized.MergedWithPrevious)
	if err != nil {
		return nil, err
	}
	out := parts[:0]
	for _, part := range parts {
		part.Strip()
		if !part.IsEmpty() {
			out = append(out, part)
		}
	}
	return out, nil
}
