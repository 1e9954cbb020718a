package normalizers

import (
	"github.com/example/go-textalign/internal/normalized"
	"github.com/example/go-textalign/internal/pattern"
)

// Replace substitutes Content for every match of Pattern. A value built
// without NewReplace compiles its pattern on every call.
type Replace struct {
	Pattern pattern.Source `json:"pattern"`
	Content string         `json:"content"`

	compiled pattern.Pattern
}

// NewReplace compiles src.
func NewReplace(src pattern.Source, content string) (*Replace, error) {
	p, err := src.Compile()
	if err != nil {
		return nil, err
	}
	return &Replace{Pattern: src, Content: content, compiled: p}, nil
}

func (r *Replace) Normalize(n *normalized.String) error {
	p := r.compiled
	if p == nil {
		var err error
		if p, err = r.Pattern.Compile(); err != nil {
			return err
		}
	}
	return n.Replace(p, r.Content)
}
