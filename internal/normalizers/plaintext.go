package normalizers

import (
	"errors"

	"github.com/example/go-textalign/internal/normalized"
	"github.com/example/go-textalign/internal/pattern"
)

// ErrEmptyText is returned by PlainText with RejectEmpty set when nothing but
// whitespace is left.
var ErrEmptyText = errors.New("text is empty")

// PlainText prepares raw input text. CRLF and bare CR line endings become
// "\n" and surrounding whitespace is trimmed; a CRLF pair aligns to both of
// its original bytes.
type PlainText struct {
	RejectEmpty bool `json:"reject_empty"`
}

func (p PlainText) Normalize(n *normalized.String) error {
	if err := n.Replace(pattern.Literal("\r\n"), "\n"); err != nil {
		return err
	}
	n.Map(func(r rune) rune {
		if r == '\r' {
			return '\n'
		}
		return r
	})
	n.Strip()

	if p.RejectEmpty && n.IsEmpty() {
		return ErrEmptyText
	}
	return nil
}
