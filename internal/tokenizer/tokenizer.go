// Package tokenizer is the downstream end of the alignment pipeline: models
// that turn one pre-tokenized piece of text into vocabulary tokens.
package tokenizer

import (
	"errors"

	"github.com/example/go-textalign/internal/offsets"
)

// ErrUnknownToken is returned by models without an unknown token when a piece
// is missing from the vocabulary.
var ErrUnknownToken = errors.New("token not in vocabulary")

// Tokenizer encodes text into token IDs.
type Tokenizer interface {
	// Encode tokenizes text and returns token IDs.
	Encode(text string) ([]int64, error)
}

// Token is one vocabulary entry produced from a piece. Offsets are byte
// offsets into the piece that was tokenized.
type Token struct {
	ID      int64        `json:"id"`
	Value   string       `json:"value"`
	Offsets offsets.Span `json:"offsets"`
}

// Model tokenizes pieces and looks up vocabulary entries.
type Model interface {
	Tokenize(piece string) ([]Token, error)
	TokenToID(token string) (int64, bool)
}

// Noop returns every piece unchanged as a single token with ID 0. It has no
// vocabulary.
type Noop struct{}

func (Noop) Tokenize(piece string) ([]Token, error) {
	return []Token{{ID: 0, Value: piece, Offsets: offsets.Span{Start: 0, End: len(piece)}}}, nil
}

func (Noop) TokenToID(string) (int64, bool) { return 0, false }

// Encode reports the ID of every token the model produces for text.
func Encode(m Model, text string) ([]int64, error) {
	toks, err := m.Tokenize(text)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(toks))
	for i, t := range toks {
		ids[i] = t.ID
	}
	return ids, nil
}
