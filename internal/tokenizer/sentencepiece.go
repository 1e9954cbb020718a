package tokenizer

import (
	"errors"
	"fmt"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"

	"github.com/example/go-textalign/internal/offsets"
)

// ErrEmptyPath is returned when a model is loaded from an empty path.
var ErrEmptyPath = errors.New("tokenizer model path must not be empty")

// SentencePieceTokenizer implements Tokenizer and Model using a pure-Go
// UNIGRAM SentencePiece model.
type SentencePieceTokenizer struct {
	proc gosp.Sentencepiece
	path string
}

// NewSentencePieceTokenizer loads a SentencePiece model from the given path.
func NewSentencePieceTokenizer(modelPath string) (*SentencePieceTokenizer, error) {
	if modelPath == "" {
		return nil, ErrEmptyPath
	}

	proc, err := gosp.NewSentencepieceFromFile(modelPath, false)
	if err != nil {
		return nil, fmt.Errorf("load sentencepiece model %q: %w", modelPath, err)
	}

	return &SentencePieceTokenizer{proc: proc, path: modelPath}, nil
}

// Path returns the file the model was loaded from, or "" for a model built
// from bytes.
func (t *SentencePieceTokenizer) Path() string { return t.path }

// Encode tokenizes text and returns SentencePiece token IDs as int64.
func (t *SentencePieceTokenizer) Encode(text string) ([]int64, error) {
	if text == "" {
		return []int64{}, nil
	}

	ids := t.proc.TokenizeToIDs(text)

	result := make([]int64, len(ids))
	for i, id := range ids {
		result[i] = int64(id)
	}

	return result, nil
}

// Tokenize encodes piece. The encoder does not report sub-piece offsets, so
// every token spans the whole piece.
func (t *SentencePieceTokenizer) Tokenize(piece string) ([]Token, error) {
	ids, err := t.Encode(piece)
	if err != nil {
		return nil, err
	}

	span := offsets.Span{Start: 0, End: len(piece)}
	toks := make([]Token, len(ids))
	for i, id := range ids {
		toks[i] = Token{ID: id, Value: piece, Offsets: span}
	}

	return toks, nil
}

// TokenToID reports the ID of token when it encodes to exactly one piece.
func (t *SentencePieceTokenizer) TokenToID(token string) (int64, bool) {
	ids, _ := t.Encode(token)
	if len(ids) != 1 {
		return 0, false
	}
	return ids[0], true
}
