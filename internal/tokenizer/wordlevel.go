package tokenizer

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"

	"github.com/example/go-textalign/internal/offsets"
)

// WordLevel maps each piece to exactly one vocabulary entry.
type WordLevel struct {
	vocab map[string]int64
	unk   string
}

// NewWordLevel builds a model over vocab. If unk is non-empty it must be in
// vocab; pieces missing from the vocabulary are then mapped to it.
func NewWordLevel(vocab map[string]int64, unk string) (*WordLevel, error) {
	if unk != "" {
		if _, ok := vocab[unk]; !ok {
			return nil, fmt.Errorf("unknown token %q: %w", unk, ErrUnknownToken)
		}
	}
	return &WordLevel{vocab: vocab, unk: unk}, nil
}

// LoadWordLevel reads a JSON object of token to ID from path.
func LoadWordLevel(path, unk string) (*WordLevel, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocab %q: %w", path, err)
	}
	var vocab map[string]int64
	if err := json.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("decode vocab %q: %w", path, err)
	}
	return NewWordLevel(vocab, unk)
}

// Vocab returns a copy of the vocabulary.
func (w *WordLevel) Vocab() map[string]int64 { return maps.Clone(w.vocab) }

// UnkToken returns the token unknown pieces map to, or "".
func (w *WordLevel) UnkToken() string { return w.unk }

// VocabSize returns the number of vocabulary entries.
func (w *WordLevel) VocabSize() int { return len(w.vocab) }

func (w *WordLevel) Tokenize(piece string) ([]Token, error) {
	span := offsets.Span{Start: 0, End: len(piece)}
	if id, ok := w.vocab[piece]; ok {
		return []Token{{ID: id, Value: piece, Offsets: span}}, nil
	}
	if w.unk == "" {
		return nil, fmt.Errorf("%q: %w", piece, ErrUnknownToken)
	}
	return []Token{{ID: w.vocab[w.unk], Value: w.unk, Offsets: span}}, nil
}

func (w *WordLevel) TokenToID(token string) (int64, bool) {
	id, ok := w.vocab[token]
	return id, ok
}

// Encode implements Tokenizer.
func (w *WordLevel) Encode(text string) ([]int64, error) { return Encode(w, text) }
