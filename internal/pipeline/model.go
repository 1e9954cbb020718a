package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/example/go-textalign/internal/config"
	"github.com/example/go-textalign/internal/tagged"
	"github.com/example/go-textalign/internal/tokenizer"
)

type wordLevelRecord struct {
	Vocab    map[string]int64 `json:"vocab"`
	UnkToken string           `json:"unk_token"`
}

type sentencePieceRecord struct {
	Path string `json:"path"`
}

var models = tagged.Registry[tokenizer.Model]{
	"Noop": func(raw json.RawMessage) (tokenizer.Model, error) {
		return tokenizer.Noop{}, tagged.Strict(raw, &struct{}{})
	},
	"WordLevel": func(raw json.RawMessage) (tokenizer.Model, error) {
		var r wordLevelRecord
		if err := tagged.Strict(raw, &r); err != nil {
			return nil, err
		}
		return tokenizer.NewWordLevel(r.Vocab, r.UnkToken)
	},
	"SentencePiece": func(raw json.RawMessage) (tokenizer.Model, error) {
		var r sentencePieceRecord
		if err := tagged.Strict(raw, &r); err != nil {
			return nil, err
		}
		return tokenizer.NewSentencePieceTokenizer(r.Path)
	},
}

// UnmarshalModel decodes a tagged model record.
func UnmarshalModel(data []byte) (tokenizer.Model, error) {
	return models.Decode(data)
}

// MarshalModel encodes m as a tagged record.
func MarshalModel(m tokenizer.Model) ([]byte, error) {
	switch v := m.(type) {
	case tokenizer.Noop:
		return tagged.Encode("Noop", struct{}{})
	case *tokenizer.WordLevel:
		return tagged.Encode("WordLevel", wordLevelRecord{Vocab: v.Vocab(), UnkToken: v.UnkToken()})
	case *tokenizer.SentencePieceTokenizer:
		if v.Path() == "" {
			return nil, fmt.Errorf("marshal sentencepiece model: loaded from bytes, no path to record")
		}
		return tagged.Encode("SentencePiece", sentencePieceRecord{Path: v.Path()})
	default:
		return nil, fmt.Errorf("marshal model %T: not serializable", m)
	}
}

// modelFromConfig builds the model named by cfg. ModelNone yields nil.
func modelFromConfig(cfg config.ModelConfig) (tokenizer.Model, error) {
	kind, err := config.NormalizeModelType(cfg.Type)
	if err != nil {
		return nil, err
	}
	switch kind {
	case config.ModelNoop:
		return tokenizer.Noop{}, nil
	case config.ModelWordLevel:
		return tokenizer.LoadWordLevel(cfg.VocabPath, cfg.UnkToken)
	case config.ModelSentencePiece:
		return tokenizer.NewSentencePieceTokenizer(cfg.SentencePiecePath)
	default:
		return nil, nil
	}
}
