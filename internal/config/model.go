package config

import (
	"fmt"
	"strings"
)

const (
	ModelNone          = "none"
	ModelNoop          = "noop"
	ModelWordLevel     = "wordlevel"
	ModelSentencePiece = "sentencepiece"
)

func NormalizeModelType(raw string) (string, error) {
	model := strings.ToLower(strings.TrimSpace(raw))
	if model == "" {
		model = ModelNone
	}
	switch model {
	case ModelNone, ModelNoop, ModelWordLevel, ModelSentencePiece:
		return model, nil
	case "word_level", "word-level":
		return ModelWordLevel, nil
	case "sp", "spm", "sentence-piece":
		return ModelSentencePiece, nil
	default:
		return "", fmt.Errorf(
			"invalid model type %q (expected %s|%s|%s|%s)",
			raw,
			ModelNone,
			ModelNoop,
			ModelWordLevel,
			ModelSentencePiece,
		)
	}
}
