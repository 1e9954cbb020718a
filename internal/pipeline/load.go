package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/example/go-textalign/internal/config"
	"github.com/example/go-textalign/internal/normalizers"
	"github.com/example/go-textalign/internal/pretokenizers"
	"github.com/example/go-textalign/internal/tokenizer"
)

// Description is the serialized form of a pipeline. A missing or null stage
// is skipped.
type Description struct {
	Normalizer   json.RawMessage `json:"normalizer"`
	PreTokenizer json.RawMessage `json:"pre_tokenizer"`
	Model        json.RawMessage `json:"model"`
}

func isNull(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || string(raw) == "null"
}

// FromJSON builds a pipeline from a Description document.
func FromJSON(data []byte, optFns ...Option) (*Pipeline, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var d Description
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode pipeline: %w", err)
	}
	return d.build(optFns...)
}

func (d Description) build(optFns ...Option) (*Pipeline, error) {
	var (
		n   normalizers.Normalizer
		pt  pretokenizers.PreTokenizer
		m   tokenizer.Model
		err error
	)
	if !isNull(d.Normalizer) {
		if n, err = normalizers.Unmarshal(d.Normalizer); err != nil {
			return nil, fmt.Errorf("normalizer: %w", err)
		}
	}
	if !isNull(d.PreTokenizer) {
		if pt, err = pretokenizers.Unmarshal(d.PreTokenizer); err != nil {
			return nil, fmt.Errorf("pre_tokenizer: %w", err)
		}
	}
	if !isNull(d.Model) {
		if m, err = UnmarshalModel(d.Model); err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
	}
	return New(n, pt, m, optFns...), nil
}

// FromTokenizerJSON builds a pipeline from a tokenizer.json document. The
// normalizer and pre-tokenizer must be supported; a model of any other type
// than the ones UnmarshalModel knows is left out.
func FromTokenizerJSON(data []byte, optFns ...Option) (*Pipeline, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("decode tokenizer.json: invalid JSON")
	}
	res := gjson.GetManyBytes(data, "normalizer", "pre_tokenizer", "model", "model.type")
	d := Description{
		Normalizer:   json.RawMessage(res[0].Raw),
		PreTokenizer: json.RawMessage(res[1].Raw),
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if modelType := res[3].String(); res[2].IsObject() {
		if _, ok := models[modelType]; ok {
			d.Model = json.RawMessage(res[2].Raw)
		} else {
			opts.logger.Info("tokenizer.json model not supported; running without a model",
				slog.String("model_type", modelType),
			)
		}
	}
	return d.build(optFns...)
}

// IsTokenizerJSON reports whether data looks like a tokenizer.json document
// rather than a Description.
func IsTokenizerJSON(data []byte) bool {
	res := gjson.GetManyBytes(data, "version", "added_tokens")
	return res[0].Exists() || res[1].Exists()
}

// Load reads a Description or tokenizer.json file.
func Load(path string, optFns ...Option) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline %q: %w", path, err)
	}
	if IsTokenizerJSON(data) {
		return FromTokenizerJSON(data, optFns...)
	}
	return FromJSON(data, optFns...)
}

// FromConfig builds the pipeline cfg describes. A configured model type
// replaces any model from the pipeline file.
func FromConfig(cfg config.Config, optFns ...Option) (*Pipeline, error) {
	optFns = append([]Option{WithWorkers(cfg.Pipeline.Workers)}, optFns...)

	var p *Pipeline
	if cfg.Pipeline.File != "" {
		var err error
		if p, err = Load(cfg.Pipeline.File, optFns...); err != nil {
			return nil, err
		}
	} else {
		n, err := normalizers.FromNames(strings.Split(cfg.Pipeline.Normalizer, ","))
		if err != nil {
			return nil, err
		}
		var pt pretokenizers.PreTokenizer
		if name := strings.TrimSpace(cfg.Pipeline.PreTokenizer); name != "" && name != "none" {
			if pt, err = pretokenizers.FromName(name); err != nil {
				return nil, err
			}
		}
		p = New(n, pt, nil, optFns...)
	}

	m, err := modelFromConfig(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	if m != nil {
		p.model = m
	}
	return p, nil
}

// MarshalJSON encodes the pipeline as a Description.
func (p *Pipeline) MarshalJSON() ([]byte, error) {
	var d Description
	var err error
	if p.normalizer != nil {
		if d.Normalizer, err = normalizers.Marshal(p.normalizer); err != nil {
			return nil, err
		}
	}
	if p.preTokenizer != nil {
		if d.PreTokenizer, err = pretokenizers.Marshal(p.preTokenizer); err != nil {
			return nil, err
		}
	}
	if p.model != nil {
		if d.Model, err = MarshalModel(p.model); err != nil {
			return nil, err
		}
	}
	return json.Marshal(d)
}
