package pretokenizers

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/example/go-textalign/internal/tagged"
)

func unit(pt PreTokenizer) tagged.Factory[PreTokenizer] {
	return func(raw json.RawMessage) (PreTokenizer, error) {
		return pt, tagged.Strict(raw, &struct{}{})
	}
}

var registry = tagged.Registry[PreTokenizer]{
	"Whitespace":       unit(Whitespace{}),
	"WhitespaceSplit":  unit(WhitespaceSplit{}),
	"BertPreTokenizer": unit(Bert{}),
	"Sentence":         unit(Sentence{}),
	"Graphemes":        unit(Graphemes{}),
	"EditBoundaries": func(raw json.RawMessage) (PreTokenizer, error) {
		var e EditBoundaries
		return e, tagged.Strict(raw, &e)
	},
	"Punctuation": func(raw json.RawMessage) (PreTokenizer, error) {
		pu := NewPunctuation()
		return pu, tagged.Strict(raw, &pu)
	},
	"Digits": func(raw json.RawMessage) (PreTokenizer, error) {
		var d Digits
		return d, tagged.Strict(raw, &d)
	},
	"Chunk": func(raw json.RawMessage) (PreTokenizer, error) {
		var c Chunk
		return c, tagged.Strict(raw, &c)
	},
	"Split": func(raw json.RawMessage) (PreTokenizer, error) {
		var s Split
		if err := tagged.Strict(raw, &s); err != nil {
			return nil, err
		}
		return NewSplit(s.Pattern, s.Behavior, s.Invert)
	},
}

func init() {
	registry["Sequence"] = func(raw json.RawMessage) (PreTokenizer, error) {
		var body struct {
			PreTokenizers []json.RawMessage `json:"pretokenizers"`
		}
		if err := tagged.Strict(raw, &body); err != nil {
			return nil, err
		}
		seq := make(Sequence, 0, len(body.PreTokenizers))
		for i, item := range body.PreTokenizers {
			pt, err := Unmarshal(item)
			if err != nil {
				return nil, fmt.Errorf("pretokenizers[%d]: %w", i, err)
			}
			seq = append(seq, pt)
		}
		return seq, nil
	}
}

// Unmarshal decodes a tagged pre-tokenizer record such as
// {"type":"Whitespace"}.
func Unmarshal(data []byte) (PreTokenizer, error) {
	return registry.Decode(data)
}

// Types returns the serialized names of every pre-tokenizer.
func Types() []string { return registry.Names() }

// Marshal encodes pt as a tagged record.
func Marshal(pt PreTokenizer) ([]byte, error) {
	switch v := pt.(type) {
	case Whitespace:
		return tagged.Encode("Whitespace", v)
	case WhitespaceSplit:
		return tagged.Encode("WhitespaceSplit", v)
	case Bert:
		return tagged.Encode("BertPreTokenizer", v)
	case Sentence:
		return tagged.Encode("Sentence", v)
	case Graphemes:
		return tagged.Encode("Graphemes", v)
	case EditBoundaries:
		return tagged.Encode("EditBoundaries", v)
	case Punctuation:
		return tagged.Encode("Punctuation", v)
	case Digits:
		return tagged.Encode("Digits", v)
	case Chunk:
		return tagged.Encode("Chunk", v)
	case *Split:
		return tagged.Encode("Split", v)
	case Sequence:
		items := make([]json.RawMessage, len(v))
		for i, item := range v {
			b, err := Marshal(item)
			if err != nil {
				return nil, fmt.Errorf("pretokenizers[%d]: %w", i, err)
			}
			items[i] = b
		}
		return tagged.Encode("Sequence", struct {
			PreTokenizers []json.RawMessage `json:"pretokenizers"`
		}{items})
	default:
		return nil, fmt.Errorf("marshal pre-tokenizer %T: not serializable", pt)
	}
}

var shorthand = map[string]func() PreTokenizer{
	"whitespace":       func() PreTokenizer { return Whitespace{} },
	"whitespace_split": func() PreTokenizer { return WhitespaceSplit{} },
	"punctuation":      func() PreTokenizer { return NewPunctuation() },
	"bert":             func() PreTokenizer { return Bert{} },
	"digits":           func() PreTokenizer { return Digits{} },
	"sentence":         func() PreTokenizer { return Sentence{} },
	"graphemes":        func() PreTokenizer { return Graphemes{} },
}

// FromName returns the pre-tokenizer registered under a shorthand name.
func FromName(name string) (PreTokenizer, error) {
	mk, ok := shorthand[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		names := slices.Sorted(maps.Keys(shorthand))
		return nil, fmt.Errorf("%s is not a known pre-tokenizer; available: %s", name, strings.Join(names, ", "))
	}
	return mk(), nil
}
