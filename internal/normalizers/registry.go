package normalizers

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/example/go-textalign/internal/tagged"
)

func unit(n Normalizer) tagged.Factory[Normalizer] {
	return func(raw json.RawMessage) (Normalizer, error) {
		return n, tagged.Strict(raw, &struct{}{})
	}
}

// registry holds one factory per serialized "type".
var registry = tagged.Registry[Normalizer]{
	"NFC":          unit(NFC{}),
	"NFD":          unit(NFD{}),
	"NFKC":         unit(NFKC{}),
	"NFKD":         unit(NFKD{}),
	"Nmt":          unit(Nmt{}),
	"Lowercase":    unit(Lowercase{}),
	"StripAccents": unit(StripAccents{}),
	"ByteLevel":    unit(ByteLevel{}),
	"Strip": func(raw json.RawMessage) (Normalizer, error) {
		var s Strip
		return s, tagged.Strict(raw, &s)
	},
	"Prepend": func(raw json.RawMessage) (Normalizer, error) {
		var p Prepend
		return p, tagged.Strict(raw, &p)
	},
	"PlainText": func(raw json.RawMessage) (Normalizer, error) {
		var p PlainText
		return p, tagged.Strict(raw, &p)
	},
	"BertNormalizer": func(raw json.RawMessage) (Normalizer, error) {
		b := NewBertNormalizer()
		return b, tagged.Strict(raw, &b)
	},
	"Replace": func(raw json.RawMessage) (Normalizer, error) {
		var r Replace
		if err := tagged.Strict(raw, &r); err != nil {
			return nil, err
		}
		return NewReplace(r.Pattern, r.Content)
	},
	"AnyASCII": func(raw json.RawMessage) (Normalizer, error) {
		var j jsonAnyASCII
		if err := tagged.Strict(raw, &j); err != nil {
			return nil, err
		}
		return j.build()
	},
}

func init() {
	registry["Sequence"] = func(raw json.RawMessage) (Normalizer, error) {
		var body struct {
			Normalizers []json.RawMessage `json:"normalizers"`
		}
		if err := tagged.Strict(raw, &body); err != nil {
			return nil, err
		}
		seq := make(Sequence, 0, len(body.Normalizers))
		for i, item := range body.Normalizers {
			n, err := Unmarshal(item)
			if err != nil {
				return nil, fmt.Errorf("normalizers[%d]: %w", i, err)
			}
			seq = append(seq, n)
		}
		return seq, nil
	}
}

// Unmarshal decodes a tagged normalizer record such as {"type":"NFKC"}.
func Unmarshal(data []byte) (Normalizer, error) {
	return registry.Decode(data)
}

// Types returns the serialized names of every normalizer.
func Types() []string { return registry.Names() }

// Marshal encodes n as a tagged record.
func Marshal(n Normalizer) ([]byte, error) {
	switch v := n.(type) {
	case NFC:
		return tagged.Encode("NFC", v)
	case NFD:
		return tagged.Encode("NFD", v)
	case NFKC:
		return tagged.Encode("NFKC", v)
	case NFKD:
		return tagged.Encode("NFKD", v)
	case Nmt:
		return tagged.Encode("Nmt", v)
	case Lowercase:
		return tagged.Encode("Lowercase", v)
	case StripAccents:
		return tagged.Encode("StripAccents", v)
	case ByteLevel:
		return tagged.Encode("ByteLevel", v)
	case Strip:
		return tagged.Encode("Strip", v)
	case Prepend:
		return tagged.Encode("Prepend", v)
	case PlainText:
		return tagged.Encode("PlainText", v)
	case BertNormalizer:
		return tagged.Encode("BertNormalizer", v)
	case *Replace:
		return tagged.Encode("Replace", v)
	case *AnyASCII:
		return tagged.Encode("AnyASCII", v.toJSON())
	case Sequence:
		items := make([]json.RawMessage, len(v))
		for i, item := range v {
			b, err := Marshal(item)
			if err != nil {
				return nil, fmt.Errorf("normalizers[%d]: %w", i, err)
			}
			items[i] = b
		}
		return tagged.Encode("Sequence", struct {
			Normalizers []json.RawMessage `json:"normalizers"`
		}{items})
	default:
		return nil, fmt.Errorf("marshal normalizer %T: not serializable", n)
	}
}

// shorthand maps the unicode normalizer names accepted on the command line.
var shorthand = map[string]func() Normalizer{
	"nfc":        func() Normalizer { return NFC{} },
	"nfd":        func() Normalizer { return NFD{} },
	"nfkc":       func() Normalizer { return NFKC{} },
	"nfkd":       func() Normalizer { return NFKD{} },
	"any_ascii":  func() Normalizer { a, _ := NewAnyASCII("", nil); return a },
	"nmt":        func() Normalizer { return Nmt{} },
	"lowercase":  func() Normalizer { return Lowercase{} },
	"strip":      func() Normalizer { return Strip{Left: true, Right: true} },
	"plain_text": func() Normalizer { return PlainText{} },
	"bert":       func() Normalizer { return NewBertNormalizer() },
}

// FromName returns the normalizer registered under a shorthand name.
func FromName(name string) (Normalizer, error) {
	mk, ok := shorthand[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		names := slices.Sorted(maps.Keys(shorthand))
		return nil, fmt.Errorf("%s is not a known normalizer; available: %s", name, strings.Join(names, ", "))
	}
	return mk(), nil
}

// FromNames builds a Sequence from shorthand names. A single name yields that
// normalizer alone; no names yield nil.
func FromNames(names []string) (Normalizer, error) {
	var seq Sequence
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		n, err := FromName(name)
		if err != nil {
			return nil, err
		}
		seq = append(seq, n)
	}
	switch len(seq) {
	case 0:
		return nil, nil
	case 1:
		return seq[0], nil
	default:
		return seq, nil
	}
}
