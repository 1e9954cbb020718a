package pretokenizers

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/example/go-textalign/internal/normalized"
	"github.com/example/go-textalign/internal/offsets"
	"github.com/example/go-textalign/internal/pretokenized"
)

// Chunk groups consecutive sentences into fragments of at most MaxChars
// characters, measured from the first sentence's first character to the
// last sentence's terminator. A sentence longer than MaxChars stays whole.
// Whitespace between chunks is dropped. MaxChars <= 0 only strips the
// fragment.
type Chunk struct {
	MaxChars int `json:"max_chars"`
}

func (c Chunk) PreTokenize(p *pretokenized.String) error { return p.Split(c.SplitFragment) }

func (c Chunk) SplitFragment(_ int, n *normalized.String) ([]*normalized.String, error) {
	text := n.Current()

	var out []*normalized.String
	emit := func(s offsets.Span) error {
		part, err := n.Slice(offsets.CurrentBytes(s.Start, s.End))
		if err != nil {
			return err
		}
		part.Strip()
		out = append(out, part)
		return nil
	}

	if c.MaxChars <= 0 {
		if err := emit(offsets.Span{Start: 0, End: len(text)}); err != nil {
			return nil, err
		}
		return out, nil
	}

	var cur offsets.Span
	open := false
	for _, s := range sentenceSpans(text) {
		if open && utf8.RuneCountInString(text[cur.Start:s.End]) <= c.MaxChars {
			cur.End = s.End
			continue
		}
		if open {
			if err := emit(cur); err != nil {
				return nil, err
			}
		}
		cur, open = s, true
	}
	if open {
		if err := emit(cur); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// sentenceSpans returns the byte spans of the sentences in text, each ending
// after its '.', '!' or '?' and trimmed of surrounding whitespace. Text after
// the last terminator forms a final sentence.
func sentenceSpans(text string) []offsets.Span {
	var out []offsets.Span
	add := func(start, end int) {
		seg := text[start:end]
		lead := len(seg) - len(strings.TrimLeftFunc(seg, unicode.IsSpace))
		trail := len(seg) - len(strings.TrimRightFunc(seg, unicode.IsSpace))
		if lead+trail < len(seg) {
			out = append(out, offsets.Span{Start: start + lead, End: end - trail})
		}
	}

	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			add(start, i+1)
			start = i + 1
		}
	}
	if start < len(text) {
		add(start, len(text))
	}
	return out
}
