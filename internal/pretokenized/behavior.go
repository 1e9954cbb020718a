package pretokenized

import (
	"fmt"

	"github.com/example/go-textalign/internal/normalized"
	"github.com/example/go-textalign/internal/offsets"
	"github.com/example/go-textalign/internal/pattern"
)

// Behavior decides what happens to the text a pattern matched when a buffer
// is split on it.
type Behavior int

const (
	// Removed drops every match.
	Removed Behavior = iota
	// Isolated emits every match as its own fragment.
	Isolated
	// MergedWithPrevious glues a match onto the end of the fragment before it.
	MergedWithPrevious
	// MergedWithNext glues a match onto the start of the fragment after it.
	MergedWithNext
	// Contiguous emits each run of adjacent matches as one fragment.
	Contiguous
)

var behaviorNames = [...]string{
	Removed:            "removed",
	Isolated:           "isolated",
	MergedWithPrevious: "merged_with_previous",
	MergedWithNext:     "merged_with_next",
	Contiguous:         "contiguous",
}

func (b Behavior) String() string {
	if b >= 0 && int(b) < len(behaviorNames) {
		return behaviorNames[b]
	}
	return fmt.Sprintf("Behavior(%d)", int(b))
}

// ParseBehavior accepts the snake_case names and their CamelCase spelling
// ("MergedWithPrevious") used in tokenizer.json files.
func ParseBehavior(s string) (Behavior, error) {
	for b, name := range behaviorNames {
		if s == name || s == camel(name) {
			return Behavior(b), nil
		}
	}
	return Removed, fmt.Errorf("unknown split behavior %q", s)
}

func (b Behavior) MarshalText() ([]byte, error) {
	if b < 0 || int(b) >= len(behaviorNames) {
		return nil, fmt.Errorf("unknown split behavior %d", int(b))
	}
	return []byte(behaviorNames[b]), nil
}

func (b *Behavior) UnmarshalText(text []byte) error {
	v, err := ParseBehavior(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

func camel(snake string) string {
	out := make([]byte, 0, len(snake))
	upper := true
	for i := 0; i < len(snake); i++ {
		c := snake[i]
		switch {
		case c == '_':
			upper = true
		case upper:
			out = append(out, c-'a'+'A')
			upper = false
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// SplitBuffer cuts n at the matches of p found in its current text and
// disposes of each match according to b. Text between matches is always
// kept. Empty fragments are never returned.
func SplitBuffer(n *normalized.String, p pattern.Pattern, b Behavior) ([]*normalized.String, error) {
	var pieces []offsets.Span
	lastMatch := false

	for seg := range pattern.Segments(p, n.Current()) {
		extend := false
		switch b {
		case Removed:
			if seg.Match {
				continue
			}
		case Isolated:
		case MergedWithPrevious:
			extend = seg.Match && !lastMatch
		case MergedWithNext:
			extend = !seg.Match && lastMatch
		case Contiguous:
			extend = seg.Match && lastMatch
		default:
			return nil, fmt.Errorf("split: %v", b)
		}
		lastMatch = seg.Match

		if extend && len(pieces) > 0 {
			pieces[len(pieces)-1].End = seg.End
			continue
		}
		pieces = append(pieces, seg.Span)
	}

	out := make([]*normalized.String, 0, len(pieces))
	for _, s := range pieces {
		if s.IsEmpty() {
			continue
		}
		child, err := n.Slice(offsets.CurrentBytes(s.Start, s.End))
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}
