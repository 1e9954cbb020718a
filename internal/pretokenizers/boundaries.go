package pretokenizers

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/example/go-textalign/internal/normalized"
	"github.com/example/go-textalign/internal/offsets"
	"github.com/example/go-textalign/internal/pretokenized"
)

// ErrEmptyFragment is returned when a boundary edit has to inspect the first
// or last character of an empty fragment.
var ErrEmptyFragment = errors.New("empty fragment")

// EdgePolicy says what to do with the space at one end of a fragment.
type EdgePolicy int

const (
	// Leave keeps the end as it is.
	Leave EdgePolicy = iota
	// EnsureSpace inserts a space unless one is already there.
	EnsureSpace
	// StripSpace removes a space if one is there.
	StripSpace
)

var edgeNames = [...]string{Leave: "None", EnsureSpace: "EnsureSpace", StripSpace: "StripSpace"}

func (e EdgePolicy) String() string {
	if e >= 0 && int(e) < len(edgeNames) {
		return edgeNames[e]
	}
	return fmt.Sprintf("EdgePolicy(%d)", int(e))
}

func (e EdgePolicy) MarshalText() ([]byte, error) {
	if e < 0 || int(e) >= len(edgeNames) {
		return nil, fmt.Errorf("unknown edge policy %d", int(e))
	}
	return []byte(edgeNames[e]), nil
}

func (e *EdgePolicy) UnmarshalText(text []byte) error {
	for i, name := range edgeNames {
		if string(text) == name {
			*e = EdgePolicy(i)
			return nil
		}
	}
	return fmt.Errorf("unknown edge policy %q", text)
}

// EditBoundaries makes sure each fragment starts and ends with, or without, a
// single space.
type EditBoundaries struct {
	Left  EdgePolicy `json:"left"`
	Right EdgePolicy `json:"right"`
}

func (e EditBoundaries) PreTokenize(p *pretokenized.String) error { return p.Split(e.SplitFragment) }

// SplitFragment edits one fragment. A positive left or negative right
// adjustment trims a space; the opposite sign inserts one.
func (e EditBoundaries) SplitFragment(_ int, n *normalized.String) ([]*normalized.String, error) {
	if e.Left == Leave && e.Right == Leave {
		return []*normalized.String{n}, nil
	}
	cur := n.Current()
	if cur == "" {
		return nil, fmt.Errorf("%w: edit boundaries left=%s right=%s", ErrEmptyFragment, e.Left, e.Right)
	}
	first, _ := utf8.DecodeRuneInString(cur)
	last, _ := utf8.DecodeLastRuneInString(cur)

	left, right := 0, 0
	switch {
	case e.Left == EnsureSpace && first != ' ':
		left = -1
	case e.Left == StripSpace && first == ' ':
		left = 1
	}
	switch {
	case e.Right == EnsureSpace && last != ' ':
		right = 1
	case e.Right == StripSpace && last == ' ':
		right = -1
	}
	if left == 0 && right == 0 {
		return []*normalized.String{n}, nil
	}

	if left > 0 || right < 0 {
		size := n.Len(offsets.Current, offsets.Char)
		lo, hi := max(left, 0), size+min(right, 0)
		if hi < lo {
			lo, hi = 0, 0
		}
		trimmed, err := n.Slice(offsets.CurrentChars(lo, hi))
		if err != nil {
			return nil, err
		}
		n = trimmed
	}
	if left < 0 {
		n.Prepend(" ")
	}
	if right > 0 {
		n.Append(" ")
	}
	return []*normalized.String{n}, nil
}
