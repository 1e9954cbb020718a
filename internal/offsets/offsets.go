// Package offsets defines the position types shared by the alignment engine:
// half-open spans addressed in the Original or Current coordinate space, at
// byte or character (code point) granularity, and the conversions between
// the two granularities.
package offsets

import (
	"fmt"
	"unicode/utf8"
)

// Space selects the coordinate space a span is expressed in.
type Space int

const (
	// Original addresses the untouched input text.
	Original Space = iota
	// Current addresses the text after all rewrites applied so far.
	Current
)

func (s Space) String() string {
	switch s {
	case Original:
		return "original"
	case Current:
		return "current"
	default:
		return fmt.Sprintf("Space(%d)", int(s))
	}
}

// ParseSpace parses "original" or "current" (also "normalized").
func ParseSpace(s string) (Space, error) {
	switch s {
	case "original", "":
		return Original, nil
	case "current", "normalized":
		return Current, nil
	default:
		return Original, fmt.Errorf("unknown offset space %q (want original|current)", s)
	}
}

// Unit selects byte or character granularity.
type Unit int

const (
	Byte Unit = iota
	Char
)

func (u Unit) String() string {
	switch u {
	case Byte:
		return "byte"
	case Char:
		return "char"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// ParseUnit parses "byte" or "char".
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "byte", "":
		return Byte, nil
	case "char":
		return Char, nil
	default:
		return Byte, fmt.Errorf("unknown offset unit %q (want byte|char)", s)
	}
}

// Span is a half-open interval [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns End - Start.
func (s Span) Len() int { return s.End - s.Start }

// IsEmpty reports whether the span covers nothing.
func (s Span) IsEmpty() bool { return s.End <= s.Start }

// Shift moves both endpoints by n.
func (s Span) Shift(n int) Span { return Span{Start: s.Start + n, End: s.End + n} }

// Clamp restricts s to lie within bounds.
func (s Span) Clamp(bounds Span) Span {
	return Span{
		Start: min(max(s.Start, bounds.Start), bounds.End),
		End:   min(max(s.End, bounds.Start), bounds.End),
	}
}

func (s Span) String() string { return fmt.Sprintf("[%d, %d)", s.Start, s.End) }

// Hull returns the smallest span containing both a and b.
func Hull(a, b Span) Span {
	return Span{Start: min(a.Start, b.Start), End: max(a.End, b.End)}
}

// Range is a span tagged with the space and unit it is expressed in.
type Range struct {
	Space Space
	Unit  Unit
	Span
}

func (r Range) String() string {
	return fmt.Sprintf("%s/%s%s", r.Space, r.Unit, r.Span)
}

// OriginalBytes builds an Original-space byte range.
func OriginalBytes(start, end int) Range {
	return Range{Space: Original, Unit: Byte, Span: Span{Start: start, End: end}}
}

// OriginalChars builds an Original-space character range.
func OriginalChars(start, end int) Range {
	return Range{Space: Original, Unit: Char, Span: Span{Start: start, End: end}}
}

// CurrentBytes builds a Current-space byte range.
func CurrentBytes(start, end int) Range {
	return Range{Space: Current, Unit: Byte, Span: Span{Start: start, End: end}}
}

// CurrentChars builds a Current-space character range.
func CurrentChars(start, end int) Range {
	return Range{Space: Current, Unit: Char, Span: Span{Start: start, End: end}}
}

// CheckBounds returns ErrOutOfBounds unless 0 <= start <= end <= limit.
func CheckBounds(op string, s Span, limit int) error {
	if s.Start < 0 || s.Start > s.End || s.End > limit {
		return &SpanError{Op: op, Span: s, Limit: limit, Err: ErrOutOfBounds}
	}
	return nil
}

// CheckBoundary validates a byte span of text: it must be in bounds and both
// endpoints must fall on code point boundaries.
func CheckBoundary(text string, s Span) error {
	if err := CheckBounds("byte span", s, len(text)); err != nil {
		return err
	}
	for _, b := range [2]int{s.Start, s.End} {
		if b < len(text) && !utf8.RuneStart(text[b]) {
			return &SpanError{Op: "byte span", Span: s, Limit: len(text), Err: ErrInvalidSpan}
		}
	}
	return nil
}

// ByteToChar converts a byte span of text into a character span. Both
// endpoints must fall on code point boundaries.
func ByteToChar(text string, s Span) (Span, error) {
	if err := CheckBoundary(text, s); err != nil {
		return Span{}, err
	}

	start := utf8.RuneCountInString(text[:s.Start])
	return Span{Start: start, End: start + utf8.RuneCountInString(text[s.Start:s.End])}, nil
}

// CharToByte converts a character span of text into a byte span.
func CharToByte(text string, s Span) (Span, error) {
	if s.Start < 0 || s.Start > s.End {
		return Span{}, &SpanError{Op: "char to byte", Span: s, Limit: -1, Err: ErrOutOfBounds}
	}

	out := Span{Start: -1, End: -1}
	n := 0
	for i := range text {
		if n == s.Start {
			out.Start = i
		}
		if n == s.End {
			out.End = i
			return out, nil
		}
		n++
	}
	if n == s.Start {
		out.Start = len(text)
	}
	if n == s.End {
		out.End = len(text)
	}
	if out.Start < 0 || out.End < 0 {
		return Span{}, &SpanError{Op: "char to byte", Span: s, Limit: n, Err: ErrOutOfBounds}
	}
	return out, nil
}

// Convert expresses a span of text given in unit `from` in unit `to`.
func Convert(text string, s Span, from, to Unit) (Span, error) {
	switch {
	case from == Char && to == Char:
		if err := CheckBounds("convert", s, utf8.RuneCountInString(text)); err != nil {
			return Span{}, err
		}
		return s, nil
	case from == Byte && to == Byte:
		if err := CheckBoundary(text, s); err != nil {
			return Span{}, err
		}
		return s, nil
	case from == Byte:
		return ByteToChar(text, s)
	default:
		return CharToByte(text, s)
	}
}
