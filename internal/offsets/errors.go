package offsets

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds indicates a span exceeds the extent of the text it addresses.
	ErrOutOfBounds = errors.New("span out of bounds")

	// ErrInvalidSpan indicates a byte offset that does not fall on a code point boundary.
	ErrInvalidSpan = errors.New("span not on a code point boundary")
)

// SpanError reports which operation rejected which span.
type SpanError struct {
	Op    string
	Span  Span
	Limit int // extent of the addressed text, -1 when unknown
	Err   error
}

func (e *SpanError) Error() string {
	if e.Limit < 0 {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Span, e.Err)
	}
	return fmt.Sprintf("%s %s (limit %d): %v", e.Op, e.Span, e.Limit, e.Err)
}

func (e *SpanError) Unwrap() error { return e.Err }
