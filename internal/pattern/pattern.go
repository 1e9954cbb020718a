// Package pattern finds rule matches over text. Matches are reported as byte
// spans; Invert turns a pattern into its complement so that the text between
// matches can be treated as the interesting part.
package pattern

import (
	"errors"
	"fmt"
	"iter"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/example/go-textalign/internal/offsets"
)

// ErrInvalidPattern is returned when a pattern fails to compile.
var ErrInvalidPattern = errors.New("invalid pattern")

// Pattern yields the byte spans of its matches in text, in order and without
// overlap. Empty matches are never yielded. The sequence can be iterated any
// number of times.
type Pattern interface {
	FindIter(text string) iter.Seq[offsets.Span]
}

// Segment is a piece of text that either matched a pattern or lies between
// two matches.
type Segment struct {
	offsets.Span
	Match bool
}

// Segmenter is implemented by patterns that partition text themselves
// instead of deriving the partition from FindIter.
type Segmenter interface {
	Segments(text string) iter.Seq[Segment]
}

// Segments partitions text into matches and gaps. The yielded spans are
// contiguous and cover the whole text.
func Segments(p Pattern, text string) iter.Seq[Segment] {
	if s, ok := p.(Segmenter); ok {
		return s.Segments(text)
	}
	return func(yield func(Segment) bool) {
		prev := 0
		for m := range p.FindIter(text) {
			if m.Start > prev {
				if !yield(Segment{Span: offsets.Span{Start: prev, End: m.Start}}) {
					return
				}
			}
			if !yield(Segment{Span: m, Match: true}) {
				return
			}
			prev = m.End
		}
		if prev < len(text) {
			yield(Segment{Span: offsets.Span{Start: prev, End: len(text)}})
		}
	}
}

// ---------------------------------------------------------------------------
// Regexp
// ---------------------------------------------------------------------------

// Regexp matches a compiled regular expression.
type Regexp struct {
	re *regexp.Regexp
}

// Compile compiles expr. Errors wrap ErrInvalidPattern.
func Compile(expr string) (*Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, expr, err)
	}
	return &Regexp{re: re}, nil
}

// MustCompile is Compile for expressions known to be valid.
func MustCompile(expr string) *Regexp {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source expression.
func (r *Regexp) String() string { return r.re.String() }

func (r *Regexp) FindIter(text string) iter.Seq[offsets.Span] {
	return func(yield func(offsets.Span) bool) {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			if loc[0] == loc[1] {
				continue
			}
			if !yield(offsets.Span{Start: loc[0], End: loc[1]}) {
				return
			}
		}
	}
}

// Source is the serialized form of a pattern: a literal string or a
// regular expression. Exactly one field is set.
type Source struct {
	String string `json:"String,omitempty"`
	Regex  string `json:"Regex,omitempty"`
}

// Compile builds the pattern the source describes.
func (s Source) Compile() (Pattern, error) {
	switch {
	case s.String != "" && s.Regex != "":
		return nil, errors.New("pattern sets both String and Regex")
	case s.Regex != "":
		return Compile(s.Regex)
	case s.String != "":
		return Literal(s.String), nil
	default:
		return nil, errors.New("pattern is empty")
	}
}

// ---------------------------------------------------------------------------
// Literal
// ---------------------------------------------------------------------------

// Literal matches every non-overlapping occurrence of a fixed string.
type Literal string

func (l Literal) FindIter(text string) iter.Seq[offsets.Span] {
	return func(yield func(offsets.Span) bool) {
		if l == "" {
			return
		}
		pos := 0
		for {
			i := strings.Index(text[pos:], string(l))
			if i < 0 {
				return
			}
			start := pos + i
			pos = start + len(l)
			if !yield(offsets.Span{Start: start, End: pos}) {
				return
			}
		}
	}
}

// ---------------------------------------------------------------------------
// RuneFunc
// ---------------------------------------------------------------------------

// RuneFunc matches every single character for which the predicate holds.
type RuneFunc func(rune) bool

// Rune matches one specific character.
func Rune(c rune) RuneFunc {
	return func(r rune) bool { return r == c }
}

func (f RuneFunc) FindIter(text string) iter.Seq[offsets.Span] {
	return func(yield func(offsets.Span) bool) {
		for i, r := range text {
			if !f(r) {
				continue
			}
			size := utf8.RuneLen(r)
			if size < 0 {
				size = 1
			}
			if !yield(offsets.Span{Start: i, End: i + size}) {
				return
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Graphemes
// ---------------------------------------------------------------------------

// Graphemes matches each extended grapheme cluster.
type Graphemes struct{}

func (Graphemes) FindIter(text string) iter.Seq[offsets.Span] {
	return func(yield func(offsets.Span) bool) {
		g := uniseg.NewGraphemes(text)
		for g.Next() {
			from, to := g.Positions()
			if !yield(offsets.Span{Start: from, End: to}) {
				return
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Invert
// ---------------------------------------------------------------------------

// Inverted yields the gaps of the wrapped pattern: the text before the first
// match, between consecutive matches, and after the last one. Its segments
// are those of the wrapped pattern with Match flipped, so adjacent matches of
// the wrapped pattern stay separate gaps.
type Inverted struct {
	P Pattern
}

// Invert wraps p so that its gaps become the matches.
func Invert(p Pattern) Inverted { return Inverted{P: p} }

func (v Inverted) FindIter(text string) iter.Seq[offsets.Span] {
	return func(yield func(offsets.Span) bool) {
		for seg := range Segments(v.P, text) {
			if seg.Match {
				continue
			}
			if !yield(seg.Span) {
				return
			}
		}
	}
}

func (v Inverted) Segments(text string) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		for seg := range Segments(v.P, text) {
			seg.Match = !seg.Match
			if !yield(seg) {
				return
			}
		}
	}
}
