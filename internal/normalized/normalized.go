// Package normalized implements the alignment buffer: a text that remembers,
// for every character of its current (rewritten) form, which byte span of the
// original input it came from.
//
// Alignment entries are original byte spans relative to the buffer's own
// original text; OriginalShift locates that text inside the input the buffer
// was ultimately carved from.
package normalized

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/example/go-textalign/internal/offsets"
)

// String is an alignment buffer. The zero value is an empty buffer.
type String struct {
	original string
	current  string
	align    []offsets.Span
	shift    int
}

// New returns a buffer whose current form equals text, aligned 1:1.
func New(text string) *String {
	align := make([]offsets.Span, 0, utf8.RuneCountInString(text))
	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		align = append(align, offsets.Span{Start: i, End: i + size})
		i += size
	}
	return &String{original: text, current: text, align: align}
}

// Original returns the text the buffer was built from.
func (n *String) Original() string { return n.original }

// Current returns the rewritten text.
func (n *String) Current() string { return n.current }

// OriginalShift returns the byte offset of Original within the ancestor text.
func (n *String) OriginalShift() int { return n.shift }

// Alignments returns a copy of the per-character alignment table.
func (n *String) Alignments() []offsets.Span { return slices.Clone(n.align) }

// Clone returns an independent copy of n.
func (n *String) Clone() *String {
	return &String{
		original: n.original,
		current:  n.current,
		align:    slices.Clone(n.align),
		shift:    n.shift,
	}
}

// Len returns the length of the buffer in the given space and unit.
func (n *String) Len(space offsets.Space, unit offsets.Unit) int {
	switch {
	case space == offsets.Original && unit == offsets.Byte:
		return len(n.original)
	case space == offsets.Original:
		return utf8.RuneCountInString(n.original)
	case unit == offsets.Byte:
		return len(n.current)
	default:
		return len(n.align)
	}
}

// IsEmpty reports whether the current text is empty.
func (n *String) IsEmpty() bool { return n.current == "" }

// OriginalExtent returns the original byte span covered by the whole current
// text, relative to Original. A buffer whose current text was deleted
// entirely reports its whole original.
func (n *String) OriginalExtent() offsets.Span {
	if len(n.align) == 0 {
		return offsets.Span{Start: 0, End: len(n.original)}
	}
	return n.originalSpan(offsets.Span{Start: 0, End: len(n.align)})
}

// Validate checks the buffer invariants: one alignment entry per current
// character, entries inside the original text, non-decreasing endpoints.
func (n *String) Validate() error {
	if got := utf8.RuneCountInString(n.current); got != len(n.align) {
		return fmt.Errorf("alignment has %d entries for %d characters", len(n.align), got)
	}
	bounds := offsets.Span{Start: 0, End: len(n.original)}
	for i, a := range n.align {
		if a.Start < 0 || a.Start > a.End || a.End > bounds.End {
			return fmt.Errorf("alignment %d: %s outside %s", i, a, bounds)
		}
		if i > 0 && (a.Start < n.align[i-1].Start || a.End < n.align[i-1].End) {
			return fmt.Errorf("alignment %d: %s precedes %s", i, a, n.align[i-1])
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Offset conversion
// ---------------------------------------------------------------------------

// Convert expresses r in the requested space and unit. Current-to-Original
// conversion of a range yields the hull of its first and last characters'
// alignments; Original-to-Current yields the characters whose alignments
// intersect r.
func (n *String) Convert(r offsets.Range, space offsets.Space, unit offsets.Unit) (offsets.Span, error) {
	if r.Space == space {
		return offsets.Convert(n.text(space), r.Span, r.Unit, unit)
	}

	if r.Space == offsets.Current {
		chars, err := offsets.Convert(n.current, r.Span, r.Unit, offsets.Char)
		if err != nil {
			return offsets.Span{}, err
		}
		return offsets.Convert(n.original, n.originalSpan(chars), offsets.Byte, unit)
	}

	orig, err := offsets.Convert(n.original, r.Span, r.Unit, offsets.Byte)
	if err != nil {
		return offsets.Span{}, err
	}
	return offsets.Convert(n.current, n.currentChars(orig), offsets.Char, unit)
}

func (n *String) text(space offsets.Space) string {
	if space == offsets.Original {
		return n.original
	}
	return n.current
}

// originalSpan maps a current character span to original bytes.
func (n *String) originalSpan(c offsets.Span) offsets.Span {
	switch {
	case len(n.align) == 0:
		return offsets.Span{}
	case c.IsEmpty() && c.Start < len(n.align):
		p := n.align[c.Start].Start
		return offsets.Span{Start: p, End: p}
	case c.IsEmpty():
		p := n.align[len(n.align)-1].End
		return offsets.Span{Start: p, End: p}
	default:
		return offsets.Hull(n.align[c.Start], n.align[c.End-1])
	}
}

// currentChars maps an original byte span to the current characters whose
// alignments intersect it. The table is monotonic, so both ends are found by
// binary search.
func (n *String) currentChars(o offsets.Span) offsets.Span {
	if o.IsEmpty() {
		i := sort.Search(len(n.align), func(i int) bool { return n.align[i].Start >= o.Start })
		return offsets.Span{Start: i, End: i}
	}
	start := sort.Search(len(n.align), func(i int) bool { return n.align[i].End > o.Start })
	end := sort.Search(len(n.align), func(i int) bool { return n.align[i].Start >= o.End })
	return offsets.Span{Start: start, End: max(start, end)}
}

// ---------------------------------------------------------------------------
// Extraction
// ---------------------------------------------------------------------------

// Range returns the current text addressed by r.
func (n *String) Range(r offsets.Range) (string, error) {
	s, err := n.Convert(r, offsets.Current, offsets.Byte)
	if err != nil {
		return "", err
	}
	return n.current[s.Start:s.End], nil
}

// RangeOriginal returns the original text addressed by r.
func (n *String) RangeOriginal(r offsets.Range) (string, error) {
	s, err := n.Convert(r, offsets.Original, offsets.Byte)
	if err != nil {
		return "", err
	}
	return n.original[s.Start:s.End], nil
}

// Slice returns a new buffer holding the part of n addressed by r. For an
// Original-space range the child's original text is exactly r and alignments
// reaching past it are clamped; for a Current-space range it is the hull of
// the selected characters' alignments.
func (n *String) Slice(r offsets.Range) (*String, error) {
	chars, err := n.Convert(r, offsets.Current, offsets.Char)
	if err != nil {
		return nil, err
	}
	cur, err := offsets.CharToByte(n.current, chars)
	if err != nil {
		return nil, err
	}

	orig := n.originalSpan(chars)
	if r.Space == offsets.Original {
		orig, err = offsets.Convert(n.original, r.Span, r.Unit, offsets.Byte)
		if err != nil {
			return nil, err
		}
	}

	align := make([]offsets.Span, chars.Len())
	for i, a := range n.align[chars.Start:chars.End] {
		align[i] = a.Clamp(orig).Shift(-orig.Start)
	}

	return &String{
		original: n.original[orig.Start:orig.End],
		current:  n.current[cur.Start:cur.End],
		align:    align,
		shift:    n.shift + orig.Start,
	}, nil
}

// ---------------------------------------------------------------------------
// 1:1 and deleting rewrites
// ---------------------------------------------------------------------------

// Filter removes every character for which keep returns false, together with
// its alignment entry.
func (n *String) Filter(keep func(rune) bool) {
	var b strings.Builder
	b.Grow(len(n.current))
	align := make([]offsets.Span, 0, len(n.align))

	i := 0
	for _, r := range n.current {
		if keep(r) {
			b.WriteRune(r)
			align = append(align, n.align[i])
		}
		i++
	}

	n.current = b.String()
	n.align = align
}

// Map replaces each character with fn(character). Alignment is unchanged.
func (n *String) Map(fn func(rune) rune) {
	var b strings.Builder
	b.Grow(len(n.current))
	for _, r := range n.current {
		b.WriteRune(fn(r))
	}
	n.current = b.String()
}

// Lowercase maps every character to lower case.
func (n *String) Lowercase() { n.Map(unicode.ToLower) }

// Uppercase maps every character to upper case.
func (n *String) Uppercase() { n.Map(unicode.ToUpper) }

// Strip removes leading and trailing whitespace.
func (n *String) Strip() { n.strip(true, true) }

// LStrip removes leading whitespace.
func (n *String) LStrip() { n.strip(true, false) }

// RStrip removes trailing whitespace.
func (n *String) RStrip() { n.strip(false, true) }

func (n *String) strip(left, right bool) {
	lead, trail := 0, 0
	leadBytes, trailBytes := 0, 0
	if left {
		for _, r := range n.current {
			if !unicode.IsSpace(r) {
				break
			}
			lead++
			leadBytes += utf8.RuneLen(r)
		}
	}
	if right && lead < len(n.align) {
		s := n.current
		for len(s) > leadBytes {
			r, size := utf8.DecodeLastRuneInString(s)
			if !unicode.IsSpace(r) {
				break
			}
			trail++
			trailBytes += size
			s = s[:len(s)-size]
		}
	}
	if lead == 0 && trail == 0 {
		return
	}

	n.current = n.current[leadBytes : len(n.current)-trailBytes]
	n.align = slices.Clone(n.align[lead : len(n.align)-trail])
}

// ---------------------------------------------------------------------------
// Boundary insertion
// ---------------------------------------------------------------------------

// Prepend inserts text before the current text. The inserted characters are
// aligned to the empty span at the start of the first real character.
func (n *String) Prepend(text string) {
	if text == "" {
		return
	}
	p := 0
	if len(n.align) > 0 {
		p = n.align[0].Start
	}
	ins := collapsed(text, p)
	n.current = text + n.current
	n.align = append(ins, n.align...)
}

// Append inserts text after the current text. The inserted characters are
// aligned to the empty span at the end of the last real character.
func (n *String) Append(text string) {
	if text == "" {
		return
	}
	p := len(n.original)
	if len(n.align) > 0 {
		p = n.align[len(n.align)-1].End
	}
	n.current += text
	n.align = append(n.align, collapsed(text, p)...)
}

func collapsed(text string, p int) []offsets.Span {
	out := make([]offsets.Span, utf8.RuneCountInString(text))
	for i := range out {
		out[i] = offsets.Span{Start: p, End: p}
	}
	return out
}
