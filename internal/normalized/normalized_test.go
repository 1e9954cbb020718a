package normalized

import (
	"errors"
	"slices"
	"testing"
	"unicode"

	"github.com/example/go-textalign/internal/offsets"
	"github.com/example/go-textalign/internal/pattern"
)

func spans(pairs ...int) []offsets.Span {
	out := make([]offsets.Span, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, offsets.Span{Start: pairs[i], End: pairs[i+1]})
	}
	return out
}

func assertBuffer(t *testing.T, n *String, current string, align []offsets.Span) {
	t.Helper()
	if n.Current() != current {
		t.Errorf("Current() = %q; want %q", n.Current(), current)
	}
	if got := n.Alignments(); !slices.Equal(got, align) {
		t.Errorf("Alignments() = %v; want %v", got, align)
	}
	if err := n.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

// ---------------------------------------------------------------------------
// Construction and extraction
// ---------------------------------------------------------------------------

func TestRoundTripIdentity(t *testing.T) {
	for _, text := range []string{"", "a", "Hey man!", "héllo wörld", "日本語", "ﬁ"} {
		n := New(text)
		cur, err := n.Range(offsets.CurrentBytes(0, len(text)))
		if err != nil {
			t.Fatalf("Range(current) on %q: %v", text, err)
		}
		orig, err := n.Range(offsets.OriginalBytes(0, len(text)))
		if err != nil {
			t.Fatalf("Range(original) on %q: %v", text, err)
		}
		if cur != text || orig != text {
			t.Errorf("round trip %q: current %q original %q", text, cur, orig)
		}
		if err := n.Validate(); err != nil {
			t.Errorf("Validate(%q) = %v", text, err)
		}
	}
}

func TestLen(t *testing.T) {
	n := New("éﬁ")
	if err := n.NFKC(); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		space offsets.Space
		unit  offsets.Unit
		want  int
	}{
		{offsets.Original, offsets.Byte, 5},
		{offsets.Original, offsets.Char, 2},
		{offsets.Current, offsets.Byte, 4},
		{offsets.Current, offsets.Char, 3},
	}
	for _, tt := range tests {
		if got := n.Len(tt.space, tt.unit); got != tt.want {
			t.Errorf("Len(%s, %s) = %d; want %d", tt.space, tt.unit, got, tt.want)
		}
	}
	if n.IsEmpty() || !New("").IsEmpty() {
		t.Error("IsEmpty mismatch")
	}
}

func TestRangeErrors(t *testing.T) {
	n := New("héllo")
	if _, err := n.Range(offsets.OriginalBytes(0, 99)); !errors.Is(err, offsets.ErrOutOfBounds) {
		t.Errorf("out of range: err = %v; want ErrOutOfBounds", err)
	}
	if _, err := n.Range(offsets.CurrentBytes(0, 2)); !errors.Is(err, offsets.ErrInvalidSpan) {
		t.Errorf("mid code point: err = %v; want ErrInvalidSpan", err)
	}
	if _, err := n.Range(offsets.CurrentChars(2, 9)); !errors.Is(err, offsets.ErrOutOfBounds) {
		t.Errorf("chars out of range: err = %v; want ErrOutOfBounds", err)
	}
}

func TestConvertAcrossSpaces(t *testing.T) {
	n := New("aﬁb")
	if err := n.NFKC(); err != nil {
		t.Fatal(err)
	}
	assertBuffer(t, n, "afib", spans(0, 1, 1, 4, 1, 4, 4, 5))

	tests := []struct {
		name  string
		in    offsets.Range
		space offsets.Space
		unit  offsets.Unit
		want  offsets.Span
	}{
		{"current char to original byte", offsets.CurrentChars(1, 2), offsets.Original, offsets.Byte, offsets.Span{Start: 1, End: 4}},
		{"current char to original char", offsets.CurrentChars(2, 3), offsets.Original, offsets.Char, offsets.Span{Start: 1, End: 2}},
		{"current hull", offsets.CurrentBytes(0, 3), offsets.Original, offsets.Byte, offsets.Span{Start: 0, End: 4}},
		{"original bytes to current chars", offsets.OriginalBytes(1, 4), offsets.Current, offsets.Char, offsets.Span{Start: 1, End: 3}},
		{"original chars to current bytes", offsets.OriginalChars(2, 3), offsets.Current, offsets.Byte, offsets.Span{Start: 3, End: 4}},
		{"empty original span", offsets.OriginalBytes(4, 4), offsets.Current, offsets.Char, offsets.Span{Start: 3, End: 3}},
		{"empty current span at end", offsets.CurrentChars(4, 4), offsets.Original, offsets.Byte, offsets.Span{Start: 5, End: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Convert(tt.in, tt.space, tt.unit)
			if err != nil {
				t.Fatalf("Convert(%s): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Convert(%s) = %v; want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRangeOriginalThroughExpansion(t *testing.T) {
	n := New("aﬁb")
	if err := n.NFKC(); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 2; i++ {
		got, err := n.RangeOriginal(offsets.CurrentChars(i, i+1))
		if err != nil {
			t.Fatal(err)
		}
		if got != "ﬁ" {
			t.Errorf("RangeOriginal(char %d) = %q; want the ligature", i, got)
		}
	}
	got, err := n.Range(offsets.OriginalBytes(1, 4))
	if err != nil {
		t.Fatal(err)
	}
	if got != "fi" {
		t.Errorf("Range(original ligature) = %q; want %q", got, "fi")
	}
}

func TestSlice(t *testing.T) {
	n := New("Hey man!")

	child, err := n.Slice(offsets.CurrentBytes(4, 8))
	if err != nil {
		t.Fatal(err)
	}
	assertBuffer(t, child, "man!", spans(0, 1, 1, 2, 2, 3, 3, 4))
	if child.Original() != "man!" || child.OriginalShift() != 4 {
		t.Errorf("child original %q shift %d; want %q 4", child.Original(), child.OriginalShift(), "man!")
	}

	grand, err := child.Slice(offsets.CurrentChars(3, 4))
	if err != nil {
		t.Fatal(err)
	}
	assertBuffer(t, grand, "!", spans(0, 1))
	if grand.OriginalShift() != 7 {
		t.Errorf("grandchild shift = %d; want 7", grand.OriginalShift())
	}

	// Slicing never aliases the parent's table.
	child.Map(unicode.ToUpper)
	if n.Current() != "Hey man!" {
		t.Errorf("parent mutated: %q", n.Current())
	}
}

func TestSliceAfterExpansion(t *testing.T) {
	n := New("aﬁb")
	if err := n.NFKC(); err != nil {
		t.Fatal(err)
	}

	half, err := n.Slice(offsets.CurrentChars(2, 3))
	if err != nil {
		t.Fatal(err)
	}
	assertBuffer(t, half, "i", spans(0, 3))
	if half.Original() != "ﬁ" || half.OriginalShift() != 1 {
		t.Errorf("half original %q shift %d", half.Original(), half.OriginalShift())
	}

	whole, err := n.Slice(offsets.OriginalBytes(1, 4))
	if err != nil {
		t.Fatal(err)
	}
	assertBuffer(t, whole, "fi", spans(0, 3, 0, 3))
}

// ---------------------------------------------------------------------------
// Filter / Map / Strip
// ---------------------------------------------------------------------------

func TestFilterDropsAlignment(t *testing.T) {
	n := New("a b c")
	n.Filter(func(r rune) bool { return r != ' ' })
	assertBuffer(t, n, "abc", spans(0, 1, 2, 3, 4, 5))

	got, err := n.Range(offsets.OriginalBytes(1, 2))
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("Range(deleted space) = %q; want empty", got)
	}
}

func TestMapKeepsAlignment(t *testing.T) {
	n := New("ÀbC")
	n.Lowercase()
	assertBuffer(t, n, "àbc", spans(0, 2, 2, 3, 3, 4))
	n.Uppercase()
	if n.Current() != "ÀBC" {
		t.Errorf("Uppercase = %q", n.Current())
	}
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		op    func(*String)
		want  string
		align []offsets.Span
	}{
		{"both", "  hi \n", (*String).Strip, "hi", spans(2, 3, 3, 4)},
		{"left", "  hi ", (*String).LStrip, "hi ", spans(2, 3, 3, 4, 4, 5)},
		{"right", "  hi ", (*String).RStrip, "  hi", spans(0, 1, 1, 2, 2, 3, 3, 4)},
		{"all space", "   ", (*String).Strip, "", spans()},
		{"nothing to strip", "hi", (*String).Strip, "hi", spans(0, 1, 1, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(tt.text)
			tt.op(n)
			assertBuffer(t, n, tt.want, tt.align)
		})
	}
}

// ---------------------------------------------------------------------------
// Prepend / Append
// ---------------------------------------------------------------------------

func TestPrependAppendCollapse(t *testing.T) {
	n := New("Hey man!")
	frag, err := n.Slice(offsets.CurrentBytes(4, 7))
	if err != nil {
		t.Fatal(err)
	}
	frag.Prepend(" ")
	frag.Append("__")
	assertBuffer(t, frag, " man__", spans(0, 0, 0, 1, 1, 2, 2, 3, 3, 3, 3, 3))

	e := New("")
	e.Prepend("x")
	e.Append("y")
	assertBuffer(t, e, "xy", spans(0, 0, 0, 0))
}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

func TestTransform(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		rewrites []Rewrite
		cursor   int
		want     string
		align    []offsets.Span
	}{
		{
			name:     "one to one",
			text:     "abc",
			rewrites: []Rewrite{{'x', 1}, {'y', 1}, {'z', 1}},
			want:     "xyz",
			align:    spans(0, 1, 1, 2, 2, 3),
		},
		{
			name:     "fan out",
			text:     "ab",
			rewrites: []Rewrite{{'a', 1}, {'1', 0}, {'2', 0}, {'b', 1}},
			want:     "a12b",
			align:    spans(0, 1, 0, 1, 0, 1, 1, 2),
		},
		{
			name:     "fan in",
			text:     "abc",
			rewrites: []Rewrite{{'X', 2}, {'c', 1}},
			want:     "Xc",
			align:    spans(0, 2, 2, 3),
		},
		{
			name:     "skip then consume",
			text:     "abc",
			rewrites: []Rewrite{{'b', -1}, {'c', 1}},
			want:     "bc",
			align:    spans(1, 2, 2, 3),
		},
		{
			name:     "start cursor drops prefix",
			text:     "abc",
			rewrites: []Rewrite{{'C', 2}},
			cursor:   1,
			want:     "C",
			align:    spans(1, 3),
		},
		{
			name:     "trailing source dropped",
			text:     "abc",
			rewrites: []Rewrite{{'a', 1}},
			want:     "a",
			align:    spans(0, 1),
		},
		{
			name:     "insert at start",
			text:     "abc",
			rewrites: []Rewrite{{' ', 0}, {'a', 1}, {'b', 1}, {'c', 1}},
			want:     " abc",
			align:    spans(0, 0, 0, 1, 1, 2, 2, 3),
		},
		{
			name:     "insert at start cursor",
			text:     "abc",
			rewrites: []Rewrite{{'_', 0}, {'b', 1}},
			cursor:   1,
			want:     "_b",
			align:    spans(1, 1, 1, 2),
		},
		{
			name:     "insert only",
			text:     "ab",
			rewrites: []Rewrite{{'x', 0}},
			cursor:   2,
			want:     "x",
			align:    spans(2, 2),
		},
		{
			name: "multibyte source",
			text: "\u00e9日",
			rewrites: []Rewrite{
				{'e', 1}, {'\u0301', 0}, {'r', 1}, {'i', 0},
			},
			want:  "e\u0301ri",
			align: spans(0, 2, 0, 2, 2, 5, 2, 5),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(tt.text)
			if err := n.Transform(tt.rewrites, tt.cursor); err != nil {
				t.Fatalf("Transform: %v", err)
			}
			assertBuffer(t, n, tt.want, tt.align)
		})
	}
}

func TestTransformInvalid(t *testing.T) {
	tests := []struct {
		name     string
		rewrites []Rewrite
		cursor   int
	}{
		{"consumes past end", []Rewrite{{'a', 4}}, 0},
		{"skips past end", []Rewrite{{'a', -3}}, 0},
		{"negative cursor", []Rewrite{{'a', 1}}, -1},
		{"cursor past end", nil, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New("abc")
			err := n.Transform(tt.rewrites, tt.cursor)
			if !errors.Is(err, ErrInvalidRewrite) {
				t.Fatalf("err = %v; want ErrInvalidRewrite", err)
			}
			assertBuffer(t, n, "abc", spans(0, 1, 1, 2, 2, 3))
		})
	}
}

func TestTransformRangeUsesPrecedingSpan(t *testing.T) {
	n := New("ab")
	// Insert a character after "a" by fanning out from it.
	if err := n.TransformRange(offsets.CurrentChars(1, 1), []Rewrite{{'-', 0}}, 0); err != nil {
		t.Fatal(err)
	}
	assertBuffer(t, n, "a-b", spans(0, 1, 0, 1, 1, 2))
}

func TestExpand(t *testing.T) {
	n := New("aßbc")
	err := n.Expand(func(r rune) string {
		switch r {
		case 'ß':
			return "ss"
		case 'b':
			return ""
		default:
			return string(r)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	assertBuffer(t, n, "assc", spans(0, 1, 1, 3, 1, 3, 4, 5))

	all := New("xyz")
	if err := all.Expand(func(rune) string { return "" }); err != nil {
		t.Fatal(err)
	}
	assertBuffer(t, all, "", spans())
}

func TestReplace(t *testing.T) {
	tests := []struct {
		content string
		want    string
		align   []offsets.Span
	}{
		{"+", "a+b+c", spans(0, 1, 1, 3, 3, 4, 4, 6, 6, 7)},
		{"", "abc", spans(0, 1, 3, 4, 6, 7)},
		{"<=>", "a<=>b<=>c", spans(0, 1, 1, 3, 1, 3, 1, 3, 3, 4, 4, 6, 4, 6, 4, 6, 6, 7)},
	}
	for _, tt := range tests {
		n := New("a--b--c")
		if err := n.Replace(pattern.Literal("--"), tt.content); err != nil {
			t.Fatalf("Replace(%q): %v", tt.content, err)
		}
		assertBuffer(t, n, tt.want, tt.align)
	}
}

// ---------------------------------------------------------------------------
// Unicode normalization forms
// ---------------------------------------------------------------------------

func TestNFKCLigatureFansOut(t *testing.T) {
	n := New("ﬁ")
	if err := n.NFKC(); err != nil {
		t.Fatal(err)
	}
	assertBuffer(t, n, "fi", spans(0, 3, 0, 3))
}

func TestNormalizationForms(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		apply func(*String) error
		want  string
		align []offsets.Span
	}{
		{"nfd decomposes", "\u00e9", (*String).NFD, "e\u0301", spans(0, 2, 0, 2)},
		{"nfc composes", "e\u0301x", (*String).NFC, "\u00e9x", spans(0, 3, 3, 4)},
		{"nfkd", "\ufb01\u00e9", (*String).NFKD, "fie\u0301", spans(0, 3, 0, 3, 3, 5, 3, 5)},
		{"already normal", "abc", (*String).NFC, "abc", spans(0, 1, 1, 2, 2, 3)},
		{"hangul decomposes", "\ud55c", (*String).NFD, "\u1112\u1161\u11ab", spans(0, 3, 0, 3, 0, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(tt.text)
			if err := tt.apply(n); err != nil {
				t.Fatal(err)
			}
			assertBuffer(t, n, tt.want, tt.align)
		})
	}
}

func TestComposedPassesStayMonotonic(t *testing.T) {
	inputs := []string{
		"Ｈｅｌｌｏ　ｗｏｒｌｄ",
		"ȩ́ ﬃ ²³",
		"Crème brûlée — ½ cup",
		"",
	}
	for _, text := range inputs {
		n := New(text)
		steps := []func() error{
			n.NFKD,
			func() error { n.Filter(func(r rune) bool { return !unicode.Is(unicode.Mn, r) }); return nil },
			func() error { n.Lowercase(); return nil },
			n.NFC,
			func() error { return n.Replace(pattern.Whitespace(), "_") },
			func() error { n.Prepend("^"); n.Append("$"); return nil },
		}
		for i, step := range steps {
			if err := step(); err != nil {
				t.Fatalf("%q step %d: %v", text, i, err)
			}
			if err := n.Validate(); err != nil {
				t.Fatalf("%q step %d: %v", text, i, err)
			}
		}
		if n.Original() != text {
			t.Errorf("original changed: %q", n.Original())
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	n := New("abc")
	c := n.Clone()
	c.Filter(func(r rune) bool { return r == 'b' })
	if n.Current() != "abc" || len(n.Alignments()) != 3 {
		t.Errorf("original buffer changed: %q", n.Current())
	}
	assertBuffer(t, c, "b", spans(1, 2))
}
