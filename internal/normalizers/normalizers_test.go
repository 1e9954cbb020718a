package normalizers

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/example/go-textalign/internal/normalized"
	"github.com/example/go-textalign/internal/offsets"
	"github.com/example/go-textalign/internal/pattern"
	"github.com/example/go-textalign/internal/testutil"
)

func spans(pairs ...int) []offsets.Span {
	out := make([]offsets.Span, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, offsets.Span{Start: pairs[i], End: pairs[i+1]})
	}
	return out
}

func run(t *testing.T, norm Normalizer, text string) *normalized.String {
	t.Helper()
	n := normalized.New(text)
	if err := norm.Normalize(n); err != nil {
		t.Fatalf("Normalize(%q): %v", text, err)
	}
	testutil.AssertAligned(t, n)
	return n
}

func check(t *testing.T, n *normalized.String, current string, align []offsets.Span) {
	t.Helper()
	if n.Current() != current {
		t.Errorf("Current() = %q; want %q", n.Current(), current)
	}
	if align != nil && !slices.Equal(n.Alignments(), align) {
		t.Errorf("Alignments() = %v; want %v", n.Alignments(), align)
	}
}

// ---------------------------------------------------------------------------
// Unicode forms
// ---------------------------------------------------------------------------

func TestNFKCLigature(t *testing.T) {
	n := run(t, NFKC{}, "ﬁ")
	check(t, n, "fi", spans(0, 3, 0, 3))
	for i := range 2 {
		got, err := n.RangeOriginal(offsets.CurrentChars(i, i+1))
		if err != nil {
			t.Fatal(err)
		}
		if got != "ﬁ" {
			t.Errorf("RangeOriginal(%d) = %q", i, got)
		}
	}
}

func TestUnicodeForms(t *testing.T) {
	tests := []struct {
		norm Normalizer
		in   string
		want string
	}{
		{NFC{}, "e\u0301", "\u00e9"},
		{NFD{}, "\u00e9", "e\u0301"},
		{NFKC{}, "①x", "1x"},
		{NFKD{}, "½", "1⁄2"},
	}
	for _, tt := range tests {
		check(t, run(t, tt.norm, tt.in), tt.want, nil)
	}
}

// ---------------------------------------------------------------------------
// AnyASCII
// ---------------------------------------------------------------------------

func TestAnyASCII(t *testing.T) {
	a, err := NewAnyASCII("", nil)
	if err != nil {
		t.Fatal(err)
	}
	check(t, run(t, a, "Ünïcödé"), "Unicode", nil)
	check(t, run(t, a, "5€"), "5EUR", spans(0, 1, 1, 4, 1, 4, 1, 4))
	check(t, run(t, a, "ﬁ"), "fi", spans(0, 3, 0, 3))
}

func TestAnyASCIIKeptPatternAndCharMap(t *testing.T) {
	a, err := NewAnyASCII("€+", map[rune]string{'é': "E", 'x': ""})
	if err != nil {
		t.Fatal(err)
	}
	n := run(t, a, "é5€€ñx!")
	check(t, n, "E5€€n!", spans(0, 2, 2, 3, 3, 6, 6, 9, 9, 11, 12, 13))
}

func TestAnyASCIIZeroValue(t *testing.T) {
	check(t, run(t, &AnyASCII{}, "Ünï 5€"), "Uni 5EUR", nil)

	a, err := NewAnyASCII("€+", nil)
	if err != nil {
		t.Fatal(err)
	}
	data, err := Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal(%s): %v", data, err)
	}
	check(t, run(t, back, "é€€"), "e€€", nil)
}

func TestReplaceLiteralValue(t *testing.T) {
	r := &Replace{Pattern: pattern.Source{String: "''"}, Content: "\""}
	check(t, run(t, r, "''hi''"), "\"hi\"", spans(0, 2, 2, 3, 3, 4, 4, 6))

	bad := &Replace{Content: "x"}
	if err := bad.Normalize(normalized.New("a")); err == nil {
		t.Error("Replace with an empty pattern should fail")
	}
}

func TestAnyASCIIInvalidPattern(t *testing.T) {
	if _, err := NewAnyASCII("(", nil); !errors.Is(err, pattern.ErrInvalidPattern) {
		t.Errorf("NewAnyASCII error = %v; want ErrInvalidPattern", err)
	}
	_, err := Unmarshal([]byte(`{"type":"AnyASCII","kept_pattern":"[a-","char_map":{}}`))
	if !errors.Is(err, pattern.ErrInvalidPattern) {
		t.Errorf("Unmarshal error = %v; want ErrInvalidPattern", err)
	}
}

func TestAnyASCIIRoundTrip(t *testing.T) {
	a, err := NewAnyASCII("[0-9]+", map[rune]string{'ß': "ss"})
	if err != nil {
		t.Fatal(err)
	}
	data, err := Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal(%s): %v", data, err)
	}
	got := run(t, back, "Straße 42")
	check(t, got, "Strasse 42", nil)

	if _, err := Unmarshal([]byte(`{"type":"AnyASCII","kept_pattern":null,"char_map":{"ab":"x"}}`)); err == nil {
		t.Error("multi-character char_map key should be rejected")
	}
}

// ---------------------------------------------------------------------------
// PlainText
// ---------------------------------------------------------------------------

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		align []offsets.Span
	}{
		{"passthrough clean text", "Hello world", "Hello world", nil},
		{"trims edges", "\t\n Hello \n\t", "Hello", spans(3, 4, 4, 5, 5, 6, 6, 7, 7, 8)},
		{"CRLF to LF", "a\r\nb", "a\nb", spans(0, 1, 1, 3, 3, 4)},
		{"bare CR to LF", "a\rb", "a\nb", spans(0, 1, 1, 2, 2, 3)},
		{"mixed line endings", "a\r\nb\rc\nd", "a\nb\nc\nd", spans(0, 1, 1, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8)},
		{"unicode content", "  Héllo  ", "Héllo", spans(2, 3, 3, 5, 5, 6, 6, 7, 7, 8)},
		{"internal whitespace kept", "  hello   world  ", "hello   world", nil},
		{"whitespace only", "   \t\r\n  ", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check(t, run(t, PlainText{}, tt.input), tt.want, tt.align)
		})
	}
}

func TestPlainTextRejectEmpty(t *testing.T) {
	for _, input := range []string{"", "   \t\r\n  "} {
		err := PlainText{RejectEmpty: true}.Normalize(normalized.New(input))
		if !errors.Is(err, ErrEmptyText) {
			t.Errorf("Normalize(%q) err = %v; want ErrEmptyText", input, err)
		}
	}

	n, err := Unmarshal([]byte(`{"type":"PlainText","reject_empty":true}`))
	if err != nil {
		t.Fatal(err)
	}
	if n != (PlainText{RejectEmpty: true}) {
		t.Errorf("Unmarshal = %#v", n)
	}
	if _, err := FromName("plain_text"); err != nil {
		t.Errorf("FromName(plain_text): %v", err)
	}
}

// ---------------------------------------------------------------------------
// Other strategies
// ---------------------------------------------------------------------------

func TestBertNormalizer(t *testing.T) {
	n := run(t, NewBertNormalizer(), "Héllo\t中国!")
	check(t, n, "hello  中  国 !", spans(
		0, 1, 1, 3, 3, 4, 4, 5, 5, 6, 6, 7,
		7, 10, 7, 10, 7, 10,
		10, 13, 10, 13, 10, 13,
		13, 14,
	))

	keep := false
	cased := BertNormalizer{CleanText: true, StripAccents: &keep}
	check(t, run(t, cased, "Hé\x00llo"), "Héllo", nil)
}

func TestNmt(t *testing.T) {
	n := run(t, Nmt{}, "a\x01b\tc\u200bd")
	check(t, n, "ab c d", spans(0, 1, 2, 3, 3, 4, 4, 5, 5, 8, 8, 9))
}

func TestStripAndPrepend(t *testing.T) {
	check(t, run(t, Strip{Left: true, Right: true}, "  hi  "), "hi", spans(2, 3, 3, 4))
	check(t, run(t, Strip{Right: true}, "  hi  "), "  hi", nil)
	check(t, run(t, Prepend{Prepend: "▁"}, "hey"), "▁hey", spans(0, 0, 0, 1, 1, 2, 2, 3))
	check(t, run(t, Prepend{Prepend: "▁"}, ""), "", nil)
}

func TestStripAccents(t *testing.T) {
	check(t, run(t, Sequence{NFD{}, StripAccents{}}, "caf\u00e9"), "cafe", spans(0, 1, 1, 2, 2, 3, 3, 5))
	check(t, run(t, StripAccents{}, "plain"), "plain", nil)
}

func TestReplace(t *testing.T) {
	r, err := NewReplace(pattern.Source{String: "''"}, "\"")
	if err != nil {
		t.Fatal(err)
	}
	check(t, run(t, r, "say ''hi''"), "say \"hi\"", spans(0, 1, 1, 2, 2, 3, 3, 4, 4, 6, 6, 7, 7, 8, 8, 10))

	re, err := NewReplace(pattern.Source{Regex: `\s+`}, " ")
	if err != nil {
		t.Fatal(err)
	}
	check(t, run(t, re, "a \t\n b"), "a b", spans(0, 1, 1, 5, 5, 6))

	if _, err := NewReplace(pattern.Source{Regex: "("}, ""); !errors.Is(err, pattern.ErrInvalidPattern) {
		t.Errorf("NewReplace error = %v; want ErrInvalidPattern", err)
	}
	if _, err := NewReplace(pattern.Source{}, ""); err == nil {
		t.Error("empty source should fail")
	}
}

func TestByteLevel(t *testing.T) {
	check(t, run(t, ByteLevel{}, "a b"), "aĠb", nil)
	check(t, run(t, ByteLevel{}, "é"), "Ã©", spans(0, 2, 0, 2))
}

func TestSequenceStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	seq := Sequence{
		Func(func(*normalized.String) error { calls++; return boom }),
		Func(func(*normalized.String) error { calls++; return nil }),
	}
	if err := seq.Normalize(normalized.New("x")); !errors.Is(err, boom) {
		t.Errorf("error = %v; want boom", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d; want 1", calls)
	}
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

func TestUnmarshalTokenizerJSONShapes(t *testing.T) {
	tests := []struct {
		json string
		in   string
		want string
	}{
		{`{"type":"NFKC"}`, "ﬁ", "fi"},
		{`{"type":"Lowercase"}`, "ABC", "abc"},
		{`{"type":"Strip","strip_left":true,"strip_right":false}`, " x ", "x "},
		{`{"type":"Prepend","prepend":"_"}`, "x", "_x"},
		{`{"type":"Replace","pattern":{"String":" "},"content":"_"}`, "a b", "a_b"},
		{`{"type":"BertNormalizer","clean_text":true,"handle_chinese_chars":false,"strip_accents":null,"lowercase":true}`, "ÀB", "ab"},
		{`{"type":"Sequence","normalizers":[{"type":"NFD"},{"type":"StripAccents"},{"type":"Lowercase"}]}`, "Éé", "ee"},
	}
	for _, tt := range tests {
		n, err := Unmarshal([]byte(tt.json))
		if err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.json, err)
		}
		check(t, run(t, n, tt.in), tt.want, nil)
	}
}

func TestUnmarshalRejectsUnknown(t *testing.T) {
	for _, raw := range []string{
		`{"type":"Precompiled"}`,
		`{"type":"NFC","extra":1}`,
		`{"type":"Sequence","normalizers":[{"type":"Nope"}]}`,
		`{}`,
	} {
		if _, err := Unmarshal([]byte(raw)); err == nil {
			t.Errorf("Unmarshal(%s) should fail", raw)
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	r, err := NewReplace(pattern.Source{Regex: "a+"}, "b")
	if err != nil {
		t.Fatal(err)
	}
	orig := Sequence{NFKC{}, Strip{Left: true}, r, Prepend{Prepend: "#"}, NewBertNormalizer()}

	data, err := Marshal(orig)
	if err != nil {
		t.Fatal(err)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil || generic["type"] != "Sequence" {
		t.Fatalf("Marshal produced %s", data)
	}

	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal(%s): %v", data, err)
	}
	again, err := Marshal(back)
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != string(data) {
		t.Errorf("round trip changed encoding:\n%s\n%s", data, again)
	}
}

func TestMarshalFuncFails(t *testing.T) {
	if _, err := Marshal(Func(func(*normalized.String) error { return nil })); err == nil {
		t.Error("Func should not be serializable")
	}
}

func TestFromName(t *testing.T) {
	for _, name := range []string{"nfc", "NFD", " nfkc ", "nfkd", "any_ascii"} {
		if _, err := FromName(name); err != nil {
			t.Errorf("FromName(%q): %v", name, err)
		}
	}
	_, err := FromName("nfx")
	if err == nil || !strings.Contains(err.Error(), "any_ascii") {
		t.Errorf("FromName(nfx) error = %v; want list of names", err)
	}

	n, err := FromNames([]string{"nfkc", "lowercase"})
	if err != nil {
		t.Fatal(err)
	}
	check(t, run(t, n, "ﬁX"), "fix", nil)

	none, err := FromNames([]string{"", " "})
	if err != nil || none != nil {
		t.Errorf("FromNames(empty) = %v, %v; want nil, nil", none, err)
	}
}

func TestTypes(t *testing.T) {
	types := Types()
	for _, want := range []string{"AnyASCII", "NFC", "Sequence", "BertNormalizer"} {
		if !slices.Contains(types, want) {
			t.Errorf("Types() missing %s", want)
		}
	}
}
