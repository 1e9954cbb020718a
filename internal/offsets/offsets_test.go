package offsets

import (
	"errors"
	"testing"
)

func TestByteToChar(t *testing.T) {
	const text = "héllo ﬁ" // é is 2 bytes, ﬁ is 3

	tests := []struct {
		name    string
		in      Span
		want    Span
		wantErr error
	}{
		{name: "ascii prefix", in: Span{0, 1}, want: Span{0, 1}},
		{name: "two byte char", in: Span{1, 3}, want: Span{1, 2}},
		{name: "after multibyte", in: Span{3, 6}, want: Span{2, 5}},
		{name: "ligature", in: Span{7, 10}, want: Span{6, 7}},
		{name: "empty at end", in: Span{10, 10}, want: Span{7, 7}},
		{name: "inside code point", in: Span{2, 3}, wantErr: ErrInvalidSpan},
		{name: "end inside code point", in: Span{0, 8}, wantErr: ErrInvalidSpan},
		{name: "past end", in: Span{0, 11}, wantErr: ErrOutOfBounds},
		{name: "reversed", in: Span{3, 1}, wantErr: ErrOutOfBounds},
		{name: "negative", in: Span{-1, 1}, wantErr: ErrOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ByteToChar(text, tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ByteToChar(%v) error = %v; want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ByteToChar(%v) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ByteToChar(%v) = %v; want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCharToByte(t *testing.T) {
	const text = "héllo ﬁ"

	tests := []struct {
		in      Span
		want    Span
		wantErr bool
	}{
		{in: Span{0, 0}, want: Span{0, 0}},
		{in: Span{1, 2}, want: Span{1, 3}},
		{in: Span{0, 7}, want: Span{0, 10}},
		{in: Span{6, 7}, want: Span{7, 10}},
		{in: Span{7, 7}, want: Span{10, 10}},
		{in: Span{0, 8}, wantErr: true},
		{in: Span{8, 8}, wantErr: true},
		{in: Span{2, 1}, wantErr: true},
	}

	for _, tt := range tests {
		got, err := CharToByte(text, tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrOutOfBounds) {
				t.Errorf("CharToByte(%v) error = %v; want ErrOutOfBounds", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("CharToByte(%v) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CharToByte(%v) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestConvertRoundTrip(t *testing.T) {
	const text = "añb€c"
	for start := 0; start <= 5; start++ {
		for end := start; end <= 5; end++ {
			chars := Span{start, end}
			bytes, err := Convert(text, chars, Char, Byte)
			if err != nil {
				t.Fatalf("Convert(%v, char->byte): %v", chars, err)
			}
			back, err := Convert(text, bytes, Byte, Char)
			if err != nil {
				t.Fatalf("Convert(%v, byte->char): %v", bytes, err)
			}
			if back != chars {
				t.Errorf("round trip %v -> %v -> %v", chars, bytes, back)
			}
		}
	}
}

func TestConvertSameUnitValidates(t *testing.T) {
	if _, err := Convert("é", Span{0, 1}, Byte, Byte); !errors.Is(err, ErrInvalidSpan) {
		t.Errorf("byte->byte split code point: err = %v; want ErrInvalidSpan", err)
	}
	if _, err := Convert("é", Span{0, 2}, Char, Char); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("char->char past end: err = %v; want ErrOutOfBounds", err)
	}
}

func TestSpanHelpers(t *testing.T) {
	if got := Hull(Span{3, 5}, Span{1, 4}); got != (Span{1, 5}) {
		t.Errorf("Hull = %v; want [1, 5)", got)
	}
	if got := (Span{2, 9}).Clamp(Span{4, 6}); got != (Span{4, 6}) {
		t.Errorf("Clamp = %v; want [4, 6)", got)
	}
	if got := (Span{0, 2}).Clamp(Span{4, 6}); got != (Span{4, 4}) {
		t.Errorf("Clamp below = %v; want [4, 4)", got)
	}
	if got := (Span{1, 2}).Shift(3); got != (Span{4, 5}) {
		t.Errorf("Shift = %v; want [4, 5)", got)
	}
	if !(Span{2, 2}).IsEmpty() || (Span{2, 3}).IsEmpty() {
		t.Error("IsEmpty mismatch")
	}
}

func TestParseSpaceAndUnit(t *testing.T) {
	for in, want := range map[string]Space{"original": Original, "current": Current, "normalized": Current, "": Original} {
		got, err := ParseSpace(in)
		if err != nil || got != want {
			t.Errorf("ParseSpace(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseSpace("middle"); err == nil {
		t.Error("ParseSpace(middle) should fail")
	}
	for in, want := range map[string]Unit{"byte": Byte, "char": Char} {
		got, err := ParseUnit(in)
		if err != nil || got != want {
			t.Errorf("ParseUnit(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseUnit("word"); err == nil {
		t.Error("ParseUnit(word) should fail")
	}
}

func TestSpanErrorMessage(t *testing.T) {
	err := CheckBounds("slice", Span{2, 9}, 4)
	var se *SpanError
	if !errors.As(err, &se) {
		t.Fatalf("CheckBounds error %T is not *SpanError", err)
	}
	if se.Limit != 4 || se.Span != (Span{2, 9}) {
		t.Errorf("SpanError = %+v", se)
	}
	if got, want := err.Error(), "slice [2, 9) (limit 4): span out of bounds"; got != want {
		t.Errorf("Error() = %q; want %q", got, want)
	}
}
