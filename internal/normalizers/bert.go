package normalizers

import (
	"unicode"

	"github.com/example/go-textalign/internal/normalized"
)

// BertNormalizer reproduces BERT's text cleanup. StripAccents defaults to
// Lowercase when unset.
type BertNormalizer struct {
	CleanText          bool  `json:"clean_text"`
	HandleChineseChars bool  `json:"handle_chinese_chars"`
	StripAccents       *bool `json:"strip_accents"`
	Lowercase          bool  `json:"lowercase"`
}

// NewBertNormalizer returns the BERT defaults: every step enabled.
func NewBertNormalizer() BertNormalizer {
	return BertNormalizer{CleanText: true, HandleChineseChars: true, Lowercase: true}
}

func (b BertNormalizer) Normalize(n *normalized.String) error {
	if b.CleanText {
		n.Filter(func(r rune) bool { return !(r == 0 || r == 0xFFFD || isControl(r)) })
		n.Map(func(r rune) rune {
			if isWhitespace(r) {
				return ' '
			}
			return r
		})
	}
	if b.HandleChineseChars {
		err := n.Expand(func(r rune) string {
			if isChinese(r) {
				return " " + string(r) + " "
			}
			return string(r)
		})
		if err != nil {
			return err
		}
	}
	strip := b.Lowercase
	if b.StripAccents != nil {
		strip = *b.StripAccents
	}
	if strip {
		if err := n.NFD(); err != nil {
			return err
		}
		if err := (StripAccents{}).Normalize(n); err != nil {
			return err
		}
	}
	if b.Lowercase {
		n.Lowercase()
	}
	return nil
}

func isWhitespace(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return true
	}
	return unicode.IsSpace(r)
}

func isControl(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return unicode.In(r, unicode.Cc, unicode.Cf, unicode.Co, unicode.Cs)
}

func isChinese(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B920 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}
