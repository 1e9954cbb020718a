package pattern

import (
	"sync"
	"unicode"
)

// Go's \w and \s are ASCII-only, so the classes are spelled out with Unicode
// properties to match word characters and White_Space across scripts. Among
// numbers only decimal digits and letter numbers are word characters;
// superscripts and vulgar fractions are not.
const (
	wordClass  = `\p{L}\p{M}\p{Nd}\p{Nl}\p{Pc}\x{200C}\x{200D}`
	spaceClass = `\s\p{Z}\x{0B}\x{85}`
)

var wordsOrPunct = sync.OnceValue(func() *Regexp {
	return MustCompile(`[` + wordClass + `]+|[^` + wordClass + spaceClass + `]+`)
})

// WordsOrPunctuation matches runs of word characters and runs of characters
// that are neither word characters nor whitespace. The compiled expression is
// shared by every caller.
func WordsOrPunctuation() *Regexp { return wordsOrPunct() }

// Whitespace matches every whitespace character.
func Whitespace() RuneFunc { return unicode.IsSpace }

// IsPunctuation reports whether r is ASCII punctuation or in a Unicode
// punctuation category.
func IsPunctuation(r rune) bool {
	if r < 0x80 {
		return (r >= '!' && r <= '/') || (r >= ':' && r <= '@') ||
			(r >= '[' && r <= '`') || (r >= '{' && r <= '~')
	}
	return unicode.IsPunct(r)
}

// Punctuation matches every punctuation character.
func Punctuation() RuneFunc { return IsPunctuation }
