package normalizers

import (
	"strings"
	"sync"

	"github.com/example/go-textalign/internal/normalized"
)

// byteChars maps every byte to a printable character: printable Latin-1
// bytes map to themselves and the rest to code points from U+0100 upward.
var byteChars = sync.OnceValue(func() [256]rune {
	var table [256]rune
	next := rune(256)
	for b := range 256 {
		switch {
		case b >= '!' && b <= '~', b >= 0xA1 && b <= 0xAC, b >= 0xAE:
			table[b] = rune(b)
		default:
			table[b] = next
			next++
		}
	}
	return table
})

// ByteLevel replaces every character by one printable character per UTF-8
// byte, so that any text maps onto a 256-symbol alphabet.
type ByteLevel struct{}

func (ByteLevel) Normalize(n *normalized.String) error {
	table := byteChars()
	return n.Expand(func(r rune) string {
		var b strings.Builder
		for _, c := range []byte(string(r)) {
			b.WriteRune(table[c])
		}
		return b.String()
	})
}
