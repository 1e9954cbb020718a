package normalized

import "errors"

// ErrInvalidRewrite is returned when a rewrite sequence moves the source
// cursor outside the characters being rewritten.
var ErrInvalidRewrite = errors.New("invalid rewrite")
