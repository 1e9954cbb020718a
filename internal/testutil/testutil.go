// Package testutil provides shared skip and assertion helpers for tests.
//
// Skip helpers call t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so model-backed tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestSentencePiece(t *testing.T) {
//	    path := testutil.SentencePieceModel(t)
//	    ...
//	}
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-textalign/internal/normalized"
)

// SentencePieceModelEnv overrides the model located by SentencePieceModel.
const SentencePieceModelEnv = "TEXTALIGN_MODEL_SENTENCEPIECE_PATH"

// RequireFile skips the test if path does not exist.
func RequireFile(tb testing.TB, path string) {
	tb.Helper()

	if _, err := os.Stat(path); err != nil {
		tb.Skipf("%s not available: %v", path, err)
	}
}

// SentencePieceModel returns the path to a SentencePiece model, skipping if
// absent. The SentencePieceModelEnv variable wins over models/tokenizer.model
// found by walking up from the working directory.
func SentencePieceModel(tb testing.TB) string {
	tb.Helper()

	if p := os.Getenv(SentencePieceModelEnv); p != "" {
		RequireFile(tb, p)
		return p
	}

	dir, err := filepath.Abs(".")
	if err != nil {
		tb.Fatalf("abs path: %v", err)
	}

	for {
		candidate := filepath.Join(dir, "models", "tokenizer.model")

		_, err = os.Stat(candidate)
		if err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	tb.Skipf("models/tokenizer.model not found; set %s to override", SentencePieceModelEnv)

	return ""
}

// AssertAligned fails the test if n violates the alignment buffer invariants.
func AssertAligned(tb testing.TB, n *normalized.String) {
	tb.Helper()

	if err := n.Validate(); err != nil {
		tb.Fatalf("alignment of %q (from %q): %v", n.Current(), n.Original(), err)
	}
}
