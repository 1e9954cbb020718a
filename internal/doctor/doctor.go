// Package doctor provides environment preflight checks for textalign.
package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/example/go-textalign/internal/offsets"
	"github.com/example/go-textalign/internal/pipeline"
	"github.com/example/go-textalign/internal/pretokenized"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// DefaultSamples exercise decomposition, ligatures, combining marks and
// multi-byte punctuation.
var DefaultSamples = []string{
	"Hello, world!",
	"Café déjà vu",
	"ﬁnancial ﬂows",
	"été — ¿qué?",
	"日本語のテキスト。",
}

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// UnicodeVersion is the version of the character class tables.
	// Defaults to unicode.Version.
	UnicodeVersion string
	// NormVersion is the version of the normalization tables.
	// Defaults to norm.Version.
	NormVersion string
	// BuildPipeline constructs the configured pipeline. Nil skips the
	// pipeline and sample checks.
	BuildPipeline func() (*pipeline.Pipeline, error)
	// ModelFiles is the list of model file paths to verify on disk.
	ModelFiles []string
	// Samples are run through the pipeline and their alignments verified.
	Samples []string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(ctx context.Context, cfg Config, w io.Writer) Result {
	var res Result

	// ---- unicode tables ---------------------------------------------------
	uver, nver := cfg.UnicodeVersion, cfg.NormVersion
	if uver == "" {
		uver = unicode.Version
	}
	if nver == "" {
		nver = norm.Version
	}
	if err := checkUnicodeTables(uver, nver); err != nil {
		res.fail(fmt.Sprintf("unicode tables: %v", err))
		fmt.Fprintf(w, "%s unicode tables: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s unicode tables: classes %s, normalization %s\n", PassMark, uver, nver)
	}

	// ---- model files ------------------------------------------------------
	for _, path := range cfg.ModelFiles {
		if _, err := os.Stat(path); err != nil {
			res.fail(fmt.Sprintf("model file %q: %v", path, err))
			fmt.Fprintf(w, "%s model file %s: not found\n", FailMark, path)
		} else {
			fmt.Fprintf(w, "%s model file: %s\n", PassMark, path)
		}
	}

	// ---- pipeline ---------------------------------------------------------
	if cfg.BuildPipeline == nil {
		fmt.Fprintf(w, "%s pipeline: skipped\n", PassMark)
		return res
	}
	p, err := cfg.BuildPipeline()
	if err != nil {
		res.fail(fmt.Sprintf("pipeline: %v", err))
		fmt.Fprintf(w, "%s pipeline: %v\n", FailMark, err)
		return res
	}
	fmt.Fprintf(w, "%s pipeline: built\n", PassMark)

	// ---- sample alignments ------------------------------------------------
	for i, text := range cfg.Samples {
		ps, err := p.Run(ctx, text)
		if err == nil {
			err = CheckAlignment(ps)
		}
		if err != nil {
			res.fail(fmt.Sprintf("sample %d %q: %v", i, text, err))
			fmt.Fprintf(w, "%s sample %d: %v\n", FailMark, i, err)
			continue
		}
		fmt.Fprintf(w, "%s sample %d: %d fragments\n", PassMark, i, ps.Len())
	}

	return res
}

// CheckAlignment verifies that every fragment of ps is a valid alignment
// buffer, that its original text is the part of the input it claims to be,
// and that fragment extents never move backwards.
func CheckAlignment(ps *pretokenized.String) error {
	full := ps.Original()
	prev := 0
	for i, s := range ps.Splits() {
		n := s.Normalized
		if err := n.Validate(); err != nil {
			return fmt.Errorf("fragment %d: %w", i, err)
		}
		at := offsets.Span{Start: n.OriginalShift(), End: n.OriginalShift() + len(n.Original())}
		if err := offsets.CheckBounds("fragment original", at, len(full)); err != nil {
			return fmt.Errorf("fragment %d: %w", i, err)
		}
		if full[at.Start:at.End] != n.Original() {
			return fmt.Errorf("fragment %d: original text does not match input at %s", i, at)
		}
		ext := n.OriginalExtent().Shift(n.OriginalShift())
		if ext.Start < prev {
			return fmt.Errorf("fragment %d: extent %s starts before previous end %d", i, ext, prev)
		}
		prev = ext.End
	}
	return nil
}

// checkUnicodeTables returns an error if the normalization tables are older
// than the character class tables.
func checkUnicodeTables(classes, normalization string) error {
	cmaj, cmin, err := parseMajorMinor(classes)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", classes, err)
	}
	nmaj, nmin, err := parseMajorMinor(normalization)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", normalization, err)
	}
	if nmaj < cmaj || (nmaj == cmaj && nmin < cmin) {
		return fmt.Errorf("normalization tables (Unicode %s) older than character classes (Unicode %s)", normalization, classes)
	}
	return nil
}

func parseMajorMinor(ver string) (major, minor int, err error) {
	parts := strings.SplitN(ver, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected version format %q", ver)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad major in %q: %w", ver, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minor in %q: %w", ver, err)
	}
	return major, minor, nil
}
