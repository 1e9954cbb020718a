// Package bench provides benchmarking primitives for the textalign bench command.
package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/example/go-textalign/internal/pipeline"
)

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing of one pass over the input batch.
type RunResult struct {
	Index     int
	Cold      bool // true for the first run
	Normalize time.Duration
	Duration  time.Duration
	Bytes     int
	Fragments int
	MBPerSec  float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
// The slice must be non-empty.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		if d < mn {
			mn = d
		}
		if d > mx {
			mx = d
		}
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// ---------------------------------------------------------------------------
// Throughput helpers
// ---------------------------------------------------------------------------

// CalcThroughput returns input megabytes processed per second.
// Returns 0 if dur is zero to avoid division by zero.
func CalcThroughput(bytes int, dur time.Duration) float64 {
	if dur <= 0 {
		return 0
	}
	return float64(bytes) / 1e6 / dur.Seconds()
}

// CheckThroughputThreshold returns an error if mean throughput is below
// threshold. A threshold of 0 disables the gate.
func CheckThroughputThreshold(mean, threshold float64) error {
	if threshold <= 0 {
		return nil
	}
	if mean < threshold {
		return fmt.Errorf("mean throughput %.3f MB/s below threshold %.3f MB/s", mean, threshold)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Running
// ---------------------------------------------------------------------------

// Options controls Run.
type Options struct {
	Runs   int
	Warmup int
}

// Run passes texts through p Runs times after Warmup untimed passes. Each
// pass is labelled in CPU profiles by stage: "normalize" for the normalizer
// alone and "pipeline" for the full batch run.
func Run(ctx context.Context, p *pipeline.Pipeline, texts []string, opts Options) ([]RunResult, error) {
	if opts.Runs < 1 {
		return nil, fmt.Errorf("runs must be at least 1, got %d", opts.Runs)
	}

	total := 0
	for _, t := range texts {
		total += len(t)
	}

	for i := range opts.Warmup {
		if _, err := runOnce(ctx, p, texts); err != nil {
			return nil, fmt.Errorf("warmup run %d failed: %w", i+1, err)
		}
	}

	results := make([]RunResult, 0, opts.Runs)
	for i := range opts.Runs {
		r, err := runOnce(ctx, p, texts)
		if err != nil {
			return nil, fmt.Errorf("run %d failed: %w", i+1, err)
		}
		r.Index = i
		r.Cold = i == 0 && opts.Warmup == 0
		r.Bytes = total
		r.MBPerSec = CalcThroughput(total, r.Duration)
		results = append(results, r)
	}
	return results, nil
}

func runOnce(ctx context.Context, p *pipeline.Pipeline, texts []string) (RunResult, error) {
	var out RunResult
	var err error

	pprof.Do(ctx, pprof.Labels("stage", "normalize"), func(context.Context) {
		start := time.Now()
		for _, t := range texts {
			if _, err = p.Normalize(t); err != nil {
				return
			}
		}
		out.Normalize = time.Since(start)
	})
	if err != nil {
		return out, fmt.Errorf("normalize: %w", err)
	}

	pprof.Do(ctx, pprof.Labels("stage", "pipeline"), func(ctx context.Context) {
		start := time.Now()
		results, runErr := p.RunBatch(ctx, texts)
		out.Duration = time.Since(start)
		if runErr != nil {
			err = runErr
			return
		}
		for _, ps := range results {
			out.Fragments += ps.Len()
		}
	})
	if err != nil {
		return out, err
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %13s  %10s  %8s\n", "Run", "Cold", "MS", "Normalize(ms)", "Fragments", "MB/s")
	fmt.Fprintln(sb, strings.Repeat("-", 62))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.1f  %13.1f  %10d  %8.3f\n",
			r.Index+1,
			cold,
			ms(r.Duration),
			ms(r.Normalize),
			r.Fragments,
			r.MBPerSec,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 62))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (min)\n", "", "", ms(stats.Min))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (mean)\n", "", "", ms(stats.Mean))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (max)\n", "", "", ms(stats.Max))

	fmt.Fprint(w, sb.String())
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index       int     `json:"index"`
	Cold        bool    `json:"cold"`
	DurationMS  float64 `json:"duration_ms"`
	NormalizeMS float64 `json:"normalize_ms"`
	Bytes       int     `json:"bytes"`
	Fragments   int     `json:"fragments"`
	MBPerSec    float64 `json:"mb_per_sec"`
}

type jsonStats struct {
	MinMS  float64 `json:"min_ms"`
	MeanMS float64 `json:"mean_ms"`
	MaxMS  float64 `json:"max_ms"`
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:  ms(stats.Min),
			MeanMS: ms(stats.Mean),
			MaxMS:  ms(stats.Max),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:       r.Index,
			Cold:        r.Cold,
			DurationMS:  ms(r.Duration),
			NormalizeMS: ms(r.Normalize),
			Bytes:       r.Bytes,
			Fragments:   r.Fragments,
			MBPerSec:    r.MBPerSec,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}
