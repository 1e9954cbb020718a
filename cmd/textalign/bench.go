package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-textalign/internal/bench"
)

func newBenchCmd() *cobra.Command {
	var (
		texts         []string
		file          string
		runs          int
		warmup        int
		format        string
		minThroughput float64
		cpuProfile    string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark pipeline latency and throughput",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if file != "" {
				lines, err := readLines(file)
				if err != nil {
					return err
				}
				texts = append(texts, lines...)
			}
			if len(texts) == 0 {
				return errors.New("--text or --file is required for bench")
			}
			if runs < 1 {
				return errors.New("--runs must be at least 1")
			}
			if warmup < 0 {
				return errors.New("--warmup must not be negative")
			}
			if err := checkFormat(format); err != nil {
				return err
			}

			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}

			if cpuProfile != "" {
				stop, err := startCPUProfile(cpuProfile)
				if err != nil {
					return err
				}
				defer stop()
			}

			results, err := bench.Run(cmd.Context(), p, texts, bench.Options{Runs: runs, Warmup: warmup})
			if err != nil {
				return err
			}

			durations := make([]time.Duration, len(results))
			var totalThroughput float64
			for i, r := range results {
				durations[i] = r.Duration
				totalThroughput += r.MBPerSec
			}
			stats := bench.ComputeStats(durations)

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				bench.FormatJSON(results, stats, out)
			default:
				bench.FormatTable(results, stats, out)
			}

			return bench.CheckThroughputThreshold(totalThroughput/float64(len(results)), minThroughput)
		},
	}

	cmd.Flags().StringArrayVar(&texts, "text", nil, "Input text for each run (repeatable)")
	cmd.Flags().StringVar(&file, "file", "", "File whose non-empty lines are the input batch")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of timed runs")
	cmd.Flags().IntVar(&warmup, "warmup", 1, "Untimed runs before measuring")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&minThroughput, "min-throughput", 0, "Exit non-zero if mean MB/s falls below this value (0 = disabled)")
	cmd.Flags().StringVar(&cpuProfile, "cpuprofile", "", "Write a CPU profile labelled by stage to this file")

	return cmd
}

// readLines returns the non-empty lines of path.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bench input: %w", err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for sc.Scan() {
		if line := strings.TrimRight(sc.Text(), "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read bench input: %w", err)
	}
	return lines, nil
}
