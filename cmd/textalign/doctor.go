package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-textalign/internal/config"
	"github.com/example/go-textalign/internal/doctor"
	"github.com/example/go-textalign/internal/pipeline"
)

func newDoctorCmd() *cobra.Command {
	var samples []string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run pipeline, model and alignment checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			modelType, err := config.NormalizeModelType(cfg.Model.Type)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "model: %s\n", modelType)

			if len(samples) == 0 {
				samples = doctor.DefaultSamples
			}
			result := doctor.Run(cmd.Context(), doctor.Config{
				BuildPipeline: func() (*pipeline.Pipeline, error) { return buildPipeline(cfg) },
				ModelFiles:    collectModelFiles(cfg),
				Samples:       samples,
			}, out)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().StringArrayVar(&samples, "sample", nil, "Sample text to run through the pipeline (repeatable)")

	return cmd
}

// collectModelFiles returns the files the configuration depends on.
func collectModelFiles(cfg config.Config) []string {
	var paths []string
	for _, p := range []string{cfg.Pipeline.File, cfg.Model.VocabPath, cfg.Model.SentencePiecePath} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
