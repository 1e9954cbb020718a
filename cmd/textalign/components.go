package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-textalign/internal/normalizers"
	"github.com/example/go-textalign/internal/pretokenizers"
)

func newComponentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List the component types a pipeline description may use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "normalizers:")
			for _, name := range normalizers.Types() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			fmt.Fprintln(out, "pre_tokenizers:")
			for _, name := range pretokenizers.Types() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the configured pipeline as a JSON description",
		Long:  "Print the configured pipeline in the format accepted by --pipeline.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(p, "", "  ")
			if err != nil {
				return fmt.Errorf("encode pipeline: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
