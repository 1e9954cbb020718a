package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/go-textalign/internal/offsets"
)

type normalizeOutput struct {
	Original   string         `json:"original"`
	Normalized string         `json:"normalized"`
	Alignments []offsets.Span `json:"alignments"`
}

func newNormalizeCmd() *cobra.Command {
	var (
		format     string
		alignments bool
	)

	cmd := &cobra.Command{
		Use:   "normalize [text...]",
		Short: "Normalize text and report its alignment to the input",
		Long:  "Normalize the arguments joined by spaces, or stdin when no arguments are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if err := checkFormat(format); err != nil {
				return err
			}

			text, err := readText(args, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			n, err := p.Normalize(text)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(normalizeOutput{
					Original:   n.Original(),
					Normalized: n.Current(),
					Alignments: n.Alignments(),
				})
			}

			if _, err := fmt.Fprintln(out, n.Current()); err != nil {
				return err
			}
			if !alignments {
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CHAR\tORIGINAL\tSOURCE")
			align := n.Alignments()
			i := 0
			for _, r := range n.Current() {
				a := align[i]
				fmt.Fprintf(tw, "%q\t%s\t%q\n", r, a, n.Original()[a.Start:a.End])
				i++
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().BoolVar(&alignments, "alignments", false, "Print the original span of every normalized character")

	return cmd
}
