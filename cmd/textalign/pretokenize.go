package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/go-textalign/internal/offsets"
	"github.com/example/go-textalign/internal/pretokenized"
	"github.com/example/go-textalign/internal/tokenizer"
)

type preTokenizeOutput struct {
	Space     string                  `json:"space"`
	Unit      string                  `json:"unit"`
	Fragments []pretokenized.Fragment `json:"fragments"`
	Tokens    []tokenizer.Token       `json:"tokens,omitempty"`
}

func newPreTokenizeCmd() *cobra.Command {
	var (
		spaceName string
		unitName  string
		format    string
	)

	cmd := &cobra.Command{
		Use:     "pretokenize [text...]",
		Aliases: []string{"pre-tokenize"},
		Short:   "Split text into fragments with offsets into the input",
		Long:    "Run the full pipeline over the arguments joined by spaces, or stdin when no arguments are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if err := checkFormat(format); err != nil {
				return err
			}
			space, err := offsets.ParseSpace(spaceName)
			if err != nil {
				return err
			}
			unit, err := offsets.ParseUnit(unitName)
			if err != nil {
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
			ps, err := p.Run(cmd.Context(), text)
			if err != nil {
				return err
			}
			frags, err := ps.Fragments(space, unit)
			if err != nil {
				return err
			}
			toks, err := ps.Tokens(space, unit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(preTokenizeOutput{
					Space:     space.String(),
					Unit:      unit.String(),
					Fragments: frags,
					Tokens:    toks,
				})
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "#\tFRAGMENT\t%s %s SPAN\n", space, unit)
			for i, f := range frags {
				fmt.Fprintf(tw, "%d\t%q\t%s\n", i, f.Text, f.Span)
			}
			if len(toks) > 0 {
				fmt.Fprintln(tw)
				fmt.Fprintf(tw, "ID\tTOKEN\t%s %s SPAN\n", space, unit)
				for _, t := range toks {
					fmt.Fprintf(tw, "%d\t%q\t%s\n", t.ID, t.Value, t.Offsets)
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&spaceName, "space", "original", "Offset space: original|current")
	cmd.Flags().StringVar(&unitName, "unit", "byte", "Offset unit: byte|char")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")

	return cmd
}
