package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-textalign/internal/config"
	"github.com/example/go-textalign/internal/pipeline"
	"github.com/example/go-textalign/internal/server"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "textalign",
		Short:         "Alignment-preserving text normalization and pre-tokenization",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newNormalizeCmd())
	cmd.AddCommand(newPreTokenizeCmd())
	cmd.AddCommand(newComponentsCmd())
	cmd.AddCommand(newDescribeCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := server.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if activeCfg.Server.ListenAddr == "" {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return activeCfg, nil
}

// buildPipeline constructs the pipeline the active configuration describes.
func buildPipeline(cfg config.Config) (*pipeline.Pipeline, error) {
	return pipeline.FromConfig(cfg, pipeline.WithLogger(slog.Default()))
}

// readText joins args with spaces or, without args, reads all of in. A
// single trailing newline from in is dropped.
func readText(args []string, in io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	text := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(text, "\r"), nil
}

func checkFormat(format string) error {
	if format != "table" && format != "json" {
		return errors.New("--format must be 'table' or 'json'")
	}
	return nil
}
