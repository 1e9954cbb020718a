package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Model    ModelConfig    `mapstructure:"model"`
	Server   ServerConfig   `mapstructure:"server"`
	LogLevel string         `mapstructure:"log_level"`
}

type PipelineConfig struct {
	// File is a pipeline description or a tokenizer.json. When set it takes
	// precedence over Normalizer and PreTokenizer.
	File         string `mapstructure:"file"`
	Normalizer   string `mapstructure:"normalizer"`
	PreTokenizer string `mapstructure:"pre_tokenizer"`
	Workers      int    `mapstructure:"workers"`
}

type ModelConfig struct {
	Type              string `mapstructure:"type"`
	VocabPath         string `mapstructure:"vocab_path"`
	SentencePiecePath string `mapstructure:"sentencepiece_path"`
	UnkToken          string `mapstructure:"unk_token"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Pipeline: PipelineConfig{
			Normalizer:   "nfc",
			PreTokenizer: "whitespace",
			Workers:      1,
		},
		Model: ModelConfig{
			Type:     ModelNone,
			UnkToken: "[UNK]",
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         4,
			MaxTextBytes:    1 << 20,
			RequestTimeout:  30,
			ShutdownTimeout: 30,
		},
		LogLevel: "info",
	}
}

// keys pairs every config key with the flag that overrides it.
var keys = []struct{ key, flag string }{
	{"pipeline.file", "pipeline"},
	{"pipeline.normalizer", "normalizer"},
	{"pipeline.pre_tokenizer", "pre-tokenizer"},
	{"pipeline.workers", "pipeline-workers"},
	{"model.type", "model-type"},
	{"model.vocab_path", "model-vocab-path"},
	{"model.sentencepiece_path", "model-sentencepiece-path"},
	{"model.unk_token", "model-unk-token"},
	{"server.listen_addr", "server-listen-addr"},
	{"server.workers", "workers"},
	{"server.max_text_bytes", "server-max-text-bytes"},
	{"server.request_timeout", "server-request-timeout"},
	{"server.shutdown_timeout", "server-shutdown-timeout"},
	{"log_level", "log-level"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("pipeline", defaults.Pipeline.File, "Pipeline description or tokenizer.json file")
	fs.String("normalizer", defaults.Pipeline.Normalizer, "Comma-separated normalizer names (nfc, nfkc, any_ascii, ...)")
	fs.String("pre-tokenizer", defaults.Pipeline.PreTokenizer, "Pre-tokenizer name (whitespace, whitespace_split, punctuation, ...)")
	fs.Int("pipeline-workers", defaults.Pipeline.Workers, "Goroutines used per split pass and per batch")
	fs.String("model-type", defaults.Model.Type, "Model applied to fragments (none|noop|wordlevel|sentencepiece)")
	fs.String("model-vocab-path", defaults.Model.VocabPath, "WordLevel vocabulary JSON file")
	fs.String("model-sentencepiece-path", defaults.Model.SentencePiecePath, "SentencePiece .model file")
	fs.String("model-unk-token", defaults.Model.UnkToken, "Unknown token for the WordLevel model")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Max concurrent requests served")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Max request text size in bytes")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown drain period in seconds")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		fs := opts.Cmd.Flags()
		for _, k := range keys {
			f := fs.Lookup(k.flag)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(k.key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", k.flag, err)
			}
		}
	}

	v.SetEnvPrefix("TEXTALIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("textalign")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("pipeline.file", c.Pipeline.File)
	v.SetDefault("pipeline.normalizer", c.Pipeline.Normalizer)
	v.SetDefault("pipeline.pre_tokenizer", c.Pipeline.PreTokenizer)
	v.SetDefault("pipeline.workers", c.Pipeline.Workers)
	v.SetDefault("model.type", c.Model.Type)
	v.SetDefault("model.vocab_path", c.Model.VocabPath)
	v.SetDefault("model.sentencepiece_path", c.Model.SentencePiecePath)
	v.SetDefault("model.unk_token", c.Model.UnkToken)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("log_level", c.LogLevel)
}
