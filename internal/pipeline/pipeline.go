// Package pipeline chains a normalizer, a pre-tokenizer and an optional model
// over input text, and runs that chain over batches.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/example/go-textalign/internal/normalized"
	"github.com/example/go-textalign/internal/normalizers"
	"github.com/example/go-textalign/internal/pretokenized"
	"github.com/example/go-textalign/internal/pretokenizers"
	"github.com/example/go-textalign/internal/tokenizer"
)

// Stage names used in StageError.
const (
	StageNormalizer   = "normalizer"
	StagePreTokenizer = "pre_tokenizer"
	StageModel        = "model"
)

// StageError reports which stage failed on which input of a batch.
type StageError struct {
	Stage string
	Index int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("input %d: %s: %v", e.Index, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	workers int
	logger  *slog.Logger
}

func defaultOptions() options {
	return options{
		workers: 1,
		logger:  slog.Default(),
	}
}

// Option configures a Pipeline.
type Option func(*options)

// WithWorkers sets how many goroutines split the fragments of one input and
// how many inputs of a batch run at once.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger sets the logger used to report stage failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

// Pipeline is an immutable chain of stages. Any stage may be nil.
type Pipeline struct {
	normalizer   normalizers.Normalizer
	preTokenizer pretokenizers.PreTokenizer
	model        tokenizer.Model
	opts         options
}

// New builds a pipeline from its stages.
func New(n normalizers.Normalizer, pt pretokenizers.PreTokenizer, m tokenizer.Model, optFns ...Option) *Pipeline {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.workers < 1 {
		opts.workers = 1
	}
	return &Pipeline{normalizer: n, preTokenizer: pt, model: m, opts: opts}
}

func (p *Pipeline) Normalizer() normalizers.Normalizer       { return p.normalizer }
func (p *Pipeline) PreTokenizer() pretokenizers.PreTokenizer { return p.preTokenizer }
func (p *Pipeline) Model() tokenizer.Model                   { return p.model }

// Normalize runs only the normalizer stage.
func (p *Pipeline) Normalize(text string) (*normalized.String, error) {
	return p.normalize(0, text)
}

func (p *Pipeline) normalize(index int, text string) (*normalized.String, error) {
	n := normalized.New(text)
	if p.normalizer == nil {
		return n, nil
	}
	if err := p.normalizer.Normalize(n); err != nil {
		return nil, p.fail(StageNormalizer, index, text, err)
	}
	return n, nil
}

// Run normalizes text, splits it and, when the pipeline has a model,
// tokenizes every fragment.
func (p *Pipeline) Run(ctx context.Context, text string) (*pretokenized.String, error) {
	return p.run(ctx, 0, text, p.opts.workers)
}

func (p *Pipeline) run(ctx context.Context, index int, text string, workers int) (*pretokenized.String, error) {
	n, err := p.normalize(index, text)
	if err != nil {
		return nil, err
	}
	ps := pretokenized.FromNormalized(n)

	if p.preTokenizer != nil {
		if err := pretokenizers.Parallel(ctx, ps, p.preTokenizer, workers); err != nil {
			return nil, p.fail(StagePreTokenizer, index, text, err)
		}
	}
	if p.model != nil {
		if err := ps.Tokenize(p.model); err != nil {
			return nil, p.fail(StageModel, index, text, err)
		}
	}
	return ps, nil
}

// RunBatch runs every text through the pipeline with up to the configured
// number of inputs in flight. Results keep input order. The first failure
// cancels the batch and is returned as a *StageError.
func (p *Pipeline) RunBatch(ctx context.Context, texts []string) ([]*pretokenized.String, error) {
	out := make([]*pretokenized.String, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.workers)
	for i, text := range texts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ps, err := p.run(gctx, i, text, 1)
			if err != nil {
				return err
			}
			out[i] = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) fail(stage string, index int, text string, err error) error {
	level := slog.LevelWarn
	if errors.Is(err, context.Canceled) {
		level = slog.LevelDebug
	}
	p.opts.logger.Log(context.Background(), level, "pipeline stage failed",
		slog.String("stage", stage),
		slog.Int("index", index),
		slog.Int("text_len", len(text)),
		slog.String("error", err.Error()),
	)
	return &StageError{Stage: stage, Index: index, Err: err}
}
