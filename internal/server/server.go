package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/go-textalign/internal/config"
	"github.com/example/go-textalign/internal/normalized"
	"github.com/example/go-textalign/internal/normalizers"
	"github.com/example/go-textalign/internal/offsets"
	"github.com/example/go-textalign/internal/pipeline"
	"github.com/example/go-textalign/internal/pretokenized"
	"github.com/example/go-textalign/internal/pretokenizers"
	"github.com/example/go-textalign/internal/tokenizer"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Runner normalizes and splits text. *pipeline.Pipeline implements it.
type Runner interface {
	Normalize(text string) (*normalized.String, error)
	Run(ctx context.Context, text string) (*pretokenized.String, error)
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes:   1 << 20,
		workers:        4,
		requestTimeout: 30 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of requests processed at once. Zero
// disables the limit.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	runner Runner
	opts   options
	sem    chan struct{} // semaphore for worker pool
	log    *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, /components,
// POST /normalize and POST /pretokenize.
func NewHandler(runner Runner, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		runner: runner,
		opts:   opts,
		log:    opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/components", h.handleComponents)
	mux.HandleFunc("/normalize", h.handleNormalize)
	mux.HandleFunc("/pretokenize", h.handlePreTokenize)
	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

func (h *handler) handleComponents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"normalizers":    normalizers.Types(),
		"pre_tokenizers": pretokenizers.Types(),
	})
}

type textRequest struct {
	Text  string `json:"text"`
	Space string `json:"space"`
	Unit  string `json:"unit"`
}

type normalizeResponse struct {
	Original   string         `json:"original"`
	Normalized string         `json:"normalized"`
	Alignments []offsets.Span `json:"alignments"`
}

type preTokenizeResponse struct {
	Space     string                  `json:"space"`
	Unit      string                  `json:"unit"`
	Fragments []pretokenized.Fragment `json:"fragments"`
	Tokens    []tokenizer.Token       `json:"tokens,omitempty"`
}

func (h *handler) handleNormalize(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	h.serve(w, r, "normalize", req, func(context.Context) (any, error) {
		n, err := h.runner.Normalize(req.Text)
		if err != nil {
			return nil, err
		}
		return normalizeResponse{
			Original:   n.Original(),
			Normalized: n.Current(),
			Alignments: n.Alignments(),
		}, nil
	})
}

func (h *handler) handlePreTokenize(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	space, err := offsets.ParseSpace(req.Space)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	unit, err := offsets.ParseUnit(req.Unit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.serve(w, r, "pretokenize", req, func(ctx context.Context) (any, error) {
		ps, err := h.runner.Run(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		frags, err := ps.Fragments(space, unit)
		if err != nil {
			return nil, err
		}
		toks, err := ps.Tokens(space, unit)
		if err != nil {
			return nil, err
		}
		return preTokenizeResponse{
			Space:     space.String(),
			Unit:      unit.String(),
			Fragments: frags,
			Tokens:    toks,
		}, nil
	})
}

// decode validates the method and body shared by the POST endpoints.
func (h *handler) decode(w http.ResponseWriter, r *http.Request) (textRequest, bool) {
	var req textRequest
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return req, false
	}

	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return req, false
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return req, false
	}

	if len(req.Text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return req, false
	}
	return req, true
}

// serve runs fn under the worker limit and request deadline and writes its
// result as JSON.
func (h *handler) serve(w http.ResponseWriter, r *http.Request, op string, req textRequest, fn func(context.Context) (any, error)) {
	// Acquire a worker slot, honouring cancellation while waiting.
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
			return
		}
		defer func() { <-h.sem }()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	start := time.Now()
	resp, err := fn(ctx)
	if err == nil {
		err = ctx.Err()
	}
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		status := http.StatusInternalServerError
		msg := err.Error()
		var stageErr *pipeline.StageError
		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
			status, msg = http.StatusGatewayTimeout, op+" timed out"
		case errors.As(err, &stageErr):
			status = http.StatusUnprocessableEntity
		}
		h.log.WarnContext(r.Context(), op+" failed",
			slog.Int("text_len", len(req.Text)),
			slog.Int64("duration_ms", durationMS),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
		writeError(w, status, msg)
		return
	}

	h.log.InfoContext(r.Context(), op+" complete",
		slog.Int("text_len", len(req.Text)),
		slog.Int64("duration_ms", durationMS),
	)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	pipeline        *pipeline.Pipeline
	shutdownTimeout time.Duration
}

// New returns a server for p. A nil p is built from cfg when the server
// starts.
func New(cfg config.Config, p *pipeline.Pipeline) *Server {
	return &Server{
		cfg:             cfg,
		pipeline:        p,
		shutdownTimeout: 30 * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

func (s *Server) Start(ctx context.Context) error {
	p := s.pipeline
	if p == nil {
		var err error
		if p, err = pipeline.FromConfig(s.cfg); err != nil {
			return fmt.Errorf("build pipeline: %w", err)
		}
	}

	h := NewHandler(p,
		WithWorkers(s.cfg.Server.Workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
	)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
