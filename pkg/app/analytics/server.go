// Package analytics implements app.Runner for serve mode: reports are
// generated on demand over HTTP next to the Prometheus metrics.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "github.com/chainsafe/bridge-analytics/pkg/app/http"
	"github.com/chainsafe/bridge-analytics/pkg/config"
	"github.com/chainsafe/bridge-analytics/pkg/indexer"
	"github.com/chainsafe/bridge-analytics/pkg/pipeline"
	"github.com/chainsafe/bridge-analytics/pkg/report"
)

// Server holds configuration for the serve mode process.
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new analytics Server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Run starts the HTTP server and blocks until an OS shutdown signal is
// received or the server fails.
func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("nil config")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := indexer.NewFromConfig(&cfg.Indexer, indexer.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("initialize indexer client: %w", err)
	}

	opts, err := pipeline.OptionsFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("pipeline options: %w", err)
	}

	logger.Info("Starting bridge analytics server",
		zap.String("indexer", client.Endpoint()),
		zap.String("duplicate_policy", opts.DuplicatePolicy.String()))

	h := NewHandler(client, client.Endpoint(), opts, logger)
	srv := apphttp.NewServer(NewRouter(h, &cfg.Server, logger), &cfg.Server)

	return apphttp.ServeAndWait(ctx, srv, logger, cfg.Server.ShutdownTimeout)
}

// NewRouter wires the health, metrics and report endpoints.
func NewRouter(h *Handler, cfg *config.ServerConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(logger))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.Handler())

	limiter := apphttp.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateBurst, logger)
	r.Route("/reports", func(r chi.Router) {
		r.Get("/", h.listPipelines)
		r.With(limiter.Handler).Get("/{pipeline}", apphttp.HandleError(h.report))
	})

	return r
}

// Handler serves report requests against one indexer.
type Handler struct {
	idx      pipeline.Indexer
	endpoint string
	opts     pipeline.Options
	logger   *zap.Logger
}

// NewHandler builds the report handler used by NewRouter.
func NewHandler(idx pipeline.Indexer, endpoint string, opts pipeline.Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}
	return &Handler{idx: idx, endpoint: endpoint, opts: opts, logger: logger}
}

func (h *Handler) listPipelines(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"pipelines": pipeline.Names()}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// report runs a fresh pipeline for every request. Failed sections are part of
// the rendered text and do not change the status code.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) error {
	p, err := pipeline.New(chi.URLParam(r, "pipeline"), h.idx, h.opts)
	if err != nil {
		return err
	}

	rep := pipeline.Run(r.Context(), p, h.endpoint, h.logger)

	var buf bytes.Buffer
	if err := report.Render(&buf, rep); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Report-Run-ID", rep.RunID)
	w.Header().Set("X-Report-Failed-Sections", strconv.Itoa(rep.Failed()))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(buf.Bytes())
	return err
}

func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
