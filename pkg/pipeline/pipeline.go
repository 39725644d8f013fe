// Package pipeline composes the indexer client, aggregator, matcher and
// statistics engine into the stargate and across reports.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainsafe/bridge-analytics/internal/metrics"
	apperrors "github.com/chainsafe/bridge-analytics/pkg/app/errors"
	"github.com/chainsafe/bridge-analytics/pkg/config"
	"github.com/chainsafe/bridge-analytics/pkg/indexer"
	"github.com/chainsafe/bridge-analytics/pkg/matcher"
	"github.com/chainsafe/bridge-analytics/pkg/report"
)

// Indexer is the query surface the pipelines need from the indexer client.
type Indexer interface {
	Count(ctx context.Context, resultSet string) (int, error)
	TransfersSent(ctx context.Context) ([]indexer.TransferEvent, error)
	TransfersReceived(ctx context.Context) ([]indexer.TransferEvent, error)
	CrosschainMessages(ctx context.Context, filter indexer.MessageFilter) ([]indexer.CrosschainMessage, error)
	AppPayloads(ctx context.Context, appName string) ([]indexer.AppPayload, error)
}

// Pipeline produces the sections of one report, in display order.
type Pipeline interface {
	Name() string
	Sections(ctx context.Context) []report.Section
}

// Options carries settings shared by all pipelines.
type Options struct {
	DuplicatePolicy matcher.Policy
	Logger          *zap.Logger
}

// OptionsFromConfig derives pipeline options from the matching section of cfg.
func OptionsFromConfig(cfg *config.Config, logger *zap.Logger) (Options, error) {
	policy, err := matcher.ParsePolicy(cfg.Matching.DuplicatePolicy)
	if err != nil {
		return Options{}, apperrors.GeneralError(err)
	}
	return Options{DuplicatePolicy: policy, Logger: logger}, nil
}

type factory func(idx Indexer, opts Options) Pipeline

var registry = map[string]factory{
	StargateName: func(idx Indexer, opts Options) Pipeline { return NewStargate(idx, opts) },
	AcrossName:   func(idx Indexer, opts Options) Pipeline { return NewAcross(idx, opts) },
}

// Names lists the registered pipelines.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New returns the pipeline registered under name.
func New(name string, idx Indexer, opts Options) (Pipeline, error) {
	f, ok := registry[name]
	if !ok {
		return nil, apperrors.ResourceNotFoundError(
			fmt.Errorf("unknown pipeline %q (available: %v)", name, Names()),
			"unknown pipeline",
		)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return f(idx, opts), nil
}

// Run evaluates every section of p once and assembles the report. It never
// fails: section errors are carried inside the report.
func Run(ctx context.Context, p Pipeline, endpoint string, logger *zap.Logger) *report.Report {
	runID := uuid.NewString()
	start := time.Now()
	logger = logger.With(zap.String("pipeline", p.Name()), zap.String("run_id", runID))
	logger.Info("Starting report run")

	r := &report.Report{
		Pipeline:    p.Name(),
		RunID:       runID,
		Endpoint:    endpoint,
		GeneratedAt: start,
		Sections:    p.Sections(ctx),
	}

	for _, s := range r.Sections {
		status := "ok"
		if !s.OK() {
			status = "failed"
		}
		metrics.SectionsTotal.WithLabelValues(p.Name(), status).Inc()
	}

	logger.Info("Report run completed",
		zap.Int("sections", len(r.Sections)),
		zap.Int("failed", r.Failed()),
		zap.Duration("duration", time.Since(start)))
	return r
}

// memo runs a query at most once per report so sections sharing a result set
// see the same rows, or the same failure.
type memo[T any] struct {
	fn   func() (T, error)
	done bool
	val  T
	err  error
}

func newMemo[T any](fn func() (T, error)) *memo[T] {
	return &memo[T]{fn: fn}
}

func (m *memo[T]) get() (T, error) {
	if !m.done {
		m.val, m.err = m.fn()
		m.done = true
	}
	return m.val, m.err
}
