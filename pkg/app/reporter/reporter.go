// Package reporter implements app.Runner for one-shot console reports.
package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/chainsafe/bridge-analytics/pkg/config"
	"github.com/chainsafe/bridge-analytics/pkg/indexer"
	"github.com/chainsafe/bridge-analytics/pkg/pipeline"
	"github.com/chainsafe/bridge-analytics/pkg/report"
)

// All selects every registered pipeline.
const All = "all"

// Reporter runs the selected pipelines once and writes their reports to out.
type Reporter struct {
	cfg       *config.Config
	pipelines []string
	out       io.Writer
}

// NewReporter initializes a Reporter. name is a pipeline name or All.
func NewReporter(cfg *config.Config, name string, out io.Writer) *Reporter {
	names := []string{name}
	if name == All {
		names = pipeline.Names()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Reporter{cfg: cfg, pipelines: names, out: out}
}

// Run generates the reports. Section failures are printed inside the report
// and do not fail the run; an unknown pipeline or a write error does.
func (r *Reporter) Run() error {
	if r.cfg == nil {
		return fmt.Errorf("nil config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(r.cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := indexer.NewFromConfig(&r.cfg.Indexer, indexer.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("initialize indexer client: %w", err)
	}

	return r.run(ctx, client, client.Endpoint(), logger)
}

func (r *Reporter) run(ctx context.Context, idx pipeline.Indexer, endpoint string, logger *zap.Logger) error {
	opts, err := pipeline.OptionsFromConfig(r.cfg, logger)
	if err != nil {
		return fmt.Errorf("pipeline options: %w", err)
	}

	for _, name := range r.pipelines {
		p, err := pipeline.New(name, idx, opts)
		if err != nil {
			return err
		}
		rep := pipeline.Run(ctx, p, endpoint, logger)
		if err := report.Render(r.out, rep); err != nil {
			return fmt.Errorf("write %s report: %w", name, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}
