package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chainsafe/bridge-analytics/pkg/indexer"
	"github.com/chainsafe/bridge-analytics/pkg/report"
	"github.com/chainsafe/bridge-analytics/pkg/routes"
)

// AcrossName is the registry name of the Across SpokePool pipeline.
const AcrossName = "across"

var acrossEventSets = []string{
	indexer.SetFilledRelay,
	indexer.SetFilledV3Relay,
	indexer.SetFundsDeposited,
	indexer.SetCrosschainMessage,
}

// Across reports on relays matched by the indexer. It has no GUID stream of
// its own, so there is no identifier-match section.
type Across struct {
	idx    Indexer
	logger *zap.Logger
}

// NewAcross creates the across pipeline.
func NewAcross(idx Indexer, opts Options) *Across {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Across{idx: idx, logger: opts.Logger}
}

// Name implements Pipeline.
func (p *Across) Name() string { return AcrossName }

// Sections implements Pipeline.
func (p *Across) Sections(ctx context.Context) []report.Section {
	matched := newMemo(func() ([]indexer.CrosschainMessage, error) {
		msgs, err := p.idx.CrosschainMessages(ctx, indexer.MatchedFilter())
		if err != nil {
			return nil, err
		}
		return matchedMessages(msgs), nil
	})

	return []report.Section{
		report.Guard(p.logger, "Raw event counts", func() ([]string, error) {
			return rawCountLines(ctx, p.idx, acrossEventSets), nil
		}),
		report.Guard(p.logger, "Matched crosschain messages", func() ([]string, error) {
			msgs, err := matched.get()
			if err != nil {
				return nil, err
			}
			c := countMessages(msgs)
			lines := []string{fmt.Sprintf("Matched CrosschainMessages: %d", c.Matched)}
			if c.MatchedNoLatency > 0 {
				lines = append(lines, fmt.Sprintf("Matched without latency: %d", c.MatchedNoLatency))
			}
			return lines, nil
		}),
		report.Guard(p.logger, "Source -> destination ranking", func() ([]string, error) {
			msgs, err := matched.get()
			if err != nil {
				return nil, err
			}
			return rankingLines(routes.Aggregate(messageRouteEvents(msgs), routes.ModeCountOnly)), nil
		}),
		report.Guard(p.logger, "Latency (seconds)", func() ([]string, error) {
			msgs, err := matched.get()
			if err != nil {
				return nil, err
			}
			return latencyLines(msgs)
		}),
	}
}
