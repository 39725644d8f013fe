package pipeline

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainsafe/bridge-analytics/pkg/indexer"
	"github.com/chainsafe/bridge-analytics/pkg/matcher"
	"github.com/chainsafe/bridge-analytics/pkg/report"
	"github.com/chainsafe/bridge-analytics/pkg/routes"
)

// StargateName is the registry name of the LayerZero / StargateV2 pipeline.
const StargateName = "stargate"

const (
	layerZeroProtocol = "layerzero"
	stargateAppName   = "StargateV2"
)

var stargateEventSets = []string{
	indexer.SetOFTSent,
	indexer.SetOFTReceived,
	indexer.SetPacketSent,
	indexer.SetPacketDelivered,
}

// Stargate reports on StargateV2 transfers carried over LayerZero.
type Stargate struct {
	idx    Indexer
	policy matcher.Policy
	logger *zap.Logger
}

// NewStargate creates the stargate pipeline.
func NewStargate(idx Indexer, opts Options) *Stargate {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Stargate{idx: idx, policy: opts.DuplicatePolicy, logger: opts.Logger}
}

// Name implements Pipeline.
func (p *Stargate) Name() string { return StargateName }

// Sections implements Pipeline.
func (p *Stargate) Sections(ctx context.Context) []report.Section {
	messages := newMemo(func() ([]indexer.CrosschainMessage, error) {
		return p.idx.CrosschainMessages(ctx, indexer.ProtocolFilter(layerZeroProtocol))
	})
	sent := newMemo(func() ([]indexer.TransferEvent, error) {
		return p.idx.TransfersSent(ctx)
	})

	return []report.Section{
		report.Guard(p.logger, "Raw event counts", func() ([]string, error) {
			return rawCountLines(ctx, p.idx, stargateEventSets), nil
		}),
		report.Guard(p.logger, "LayerZero crosschain messages", func() ([]string, error) {
			msgs, err := messages.get()
			if err != nil {
				return nil, err
			}
			return p.messageSummary(msgs), nil
		}),
		report.Guard(p.logger, "StargateV2 payload volume", func() ([]string, error) {
			return p.payloadVolume(ctx)
		}),
		report.Guard(p.logger, "Source EID -> destination EID ranking", func() ([]string, error) {
			events, err := sent.get()
			if err != nil {
				return nil, err
			}
			return rankingLines(routes.Aggregate(transferRouteEvents(events), routes.ModeCountAndVolume)), nil
		}),
		report.Guard(p.logger, "LayerZero latency (seconds)", func() ([]string, error) {
			msgs, err := messages.get()
			if err != nil {
				return nil, err
			}
			return latencyLines(msgs)
		}),
		report.Guard(p.logger, "GUID matching", func() ([]string, error) {
			return p.guidMatching(ctx, sent)
		}),
	}
}

func (p *Stargate) messageSummary(msgs []indexer.CrosschainMessage) []string {
	c := countMessages(msgs)
	lines := []string{
		fmt.Sprintf("LayerZero CrosschainMessages: %d", c.Total),
		fmt.Sprintf("Matched LayerZero CrosschainMessages: %d", c.Matched),
	}
	if c.MatchedNoLatency > 0 {
		lines = append(lines, fmt.Sprintf("Matched without latency: %d", c.MatchedNoLatency))
	}
	if c.UnmatchedWithLatency > 0 {
		lines = append(lines, fmt.Sprintf("Unmatched with latency (ignored): %d", c.UnmatchedWithLatency))
	}
	return lines
}

func (p *Stargate) payloadVolume(ctx context.Context) ([]string, error) {
	payloads, err := p.idx.AppPayloads(ctx, stargateAppName)
	if err != nil {
		return nil, err
	}

	var (
		out        = make([]decimal.NullDecimal, 0, len(payloads))
		in         = make([]decimal.NullDecimal, 0, len(payloads))
		senders    = make([]string, 0, len(payloads))
		recipients = make([]string, 0, len(payloads))
	)
	for _, pl := range payloads {
		out = append(out, pl.AmountOutbound)
		in = append(in, pl.AmountInbound)
		senders = append(senders, pl.Sender)
		recipients = append(recipients, pl.Recipient)
	}

	lines := []string{fmt.Sprintf("StargateV2 AppPayloads: %d", len(payloads))}
	outLines, err := volumeLines("Outbound", out)
	if err != nil {
		return nil, err
	}
	inLines, err := volumeLines("Inbound", in)
	if err != nil {
		return nil, err
	}
	lines = append(lines, outLines...)
	lines = append(lines, inLines...)
	lines = append(lines,
		fmt.Sprintf("Distinct senders (est.): %d", distinctEstimate(senders)),
		fmt.Sprintf("Distinct recipients (est.): %d", distinctEstimate(recipients)),
	)
	return lines, nil
}

func (p *Stargate) guidMatching(ctx context.Context, sent *memo[[]indexer.TransferEvent]) ([]string, error) {
	sentEvents, err := sent.get()
	if err != nil {
		return nil, err
	}
	received, err := p.idx.TransfersReceived(ctx)
	if err != nil {
		return nil, err
	}

	res, err := matcher.Match(keyed(sentEvents), keyed(received), p.policy)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("GUID match computed",
		zap.Int("sent", res.SentCount),
		zap.Int("received", res.ReceivedCount),
		zap.Int("matched", res.Matched),
		zap.Int("route_consistent", res.RouteConsistent))

	return matchLines(res, "OFTSent", "OFTReceived"), nil
}
