package pipeline

import (
	"context"
	"fmt"

	"github.com/axiomhq/hyperloglog"
	"github.com/shopspring/decimal"

	"github.com/chainsafe/bridge-analytics/internal/metrics"
	"github.com/chainsafe/bridge-analytics/pkg/indexer"
	"github.com/chainsafe/bridge-analytics/pkg/matcher"
	"github.com/chainsafe/bridge-analytics/pkg/routes"
	"github.com/chainsafe/bridge-analytics/pkg/stats"
)

// rawCountLines counts each result set independently; a failing set becomes
// an error line without hiding the others.
func rawCountLines(ctx context.Context, idx Indexer, sets []string) []string {
	lines := make([]string, 0, len(sets))
	for _, set := range sets {
		n, err := idx.Count(ctx, set)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%s: Error - %v", set, err))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %d", set, n))
	}
	return lines
}

// messageCounts classifies messages against the latency-iff-matched invariant.
type messageCounts struct {
	Total                int
	Matched              int
	MatchedWithLatency   int
	MatchedNoLatency     int
	UnmatchedWithLatency int
}

func countMessages(msgs []indexer.CrosschainMessage) messageCounts {
	c := messageCounts{Total: len(msgs)}
	for _, m := range msgs {
		hasLatency := m.Latency != nil || m.LatencyErr != nil
		switch {
		case m.Matched && hasLatency:
			c.Matched++
			c.MatchedWithLatency++
		case m.Matched:
			c.Matched++
			c.MatchedNoLatency++
		case hasLatency:
			c.UnmatchedWithLatency++
		}
	}
	return c
}

func matchedMessages(msgs []indexer.CrosschainMessage) []indexer.CrosschainMessage {
	out := make([]indexer.CrosschainMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Matched {
			out = append(out, m)
		}
	}
	return out
}

// latencyLines describes latencies of matched messages. Latencies that failed
// to decode are excluded and reported.
func latencyLines(msgs []indexer.CrosschainMessage) ([]string, error) {
	var (
		values   []int64
		excluded int
	)
	for _, m := range matchedMessages(msgs) {
		switch {
		case m.LatencyErr != nil:
			excluded++
		case m.Latency != nil:
			values = append(values, *m.Latency)
		}
	}
	var note []string
	if excluded > 0 {
		metrics.RecordsExcluded.WithLabelValues("latency").Add(float64(excluded))
		note = append(note, fmt.Sprintf("Excluded (undecodable latency): %d", excluded))
	}

	if len(values) == 0 {
		return append([]string{"No latency data available."}, note...), nil
	}

	s, err := stats.DescribeInts(values)
	if err != nil {
		return nil, err
	}
	lines := []string{
		fmt.Sprintf("Count: %d", s.Count),
		fmt.Sprintf("Average: %s", stats.Fixed(s.Mean)),
		fmt.Sprintf("Median: %s", stats.Fixed(s.Median)),
		fmt.Sprintf("Min: %s", s.Min.String()),
		fmt.Sprintf("Max: %s", s.Max.String()),
		fmt.Sprintf("Std Dev: %s", stats.FixedOrNA(s.StdDev)),
	}
	return append(lines, note...), nil
}

// volumeLines summarises one direction of payload amounts.
func volumeLines(label string, amounts []decimal.NullDecimal) ([]string, error) {
	values := make([]decimal.Decimal, 0, len(amounts))
	for _, a := range amounts {
		if a.Valid {
			values = append(values, a.Decimal)
		}
	}
	missing := len(amounts) - len(values)
	if missing > 0 {
		metrics.RecordsExcluded.WithLabelValues("amount").Add(float64(missing))
	}

	if len(values) == 0 {
		return []string{label + " volume: no data"}, nil
	}

	s, err := stats.Describe(values)
	if err != nil {
		return nil, err
	}
	lines := []string{
		label + " volume statistics:",
		fmt.Sprintf("  Count: %d", s.Count),
		fmt.Sprintf("  Total: %s", s.Sum.String()),
		fmt.Sprintf("  Average: %s", stats.Fixed(s.Mean)),
		fmt.Sprintf("  Median: %s", stats.Fixed(s.Median)),
	}
	if missing > 0 {
		lines = append(lines, fmt.Sprintf("  Missing amount: %d", missing))
	}
	return lines, nil
}

// rankingLines prints a route ranking; volumes are shown only when the table
// was built with them.
func rankingLines(table routes.Table) []string {
	var note []string
	if table.Excluded > 0 {
		metrics.RecordsExcluded.WithLabelValues("amount").Add(float64(table.Excluded))
		note = append(note, fmt.Sprintf("Excluded (missing amount): %d", table.Excluded))
	}

	ranked := routes.Rank(table)
	if len(ranked) == 0 {
		return append([]string{"No transfers found."}, note...)
	}

	lines := make([]string, 0, len(ranked)+1)
	for _, r := range ranked {
		if table.Mode == routes.ModeCountAndVolume {
			lines = append(lines, fmt.Sprintf("%s: %d transfers, volume: %s", r.Route, r.Count, r.Volume.String()))
		} else {
			lines = append(lines, fmt.Sprintf("%s: %d", r.Route, r.Count))
		}
	}
	return append(lines, note...)
}

func transferRouteEvents(events []indexer.TransferEvent) []routes.Event {
	out := make([]routes.Event, len(events))
	for i, e := range events {
		out[i] = routes.Event{Source: e.SourceID, Destination: e.DestinationID, Amount: e.Amount}
	}
	return out
}

func messageRouteEvents(msgs []indexer.CrosschainMessage) []routes.Event {
	out := make([]routes.Event, len(msgs))
	for i, m := range msgs {
		out[i] = routes.Event{Source: m.ChainIDOutbound, Destination: m.ChainIDInbound}
	}
	return out
}

func keyed(events []indexer.TransferEvent) []matcher.Keyed {
	out := make([]matcher.Keyed, len(events))
	for i, e := range events {
		out[i] = matcher.Keyed{GUID: e.GUID, Route: e.RouteLabel()}
	}
	return out
}

func matchLines(res matcher.Result, sentLabel, receivedLabel string) []string {
	lines := []string{
		fmt.Sprintf("%s GUIDs: %d", sentLabel, res.SentCount),
		fmt.Sprintf("%s GUIDs: %d", receivedLabel, res.ReceivedCount),
		fmt.Sprintf("Matched GUIDs: %d", res.Matched),
		fmt.Sprintf("Matched with consistent route (labels compared verbatim): %d", res.RouteConsistent),
		fmt.Sprintf("Match rate: %.1f%%", res.MatchRate),
	}
	if res.DuplicateSent > 0 || res.DuplicateReceived > 0 {
		lines = append(lines, fmt.Sprintf("Duplicate GUIDs (%s): %d sent, %d received",
			res.Policy, res.DuplicateSent, res.DuplicateReceived))
	}
	if missing := res.MissingGUIDSent + res.MissingGUIDReceived; missing > 0 {
		metrics.RecordsExcluded.WithLabelValues("guid").Add(float64(missing))
		lines = append(lines, fmt.Sprintf("Excluded (missing GUID): %d sent, %d received",
			res.MissingGUIDSent, res.MissingGUIDReceived))
	}
	return lines
}

// distinctEstimate estimates the number of distinct non-empty values.
func distinctEstimate(values []string) uint64 {
	sk := hyperloglog.New14()
	for _, v := range values {
		if v != "" {
			sk.Insert([]byte(v))
		}
	}
	return sk.Estimate()
}
