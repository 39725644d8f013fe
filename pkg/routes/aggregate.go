// Package routes groups transfer events by (source, destination) chain pair.
package routes

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Route is one transfer direction between two chain identifiers.
type Route struct {
	Source      string
	Destination string
}

// String returns the route label "src->dst".
func (r Route) String() string {
	return r.Source + "->" + r.Destination
}

// Stats accumulates transfers seen on a route.
type Stats struct {
	Count  int64
	Volume decimal.Decimal
}

// Mode selects how events without a usable amount are treated.
type Mode int

const (
	// ModeCountAndVolume counts only events with a valid amount and sums their amounts.
	// Events without one are left out of the route entirely and tallied in Table.Excluded.
	ModeCountAndVolume Mode = iota
	// ModeCountOnly counts every event and ignores amounts.
	ModeCountOnly
)

// Event is the minimal view of a transfer the aggregator needs.
type Event struct {
	Source      string
	Destination string
	Amount      decimal.NullDecimal
}

// Table is the per-route aggregation of one run.
type Table struct {
	Mode     Mode
	Routes   map[Route]*Stats
	Excluded int
}

// Aggregate folds events into a per-route table. An empty input yields an empty table.
func Aggregate(events []Event, mode Mode) Table {
	t := Table{Mode: mode, Routes: make(map[Route]*Stats)}
	for _, ev := range events {
		if mode == ModeCountAndVolume && !ev.Amount.Valid {
			t.Excluded++
			continue
		}

		key := Route{Source: ev.Source, Destination: ev.Destination}
		st, ok := t.Routes[key]
		if !ok {
			st = &Stats{Volume: decimal.Zero}
			t.Routes[key] = st
		}
		st.Count++
		if mode == ModeCountAndVolume {
			st.Volume = st.Volume.Add(ev.Amount.Decimal)
		}
	}
	return t
}

// Ranked is one row of a route ranking.
type Ranked struct {
	Route Route
	Stats
}

// Rank orders routes by descending count. Equal counts are ordered by label so
// repeated runs over the same data print the same ranking.
func Rank(t Table) []Ranked {
	out := make([]Ranked, 0, len(t.Routes))
	for r, st := range t.Routes {
		out = append(out, Ranked{Route: r, Stats: *st})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Route.String() < out[j].Route.String()
	})
	return out
}

// Top returns at most limit entries of ranked; limit <= 0 returns all of them.
func Top(ranked []Ranked, limit int) []Ranked {
	if limit <= 0 || len(ranked) <= limit {
		return ranked
	}
	return ranked[:limit]
}
