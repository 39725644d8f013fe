package routes

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(v int64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromInt(v), Valid: true}
}

func TestAggregate_CountAndVolume(t *testing.T) {
	table := Aggregate([]Event{
		{Source: "A", Destination: "B", Amount: amount(10)},
		{Source: "A", Destination: "B", Amount: amount(20)},
		{Source: "C", Destination: "D", Amount: amount(5)},
	}, ModeCountAndVolume)

	require.Len(t, table.Routes, 2)
	ab := table.Routes[Route{"A", "B"}]
	require.NotNil(t, ab)
	assert.Equal(t, int64(2), ab.Count)
	assert.Equal(t, "30", ab.Volume.String())

	cd := table.Routes[Route{"C", "D"}]
	require.NotNil(t, cd)
	assert.Equal(t, int64(1), cd.Count)
	assert.Equal(t, "5", cd.Volume.String())
	assert.Zero(t, table.Excluded)
}

func TestAggregate_Empty(t *testing.T) {
	table := Aggregate(nil, ModeCountAndVolume)
	assert.NotNil(t, table.Routes)
	assert.Empty(t, table.Routes)
	assert.Empty(t, Rank(table))
}

func TestAggregate_MissingAmount(t *testing.T) {
	events := []Event{
		{Source: "A", Destination: "B", Amount: amount(10)},
		{Source: "A", Destination: "B"},
		{Source: "E", Destination: "F"},
	}

	withVolume := Aggregate(events, ModeCountAndVolume)
	assert.Equal(t, 2, withVolume.Excluded)
	assert.Equal(t, int64(1), withVolume.Routes[Route{"A", "B"}].Count)
	assert.NotContains(t, withVolume.Routes, Route{"E", "F"})

	countOnly := Aggregate(events, ModeCountOnly)
	assert.Zero(t, countOnly.Excluded)
	assert.Equal(t, int64(2), countOnly.Routes[Route{"A", "B"}].Count)
	assert.Equal(t, int64(1), countOnly.Routes[Route{"E", "F"}].Count)
	assert.True(t, countOnly.Routes[Route{"A", "B"}].Volume.IsZero())
}

func TestAggregate_ArbitraryPrecisionVolume(t *testing.T) {
	huge, err := decimal.NewFromString("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.NoError(t, err)

	table := Aggregate([]Event{
		{Source: "1", Destination: "30110", Amount: decimal.NullDecimal{Decimal: huge, Valid: true}},
		{Source: "1", Destination: "30110", Amount: amount(1)},
	}, ModeCountAndVolume)

	assert.Equal(t,
		"115792089237316195423570985008687907853269984665640564039457584007913129639936",
		table.Routes[Route{"1", "30110"}].Volume.String())
}

func TestRank_DescendingCount(t *testing.T) {
	table := Table{Routes: map[Route]*Stats{
		{"A", "B"}: {Count: 5},
		{"C", "D"}: {Count: 9},
		{"E", "F"}: {Count: 9},
	}}

	ranked := Rank(table)
	require.Len(t, ranked, 3)

	top := []string{ranked[0].Route.String(), ranked[1].Route.String()}
	assert.ElementsMatch(t, []string{"C->D", "E->F"}, top)
	assert.Equal(t, "A->B", ranked[2].Route.String())
}

func TestTop(t *testing.T) {
	ranked := []Ranked{{Route: Route{"a", "b"}}, {Route: Route{"c", "d"}}, {Route: Route{"e", "f"}}}

	assert.Len(t, Top(ranked, 2), 2)
	assert.Len(t, Top(ranked, 0), 3)
	assert.Len(t, Top(ranked, 10), 3)
}
