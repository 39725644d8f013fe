package stats

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe_Empty(t *testing.T) {
	_, err := Describe(nil)
	require.ErrorIs(t, err, ErrEmpty)

	_, err = DescribeInts([]int64{})
	require.ErrorIs(t, err, ErrEmpty)
}

func TestDescribe_Singleton(t *testing.T) {
	s, err := DescribeInts([]int64{42})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Count)
	for name, got := range map[string]decimal.Decimal{
		"sum": s.Sum, "mean": s.Mean, "median": s.Median, "min": s.Min, "max": s.Max,
	} {
		assert.True(t, got.Equal(decimal.NewFromInt(42)), "%s = %s", name, got)
	}
	assert.False(t, s.StdDev.Valid)
	assert.Equal(t, "N/A", FixedOrNA(s.StdDev))
}

func TestDescribe_KnownValues(t *testing.T) {
	s, err := DescribeInts([]int64{9, 2, 4, 4, 5, 4, 7, 5})
	require.NoError(t, err)

	assert.Equal(t, 8, s.Count)
	assert.Equal(t, "40", s.Sum.String())
	assert.Equal(t, "5.00", Fixed(s.Mean))
	assert.Equal(t, "4.50", Fixed(s.Median))
	assert.Equal(t, "2", s.Min.String())
	assert.Equal(t, "9", s.Max.String())
	require.True(t, s.StdDev.Valid)
	// sqrt(32/7)
	assert.Equal(t, "2.14", FixedOrNA(s.StdDev))
}

func TestDescribe_OddMedianAndFractionalMean(t *testing.T) {
	s, err := DescribeInts([]int64{1, 2, 10})
	require.NoError(t, err)

	assert.Equal(t, "2", s.Median.String())
	assert.Equal(t, "4.33", Fixed(s.Mean))
}

func TestDescribe_ZeroSpread(t *testing.T) {
	s, err := DescribeInts([]int64{7, 7, 7})
	require.NoError(t, err)

	require.True(t, s.StdDev.Valid)
	assert.True(t, s.StdDev.Decimal.IsZero())
}

func TestDescribe_BeyondNativeRange(t *testing.T) {
	big1, _ := decimal.NewFromString("1000000000000000000000000000000")
	big2, _ := decimal.NewFromString("3000000000000000000000000000000")

	s, err := Describe([]decimal.Decimal{big1, big2})
	require.NoError(t, err)

	assert.Equal(t, "4000000000000000000000000000000", s.Sum.String())
	assert.Equal(t, "2000000000000000000000000000000.00", Fixed(s.Mean))
	assert.Equal(t, "2000000000000000000000000000000.00", Fixed(s.Median))
	// sqrt(2) * 1e30
	assert.Equal(t, "1414213562373095048801688724209.70", FixedOrNA(s.StdDev))
}

func TestDescribe_DoesNotMutateInput(t *testing.T) {
	in := []decimal.Decimal{decimal.NewFromInt(3), decimal.NewFromInt(1), decimal.NewFromInt(2)}
	_, err := Describe(in)
	require.NoError(t, err)

	assert.Equal(t, "3", in[0].String())
	assert.Equal(t, "1", in[1].String())
}

func TestDescribe_OrderingInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(25)
		values := make([]int64, n)
		for j := range values {
			values[j] = rng.Int63n(1_000_000) - 500_000
		}

		s, err := DescribeInts(values)
		require.NoError(t, err)

		assert.True(t, s.Min.LessThanOrEqual(s.Mean), "min %s > mean %s for %v", s.Min, s.Mean, values)
		assert.True(t, s.Mean.LessThanOrEqual(s.Max), "mean %s > max %s for %v", s.Mean, s.Max, values)
		assert.True(t, s.Min.LessThanOrEqual(s.Median), "min %s > median %s for %v", s.Min, s.Median, values)
		assert.True(t, s.Median.LessThanOrEqual(s.Max), "median %s > max %s for %v", s.Median, s.Max, values)
		assert.Equal(t, n >= 2, s.StdDev.Valid)
		if s.StdDev.Valid {
			assert.False(t, s.StdDev.Decimal.IsNegative())
		}
	}
}
