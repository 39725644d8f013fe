// Package stats computes descriptive statistics over exact decimal values.
package stats

import (
	"errors"
	"math/big"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrEmpty is returned when Describe is called without values. Callers are
// expected to check for emptiness first and render "no data" instead.
var ErrEmpty = errors.New("stats: no values to describe")

// Precision is the number of decimal places used when rendering statistics.
const Precision = 2

// divisionScale bounds fractional digits kept for mean and standard deviation
const divisionScale = 18

// sqrtPrecision is the mantissa size in bits for the square root
const sqrtPrecision = 256

// Summary describes a sequence of values.
type Summary struct {
	Count  int
	Sum    decimal.Decimal
	Mean   decimal.Decimal
	Median decimal.Decimal
	Min    decimal.Decimal
	Max    decimal.Decimal
	// StdDev is the sample standard deviation, valid only when Count >= 2.
	StdDev decimal.NullDecimal
}

// Describe summarises values. The input slice is not modified.
func Describe(values []decimal.Decimal) (Summary, error) {
	n := len(values)
	if n == 0 {
		return Summary{}, ErrEmpty
	}

	sorted := make([]decimal.Decimal, n)
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	sum := decimal.Sum(sorted[0], sorted[1:]...)
	count := decimal.NewFromInt(int64(n))

	s := Summary{
		Count:  n,
		Sum:    sum,
		Mean:   sum.DivRound(count, divisionScale),
		Median: median(sorted),
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
	if n >= 2 {
		s.StdDev = decimal.NullDecimal{Decimal: sampleStdDev(sorted, sum), Valid: true}
	}
	return s, nil
}

// DescribeInts is Describe for plain integers such as latencies in seconds.
func DescribeInts(values []int64) (Summary, error) {
	ds := make([]decimal.Decimal, len(values))
	for i, v := range values {
		ds[i] = decimal.NewFromInt(v)
	}
	return Describe(ds)
}

func median(sorted []decimal.Decimal) decimal.Decimal {
	n := len(sorted)
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}

// sampleStdDev evaluates sqrt((nΣx² − (Σx)²) / (n(n−1))). The ratio is exact
// for integer inputs; only the square root is approximated.
func sampleStdDev(values []decimal.Decimal, sum decimal.Decimal) decimal.Decimal {
	n := decimal.NewFromInt(int64(len(values)))

	sumSquares := decimal.Zero
	for _, v := range values {
		sumSquares = sumSquares.Add(v.Mul(v))
	}

	numerator := n.Mul(sumSquares).Sub(sum.Mul(sum))
	if !numerator.IsPositive() {
		return decimal.Zero
	}
	denominator := n.Mul(n.Sub(decimal.NewFromInt(1)))

	num := new(big.Float).SetPrec(sqrtPrecision).SetInt(numerator.Coefficient())
	num.Mul(num, pow10(numerator.Exponent()))
	den := new(big.Float).SetPrec(sqrtPrecision).SetInt(denominator.Coefficient())
	den.Mul(den, pow10(denominator.Exponent()))

	variance := new(big.Float).SetPrec(sqrtPrecision).Quo(num, den)
	root := new(big.Float).SetPrec(sqrtPrecision).Sqrt(variance)

	d, err := decimal.NewFromString(root.Text('f', divisionScale))
	if err != nil {
		// Text('f') always yields a plain decimal literal
		panic(err)
	}
	return d
}

func pow10(exp int32) *big.Float {
	f := new(big.Float).SetPrec(sqrtPrecision).SetInt64(1)
	ten := new(big.Float).SetPrec(sqrtPrecision).SetInt64(10)
	for ; exp > 0; exp-- {
		f.Mul(f, ten)
	}
	for ; exp < 0; exp++ {
		f.Quo(f, ten)
	}
	return f
}

// Fixed formats d with the report precision.
func Fixed(d decimal.Decimal) string {
	return d.StringFixed(Precision)
}

// FixedOrNA formats an optional statistic, rendering "N/A" when it is not defined.
func FixedOrNA(d decimal.NullDecimal) string {
	if !d.Valid {
		return "N/A"
	}
	return Fixed(d.Decimal)
}
