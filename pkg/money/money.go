// Package money provides decimal helpers for monetary amounts and growth
// arithmetic used throughout the simulation engine.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	one    = decimal.NewFromInt(1)
	twelve = decimal.NewFromInt(12)
)

// Round rounds to cents using banker's rounding.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Annual converts a monthly amount to annual.
func Annual(monthly decimal.Decimal) decimal.Decimal {
	return monthly.Mul(twelve)
}

// Monthly converts an annual amount to monthly.
func Monthly(annual decimal.Decimal) decimal.Decimal {
	return annual.Div(twelve)
}

// Grow applies one period's growth rate.
func Grow(d, rate decimal.Decimal) decimal.Decimal {
	return d.Mul(one.Add(rate))
}

// Compound applies a rate compounded over n periods.
func Compound(d, rate decimal.Decimal, periods int) decimal.Decimal {
	if periods <= 0 {
		return d
	}
	return d.Mul(one.Add(rate).Pow(decimal.NewFromInt(int64(periods))))
}

// Real deflates a nominal amount to today's dollars given an inflation rate
// and the number of years elapsed.
func Real(nominal, inflation decimal.Decimal, years int) decimal.Decimal {
	if years <= 0 {
		return nominal
	}
	factor := one.Add(inflation).Pow(decimal.NewFromInt(int64(years)))
	if factor.IsZero() {
		return nominal
	}
	return nominal.Div(factor)
}

// AnnualizedGrowth back-solves the per-year growth rate that carries start to
// end over the given number of years. Returns zero for degenerate inputs.
func AnnualizedGrowth(start, end decimal.Decimal, years int) decimal.Decimal {
	if years <= 0 || start.LessThanOrEqual(decimal.Zero) || end.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	ratio := end.Div(start).InexactFloat64()
	g := math.Pow(ratio, 1.0/float64(years)) - 1
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(g)
}

// NonNegative clamps a negative amount to zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of two amounts.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Format renders an amount as a dollar string rounded to cents.
func Format(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
