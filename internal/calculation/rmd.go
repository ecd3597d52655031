package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/plansight/retirement-engine/internal/domain"
)

// RMDCalculator looks up Required Minimum Distributions from the Uniform
// Lifetime Table in the rule set.
type RMDCalculator struct {
	StartAge int
	divisors map[int]decimal.Decimal
	maxAge   int
}

// NewRMDCalculator creates an RMD calculator from the rule set.
func NewRMDCalculator(rules domain.FederalRules) *RMDCalculator {
	divisors := make(map[int]decimal.Decimal, len(rules.RMDDivisors))
	maxAge := rules.RMDStartAge
	for age, d := range rules.RMDDivisors {
		divisors[age] = decimal.NewFromFloat(d)
		if age > maxAge {
			maxAge = age
		}
	}
	return &RMDCalculator{
		StartAge: rules.RMDStartAge,
		divisors: divisors,
		maxAge:   maxAge,
	}
}

// Divisor returns the life-expectancy divisor for an age, clamping ages past
// the table's end to the last entry.
func (r *RMDCalculator) Divisor(age int) decimal.Decimal {
	if age > r.maxAge {
		age = r.maxAge
	}
	if d, ok := r.divisors[age]; ok {
		return d
	}
	return decimal.Zero
}

// Required returns the minimum distribution for the year: zero before the
// start age, otherwise the pre-tax balance over the applicable divisor.
func (r *RMDCalculator) Required(preTaxBalance decimal.Decimal, age int) decimal.Decimal {
	if age < r.StartAge || preTaxBalance.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	divisor := r.Divisor(age)
	if divisor.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return preTaxBalance.Div(divisor)
}
