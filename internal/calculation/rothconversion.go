package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/plansight/retirement-engine/internal/domain"
	"github.com/plansight/retirement-engine/pkg/money"
)

// RothConversionParams describe one representative retirement outcome the
// optimizer sizes conversions against.
type RothConversionParams struct {
	RetirementAge       int
	PreTaxBalance       decimal.Decimal
	Married             bool
	ProjectedSSIncome   decimal.Decimal
	FirstYearWithdrawal decimal.Decimal
	TargetBracketRate   decimal.Decimal
	GrowthRate          decimal.Decimal
}

// RothConversionOptimizer computes a bracket-targeted annual pre-tax to Roth
// conversion amount.
type RothConversionOptimizer struct {
	Tax *TaxCalculator
	RMD *RMDCalculator
}

// NewRothConversionOptimizer creates the optimizer.
func NewRothConversionOptimizer(tax *TaxCalculator, rmd *RMDCalculator) *RothConversionOptimizer {
	return &RothConversionOptimizer{Tax: tax, RMD: rmd}
}

// Recommend sizes the annual conversion that fills the remaining room under
// the target bracket across the years before RMDs start. Returns nil when
// there is nothing to convert or conversions are moot (retirement at or
// after the RMD start age).
func (o *RothConversionOptimizer) Recommend(p RothConversionParams) *domain.RothConversionResult {
	if p.PreTaxBalance.LessThanOrEqual(decimal.Zero) || p.RetirementAge >= o.RMD.StartAge {
		return nil
	}

	ceiling := o.Tax.BracketCeiling(p.TargetBracketRate, p.Married)
	if ceiling.IsZero() {
		return nil
	}
	// Room under the bracket top, measured in gross income terms.
	incomeCeiling := ceiling.Add(o.Tax.StandardDeduction(p.Married))
	baseline := p.ProjectedSSIncome.Add(p.FirstYearWithdrawal)
	headroom := money.NonNegative(incomeCeiling.Sub(baseline))

	years := o.RMD.StartAge - p.RetirementAge
	result := &domain.RothConversionResult{
		ConversionYears:   years,
		TargetBracketRate: p.TargetBracketRate,
		BracketHeadroom:   headroom,
		FirstRMDBefore:    o.projectedFirstRMD(p.PreTaxBalance, p.GrowthRate, years, decimal.Zero),
	}
	if headroom.IsZero() {
		result.FirstRMDAfter = result.FirstRMDBefore
		return result
	}

	// Amortize the pre-tax balance over the conversion window, then cap at
	// the bracket headroom so no year spills into a higher bracket.
	annual := money.Min(headroom, amortize(p.PreTaxBalance, p.GrowthRate, years))
	result.RecommendedAnnual = money.Round(annual)
	result.TotalConverted = money.Round(annual.Mul(decimal.NewFromInt(int64(years))))
	result.FirstRMDAfter = o.projectedFirstRMD(p.PreTaxBalance, p.GrowthRate, years, annual)

	// Savings estimate: converted dollars escape the bracket RMDs would
	// land them in.
	rmdIncome := result.FirstRMDBefore.Add(baseline)
	futureRate := o.Tax.MarginalRate(money.NonNegative(rmdIncome.Sub(o.Tax.StandardDeduction(p.Married))), p.Married)
	spread := money.NonNegative(futureRate.Sub(p.TargetBracketRate))
	result.EstimatedTaxSaved = money.Round(result.TotalConverted.Mul(spread))
	return result
}

// projectedFirstRMD rolls the pre-tax balance forward to the RMD start age
// with annual conversions removed, then applies the first divisor.
func (o *RothConversionOptimizer) projectedFirstRMD(balance, growth decimal.Decimal, years int, annualConversion decimal.Decimal) decimal.Decimal {
	b := balance
	for i := 0; i < years; i++ {
		b = money.Grow(b, growth).Sub(annualConversion)
		if b.IsNegative() {
			b = decimal.Zero
			break
		}
	}
	divisor := o.RMD.Divisor(o.RMD.StartAge)
	if divisor.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return b.Div(divisor)
}

// amortize computes the level annual payment that exhausts a growing
// balance over n years.
func amortize(balance, growth decimal.Decimal, years int) decimal.Decimal {
	if years <= 0 {
		return balance
	}
	n := decimal.NewFromInt(int64(years))
	if growth.IsZero() {
		return balance.Div(n)
	}
	one := decimal.NewFromInt(1)
	factor := one.Add(growth).Pow(n)
	// payment = B * g * (1+g)^n / ((1+g)^n - 1)
	denom := factor.Sub(one)
	if denom.IsZero() {
		return balance.Div(n)
	}
	return balance.Mul(growth).Mul(factor).Div(denom)
}
