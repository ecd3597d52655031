package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/plansight/retirement-engine/internal/domain"
	"github.com/plansight/retirement-engine/pkg/money"
)

// MedicareCalculator computes Part B premiums including the IRMAA surcharge
// tier keyed by prior-year income and filing status.
type MedicareCalculator struct {
	Rules domain.MedicareRules
}

// NewMedicareCalculator creates a Medicare calculator from the rule set.
func NewMedicareCalculator(rules domain.MedicareRules) *MedicareCalculator {
	return &MedicareCalculator{Rules: rules}
}

// Surcharge returns the monthly IRMAA surcharge for the given prior-year
// income. Tiers accumulate: each exceeded threshold adds its surcharge.
func (mc *MedicareCalculator) Surcharge(priorYearIncome decimal.Decimal, married bool) decimal.Decimal {
	var total decimal.Decimal
	for _, tier := range mc.Rules.IRMAATiers {
		threshold := tier.ThresholdSingle
		if married {
			threshold = tier.ThresholdJoint
		}
		if !priorYearIncome.GreaterThan(threshold) {
			break
		}
		total = total.Add(tier.MonthlySurcharge)
	}
	return total
}

// AnnualPremium returns one person's annual Part B cost, escalated from the
// rule-set base year at the healthcare inflation rate.
func (mc *MedicareCalculator) AnnualPremium(priorYearIncome decimal.Decimal, married bool, yearsFromBase int) decimal.Decimal {
	monthly := mc.Rules.BasePremiumMonthly.Add(mc.Surcharge(priorYearIncome, married))
	return money.Compound(money.Annual(monthly), mc.Rules.HealthcareInflation, yearsFromBase)
}

// Eligible reports Medicare eligibility at the given age.
func (mc *MedicareCalculator) Eligible(age int) bool {
	return age >= mc.Rules.EligibilityAge
}

// LTCModel is the probabilistic long-term-care cost model. The random draw
// is supplied by the caller so the model itself stays deterministic.
type LTCModel struct {
	Config domain.HealthcareAssumptions
}

// InWindow reports whether an onset can occur at the given age.
func (l LTCModel) InWindow(age int) bool {
	if l.Config.LTCAnnualCost.LessThanOrEqual(decimal.Zero) || !l.Config.LTCProbability.IsPositive() {
		return false
	}
	return age >= l.Config.LTCOnsetMinAge && age <= l.Config.LTCOnsetMaxAge
}

// Triggered reports whether a uniform draw in [0,1) falls under the annual
// onset probability.
func (l LTCModel) Triggered(draw float64) bool {
	return decimal.NewFromFloat(draw).LessThan(l.Config.LTCProbability)
}

// AnnualCost returns the inflation-indexed annual cost for a care year.
func (l LTCModel) AnnualCost(inflation decimal.Decimal, yearsElapsed int) decimal.Decimal {
	return money.Compound(l.Config.LTCAnnualCost, inflation, yearsElapsed)
}
