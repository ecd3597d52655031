package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/plansight/retirement-engine/internal/domain"
	"github.com/plansight/retirement-engine/pkg/money"
)

// SocialSecurityCalculator scales benefits by claim age relative to full
// retirement age. Deterministic given identical inputs.
type SocialSecurityCalculator struct {
	FullRetirementAge int
	EarliestClaimAge  int
	LatestCreditAge   int

	ProvisionalTier1Single decimal.Decimal
	ProvisionalTier2Single decimal.Decimal
	ProvisionalTier1Joint  decimal.Decimal
	ProvisionalTier2Joint  decimal.Decimal
}

// NewSocialSecurityCalculator creates a calculator from the rule set.
func NewSocialSecurityCalculator(rules domain.FederalRules) *SocialSecurityCalculator {
	return &SocialSecurityCalculator{
		FullRetirementAge:      rules.SSFullRetirementAge,
		EarliestClaimAge:       rules.SSEarliestClaimAge,
		LatestCreditAge:        rules.SSLatestCreditAge,
		ProvisionalTier1Single: rules.SSProvisionalTier1Single,
		ProvisionalTier2Single: rules.SSProvisionalTier2Single,
		ProvisionalTier1Joint:  rules.SSProvisionalTier1Joint,
		ProvisionalTier2Joint:  rules.SSProvisionalTier2Joint,
	}
}

// AnnualBenefit returns the annual benefit for a claim at the given age,
// from the monthly benefit at full retirement age. Claims before the
// earliest claim age yield zero.
func (ssc *SocialSecurityCalculator) AnnualBenefit(monthlyAtFRA decimal.Decimal, claimAge int) decimal.Decimal {
	if claimAge < ssc.EarliestClaimAge || monthlyAtFRA.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	monthly := monthlyAtFRA
	switch {
	case claimAge < ssc.FullRetirementAge:
		// 5/9 of 1% per month for the first 36 months early, 5/12 of 1%
		// for each month beyond.
		monthsEarly := (ssc.FullRetirementAge - claimAge) * 12
		var reduction decimal.Decimal
		if monthsEarly <= 36 {
			reduction = decimal.NewFromFloat(5.0 / 9.0 / 100.0).Mul(decimal.NewFromInt(int64(monthsEarly)))
		} else {
			first := decimal.NewFromFloat(5.0 / 9.0 / 100.0).Mul(decimal.NewFromInt(36))
			extra := decimal.NewFromFloat(5.0 / 12.0 / 100.0).Mul(decimal.NewFromInt(int64(monthsEarly - 36)))
			reduction = first.Add(extra)
		}
		monthly = monthlyAtFRA.Mul(decimal.NewFromInt(1).Sub(reduction))
	case claimAge > ssc.FullRetirementAge:
		// Delayed credit: 2/3 of 1% per month, capped at the latest
		// credit age.
		monthsDelayed := (claimAge - ssc.FullRetirementAge) * 12
		cap := (ssc.LatestCreditAge - ssc.FullRetirementAge) * 12
		if monthsDelayed > cap {
			monthsDelayed = cap
		}
		credit := decimal.NewFromFloat(2.0 / 3.0 / 100.0).Mul(decimal.NewFromInt(int64(monthsDelayed)))
		monthly = monthlyAtFRA.Mul(decimal.NewFromInt(1).Add(credit))
	}

	return money.Annual(monthly)
}

// TaxableShare returns the portion of an annual benefit subject to federal
// ordinary tax, using the rule set's provisional-income thresholds.
// Simplified to the tier caps (0%, 50%, 85%) rather than the phase-in
// worksheet.
func (ssc *SocialSecurityCalculator) TaxableShare(annualBenefit, otherIncome decimal.Decimal, married bool) decimal.Decimal {
	if annualBenefit.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	threshold1 := ssc.ProvisionalTier1Single
	threshold2 := ssc.ProvisionalTier2Single
	if married {
		threshold1 = ssc.ProvisionalTier1Joint
		threshold2 = ssc.ProvisionalTier2Joint
	}
	provisional := otherIncome.Add(annualBenefit.Div(decimal.NewFromInt(2)))
	switch {
	case provisional.LessThanOrEqual(threshold1):
		return decimal.Zero
	case provisional.LessThanOrEqual(threshold2):
		return annualBenefit.Mul(decimal.NewFromFloat(0.5))
	default:
		return annualBenefit.Mul(decimal.NewFromFloat(0.85))
	}
}
