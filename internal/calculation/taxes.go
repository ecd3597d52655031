package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/plansight/retirement-engine/internal/domain"
	"github.com/plansight/retirement-engine/pkg/money"
)

// TAX MODEL ASSUMPTIONS:
//
// 1. Federal brackets use the configured rule-set year for all projection
//    years; no inflation indexing of brackets.
// 2. Capital gains stack on top of ordinary income when locating the
//    applicable gains bracket.
// 3. State tax is a flat rate on taxable income (no state-specific
//    exclusions).
// 4. Estate tax applies the progressive federal schedule to the excess over
//    the exemption; married decedents get a doubled exemption (portability),
//    and the sunset toggle scales the exemption by the configured factor.

// TaxCalculator evaluates the closed rule set. Pure and deterministic: same
// inputs always produce the same outputs.
type TaxCalculator struct {
	Rules domain.FederalRules
}

// NewTaxCalculator creates a tax calculator over the given rule set.
func NewTaxCalculator(rules domain.FederalRules) *TaxCalculator {
	return &TaxCalculator{Rules: rules}
}

func (tc *TaxCalculator) ordinaryBrackets(married bool) []domain.TaxBracket {
	if married {
		return tc.Rules.OrdinaryBracketsMarried
	}
	return tc.Rules.OrdinaryBracketsSingle
}

func (tc *TaxCalculator) gainsBrackets(married bool) []domain.TaxBracket {
	if married {
		return tc.Rules.CapGainsBracketsMarried
	}
	return tc.Rules.CapGainsBracketsSingle
}

// StandardDeduction returns the filing-status standard deduction.
func (tc *TaxCalculator) StandardDeduction(married bool) decimal.Decimal {
	if married {
		return tc.Rules.StandardDeductionJoint
	}
	return tc.Rules.StandardDeductionSingle
}

// walkBrackets applies a progressive schedule to a taxable amount.
func walkBrackets(taxable decimal.Decimal, brackets []domain.TaxBracket) decimal.Decimal {
	if taxable.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	var total decimal.Decimal
	for _, b := range brackets {
		if taxable.LessThanOrEqual(b.Min) {
			break
		}
		inBracket := decimal.Min(taxable, b.Max).Sub(b.Min)
		if inBracket.IsPositive() {
			total = total.Add(inBracket.Mul(b.Rate))
		}
	}
	return total
}

// OrdinaryTax computes federal tax on ordinary income after the standard
// deduction.
func (tc *TaxCalculator) OrdinaryTax(grossOrdinary decimal.Decimal, married bool) decimal.Decimal {
	taxable := grossOrdinary.Sub(tc.StandardDeduction(married))
	return walkBrackets(taxable, tc.ordinaryBrackets(married))
}

// CapitalGainsTax computes tax on long-term gains stacked on top of ordinary
// taxable income.
func (tc *TaxCalculator) CapitalGainsTax(gains, ordinaryTaxable decimal.Decimal, married bool) decimal.Decimal {
	if gains.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	floor := money.NonNegative(ordinaryTaxable)
	stacked := walkBrackets(floor.Add(gains), tc.gainsBrackets(married))
	below := walkBrackets(floor, tc.gainsBrackets(married))
	return stacked.Sub(below)
}

// NIIT computes the net investment income tax: the configured rate applied
// to the lesser of investment income and the MAGI excess over the threshold.
func (tc *TaxCalculator) NIIT(investmentIncome, magi decimal.Decimal, married bool) decimal.Decimal {
	threshold := tc.Rules.NIITThresholdSingle
	if married {
		threshold = tc.Rules.NIITThresholdJoint
	}
	excess := magi.Sub(threshold)
	if excess.LessThanOrEqual(decimal.Zero) || investmentIncome.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return decimal.Min(investmentIncome, excess).Mul(tc.Rules.NIITRate)
}

// StateTax computes the flat-rate state income tax.
func (tc *TaxCalculator) StateTax(taxableIncome, rate decimal.Decimal) decimal.Decimal {
	if taxableIncome.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return taxableIncome.Mul(rate)
}

// EstateExemption returns the applicable exemption for a decedent, honoring
// the marital doubling and the sunset toggle.
func (tc *TaxCalculator) EstateExemption(married bool) decimal.Decimal {
	exemption := tc.Rules.EstateExemption
	if tc.Rules.EstateSunsetApplies && tc.Rules.EstateSunsetFactor.IsPositive() {
		exemption = exemption.Mul(tc.Rules.EstateSunsetFactor)
	}
	if married {
		exemption = exemption.Mul(decimal.NewFromInt(2))
	}
	return exemption
}

// EstateTax computes the progressive estate tax on a gross estate. Zero at
// or below the exemption, strictly increasing above it.
func (tc *TaxCalculator) EstateTax(grossEstate decimal.Decimal, married bool) decimal.Decimal {
	excess := grossEstate.Sub(tc.EstateExemption(married))
	if excess.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return walkBrackets(excess, tc.Rules.EstateBrackets)
}

// NetEstate returns the estate remaining after estate tax.
func (tc *TaxCalculator) NetEstate(grossEstate decimal.Decimal, married bool) decimal.Decimal {
	return money.NonNegative(grossEstate.Sub(tc.EstateTax(grossEstate, married)))
}

// MarginalRate returns the bracket rate that applies at the given taxable
// ordinary income.
func (tc *TaxCalculator) MarginalRate(taxable decimal.Decimal, married bool) decimal.Decimal {
	brackets := tc.ordinaryBrackets(married)
	for _, b := range brackets {
		if taxable.LessThan(b.Max) {
			return b.Rate
		}
	}
	return brackets[len(brackets)-1].Rate
}

// BracketCeiling returns the taxable-income top of the bracket carrying the
// given rate, or zero when no bracket matches.
func (tc *TaxCalculator) BracketCeiling(rate decimal.Decimal, married bool) decimal.Decimal {
	for _, b := range tc.ordinaryBrackets(married) {
		if b.Rate.Equal(rate) {
			return b.Max
		}
	}
	return decimal.Zero
}
