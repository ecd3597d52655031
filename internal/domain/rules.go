package domain

import "github.com/shopspring/decimal"

// TaxBracket is one marginal bracket. Max is exclusive of the next bracket's
// Min; the top bracket carries a sentinel Max.
type TaxBracket struct {
	Min  decimal.Decimal `yaml:"min" json:"min"`
	Max  decimal.Decimal `yaml:"max" json:"max"`
	Rate decimal.Decimal `yaml:"rate" json:"rate"`
}

// IRMAATier is one Medicare income surcharge tier, keyed by prior-year
// income and filing status.
type IRMAATier struct {
	ThresholdSingle  decimal.Decimal `yaml:"threshold_single" json:"threshold_single"`
	ThresholdJoint   decimal.Decimal `yaml:"threshold_joint" json:"threshold_joint"`
	MonthlySurcharge decimal.Decimal `yaml:"monthly_surcharge" json:"monthly_surcharge"`
}

// MedicareRules holds the Medicare premium schedule.
type MedicareRules struct {
	BasePremiumMonthly  decimal.Decimal `yaml:"base_premium_monthly" json:"base_premium_monthly"`
	IRMAATiers          []IRMAATier     `yaml:"irmaa_tiers" json:"irmaa_tiers"`
	HealthcareInflation decimal.Decimal `yaml:"healthcare_inflation" json:"healthcare_inflation"`
	EligibilityAge      int             `yaml:"eligibility_age" json:"eligibility_age"`
}

// FederalRules is the closed, versioned tax/benefit rule set the engine runs
// against. A scenario file may override it wholesale; DefaultRules supplies
// the 2025 values otherwise.
type FederalRules struct {
	Year int `yaml:"year" json:"year"`

	OrdinaryBracketsSingle  []TaxBracket    `yaml:"ordinary_brackets_single" json:"ordinary_brackets_single"`
	OrdinaryBracketsMarried []TaxBracket    `yaml:"ordinary_brackets_married" json:"ordinary_brackets_married"`
	StandardDeductionSingle decimal.Decimal `yaml:"standard_deduction_single" json:"standard_deduction_single"`
	StandardDeductionJoint  decimal.Decimal `yaml:"standard_deduction_joint" json:"standard_deduction_joint"`

	CapGainsBracketsSingle  []TaxBracket `yaml:"cap_gains_brackets_single" json:"cap_gains_brackets_single"`
	CapGainsBracketsMarried []TaxBracket `yaml:"cap_gains_brackets_married" json:"cap_gains_brackets_married"`

	NIITRate            decimal.Decimal `yaml:"niit_rate" json:"niit_rate"`
	NIITThresholdSingle decimal.Decimal `yaml:"niit_threshold_single" json:"niit_threshold_single"`
	NIITThresholdJoint  decimal.Decimal `yaml:"niit_threshold_joint" json:"niit_threshold_joint"`

	EstateExemption     decimal.Decimal `yaml:"estate_exemption" json:"estate_exemption"`
	EstateSunsetFactor  decimal.Decimal `yaml:"estate_sunset_factor" json:"estate_sunset_factor"`
	EstateSunsetApplies bool            `yaml:"estate_sunset_applies" json:"estate_sunset_applies"`
	EstateBrackets      []TaxBracket    `yaml:"estate_brackets" json:"estate_brackets"`

	SSFullRetirementAge int `yaml:"ss_full_retirement_age" json:"ss_full_retirement_age"`
	SSEarliestClaimAge  int `yaml:"ss_earliest_claim_age" json:"ss_earliest_claim_age"`
	SSLatestCreditAge   int `yaml:"ss_latest_credit_age" json:"ss_latest_credit_age"`

	SSProvisionalTier1Single decimal.Decimal `yaml:"ss_provisional_tier1_single" json:"ss_provisional_tier1_single"`
	SSProvisionalTier2Single decimal.Decimal `yaml:"ss_provisional_tier2_single" json:"ss_provisional_tier2_single"`
	SSProvisionalTier1Joint  decimal.Decimal `yaml:"ss_provisional_tier1_joint" json:"ss_provisional_tier1_joint"`
	SSProvisionalTier2Joint  decimal.Decimal `yaml:"ss_provisional_tier2_joint" json:"ss_provisional_tier2_joint"`

	RMDStartAge int             `yaml:"rmd_start_age" json:"rmd_start_age"`
	RMDDivisors map[int]float64 `yaml:"rmd_divisors" json:"rmd_divisors"`

	Medicare MedicareRules `yaml:"medicare" json:"medicare"`
}

// bracketMax is the sentinel ceiling for top brackets.
var bracketMax = decimal.NewFromInt(999999999)

func bracket(min, max int64, rate float64) TaxBracket {
	m := bracketMax
	if max > 0 {
		m = decimal.NewFromInt(max)
	}
	return TaxBracket{Min: decimal.NewFromInt(min), Max: m, Rate: decimal.NewFromFloat(rate)}
}

// DefaultRules returns the 2025 rule set.
func DefaultRules() FederalRules {
	return FederalRules{
		Year: 2025,
		OrdinaryBracketsSingle: []TaxBracket{
			bracket(0, 11925, 0.10),
			bracket(11925, 48475, 0.12),
			bracket(48475, 103350, 0.22),
			bracket(103350, 197300, 0.24),
			bracket(197300, 250525, 0.32),
			bracket(250525, 626350, 0.35),
			bracket(626350, 0, 0.37),
		},
		OrdinaryBracketsMarried: []TaxBracket{
			bracket(0, 23850, 0.10),
			bracket(23850, 96950, 0.12),
			bracket(96950, 206700, 0.22),
			bracket(206700, 394600, 0.24),
			bracket(394600, 501050, 0.32),
			bracket(501050, 751600, 0.35),
			bracket(751600, 0, 0.37),
		},
		StandardDeductionSingle: decimal.NewFromInt(15000),
		StandardDeductionJoint:  decimal.NewFromInt(30000),
		CapGainsBracketsSingle: []TaxBracket{
			bracket(0, 48350, 0),
			bracket(48350, 533400, 0.15),
			bracket(533400, 0, 0.20),
		},
		CapGainsBracketsMarried: []TaxBracket{
			bracket(0, 96700, 0),
			bracket(96700, 600050, 0.15),
			bracket(600050, 0, 0.20),
		},
		NIITRate:            decimal.NewFromFloat(0.038),
		NIITThresholdSingle: decimal.NewFromInt(200000),
		NIITThresholdJoint:  decimal.NewFromInt(250000),
		EstateExemption:     decimal.NewFromInt(13990000),
		EstateSunsetFactor:  decimal.NewFromFloat(0.5),
		EstateBrackets: []TaxBracket{
			bracket(0, 10000, 0.18),
			bracket(10000, 20000, 0.20),
			bracket(20000, 40000, 0.22),
			bracket(40000, 60000, 0.24),
			bracket(60000, 80000, 0.26),
			bracket(80000, 100000, 0.28),
			bracket(100000, 150000, 0.30),
			bracket(150000, 250000, 0.32),
			bracket(250000, 500000, 0.34),
			bracket(500000, 750000, 0.37),
			bracket(750000, 1000000, 0.39),
			bracket(1000000, 0, 0.40),
		},
		SSFullRetirementAge: 67,
		SSEarliestClaimAge:  62,
		SSLatestCreditAge:   70,

		SSProvisionalTier1Single: decimal.NewFromInt(25000),
		SSProvisionalTier2Single: decimal.NewFromInt(34000),
		SSProvisionalTier1Joint:  decimal.NewFromInt(32000),
		SSProvisionalTier2Joint:  decimal.NewFromInt(44000),
		RMDStartAge:              73,
		RMDDivisors: map[int]float64{
			73: 26.5, 74: 25.5, 75: 24.6, 76: 23.7, 77: 22.9,
			78: 22.0, 79: 21.1, 80: 20.2, 81: 19.4, 82: 18.5,
			83: 17.7, 84: 16.8, 85: 16.0, 86: 15.2, 87: 14.4,
			88: 13.7, 89: 12.9, 90: 12.2, 91: 11.5, 92: 10.8,
			93: 10.1, 94: 9.5, 95: 8.9, 96: 8.4, 97: 7.8,
			98: 7.3, 99: 6.8, 100: 6.4, 101: 6.0, 102: 5.6,
			103: 5.2, 104: 4.9, 105: 4.6,
		},
		Medicare: MedicareRules{
			BasePremiumMonthly: decimal.NewFromFloat(185.00),
			IRMAATiers: []IRMAATier{
				{decimal.NewFromInt(106000), decimal.NewFromInt(212000), decimal.NewFromFloat(74.00)},
				{decimal.NewFromInt(133000), decimal.NewFromInt(266000), decimal.NewFromFloat(185.00)},
				{decimal.NewFromInt(167000), decimal.NewFromInt(334000), decimal.NewFromFloat(295.90)},
				{decimal.NewFromInt(200000), decimal.NewFromInt(400000), decimal.NewFromFloat(406.90)},
				{decimal.NewFromInt(500000), decimal.NewFromInt(750000), decimal.NewFromFloat(517.80)},
			},
			HealthcareInflation: decimal.NewFromFloat(0.055),
			EligibilityAge:      65,
		},
	}
}
