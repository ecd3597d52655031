package domain

import "github.com/shopspring/decimal"

// MaritalStatus is the household filing status.
type MaritalStatus string

const (
	Single  MaritalStatus = "single"
	Married MaritalStatus = "married"
)

// EmploymentType describes how a person earns income.
type EmploymentType string

const (
	EmploymentW2           EmploymentType = "w2"
	EmploymentSelfEmployed EmploymentType = "self-employed"
	EmploymentNone         EmploymentType = "none"
)

// ReturnMode selects how yearly portfolio returns are generated.
type ReturnMode string

const (
	// ReturnFixed applies the expected return every year.
	ReturnFixed ReturnMode = "fixed"
	// ReturnHistorical replays a randomly drawn historical year's returns
	// for each simulated year.
	ReturnHistorical ReturnMode = "historical"
	// ReturnSeeded draws from a normal distribution over a seeded PRNG.
	ReturnSeeded ReturnMode = "seeded"
	// ReturnRandom draws from a normal distribution reseeded per batch.
	ReturnRandom ReturnMode = "random"
)

// GlideShape selects the interpolation between glide path endpoints.
type GlideShape string

const (
	GlideLinear GlideShape = "linear"
	GlideSmooth GlideShape = "smooth"
)

// Person holds one household member's details.
type Person struct {
	CurrentAge     int             `yaml:"current_age" json:"current_age"`
	AnnualIncome   decimal.Decimal `yaml:"annual_income" json:"annual_income"`
	Employment     EmploymentType  `yaml:"employment" json:"employment"`
	SSClaimAge     int             `yaml:"ss_claim_age" json:"ss_claim_age"`
	SSMonthlyAtFRA decimal.Decimal `yaml:"ss_monthly_at_fra" json:"ss_monthly_at_fra"`
}

// AccountBalances holds starting balances by account type.
type AccountBalances struct {
	Taxable   decimal.Decimal `yaml:"taxable" json:"taxable"`
	PreTax    decimal.Decimal `yaml:"pre_tax" json:"pre_tax"`
	Roth      decimal.Decimal `yaml:"roth" json:"roth"`
	Emergency decimal.Decimal `yaml:"emergency" json:"emergency"`
}

// PersonContributions is one person's annual contribution schedule.
type PersonContributions struct {
	Taxable       decimal.Decimal `yaml:"taxable" json:"taxable"`
	PreTax        decimal.Decimal `yaml:"pre_tax" json:"pre_tax"`
	Roth          decimal.Decimal `yaml:"roth" json:"roth"`
	EmployerMatch decimal.Decimal `yaml:"employer_match" json:"employer_match"`
}

// ContributionPlan is the household contribution schedule.
type ContributionPlan struct {
	Self           PersonContributions `yaml:"self" json:"self"`
	Spouse         PersonContributions `yaml:"spouse" json:"spouse"`
	EscalationRate decimal.Decimal     `yaml:"escalation_rate" json:"escalation_rate"`
}

// Total returns the combined annual contribution across persons and types,
// with employer match clamped at zero.
func (c ContributionPlan) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range []PersonContributions{c.Self, c.Spouse} {
		total = total.Add(p.Taxable).Add(p.PreTax).Add(p.Roth)
		if p.EmployerMatch.IsPositive() {
			total = total.Add(p.EmployerMatch)
		}
	}
	return total
}

// RateAssumptions holds the market and policy rate assumptions.
type RateAssumptions struct {
	ExpectedReturn   decimal.Decimal `yaml:"expected_return" json:"expected_return"`
	ReturnVolatility decimal.Decimal `yaml:"return_volatility" json:"return_volatility"`
	Inflation        decimal.Decimal `yaml:"inflation" json:"inflation"`
	StateTaxRate     decimal.Decimal `yaml:"state_tax_rate" json:"state_tax_rate"`
	WithdrawalRate   decimal.Decimal `yaml:"withdrawal_rate" json:"withdrawal_rate"`
	IncomeGrowth     decimal.Decimal `yaml:"income_growth" json:"income_growth"`
}

// HealthcareAssumptions configures Medicare participation and the long-term
// care cost model.
type HealthcareAssumptions struct {
	MedicareEnabled  bool            `yaml:"medicare_enabled" json:"medicare_enabled"`
	LTCAnnualCost    decimal.Decimal `yaml:"ltc_annual_cost" json:"ltc_annual_cost"`
	LTCProbability   decimal.Decimal `yaml:"ltc_probability" json:"ltc_probability"`
	LTCOnsetMinAge   int             `yaml:"ltc_onset_min_age" json:"ltc_onset_min_age"`
	LTCOnsetMaxAge   int             `yaml:"ltc_onset_max_age" json:"ltc_onset_max_age"`
	LTCDurationYears int             `yaml:"ltc_duration_years" json:"ltc_duration_years"`
}

// GlidePath shifts the equity allocation between two ages.
type GlidePath struct {
	StartEquityPct decimal.Decimal `yaml:"start_equity_pct" json:"start_equity_pct"`
	EndEquityPct   decimal.Decimal `yaml:"end_equity_pct" json:"end_equity_pct"`
	StartAge       int             `yaml:"start_age" json:"start_age"`
	EndAge         int             `yaml:"end_age" json:"end_age"`
	Shape          GlideShape      `yaml:"shape" json:"shape"`
}

// RothConversionPolicy schedules annual pre-tax to Roth conversions.
type RothConversionPolicy struct {
	AnnualAmount decimal.Decimal `yaml:"annual_amount" json:"annual_amount"`
	StartAge     int             `yaml:"start_age" json:"start_age"`
	EndAge       int             `yaml:"end_age" json:"end_age"`
}

// SimulationInputs is the complete configuration for one simulation. It is a
// value object constructed once per invocation; the engine never reads
// ambient mutable state.
type SimulationInputs struct {
	Self          Person                `yaml:"self" json:"self"`
	Spouse        *Person               `yaml:"spouse,omitempty" json:"spouse,omitempty"`
	MaritalStatus MaritalStatus         `yaml:"marital_status" json:"marital_status"`
	RetirementAge int                   `yaml:"retirement_age" json:"retirement_age"`
	HorizonAge    int                   `yaml:"horizon_age" json:"horizon_age"`
	Accounts      AccountBalances       `yaml:"accounts" json:"accounts"`
	Contributions ContributionPlan      `yaml:"contributions" json:"contributions"`
	Assumptions   RateAssumptions       `yaml:"assumptions" json:"assumptions"`
	ReturnMode    ReturnMode            `yaml:"return_mode" json:"return_mode"`
	Healthcare    HealthcareAssumptions `yaml:"healthcare" json:"healthcare"`
	GlidePath     *GlidePath            `yaml:"glide_path,omitempty" json:"glide_path,omitempty"`
	RothPolicy    *RothConversionPolicy `yaml:"roth_policy,omitempty" json:"roth_policy,omitempty"`
	Seed          int64                 `yaml:"seed" json:"seed"`
	NumPaths      int                   `yaml:"num_paths" json:"num_paths"`
}

// IsMarried reports whether the household files jointly.
func (si *SimulationInputs) IsMarried() bool {
	return si.MaritalStatus == Married && si.Spouse != nil
}

// YoungerAge returns the younger household member's current age.
func (si *SimulationInputs) YoungerAge() int {
	if si.Spouse != nil && si.Spouse.CurrentAge < si.Self.CurrentAge {
		return si.Spouse.CurrentAge
	}
	return si.Self.CurrentAge
}

// OlderAge returns the older household member's current age.
func (si *SimulationInputs) OlderAge() int {
	if si.Spouse != nil && si.Spouse.CurrentAge > si.Self.CurrentAge {
		return si.Spouse.CurrentAge
	}
	return si.Self.CurrentAge
}

// LegacyInputs configures the generational wealth projection.
type LegacyInputs struct {
	BeneficiaryAges      []int           `yaml:"beneficiary_ages" json:"beneficiary_ages"`
	FertilityRate        decimal.Decimal `yaml:"fertility_rate" json:"fertility_rate"`
	GenerationYears      int             `yaml:"generation_years" json:"generation_years"`
	FertilityMaxAge      int             `yaml:"fertility_max_age" json:"fertility_max_age"`
	AnnualPerBeneficiary decimal.Decimal `yaml:"annual_per_beneficiary" json:"annual_per_beneficiary"`
}

// GuardrailsInputs configures the dynamic-spending analyzer.
type GuardrailsInputs struct {
	ReductionFraction decimal.Decimal `yaml:"reduction_fraction" json:"reduction_fraction"`
}

// RothOptimizerInputs configures the conversion optimizer.
type RothOptimizerInputs struct {
	TargetBracketRate decimal.Decimal `yaml:"target_bracket_rate" json:"target_bracket_rate"`
}

// Scenario is the top-level configuration object supplied by the external
// collaborator: simulation inputs plus optional analyzer requests and an
// optional rule-set override.
type Scenario struct {
	Inputs        SimulationInputs     `yaml:"inputs" json:"inputs"`
	Legacy        *LegacyInputs        `yaml:"legacy,omitempty" json:"legacy,omitempty"`
	Guardrails    *GuardrailsInputs    `yaml:"guardrails,omitempty" json:"guardrails,omitempty"`
	RothOptimizer *RothOptimizerInputs `yaml:"roth_optimizer,omitempty" json:"roth_optimizer,omitempty"`
	Rules         *FederalRules        `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// EffectiveRules returns the scenario's rule override, or the defaults.
func (s *Scenario) EffectiveRules() FederalRules {
	if s.Rules != nil {
		return *s.Rules
	}
	return DefaultRules()
}
