package domain

import "github.com/shopspring/decimal"

// YearRecord is one simulated year. Created inside the simulation engine and
// immutable once produced.
type YearRecord struct {
	Year            int             `json:"year"`
	AgeSelf         int             `json:"age_self"`
	AgeSpouse       int             `json:"age_spouse,omitempty"`
	BalanceNominal  decimal.Decimal `json:"balance_nominal"`
	BalanceReal     decimal.Decimal `json:"balance_real"`
	GrossWithdrawal decimal.Decimal `json:"gross_withdrawal"`
	NetWithdrawal   decimal.Decimal `json:"net_withdrawal"`
	TotalTax        decimal.Decimal `json:"total_tax"`
	SSBenefit       decimal.Decimal `json:"ss_benefit"`
	MedicarePremium decimal.Decimal `json:"medicare_premium"`
	LTCCost         decimal.Decimal `json:"ltc_cost"`
	RMD             decimal.Decimal `json:"rmd"`
	RothConversion  decimal.Decimal `json:"roth_conversion"`
	Return          decimal.Decimal `json:"return"`
	Retired         bool            `json:"retired"`
}

// TaxBreakdown decomposes one year's tax bill.
type TaxBreakdown struct {
	Ordinary     decimal.Decimal `json:"ordinary"`
	CapitalGains decimal.Decimal `json:"capital_gains"`
	NIIT         decimal.Decimal `json:"niit"`
	State        decimal.Decimal `json:"state"`
	Total        decimal.Decimal `json:"total"`
}

// PathResult is one complete single-simulation trajectory.
type PathResult struct {
	Years               []YearRecord    `json:"years"`
	Ruined              bool            `json:"ruined"`
	RuinAge             int             `json:"ruin_age,omitempty"`
	TerminalNominal     decimal.Decimal `json:"terminal_nominal"`
	TerminalReal        decimal.Decimal `json:"terminal_real"`
	FirstYearGross      decimal.Decimal `json:"first_year_gross"`
	FirstYearNet        decimal.Decimal `json:"first_year_net"`
	FirstYearTaxes      TaxBreakdown    `json:"first_year_taxes"`
	RetirementYearIndex int             `json:"retirement_year_index"`
}

// PercentileSeries carries inflation-adjusted balances at each percentile
// across the simulated horizon. Monotonic non-decreasing across rank at
// every time index.
type PercentileSeries struct {
	P10 []decimal.Decimal `json:"p10"`
	P25 []decimal.Decimal `json:"p25"`
	P50 []decimal.Decimal `json:"p50"`
	P75 []decimal.Decimal `json:"p75"`
	P90 []decimal.Decimal `json:"p90"`
}

// BatchSummary aggregates N independent paths.
type BatchSummary struct {
	Paths           int              `json:"paths"`
	Seed            int64            `json:"seed"`
	Horizon         int              `json:"horizon"`
	Percentiles     PercentileSeries `json:"percentiles"`
	FirstYearNetP25 decimal.Decimal  `json:"first_year_net_p25"`
	FirstYearNetP50 decimal.Decimal  `json:"first_year_net_p50"`
	TerminalP25     decimal.Decimal  `json:"terminal_p25"`
	TerminalP50     decimal.Decimal  `json:"terminal_p50"`
	TerminalP75     decimal.Decimal  `json:"terminal_p75"`
	ProbRuin        decimal.Decimal  `json:"prob_ruin"`
	// AllRuns holds every path's terminal real balance, retained for
	// downstream empirical analysis.
	AllRuns []decimal.Decimal `json:"all_runs"`
}

// Cohort is one beneficiary generation produced by backfill.
type Cohort struct {
	Age        int             `json:"age"`
	Size       decimal.Decimal `json:"size"`
	Generation int             `json:"generation"`
}

// PayoutVariant is one percentile's generational outcome, carrying its own
// perpetuity threshold and the empirical probability of clearing it across
// all batch paths.
type PayoutVariant struct {
	NetEstate              decimal.Decimal `json:"net_estate"`
	DurationYears          int             `json:"duration_years"`
	Perpetual              bool            `json:"perpetual"`
	RemainingFund          decimal.Decimal `json:"remaining_fund"`
	ImpliedGrowth          decimal.Decimal `json:"implied_growth"`
	MinEstateForPerpetuity decimal.Decimal `json:"min_estate_for_perpetuity"`
	ProbabilityPerpetuity  decimal.Decimal `json:"probability_perpetuity"`
}

// GenerationalPayout is the multi-generation wealth-transfer projection.
type GenerationalPayout struct {
	PerBeneficiary   decimal.Decimal `json:"per_beneficiary"`
	BeneficiaryCount decimal.Decimal `json:"beneficiary_count"`
	Cohorts          []Cohort        `json:"cohorts"`
	P10              PayoutVariant   `json:"p10"`
	P50              PayoutVariant   `json:"p50"`
	P90              PayoutVariant   `json:"p90"`
	// Headline values, mirrored from the median variant.
	ProbabilityPerpetuity  decimal.Decimal `json:"probability_perpetuity"`
	MinEstateForPerpetuity decimal.Decimal `json:"min_estate_for_perpetuity"`
}

// GuardrailsResult reports the reduced-spending re-evaluation. Advisory,
// never persisted.
type GuardrailsResult struct {
	ReductionFraction decimal.Decimal `json:"reduction_fraction"`
	OriginalProbRuin  decimal.Decimal `json:"original_prob_ruin"`
	ReducedProbRuin   decimal.Decimal `json:"reduced_prob_ruin"`
	OriginalSpendP50  decimal.Decimal `json:"original_spend_p50"`
	ReducedSpendP50   decimal.Decimal `json:"reduced_spend_p50"`
	TerminalP50       decimal.Decimal `json:"terminal_p50"`
}

// RothConversionResult reports the bracket-targeted conversion plan.
// Advisory, never persisted.
type RothConversionResult struct {
	RecommendedAnnual decimal.Decimal `json:"recommended_annual"`
	ConversionYears   int             `json:"conversion_years"`
	TotalConverted    decimal.Decimal `json:"total_converted"`
	TargetBracketRate decimal.Decimal `json:"target_bracket_rate"`
	BracketHeadroom   decimal.Decimal `json:"bracket_headroom"`
	FirstRMDBefore    decimal.Decimal `json:"first_rmd_before"`
	FirstRMDAfter     decimal.Decimal `json:"first_rmd_after"`
	EstimatedTaxSaved decimal.Decimal `json:"estimated_tax_saved"`
}

// ResultSummary carries the headline formatted fields.
type ResultSummary struct {
	MedianTerminal string `json:"median_terminal"`
	ProbRuin       string `json:"prob_ruin"`
	FirstYearSpend string `json:"first_year_spend"`
	YearsSimulated int    `json:"years_simulated"`
	PathsSimulated int    `json:"paths_simulated"`
}

// CalculationResult is the aggregate returned through the dispatcher.
type CalculationResult struct {
	Summary    ResultSummary         `json:"summary"`
	Years      []YearRecord          `json:"years"`
	Batch      *BatchSummary         `json:"batch"`
	Legacy     *GenerationalPayout   `json:"legacy,omitempty"`
	Guardrails *GuardrailsResult     `json:"guardrails,omitempty"`
	Roth       *RothConversionResult `json:"roth,omitempty"`
	Taxes      TaxBreakdown          `json:"taxes"`
}

// ProgressEvent is streamed to the caller's progress indicator.
type ProgressEvent struct {
	Phase   string  `json:"phase"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}
