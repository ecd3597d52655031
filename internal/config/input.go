// Package config loads and validates scenario files.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/plansight/retirement-engine/internal/calculation"
	"github.com/plansight/retirement-engine/internal/domain"
)

// InputParser handles parsing of scenario configuration files.
type InputParser struct{}

// NewInputParser creates a new input parser.
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a scenario from a YAML file, applies defaults, and
// validates it.
func (ip *InputParser) LoadFromFile(filename string) (*domain.Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var sc domain.Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	ip.ApplyDefaults(&sc)
	if err := ip.ValidateScenario(&sc); err != nil {
		return nil, fmt.Errorf("scenario validation failed: %w", err)
	}
	return &sc, nil
}

// ApplyDefaults fills unset scenario fields with sensible defaults.
func (ip *InputParser) ApplyDefaults(sc *domain.Scenario) {
	in := &sc.Inputs
	if in.MaritalStatus == "" {
		in.MaritalStatus = domain.Single
	}
	if in.Self.Employment == "" {
		in.Self.Employment = domain.EmploymentW2
	}
	if in.Spouse != nil && in.Spouse.Employment == "" {
		in.Spouse.Employment = domain.EmploymentW2
	}
	if in.ReturnMode == "" {
		in.ReturnMode = domain.ReturnSeeded
	}
	if in.NumPaths <= 0 {
		in.NumPaths = calculation.DefaultNumPaths
	}
	if in.HorizonAge == 0 {
		in.HorizonAge = 95
	}
	if in.Assumptions.WithdrawalRate.IsZero() {
		in.Assumptions.WithdrawalRate = decimal.NewFromFloat(0.04)
	}
	if sc.Legacy != nil && sc.Legacy.FertilityMaxAge == 0 {
		sc.Legacy.FertilityMaxAge = 45
	}
}

// ValidateScenario validates the loaded scenario. Simulation inputs are
// checked with the engine's own validator so file-based and programmatic
// callers reject the same configurations.
func (ip *InputParser) ValidateScenario(sc *domain.Scenario) error {
	if err := calculation.ValidateInputs(&sc.Inputs); err != nil {
		return err
	}

	if sc.Legacy != nil {
		if err := ip.validateLegacy(sc.Legacy); err != nil {
			return fmt.Errorf("legacy validation failed: %w", err)
		}
	}
	if sc.Guardrails != nil {
		f := sc.Guardrails.ReductionFraction
		if f.LessThan(decimal.Zero) || f.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return fmt.Errorf("guardrails reduction fraction must be between 0 and 1")
		}
	}
	if sc.RothOptimizer != nil {
		r := sc.RothOptimizer.TargetBracketRate
		if r.LessThanOrEqual(decimal.Zero) || r.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return fmt.Errorf("roth optimizer target bracket rate must be between 0 and 1")
		}
	}
	return nil
}

func (ip *InputParser) validateLegacy(l *domain.LegacyInputs) error {
	for _, age := range l.BeneficiaryAges {
		if age < 0 || age > 120 {
			return fmt.Errorf("beneficiary age %d out of range", age)
		}
	}
	if l.FertilityRate.LessThan(decimal.Zero) {
		return fmt.Errorf("fertility rate cannot be negative")
	}
	if l.FertilityRate.GreaterThan(decimal.NewFromInt(10)) {
		return fmt.Errorf("fertility rate %s is implausibly high", l.FertilityRate)
	}
	if l.GenerationYears < 0 {
		return fmt.Errorf("generation years cannot be negative")
	}
	if l.AnnualPerBeneficiary.LessThan(decimal.Zero) {
		return fmt.Errorf("annual per-beneficiary payout cannot be negative")
	}
	return nil
}

// CreateExampleScenario creates a complete example scenario suitable for
// writing out as a starter file.
func (ip *InputParser) CreateExampleScenario() *domain.Scenario {
	spouse := &domain.Person{
		CurrentAge:     38,
		AnnualIncome:   decimal.NewFromInt(85000),
		Employment:     domain.EmploymentW2,
		SSClaimAge:     67,
		SSMonthlyAtFRA: decimal.NewFromInt(2200),
	}
	return &domain.Scenario{
		Inputs: domain.SimulationInputs{
			Self: domain.Person{
				CurrentAge:     40,
				AnnualIncome:   decimal.NewFromInt(120000),
				Employment:     domain.EmploymentW2,
				SSClaimAge:     67,
				SSMonthlyAtFRA: decimal.NewFromInt(2800),
			},
			Spouse:        spouse,
			MaritalStatus: domain.Married,
			RetirementAge: 65,
			HorizonAge:    95,
			Accounts: domain.AccountBalances{
				Taxable:   decimal.NewFromInt(150000),
				PreTax:    decimal.NewFromInt(400000),
				Roth:      decimal.NewFromInt(80000),
				Emergency: decimal.NewFromInt(40000),
			},
			Contributions: domain.ContributionPlan{
				Self: domain.PersonContributions{
					PreTax:        decimal.NewFromInt(23000),
					Roth:          decimal.NewFromInt(7000),
					EmployerMatch: decimal.NewFromInt(6000),
				},
				Spouse: domain.PersonContributions{
					PreTax:        decimal.NewFromInt(18000),
					EmployerMatch: decimal.NewFromInt(4250),
				},
				EscalationRate: decimal.NewFromFloat(0.02),
			},
			Assumptions: domain.RateAssumptions{
				ExpectedReturn:   decimal.NewFromFloat(0.07),
				ReturnVolatility: decimal.NewFromFloat(0.15),
				Inflation:        decimal.NewFromFloat(0.025),
				StateTaxRate:     decimal.NewFromFloat(0.0307),
				WithdrawalRate:   decimal.NewFromFloat(0.04),
				IncomeGrowth:     decimal.NewFromFloat(0.03),
			},
			ReturnMode: domain.ReturnSeeded,
			Healthcare: domain.HealthcareAssumptions{
				MedicareEnabled:  true,
				LTCAnnualCost:    decimal.NewFromInt(110000),
				LTCProbability:   decimal.NewFromFloat(0.25),
				LTCOnsetMinAge:   80,
				LTCOnsetMaxAge:   90,
				LTCDurationYears: 3,
			},
			GlidePath: &domain.GlidePath{
				StartEquityPct: decimal.NewFromFloat(0.90),
				EndEquityPct:   decimal.NewFromFloat(0.50),
				StartAge:       50,
				EndAge:         70,
				Shape:          domain.GlideLinear,
			},
			Seed:     42,
			NumPaths: 1000,
		},
		Legacy: &domain.LegacyInputs{
			BeneficiaryAges:      []int{10, 8},
			FertilityRate:        decimal.NewFromFloat(1.8),
			GenerationYears:      28,
			FertilityMaxAge:      45,
			AnnualPerBeneficiary: decimal.NewFromInt(25000),
		},
		Guardrails: &domain.GuardrailsInputs{
			ReductionFraction: decimal.NewFromFloat(0.10),
		},
		RothOptimizer: &domain.RothOptimizerInputs{
			TargetBracketRate: decimal.NewFromFloat(0.22),
		},
	}
}
