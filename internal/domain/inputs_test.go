package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestContributionPlanTotal(t *testing.T) {
	plan := ContributionPlan{
		Self: PersonContributions{
			Taxable:       decimal.NewFromInt(100),
			PreTax:        decimal.NewFromInt(200),
			Roth:          decimal.NewFromInt(300),
			EmployerMatch: decimal.NewFromInt(50),
		},
		Spouse: PersonContributions{
			PreTax:        decimal.NewFromInt(400),
			EmployerMatch: decimal.NewFromInt(-25), // negative match is ignored
		},
	}
	assert.True(t, plan.Total().Equal(decimal.NewFromInt(1050)))
}

func TestHouseholdAges(t *testing.T) {
	in := SimulationInputs{
		Self:          Person{CurrentAge: 45},
		Spouse:        &Person{CurrentAge: 41},
		MaritalStatus: Married,
	}
	assert.Equal(t, 41, in.YoungerAge())
	assert.Equal(t, 45, in.OlderAge())
	assert.True(t, in.IsMarried())

	single := SimulationInputs{Self: Person{CurrentAge: 45}, MaritalStatus: Single}
	assert.Equal(t, 45, single.YoungerAge())
	assert.Equal(t, 45, single.OlderAge())
	assert.False(t, single.IsMarried())

	// Married status without a spouse record does not count as married.
	inconsistent := SimulationInputs{Self: Person{CurrentAge: 45}, MaritalStatus: Married}
	assert.False(t, inconsistent.IsMarried())
}

func TestEffectiveRules(t *testing.T) {
	sc := Scenario{}
	assert.Equal(t, 2025, sc.EffectiveRules().Year)

	override := DefaultRules()
	override.Year = 2030
	sc.Rules = &override
	assert.Equal(t, 2030, sc.EffectiveRules().Year)
}

func TestDefaultRulesShape(t *testing.T) {
	rules := DefaultRules()

	// Brackets must tile: each bracket starts where the previous ended.
	for _, brackets := range [][]TaxBracket{
		rules.OrdinaryBracketsSingle,
		rules.OrdinaryBracketsMarried,
		rules.CapGainsBracketsSingle,
		rules.CapGainsBracketsMarried,
		rules.EstateBrackets,
	} {
		for i := 1; i < len(brackets); i++ {
			assert.True(t, brackets[i].Min.Equal(brackets[i-1].Max),
				"bracket %d does not tile", i)
		}
	}

	assert.Equal(t, 73, rules.RMDStartAge)
	assert.Contains(t, rules.RMDDivisors, 73)
	assert.Equal(t, 67, rules.SSFullRetirementAge)
	assert.Len(t, rules.Medicare.IRMAATiers, 5)

	assert.True(t, rules.SSProvisionalTier1Single.Equal(decimal.NewFromInt(25000)))
	assert.True(t, rules.SSProvisionalTier2Single.Equal(decimal.NewFromInt(34000)))
	assert.True(t, rules.SSProvisionalTier1Joint.Equal(decimal.NewFromInt(32000)))
	assert.True(t, rules.SSProvisionalTier2Joint.Equal(decimal.NewFromInt(44000)))
}
