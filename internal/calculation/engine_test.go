package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plansight/retirement-engine/internal/domain"
)

// retireeInputs returns a household already at retirement age with fixed
// returns, so single-path behavior is fully deterministic.
func retireeInputs() domain.SimulationInputs {
	return domain.SimulationInputs{
		Self: domain.Person{
			CurrentAge: 65,
			Employment: domain.EmploymentNone,
		},
		MaritalStatus: domain.Single,
		RetirementAge: 65,
		HorizonAge:    95,
		Accounts: domain.AccountBalances{
			Taxable: decimal.NewFromInt(300000),
			PreTax:  decimal.NewFromInt(500000),
			Roth:    decimal.NewFromInt(100000),
		},
		Assumptions: domain.RateAssumptions{
			ExpectedReturn: decimal.NewFromFloat(0.05),
			Inflation:      decimal.NewFromFloat(0.025),
			WithdrawalRate: decimal.NewFromFloat(0.04),
		},
		ReturnMode: domain.ReturnFixed,
	}
}

func TestValidateInputsFieldNames(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.SimulationInputs)
		field  string
	}{
		{
			name:   "Age out of range",
			mutate: func(in *domain.SimulationInputs) { in.Self.CurrentAge = 130 },
			field:  "self.current_age",
		},
		{
			name:   "Married without spouse",
			mutate: func(in *domain.SimulationInputs) { in.MaritalStatus = domain.Married },
			field:  "spouse",
		},
		{
			name:   "Unknown marital status",
			mutate: func(in *domain.SimulationInputs) { in.MaritalStatus = "divorced" },
			field:  "marital_status",
		},
		{
			name:   "Retirement before current age",
			mutate: func(in *domain.SimulationInputs) { in.RetirementAge = 40 },
			field:  "retirement_age",
		},
		{
			name:   "Horizon before retirement",
			mutate: func(in *domain.SimulationInputs) { in.HorizonAge = 60 },
			field:  "horizon_age",
		},
		{
			name:   "Negative balance",
			mutate: func(in *domain.SimulationInputs) { in.Accounts.Roth = decimal.NewFromInt(-1) },
			field:  "accounts.roth",
		},
		{
			name:   "Implausible expected return",
			mutate: func(in *domain.SimulationInputs) { in.Assumptions.ExpectedReturn = decimal.NewFromInt(1) },
			field:  "assumptions.expected_return",
		},
		{
			name:   "Zero withdrawal rate",
			mutate: func(in *domain.SimulationInputs) { in.Assumptions.WithdrawalRate = decimal.Zero },
			field:  "assumptions.withdrawal_rate",
		},
		{
			name:   "Excessive state tax",
			mutate: func(in *domain.SimulationInputs) { in.Assumptions.StateTaxRate = decimal.NewFromFloat(0.5) },
			field:  "assumptions.state_tax_rate",
		},
		{
			name:   "Unknown return mode",
			mutate: func(in *domain.SimulationInputs) { in.ReturnMode = "bootstrap" },
			field:  "return_mode",
		},
		{
			name: "Glide path equity out of range",
			mutate: func(in *domain.SimulationInputs) {
				in.GlidePath = &domain.GlidePath{StartEquityPct: decimal.NewFromInt(2), StartAge: 50, EndAge: 70}
			},
			field: "glide_path",
		},
		{
			name: "LTC probability above one",
			mutate: func(in *domain.SimulationInputs) {
				in.Healthcare.LTCProbability = decimal.NewFromFloat(1.5)
			},
			field: "healthcare.ltc_probability",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := retireeInputs()
			tt.mutate(&in)
			err := ValidateInputs(&in)
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestValidateInputsAccepts(t *testing.T) {
	in := retireeInputs()
	assert.NoError(t, ValidateInputs(&in))
}

func TestRunSingleSimulationTaxConservation(t *testing.T) {
	engine := NewSimulationEngine(domain.DefaultRules())
	in := retireeInputs()

	res, err := engine.RunSingleSimulation(in, 1)
	require.NoError(t, err)
	require.Len(t, res.Years, 30)

	for _, rec := range res.Years {
		if !rec.Retired || rec.GrossWithdrawal.IsZero() {
			continue
		}
		// Net plus tax must recompose the gross withdrawal exactly.
		recomposed := rec.NetWithdrawal.Add(rec.TotalTax)
		assert.True(t, recomposed.Equal(rec.GrossWithdrawal),
			"year %d: net %s + tax %s != gross %s", rec.Year, rec.NetWithdrawal, rec.TotalTax, rec.GrossWithdrawal)
	}

	assert.True(t, res.FirstYearNet.Equal(res.FirstYearGross.Sub(res.FirstYearTaxes.Total)))
	assert.Equal(t, 0, res.RetirementYearIndex)
}

func TestRunSingleSimulationRMDTiming(t *testing.T) {
	engine := NewSimulationEngine(domain.DefaultRules())
	in := retireeInputs()

	res, err := engine.RunSingleSimulation(in, 1)
	require.NoError(t, err)

	sawRMD := false
	for _, rec := range res.Years {
		if rec.AgeSelf < 73 {
			assert.True(t, rec.RMD.IsZero(), "no RMD at age %d", rec.AgeSelf)
		} else if rec.RMD.IsPositive() {
			sawRMD = true
		}
	}
	assert.True(t, sawRMD, "expected a forced distribution once past the start age")
}

func TestRunSingleSimulationHonorsSeedInRandomMode(t *testing.T) {
	engine := NewSimulationEngine(domain.DefaultRules())
	in := retireeInputs()
	in.ReturnMode = domain.ReturnRandom
	in.Assumptions.ReturnVolatility = decimal.NewFromFloat(0.15)

	first, err := engine.RunSingleSimulation(in, 99)
	require.NoError(t, err)
	second, err := engine.RunSingleSimulation(in, 99)
	require.NoError(t, err)
	assert.True(t, first.TerminalReal.Equal(second.TerminalReal), "an explicit seed must be honored")

	third, err := engine.RunSingleSimulation(in, 100)
	require.NoError(t, err)
	assert.False(t, first.TerminalReal.Equal(third.TerminalReal), "distinct seeds must walk distinct paths")
}

func TestRunSingleSimulationRuin(t *testing.T) {
	engine := NewSimulationEngine(domain.DefaultRules())
	in := retireeInputs()
	in.Accounts = domain.AccountBalances{Taxable: decimal.NewFromInt(100000)}
	in.Assumptions.ExpectedReturn = decimal.Zero
	in.Assumptions.Inflation = decimal.Zero
	in.Assumptions.WithdrawalRate = decimal.NewFromFloat(0.25)
	// Full equity so the bond sleeve's default yield does not prop the
	// portfolio up.
	in.GlidePath = &domain.GlidePath{
		StartEquityPct: decimal.NewFromInt(1),
		EndEquityPct:   decimal.NewFromInt(1),
		StartAge:       60,
		EndAge:         61,
	}

	logger := &recordingLogger{}
	engine.SetLogger(logger)

	res, err := engine.RunSingleSimulation(in, 1)
	require.NoError(t, err)

	assert.True(t, res.Ruined, "25%% draw from a flat portfolio must deplete")
	require.NotEmpty(t, logger.debugs)
	assert.Contains(t, logger.debugs[len(logger.debugs)-1], "exhausted")
	assert.GreaterOrEqual(t, res.RuinAge, 65)
	assert.True(t, res.TerminalNominal.IsZero())
	// The remaining horizon is still recorded, at zero balance.
	assert.Len(t, res.Years, 30)
	last := res.Years[len(res.Years)-1]
	assert.True(t, last.BalanceNominal.IsZero())
}

func TestAccumulationRoutesContributions(t *testing.T) {
	engine := NewSimulationEngine(domain.DefaultRules())
	in := domain.SimulationInputs{
		Self: domain.Person{
			CurrentAge:   30,
			AnnualIncome: decimal.NewFromInt(90000),
			Employment:   domain.EmploymentW2,
		},
		MaritalStatus: domain.Single,
		RetirementAge: 65,
		HorizonAge:    70,
		Accounts: domain.AccountBalances{
			Taxable:   decimal.NewFromInt(1000),
			PreTax:    decimal.NewFromInt(2000),
			Roth:      decimal.NewFromInt(3000),
			Emergency: decimal.NewFromInt(500),
		},
		Contributions: domain.ContributionPlan{
			Self: domain.PersonContributions{
				Taxable:       decimal.NewFromInt(100),
				PreTax:        decimal.NewFromInt(200),
				Roth:          decimal.NewFromInt(300),
				EmployerMatch: decimal.NewFromInt(50),
			},
		},
		Assumptions: domain.RateAssumptions{
			ExpectedReturn: decimal.Zero,
			WithdrawalRate: decimal.NewFromFloat(0.04),
		},
		ReturnMode: domain.ReturnFixed,
		GlidePath: &domain.GlidePath{
			StartEquityPct: decimal.NewFromInt(1),
			EndEquityPct:   decimal.NewFromInt(1),
			StartAge:       20,
			EndAge:         21,
		},
	}

	res, err := engine.RunSingleSimulation(in, 1)
	require.NoError(t, err)

	// Zero growth: year one is just balances plus contributions.
	expected := decimal.NewFromInt(1000 + 2000 + 3000 + 500 + 100 + 200 + 300 + 50)
	got := res.Years[0].BalanceNominal
	assert.True(t, got.Equal(expected), "expected %s, got %s", expected, got)
	assert.False(t, res.Years[0].Retired)
}

func TestEquityShareGlide(t *testing.T) {
	gp := &domain.GlidePath{
		StartEquityPct: decimal.NewFromFloat(0.9),
		EndEquityPct:   decimal.NewFromFloat(0.5),
		StartAge:       50,
		EndAge:         70,
		Shape:          domain.GlideLinear,
	}

	assert.True(t, equityShareAt(nil, 55).Equal(decimal.NewFromInt(1)), "no glide path means full growth sleeve")
	assert.True(t, equityShareAt(gp, 40).Equal(gp.StartEquityPct))
	assert.True(t, equityShareAt(gp, 80).Equal(gp.EndEquityPct))

	mid := equityShareAt(gp, 60)
	assert.True(t, mid.Equal(decimal.NewFromFloat(0.7)), "linear midpoint, got %s", mid)

	quarter := equityShareAt(gp, 55)
	assert.True(t, quarter.Equal(decimal.NewFromFloat(0.8)), "linear quarter point, got %s", quarter)

	gp.Shape = domain.GlideSmooth
	smoothMid := equityShareAt(gp, 60)
	assert.True(t, smoothMid.Equal(decimal.NewFromFloat(0.7)), "smoothstep is symmetric at the midpoint")
	smoothQuarter := equityShareAt(gp, 55)
	// smoothstep(0.25) = 0.15625 -> 0.9 - 0.4*0.15625
	assert.True(t, smoothQuarter.Equal(decimal.NewFromFloat(0.8375)), "got %s", smoothQuarter)
}

func TestRothPolicyConversions(t *testing.T) {
	engine := NewSimulationEngine(domain.DefaultRules())
	in := retireeInputs()
	in.RothPolicy = &domain.RothConversionPolicy{
		AnnualAmount: decimal.NewFromInt(30000),
		StartAge:     65,
		EndAge:       72,
	}

	res, err := engine.RunSingleSimulation(in, 1)
	require.NoError(t, err)

	converted := decimal.Zero
	for _, rec := range res.Years {
		if rec.AgeSelf > 72 {
			assert.True(t, rec.RothConversion.IsZero(), "conversions must stop after the policy window")
		}
		converted = converted.Add(rec.RothConversion)
	}
	assert.True(t, converted.IsPositive(), "policy years should convert")
}
