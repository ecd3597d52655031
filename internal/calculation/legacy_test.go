package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plansight/retirement-engine/internal/domain"
)

func TestBackfill(t *testing.T) {
	two := decimal.NewFromInt(2)

	tests := []struct {
		name       string
		ages       []int
		fertility  decimal.Decimal
		genYears   int
		expectAge  int
		expectGen  int
		expectSize decimal.Decimal
	}{
		{
			name:       "Inside fertility window stays put",
			ages:       []int{10},
			fertility:  two,
			genYears:   25,
			expectAge:  10,
			expectGen:  0,
			expectSize: decimal.NewFromInt(1),
		},
		{
			name:       "One generation back",
			ages:       []int{70},
			fertility:  two,
			genYears:   25,
			expectAge:  45,
			expectGen:  1,
			expectSize: two,
		},
		{
			name:       "Generation cap bounds the loop",
			ages:       []int{300},
			fertility:  two,
			genYears:   25,
			expectAge:  100, // 300 - 8*25, still over the window when capped
			expectGen:  8,
			expectSize: decimal.NewFromInt(256), // 2^8
		},
		{
			name:       "Age clamps at zero",
			ages:       []int{50},
			fertility:  two,
			genYears:   60,
			expectAge:  0,
			expectGen:  1,
			expectSize: two,
		},
		{
			name:       "Non-positive generation length never backfills",
			ages:       []int{90},
			fertility:  two,
			genYears:   0,
			expectAge:  90,
			expectGen:  0,
			expectSize: decimal.NewFromInt(1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cohorts := Backfill(tt.ages, tt.fertility, tt.genYears, 45, maxBackfillGenerations)
			require.Len(t, cohorts, 1)
			c := cohorts[0]
			assert.Equal(t, tt.expectAge, c.Age)
			assert.Equal(t, tt.expectGen, c.Generation)
			assert.True(t, c.Size.Equal(tt.expectSize), "expected size %s, got %s", tt.expectSize, c.Size)
		})
	}
}

func TestBackfillZeroFertilityDropsCohort(t *testing.T) {
	cohorts := Backfill([]int{70}, decimal.Zero, 25, 45, maxBackfillGenerations)
	assert.Empty(t, cohorts, "a backfilled cohort with zero size carries no beneficiaries")
}

// linearSeries interpolates a balance series from start to end over the
// horizon.
func linearSeries(horizon int, start, end int64) []decimal.Decimal {
	s := make([]decimal.Decimal, horizon)
	step := decimal.NewFromInt(end - start).Div(decimal.NewFromInt(int64(horizon - 1)))
	for i := range s {
		s[i] = decimal.NewFromInt(start).Add(step.Mul(decimal.NewFromInt(int64(i))))
	}
	return s
}

// syntheticBatch fabricates a batch whose percentile series grow from start
// to end over the horizon, with AllRuns spread uniformly.
func syntheticBatch(n, horizon int, start, end int64) *domain.BatchSummary {
	series := func() []decimal.Decimal { return linearSeries(horizon, start, end) }
	summary := &domain.BatchSummary{
		Paths:   n,
		Horizon: horizon,
		Percentiles: domain.PercentileSeries{
			P10: series(), P25: series(), P50: series(), P75: series(), P90: series(),
		},
		AllRuns: make([]decimal.Decimal, n),
	}
	for i := range summary.AllRuns {
		summary.AllRuns[i] = decimal.NewFromInt(end).Mul(decimal.NewFromInt(int64(i + 1)))
	}
	return summary
}

func TestProjectDegenerateInputs(t *testing.T) {
	model := NewGenerationalWealthModel(NewTaxCalculator(domain.DefaultRules()))
	batch := syntheticBatch(50, 30, 1000000, 2000000)

	// Empty batch is a computation error, not a silent skip.
	_, err := model.Project(nil, domain.LegacyInputs{}, false)
	require.Error(t, err)
	var ce *ComputationError
	assert.ErrorAs(t, err, &ce)

	// No beneficiaries: nothing to project, no error.
	payout, err := model.Project(batch, domain.LegacyInputs{
		AnnualPerBeneficiary: decimal.NewFromInt(10000),
	}, false)
	require.NoError(t, err)
	assert.Nil(t, payout)

	// Zero payout likewise.
	payout, err = model.Project(batch, domain.LegacyInputs{
		BeneficiaryAges: []int{10},
	}, false)
	require.NoError(t, err)
	assert.Nil(t, payout)
}

func TestProjectPayoutShape(t *testing.T) {
	model := NewGenerationalWealthModel(NewTaxCalculator(domain.DefaultRules()))
	batch := syntheticBatch(100, 30, 1000000, 2000000)

	payout, err := model.Project(batch, domain.LegacyInputs{
		BeneficiaryAges:      []int{10, 70},
		FertilityRate:        decimal.NewFromInt(2),
		GenerationYears:      25,
		FertilityMaxAge:      45,
		AnnualPerBeneficiary: decimal.NewFromInt(10000),
	}, false)
	require.NoError(t, err)
	require.NotNil(t, payout)

	assert.True(t, payout.PerBeneficiary.Equal(decimal.NewFromInt(10000)))
	assert.True(t, payout.BeneficiaryCount.Equal(decimal.NewFromInt(3)), "10-year-old plus a backfilled pair, got %s", payout.BeneficiaryCount)
	assert.Len(t, payout.Cohorts, 2)

	// Estate percentiles must be ordered after tax.
	assert.True(t, payout.P10.NetEstate.LessThanOrEqual(payout.P50.NetEstate))
	assert.True(t, payout.P50.NetEstate.LessThanOrEqual(payout.P90.NetEstate))

	for _, v := range []domain.PayoutVariant{payout.P10, payout.P50, payout.P90} {
		if v.Perpetual {
			assert.True(t, v.RemainingFund.IsPositive())
		} else {
			assert.Greater(t, v.DurationYears, 0)
			assert.LessOrEqual(t, v.DurationYears, maxDepletionYears)
		}
	}

	assert.True(t, payout.ProbabilityPerpetuity.GreaterThanOrEqual(decimal.Zero))
	assert.True(t, payout.ProbabilityPerpetuity.LessThanOrEqual(decimal.NewFromInt(1)))
}

func TestProjectPerVariantPerpetuityProbability(t *testing.T) {
	model := NewGenerationalWealthModel(NewTaxCalculator(domain.DefaultRules()))

	// Declining low percentile, strong high percentile: each variant's
	// implied growth sets its own threshold, so the empirical perpetuity
	// probabilities differ across variants.
	batch := syntheticBatch(100, 30, 1000000, 2000000)
	batch.Percentiles.P10 = linearSeries(30, 1000000, 500000)
	batch.Percentiles.P90 = linearSeries(30, 1000000, 8000000)
	for i := range batch.AllRuns {
		batch.AllRuns[i] = decimal.NewFromInt(int64(i+1) * 10000)
	}

	payout, err := model.Project(batch, domain.LegacyInputs{
		BeneficiaryAges:      []int{30},
		FertilityRate:        decimal.NewFromInt(1),
		GenerationYears:      25,
		AnnualPerBeneficiary: decimal.NewFromInt(10000),
	}, false)
	require.NoError(t, err)
	require.NotNil(t, payout)

	// A shrinking estate has no sustainable draw at any size.
	assert.True(t, payout.P10.MinEstateForPerpetuity.IsZero())
	assert.True(t, payout.P10.ProbabilityPerpetuity.IsZero())

	// Faster growth lowers the threshold and raises the odds.
	assert.True(t, payout.P50.MinEstateForPerpetuity.IsPositive())
	assert.True(t, payout.P90.MinEstateForPerpetuity.LessThan(payout.P50.MinEstateForPerpetuity))
	assert.True(t, payout.P50.ProbabilityPerpetuity.IsPositive())
	assert.True(t, payout.P90.ProbabilityPerpetuity.GreaterThan(payout.P50.ProbabilityPerpetuity))

	// Headline numbers mirror the median variant.
	assert.True(t, payout.ProbabilityPerpetuity.Equal(payout.P50.ProbabilityPerpetuity))
	assert.True(t, payout.MinEstateForPerpetuity.Equal(payout.P50.MinEstateForPerpetuity))
}

func TestProjectPerpetualEstate(t *testing.T) {
	model := NewGenerationalWealthModel(NewTaxCalculator(domain.DefaultRules()))
	// Strong growth, stable population, a modest draw: every path sustains.
	batch := syntheticBatch(20, 30, 1000000, 4000000)
	for i := range batch.AllRuns {
		batch.AllRuns[i] = decimal.NewFromInt(10000000)
	}

	payout, err := model.Project(batch, domain.LegacyInputs{
		BeneficiaryAges:      []int{30},
		FertilityRate:        decimal.NewFromInt(1),
		GenerationYears:      25,
		AnnualPerBeneficiary: decimal.NewFromInt(10000),
	}, false)
	require.NoError(t, err)
	require.NotNil(t, payout)

	assert.True(t, payout.P50.Perpetual, "a 10M estate against a 10k draw should sustain")
	assert.True(t, payout.MinEstateForPerpetuity.IsPositive())
	assert.True(t, payout.ProbabilityPerpetuity.Equal(decimal.NewFromInt(1)))
}

func TestImpliedGrowthFloor(t *testing.T) {
	// A collapsing series floors at -99% instead of diverging.
	series := []decimal.Decimal{decimal.NewFromInt(1000000), decimal.NewFromFloat(0.0001)}
	g := impliedGrowth(series)
	assert.True(t, g.GreaterThanOrEqual(decimal.NewFromFloat(-0.99)))

	assert.True(t, impliedGrowth(nil).IsZero())
	assert.True(t, impliedGrowth(series[:1]).IsZero())
}
