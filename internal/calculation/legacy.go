package calculation

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/plansight/retirement-engine/internal/domain"
	"github.com/plansight/retirement-engine/pkg/money"
)

const (
	// maxBackfillGenerations bounds cohort synthesis regardless of input.
	maxBackfillGenerations = 8
	// maxDepletionYears bounds the depletion simulation; a fund alive past
	// this horizon is treated as perpetual.
	maxDepletionYears = 200
	// defaultFertilityMaxAge is the fertility window's upper bound when the
	// inputs leave it unset.
	defaultFertilityMaxAge = 45
)

// perpetuitySafetyMargin pads the analytic minimum-estate threshold.
var perpetuitySafetyMargin = decimal.NewFromFloat(1.1)

// GenerationalWealthModel projects multi-generation per-beneficiary payouts
// from a terminal estate.
type GenerationalWealthModel struct {
	Tax    *TaxCalculator
	Logger Logger
}

// NewGenerationalWealthModel creates the model over a tax calculator, which
// supplies the estate tax applied before distribution.
func NewGenerationalWealthModel(tax *TaxCalculator) *GenerationalWealthModel {
	return &GenerationalWealthModel{Tax: tax, Logger: NopLogger{}}
}

// Project computes the generational payout for a batch. Degenerate inputs
// (no beneficiaries, non-positive distribution) resolve to a nil result
// rather than an error.
func (g *GenerationalWealthModel) Project(batch *domain.BatchSummary, cfg domain.LegacyInputs, married bool) (*domain.GenerationalPayout, error) {
	if batch == nil || len(batch.AllRuns) == 0 {
		return nil, &ComputationError{Op: "legacy", Err: errEmptyBatch}
	}
	if len(cfg.BeneficiaryAges) == 0 || cfg.AnnualPerBeneficiary.LessThanOrEqual(decimal.Zero) {
		g.Logger.Infof("generational payout skipped: no beneficiaries or non-positive draw")
		return nil, nil
	}
	fertilityMax := cfg.FertilityMaxAge
	if fertilityMax <= 0 {
		fertilityMax = defaultFertilityMaxAge
	}

	cohorts := Backfill(cfg.BeneficiaryAges, cfg.FertilityRate, cfg.GenerationYears, fertilityMax, maxBackfillGenerations)
	count := decimal.Zero
	for _, c := range cohorts {
		count = count.Add(c.Size)
	}
	if count.LessThanOrEqual(decimal.Zero) {
		g.Logger.Infof("generational payout skipped: backfill produced no cohorts")
		return nil, nil
	}
	totalDraw := cfg.AnnualPerBeneficiary.Mul(count)
	popGrowth := populationGrowthRate(cfg.FertilityRate, cfg.GenerationYears)
	g.Logger.Debugf("projecting %s beneficiaries across %d cohorts, total draw %s", count, len(cohorts), totalDraw)

	// Estate percentiles from every raw batch outcome, net of estate tax.
	runs := append([]decimal.Decimal(nil), batch.AllRuns...)
	sortDecimals(runs)
	gross10 := percentile(runs, 10)
	gross50 := percentile(runs, 50)
	gross90 := percentile(runs, 90)

	payout := &domain.GenerationalPayout{
		PerBeneficiary:   cfg.AnnualPerBeneficiary,
		BeneficiaryCount: count,
		Cohorts:          cohorts,
		P10:              g.variant(gross10, batch.Percentiles.P10, batch.AllRuns, totalDraw, popGrowth, married),
		P50:              g.variant(gross50, batch.Percentiles.P50, batch.AllRuns, totalDraw, popGrowth, married),
		P90:              g.variant(gross90, batch.Percentiles.P90, batch.AllRuns, totalDraw, popGrowth, married),
	}

	// Headline numbers follow the median variant.
	payout.MinEstateForPerpetuity = payout.P50.MinEstateForPerpetuity
	payout.ProbabilityPerpetuity = payout.P50.ProbabilityPerpetuity

	return payout, nil
}

var errEmptyBatch = &ValidationError{Field: "batch", Reason: "no runs to analyze"}

// variant resolves one percentile's outcome. The perpetuity probability is
// empirical: each variant's implied growth fixes an analytic minimum-estate
// threshold, and the probability counts the batch paths whose after-tax
// estate clears it.
func (g *GenerationalWealthModel) variant(grossEstate decimal.Decimal, series, allRuns []decimal.Decimal, totalDraw, popGrowth decimal.Decimal, married bool) domain.PayoutVariant {
	net := g.Tax.NetEstate(grossEstate, married)
	growth := impliedGrowth(series)
	v := domain.PayoutVariant{NetEstate: net, ImpliedGrowth: growth}

	sustainable := growth.Sub(popGrowth)
	if sustainable.IsPositive() {
		minEstate := totalDraw.Div(sustainable).Mul(perpetuitySafetyMargin)
		v.MinEstateForPerpetuity = minEstate
		perpetual := 0
		for _, run := range allRuns {
			if g.Tax.NetEstate(run, married).GreaterThanOrEqual(minEstate) {
				perpetual++
			}
		}
		v.ProbabilityPerpetuity = decimal.NewFromInt(int64(perpetual)).Div(decimal.NewFromInt(int64(len(allRuns))))
		if net.GreaterThanOrEqual(minEstate) {
			v.Perpetual = true
			v.RemainingFund = net
			return v
		}
	}

	fund := net
	draw := totalDraw
	years := 0
	for fund.IsPositive() && years < maxDepletionYears {
		fund = money.Grow(fund, growth).Sub(draw)
		draw = money.Grow(draw, popGrowth)
		years++
	}
	if fund.IsPositive() {
		v.Perpetual = true
		v.RemainingFund = fund
	} else {
		v.DurationYears = years
	}
	return v
}

// Backfill synthesizes descendant cohorts for beneficiaries older than the
// fertility window. Each step subtracts the generation length from the age
// and multiplies the cohort size by the fertility rate, until the age falls
// inside the window or the generation cap is reached. A non-positive
// generation length is a guarded no-backfill case.
func Backfill(ages []int, fertilityRate decimal.Decimal, generationYears, fertilityMaxAge, maxGenerations int) []domain.Cohort {
	cohorts := make([]domain.Cohort, 0, len(ages))
	for _, age := range ages {
		c := domain.Cohort{Age: age, Size: decimal.NewFromInt(1)}
		if generationYears > 0 {
			for c.Age > fertilityMaxAge && c.Generation < maxGenerations {
				c.Age -= generationYears
				if c.Age < 0 {
					c.Age = 0
				}
				c.Size = c.Size.Mul(fertilityRate)
				c.Generation++
			}
		}
		if c.Size.IsPositive() {
			cohorts = append(cohorts, c)
		}
	}
	return cohorts
}

// populationGrowthRate annualizes the fertility rate over one generation.
func populationGrowthRate(fertilityRate decimal.Decimal, generationYears int) decimal.Decimal {
	if generationYears <= 0 || fertilityRate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	g := math.Pow(fertilityRate.InexactFloat64(), 1.0/float64(generationYears)) - 1
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(g)
}

// impliedGrowth back-solves the annual real growth rate from a percentile
// balance series, floored at -99% per year.
func impliedGrowth(series []decimal.Decimal) decimal.Decimal {
	if len(series) < 2 {
		return decimal.Zero
	}
	g := money.AnnualizedGrowth(series[0], series[len(series)-1], len(series)-1)
	floor := decimal.NewFromFloat(-0.99)
	if g.LessThan(floor) {
		return floor
	}
	return g
}
