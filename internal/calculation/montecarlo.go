package calculation

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/plansight/retirement-engine/internal/domain"
)

// pathSeedStride separates per-path seeds derived from the base seed.
const pathSeedStride = 0x9E3779B9

// DefaultNumPaths is used when the inputs leave the path count unset.
const DefaultNumPaths = 1000

// BatchOrchestrator runs N independent simulation paths and aggregates them
// into percentile outcomes.
type BatchOrchestrator struct {
	Engine  *SimulationEngine
	Workers int
	// ProgressFraction controls how coarse progress reporting is: the
	// callback fires roughly this many times per batch.
	ProgressFraction int
	Logger           Logger
}

// NewBatchOrchestrator creates an orchestrator around an engine.
func NewBatchOrchestrator(engine *SimulationEngine) *BatchOrchestrator {
	return &BatchOrchestrator{
		Engine:           engine,
		Workers:          8,
		ProgressFraction: 50,
		Logger:           NopLogger{},
	}
}

// RunBatch runs the configured number of paths, each with a distinct derived
// seed, honoring context cancellation. onProgress, when non-nil, receives
// coarse completed/total updates.
func (bo *BatchOrchestrator) RunBatch(ctx context.Context, inputs domain.SimulationInputs, onProgress func(completed, total int)) (*domain.BatchSummary, error) {
	if err := ValidateInputs(&inputs); err != nil {
		return nil, err
	}
	n := inputs.NumPaths
	if n <= 0 {
		n = DefaultNumPaths
	}
	baseSeed := inputs.Seed
	if inputs.ReturnMode == domain.ReturnRandom || baseSeed == 0 {
		baseSeed = seedFunc()
	}

	workers := bo.Workers
	if workers <= 0 {
		workers = 8
	}
	interval := n / max(1, bo.ProgressFraction)
	if interval == 0 {
		interval = 1
	}
	bo.Logger.Infof("running %d paths over %d workers, seed %d", n, workers, baseSeed)

	results := make([]*domain.PathResult, n)
	errs := make([]error, n)
	var completed atomic.Int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				errs[idx] = ctx.Err()
				return
			}
			res, err := bo.Engine.RunSingleSimulation(inputs, baseSeed+int64(idx)*pathSeedStride)
			if err != nil {
				bo.Logger.Errorf("path %d failed: %v", idx, err)
			}
			results[idx] = res
			errs[idx] = err
			done := completed.Add(1)
			if onProgress != nil && (int(done)%interval == 0 || int(done) == n) {
				onProgress(int(done), n)
			}
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	summary := bo.aggregate(results, baseSeed)
	bo.Logger.Infof("batch complete: ruin probability %s, median terminal %s", summary.ProbRuin, summary.TerminalP50)
	return summary, nil
}

func (bo *BatchOrchestrator) aggregate(results []*domain.PathResult, seed int64) *domain.BatchSummary {
	n := len(results)
	horizon := len(results[0].Years)

	summary := &domain.BatchSummary{
		Paths:   n,
		Seed:    seed,
		Horizon: horizon,
		Percentiles: domain.PercentileSeries{
			P10: make([]decimal.Decimal, horizon),
			P25: make([]decimal.Decimal, horizon),
			P50: make([]decimal.Decimal, horizon),
			P75: make([]decimal.Decimal, horizon),
			P90: make([]decimal.Decimal, horizon),
		},
		AllRuns: make([]decimal.Decimal, n),
	}

	// Percentile bands per time index: sort real balances across paths.
	column := make([]decimal.Decimal, n)
	for t := 0; t < horizon; t++ {
		for i, res := range results {
			column[i] = res.Years[t].BalanceReal
		}
		sortDecimals(column)
		summary.Percentiles.P10[t] = percentile(column, 10)
		summary.Percentiles.P25[t] = percentile(column, 25)
		summary.Percentiles.P50[t] = percentile(column, 50)
		summary.Percentiles.P75[t] = percentile(column, 75)
		summary.Percentiles.P90[t] = percentile(column, 90)
	}

	ruined := 0
	firstYearNets := make([]decimal.Decimal, n)
	terminals := make([]decimal.Decimal, n)
	for i, res := range results {
		if res.Ruined {
			ruined++
		}
		firstYearNets[i] = res.FirstYearNet
		terminals[i] = res.TerminalReal
		summary.AllRuns[i] = res.TerminalReal
	}
	sortDecimals(firstYearNets)
	sortDecimals(terminals)

	summary.FirstYearNetP25 = percentile(firstYearNets, 25)
	summary.FirstYearNetP50 = percentile(firstYearNets, 50)
	summary.TerminalP25 = percentile(terminals, 25)
	summary.TerminalP50 = percentile(terminals, 50)
	summary.TerminalP75 = percentile(terminals, 75)
	summary.ProbRuin = decimal.NewFromInt(int64(ruined)).Div(decimal.NewFromInt(int64(n)))
	return summary
}

func sortDecimals(values []decimal.Decimal) {
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })
}

// percentile reads a sorted slice at the nearest-rank index.
func percentile(sorted []decimal.Decimal, p int) decimal.Decimal {
	if len(sorted) == 0 {
		return decimal.Zero
	}
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
