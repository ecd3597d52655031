package calculation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/plansight/retirement-engine/internal/domain"
)

// defaultGuardrailReduction is the spending cut evaluated when the caller
// does not specify one.
var defaultGuardrailReduction = decimal.NewFromFloat(0.10)

// GuardrailsAnalyzer re-evaluates a batch under a reduced spending policy.
// Purely advisory; the original batch is never mutated.
type GuardrailsAnalyzer struct {
	Orchestrator *BatchOrchestrator
}

// NewGuardrailsAnalyzer creates an analyzer around an orchestrator.
func NewGuardrailsAnalyzer(orchestrator *BatchOrchestrator) *GuardrailsAnalyzer {
	return &GuardrailsAnalyzer{Orchestrator: orchestrator}
}

// Analyze re-runs the batch with the withdrawal rate cut by the reduction
// fraction, using the same seed so the comparison isolates the policy
// change. Returns ErrRuinNotPresent when the base batch has no ruin to
// mitigate.
func (ga *GuardrailsAnalyzer) Analyze(ctx context.Context, inputs domain.SimulationInputs, base *domain.BatchSummary, reduction decimal.Decimal) (*domain.GuardrailsResult, error) {
	if base == nil || !base.ProbRuin.IsPositive() {
		return nil, ErrRuinNotPresent
	}
	if reduction.LessThanOrEqual(decimal.Zero) || reduction.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		reduction = defaultGuardrailReduction
	}

	reduced := inputs
	reduced.Seed = base.Seed
	reduced.Assumptions.WithdrawalRate = inputs.Assumptions.WithdrawalRate.Mul(decimal.NewFromInt(1).Sub(reduction))

	summary, err := ga.Orchestrator.RunBatch(ctx, reduced, nil)
	if err != nil {
		return nil, err
	}

	return &domain.GuardrailsResult{
		ReductionFraction: reduction,
		OriginalProbRuin:  base.ProbRuin,
		ReducedProbRuin:   summary.ProbRuin,
		OriginalSpendP50:  base.FirstYearNetP50,
		ReducedSpendP50:   summary.FirstYearNetP50,
		TerminalP50:       summary.TerminalP50,
	}, nil
}
