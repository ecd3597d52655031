package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/plansight/retirement-engine/internal/calculation"
	"github.com/plansight/retirement-engine/internal/domain"
	"github.com/plansight/retirement-engine/pkg/money"
)

// RunScenario executes a full scenario: the Monte Carlo batch, one
// representative path for the year-by-year table, and whichever analyzers
// the scenario requests. Analyzers that do not apply are skipped, not
// errors.
func (d *Dispatcher) RunScenario(ctx context.Context, sc domain.Scenario, onProgress func(domain.ProgressEvent)) (*domain.CalculationResult, error) {
	batch, err := d.RunBatch(ctx, sc.Inputs, onProgress)
	if err != nil {
		return nil, err
	}

	// Representative trajectory, tied to the batch seed so a rerun with
	// the same scenario reproduces the same table.
	repInputs := sc.Inputs
	repInputs.Seed = batch.Seed
	if repInputs.ReturnMode == domain.ReturnRandom {
		repInputs.ReturnMode = domain.ReturnSeeded
	}
	rep, err := d.RunSingle(ctx, repInputs)
	if err != nil {
		return nil, err
	}

	result := &domain.CalculationResult{
		Years: rep.Years,
		Batch: batch,
		Taxes: rep.FirstYearTaxes,
		Summary: domain.ResultSummary{
			MedianTerminal: money.Format(batch.TerminalP50),
			ProbRuin:       batch.ProbRuin.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%",
			FirstYearSpend: money.Format(batch.FirstYearNetP50),
			YearsSimulated: batch.Horizon,
			PathsSimulated: batch.Paths,
		},
	}

	if sc.Legacy != nil {
		emitPhase(onProgress, "legacy", "projecting generational payout")
		payout, err := d.RunLegacy(ctx, batch, *sc.Legacy, sc.Inputs.IsMarried())
		if err != nil {
			return nil, fmt.Errorf("legacy projection: %w", err)
		}
		result.Legacy = payout
	}

	if sc.Guardrails != nil {
		emitPhase(onProgress, "guardrails", "re-running with reduced spending")
		gr, err := d.RunGuardrails(ctx, sc.Inputs, batch, *sc.Guardrails)
		switch {
		case errors.Is(err, calculation.ErrRuinNotPresent):
			// No failure probability to trade against; nothing to report.
		case err != nil:
			return nil, fmt.Errorf("guardrails analysis: %w", err)
		default:
			result.Guardrails = gr
		}
	}

	if sc.RothOptimizer != nil {
		emitPhase(onProgress, "roth-optimizer", "sizing pre-RMD conversions")
		params := d.rothParams(sc, rep)
		roth, err := d.RunRothOptimizer(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("roth optimizer: %w", err)
		}
		result.Roth = roth
	}

	return result, nil
}

// rothParams derives optimizer inputs from the scenario and the
// representative path's first retirement year.
func (d *Dispatcher) rothParams(sc domain.Scenario, rep *domain.PathResult) calculation.RothConversionParams {
	ss := calculation.NewSocialSecurityCalculator(d.rules)
	ssIncome := ss.AnnualBenefit(sc.Inputs.Self.SSMonthlyAtFRA, sc.Inputs.Self.SSClaimAge)
	if sc.Inputs.IsMarried() {
		ssIncome = ssIncome.Add(ss.AnnualBenefit(sc.Inputs.Spouse.SSMonthlyAtFRA, sc.Inputs.Spouse.SSClaimAge))
	}
	return calculation.RothConversionParams{
		RetirementAge:       sc.Inputs.RetirementAge,
		PreTaxBalance:       sc.Inputs.Accounts.PreTax,
		Married:             sc.Inputs.IsMarried(),
		ProjectedSSIncome:   ssIncome,
		FirstYearWithdrawal: rep.FirstYearGross,
		TargetBracketRate:   sc.RothOptimizer.TargetBracketRate,
		GrowthRate:          sc.Inputs.Assumptions.ExpectedReturn,
	}
}

func emitPhase(onProgress func(domain.ProgressEvent), phase, msg string) {
	if onProgress != nil {
		onProgress(domain.ProgressEvent{Phase: phase, Percent: 100, Message: msg})
	}
}
