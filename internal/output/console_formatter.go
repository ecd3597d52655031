package output

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/plansight/retirement-engine/internal/domain"
	"github.com/plansight/retirement-engine/pkg/money"
)

// ConsoleFormatter provides a concise console summary via the formatter
// interface.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(result *domain.CalculationResult) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "RETIREMENT OUTLOOK")
	fmt.Fprintln(&buf, "================================")
	fmt.Fprintf(&buf, "Paths simulated:    %d over %d years\n", result.Summary.PathsSimulated, result.Summary.YearsSimulated)
	fmt.Fprintf(&buf, "Median terminal:    %s (real)\n", result.Summary.MedianTerminal)
	fmt.Fprintf(&buf, "First-year spend:   %s (median net)\n", result.Summary.FirstYearSpend)
	fmt.Fprintf(&buf, "Chance of ruin:     %s\n", result.Summary.ProbRuin)

	if b := result.Batch; b != nil {
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "Terminal spread:    P25=%s  P50=%s  P75=%s\n",
			money.Format(b.TerminalP25), money.Format(b.TerminalP50), money.Format(b.TerminalP75))
	}

	fmt.Fprintln(&buf)
	fmt.Fprintln(&buf, "First retirement year taxes:")
	fmt.Fprintf(&buf, "  Ordinary=%s CapGains=%s NIIT=%s State=%s Total=%s\n",
		money.Format(result.Taxes.Ordinary), money.Format(result.Taxes.CapitalGains),
		money.Format(result.Taxes.NIIT), money.Format(result.Taxes.State), money.Format(result.Taxes.Total))

	if g := result.Guardrails; g != nil {
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "Guardrails (-%s spending): ruin %s -> %s, median spend %s -> %s\n",
			FormatPercentage(g.ReductionFraction.Mul(decimal.NewFromInt(100))),
			FormatPercentage(g.OriginalProbRuin.Mul(decimal.NewFromInt(100))),
			FormatPercentage(g.ReducedProbRuin.Mul(decimal.NewFromInt(100))),
			money.Format(g.OriginalSpendP50), money.Format(g.ReducedSpendP50))
	}

	if r := result.Roth; r != nil {
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "Roth conversions: %s/yr for %d years (total %s, %s bracket)\n",
			money.Format(r.RecommendedAnnual), r.ConversionYears,
			money.Format(r.TotalConverted),
			FormatPercentage(r.TargetBracketRate.Mul(decimal.NewFromInt(100))))
		fmt.Fprintf(&buf, "  First RMD %s -> %s, est. tax saved %s\n",
			money.Format(r.FirstRMDBefore), money.Format(r.FirstRMDAfter), money.Format(r.EstimatedTaxSaved))
	}

	if l := result.Legacy; l != nil {
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "Generational payout: %s/yr to %s beneficiaries across %d cohorts\n",
			money.Format(l.PerBeneficiary), l.BeneficiaryCount.StringFixed(1), len(l.Cohorts))
		for _, v := range []struct {
			label   string
			variant domain.PayoutVariant
		}{
			{"P10", l.P10}, {"P50", l.P50}, {"P90", l.P90},
		} {
			if v.variant.Perpetual {
				fmt.Fprintf(&buf, "  %s: estate %s sustains the payout indefinitely\n", v.label, money.Format(v.variant.NetEstate))
			} else {
				fmt.Fprintf(&buf, "  %s: estate %s lasts %d years\n", v.label, money.Format(v.variant.NetEstate), v.variant.DurationYears)
			}
		}
		fmt.Fprintf(&buf, "  Perpetuity odds: %s (needs estate >= %s)\n",
			FormatPercentage(l.ProbabilityPerpetuity.Mul(decimal.NewFromInt(100))),
			money.Format(l.MinEstateForPerpetuity))
	}

	return buf.Bytes(), nil
}

// FormatPercentage formats a decimal as a percentage with 2 decimals.
func FormatPercentage(amount decimal.Decimal) string { return amount.StringFixed(2) + "%" }
