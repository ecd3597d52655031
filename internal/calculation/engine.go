package calculation

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/plansight/retirement-engine/internal/domain"
	"github.com/plansight/retirement-engine/pkg/money"
)

// taxableGainsShare is the assumed embedded-gain fraction of taxable-account
// withdrawals (cost basis assumed at 50%).
var taxableGainsShare = decimal.NewFromFloat(0.5)

// grossSolveRounds bounds the fixed-point iteration that solves the gross
// withdrawal from the net spending target using the full tax model.
const grossSolveRounds = 6

// SimulationEngine runs one full accumulation plus decumulation path.
type SimulationEngine struct {
	Tax      *TaxCalculator
	Medicare *MedicareCalculator
	SS       *SocialSecurityCalculator
	RMD      *RMDCalculator
	Rules    domain.FederalRules
	Logger   Logger
}

// NewSimulationEngine creates an engine over the given rule set.
func NewSimulationEngine(rules domain.FederalRules) *SimulationEngine {
	return &SimulationEngine{
		Tax:      NewTaxCalculator(rules),
		Medicare: NewMedicareCalculator(rules.Medicare),
		SS:       NewSocialSecurityCalculator(rules),
		RMD:      NewRMDCalculator(rules),
		Rules:    rules,
		Logger:   NopLogger{},
	}
}

// SetLogger sets the engine logger. Nil restores the no-op logger.
func (se *SimulationEngine) SetLogger(l Logger) {
	if l == nil {
		se.Logger = NopLogger{}
		return
	}
	se.Logger = l
}

// ValidateInputs checks balances, rates, and ages before any simulation
// runs, returning a ValidationError naming the offending field.
func ValidateInputs(in *domain.SimulationInputs) error {
	checkAge := func(field string, age int) error {
		if age < 0 || age > 120 {
			return &ValidationError{Field: field, Reason: "age must be between 0 and 120"}
		}
		return nil
	}
	if err := checkAge("self.current_age", in.Self.CurrentAge); err != nil {
		return err
	}
	if in.MaritalStatus != domain.Single && in.MaritalStatus != domain.Married {
		return &ValidationError{Field: "marital_status", Reason: "must be single or married"}
	}
	if in.MaritalStatus == domain.Married && in.Spouse == nil {
		return &ValidationError{Field: "spouse", Reason: "required for married status"}
	}
	if in.Spouse != nil {
		if err := checkAge("spouse.current_age", in.Spouse.CurrentAge); err != nil {
			return err
		}
	}
	if in.RetirementAge < in.YoungerAge() {
		return &ValidationError{Field: "retirement_age", Reason: "must be at or after the younger member's current age"}
	}
	if in.HorizonAge <= in.RetirementAge || in.HorizonAge > 120 {
		return &ValidationError{Field: "horizon_age", Reason: "must be after retirement age and at most 120"}
	}

	balances := []struct {
		field string
		v     decimal.Decimal
	}{
		{"accounts.taxable", in.Accounts.Taxable},
		{"accounts.pre_tax", in.Accounts.PreTax},
		{"accounts.roth", in.Accounts.Roth},
		{"accounts.emergency", in.Accounts.Emergency},
	}
	for _, b := range balances {
		if b.v.IsNegative() {
			return &ValidationError{Field: b.field, Reason: "balance cannot be negative"}
		}
	}

	a := in.Assumptions
	if a.ExpectedReturn.LessThan(decimal.NewFromFloat(-0.5)) || a.ExpectedReturn.GreaterThan(decimal.NewFromFloat(0.5)) {
		return &ValidationError{Field: "assumptions.expected_return", Reason: "must be between -50% and 50%"}
	}
	if a.Inflation.LessThan(decimal.NewFromFloat(-0.10)) || a.Inflation.GreaterThan(decimal.NewFromFloat(0.20)) {
		return &ValidationError{Field: "assumptions.inflation", Reason: "must be between -10% and 20%"}
	}
	if a.WithdrawalRate.LessThanOrEqual(decimal.Zero) || a.WithdrawalRate.GreaterThan(decimal.NewFromFloat(0.25)) {
		return &ValidationError{Field: "assumptions.withdrawal_rate", Reason: "must be positive and at most 25%"}
	}
	if a.StateTaxRate.IsNegative() || a.StateTaxRate.GreaterThan(decimal.NewFromFloat(0.20)) {
		return &ValidationError{Field: "assumptions.state_tax_rate", Reason: "must be between 0% and 20%"}
	}
	if a.ReturnVolatility.IsNegative() || a.ReturnVolatility.GreaterThan(decimal.NewFromInt(1)) {
		return &ValidationError{Field: "assumptions.return_volatility", Reason: "must be between 0 and 1"}
	}

	switch in.ReturnMode {
	case domain.ReturnFixed, domain.ReturnHistorical, domain.ReturnSeeded, domain.ReturnRandom:
	default:
		return &ValidationError{Field: "return_mode", Reason: "unknown mode " + string(in.ReturnMode)}
	}

	if gp := in.GlidePath; gp != nil {
		one := decimal.NewFromInt(1)
		if gp.StartEquityPct.IsNegative() || gp.StartEquityPct.GreaterThan(one) ||
			gp.EndEquityPct.IsNegative() || gp.EndEquityPct.GreaterThan(one) {
			return &ValidationError{Field: "glide_path", Reason: "equity percentages must be between 0 and 1"}
		}
		if gp.EndAge < gp.StartAge {
			return &ValidationError{Field: "glide_path", Reason: "end age before start age"}
		}
	}

	hc := in.Healthcare
	if hc.LTCProbability.IsNegative() || hc.LTCProbability.GreaterThan(decimal.NewFromInt(1)) {
		return &ValidationError{Field: "healthcare.ltc_probability", Reason: "must be between 0 and 1"}
	}
	if hc.LTCOnsetMaxAge < hc.LTCOnsetMinAge {
		return &ValidationError{Field: "healthcare.ltc_onset_max_age", Reason: "before onset min age"}
	}
	return nil
}

// RunSingleSimulation runs one path with the given seed. Ruin is a valid
// outcome recorded on the result, never an error.
func (se *SimulationEngine) RunSingleSimulation(inputs domain.SimulationInputs, seed int64) (*domain.PathResult, error) {
	if err := ValidateInputs(&inputs); err != nil {
		return nil, err
	}
	// A zero seed draws fresh entropy; a caller-supplied seed is honored so
	// batch-derived per-path seeds stay distinct and reproducible.
	if seed == 0 {
		seed = seedFunc()
	}
	rng := rand.New(rand.NewSource(seed))
	gen, err := NewReturnGenerator(inputs.ReturnMode, inputs.Assumptions, rng)
	if err != nil {
		return nil, err
	}
	return se.runPath(&inputs, rng, gen), nil
}

// equityShareAt interpolates the glide path at an age. Without a glide path
// the portfolio is fully in the growth sleeve.
func equityShareAt(gp *domain.GlidePath, age int) decimal.Decimal {
	if gp == nil {
		return decimal.NewFromInt(1)
	}
	switch {
	case age <= gp.StartAge:
		return gp.StartEquityPct
	case age >= gp.EndAge:
		return gp.EndEquityPct
	}
	u := decimal.NewFromInt(int64(age - gp.StartAge)).Div(decimal.NewFromInt(int64(gp.EndAge - gp.StartAge)))
	if gp.Shape == domain.GlideSmooth {
		// smoothstep: u^2 * (3 - 2u)
		u = u.Mul(u).Mul(decimal.NewFromInt(3).Sub(u.Mul(decimal.NewFromInt(2))))
	}
	return gp.StartEquityPct.Add(gp.EndEquityPct.Sub(gp.StartEquityPct).Mul(u))
}

// pathState tracks mutable balances across the year loop.
type pathState struct {
	taxable   decimal.Decimal
	preTax    decimal.Decimal
	roth      decimal.Decimal
	emergency decimal.Decimal

	ltcActive    bool
	ltcTriggered bool
	ltcRemaining int

	priorYearIncome decimal.Decimal
}

func (ps *pathState) invested() decimal.Decimal {
	return ps.taxable.Add(ps.preTax).Add(ps.roth)
}

func (ps *pathState) total() decimal.Decimal {
	return ps.invested().Add(ps.emergency)
}

func (se *SimulationEngine) runPath(in *domain.SimulationInputs, rng *rand.Rand, gen ReturnGenerator) *domain.PathResult {
	youngerAge := in.YoungerAge()
	horizonYears := in.HorizonAge - youngerAge
	retirementIn := in.RetirementAge - youngerAge
	married := in.IsMarried()
	inflation := in.Assumptions.Inflation
	ltc := LTCModel{Config: in.Healthcare}

	st := pathState{
		taxable:   in.Accounts.Taxable,
		preTax:    in.Accounts.PreTax,
		roth:      in.Accounts.Roth,
		emergency: in.Accounts.Emergency,
	}
	st.priorYearIncome = se.householdIncome(in, 0)

	result := &domain.PathResult{
		Years:               make([]domain.YearRecord, 0, horizonYears),
		RetirementYearIndex: retirementIn,
	}
	var firstSpend decimal.Decimal

	for t := 0; t < horizonYears; t++ {
		ageSelf := in.Self.CurrentAge + t
		ageSpouse := 0
		if in.Spouse != nil {
			ageSpouse = in.Spouse.CurrentAge + t
		}
		olderAge := in.OlderAge() + t
		r := gen.Next(equityShareAt(in.GlidePath, ageSelf))

		rec := domain.YearRecord{
			Year:      t + 1,
			AgeSelf:   ageSelf,
			AgeSpouse: ageSpouse,
			Return:    r,
			Retired:   t >= retirementIn,
		}

		if result.Ruined {
			// Balance already clamped to zero; the remaining horizon is
			// recorded so batch aggregation sees equal-length series.
			result.Years = append(result.Years, rec)
			continue
		}

		if t < retirementIn {
			se.accumulate(in, &st, t, r)
			st.priorYearIncome = se.householdIncome(in, t)
		} else {
			k := t - retirementIn
			if k == 0 {
				firstSpend = st.invested().Mul(in.Assumptions.WithdrawalRate)
				se.Logger.Debugf("retirement begins at age %d: first-year spend target %s", ageSelf, firstSpend)
			}
			breakdown := se.decumulate(in, &st, &rec, ltc, rng, t, k, olderAge, married, firstSpend, r)
			if k == 0 {
				result.FirstYearGross = rec.GrossWithdrawal
				result.FirstYearNet = rec.NetWithdrawal
				result.FirstYearTaxes = breakdown
			}
			if rec.GrossWithdrawal.GreaterThan(decimal.Zero) && st.total().IsZero() {
				result.Ruined = true
				result.RuinAge = ageSelf
				se.Logger.Debugf("balances exhausted at age %d (year %d)", ageSelf, t+1)
			}
		}

		rec.BalanceNominal = st.total()
		rec.BalanceReal = money.Real(rec.BalanceNominal, inflation, t+1)
		result.Years = append(result.Years, rec)
	}

	result.TerminalNominal = st.total()
	result.TerminalReal = money.Real(result.TerminalNominal, inflation, horizonYears)
	return result
}

// householdIncome returns employment income in year t, grown by the income
// growth assumption, ignoring persons without employment.
func (se *SimulationEngine) householdIncome(in *domain.SimulationInputs, t int) decimal.Decimal {
	income := decimal.Zero
	if in.Self.Employment != domain.EmploymentNone {
		income = income.Add(in.Self.AnnualIncome)
	}
	if in.Spouse != nil && in.Spouse.Employment != domain.EmploymentNone {
		income = income.Add(in.Spouse.AnnualIncome)
	}
	return money.Compound(income, in.Assumptions.IncomeGrowth, t)
}

// accumulate applies one pre-retirement year: contributions routed per
// account type, then growth.
func (se *SimulationEngine) accumulate(in *domain.SimulationInputs, st *pathState, t int, r decimal.Decimal) {
	esc := money.Compound(decimal.NewFromInt(1), in.Contributions.EscalationRate, t)
	persons := []domain.PersonContributions{in.Contributions.Self}
	if in.Spouse != nil {
		persons = append(persons, in.Contributions.Spouse)
	}
	for _, p := range persons {
		st.taxable = st.taxable.Add(p.Taxable.Mul(esc))
		st.roth = st.roth.Add(p.Roth.Mul(esc))
		pre := p.PreTax
		if p.EmployerMatch.IsPositive() {
			pre = pre.Add(p.EmployerMatch)
		}
		st.preTax = st.preTax.Add(pre.Mul(esc))
	}
	st.taxable = money.Grow(st.taxable, r)
	st.preTax = money.Grow(st.preTax, r)
	st.roth = money.Grow(st.roth, r)
}

// withdrawalSplit is the composition of a gross withdrawal across accounts,
// ordered taxable, pre-tax, Roth, then emergency cash.
type withdrawalSplit struct {
	taxable   decimal.Decimal
	preTax    decimal.Decimal
	roth      decimal.Decimal
	emergency decimal.Decimal
}

func (st *pathState) split(gross decimal.Decimal) withdrawalSplit {
	var w withdrawalSplit
	rem := gross
	w.taxable = money.Min(st.taxable, rem)
	rem = rem.Sub(w.taxable)
	w.preTax = money.Min(st.preTax, rem)
	rem = rem.Sub(w.preTax)
	w.roth = money.Min(st.roth, rem)
	rem = rem.Sub(w.roth)
	w.emergency = money.Min(st.emergency, rem)
	return w
}

func (se *SimulationEngine) yearTaxes(w withdrawalSplit, ssTotal, stateRate decimal.Decimal, married bool) (domain.TaxBreakdown, decimal.Decimal) {
	gains := w.taxable.Mul(taxableGainsShare)
	otherIncome := w.preTax.Add(gains)
	taxableSS := se.SS.TaxableShare(ssTotal, otherIncome, married)
	ordinary := w.preTax.Add(taxableSS)

	ordinaryTax := se.Tax.OrdinaryTax(ordinary, married)
	ordTaxable := money.NonNegative(ordinary.Sub(se.Tax.StandardDeduction(married)))
	capTax := se.Tax.CapitalGainsTax(gains, ordTaxable, married)
	magi := ordinary.Add(gains)
	niit := se.Tax.NIIT(gains, magi, married)
	state := se.Tax.StateTax(ordinary.Add(gains), stateRate)

	bd := domain.TaxBreakdown{
		Ordinary:     ordinaryTax,
		CapitalGains: capTax,
		NIIT:         niit,
		State:        state,
		Total:        ordinaryTax.Add(capTax).Add(niit).Add(state),
	}
	return bd, ordTaxable
}

func (se *SimulationEngine) decumulate(in *domain.SimulationInputs, st *pathState, rec *domain.YearRecord,
	ltc LTCModel, rng *rand.Rand, t, k, olderAge int, married bool, firstSpend, r decimal.Decimal) domain.TaxBreakdown {

	inflation := in.Assumptions.Inflation
	spendTarget := money.Compound(firstSpend, inflation, k)

	// Social Security, claim-age adjusted, inflation-indexed.
	ssTotal := decimal.Zero
	persons := []*domain.Person{&in.Self}
	if in.Spouse != nil {
		persons = append(persons, in.Spouse)
	}
	for _, p := range persons {
		age := p.CurrentAge + t
		if p.SSClaimAge > 0 && age >= p.SSClaimAge {
			benefit := se.SS.AnnualBenefit(p.SSMonthlyAtFRA, p.SSClaimAge)
			ssTotal = ssTotal.Add(money.Compound(benefit, inflation, t))
		}
	}
	rec.SSBenefit = ssTotal

	// Medicare with IRMAA against the prior year's income.
	medicare := decimal.Zero
	if in.Healthcare.MedicareEnabled {
		for _, p := range persons {
			if se.Medicare.Eligible(p.CurrentAge + t) {
				medicare = medicare.Add(se.Medicare.AnnualPremium(st.priorYearIncome, married, t))
			}
		}
	}
	rec.MedicarePremium = medicare

	// Stochastic long-term care onset within the configured window.
	if !st.ltcTriggered && ltc.InWindow(in.Self.CurrentAge+t) && ltc.Triggered(rng.Float64()) {
		st.ltcTriggered = true
		st.ltcActive = true
		st.ltcRemaining = ltc.Config.LTCDurationYears
	}
	ltcCost := decimal.Zero
	if st.ltcActive && st.ltcRemaining > 0 {
		ltcCost = ltc.AnnualCost(inflation, t)
		st.ltcRemaining--
		if st.ltcRemaining == 0 {
			st.ltcActive = false
		}
	}
	rec.LTCCost = ltcCost

	netNeed := money.NonNegative(spendTarget.Sub(ssTotal)).Add(medicare).Add(ltcCost)

	// Solve gross from net via the full tax model.
	gross := netNeed
	var breakdown domain.TaxBreakdown
	var ordTaxable decimal.Decimal
	for i := 0; i < grossSolveRounds; i++ {
		w := st.split(gross)
		breakdown, ordTaxable = se.yearTaxes(w, ssTotal, in.Assumptions.StateTaxRate, married)
		gross = netNeed.Add(breakdown.Total)
	}
	available := st.total()
	if gross.GreaterThan(available) {
		gross = available
	}
	w := st.split(gross)
	breakdown, ordTaxable = se.yearTaxes(w, ssTotal, in.Assumptions.StateTaxRate, married)

	// Forced minimum distribution from the pre-tax balance entering the
	// year, keyed to the older household member's age.
	required := se.RMD.Required(st.preTax, olderAge)
	rec.RMD = required
	forced := decimal.Zero
	forcedTax := decimal.Zero
	if required.GreaterThan(w.preTax) {
		forced = money.Min(required.Sub(w.preTax), st.preTax.Sub(w.preTax))
		forcedTax = forced.Mul(se.Tax.MarginalRate(ordTaxable, married))
	}

	// Scheduled Roth conversions, taxed as ordinary income at the margin.
	conversion := decimal.Zero
	conversionTax := decimal.Zero
	if rp := in.RothPolicy; rp != nil {
		age := in.Self.CurrentAge + t
		remaining := st.preTax.Sub(w.preTax).Sub(forced)
		if age >= rp.StartAge && age <= rp.EndAge && remaining.IsPositive() {
			conversion = money.Min(rp.AnnualAmount, remaining)
			conversionTax = conversion.Mul(se.Tax.MarginalRate(ordTaxable.Add(forced), married))
		}
	}
	rec.RothConversion = conversion

	// Apply withdrawals.
	st.taxable = st.taxable.Sub(w.taxable)
	st.preTax = st.preTax.Sub(w.preTax).Sub(forced).Sub(conversion)
	st.roth = st.roth.Sub(w.roth).Add(conversion)
	st.emergency = st.emergency.Sub(w.emergency)

	// The forced distribution's after-tax remainder is reinvested in the
	// taxable account; conversion tax is paid from taxable (Roth last).
	st.taxable = st.taxable.Add(forced.Sub(forcedTax))
	if conversionTax.IsPositive() {
		fromTaxable := money.Min(st.taxable, conversionTax)
		st.taxable = st.taxable.Sub(fromTaxable)
		shortfall := conversionTax.Sub(fromTaxable)
		if shortfall.IsPositive() {
			st.roth = money.NonNegative(st.roth.Sub(shortfall))
		}
	}

	totalTax := breakdown.Total.Add(forcedTax).Add(conversionTax)
	gross = gross.Add(forced).Add(conversionTax)
	rec.GrossWithdrawal = gross
	rec.NetWithdrawal = gross.Sub(totalTax)
	rec.TotalTax = totalTax
	breakdown.Ordinary = breakdown.Ordinary.Add(forcedTax).Add(conversionTax)
	breakdown.Total = totalTax

	// Ruin clamps to zero; never an error.
	if st.taxable.IsNegative() {
		st.taxable = decimal.Zero
	}
	if st.preTax.IsNegative() {
		st.preTax = decimal.Zero
	}
	if st.roth.IsNegative() {
		st.roth = decimal.Zero
	}
	if st.emergency.IsNegative() {
		st.emergency = decimal.Zero
	}

	// Grow the remainder by the period's return.
	st.taxable = money.Grow(st.taxable, r)
	st.preTax = money.Grow(st.preTax, r)
	st.roth = money.Grow(st.roth, r)

	st.priorYearIncome = w.preTax.Add(forced).Add(conversion).Add(w.taxable.Mul(taxableGainsShare)).Add(ssTotal)
	return breakdown
}
