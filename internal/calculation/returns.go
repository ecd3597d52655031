package calculation

import (
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plansight/retirement-engine/internal/domain"
)

// seedFunc supplies entropy for unseeded runs; a variable so tests can pin it.
var seedFunc = func() int64 { return time.Now().UnixNano() }

// Default bond assumptions used when a glide path blends in a defensive
// sleeve. Derived from long-run aggregate bond index behavior.
var (
	defaultBondMean   = 0.045
	defaultBondStdDev = 0.055
)

// ReturnGenerator produces one nominal growth rate per simulated year, given
// the portfolio's equity share for that year.
type ReturnGenerator interface {
	Next(equityShare decimal.Decimal) decimal.Decimal
}

// NewReturnGenerator builds the generator for the configured mode. The rng
// is owned by the calling path; fixed mode ignores it.
func NewReturnGenerator(mode domain.ReturnMode, a domain.RateAssumptions, rng *rand.Rand) (ReturnGenerator, error) {
	switch mode {
	case domain.ReturnFixed:
		return &fixedReturns{equity: a.ExpectedReturn, bond: decimal.NewFromFloat(defaultBondMean)}, nil
	case domain.ReturnHistorical:
		return &historicalReturns{rng: rng}, nil
	case domain.ReturnSeeded, domain.ReturnRandom:
		vol := a.ReturnVolatility
		if vol.LessThanOrEqual(decimal.Zero) {
			vol = decimal.NewFromFloat(0.15)
		}
		return &normalReturns{
			rng:        rng,
			equityMean: a.ExpectedReturn.InexactFloat64(),
			equitySD:   vol.InexactFloat64(),
			bondMean:   defaultBondMean,
			bondSD:     defaultBondStdDev,
		}, nil
	default:
		return nil, &ValidationError{Field: "return_mode", Reason: "unknown mode " + string(mode)}
	}
}

func blend(equity, bond, equityShare decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if equityShare.GreaterThan(one) {
		equityShare = one
	}
	if equityShare.IsNegative() {
		equityShare = decimal.Zero
	}
	return equity.Mul(equityShare).Add(bond.Mul(one.Sub(equityShare)))
}

type fixedReturns struct {
	equity decimal.Decimal
	bond   decimal.Decimal
}

func (f *fixedReturns) Next(equityShare decimal.Decimal) decimal.Decimal {
	return blend(f.equity, f.bond, equityShare)
}

type normalReturns struct {
	rng        *rand.Rand
	equityMean float64
	equitySD   float64
	bondMean   float64
	bondSD     float64
}

func (n *normalReturns) Next(equityShare decimal.Decimal) decimal.Decimal {
	z := boxMuller(n.rng)
	equity := decimal.NewFromFloat(n.equityMean + z*n.equitySD)
	// Bond sleeve draws its own shock, damped correlation with equities.
	zb := 0.3*z + 0.7*boxMuller(n.rng)
	bond := decimal.NewFromFloat(n.bondMean + zb*n.bondSD)
	return blend(equity, bond, equityShare)
}

// boxMuller converts two uniform draws to a standard normal variate.
func boxMuller(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	if u1 < 1e-12 {
		u1 = 1e-12
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// historicalYear is one calendar year's equity and bond total returns.
type historicalYear struct {
	Year   int
	Equity float64
	Bond   float64
}

type historicalReturns struct {
	rng *rand.Rand
}

func (h *historicalReturns) Next(equityShare decimal.Decimal) decimal.Decimal {
	y := historicalTable[h.rng.Intn(len(historicalTable))]
	return blend(decimal.NewFromFloat(y.Equity), decimal.NewFromFloat(y.Bond), equityShare)
}

// historicalTable embeds annual US large-cap equity and intermediate bond
// total returns, 1970-2024. The rule set is closed; no external data files
// are read at run time.
var historicalTable = []historicalYear{
	{1970, 0.040, 0.121},
	{1971, 0.143, 0.098},
	{1972, 0.190, 0.028},
	{1973, -0.147, 0.037},
	{1974, -0.265, 0.020},
	{1975, 0.372, 0.036},
	{1976, 0.238, 0.160},
	{1977, -0.072, 0.013},
	{1978, 0.066, -0.001},
	{1979, 0.184, 0.007},
	{1980, 0.324, -0.030},
	{1981, -0.049, 0.082},
	{1982, 0.214, 0.328},
	{1983, 0.225, 0.032},
	{1984, 0.063, 0.137},
	{1985, 0.322, 0.257},
	{1986, 0.185, 0.242},
	{1987, 0.058, -0.027},
	{1988, 0.168, 0.081},
	{1989, 0.315, 0.178},
	{1990, -0.031, 0.062},
	{1991, 0.305, 0.150},
	{1992, 0.076, 0.094},
	{1993, 0.101, 0.142},
	{1994, 0.013, -0.080},
	{1995, 0.376, 0.235},
	{1996, 0.230, 0.014},
	{1997, 0.334, 0.099},
	{1998, 0.286, 0.149},
	{1999, 0.210, -0.082},
	{2000, -0.091, 0.166},
	{2001, -0.119, 0.055},
	{2002, -0.221, 0.152},
	{2003, 0.287, 0.004},
	{2004, 0.109, 0.044},
	{2005, 0.049, 0.028},
	{2006, 0.158, 0.019},
	{2007, 0.055, 0.102},
	{2008, -0.370, 0.201},
	{2009, 0.265, -0.111},
	{2010, 0.151, 0.084},
	{2011, 0.021, 0.160},
	{2012, 0.160, 0.029},
	{2013, 0.324, -0.091},
	{2014, 0.137, 0.107},
	{2015, 0.014, 0.013},
	{2016, 0.120, 0.007},
	{2017, 0.218, 0.028},
	{2018, -0.044, 0.000},
	{2019, 0.315, 0.097},
	{2020, 0.184, 0.111},
	{2021, 0.287, -0.045},
	{2022, -0.181, -0.177},
	{2023, 0.263, 0.039},
	{2024, 0.250, 0.007},
}
