package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCompound(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.Decimal
		rate     decimal.Decimal
		periods  int
		expected decimal.Decimal
	}{
		{
			name:     "Zero periods returns amount unchanged",
			amount:   decimal.NewFromInt(1000),
			rate:     decimal.NewFromFloat(0.05),
			periods:  0,
			expected: decimal.NewFromInt(1000),
		},
		{
			name:     "One period equals simple growth",
			amount:   decimal.NewFromInt(1000),
			rate:     decimal.NewFromFloat(0.05),
			periods:  1,
			expected: decimal.NewFromInt(1050),
		},
		{
			name:     "Two periods compound",
			amount:   decimal.NewFromInt(1000),
			rate:     decimal.NewFromFloat(0.10),
			periods:  2,
			expected: decimal.NewFromInt(1210), // 1000 * 1.1^2
		},
		{
			name:     "Zero rate is identity",
			amount:   decimal.NewFromInt(500),
			rate:     decimal.Zero,
			periods:  10,
			expected: decimal.NewFromInt(500),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compound(tt.amount, tt.rate, tt.periods)
			assert.True(t, got.Equal(tt.expected), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestRealDeflation(t *testing.T) {
	nominal := decimal.NewFromInt(1210)
	real := Real(nominal, decimal.NewFromFloat(0.10), 2)
	assert.True(t, real.Equal(decimal.NewFromInt(1000)), "1210 deflated two years at 10%% should be 1000, got %s", real)

	// Zero years leaves the amount untouched.
	assert.True(t, Real(nominal, decimal.NewFromFloat(0.10), 0).Equal(nominal))
}

func TestRealInvertsCompound(t *testing.T) {
	amount := decimal.NewFromFloat(123456.78)
	rate := decimal.NewFromFloat(0.026)
	for _, years := range []int{1, 5, 30} {
		back := Real(Compound(amount, rate, years), rate, years)
		diff := back.Sub(amount).Abs()
		assert.True(t, diff.LessThan(decimal.NewFromFloat(0.01)), "round trip over %d years drifted by %s", years, diff)
	}
}

func TestAnnualizedGrowth(t *testing.T) {
	tests := []struct {
		name     string
		start    decimal.Decimal
		end      decimal.Decimal
		years    int
		expected float64
		tol      float64
	}{
		{
			name:     "Doubling over ten years",
			start:    decimal.NewFromInt(100),
			end:      decimal.NewFromInt(200),
			years:    10,
			expected: 0.0718, // 2^(1/10) - 1
			tol:      0.001,
		},
		{
			name:     "Flat series",
			start:    decimal.NewFromInt(100),
			end:      decimal.NewFromInt(100),
			years:    5,
			expected: 0,
			tol:      1e-9,
		},
		{
			name:     "Declining series is negative",
			start:    decimal.NewFromInt(200),
			end:      decimal.NewFromInt(100),
			years:    10,
			expected: -0.0670,
			tol:      0.001,
		},
		{
			name:     "Zero start is degenerate",
			start:    decimal.Zero,
			end:      decimal.NewFromInt(100),
			years:    10,
			expected: 0,
			tol:      1e-9,
		},
		{
			name:     "Zero years is degenerate",
			start:    decimal.NewFromInt(100),
			end:      decimal.NewFromInt(200),
			years:    0,
			expected: 0,
			tol:      1e-9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnnualizedGrowth(tt.start, tt.end, tt.years).InexactFloat64()
			assert.InDelta(t, tt.expected, got, tt.tol)
		})
	}
}

func TestAnnualMonthly(t *testing.T) {
	monthly := decimal.NewFromFloat(185.00)
	assert.True(t, Annual(monthly).Equal(decimal.NewFromInt(2220)))
	assert.True(t, Monthly(decimal.NewFromInt(2220)).Equal(monthly))
}

func TestClampsAndFormat(t *testing.T) {
	assert.True(t, NonNegative(decimal.NewFromInt(-5)).IsZero())
	assert.True(t, NonNegative(decimal.NewFromInt(5)).Equal(decimal.NewFromInt(5)))
	assert.True(t, Min(decimal.NewFromInt(3), decimal.NewFromInt(7)).Equal(decimal.NewFromInt(3)))
	assert.True(t, Max(decimal.NewFromInt(3), decimal.NewFromInt(7)).Equal(decimal.NewFromInt(7)))
	assert.Equal(t, "$1234.50", Format(decimal.NewFromFloat(1234.5)))
}
