package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/plansight/retirement-engine/internal/domain"
)

func TestRMDRequired(t *testing.T) {
	rmd := NewRMDCalculator(domain.DefaultRules())
	balance := decimal.NewFromInt(530000)

	tests := []struct {
		name     string
		age      int
		expected decimal.Decimal
	}{
		{
			name:     "No distribution before the start age",
			age:      72,
			expected: decimal.Zero,
		},
		{
			name:     "First year uses the start-age divisor",
			age:      73,
			expected: decimal.NewFromInt(20000), // 530000 / 26.5
		},
		{
			name:     "Divisors shrink with age",
			age:      80,
			expected: balance.Div(decimal.NewFromFloat(20.2)),
		},
		{
			name:     "Ages past the table clamp to the last divisor",
			age:      110,
			expected: balance.Div(decimal.NewFromFloat(4.6)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rmd.Required(balance, tt.age)
			diff := got.Sub(tt.expected).Abs()
			assert.True(t, diff.LessThan(decimal.NewFromFloat(0.01)), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestRMDRequiredGrowsWithAge(t *testing.T) {
	rmd := NewRMDCalculator(domain.DefaultRules())
	balance := decimal.NewFromInt(1000000)
	prev := decimal.Zero
	for age := 73; age <= 105; age++ {
		req := rmd.Required(balance, age)
		assert.True(t, req.GreaterThan(prev), "required share should increase at age %d", age)
		prev = req
	}
}

func TestRMDDegenerateBalances(t *testing.T) {
	rmd := NewRMDCalculator(domain.DefaultRules())
	assert.True(t, rmd.Required(decimal.Zero, 75).IsZero())
	assert.True(t, rmd.Required(decimal.NewFromInt(-100), 75).IsZero())
}
