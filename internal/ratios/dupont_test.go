package ratios

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/metrics"
	"equitylens/internal/statement"
)

func dupontFixture(t *testing.T) *statement.Set {
	t.Helper()
	return buildSet(t, annualPeriods(3, 2023),
		map[string][]string{
			"Total Assets":              {"100", "120", "140"},
			"Total Shareholders Equity": {"50", "60", "70"},
		},
		map[string][]string{
			"Operating Revenue":   {"100", "110", "120"},
			"Net Income":          {"10", "12", "14"},
			"Operating Profit":    {"14", "17", "20"},
			"Interest Expenses":   {"2", "2", "2"},
			"Total Profit":        {"13", "16", "19"},
			"Income Tax Expenses": {"3", "4", "5"},
		},
		nil,
	)
}

func TestDuPont3Factor_ProductEqualsDirectROE(t *testing.T) {
	result, err := NewDuPont(nil).Compute3Factor(dupontFixture(t))
	require.NoError(t, err)

	for i := 0; i < result.Len(); i++ {
		roe := result.Cell("roe", i)
		require.True(t, roe.IsDefined(), "period %d", i)

		product := result.Cell("net_margin", i).Float64 *
			result.Cell("asset_turnover", i).Float64 *
			result.Cell("equity_multiplier", i).Float64
		relErr := math.Abs(product-roe.Float64) / math.Abs(roe.Float64)
		assert.Less(t, relErr, 1e-6, "period %d: product %v vs direct %v", i, product, roe.Float64)
	}
}

func TestDuPont3Factor_KnownValues(t *testing.T) {
	result, err := NewDuPont(nil).Compute3Factor(dupontFixture(t))
	require.NoError(t, err)

	// Period 1: avg assets (100+120)/2 = 110, avg equity (50+60)/2 = 55.
	assert.InDelta(t, 12.0/110.0, result.Cell("net_margin", 1).Float64, 1e-9)
	assert.InDelta(t, 110.0/110.0, result.Cell("asset_turnover", 1).Float64, 1e-9)
	assert.InDelta(t, 110.0/55.0, result.Cell("equity_multiplier", 1).Float64, 1e-9)
	assert.InDelta(t, 12.0/55.0, result.Cell("roe", 1).Float64, 1e-9)

	// Earliest period averages collapse to the closing balance.
	assert.InDelta(t, 10.0/50.0, result.Cell("roe", 0).Float64, 1e-9)
}

func TestDuPont5Factor_ProductEqualsDirectROE(t *testing.T) {
	result, err := NewDuPont(nil).Compute5Factor(dupontFixture(t))
	require.NoError(t, err)

	for i := 0; i < result.Len(); i++ {
		roe := result.Cell("roe", i)
		require.True(t, roe.IsDefined(), "period %d", i)

		product := result.Cell("tax_burden", i).Float64 *
			result.Cell("interest_burden", i).Float64 *
			result.Cell("operating_margin", i).Float64 *
			result.Cell("asset_turnover", i).Float64 *
			result.Cell("equity_multiplier", i).Float64
		relErr := math.Abs(product-roe.Float64) / math.Abs(roe.Float64)
		assert.Less(t, relErr, 1e-6, "period %d", i)
	}
}

func TestDuPont_InsufficientData(t *testing.T) {
	set := buildSet(t, annualPeriods(2, 2023),
		map[string][]string{"Total Assets": {"100", "120"}},
		map[string][]string{"Operating Revenue": {"100", "110"}},
		nil,
	)

	_, err := NewDuPont(nil).Compute3Factor(set)
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientData(err))
	assert.Contains(t, err.Error(), "netIncome")
}

func TestAverageBalance_EarliestPeriod(t *testing.T) {
	set := buildSet(t, annualPeriods(2, 2023),
		map[string][]string{"Total Assets": {"100", "120"}},
		map[string][]string{"Operating Revenue": {"100", "110"}},
		nil,
	)

	first := averageBalance(set, statement.TotalAssets, 0)
	require.True(t, first.IsDefined())
	assert.Equal(t, 100.0, first.Float64)

	second := averageBalance(set, statement.TotalAssets, 1)
	require.True(t, second.IsDefined())
	assert.Equal(t, 110.0, second.Float64)

	assert.Equal(t, metrics.Undefined, averageBalance(set, statement.Inventories, 1))
}
