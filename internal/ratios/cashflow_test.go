package ratios

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "equitylens/internal/errors"
)

func TestCashFlow_KnownValues(t *testing.T) {
	set := buildSet(t, annualPeriods(2, 2023),
		map[string][]string{
			"Inventories":         {"30", "30"},
			"Accounts Receivable": {"20", "20"},
			"Accounts Payable":    {"40", "40"},
		},
		map[string][]string{
			"Operating Revenue": {"180", "200"},
			"Operating Costs":   {"110", "120"},
			"Net Income":        {"40", "40"},
		},
		map[string][]string{
			"Operating Cash Flow":                          {"45", "50"},
			"Capital Expenditure":                          {"-15", "-20"},
			"Cash Paid for Debt Repayment":                 {"10", "10"},
			"Cash Paid for Dividends, Profits or Interest": {"10", "10"},
		},
	)

	result, err := NewCashFlow(nil).Compute(set)
	require.NoError(t, err)

	assert.InDelta(t, 50.0/40.0, result.Latest("cfo_to_net_income").Float64, 1e-9)
	// Capex sign is normalized to an outflow magnitude.
	assert.InDelta(t, 30.0, result.Latest("free_cash_flow").Float64, 1e-9)
	assert.InDelta(t, 50.0/40.0, result.Latest("adequacy").Float64, 1e-9)

	// Annual data: trailing flow is the period's own revenue/COGS.
	assert.InDelta(t, 365.0*30.0/120.0, result.Latest("days_inventory").Float64, 1e-9)
	assert.InDelta(t, 365.0*20.0/200.0, result.Latest("days_receivables").Float64, 1e-9)
	assert.InDelta(t, 365.0*40.0/120.0, result.Latest("days_payables").Float64, 1e-9)

	wantCCC := 365.0*30.0/120.0 + 365.0*20.0/200.0 - 365.0*40.0/120.0
	assert.InDelta(t, wantCCC, result.Latest("cash_conversion_cycle").Float64, 1e-9)
}

func TestCashFlow_AdequacyUndefinedWithoutNeeds(t *testing.T) {
	set := buildSet(t, annualPeriods(1, 2023),
		nil,
		map[string][]string{"Net Income": {"40"}, "Operating Revenue": {"200"}},
		map[string][]string{"Operating Cash Flow": {"50"}},
	)

	result, err := NewCashFlow(nil).Compute(set)
	require.NoError(t, err)

	assert.False(t, result.Latest("adequacy").IsDefined())
	assert.InDelta(t, 50.0/40.0, result.Latest("cfo_to_net_income").Float64, 1e-9)
	assert.False(t, result.Latest("free_cash_flow").IsDefined(),
		"capex missing leaves free cash flow undefined, not CFO")
}

func TestCashFlow_InsufficientData(t *testing.T) {
	set := buildSet(t, annualPeriods(1, 2023),
		map[string][]string{"Total Assets": {"100"}},
		map[string][]string{"Operating Revenue": {"200"}},
		nil,
	)

	_, err := NewCashFlow(nil).Compute(set)
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientData(err))
}
