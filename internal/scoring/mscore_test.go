package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/metrics"
)

func TestMScore_KnownValues(t *testing.T) {
	periods := annualPeriods(2, 2023)
	set := buildSet(t, periods,
		map[string][]string{
			"Total Assets":                  {"200", "220"},
			"Total Current Assets":          {"80", "88"},
			"Total Current Liabilities":     {"40", "44"},
			"Total Non-current Liabilities": {"40", "44"},
			"Net Fixed Assets":              {"100", "110"},
			"Accumulated Depreciation":      {"20", "22"},
			"Accounts Receivable":           {"10", "11"},
		},
		map[string][]string{
			"Operating Revenue":       {"100", "110"},
			"Operating Costs":         {"60", "66"},
			"Selling Expenses":        {"5", "5.5"},
			"Administrative Expenses": {"5", "5.5"},
		},
		map[string][]string{
			"Operating Cash Flow": {"10", "4"},
		},
	)

	result, err := NewMScore(nil).Compute(set)
	require.NoError(t, err)
	require.Equal(t, 2, result.Len())

	// Period 0 has no prior period.
	assert.False(t, result.Cell("m", 0).IsDefined())
	assert.Equal(t, "", result.Labels[0])

	// Every index except SGI is held at parity by construction; TATA is zero
	// because the working-capital change (4) equals operating cash flow (4).
	for _, col := range []string{"dsri", "gmi", "aqi", "depi", "sgai", "lvgi"} {
		v := result.Cell(col, 1)
		require.True(t, v.IsDefined(), col)
		assert.InDelta(t, 1.0, v.Float64, 1e-9, col)
	}
	assert.InDelta(t, 1.1, result.Cell("sgi", 1).Float64, 1e-9)
	assert.InDelta(t, 0.0, result.Cell("tata", 1).Float64, 1e-9)

	// M = -4.84 + 0.920 + 0.528 + 0.404 + 0.892*1.1 + 0.115 - 0.172 - 0.327
	m := result.Cell("m", 1)
	require.True(t, m.IsDefined())
	assert.InDelta(t, -2.3908, m.Float64, 1e-9)
	assert.Equal(t, ManipulationLow, result.LatestLabel())
}

func TestMScore_MissingCashFlowTreatedAsZeroCFO(t *testing.T) {
	periods := annualPeriods(2, 2023)
	set := buildSet(t, periods,
		map[string][]string{
			"Total Assets":              {"200", "220"},
			"Total Current Assets":      {"80", "88"},
			"Total Current Liabilities": {"40", "44"},
		},
		map[string][]string{
			"Operating Revenue": {"100", "110"},
		},
		nil,
	)

	result, err := NewMScore(nil).Compute(set)
	require.NoError(t, err)

	tata := result.Cell("tata", 1)
	require.True(t, tata.IsDefined())
	assert.InDelta(t, 4.0/220.0, tata.Float64, 1e-9)
	assert.True(t, result.Cell("m", 1).IsDefined())
}

func TestMScore_UndefinedWhenRevenueMissing(t *testing.T) {
	periods := annualPeriods(4, 2023)
	set := buildSet(t, periods,
		map[string][]string{
			"Total Assets": {"200", "210", "220", "230"},
		},
		map[string][]string{
			"Operating Revenue": {"100", "--", "120", "130"},
		},
		nil,
	)

	result, err := NewMScore(nil).Compute(set)
	require.NoError(t, err)

	assert.False(t, result.Cell("m", 1).IsDefined(), "current revenue missing")
	assert.False(t, result.Cell("m", 2).IsDefined(), "prior revenue missing")
	assert.True(t, result.Cell("m", 3).IsDefined())
}

func TestMScore_ElevatedRiskWarnings(t *testing.T) {
	periods := annualPeriods(2, 2023)
	// Receivables triple while revenue doubles, and accruals run far ahead of
	// operating cash flow.
	set := buildSet(t, periods,
		map[string][]string{
			"Total Assets":              {"200", "220"},
			"Total Current Assets":      {"80", "140"},
			"Total Current Liabilities": {"40", "44"},
			"Accounts Receivable":       {"10", "60"},
		},
		map[string][]string{
			"Operating Revenue": {"100", "200"},
		},
		map[string][]string{
			"Operating Cash Flow": {"10", "5"},
		},
	)

	result, err := NewMScore(nil).Compute(set)
	require.NoError(t, err)

	m := result.Cell("m", 1)
	require.True(t, m.IsDefined())
	assert.Greater(t, m.Float64, mFlagAbove)
	assert.Equal(t, ManipulationElevated, result.LatestLabel())

	notes := result.Notes
	require.NotEmpty(t, notes)
	assert.Contains(t, notes[0], "receivables growing faster than revenue")
}

func TestMScore_InsufficientData(t *testing.T) {
	t.Run("single period", func(t *testing.T) {
		set := buildSet(t, annualPeriods(1, 2023),
			map[string][]string{"Total Assets": {"200"}},
			map[string][]string{"Operating Revenue": {"100"}},
			nil,
		)
		_, err := NewMScore(nil).Compute(set)
		require.Error(t, err)
		assert.True(t, apperrors.IsInsufficientData(err))
	})

	t.Run("revenue absent everywhere", func(t *testing.T) {
		set := buildSet(t, annualPeriods(2, 2023),
			map[string][]string{"Total Assets": {"200", "220"}},
			map[string][]string{"Operating Profit": {"10", "12"}},
			nil,
		)
		_, err := NewMScore(nil).Compute(set)
		require.Error(t, err)
		assert.True(t, apperrors.IsInsufficientData(err))
	})
}

func TestClassifyM(t *testing.T) {
	assert.Equal(t, ManipulationElevated, ClassifyM(metrics.Def(-1.0)))
	assert.Equal(t, ManipulationLow, ClassifyM(metrics.Def(-2.5)))
	assert.Equal(t, ManipulationLow, ClassifyM(metrics.Def(-1.78)))
	assert.Equal(t, "", ClassifyM(metrics.Undefined))
}
