package scoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/metrics"
	"equitylens/internal/statement"
	"equitylens/pkg/contracts/domain"
)

// buildSet normalizes and aligns per-kind row tables. Each rows map is
// provider label -> one cell per period; an empty map skips the kind.
func buildSet(t *testing.T, periods []string, bsRows, isRows, cfRows map[string][]string) *statement.Set {
	t.Helper()

	mk := func(kind domain.StatementKind, rows map[string][]string) *statement.NormalizedStatement {
		if len(rows) == 0 {
			return nil
		}
		cols := make([]statement.RawColumn, len(periods))
		for i, p := range periods {
			cells := make(map[string]string)
			for label, vals := range rows {
				require.Len(t, vals, len(periods))
				cells[label] = vals[i]
			}
			cols[i] = statement.RawColumn{PeriodLabel: p, Cells: cells}
		}
		s, err := statement.NewNormalizer(nil).Normalize(&statement.RawStatement{
			Symbol: "600519", Kind: kind, Source: "test", Columns: cols,
		})
		require.NoError(t, err)
		return s
	}

	set, err := statement.Align(
		mk(domain.StatementBalanceSheet, bsRows),
		mk(domain.StatementIncome, isRows),
		mk(domain.StatementCashFlow, cfRows),
	)
	require.NoError(t, err)
	return set
}

func annualPeriods(n int, lastYear int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = fmt.Sprintf("%d-12-31", lastYear-n+1+i)
	}
	return out
}

func priceSeries(t *testing.T, close float64) *domain.PriceSeries {
	t.Helper()
	day, err := time.Parse("2006-01-02", "2024-06-28")
	require.NoError(t, err)
	return &domain.PriceSeries{
		Symbol: "600519",
		Bars: []domain.PriceBar{
			{Date: day, Open: close, High: close, Low: close, Close: close, Volume: 1000},
		},
	}
}

func repeat(v string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestZScore_TextbookFixture(t *testing.T) {
	const n = 5
	periods := annualPeriods(n, 2023)
	set := buildSet(t, periods,
		map[string][]string{
			"Total Assets":              repeat("100", n),
			"Total Current Assets":      repeat("50", n),
			"Total Current Liabilities": repeat("30", n),
			"Total Liabilities":         repeat("40", n),
			"Retained Earnings":         repeat("20", n),
			"Share Capital":             repeat("40", n),
		},
		map[string][]string{
			"Operating Revenue": repeat("120", n),
			"Operating Profit":  repeat("15", n),
		},
		nil,
	)

	// Market equity = 2.0 close * 40 share capital = 80.
	result, err := NewZScore(nil).Compute(set, priceSeries(t, 2.0))
	require.NoError(t, err)
	require.Equal(t, n, result.Len())

	// Z = 1.2*0.2 + 1.4*0.2 + 3.3*0.15 + 0.6*(80/40) + 1.0*1.2 = 3.415
	for i := 0; i < n; i++ {
		z := result.Cell("z", i)
		require.True(t, z.IsDefined())
		assert.InDelta(t, 3.415, z.Float64, 1e-9)
	}
	assert.Equal(t, ZoneSafe, result.LatestLabel())
}

func TestZScore_BookEquityFallback(t *testing.T) {
	periods := annualPeriods(1, 2023)
	set := buildSet(t, periods,
		map[string][]string{
			"Total Assets":              {"100"},
			"Total Current Assets":      {"50"},
			"Total Current Liabilities": {"30"},
			"Total Liabilities":         {"40"},
			"Retained Earnings":         {"20"},
			"Total Shareholders Equity": {"60"},
		},
		map[string][]string{
			"Operating Revenue": {"120"},
			"Operating Profit":  {"15"},
		},
		nil,
	)

	result, err := NewZScore(nil).Compute(set, nil)
	require.NoError(t, err)

	// D falls back to book equity: 0.6*(60/40) = 0.9 instead of 1.2.
	z := result.Latest("z")
	require.True(t, z.IsDefined())
	assert.InDelta(t, 3.115, z.Float64, 1e-9)
	require.NotEmpty(t, result.Notes)
	assert.Contains(t, result.Notes[0], "book equity")
}

func TestZScore_UndefinedComponentUndefinesPeriod(t *testing.T) {
	periods := annualPeriods(2, 2023)
	set := buildSet(t, periods,
		map[string][]string{
			"Total Assets":              {"100", "100"},
			"Total Current Assets":      {"50", "50"},
			"Total Current Liabilities": {"30", "30"},
			"Total Liabilities":         {"40", "40"},
			"Retained Earnings":         {"--", "20"},
			"Share Capital":             {"40", "40"},
		},
		map[string][]string{
			"Operating Revenue": {"120", "120"},
			"Operating Profit":  {"15", "15"},
		},
		nil,
	)

	result, err := NewZScore(nil).Compute(set, priceSeries(t, 2.0))
	require.NoError(t, err)

	assert.False(t, result.Cell("z", 0).IsDefined(), "missing retained earnings must not zero-fill")
	assert.Equal(t, "", result.Labels[0])
	assert.True(t, result.Cell("z", 1).IsDefined())
	assert.Equal(t, ZoneSafe, result.Labels[1])
}

func TestZScore_InsufficientData(t *testing.T) {
	periods := annualPeriods(1, 2023)
	set := buildSet(t, periods,
		map[string][]string{"Inventories": {"5"}},
		map[string][]string{"Operating Revenue": {"120"}},
		nil,
	)

	result, err := NewZScore(nil).Compute(set, nil)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientData(err))
}

func TestClassifyZ(t *testing.T) {
	tests := []struct {
		z    metrics.Value
		want string
	}{
		{z: metrics.Def(3.5), want: ZoneSafe},
		{z: metrics.Def(2.0), want: ZoneGrey},
		{z: metrics.Def(1.0), want: ZoneDistress},
		{z: metrics.Def(2.99), want: ZoneGrey},
		{z: metrics.Def(1.81), want: ZoneGrey},
		{z: metrics.Def(3.0), want: ZoneSafe},
		{z: metrics.Def(1.80), want: ZoneDistress},
		{z: metrics.Undefined, want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyZ(tt.z), "z=%v", tt.z)
	}
}
