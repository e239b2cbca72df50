package ratios

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

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
