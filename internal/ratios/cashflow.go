package ratios

import (
	"log/slog"
	"math"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/metrics"
	"equitylens/internal/statement"
	"equitylens/pkg/contracts/domain"
)

const daysPerYear = 365

// CashFlow computes cash-flow quality and working-capital efficiency ratios:
// CFO over net income, free cash flow, cash-flow adequacy, and the cash
// conversion cycle. Days terms divide average balances by trailing
// twelve-month revenue or cost of goods sold.
type CashFlow struct {
	logger *slog.Logger
}

// NewCashFlow creates the cash-flow ratio module.
func NewCashFlow(logger *slog.Logger) *CashFlow {
	if logger == nil {
		logger = slog.Default()
	}
	return &CashFlow{logger: logger}
}

// Compute evaluates the cash-flow ratios over every aligned period.
func (c *CashFlow) Compute(set *statement.Set) (*metrics.Result, error) {
	if set == nil || set.Len() == 0 {
		return nil, apperrors.NewInsufficientDataError("no aligned periods for cash-flow ratios")
	}
	if !set.HasAny(domain.StatementCashFlow, statement.OperatingCashFlow) {
		return nil, apperrors.NewInsufficientDataError("operating cash flow absent in all periods")
	}

	n := set.Len()
	window := set.TTMWindow()
	cfoSeries := set.Series(domain.StatementCashFlow, statement.OperatingCashFlow)
	revSeries := set.Series(domain.StatementIncome, statement.Revenue)
	cogsSeries := set.Series(domain.StatementIncome, statement.CostOfGoodsSold)

	cfoQuality := make([]metrics.Value, n)
	fcf := make([]metrics.Value, n)
	adequacy := make([]metrics.Value, n)
	dio := make([]metrics.Value, n)
	dso := make([]metrics.Value, n)
	dpo := make([]metrics.Value, n)
	ccc := make([]metrics.Value, n)

	for i := 0; i < n; i++ {
		cfo := cfoSeries[i]

		cfoQuality[i] = metrics.SafeDiv(cfo, set.IS(statement.NetIncome, i))
		fcf[i] = metrics.Sub(cfo, absValue(set.CF(statement.CapitalExpenditure, i)))
		adequacy[i] = c.adequacy(set, cfo, i)

		ttmRevenue := metrics.TrailingSum(revSeries, i, window)
		ttmCOGS := metrics.TrailingSum(cogsSeries, i, window)
		dio[i] = daysOutstanding(averageBalance(set, statement.Inventories, i), ttmCOGS)
		dso[i] = daysOutstanding(averageBalance(set, statement.AccountsReceivable, i), ttmRevenue)
		dpo[i] = daysOutstanding(averageBalance(set, statement.AccountsPayable, i), ttmCOGS)
		ccc[i] = metrics.Sub(metrics.Add(dio[i], dso[i]), dpo[i])
	}

	if !anyDefined(cfoQuality) && !anyDefined(fcf) {
		return nil, apperrors.NewInsufficientDataError("cash-flow ratios undefined in every period")
	}

	c.logger.Debug("cash-flow ratios computed",
		slog.String("symbol", set.Symbol), slog.Int("periods", n))

	return metrics.NewResultBuilder("cash_flow", set.Symbol, set.Periods).
		AddColumn("cfo_to_net_income", cfoQuality).
		AddColumn("free_cash_flow", fcf).
		AddColumn("adequacy", adequacy).
		AddColumn("days_inventory", dio).
		AddColumn("days_receivables", dso).
		AddColumn("days_payables", dpo).
		AddColumn("cash_conversion_cycle", ccc).
		Build()
}

// adequacy is CFO over the period's cash needs: capital expenditure, debt
// repayment, and dividends, each taken as an outflow magnitude. Absent
// outflow lines count as zero; a zero total need leaves the ratio undefined.
func (c *CashFlow) adequacy(set *statement.Set, cfo metrics.Value, i int) metrics.Value {
	if !cfo.IsDefined() {
		return metrics.Undefined
	}
	needs := absValue(set.CF(statement.CapitalExpenditure, i)).Or(0) +
		absValue(set.CF(statement.DebtRepayment, i)).Or(0) +
		absValue(set.CF(statement.DividendsPaid, i)).Or(0)
	if needs == 0 {
		return metrics.Undefined
	}
	return metrics.Def(cfo.Float64 / needs)
}

// daysOutstanding converts an average balance and a trailing annual flow
// into a turnover-days figure.
func daysOutstanding(avgBalance, ttmFlow metrics.Value) metrics.Value {
	if avgBalance.IsDefined() && avgBalance.Float64 == 0 {
		return metrics.Def(0)
	}
	if !ttmFlow.IsDefined() || ttmFlow.Float64 <= 0 {
		return metrics.Undefined
	}
	return metrics.Scale(metrics.SafeDiv(avgBalance, ttmFlow), daysPerYear)
}

// absValue is |v|; disclosures report outflows with inconsistent signs.
func absValue(v metrics.Value) metrics.Value {
	if !v.IsDefined() {
		return metrics.Undefined
	}
	return metrics.Def(math.Abs(v.Float64))
}
