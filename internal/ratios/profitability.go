package ratios

import (
	"log/slog"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/metrics"
	"equitylens/internal/statement"
	"equitylens/pkg/contracts/domain"
)

// defaultTaxRate substitutes for the effective tax rate when pre-tax profit
// or the tax charge is undisclosed; 25% is the PRC statutory corporate rate.
const defaultTaxRate = 0.25

// Profitability computes margin and return ratios per period. Percentages
// are expressed as percent, not fractions.
type Profitability struct {
	logger *slog.Logger
}

// NewProfitability creates the profitability module.
func NewProfitability(logger *slog.Logger) *Profitability {
	if logger == nil {
		logger = slog.Default()
	}
	return &Profitability{logger: logger}
}

// Compute evaluates gross margin, net margin, ROE, ROA and ROIC over every
// aligned period.
func (p *Profitability) Compute(set *statement.Set) (*metrics.Result, error) {
	if set == nil || set.Len() == 0 {
		return nil, apperrors.NewInsufficientDataError("no aligned periods for profitability ratios")
	}
	if !set.HasAny(domain.StatementIncome, statement.Revenue) {
		return nil, apperrors.NewInsufficientDataError("revenue absent in all periods")
	}

	n := set.Len()
	grossMargin := make([]metrics.Value, n)
	netMargin := make([]metrics.Value, n)
	roe := make([]metrics.Value, n)
	roa := make([]metrics.Value, n)
	roic := make([]metrics.Value, n)

	for i := 0; i < n; i++ {
		revenue := set.IS(statement.Revenue, i)
		netIncome := set.IS(statement.NetIncome, i)

		grossProfit := metrics.Sub(revenue, set.IS(statement.CostOfGoodsSold, i))
		grossMargin[i] = metrics.Scale(metrics.SafeDiv(grossProfit, revenue), 100)
		netMargin[i] = metrics.Scale(metrics.SafeDiv(netIncome, revenue), 100)
		roe[i] = metrics.Scale(metrics.SafeDiv(netIncome, averageBalance(set, statement.TotalEquity, i)), 100)
		roa[i] = metrics.Scale(metrics.SafeDiv(netIncome, averageBalance(set, statement.TotalAssets, i)), 100)
		roic[i] = p.roic(set, i)
	}

	if !anyDefined(netMargin) && !anyDefined(grossMargin) {
		return nil, apperrors.NewInsufficientDataError("profitability ratios undefined in every period")
	}

	p.logger.Debug("profitability ratios computed",
		slog.String("symbol", set.Symbol), slog.Int("periods", n))

	return metrics.NewResultBuilder("profitability", set.Symbol, set.Periods).
		AddColumn("gross_margin", grossMargin).
		AddColumn("net_margin", netMargin).
		AddColumn("roe", roe).
		AddColumn("roa", roa).
		AddColumn("roic", roic).
		Build()
}

// roic is NOPAT over average invested capital, in percent. NOPAT is
// EBIT x (1 - effective tax rate); invested capital is equity plus
// interest-bearing debt minus cash.
func (p *Profitability) roic(set *statement.Set, i int) metrics.Value {
	e := ebit(set, i)
	if !e.IsDefined() {
		return metrics.Undefined
	}
	nopat := metrics.Scale(e, 1-effectiveTaxRate(set, i))

	avg := metrics.Average(investedCapital(set, i-1), investedCapital(set, i))
	if avg.IsDefined() && avg.Float64 <= 0 {
		return metrics.Undefined
	}
	return metrics.Scale(metrics.SafeDiv(nopat, avg), 100)
}

// effectiveTaxRate is the tax charge over pre-tax profit, clamped to [0, 1];
// the statutory default applies when either is undisclosed or pre-tax profit
// is not positive.
func effectiveTaxRate(set *statement.Set, i int) float64 {
	tax := set.IS(statement.IncomeTaxExpense, i)
	pretax := set.IS(statement.PretaxProfit, i)
	if !tax.IsDefined() || !pretax.IsDefined() || pretax.Float64 <= 0 {
		return defaultTaxRate
	}
	rate := tax.Float64 / pretax.Float64
	if rate < 0 {
		return 0
	}
	if rate > 1 {
		return 1
	}
	return rate
}

// investedCapital is equity plus short- and long-term borrowings minus cash
// for period i; negative i yields undefined so averaging falls back to the
// closing balance.
func investedCapital(set *statement.Set, i int) metrics.Value {
	if i < 0 {
		return metrics.Undefined
	}
	equity := set.BS(statement.TotalEquity, i)
	if !equity.IsDefined() {
		return metrics.Undefined
	}
	capital := equity.Float64 +
		set.BS(statement.ShortTermBorrowings, i).Or(0) +
		set.BS(statement.LongTermBorrowings, i).Or(0) -
		set.BS(statement.CashAndEquivalents, i).Or(0)
	return metrics.Def(capital)
}
