package ratios

import (
	"log/slog"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/metrics"
	"equitylens/internal/statement"
	"equitylens/pkg/contracts/domain"
)

// Valuation combines the most recent price point with per-period
// fundamentals. Static PE uses the period's own EPS; TTM PE uses the
// trailing-twelve-month EPS sum. PEG divides static PE by the earnings
// growth rate and is deliberately undefined, not clipped, when growth is
// non-positive.
type Valuation struct {
	logger *slog.Logger
}

// NewValuation creates the valuation module.
func NewValuation(logger *slog.Logger) *Valuation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Valuation{logger: logger}
}

// Compute evaluates PE, PB, PS, PEG and EV/EBITDA over every aligned period
// against the latest available close.
func (v *Valuation) Compute(set *statement.Set, prices *domain.PriceSeries) (*metrics.Result, error) {
	if set == nil || set.Len() == 0 {
		return nil, apperrors.NewInsufficientDataError("no aligned periods for valuation ratios")
	}
	if prices == nil || prices.IsEmpty() {
		return nil, apperrors.NewInsufficientDataError("no price series for valuation ratios")
	}
	close, ok := prices.LatestClose()
	if !ok {
		return nil, apperrors.NewInsufficientDataError("no usable close price for valuation ratios")
	}
	price := metrics.Def(close)

	n := set.Len()
	window := set.TTMWindow()
	yearBack := yearWindow(set.Freq())
	epsSeries := set.Series(domain.StatementIncome, statement.BasicEPS)
	niSeries := set.Series(domain.StatementIncome, statement.NetIncome)

	staticPE := make([]metrics.Value, n)
	ttmPE := make([]metrics.Value, n)
	pb := make([]metrics.Value, n)
	ps := make([]metrics.Value, n)
	peg := make([]metrics.Value, n)
	evEBITDA := make([]metrics.Value, n)

	for i := 0; i < n; i++ {
		marketCap := metrics.Mul(price, set.BS(statement.ShareCapital, i))

		staticPE[i] = positiveDiv(price, epsSeries[i])
		ttmPE[i] = positiveDiv(price, metrics.TrailingSum(epsSeries, i, window))
		pb[i] = positiveDiv(marketCap, set.BS(statement.TotalEquity, i))
		ps[i] = positiveDiv(marketCap, set.IS(statement.Revenue, i))
		peg[i] = v.peg(staticPE[i], niSeries, i, yearBack)
		evEBITDA[i] = v.evOverEBITDA(set, marketCap, i)
	}

	if !anyDefined(staticPE) && !anyDefined(ps) {
		return nil, apperrors.NewInsufficientDataError("valuation ratios undefined in every period")
	}

	builder := metrics.NewResultBuilder("valuation", set.Symbol, set.Periods).
		AddColumn("static_pe", staticPE).
		AddColumn("ttm_pe", ttmPE).
		AddColumn("pb", pb).
		AddColumn("ps", ps).
		AddColumn("peg", peg).
		AddColumn("ev_ebitda", evEBITDA)
	if bar, ok := prices.Latest(); ok {
		builder.AddNote("priced as of %s close %.4f", bar.Date.Format("2006-01-02"), bar.Close)
	}

	v.logger.Debug("valuation ratios computed",
		slog.String("symbol", set.Symbol),
		slog.Int("periods", n),
		slog.Float64("close", close),
	)

	return builder.Build()
}

// peg is PE over the year-over-year earnings growth rate in percent.
// Non-positive growth yields undefined so an attractive-looking small PEG
// can never come from shrinking earnings.
func (v *Valuation) peg(pe metrics.Value, netIncome []metrics.Value, i, yearBack int) metrics.Value {
	if i-yearBack < 0 {
		return metrics.Undefined
	}
	growth := metrics.GrowthRate(netIncome[i], netIncome[i-yearBack])
	if !growth.IsDefined() || growth.Float64 <= 0 {
		return metrics.Undefined
	}
	return metrics.SafeDiv(pe, growth)
}

// evOverEBITDA uses enterprise value = market cap + total liabilities - cash
// and EBITDA = EBIT + depreciation and amortization.
func (v *Valuation) evOverEBITDA(set *statement.Set, marketCap metrics.Value, i int) metrics.Value {
	if !marketCap.IsDefined() {
		return metrics.Undefined
	}
	liabilities := set.BS(statement.TotalLiabilities, i)
	cash := set.BS(statement.CashAndEquivalents, i)
	if !liabilities.IsDefined() || !cash.IsDefined() {
		return metrics.Undefined
	}
	ev := metrics.Def(marketCap.Float64 + liabilities.Float64 - cash.Float64)

	e := ebit(set, i)
	if !e.IsDefined() {
		return metrics.Undefined
	}
	ebitda := metrics.Def(e.Float64 + set.CF(statement.DepreciationAndAmor, i).Or(0))
	return positiveDiv(ev, ebitda)
}

// positiveDiv divides but treats a non-positive denominator as undefined:
// a PE against negative earnings or a PB against negative equity is a
// diagnostic gap, not a number.
func positiveDiv(numerator, denominator metrics.Value) metrics.Value {
	if !denominator.IsDefined() || denominator.Float64 <= 0 {
		return metrics.Undefined
	}
	return metrics.SafeDiv(numerator, denominator)
}

// yearWindow is the number of periods spanning one year at the given
// frequency.
func yearWindow(freq domain.Frequency) int {
	if freq == domain.FrequencyQuarterly {
		return 4
	}
	return 1
}
