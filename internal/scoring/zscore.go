package scoring

import (
	"log/slog"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/metrics"
	"equitylens/internal/statement"
	"equitylens/pkg/contracts/domain"
)

// Z-Score classification labels.
const (
	ZoneSafe     = "safe"
	ZoneGrey     = "grey zone"
	ZoneDistress = "distress"
)

// Z-Score classification boundaries. Both are inclusive into the grey zone.
const (
	zSafeAbove     = 2.99
	zDistressBelow = 1.81
)

// ZScore computes the Altman Z-Score per period:
//
//	Z = 1.2·A + 1.4·B + 3.3·C + 0.6·D + 1.0·E
//
// A = working capital / total assets, B = retained earnings / total assets,
// C = EBIT / total assets, D = market value of equity / total liabilities,
// E = revenue / total assets. A period with any undefined component yields an
// undefined Z, never a zero-filled one.
type ZScore struct {
	logger *slog.Logger
}

// NewZScore creates the Z-Score module.
func NewZScore(logger *slog.Logger) *ZScore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ZScore{logger: logger}
}

// Compute evaluates the Z-Score over every aligned period. The price series
// is optional: when present, market value of equity is the latest close times
// share capital; when absent, book equity substitutes and the result carries
// an explanatory note.
func (z *ZScore) Compute(set *statement.Set, prices *domain.PriceSeries) (*metrics.Result, error) {
	if set == nil || set.Len() == 0 {
		return nil, apperrors.NewInsufficientDataError("no aligned periods for z-score")
	}
	if !set.HasAny(domain.StatementBalanceSheet, statement.TotalAssets) {
		return nil, apperrors.NewInsufficientDataError("total assets absent in all periods")
	}

	builder := metrics.NewResultBuilder("z_score", set.Symbol, set.Periods)

	marketEquityPerShare := metrics.Undefined
	if prices != nil {
		if close, ok := prices.LatestClose(); ok {
			marketEquityPerShare = metrics.Def(close)
		}
	}
	if !marketEquityPerShare.IsDefined() {
		builder.AddNote("market price unavailable: book equity substituted for market value of equity")
	}

	n := set.Len()
	zs := make([]metrics.Value, n)
	as := make([]metrics.Value, n)
	bs := make([]metrics.Value, n)
	cs := make([]metrics.Value, n)
	ds := make([]metrics.Value, n)
	es := make([]metrics.Value, n)
	labels := make([]string, n)

	for i := 0; i < n; i++ {
		totalAssets := set.BS(statement.TotalAssets, i)
		workingCapital := metrics.Sub(
			set.BS(statement.TotalCurrentAssets, i),
			set.BS(statement.TotalCurrentLiabilities, i),
		)
		as[i] = metrics.SafeDiv(workingCapital, totalAssets)
		bs[i] = metrics.SafeDiv(set.BS(statement.RetainedEarnings, i), totalAssets)
		cs[i] = metrics.SafeDiv(ebit(set, i), totalAssets)
		ds[i] = metrics.SafeDiv(z.marketEquity(set, i, marketEquityPerShare), set.BS(statement.TotalLiabilities, i))
		es[i] = metrics.SafeDiv(set.IS(statement.Revenue, i), totalAssets)

		zs[i] = sumWeighted(
			weighted{1.2, as[i]},
			weighted{1.4, bs[i]},
			weighted{3.3, cs[i]},
			weighted{0.6, ds[i]},
			weighted{1.0, es[i]},
		)
		labels[i] = ClassifyZ(zs[i])
	}

	if !anyDefined(zs) {
		return nil, apperrors.NewInsufficientDataError("z-score undefined in every period")
	}

	z.logger.Debug("z-score computed",
		slog.String("symbol", set.Symbol),
		slog.Int("periods", n),
		slog.String("latest_zone", labels[n-1]),
	)

	return builder.
		AddColumn("z", zs).
		AddColumn("working_capital_ratio", as).
		AddColumn("retained_earnings_ratio", bs).
		AddColumn("ebit_ratio", cs).
		AddColumn("equity_to_liabilities", ds).
		AddColumn("asset_turnover", es).
		SetLabels(labels).
		Build()
}

// ClassifyZ maps a Z value to its risk zone. Boundary values 2.99 and 1.81
// fall in the grey zone. Undefined values classify as empty.
func ClassifyZ(z metrics.Value) string {
	if !z.IsDefined() {
		return ""
	}
	switch {
	case z.Float64 > zSafeAbove:
		return ZoneSafe
	case z.Float64 >= zDistressBelow:
		return ZoneGrey
	default:
		return ZoneDistress
	}
}

// ebit is operating profit plus interest expense. Interest expense is often
// undisclosed as a separate line; when undefined it contributes nothing
// rather than poisoning the sum.
func ebit(set *statement.Set, i int) metrics.Value {
	op := set.IS(statement.OperatingProfit, i)
	if !op.IsDefined() {
		return metrics.Undefined
	}
	interest := set.IS(statement.InterestExpense, i)
	if interest.IsDefined() {
		return metrics.Add(op, interest)
	}
	return op
}

// marketEquity is close price times share capital when a price is available,
// otherwise the book value of equity.
func (z *ZScore) marketEquity(set *statement.Set, i int, pricePerShare metrics.Value) metrics.Value {
	if pricePerShare.IsDefined() {
		shares := set.BS(statement.ShareCapital, i)
		if shares.IsDefined() {
			return metrics.Mul(pricePerShare, shares)
		}
	}
	return set.BS(statement.TotalEquity, i)
}

type weighted struct {
	coeff float64
	value metrics.Value
}

func sumWeighted(terms ...weighted) metrics.Value {
	sum := 0.0
	for _, t := range terms {
		if !t.value.IsDefined() {
			return metrics.Undefined
		}
		sum += t.coeff * t.value.Float64
	}
	return metrics.Def(sum)
}

func anyDefined(vs []metrics.Value) bool {
	for _, v := range vs {
		if v.IsDefined() {
			return true
		}
	}
	return false
}
