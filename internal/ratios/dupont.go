package ratios

import (
	"log/slog"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/metrics"
	"equitylens/internal/statement"
	"equitylens/pkg/contracts/domain"
)

// DuPont decomposes return on equity into multiplicative factors. The
// product of the factors equals ROE computed directly as net income over
// average equity; the two are computed independently so the identity doubles
// as a self-check in tests.
type DuPont struct {
	logger *slog.Logger
}

// NewDuPont creates the DuPont module.
func NewDuPont(logger *slog.Logger) *DuPont {
	if logger == nil {
		logger = slog.Default()
	}
	return &DuPont{logger: logger}
}

// Compute3Factor evaluates ROE = net margin x asset turnover x equity
// multiplier per period.
func (d *DuPont) Compute3Factor(set *statement.Set) (*metrics.Result, error) {
	if err := d.checkInputs(set); err != nil {
		return nil, err
	}

	n := set.Len()
	netMargin := make([]metrics.Value, n)
	turnover := make([]metrics.Value, n)
	multiplier := make([]metrics.Value, n)
	roe := make([]metrics.Value, n)

	for i := 0; i < n; i++ {
		in := dupontInputs(set, i)
		netMargin[i] = metrics.SafeDiv(in.netIncome, in.revenue)
		turnover[i] = metrics.SafeDiv(in.revenue, in.avgAssets)
		multiplier[i] = metrics.SafeDiv(in.avgAssets, in.avgEquity)
		roe[i] = metrics.SafeDiv(in.netIncome, in.avgEquity)
	}

	if !anyDefined(roe) {
		return nil, apperrors.NewInsufficientDataError("roe undefined in every period")
	}

	d.logger.Debug("dupont 3-factor computed",
		slog.String("symbol", set.Symbol), slog.Int("periods", n))

	return metrics.NewResultBuilder("dupont_3factor", set.Symbol, set.Periods).
		AddColumn("roe", roe).
		AddColumn("net_margin", netMargin).
		AddColumn("asset_turnover", turnover).
		AddColumn("equity_multiplier", multiplier).
		Build()
}

// Compute5Factor splits net margin into tax burden, interest burden, and
// operating margin, preserving the product identity:
//
//	ROE = tax burden x interest burden x operating margin
//	      x asset turnover x equity multiplier
func (d *DuPont) Compute5Factor(set *statement.Set) (*metrics.Result, error) {
	if err := d.checkInputs(set); err != nil {
		return nil, err
	}

	n := set.Len()
	taxBurden := make([]metrics.Value, n)
	interestBurden := make([]metrics.Value, n)
	operatingMargin := make([]metrics.Value, n)
	turnover := make([]metrics.Value, n)
	multiplier := make([]metrics.Value, n)
	roe := make([]metrics.Value, n)

	for i := 0; i < n; i++ {
		in := dupontInputs(set, i)
		pretax := set.IS(statement.PretaxProfit, i)
		ebit := ebit(set, i)

		taxBurden[i] = metrics.SafeDiv(in.netIncome, pretax)
		interestBurden[i] = metrics.SafeDiv(pretax, ebit)
		operatingMargin[i] = metrics.SafeDiv(ebit, in.revenue)
		turnover[i] = metrics.SafeDiv(in.revenue, in.avgAssets)
		multiplier[i] = metrics.SafeDiv(in.avgAssets, in.avgEquity)
		roe[i] = metrics.SafeDiv(in.netIncome, in.avgEquity)
	}

	if !anyDefined(roe) {
		return nil, apperrors.NewInsufficientDataError("roe undefined in every period")
	}

	d.logger.Debug("dupont 5-factor computed",
		slog.String("symbol", set.Symbol), slog.Int("periods", n))

	return metrics.NewResultBuilder("dupont_5factor", set.Symbol, set.Periods).
		AddColumn("roe", roe).
		AddColumn("tax_burden", taxBurden).
		AddColumn("interest_burden", interestBurden).
		AddColumn("operating_margin", operatingMargin).
		AddColumn("asset_turnover", turnover).
		AddColumn("equity_multiplier", multiplier).
		Build()
}

func (d *DuPont) checkInputs(set *statement.Set) error {
	if set == nil || set.Len() == 0 {
		return apperrors.NewInsufficientDataError("no aligned periods for dupont decomposition")
	}
	required := []struct {
		kind domain.StatementKind
		item statement.LineItem
	}{
		{domain.StatementIncome, statement.NetIncome},
		{domain.StatementIncome, statement.Revenue},
		{domain.StatementBalanceSheet, statement.TotalAssets},
		{domain.StatementBalanceSheet, statement.TotalEquity},
	}
	for _, r := range required {
		if !set.HasAny(r.kind, r.item) {
			return apperrors.NewInsufficientDataError(
				string(r.item) + " absent in all periods")
		}
	}
	return nil
}

type dupontPeriod struct {
	netIncome, revenue, avgAssets, avgEquity metrics.Value
}

func dupontInputs(set *statement.Set, i int) dupontPeriod {
	return dupontPeriod{
		netIncome: set.IS(statement.NetIncome, i),
		revenue:   set.IS(statement.Revenue, i),
		avgAssets: averageBalance(set, statement.TotalAssets, i),
		avgEquity: averageBalance(set, statement.TotalEquity, i),
	}
}

// averageBalance averages a balance-sheet stock over the period's opening
// and closing values; the earliest period uses its closing balance alone.
func averageBalance(set *statement.Set, item statement.LineItem, i int) metrics.Value {
	cur := set.BS(item, i)
	if i == 0 {
		return cur
	}
	return metrics.Average(set.BS(item, i-1), cur)
}

// ebit is operating profit plus interest expense; an undisclosed interest
// line contributes nothing.
func ebit(set *statement.Set, i int) metrics.Value {
	op := set.IS(statement.OperatingProfit, i)
	if !op.IsDefined() {
		return metrics.Undefined
	}
	if interest := set.IS(statement.InterestExpense, i); interest.IsDefined() {
		return metrics.Add(op, interest)
	}
	return op
}

func anyDefined(vs []metrics.Value) bool {
	for _, v := range vs {
		if v.IsDefined() {
			return true
		}
	}
	return false
}
