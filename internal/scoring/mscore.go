package scoring

import (
	"log/slog"
	"math"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/metrics"
	"equitylens/internal/statement"
	"equitylens/pkg/contracts/domain"
)

// M-Score classification labels.
const (
	ManipulationElevated = "elevated risk"
	ManipulationLow      = "low risk"
)

// mFlagAbove flags elevated manipulation risk. The original Beneish paper's
// -2.22 cutoff produces many false positives on growth companies; the more
// conservative -1.78 probit cutoff is used instead.
const mFlagAbove = -1.78

// Beneish coefficients, fixed published values.
const (
	mIntercept = -4.84
	mDSRI      = 0.920
	mGMI       = 0.528
	mAQI       = 0.404
	mSGI       = 0.892
	mDEPI      = 0.115
	mSGAI      = -0.172
	mTATA      = 4.679
	mLVGI      = -0.327
)

// MScore computes the Beneish M-Score per period from eight year-over-year
// indices. Every index needs two consecutive periods, so the earliest period
// is always undefined. An index that cannot be computed on its own is
// substituted with its neutral value (1.0, or 0.0 for TATA); the whole score
// is undefined only when revenue or total assets is missing for the period
// pair, since no index survives without them.
type MScore struct {
	logger *slog.Logger
}

// NewMScore creates the M-Score module.
func NewMScore(logger *slog.Logger) *MScore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MScore{logger: logger}
}

// Compute evaluates the M-Score over every aligned period.
func (m *MScore) Compute(set *statement.Set) (*metrics.Result, error) {
	if set == nil || set.Len() < 2 {
		return nil, apperrors.NewInsufficientDataError("m-score needs at least two consecutive periods")
	}
	if !set.HasAny(domain.StatementIncome, statement.Revenue) {
		return nil, apperrors.NewInsufficientDataError("revenue absent in all periods")
	}
	if !set.HasAny(domain.StatementBalanceSheet, statement.TotalAssets) {
		return nil, apperrors.NewInsufficientDataError("total assets absent in all periods")
	}

	n := set.Len()
	cols := map[string][]metrics.Value{
		"m": make([]metrics.Value, n), "dsri": make([]metrics.Value, n),
		"gmi": make([]metrics.Value, n), "aqi": make([]metrics.Value, n),
		"sgi": make([]metrics.Value, n), "depi": make([]metrics.Value, n),
		"sgai": make([]metrics.Value, n), "lvgi": make([]metrics.Value, n),
		"tata": make([]metrics.Value, n),
	}
	labels := make([]string, n)

	for i := 1; i < n; i++ {
		ix := computeIndices(set, i)
		cols["dsri"][i] = ix.dsri
		cols["gmi"][i] = ix.gmi
		cols["aqi"][i] = ix.aqi
		cols["sgi"][i] = ix.sgi
		cols["depi"][i] = ix.depi
		cols["sgai"][i] = ix.sgai
		cols["lvgi"][i] = ix.lvgi
		cols["tata"][i] = ix.tata

		if !ix.computable {
			continue
		}
		score := mIntercept +
			mDSRI*ix.dsri.Or(1) +
			mGMI*ix.gmi.Or(1) +
			mAQI*ix.aqi.Or(1) +
			mSGI*ix.sgi.Or(1) +
			mDEPI*ix.depi.Or(1) +
			mSGAI*ix.sgai.Or(1) +
			mTATA*ix.tata.Or(0) +
			mLVGI*ix.lvgi.Or(1)
		cols["m"][i] = metrics.Def(score)
		labels[i] = ClassifyM(cols["m"][i])
	}

	if !anyDefined(cols["m"]) {
		return nil, apperrors.NewInsufficientDataError("m-score undefined in every period")
	}

	builder := metrics.NewResultBuilder("m_score", set.Symbol, set.Periods)
	for _, name := range []string{"m", "dsri", "gmi", "aqi", "sgi", "depi", "sgai", "lvgi", "tata"} {
		builder.AddColumn(name, cols[name])
	}
	builder.SetLabels(labels)
	m.addWarnings(builder, cols, n-1)

	m.logger.Debug("m-score computed",
		slog.String("symbol", set.Symbol),
		slog.Int("periods", n),
		slog.String("latest_flag", labels[n-1]),
	)

	return builder.Build()
}

// ClassifyM maps an M value to its manipulation-risk flag. Undefined values
// classify as empty.
func ClassifyM(m metrics.Value) string {
	if !m.IsDefined() {
		return ""
	}
	if m.Float64 > mFlagAbove {
		return ManipulationElevated
	}
	return ManipulationLow
}

// addWarnings annotates the result with the latest period's anomalous
// indices. Thresholds follow the usual screening conventions: a ratio index
// drifting more than 5% above parity, sales growth above 10%, or accruals
// beyond 5% of assets.
func (m *MScore) addWarnings(b *metrics.ResultBuilder, cols map[string][]metrics.Value, last int) {
	type check struct {
		col       string
		threshold float64
		absolute  bool
		text      string
	}
	checks := []check{
		{"dsri", 1.05, false, "receivables growing faster than revenue"},
		{"gmi", 1.05, false, "gross margin deteriorating"},
		{"aqi", 1.05, false, "asset quality deteriorating"},
		{"sgi", 1.10, false, "rapid sales growth"},
		{"depi", 1.05, false, "depreciation rate slowing"},
		{"sgai", 1.05, false, "expense ratio rising"},
		{"lvgi", 1.05, false, "leverage rising"},
		{"tata", 0.05, true, "accruals unusually large"},
	}
	for _, c := range checks {
		v := cols[c.col][last]
		if !v.IsDefined() {
			continue
		}
		x := v.Float64
		if c.absolute {
			x = math.Abs(x)
		}
		if x > c.threshold {
			b.AddNote("%s %.2f: %s", c.col, v.Float64, c.text)
		}
	}
}

type indices struct {
	dsri, gmi, aqi, sgi, depi, sgai, lvgi, tata metrics.Value
	computable                                  bool
}

// computeIndices evaluates the eight indices for period i against i-1.
// Optional inputs (receivables, costs, expense lines) default to zero the
// way the disclosures themselves treat an absent line; a prior-period ratio
// of zero collapses an index to its neutral 1.0 rather than blowing up.
func computeIndices(set *statement.Set, i int) indices {
	var ix indices

	curRev := set.IS(statement.Revenue, i)
	priRev := set.IS(statement.Revenue, i-1)
	curAssets := set.BS(statement.TotalAssets, i)
	priAssets := set.BS(statement.TotalAssets, i-1)

	revOK := curRev.IsDefined() && curRev.Float64 != 0 && priRev.IsDefined() && priRev.Float64 != 0
	assetsOK := curAssets.IsDefined() && curAssets.Float64 != 0 && priAssets.IsDefined() && priAssets.Float64 != 0
	ix.computable = revOK && assetsOK
	if !ix.computable {
		return ix
	}

	// DSRI: receivables-to-revenue ratio index.
	curRecvRatio := set.BS(statement.AccountsReceivable, i).Or(0) / curRev.Float64
	priRecvRatio := set.BS(statement.AccountsReceivable, i-1).Or(0) / priRev.Float64
	ix.dsri = ratioIndex(curRecvRatio, priRecvRatio)

	// GMI: prior gross margin over current gross margin.
	curMargin := (curRev.Float64 - set.IS(statement.CostOfGoodsSold, i).Or(0)) / curRev.Float64
	priMargin := (priRev.Float64 - set.IS(statement.CostOfGoodsSold, i-1).Or(0)) / priRev.Float64
	ix.gmi = ratioIndex(priMargin, curMargin)

	// AQI: share of assets that are neither current nor fixed.
	curSoft := (curAssets.Float64 - set.BS(statement.TotalCurrentAssets, i).Or(0) - set.BS(statement.NetFixedAssets, i).Or(0)) / curAssets.Float64
	priSoft := (priAssets.Float64 - set.BS(statement.TotalCurrentAssets, i-1).Or(0) - set.BS(statement.NetFixedAssets, i-1).Or(0)) / priAssets.Float64
	ix.aqi = ratioIndex(curSoft, priSoft)

	// SGI: plain revenue ratio.
	ix.sgi = metrics.Def(curRev.Float64 / priRev.Float64)

	// DEPI: prior depreciation rate over current.
	ix.depi = depreciationIndex(set, i)

	// SGAI: selling plus administrative expense share of revenue.
	curSGA := (set.IS(statement.SellingExpenses, i).Or(0) + set.IS(statement.AdminExpenses, i).Or(0)) / curRev.Float64
	priSGA := (set.IS(statement.SellingExpenses, i-1).Or(0) + set.IS(statement.AdminExpenses, i-1).Or(0)) / priRev.Float64
	ix.sgai = ratioIndex(curSGA, priSGA)

	// LVGI: total liabilities share of assets.
	curLev := (set.BS(statement.TotalCurrentLiabilities, i).Or(0) + set.BS(statement.TotalNonCurrentLiabs, i).Or(0)) / curAssets.Float64
	priLev := (set.BS(statement.TotalCurrentLiabilities, i-1).Or(0) + set.BS(statement.TotalNonCurrentLiabs, i-1).Or(0)) / priAssets.Float64
	ix.lvgi = ratioIndex(curLev, priLev)

	// TATA: working-capital accruals net of operating cash flow, over assets.
	curWC := set.BS(statement.TotalCurrentAssets, i).Or(0) - set.BS(statement.TotalCurrentLiabilities, i).Or(0)
	priWC := set.BS(statement.TotalCurrentAssets, i-1).Or(0) - set.BS(statement.TotalCurrentLiabilities, i-1).Or(0)
	cfo := set.CF(statement.OperatingCashFlow, i).Or(0)
	ix.tata = metrics.Def((curWC - priWC - cfo) / curAssets.Float64)

	return ix
}

// ratioIndex returns numerator/denominator, collapsing to the neutral 1.0
// when the denominator is zero.
func ratioIndex(numerator, denominator float64) metrics.Value {
	if denominator == 0 {
		return metrics.Def(1)
	}
	return metrics.Def(numerator / denominator)
}

// depreciationIndex prefers the disclosed gross cost of fixed assets as the
// depreciation base; otherwise it reconstructs gross PP&E as accumulated
// depreciation plus net fixed assets.
func depreciationIndex(set *statement.Set, i int) metrics.Value {
	base := func(j int) (dep, gross float64) {
		dep = math.Abs(set.BS(statement.AccumulatedDepreciation, j).Or(0))
		gross = dep + set.BS(statement.NetFixedAssets, j).Or(0)
		if cost := set.BS(statement.CostOfFixedAssets, j).Or(0); cost > 0 {
			gross = cost
		}
		return dep, gross
	}
	curDep, curGross := base(i)
	priDep, priGross := base(i - 1)
	if curGross == 0 || priGross == 0 {
		return metrics.Def(1)
	}
	curRate := curDep / curGross
	priRate := priDep / priGross
	if curRate == 0 {
		return metrics.Def(1)
	}
	return metrics.Def(priRate / curRate)
}
