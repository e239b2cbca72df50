package scoring

import (
	"log/slog"
	"math"
	"sort"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/statement"
)

// Benford conformance tiers, classified from the mean absolute deviation of
// the observed first-digit distribution against log10(1 + 1/d). The tier
// thresholds are Nigrini's for first-digit tests.
const (
	BenfordClose         = "close conformity"
	BenfordAcceptable    = "acceptable conformity"
	BenfordMarginal      = "marginal conformity"
	BenfordNonconformity = "nonconformity"
)

const (
	madCloseBelow      = 0.006
	madAcceptableBelow = 0.012
	madMarginalBelow   = 0.015
)

// benfordMinSample is the minimum pooled value count for the digit test to
// carry any statistical weight.
const benfordMinSample = 30

// BenfordResult is the outcome of the digit-distribution check over one or
// more statements. Observed holds per-digit counts; Expected holds the
// Benford proportions log10(1 + 1/d). The check is advisory: it flags
// statistically anomalous statements, it never proves manipulation.
type BenfordResult struct {
	Symbol      string     `json:"symbol"`
	SampleSize  int        `json:"sample_size"`
	Observed    [9]int     `json:"observed"`
	Expected    [9]float64 `json:"expected"`
	MAD         float64    `json:"mad"`
	ChiSquare   float64    `json:"chi_square"`
	Conformance string     `json:"conformance"`
	// TopDeviators lists the line items contributing most to the deviation,
	// strongest first, at most three.
	TopDeviators []string `json:"top_deviators,omitempty"`
}

// Benford pools every defined, non-zero cell across the supplied statements,
// extracts leading significant digits, and measures goodness of fit against
// the Benford distribution.
type Benford struct {
	logger *slog.Logger
}

// NewBenford creates the Benford check module.
func NewBenford(logger *slog.Logger) *Benford {
	if logger == nil {
		logger = slog.Default()
	}
	return &Benford{logger: logger}
}

// Check runs the digit test. Nil statements are skipped; the check fails
// with InsufficientData below the minimum pooled sample size.
func (b *Benford) Check(stmts ...*statement.NormalizedStatement) (*BenfordResult, error) {
	symbol := ""
	var observed [9]int
	total := 0
	perItemDigits := make(map[statement.LineItem][]int)

	for _, s := range stmts {
		if s == nil {
			continue
		}
		symbol = s.Symbol
		for _, item := range statement.Vocabulary(s.Kind) {
			for _, v := range s.Series(item) {
				if !v.IsDefined() || v.Float64 == 0 {
					continue
				}
				d := leadingDigit(v.Float64)
				if d < 1 || d > 9 {
					continue
				}
				observed[d-1]++
				total++
				perItemDigits[item] = append(perItemDigits[item], d)
			}
		}
	}

	if total < benfordMinSample {
		return nil, apperrors.NewInsufficientDataError(
			"too few statement values for a meaningful digit test")
	}

	var expected [9]float64
	mad, chi := 0.0, 0.0
	var propDiff [9]float64
	for d := 0; d < 9; d++ {
		p := benfordProb(d + 1)
		expected[d] = p
		obsProp := float64(observed[d]) / float64(total)
		propDiff[d] = obsProp - p
		mad += math.Abs(propDiff[d])
		expCount := float64(total) * p
		diff := float64(observed[d]) - expCount
		chi += diff * diff / expCount
	}
	mad /= 9

	result := &BenfordResult{
		Symbol:      symbol,
		SampleSize:  total,
		Observed:    observed,
		Expected:    expected,
		MAD:         mad,
		ChiSquare:   chi,
		Conformance: ClassifyBenford(mad),
	}
	result.TopDeviators = topDeviators(perItemDigits, propDiff)

	b.logger.Debug("benford check completed",
		slog.String("symbol", symbol),
		slog.Int("sample_size", total),
		slog.Float64("mad", mad),
		slog.String("conformance", result.Conformance),
	)
	return result, nil
}

// ClassifyBenford maps a mean absolute deviation to a conformance tier.
func ClassifyBenford(mad float64) string {
	switch {
	case mad < madCloseBelow:
		return BenfordClose
	case mad < madAcceptableBelow:
		return BenfordAcceptable
	case mad < madMarginalBelow:
		return BenfordMarginal
	default:
		return BenfordNonconformity
	}
}

// benfordProb is P(d) = log10(1 + 1/d) for d in 1..9.
func benfordProb(d int) float64 {
	return math.Log10(1 + 1/float64(d))
}

// leadingDigit extracts the leading significant digit of |v|.
func leadingDigit(v float64) int {
	v = math.Abs(v)
	if v == 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	for v >= 10 {
		v /= 10
	}
	for v < 1 {
		v *= 10
	}
	return int(v)
}

// topDeviators ranks line items by how much their values land on
// over-represented digits.
func topDeviators(perItem map[statement.LineItem][]int, propDiff [9]float64) []string {
	type scored struct {
		item  statement.LineItem
		score float64
	}
	var ranked []scored
	for item, digits := range perItem {
		score := 0.0
		for _, d := range digits {
			if diff := propDiff[d-1]; diff > 0 {
				score += diff
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{item: item, score: score})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].item < ranked[j].item
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = string(s.item)
	}
	return out
}
