package report

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/metrics"
	"equitylens/internal/scoring"
)

// LocaleEN is the only narrative locale currently shipped. The locale
// parameter exists so translated templates can be added without changing the
// renderer contract.
const LocaleEN = "en"

const ruleWidth = 80

// metricTitles maps result metric names to their report headings. Unknown
// metrics fall back to the raw name.
var metricTitles = map[string]string{
	"z_score":        "Altman Z-Score Financial Risk Analysis",
	"m_score":        "Beneish M-Score Earnings Manipulation Analysis",
	"dupont_3factor": "DuPont 3-Factor ROE Decomposition",
	"dupont_5factor": "DuPont 5-Factor ROE Decomposition",
	"profitability":  "Profitability Ratio Analysis",
	"valuation":      "Valuation Ratio Analysis",
	"cash_flow":      "Cash Flow Quality Analysis",
}

const disclaimer = "This report is for reference only and does not constitute investment advice."

// Renderer formats metric results as narrative text.
type Renderer struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewRenderer creates a renderer.
func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger, now: time.Now}
}

// Render formats one metric result in the given locale. Periods render latest
// first even though the result stores them chronologically.
func (r *Renderer) Render(res *metrics.Result, locale string) (string, error) {
	if err := checkLocale(locale); err != nil {
		return "", err
	}
	if res.IsEmpty() {
		return "", apperrors.NewInsufficientDataError("nothing to report: metric result has no periods")
	}

	var b strings.Builder
	rule(&b, '=')
	title, ok := metricTitles[res.Metric]
	if !ok {
		title = res.Metric
	}
	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "Symbol: %s\n", res.Symbol)
	fmt.Fprintf(&b, "Generated: %s\n", r.now().Format("2006-01-02 15:04:05"))
	rule(&b, '=')
	b.WriteString("\n")

	r.latestSection(&b, res)
	r.historySection(&b, res)
	r.notesSection(&b, res)

	rule(&b, '=')
	fmt.Fprintf(&b, "Disclaimer: %s\n", disclaimer)
	rule(&b, '=')

	return b.String(), nil
}

func (r *Renderer) latestSection(b *strings.Builder, res *metrics.Result) {
	b.WriteString("[Latest Period Analysis]\n")
	fmt.Fprintf(b, "Report date: %s\n", res.LatestPeriod().Key())
	if label := res.LatestLabel(); label != "" {
		fmt.Fprintf(b, "Classification: %s\n", label)
	}
	for _, col := range res.Columns {
		fmt.Fprintf(b, "  %-28s: %s\n", col.Name, formatValue(col.Values[len(col.Values)-1]))
	}
	b.WriteString("\n")
}

func (r *Renderer) historySection(b *strings.Builder, res *metrics.Result) {
	b.WriteString("[Historical Trend Analysis]\n")
	fmt.Fprintf(b, "Analysis period: %s to %s (%d periods)\n",
		res.Periods[0].Key(), res.LatestPeriod().Key(), res.Len())

	// The first column is each module's headline metric.
	head := res.Columns[0]
	fmt.Fprintf(b, "%s statistics:\n", head.Name)
	fmt.Fprintf(b, "  mean    : %s\n", formatValue(metrics.Mean(head.Values)))
	if i, ok := argMax(head.Values); ok {
		fmt.Fprintf(b, "  maximum : %s (%s)\n", formatValue(head.Values[i]), res.Periods[i].Key())
	}
	if i, ok := argMin(head.Values); ok {
		fmt.Fprintf(b, "  minimum : %s (%s)\n", formatValue(head.Values[i]), res.Periods[i].Key())
	}
	fmt.Fprintf(b, "  std dev : %s\n", formatValue(metrics.StdDev(head.Values)))

	if dist := labelDistribution(res.Labels); len(dist) > 0 {
		b.WriteString("Classification distribution:\n")
		for _, d := range dist {
			fmt.Fprintf(b, "  %s: %d periods (%.1f%%)\n",
				d.label, d.count, 100*float64(d.count)/float64(res.Len()))
		}
	}

	r.trendLine(b, head.Values)

	b.WriteString("Detailed history (latest first):\n")
	names := make([]string, len(res.Columns))
	for i, col := range res.Columns {
		names[i] = col.Name
	}
	fmt.Fprintf(b, "  %-12s %s\n", "period", strings.Join(names, "  "))
	for i := res.Len() - 1; i >= 0; i-- {
		cells := make([]string, len(res.Columns))
		for j, col := range res.Columns {
			cells[j] = formatValue(col.Values[i])
		}
		fmt.Fprintf(b, "  %-12s %s\n", res.Periods[i].Key(), strings.Join(cells, "  "))
	}
	b.WriteString("\n")
}

// trendLine compares the two most recent defined headline values.
func (r *Renderer) trendLine(b *strings.Builder, values []metrics.Value) {
	if len(values) < 2 {
		return
	}
	latest, prior := values[len(values)-1], values[len(values)-2]
	if !latest.IsDefined() || !prior.IsDefined() {
		return
	}
	delta := latest.Float64 - prior.Float64
	switch {
	case delta > 0:
		fmt.Fprintf(b, "Recent trend: increased %.4f versus the prior period\n", delta)
	case delta < 0:
		fmt.Fprintf(b, "Recent trend: decreased %.4f versus the prior period\n", -delta)
	default:
		b.WriteString("Recent trend: unchanged versus the prior period\n")
	}
}

func (r *Renderer) notesSection(b *strings.Builder, res *metrics.Result) {
	if len(res.Notes) == 0 {
		return
	}
	b.WriteString("[Notes]\n")
	for _, note := range res.Notes {
		fmt.Fprintf(b, "  - %s\n", note)
	}
	b.WriteString("\n")
}

// RenderBenford formats the digit-distribution check, which carries its own
// result shape rather than a per-period table.
func (r *Renderer) RenderBenford(res *scoring.BenfordResult, locale string) (string, error) {
	if err := checkLocale(locale); err != nil {
		return "", err
	}
	if res == nil || res.SampleSize == 0 {
		return "", apperrors.NewInsufficientDataError("nothing to report: benford check has no sample")
	}

	var b strings.Builder
	rule(&b, '=')
	b.WriteString("Benford's Law Digit Distribution Check\n")
	fmt.Fprintf(&b, "Symbol: %s\n", res.Symbol)
	fmt.Fprintf(&b, "Generated: %s\n", r.now().Format("2006-01-02 15:04:05"))
	rule(&b, '=')
	b.WriteString("\n")

	fmt.Fprintf(&b, "Sample size: %d line-item values\n", res.SampleSize)
	fmt.Fprintf(&b, "Mean absolute deviation: %.5f\n", res.MAD)
	fmt.Fprintf(&b, "Chi-square statistic: %.3f\n", res.ChiSquare)
	fmt.Fprintf(&b, "Conformance: %s\n\n", res.Conformance)

	b.WriteString("Digit  Observed  Expected\n")
	for d := 1; d <= 9; d++ {
		observed := float64(res.Observed[d-1]) / float64(res.SampleSize)
		fmt.Fprintf(&b, "%5d  %7.2f%%  %7.2f%%\n", d, 100*observed, 100*res.Expected[d-1])
	}
	b.WriteString("\n")

	if len(res.TopDeviators) > 0 {
		b.WriteString("Line items contributing most to deviation:\n")
		for _, item := range res.TopDeviators {
			fmt.Fprintf(&b, "  - %s\n", item)
		}
		b.WriteString("\n")
	}

	b.WriteString("This check is advisory. Deviation flags statements for closer review;\n")
	b.WriteString("it does not by itself indicate manipulation.\n")
	rule(&b, '=')
	fmt.Fprintf(&b, "Disclaimer: %s\n", disclaimer)
	rule(&b, '=')

	return b.String(), nil
}

func checkLocale(locale string) error {
	if locale != LocaleEN {
		return apperrors.NewValidationError(fmt.Sprintf("unsupported report locale %q", locale))
	}
	return nil
}

func rule(b *strings.Builder, r rune) {
	b.WriteString(strings.Repeat(string(r), ruleWidth))
	b.WriteString("\n")
}

// formatValue renders a metric cell, keeping undefined visibly distinct from
// zero.
func formatValue(v metrics.Value) string {
	if !v.IsDefined() {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v.Float64)
}

func argMax(values []metrics.Value) (int, bool) {
	best, found := -1, false
	for i, v := range values {
		if v.IsDefined() && (!found || v.Float64 > values[best].Float64) {
			best, found = i, true
		}
	}
	return best, found
}

func argMin(values []metrics.Value) (int, bool) {
	best, found := -1, false
	for i, v := range values {
		if v.IsDefined() && (!found || v.Float64 < values[best].Float64) {
			best, found = i, true
		}
	}
	return best, found
}

type labelCount struct {
	label string
	count int
}

// labelDistribution counts labels preserving first-appearance order.
func labelDistribution(labels []string) []labelCount {
	var dist []labelCount
	index := make(map[string]int)
	for _, label := range labels {
		if label == "" {
			continue
		}
		if i, ok := index[label]; ok {
			dist[i].count++
			continue
		}
		index[label] = len(dist)
		dist = append(dist, labelCount{label: label, count: 1})
	}
	return dist
}
