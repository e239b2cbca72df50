// Package statement converts provider-shaped financial statement tables into
// the canonical Period × LineItem form shared by every metric module, and
// aligns the three statement kinds onto a common period axis.
//
// Canonical ordering is chronological, oldest period first. Report rendering
// reverses this, but every computation in the engine assumes ascending order
// so trailing windows and year-over-year deltas index forward.
package statement

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/metrics"
	"equitylens/pkg/contracts/domain"
)

// Normalizer owns the Raw → Normalized transformation. It is stateless apart
// from its logger; normalizing the same raw statement twice yields identical
// output.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize converts a raw provider statement into canonical form.
// It fails with a NormalizationError when the statement kind is unrecognized
// or when no periods survive filtering; unmapped row labels are dropped with
// a recorded warning, and non-numeric cells become undefined values.
func (n *Normalizer) Normalize(raw *RawStatement) (*NormalizedStatement, error) {
	if raw == nil {
		return nil, apperrors.NewNormalizationError("nil raw statement", nil)
	}
	if !raw.Kind.IsValid() {
		return nil, apperrors.NewNormalizationError(
			fmt.Sprintf("unrecognized statement kind %q", raw.Kind), nil)
	}

	freq := raw.Freq
	if freq == "" {
		freq = domain.FrequencyAnnual
	}

	// Parse period labels and drop columns without a parseable period.
	type parsedColumn struct {
		period domain.Period
		col    RawColumn
	}
	var parsed []parsedColumn
	var warnings []string
	for _, col := range raw.Columns {
		end, err := parsePeriodLabel(col.PeriodLabel)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("dropped column %q: %v", col.PeriodLabel, err))
			continue
		}
		parsed = append(parsed, parsedColumn{
			period: domain.Period{End: end, Freq: freq},
			col:    col,
		})
	}

	// Deduplicate restated periods: keep the most recently published version.
	byKey := make(map[string]parsedColumn)
	var order []string
	for _, pc := range parsed {
		key := pc.period.Key()
		existing, seen := byKey[key]
		if !seen {
			byKey[key] = pc
			order = append(order, key)
			continue
		}
		if pc.col.PublishedAt.After(existing.col.PublishedAt) {
			byKey[key] = pc
			warnings = append(warnings, fmt.Sprintf(
				"period %s restated: kept version published %s",
				key, pc.col.PublishedAt.Format("2006-01-02")))
		} else {
			warnings = append(warnings, fmt.Sprintf(
				"period %s reported twice: kept earlier-seen version", key))
		}
	}

	if len(byKey) == 0 {
		return nil, apperrors.NewNormalizationError(
			fmt.Sprintf("no usable periods in %s statement for %s", raw.Kind, raw.Symbol), nil)
	}

	// Canonical chronological order.
	sort.Strings(order)
	periods := make([]domain.Period, 0, len(order))
	columns := make([]RawColumn, 0, len(order))
	for _, key := range order {
		periods = append(periods, byKey[key].period)
		columns = append(columns, byKey[key].col)
	}

	// Translate rows into the canonical vocabulary.
	rows := make(map[LineItem][]metrics.Value, len(Vocabulary(raw.Kind)))
	for _, item := range Vocabulary(raw.Kind) {
		rows[item] = make([]metrics.Value, len(periods))
	}
	unmapped := make(map[string]struct{})
	for i, col := range columns {
		chosenRank := make(map[LineItem]int)
		labels := make([]string, 0, len(col.Cells))
		for label := range col.Cells {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			item, ok := LookupLabel(raw.Kind, label)
			if !ok {
				unmapped[label] = struct{}{}
				continue
			}
			v, ok := parseNumeric(col.Cells[label])
			if !ok {
				continue // stays undefined, never zero
			}
			// Two provider labels can resolve to the same canonical item
			// (e.g. 净利润 and 归属于母公司所有者的净利润); the higher-ranked,
			// more specific label wins.
			rank := labelRank[label]
			if prev, set := chosenRank[item]; set && prev >= rank {
				continue
			}
			chosenRank[item] = rank
			rows[item][i] = metrics.Def(v)
		}
	}
	for label := range unmapped {
		warnings = append(warnings, fmt.Sprintf("unmapped label dropped: %q", label))
	}

	n.logger.Debug("statement normalized",
		slog.String("symbol", raw.Symbol),
		slog.String("kind", string(raw.Kind)),
		slog.Int("periods", len(periods)),
		slog.Int("unmapped_labels", len(unmapped)),
	)

	sort.Strings(warnings)
	return &NormalizedStatement{
		Symbol:   raw.Symbol,
		Kind:     raw.Kind,
		Source:   raw.Source,
		Version:  VocabularyVersion,
		Periods:  periods,
		Rows:     rows,
		Warnings: warnings,
	}, nil
}

// periodLayouts are the period label formats seen across providers.
var periodLayouts = []string{
	"2006-01-02",
	"20060102",
	"2006/01/02",
	"2006-01-02 15:04:05",
}

func parsePeriodLabel(label string) (time.Time, error) {
	s := strings.TrimSpace(label)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty period label")
	}
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable period label %q", s)
}

// parseNumeric coerces a raw cell into a float. Placeholders and footnote
// text report !ok so the cell stays explicitly missing.
func parseNumeric(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	switch s {
	case "", "-", "--", "—", "N/A", "n/a", "false", "null":
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}
