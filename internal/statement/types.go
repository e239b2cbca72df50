package statement

import (
	"time"

	"equitylens/internal/metrics"
	"equitylens/pkg/contracts/domain"
)

// RawColumn is one reporting period as delivered by a provider: the
// provider's own period label, the publication date when known (used to pick
// the surviving version of restated periods), and the raw cell text keyed by
// the provider's row labels.
type RawColumn struct {
	PeriodLabel string            `json:"period_label"`
	PublishedAt time.Time         `json:"published_at,omitempty"`
	Cells       map[string]string `json:"cells"`
}

// RawStatement is a provider-native statement table for one statement kind.
// Row naming and period formatting vary by provider; only the normalizer
// interprets it.
type RawStatement struct {
	Symbol  string               `json:"symbol"`
	Kind    domain.StatementKind `json:"kind"`
	Source  string               `json:"source"`
	Freq    domain.Frequency     `json:"freq"`
	Columns []RawColumn          `json:"columns"`
}

// NormalizedStatement is the canonical Period × LineItem table. Periods are
// in chronological order (oldest first). Every vocabulary item for the kind
// has a row; cells that were absent or non-numeric are undefined, never zero.
// The normalizer is the sole writer; downstream modules read only.
type NormalizedStatement struct {
	Symbol   string                       `json:"symbol"`
	Kind     domain.StatementKind         `json:"kind"`
	Source   string                       `json:"source"`
	Version  string                       `json:"vocabulary_version"`
	Periods  []domain.Period              `json:"periods"`
	Rows     map[LineItem][]metrics.Value `json:"rows"`
	Warnings []string                     `json:"warnings,omitempty"`
}

// Len returns the number of periods.
func (s *NormalizedStatement) Len() int { return len(s.Periods) }

// Value returns the cell for a line item at period index i. Missing items and
// out-of-range indexes yield an undefined value.
func (s *NormalizedStatement) Value(item LineItem, i int) metrics.Value {
	row, ok := s.Rows[item]
	if !ok || i < 0 || i >= len(row) {
		return metrics.Undefined
	}
	return row[i]
}

// Series returns the full per-period series for a line item, aligned to
// Periods. Absent items return a slice of undefined values.
func (s *NormalizedStatement) Series(item LineItem) []metrics.Value {
	if row, ok := s.Rows[item]; ok {
		out := make([]metrics.Value, len(row))
		copy(out, row)
		return out
	}
	return make([]metrics.Value, len(s.Periods))
}

// HasAny reports whether the item is defined in at least one period.
func (s *NormalizedStatement) HasAny(item LineItem) bool {
	for _, v := range s.Rows[item] {
		if v.IsDefined() {
			return true
		}
	}
	return false
}

// PeriodIndex returns the index of the period with the given key, or -1.
func (s *NormalizedStatement) PeriodIndex(key string) int {
	for i, p := range s.Periods {
		if p.Key() == key {
			return i
		}
	}
	return -1
}
