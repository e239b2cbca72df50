package metrics

import (
	"fmt"

	"equitylens/pkg/contracts/domain"
)

// Column is one named series of per-period values inside a Result.
type Column struct {
	Name   string  `json:"name"`
	Values []Value `json:"values"`
}

// Result is an ordered-by-period table of derived metric columns plus an
// optional classification label per period. Results are built once by a
// metric module and are read-only afterwards; no shared mutable state exists
// between modules.
type Result struct {
	Metric  string          `json:"metric"`
	Symbol  string          `json:"symbol"`
	Periods []domain.Period `json:"periods"`
	Columns []Column        `json:"columns"`
	Labels  []string        `json:"labels,omitempty"`
	Notes   []string        `json:"notes,omitempty"`
}

// ResultBuilder accumulates columns for a fixed period axis.
type ResultBuilder struct {
	result Result
}

// NewResultBuilder starts a result for the given metric over the period axis.
// Periods must already be in canonical chronological order.
func NewResultBuilder(metric, symbol string, periods []domain.Period) *ResultBuilder {
	ps := make([]domain.Period, len(periods))
	copy(ps, periods)
	return &ResultBuilder{result: Result{
		Metric:  metric,
		Symbol:  symbol,
		Periods: ps,
	}}
}

// AddColumn appends a column. The value count must match the period axis.
func (b *ResultBuilder) AddColumn(name string, values []Value) *ResultBuilder {
	vs := make([]Value, len(values))
	copy(vs, values)
	b.result.Columns = append(b.result.Columns, Column{Name: name, Values: vs})
	return b
}

// SetLabels attaches a per-period classification label column.
func (b *ResultBuilder) SetLabels(labels []string) *ResultBuilder {
	ls := make([]string, len(labels))
	copy(ls, labels)
	b.result.Labels = ls
	return b
}

// AddNote records an advisory note on the result (e.g. Benford top deviators).
func (b *ResultBuilder) AddNote(format string, args ...interface{}) *ResultBuilder {
	b.result.Notes = append(b.result.Notes, fmt.Sprintf(format, args...))
	return b
}

// Build validates column lengths and returns the immutable result.
func (b *ResultBuilder) Build() (*Result, error) {
	n := len(b.result.Periods)
	for _, col := range b.result.Columns {
		if len(col.Values) != n {
			return nil, fmt.Errorf("column %q has %d values for %d periods", col.Name, len(col.Values), n)
		}
	}
	if b.result.Labels != nil && len(b.result.Labels) != n {
		return nil, fmt.Errorf("labels length %d does not match %d periods", len(b.result.Labels), n)
	}
	r := b.result
	return &r, nil
}

// Len returns the number of periods in the result.
func (r *Result) Len() int { return len(r.Periods) }

// IsEmpty reports whether the result carries no periods.
func (r *Result) IsEmpty() bool { return r == nil || len(r.Periods) == 0 }

// Column returns the named column's values, or nil when absent.
func (r *Result) Column(name string) []Value {
	for _, col := range r.Columns {
		if col.Name == name {
			return col.Values
		}
	}
	return nil
}

// Cell returns one value by column name and period index.
func (r *Result) Cell(name string, i int) Value {
	col := r.Column(name)
	if col == nil || i < 0 || i >= len(col) {
		return Undefined
	}
	return col[i]
}

// Latest returns the most recent value of the named column (periods are
// chronological, so this is the last entry).
func (r *Result) Latest(name string) Value {
	col := r.Column(name)
	if len(col) == 0 {
		return Undefined
	}
	return col[len(col)-1]
}

// LatestLabel returns the classification label of the most recent period.
func (r *Result) LatestLabel() string {
	if len(r.Labels) == 0 {
		return ""
	}
	return r.Labels[len(r.Labels)-1]
}

// LatestPeriod returns the most recent period, or a zero Period when empty.
func (r *Result) LatestPeriod() domain.Period {
	if len(r.Periods) == 0 {
		return domain.Period{}
	}
	return r.Periods[len(r.Periods)-1]
}
