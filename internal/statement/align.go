package statement

import (
	"fmt"
	"sort"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/metrics"
	"equitylens/pkg/contracts/domain"
)

// Set is a group of normalized statements for one security aligned onto a
// shared period axis. Cross-statement metrics (ROE, M-Score, cash-conversion
// cycle) read through a Set so that every operand comes from the same
// reporting period.
//
// Alignment is intersection-only: a period present in only one statement kind
// is excluded from the set. Per-statement metrics that need no alignment read
// the individual statements directly.
type Set struct {
	Symbol  string
	Periods []domain.Period
	// index maps statement kind -> set period index -> statement period index.
	index      map[domain.StatementKind][]int
	statements map[domain.StatementKind]*NormalizedStatement
}

// Align builds an aligned set from the supplied statements. Nil statements
// are permitted (e.g. a module that needs no cash-flow data); the period axis
// is the intersection of the non-nil ones. Align fails with an
// InsufficientData error when no common period exists.
func Align(stmts ...*NormalizedStatement) (*Set, error) {
	byKind := make(map[domain.StatementKind]*NormalizedStatement)
	symbol := ""
	for _, s := range stmts {
		if s == nil {
			continue
		}
		if existing, dup := byKind[s.Kind]; dup {
			return nil, apperrors.NewNormalizationError(
				fmt.Sprintf("duplicate %s statement (sources %s, %s)", s.Kind, existing.Source, s.Source), nil)
		}
		byKind[s.Kind] = s
		symbol = s.Symbol
	}
	if len(byKind) == 0 {
		return nil, apperrors.NewInsufficientDataError("no statements to align")
	}

	// Count period keys across kinds; keep keys present in every statement.
	counts := make(map[string]int)
	periodByKey := make(map[string]domain.Period)
	for _, s := range byKind {
		for _, p := range s.Periods {
			counts[p.Key()]++
			periodByKey[p.Key()] = p
		}
	}
	var keys []string
	for key, c := range counts {
		if c == len(byKind) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, apperrors.NewInsufficientDataError(
			fmt.Sprintf("statements for %s share no reporting period", symbol))
	}
	sort.Strings(keys)

	periods := make([]domain.Period, len(keys))
	for i, key := range keys {
		periods[i] = periodByKey[key]
	}

	index := make(map[domain.StatementKind][]int, len(byKind))
	for kind, s := range byKind {
		idx := make([]int, len(keys))
		for i, key := range keys {
			idx[i] = s.PeriodIndex(key)
		}
		index[kind] = idx
	}

	return &Set{
		Symbol:     symbol,
		Periods:    periods,
		index:      index,
		statements: byKind,
	}, nil
}

// Len returns the number of aligned periods.
func (s *Set) Len() int { return len(s.Periods) }

// Has reports whether the set carries a statement of the given kind.
func (s *Set) Has(kind domain.StatementKind) bool {
	_, ok := s.statements[kind]
	return ok
}

// Statement returns the underlying normalized statement for a kind, or nil.
func (s *Set) Statement(kind domain.StatementKind) *NormalizedStatement {
	return s.statements[kind]
}

// Value returns the cell for (kind, item) at aligned period index i.
func (s *Set) Value(kind domain.StatementKind, item LineItem, i int) metrics.Value {
	stmt, ok := s.statements[kind]
	if !ok || i < 0 || i >= len(s.Periods) {
		return metrics.Undefined
	}
	return stmt.Value(item, s.index[kind][i])
}

// Series returns the aligned per-period series for (kind, item).
func (s *Set) Series(kind domain.StatementKind, item LineItem) []metrics.Value {
	out := make([]metrics.Value, len(s.Periods))
	for i := range s.Periods {
		out[i] = s.Value(kind, item, i)
	}
	return out
}

// BS, IS and CF are shorthands for the three statement kinds.
func (s *Set) BS(item LineItem, i int) metrics.Value {
	return s.Value(domain.StatementBalanceSheet, item, i)
}

func (s *Set) IS(item LineItem, i int) metrics.Value {
	return s.Value(domain.StatementIncome, item, i)
}

func (s *Set) CF(item LineItem, i int) metrics.Value {
	return s.Value(domain.StatementCashFlow, item, i)
}

// HasAny reports whether (kind, item) is defined in at least one aligned period.
func (s *Set) HasAny(kind domain.StatementKind, item LineItem) bool {
	for i := range s.Periods {
		if s.Value(kind, item, i).IsDefined() {
			return true
		}
	}
	return false
}

// Freq returns the reporting frequency of the aligned periods.
func (s *Set) Freq() domain.Frequency {
	if len(s.Periods) == 0 {
		return domain.FrequencyAnnual
	}
	return s.Periods[0].Freq
}

// TTMWindow returns the trailing-twelve-month window length for the set's
// frequency: four quarterly periods, or one annual period.
func (s *Set) TTMWindow() int {
	if s.Freq() == domain.FrequencyQuarterly {
		return 4
	}
	return 1
}
