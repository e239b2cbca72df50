package domain

// StatementKind identifies one of the three financial statement types.
type StatementKind string

const (
	StatementBalanceSheet StatementKind = "balance_sheet"
	StatementIncome       StatementKind = "income_statement"
	StatementCashFlow     StatementKind = "cash_flow_statement"
)

// AllStatementKinds lists the statement kinds in canonical order.
var AllStatementKinds = []StatementKind{
	StatementBalanceSheet,
	StatementIncome,
	StatementCashFlow,
}

// IsValid reports whether k is a recognized statement kind.
func (k StatementKind) IsValid() bool {
	switch k {
	case StatementBalanceSheet, StatementIncome, StatementCashFlow:
		return true
	}
	return false
}

// DataKind identifies a cacheable artifact class. Cache entries are keyed by
// (identifier, data kind, as-of date) and are immutable once written.
type DataKind string

const (
	DataKindPrices DataKind = "prices"
)

// StatementDataKind maps a statement kind to its cache data kind.
func StatementDataKind(k StatementKind) DataKind {
	return DataKind("statement_" + string(k))
}
