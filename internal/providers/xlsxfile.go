package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/identity"
	"equitylens/internal/statement"
	"equitylens/pkg/contracts/domain"
)

// sheetNames lists, per statement kind, the sheet names seen in exported
// statement workbooks, Chinese disclosure exports first.
var sheetNames = map[domain.StatementKind][]string{
	domain.StatementBalanceSheet: {"资产负债表", "Balance Sheet", "BalanceSheet", "BS"},
	domain.StatementIncome:       {"利润表", "Income Statement", "IncomeStatement", "IS"},
	domain.StatementCashFlow:     {"现金流量表", "Cash Flow Statement", "CashFlow", "CF"},
}

// XLSXFile reads statements from a local Excel workbook, one sheet per
// statement kind, laid out with line-item labels in the first column and
// period dates in the header row. It serves offline analysis of exported
// disclosure files; no network is involved.
type XLSXFile struct {
	// path renders the workbook location for a symbol.
	path   func(sec identity.Security) string
	logger *slog.Logger
}

// NewXLSXFile creates the workbook reader around a path template.
func NewXLSXFile(path func(identity.Security) string, logger *slog.Logger) *XLSXFile {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXFile{path: path, logger: logger}
}

// FetchStatement reads one statement sheet from the symbol's workbook.
func (x *XLSXFile) FetchStatement(ctx context.Context, sec identity.Security, kind domain.StatementKind) (*statement.RawStatement, error) {
	filePath := x.path(sec)
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, apperrors.NewDataUnavailableError(
			fmt.Sprintf("open statement workbook %s", filePath), err)
	}
	defer f.Close()

	rows, sheetName, err := findStatementSheet(f, kind)
	if err != nil {
		return nil, err
	}

	raw, err := rowsToRawStatement(rows, sec.Symbol, kind)
	if err != nil {
		return nil, err
	}

	x.logger.InfoContext(ctx, "statement read from workbook",
		slog.String("symbol", sec.Symbol),
		slog.String("kind", string(kind)),
		slog.String("sheet", sheetName),
		slog.Int("columns", len(raw.Columns)),
	)
	return raw, nil
}

// findStatementSheet tries the known sheet names first, then falls back to
// any sheet whose header row carries period dates.
func findStatementSheet(f *excelize.File, kind domain.StatementKind) ([][]string, string, error) {
	for _, name := range sheetNames[kind] {
		if rows, err := f.GetRows(name); err == nil && len(rows) > 1 {
			return rows, name, nil
		}
	}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) < 2 || len(rows[0]) < 2 {
			continue
		}
		if looksLikeDate(strings.TrimSpace(rows[0][1])) {
			return rows, name, nil
		}
	}
	return nil, "", apperrors.NewDataUnavailableError(
		fmt.Sprintf("no %s sheet in workbook", kind), nil)
}

func rowsToRawStatement(rows [][]string, symbol string, kind domain.StatementKind) (*statement.RawStatement, error) {
	header := rows[0]
	if len(header) < 2 {
		return nil, apperrors.NewDataUnavailableError("statement sheet has no period columns", nil)
	}

	columns := make([]statement.RawColumn, 0, len(header)-1)
	for _, label := range header[1:] {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		columns = append(columns, statement.RawColumn{
			PeriodLabel: normalizeExcelDate(label),
			Cells:       make(map[string]string),
		})
	}

	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		label := strings.TrimSpace(row[0])
		if label == "" {
			continue
		}
		for i := range columns {
			if i+1 < len(row) {
				columns[i].Cells[label] = strings.TrimSpace(row[i+1])
			}
		}
	}

	return &statement.RawStatement{
		Symbol:  symbol,
		Kind:    kind,
		Source:  "xlsx",
		Columns: columns,
	}, nil
}

// normalizeExcelDate converts the date renderings Excel produces
// (2023/12/31, 31-12-2023 stays untouched, serial-formatted cells come
// through as m/d/yy) into the normalizer's expected layouts where possible.
func normalizeExcelDate(s string) string {
	for _, layout := range []string{"1/2/06", "01/02/06", "1/2/2006", "2006/1/2"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}
