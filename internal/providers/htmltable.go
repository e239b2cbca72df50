package providers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/fetch"
	"equitylens/internal/identity"
	"equitylens/internal/statement"
	"equitylens/pkg/contracts/domain"
)

// HTMLTable scrapes statement tables from disclosure pages. The expected
// layout is the common one: a header row whose cells after the first are
// period dates, then one row per line item with the label in the first cell.
type HTMLTable struct {
	client *fetch.Client
	// pageURL renders the page address for (symbol, kind).
	pageURL func(sec identity.Security, kind domain.StatementKind) string
	logger  *slog.Logger
}

// NewHTMLTable creates the scraper around a page-address template.
func NewHTMLTable(client *fetch.Client, pageURL func(identity.Security, domain.StatementKind) string, logger *slog.Logger) *HTMLTable {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTMLTable{client: client, pageURL: pageURL, logger: logger}
}

// FetchStatement downloads the disclosure page and extracts the statement
// table.
func (h *HTMLTable) FetchStatement(ctx context.Context, sec identity.Security, kind domain.StatementKind) (*statement.RawStatement, error) {
	pageURL := h.pageURL(sec, kind)
	if _, err := url.Parse(pageURL); err != nil {
		return nil, apperrors.NewDataUnavailableError("bad disclosure page url", err)
	}

	body, err := h.client.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	raw, err := ParseStatementHTML(body, sec.Symbol, kind)
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "statement scraped",
		slog.String("symbol", sec.Symbol),
		slog.String("kind", string(kind)),
		slog.Int("columns", len(raw.Columns)),
	)
	return raw, nil
}

// ParseStatementHTML extracts the first table whose header looks like a
// period axis. Exported so cached page snapshots can be re-parsed offline.
func ParseStatementHTML(page []byte, symbol string, kind domain.StatementKind) (*statement.RawStatement, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, apperrors.NewDataUnavailableError("parse disclosure page", err)
	}

	var raw *statement.RawStatement
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		candidate, ok := parseTable(table, symbol, kind)
		if ok {
			raw = candidate
			return false
		}
		return true
	})
	if raw == nil {
		return nil, apperrors.NewDataUnavailableError(
			fmt.Sprintf("no statement table found for %s %s", symbol, kind), nil)
	}
	return raw, nil
}

func parseTable(table *goquery.Selection, symbol string, kind domain.StatementKind) (*statement.RawStatement, bool) {
	rows := table.Find("tr")
	if rows.Length() < 2 {
		return nil, false
	}

	// Header cells after the label column must be period dates.
	var periodLabels []string
	rows.First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
		if i == 0 {
			return
		}
		periodLabels = append(periodLabels, strings.TrimSpace(cell.Text()))
	})
	if len(periodLabels) == 0 || !looksLikeDate(periodLabels[0]) {
		return nil, false
	}

	columns := make([]statement.RawColumn, len(periodLabels))
	for i, label := range periodLabels {
		columns[i] = statement.RawColumn{
			PeriodLabel: label,
			Cells:       make(map[string]string),
		}
	}

	rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return
		}
		label := strings.TrimSpace(cells.First().Text())
		if label == "" {
			return
		}
		cells.Slice(1, cells.Length()).Each(func(i int, cell *goquery.Selection) {
			if i < len(columns) {
				columns[i].Cells[label] = strings.TrimSpace(cell.Text())
			}
		})
	})

	return &statement.RawStatement{
		Symbol:  symbol,
		Kind:    kind,
		Source:  "html",
		Columns: columns,
	}, true
}

// looksLikeDate accepts YYYY-MM-DD and YYYY/MM/DD header cells.
func looksLikeDate(s string) bool {
	if len(s) != 10 {
		return false
	}
	for i, r := range s {
		switch i {
		case 4, 7:
			if r != '-' && r != '/' {
				return false
			}
		default:
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
