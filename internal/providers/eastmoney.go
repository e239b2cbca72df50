package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/fetch"
	"equitylens/internal/identity"
	"equitylens/internal/statement"
	"equitylens/pkg/contracts/domain"
)

const defaultEastMoneyBaseURL = "https://push2his.eastmoney.com"

// statementEndpoints maps a statement kind to its report type parameter.
var statementEndpoints = map[domain.StatementKind]string{
	domain.StatementBalanceSheet: "zcfzb",
	domain.StatementIncome:       "lrb",
	domain.StatementCashFlow:     "xjllb",
}

// EastMoney fetches A-share statements and daily price bars from the
// EastMoney JSON API. Only Shanghai and Shenzhen listings are covered;
// other markets fail fast with DataUnavailable so callers can fall through
// to another provider.
type EastMoney struct {
	client  *fetch.Client
	baseURL string
	logger  *slog.Logger
}

// NewEastMoney creates the provider. An empty baseURL selects the public
// endpoint; tests point it at a local server.
func NewEastMoney(client *fetch.Client, baseURL string, logger *slog.Logger) *EastMoney {
	if baseURL == "" {
		baseURL = defaultEastMoneyBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EastMoney{client: client, baseURL: baseURL, logger: logger}
}

type klineResponse struct {
	Data struct {
		Code   string   `json:"code"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// FetchPrices downloads daily bars for [start, end].
func (e *EastMoney) FetchPrices(ctx context.Context, sec identity.Security, start, end time.Time) (*domain.PriceSeries, error) {
	secid, err := e.secid(sec)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/api/qt/stock/kline/get?secid=%s&klt=101&fqt=1&beg=%s&end=%s&fields1=f1,f2,f3&fields2=f51,f52,f53,f54,f55,f56",
		e.baseURL, url.QueryEscape(secid),
		start.Format("20060102"), end.Format("20060102"))

	var resp klineResponse
	if err := e.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	series := &domain.PriceSeries{Symbol: sec.Symbol}
	for _, line := range resp.Data.Klines {
		bar, err := parseKline(line)
		if err != nil {
			e.logger.WarnContext(ctx, "skipping malformed kline",
				slog.String("symbol", sec.Symbol),
				slog.String("line", line),
				slog.Any("error", err),
			)
			continue
		}
		series.Bars = append(series.Bars, bar)
	}
	if err := series.Validate(); err != nil {
		return nil, apperrors.NewDataUnavailableError("provider returned inconsistent price series", err)
	}

	e.logger.InfoContext(ctx, "prices fetched",
		slog.String("symbol", sec.Symbol),
		slog.Int("bars", len(series.Bars)),
	)
	return series, nil
}

type reportResponse struct {
	Data []struct {
		ReportDate string            `json:"REPORT_DATE"`
		NoticeDate string            `json:"NOTICE_DATE"`
		Cells      map[string]string `json:"CELLS"`
	} `json:"data"`
}

// FetchStatement downloads one raw statement table.
func (e *EastMoney) FetchStatement(ctx context.Context, sec identity.Security, kind domain.StatementKind) (*statement.RawStatement, error) {
	if _, err := e.secid(sec); err != nil {
		return nil, err
	}
	endpoint, ok := statementEndpoints[kind]
	if !ok {
		return nil, apperrors.NewDataUnavailableError(
			fmt.Sprintf("no endpoint for statement kind %q", kind), nil)
	}

	u := fmt.Sprintf("%s/api/qt/report/get?type=%s&code=%s", e.baseURL, endpoint, url.QueryEscape(sec.Symbol))

	var resp reportResponse
	if err := e.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, apperrors.NewDataUnavailableError(
			fmt.Sprintf("provider returned no %s periods for %s", kind, sec.Symbol), nil)
	}

	raw := &statement.RawStatement{
		Symbol: sec.Symbol,
		Kind:   kind,
		Source: "eastmoney",
		Freq:   domain.FrequencyQuarterly,
	}
	for _, col := range resp.Data {
		published, _ := time.Parse("2006-01-02", col.NoticeDate)
		raw.Columns = append(raw.Columns, statement.RawColumn{
			PeriodLabel: col.ReportDate,
			PublishedAt: published,
			Cells:       col.Cells,
		})
	}

	e.logger.InfoContext(ctx, "statement fetched",
		slog.String("symbol", sec.Symbol),
		slog.String("kind", string(kind)),
		slog.Int("columns", len(raw.Columns)),
	)
	return raw, nil
}

// secid is the exchange-prefixed code the kline API expects: 1 for
// Shanghai, 0 for Shenzhen.
func (e *EastMoney) secid(sec identity.Security) (string, error) {
	switch sec.Market {
	case identity.MarketShanghai:
		return "1." + sec.Symbol, nil
	case identity.MarketShenzhen:
		return "0." + sec.Symbol, nil
	default:
		return "", apperrors.NewDataUnavailableError(
			fmt.Sprintf("market %s not covered by eastmoney", sec.Market), nil)
	}
}

// parseKline decodes one "date,open,close,high,low,volume" line.
func parseKline(line string) (domain.PriceBar, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 6 {
		return domain.PriceBar{}, fmt.Errorf("kline has %d fields, want 6", len(parts))
	}
	date, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("kline date: %w", err)
	}
	nums := make([]float64, 5)
	for i := 0; i < 5; i++ {
		nums[i], err = strconv.ParseFloat(parts[i+1], 64)
		if err != nil {
			return domain.PriceBar{}, fmt.Errorf("kline field %d: %w", i+1, err)
		}
	}
	bar := domain.PriceBar{
		Date:   date,
		Open:   nums[0],
		Close:  nums[1],
		High:   nums[2],
		Low:    nums[3],
		Volume: nums[4],
	}
	if !bar.IsValid() {
		return domain.PriceBar{}, fmt.Errorf("inconsistent OHLC in kline")
	}
	return bar, nil
}
