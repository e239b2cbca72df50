package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/fetch"
	"equitylens/internal/identity"
	"equitylens/internal/statement"
	"equitylens/pkg/contracts/domain"
)

// stubProvider serves a fixed three-period fixture.
type stubProvider struct {
	mu             sync.Mutex
	statementCalls int
	priceCalls     int

	priceErr  error
	dropKinds map[domain.StatementKind]bool
}

func (p *stubProvider) FetchPrices(ctx context.Context, sec identity.Security, start, end time.Time) (*domain.PriceSeries, error) {
	p.mu.Lock()
	p.priceCalls++
	p.mu.Unlock()
	if p.priceErr != nil {
		return nil, p.priceErr
	}
	return &domain.PriceSeries{
		Symbol: sec.Symbol,
		Bars: []domain.PriceBar{
			{Date: mustDate("2024-03-28"), Open: 1.9, High: 2.1, Low: 1.8, Close: 1.9, Volume: 1000},
			{Date: mustDate("2024-03-29"), Open: 1.9, High: 2.2, Low: 1.9, Close: 2.0, Volume: 1200},
		},
	}, nil
}

func (p *stubProvider) FetchStatement(ctx context.Context, sec identity.Security, kind domain.StatementKind) (*statement.RawStatement, error) {
	p.mu.Lock()
	p.statementCalls++
	p.mu.Unlock()
	if p.dropKinds[kind] {
		return nil, apperrors.NewDataUnavailableError("statement feed down", nil)
	}
	return fixtureStatement(sec.Symbol, kind), nil
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

var fixtureRows = map[domain.StatementKind]map[string][3]string{
	domain.StatementBalanceSheet: {
		"Total Assets":              {"100", "110", "120"},
		"Total Current Assets":      {"50", "55", "60"},
		"Total Current Liabilities": {"30", "32", "34"},
		"Total Liabilities":         {"40", "42", "44"},
		"Total Equity Attributable to Shareholders of the Parent Company": {"60", "68", "76"},
		"Retained Earnings":         {"20", "24", "28"},
		"Share Capital":             {"40", "40", "40"},
		"Cash and Cash Equivalents": {"10", "11", "12"},
		"Accounts Receivable":       {"8", "9", "10"},
		"Inventories":               {"12", "13", "14"},
		"Accounts Payable":          {"6", "7", "8"},
	},
	domain.StatementIncome: {
		"Operating Revenue":   {"120", "130", "140"},
		"Operating Costs":     {"70", "75", "80"},
		"Operating Profit":    {"15", "17", "19"},
		"Interest Expenses":   {"2", "2", "2"},
		"Total Profit":        {"14", "16", "18"},
		"Income Tax Expenses": {"3", "4", "4"},
		"Net Income":          {"11", "12", "14"},
		"Basic EPS":           {"0.5", "0.55", "0.6"},
	},
	domain.StatementCashFlow: {
		"Operating Cash Flow":                          {"13", "14", "16"},
		"Capital Expenditure":                          {"5", "5", "6"},
		"Cash Paid for Debt Repayment":                 {"2", "2", "2"},
		"Cash Paid for Dividends, Profits or Interest": {"3", "3", "3"},
		"Depreciation and Amortization":                {"4", "4", "4"},
	},
}

// fixtureStatement builds the raw table latest period first, so normalization
// has to reorder it.
func fixtureStatement(symbol string, kind domain.StatementKind) *statement.RawStatement {
	labels := [3]string{"2021-12-31", "2022-12-31", "2023-12-31"}
	raw := &statement.RawStatement{
		Symbol: symbol,
		Kind:   kind,
		Source: "stub",
		Freq:   domain.FrequencyAnnual,
	}
	for i := 2; i >= 0; i-- {
		cells := make(map[string]string)
		for label, values := range fixtureRows[kind] {
			cells[label] = values[i]
		}
		raw.Columns = append(raw.Columns, statement.RawColumn{
			PeriodLabel: labels[i],
			Cells:       cells,
		})
	}
	return raw
}

func TestAnalyze_AllModulesSucceed(t *testing.T) {
	provider := &stubProvider{}
	runner := NewRunner(provider, nil, Config{}, nil)

	analysis := runner.Analyze(context.Background(), "600519")
	require.False(t, analysis.Failed(), "analysis error: %v", analysis.Err)

	assert.Equal(t, "600519", analysis.Security.Symbol)
	assert.Equal(t, identity.MarketShanghai, analysis.Security.Market)
	require.Len(t, analysis.Outcomes, 7)
	assert.Equal(t, 7, analysis.Succeeded())

	z := analysis.OutcomeFor("z_score")
	require.NotNil(t, z)
	require.NoError(t, z.Err)
	assert.Equal(t, 3, z.Result.Len())
	assert.NotEmpty(t, z.Result.LatestLabel())
	assert.Contains(t, z.Report, "Altman Z-Score")

	val := analysis.OutcomeFor("valuation")
	require.NotNil(t, val)
	require.NoError(t, val.Err)
	assert.True(t, val.Result.Latest("static_pe").IsDefined())

	require.NotNil(t, analysis.Benford)
	assert.Equal(t, 72, analysis.Benford.SampleSize)
	assert.Contains(t, analysis.BenfordReport, "Benford")
}

func TestAnalyze_PriceFailureDegradesValuationOnly(t *testing.T) {
	provider := &stubProvider{priceErr: apperrors.NewDataUnavailableError("quote feed down", nil)}
	runner := NewRunner(provider, nil, Config{}, nil)

	analysis := runner.Analyze(context.Background(), "600519")
	require.False(t, analysis.Failed())

	val := analysis.OutcomeFor("valuation")
	require.NotNil(t, val)
	require.Error(t, val.Err)
	assert.True(t, apperrors.IsInsufficientData(val.Err))
	assert.Nil(t, val.Result)

	// Z-Score falls back to book equity and still computes.
	z := analysis.OutcomeFor("z_score")
	require.NoError(t, z.Err)
	assert.True(t, z.Result.Latest("z").IsDefined())

	require.NotEmpty(t, analysis.Warnings)
	assert.Contains(t, analysis.Warnings[len(analysis.Warnings)-1], "prices unavailable")
}

func TestAnalyze_MissingStatementKindDegrades(t *testing.T) {
	provider := &stubProvider{dropKinds: map[domain.StatementKind]bool{
		domain.StatementCashFlow: true,
	}}
	runner := NewRunner(provider, nil, Config{}, nil)

	analysis := runner.Analyze(context.Background(), "600519")
	require.False(t, analysis.Failed())

	cf := analysis.OutcomeFor("cash_flow")
	require.NotNil(t, cf)
	require.Error(t, cf.Err)
	assert.True(t, apperrors.IsInsufficientData(cf.Err))

	require.NoError(t, analysis.OutcomeFor("profitability").Err)
	assert.Contains(t, analysis.Warnings[0], "cash_flow_statement unavailable")
}

func TestAnalyze_InvalidIdentifier(t *testing.T) {
	provider := &stubProvider{}
	runner := NewRunner(provider, nil, Config{}, nil)

	analysis := runner.Analyze(context.Background(), "not-a-symbol")
	require.True(t, analysis.Failed())
	assert.True(t, apperrors.IsValidation(analysis.Err))
	assert.Zero(t, provider.statementCalls)
}

func TestAnalyze_CacheShortCircuitsSecondRun(t *testing.T) {
	provider := &stubProvider{}
	cache, err := fetch.NewCache(t.TempDir(), nil)
	require.NoError(t, err)
	runner := NewRunner(provider, cache, Config{}, nil)

	first := runner.Analyze(context.Background(), "600519")
	require.False(t, first.Failed())
	second := runner.Analyze(context.Background(), "600519")
	require.False(t, second.Failed())

	assert.Equal(t, 3, provider.statementCalls)
	assert.Equal(t, 1, provider.priceCalls)
	assert.Equal(t, second.Succeeded(), first.Succeeded())
}

func TestRun_KeepsInputOrderAndIsolatesFailures(t *testing.T) {
	provider := &stubProvider{}
	runner := NewRunner(provider, nil, Config{Workers: 2}, nil)

	results, err := runner.Run(context.Background(), []string{"600519", "bogus!", "000001"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "600519", results[0].Identifier)
	assert.False(t, results[0].Failed())
	assert.True(t, results[1].Failed())
	assert.Equal(t, "000001", results[2].Identifier)
	assert.False(t, results[2].Failed())
}
