package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/identity"
	"equitylens/pkg/contracts/domain"
)

const disclosurePage = `<html><body>
<table>
  <tr><th>栏目</th><th>说明</th></tr>
  <tr><td>公司简称</td><td>贵州茅台</td></tr>
</table>
<table>
  <tr><th>项目</th><th>2023-12-31</th><th>2022-12-31</th></tr>
  <tr><td>资产总计</td><td>100.0</td><td>90.0</td></tr>
  <tr><td>存货</td><td> 20.0 </td><td>18.0</td></tr>
  <tr><td></td><td>ignored</td><td>ignored</td></tr>
</table>
</body></html>`

func TestParseStatementHTML(t *testing.T) {
	raw, err := ParseStatementHTML([]byte(disclosurePage), "600519", domain.StatementBalanceSheet)
	require.NoError(t, err)

	assert.Equal(t, "html", raw.Source)
	require.Len(t, raw.Columns, 2)
	assert.Equal(t, "2023-12-31", raw.Columns[0].PeriodLabel)
	assert.Equal(t, "2022-12-31", raw.Columns[1].PeriodLabel)
	assert.Equal(t, "100.0", raw.Columns[0].Cells["资产总计"])
	assert.Equal(t, "20.0", raw.Columns[0].Cells["存货"])
	assert.Equal(t, "18.0", raw.Columns[1].Cells["存货"])
	assert.NotContains(t, raw.Columns[0].Cells, "")
}

func TestParseStatementHTML_NoPeriodTable(t *testing.T) {
	page := `<html><body><table><tr><th>a</th><th>b</th></tr><tr><td>1</td><td>2</td></tr></table></body></html>`
	_, err := ParseStatementHTML([]byte(page), "600519", domain.StatementIncome)
	require.Error(t, err)
	assert.True(t, apperrors.IsDataUnavailable(err))
}

func TestHTMLTable_FetchStatement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/statements/600519/balance_sheet", r.URL.Path)
		w.Write([]byte(disclosurePage))
	}))
	defer srv.Close()

	scraper := NewHTMLTable(testClient(), func(sec identity.Security, kind domain.StatementKind) string {
		return srv.URL + "/statements/" + sec.Symbol + "/" + string(kind)
	}, nil)

	raw, err := scraper.FetchStatement(context.Background(), identity.MustParse("600519"), domain.StatementBalanceSheet)
	require.NoError(t, err)
	assert.Equal(t, "600519", raw.Symbol)
	assert.Len(t, raw.Columns, 2)
}

func TestLooksLikeDate(t *testing.T) {
	assert.True(t, looksLikeDate("2023-12-31"))
	assert.True(t, looksLikeDate("2023/12/31"))
	assert.False(t, looksLikeDate("说明"))
	assert.False(t, looksLikeDate("2023-12-3"))
	assert.False(t, looksLikeDate("31-12-2023"))
}
