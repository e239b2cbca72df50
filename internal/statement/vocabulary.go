package statement

import "equitylens/pkg/contracts/domain"

// LineItem is a canonical statement line-item identifier. Metric modules
// reference statements only through this vocabulary; provider-specific labels
// are translated at the normalization boundary.
type LineItem string

// VocabularyVersion identifies the mapping-table revision. Bump when labels
// are added or remapped so cached normalized statements can be invalidated.
const VocabularyVersion = "2025.2"

// Balance sheet items.
const (
	TotalAssets             LineItem = "totalAssets"
	TotalCurrentAssets      LineItem = "totalCurrentAssets"
	TotalCurrentLiabilities LineItem = "totalCurrentLiabilities"
	TotalNonCurrentLiabs    LineItem = "totalNonCurrentLiabilities"
	TotalLiabilities        LineItem = "totalLiabilities"
	TotalEquity             LineItem = "totalEquity"
	RetainedEarnings        LineItem = "retainedEarnings"
	ShareCapital            LineItem = "shareCapital"
	CashAndEquivalents      LineItem = "cashAndEquivalents"
	AccountsReceivable      LineItem = "accountsReceivable"
	Inventories             LineItem = "inventories"
	AccountsPayable         LineItem = "accountsPayable"
	NetFixedAssets          LineItem = "netFixedAssets"
	CostOfFixedAssets       LineItem = "costOfFixedAssets"
	AccumulatedDepreciation LineItem = "accumulatedDepreciation"
	ShortTermBorrowings     LineItem = "shortTermBorrowings"
	LongTermBorrowings      LineItem = "longTermBorrowings"
)

// Income statement items.
const (
	Revenue          LineItem = "revenue"
	CostOfGoodsSold  LineItem = "costOfGoodsSold"
	OperatingProfit  LineItem = "operatingProfit"
	InterestExpense  LineItem = "interestExpense"
	PretaxProfit     LineItem = "pretaxProfit"
	IncomeTaxExpense LineItem = "incomeTaxExpense"
	NetIncome        LineItem = "netIncome"
	SellingExpenses  LineItem = "sellingExpenses"
	AdminExpenses    LineItem = "adminExpenses"
	BasicEPS         LineItem = "basicEPS"
)

// Cash-flow statement items.
const (
	OperatingCashFlow   LineItem = "operatingCashFlow"
	CapitalExpenditure  LineItem = "capitalExpenditure"
	DebtRepayment       LineItem = "debtRepayment"
	DividendsPaid       LineItem = "dividendsPaid"
	DepreciationAndAmor LineItem = "depreciationAndAmortization"
)

// vocabulary lists, per statement kind, every canonical item a metric module
// may request. Normalized statements carry a row for each listed item;
// unmapped provider rows are dropped with a warning, and absent items stay
// explicitly missing rather than zero.
var vocabulary = map[domain.StatementKind][]LineItem{
	domain.StatementBalanceSheet: {
		TotalAssets, TotalCurrentAssets, TotalCurrentLiabilities,
		TotalNonCurrentLiabs, TotalLiabilities, TotalEquity, RetainedEarnings,
		ShareCapital, CashAndEquivalents, AccountsReceivable, Inventories,
		AccountsPayable, NetFixedAssets, CostOfFixedAssets,
		AccumulatedDepreciation, ShortTermBorrowings, LongTermBorrowings,
	},
	domain.StatementIncome: {
		Revenue, CostOfGoodsSold, OperatingProfit, InterestExpense,
		PretaxProfit, IncomeTaxExpense, NetIncome, SellingExpenses,
		AdminExpenses, BasicEPS,
	},
	domain.StatementCashFlow: {
		OperatingCashFlow, CapitalExpenditure, DebtRepayment, DividendsPaid,
		DepreciationAndAmor,
	},
}

// Vocabulary returns the canonical line items for a statement kind.
func Vocabulary(kind domain.StatementKind) []LineItem {
	return vocabulary[kind]
}

// labelMaps translate provider row labels to canonical items, one table per
// statement kind. Both the Chinese disclosure labels and their English
// export forms are listed so that A-share, HK, and US provider payloads all
// resolve without provider-specific branching in the normalizer.
var labelMaps = map[domain.StatementKind]map[string]LineItem{
	domain.StatementBalanceSheet: {
		// Totals
		"资产总计":                          TotalAssets,
		"资产合计":                          TotalAssets,
		"Total Assets":                  TotalAssets,
		"流动资产合计":                        TotalCurrentAssets,
		"Total Current Assets":          TotalCurrentAssets,
		"流动负债合计":                        TotalCurrentLiabilities,
		"Total Current Liabilities":     TotalCurrentLiabilities,
		"非流动负债合计":                       TotalNonCurrentLiabs,
		"Total Non-current Liabilities": TotalNonCurrentLiabs,
		"负债合计":                          TotalLiabilities,
		"Total Liabilities":             TotalLiabilities,
		// Equity
		"所有者权益(或股东权益)合计":                                                  TotalEquity,
		"归属于母公司股东权益合计":                                                    TotalEquity,
		"Total Owner's Equity (or Shareholders' Equity)":                  TotalEquity,
		"Total Equity Attributable to Shareholders of the Parent Company": TotalEquity,
		"Total Shareholders Equity":                                       TotalEquity,
		"未分配利润":                                                           RetainedEarnings,
		"留存收益":                                                            RetainedEarnings,
		"Retained Earnings":                                               RetainedEarnings,
		"Undistributed Profit":                                            RetainedEarnings,
		"实收资本(或股本)":                                                       ShareCapital,
		"股本":                                                              ShareCapital,
		"Paid-in Capital (or Share Capital)":                              ShareCapital,
		"Share Capital":                                                   ShareCapital,
		// Working-capital components
		"货币资金":                      CashAndEquivalents,
		"现金及现金等价物":                  CashAndEquivalents,
		"Cash and Cash Equivalents": CashAndEquivalents,
		"应收账款":                      AccountsReceivable,
		"Accounts Receivable":       AccountsReceivable,
		"存货":                        Inventories,
		"Inventories":               Inventories,
		"应付账款":                      AccountsPayable,
		"Accounts Payable":          AccountsPayable,
		// Fixed assets and depreciation
		"固定资产净额":                   NetFixedAssets,
		"固定资产":                     NetFixedAssets,
		"Net Fixed Assets":         NetFixedAssets,
		"固定资产原值":                   CostOfFixedAssets,
		"Cost of Fixed Assets":     CostOfFixedAssets,
		"累计折旧":                     AccumulatedDepreciation,
		"Accumulated Depreciation": AccumulatedDepreciation,
		// Debt
		"短期借款":                  ShortTermBorrowings,
		"Short-term Borrowings": ShortTermBorrowings,
		"长期借款":                  LongTermBorrowings,
		"Long-term Borrowings":  LongTermBorrowings,
	},
	domain.StatementIncome: {
		"营业收入":                              Revenue,
		"营业总收入":                             Revenue,
		"Operating Revenue":                 Revenue,
		"Total Operating Revenue":           Revenue,
		"营业成本":                              CostOfGoodsSold,
		"Operating Costs":                   CostOfGoodsSold,
		"Cost of Goods Sold":                CostOfGoodsSold,
		"营业利润":                              OperatingProfit,
		"Operating Profit":                  OperatingProfit,
		"利息费用":                              InterestExpense,
		"利息支出":                              InterestExpense,
		"Interest Expenses":                 InterestExpense,
		"利润总额":                              PretaxProfit,
		"Total Profit":                      PretaxProfit,
		"所得税费用":                             IncomeTaxExpense,
		"Income Tax Expenses":               IncomeTaxExpense,
		"归属于母公司所有者的净利润":                     NetIncome,
		"净利润":                               NetIncome,
		"Net Profit Attributable to Parent": NetIncome,
		"Net Profit":                        NetIncome,
		"Net Income":                        NetIncome,
		"销售费用":                              SellingExpenses,
		"Selling Expenses":                  SellingExpenses,
		"管理费用":                              AdminExpenses,
		"Administrative Expenses":           AdminExpenses,
		"基本每股收益":                            BasicEPS,
		"Basic EPS":                         BasicEPS,
	},
	domain.StatementCashFlow: {
		"经营活动产生的现金流量净额":                                               OperatingCashFlow,
		"Net Cash Flow from Operating Activities":                     OperatingCashFlow,
		"Operating Cash Flow":                                         OperatingCashFlow,
		"购建固定资产、无形资产和其他长期资产支付的现金":                                     CapitalExpenditure,
		"购建固定资产、无形资产和其他长期资产所支付的现金":                                    CapitalExpenditure,
		"Cash Paid for Fixed Assets, Intangibles and Other LT Assets": CapitalExpenditure,
		"Capital Expenditure":                                         CapitalExpenditure,
		"偿还债务支付的现金":                                                   DebtRepayment,
		"偿还债务所支付的现金":                                                  DebtRepayment,
		"Cash Paid for Debt Repayment":                                DebtRepayment,
		"分配股利、利润或偿付利息支付的现金":                                           DividendsPaid,
		"分配股利、利润或偿付利息所支付的现金":                                          DividendsPaid,
		"Cash Paid for Dividends, Profits or Interest":                DividendsPaid,
		"固定资产折旧、油气资产折耗、生产性生物资产折旧":                                     DepreciationAndAmor,
		"折旧与摊销":                         DepreciationAndAmor,
		"Depreciation and Amortization": DepreciationAndAmor,
	},
}

// labelRank breaks ties when several provider labels map to one canonical
// item within a single column. Higher rank wins; unlisted labels rank zero.
// The attributable-to-parent figures are preferred over consolidated totals,
// and explicit totals over their aliases.
var labelRank = map[string]int{
	"归属于母公司所有者的净利润":                                                   1,
	"Net Profit Attributable to Parent":                               1,
	"归属于母公司股东权益合计":                                                    1,
	"Total Equity Attributable to Shareholders of the Parent Company": 1,
	"资产总计":             1,
	"Total Assets":     1,
	"固定资产净额":           1,
	"Net Fixed Assets": 1,
}

// LookupLabel resolves a provider row label to a canonical line item.
func LookupLabel(kind domain.StatementKind, label string) (LineItem, bool) {
	table, ok := labelMaps[kind]
	if !ok {
		return "", false
	}
	item, ok := table[label]
	return item, ok
}
