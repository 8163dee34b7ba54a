package eodhd

import (
	"fmt"
	"strings"

	"github.com/etnz/curator"
	"github.com/etnz/curator/block"
	"github.com/shopspring/decimal"
)

// EODHD endpoints. Fundamental statements are extracted from the single
// fundamentals document.
const (
	EndOfDay         curator.Endpoint = "EOD"
	SplitAdjustedEOD curator.Endpoint = "EOD_SPLIT_ADJUSTED"
	Dividends        curator.Endpoint = "DIV"
	Splits           curator.Endpoint = "SPLITS"
	BalanceSheet     curator.Endpoint = "BALANCE_SHEET"
	CashFlow         curator.Endpoint = "CASH_FLOW"
	IncomeStatement  curator.Endpoint = "INCOME_STATEMENT"
)

type mappings []curator.FieldMapping

func (m mappings) tag(ref curator.FieldRef, tag string) mappings {
	return append(m, curator.FieldMapping{Field: ref, Source: curator.Tag(tag)})
}

func (m mappings) preprocess(ref curator.FieldRef, tag string, p ...curator.Preprocessor) mappings {
	return append(m, curator.FieldMapping{Field: ref, Source: curator.Preprocess([]curator.Tag{curator.Tag(tag)}, p...)})
}

// fields maps entity fields to EODHD tags of the same endpoint, as
// field name, tag pairs.
func (m mappings) fields(typ *curator.EntityType, pairs ...string) mappings {
	for i := 0; i+1 < len(pairs); i += 2 {
		m = m.tag(typ.Ref(pairs[i]), pairs[i+1])
	}
	return m
}

var marketDailyMap = &curator.FieldMap{Endpoints: []curator.EndpointFields{
	{Endpoint: EndOfDay, Fields: mappings{}.fields(block.MarketDataDailyRow,
		"date", "date",
		"open", "open",
		"high", "high",
		"low", "low",
		"close", "close",
		"volume", "volume",
		"close_dividend_and_split_adjusted", "adjusted_close",
	)},
	{Endpoint: SplitAdjustedEOD, Fields: mappings{}.fields(block.MarketDataDailyRow,
		"date", "date",
		"open_split_adjusted", "open",
		"high_split_adjusted", "high",
		"low_split_adjusted", "low",
		"close_split_adjusted", "close",
		"volume_split_adjusted", "volume",
	)},
}}

var dividendsMap = &curator.FieldMap{Endpoints: []curator.EndpointFields{
	{Endpoint: Dividends, Fields: mappings{}.fields(block.DividendDataRow,
		"ex_dividend_date", "date",
		"declaration_date", "declarationDate",
		"record_date", "recordDate",
		"payment_date", "paymentDate",
		"dividend", "unadjustedValue",
		"dividend_split_adjusted", "value",
	)},
}}

var splitsMap = &curator.FieldMap{Endpoints: []curator.EndpointFields{
	{Endpoint: Splits, Fields: mappings{}.
		tag(block.SplitDataRow.Ref("split_date"), "date").
		preprocess(block.SplitDataRow.Ref("numerator"), "split", SplitNumerator).
		preprocess(block.SplitDataRow.Ref("denominator"), "split", SplitDenominator),
	},
}}

// filingFields maps the filing of every statement endpoint.
func filingFields() mappings {
	row := block.FundamentalDataRow
	return mappings{}.
		tag(row.Ref("filing_date"), "filing_date").
		tag(row.Ref("period_end_date"), "date").
		preprocess(row.Ref("reported_currency"), "currency_symbol", curator.NormalizeText).
		preprocess(row.Ref("fiscal_period"), "date", curator.CalendarQuarter).
		preprocess(row.Ref("fiscal_year"), "date", curator.CalendarYear)
}

var fundamentalsMap = &curator.FieldMap{Endpoints: []curator.EndpointFields{
	{Endpoint: BalanceSheet, Fields: filingFields().fields(block.FundamentalDataRowBalanceSheet,
		"assets", "totalAssets",
		"current_assets", "totalCurrentAssets",
		"cash_and_cash_equivalents", "cashAndEquivalents",
		"cash_and_shortterm_investments", "cashAndShortTermInvestments",
		"net_inventory", "inventory",
		"goodwill", "goodWill",
		"liabilities", "totalLiab",
		"current_liabilities", "totalCurrentLiabilities",
		"current_accounts_payable", "accountsPayable",
		"shortterm_debt", "shortTermDebt",
		"longterm_debt", "longTermDebt",
		"total_debt_including_capital_lease_obligations", "shortLongTermDebtTotal",
		"net_debt", "netDebt",
		"retained_earnings", "retainedEarnings",
		"common_stock_value", "commonStock",
		"stockholder_equity", "totalStockholderEquity",
		"total_liabilities_and_equity", "liabilitiesAndStockholdersEquity",
	)},
	{Endpoint: CashFlow, Fields: filingFields().fields(block.FundamentalDataRowCashFlow,
		"net_income", "netIncome",
		"depreciation_and_amortization", "depreciation",
		"stock_based_compensation", "stockBasedCompensation",
		"net_cash_from_operating_activities", "totalCashFromOperatingActivities",
		"capital_expenditure", "capitalExpenditures",
		"net_cash_from_investing_activities", "totalCashflowsFromInvestingActivities",
		"dividend_payments", "dividendsPaid",
		"common_stock_repurchase", "salePurchaseOfStock",
		"net_cash_from_financing_activities", "totalCashFromFinancingActivities",
		"cash_and_cash_equivalents_change", "changeInCash",
		"period_end_cash", "endPeriodCashFlow",
		"free_cash_flow", "freeCashFlow",
	)},
	{Endpoint: IncomeStatement, Fields: filingFields().fields(block.FundamentalDataRowIncomeStatement,
		"revenues", "totalRevenue",
		"cost_of_revenue", "costOfRevenue",
		"gross_profit", "grossProfit",
		"research_and_development_expense", "researchDevelopment",
		"selling_general_and_administrative_expense", "sellingGeneralAdministrative",
		"operating_expenses", "totalOperatingExpenses",
		"operating_income", "operatingIncome",
		"interest_expense", "interestExpense",
		"income_before_tax", "incomeBeforeTax",
		"income_tax_expense", "incomeTaxExpense",
		"net_income", "netIncome",
		"earnings_before_interest_and_tax", "ebit",
		"earnings_before_interest_tax_depreciation_and_amortization", "ebitda",
	)},
}}

var fieldMaps = map[string]*curator.FieldMap{
	block.MarketDaily.Name:  marketDailyMap,
	block.Fundamentals.Name: fundamentalsMap,
	block.Dividends.Name:    dividendsMap,
	block.Splits.Name:       splitsMap,
}

// FieldMap returns the EODHD field map of a data block.
func FieldMap(b *block.Block) (*curator.FieldMap, bool) {
	fm, ok := fieldMaps[b.Name]
	return fm, ok
}

// SplitNumerator reads the new share count of "4.000000/1.000000" split cells.
func SplitNumerator(columns ...curator.Column) (curator.Column, error) {
	return splitTerms(columns, func(num, _ int64) int64 { return num })
}

// SplitDenominator reads the old share count of "4.000000/1.000000" split cells.
func SplitDenominator(columns ...curator.Column) (curator.Column, error) {
	return splitTerms(columns, func(_, den int64) int64 { return den })
}

func splitTerms(columns []curator.Column, term func(num, den int64) int64) (curator.Column, error) {
	if len(columns) != 1 {
		return curator.Column{}, fmt.Errorf("split terms take one column, got %d", len(columns))
	}
	c := columns[0]
	out := make([]any, c.Len())
	for i, v := range c.All() {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return curator.Column{}, fmt.Errorf("row %d: split %v is a %T, want a string", i, v, v)
		}
		n, d, ok := strings.Cut(s, "/")
		if !ok {
			return curator.Column{}, fmt.Errorf("row %d: invalid split format %q", i, s)
		}
		num, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return curator.Column{}, fmt.Errorf("row %d: invalid numerator in split %q: %w", i, s, err)
		}
		den, err := decimal.NewFromString(strings.TrimSpace(d))
		if err != nil {
			return curator.Column{}, fmt.Errorf("row %d: invalid denominator in split %q: %w", i, s, err)
		}
		out[i] = decimal.NewFromInt(term(simplifyDecimalRatio(num, den)))
	}
	return curator.NewColumn(out...), nil
}
