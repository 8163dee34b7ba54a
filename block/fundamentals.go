package block

import (
	"errors"
	"fmt"
	"slices"

	"github.com/etnz/curator"
)

// ErrUnsortedRowDates reports fundamental rows out of filing date order.
var ErrUnsortedRowDates = fmt.Errorf("%w: fundamental rows are not sorted by filing date", curator.ErrEntityValue)

// FundamentalDataRowBalanceSheet holds the balance sheet of a filing.
var FundamentalDataRowBalanceSheet = curator.NewEntityType("FundamentalDataRowBalanceSheet", decimals(
	"assets",
	"current_assets",
	"cash_and_cash_equivalents",
	"cash_and_shortterm_investments",
	"net_inventory",
	"goodwill",
	"liabilities",
	"current_liabilities",
	"current_accounts_payable",
	"shortterm_debt",
	"longterm_debt",
	"total_debt_including_capital_lease_obligations",
	"net_debt",
	"retained_earnings",
	"common_stock_value",
	"stockholder_equity",
	"total_liabilities_and_equity",
)...)

// FundamentalDataRowCashFlow holds the cash flow statement of a filing.
var FundamentalDataRowCashFlow = curator.NewEntityType("FundamentalDataRowCashFlow", decimals(
	"net_income",
	"depreciation_and_amortization",
	"stock_based_compensation",
	"net_cash_from_operating_activities",
	"capital_expenditure",
	"net_cash_from_investing_activities",
	"dividend_payments",
	"common_stock_repurchase",
	"net_cash_from_financing_activities",
	"cash_and_cash_equivalents_change",
	"period_end_cash",
	"free_cash_flow",
)...)

// FundamentalDataRowIncomeStatement holds the income statement of a filing.
var FundamentalDataRowIncomeStatement = curator.NewEntityType("FundamentalDataRowIncomeStatement", decimals(
	"revenues",
	"cost_of_revenue",
	"gross_profit",
	"research_and_development_expense",
	"selling_general_and_administrative_expense",
	"operating_expenses",
	"operating_income",
	"interest_expense",
	"income_before_tax",
	"income_tax_expense",
	"net_income",
	"earnings_before_interest_and_tax",
	"earnings_before_interest_tax_depreciation_and_amortization",
	"basic_earnings_per_share",
	"diluted_earnings_per_share",
	"weighted_average_basic_shares_outstanding",
	"weighted_average_diluted_shares_outstanding",
)...)

// FundamentalDataRow is one filing of an instrument.
var FundamentalDataRow = curator.NewEntityType("FundamentalDataRow",
	curator.Optional("accepted_date", curator.TypeDate),
	curator.Scalar("filing_date", curator.TypeDate),
	curator.Optional("fiscal_period", curator.TypeString),
	curator.Optional("fiscal_year", curator.TypeInt),
	curator.Scalar("period_end_date", curator.TypeDate),
	curator.Optional("reported_currency", curator.TypeCurrency),
	curator.Sub("balance_sheet", curator.KindOptionalEntity, FundamentalDataRowBalanceSheet),
	curator.Sub("cash_flow", curator.KindOptionalEntity, FundamentalDataRowCashFlow),
	curator.Sub("income_statement", curator.KindOptionalEntity, FundamentalDataRowIncomeStatement),
)

// FundamentalData holds the filings of an instrument indexed by filing date.
var FundamentalData = curator.NewEntityType("FundamentalData",
	curator.Scalar("main_identifier", curator.TypeString),
	curator.Sub("rows", curator.KindEntityMap, FundamentalDataRow),
)

// Fundamentals is the fundamental data block. Filings are indexed by filing
// date, endpoints are merged on the filing and period end dates.
var Fundamentals = register(curator.MustDataBlock("fundamentals", FundamentalData,
	FundamentalDataRow.Ref("filing_date"),
	FundamentalDataRow.Ref("filing_date"), FundamentalDataRow.Ref("period_end_date"),
), fundamentalValues)

func fundamentalValues(id string, rows *curator.RowMap) (map[string]any, error) {
	if keys := rows.Keys(); !slices.IsSorted(keys) {
		return nil, errors.Join(ErrUnsortedRowDates, fmt.Errorf("filing dates %v", keys))
	}
	return rowsValues(id, rows)
}
