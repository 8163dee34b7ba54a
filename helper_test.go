package curator

import (
	"testing"

	"github.com/etnz/curator/date"
	"github.com/shopspring/decimal"
)

// Test schema: a daily row, and a filing row with a statement sub-entity.
var (
	testDaily = NewEntityType("DailyRow",
		Scalar("date", TypeDate),
		Optional("close", TypeDecimal),
		Optional("volume", TypeInt),
	)
	testDaily2 = NewEntityType("DailyData",
		Scalar("main_identifier", TypeString),
		Sub("rows", KindEntityMap, testDaily),
	)

	testStatement = NewEntityType("Statement",
		Optional("assets", TypeDecimal),
		Optional("current_assets", TypeDecimal),
		Optional("net_income", TypeDecimal),
	)
	testFiling = NewEntityType("FilingRow",
		Scalar("filing_date", TypeDate),
		Scalar("period_end_date", TypeDate),
		Optional("reported_currency", TypeCurrency),
		Sub("statement", KindOptionalEntity, testStatement),
	)
	testFilings = NewEntityType("FilingData",
		Scalar("main_identifier", TypeString),
		Sub("rows", KindEntityMap, testFiling),
	)

	testDailyBlock  = MustDataBlock("daily", testDaily2, testDaily.Ref("date"))
	testFilingBlock = MustDataBlock("filings", testFilings, testFiling.Ref("filing_date"),
		testFiling.Ref("filing_date"), testFiling.Ref("period_end_date"))
)

func col(values ...any) Column { return NewColumn(values...) }

func mustTable(t *testing.T, names []string, columns ...Column) *Table {
	t.Helper()
	tbl, err := NewTable(names, columns)
	if err != nil {
		t.Fatalf("NewTable(%v) failed: %v", names, err)
	}
	return tbl
}

func day(s string) date.Date { return date.MustParse(s) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// cells returns the cells of a column, failing if it does not exist.
func cells(t *testing.T, tbl *Table, name string) []any {
	t.Helper()
	c, ok := tbl.Column(name)
	if !ok {
		t.Fatalf("table %v has no column %q", tbl.Names(), name)
	}
	return c.Values()
}

// sameCells compares cells with Equal.
func sameCells(got, want []any) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !Equal(got[i], want[i]) {
			return false
		}
	}
	return true
}
