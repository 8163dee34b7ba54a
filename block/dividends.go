package block

import (
	"fmt"

	"github.com/etnz/curator"
)

// DividendDataRow is one dividend, indexed by its ex-dividend date.
var DividendDataRow = withValidation(curator.NewEntityType("DividendDataRow",
	curator.Scalar("ex_dividend_date", curator.TypeDate),
	curator.Optional("record_date", curator.TypeDate),
	curator.Optional("payment_date", curator.TypeDate),
	curator.Optional("declaration_date", curator.TypeDate),
	curator.Optional("dividend", curator.TypeDecimal),
	curator.Optional("dividend_split_adjusted", curator.TypeDecimal),
), validateDividend)

// DividendData holds the dividends of an instrument.
var DividendData = curator.NewEntityType("DividendData",
	curator.Scalar("main_identifier", curator.TypeString),
	curator.Sub("rows", curator.KindEntityMap, DividendDataRow),
)

// Dividends is the dividend data block.
var Dividends = register(curator.MustDataBlock("dividends", DividendData, DividendDataRow.Ref("ex_dividend_date")), rowsValues)

func validateDividend(e *curator.Entity) error {
	for _, name := range []string{"dividend", "dividend_split_adjusted"} {
		if d, ok := e.Decimal(name); ok && d.IsNegative() {
			return fmt.Errorf("negative %s %v", name, d)
		}
	}
	return nil
}
