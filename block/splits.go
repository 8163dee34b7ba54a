package block

import (
	"fmt"

	"github.com/etnz/curator"
)

// SplitDataRow is one split: numerator new shares for denominator old shares.
var SplitDataRow = withValidation(curator.NewEntityType("SplitDataRow",
	curator.Scalar("split_date", curator.TypeDate),
	curator.Scalar("numerator", curator.TypeDecimal),
	curator.Scalar("denominator", curator.TypeDecimal),
), validateSplit)

// SplitData holds the splits of an instrument.
var SplitData = curator.NewEntityType("SplitData",
	curator.Scalar("main_identifier", curator.TypeString),
	curator.Sub("rows", curator.KindEntityMap, SplitDataRow),
)

// Splits is the split data block.
var Splits = register(curator.MustDataBlock("splits", SplitData, SplitDataRow.Ref("split_date")), rowsValues)

func validateSplit(e *curator.Entity) error {
	num, _ := e.Decimal("numerator")
	den, _ := e.Decimal("denominator")
	if !num.IsPositive() || !den.IsPositive() {
		return fmt.Errorf("invalid split ratio %v/%v", num, den)
	}
	return nil
}
