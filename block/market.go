package block

import (
	"errors"
	"fmt"

	"github.com/etnz/curator"
	"github.com/etnz/curator/date"
)

// MarketDataDailyRow is one trading day: unadjusted prices, split adjusted
// prices, and dividend and split adjusted prices.
var MarketDataDailyRow = withValidation(curator.NewEntityType("MarketDataDailyRow",
	append([]curator.Field{curator.Scalar("date", curator.TypeDate)}, priceFields("", "_split_adjusted", "_dividend_and_split_adjusted")...)...,
), validateDailyRow)

// MarketData holds the daily rows of an instrument between two dates.
var MarketData = curator.NewEntityType("MarketData",
	curator.Scalar("main_identifier", curator.TypeString),
	curator.Scalar("start_date", curator.TypeDate),
	curator.Scalar("end_date", curator.TypeDate),
	curator.Sub("daily_rows", curator.KindEntityMap, MarketDataDailyRow),
)

// MarketDaily is the daily market data block, indexed by trading date.
var MarketDaily = register(curator.MustDataBlock("market_daily", MarketData, MarketDataDailyRow.Ref("date")), marketValues)

// priceFields declares open, high, low, close, volume and vwap fields for
// each suffix.
func priceFields(suffixes ...string) []curator.Field {
	var fields []curator.Field
	for _, s := range suffixes {
		fields = append(fields, decimals("open"+s, "high"+s, "low"+s, "close"+s)...)
		fields = append(fields, curator.Optional("volume"+s, curator.TypeInt))
		fields = append(fields, decimals("vwap"+s)...)
	}
	return fields
}

func validateDailyRow(e *curator.Entity) error {
	for _, s := range []string{"", "_split_adjusted", "_dividend_and_split_adjusted"} {
		high, okh := e.Decimal("high" + s)
		low, okl := e.Decimal("low" + s)
		if okh && okl && high.LessThan(low) {
			return fmt.Errorf("high%s %v is lower than low%s %v", s, high, s, low)
		}
		if v, ok := e.Int("volume" + s); ok && v < 0 {
			return fmt.Errorf("negative volume%s %d", s, v)
		}
	}
	return nil
}

// marketValues spans the market data from the first to the last trading date.
func marketValues(id string, rows *curator.RowMap) (map[string]any, error) {
	keys := rows.Keys()
	if len(keys) == 0 {
		return nil, errors.New("no trading day")
	}
	start, err := date.Parse(keys[0])
	if err != nil {
		return nil, err
	}
	end, err := date.Parse(keys[len(keys)-1])
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"main_identifier": id,
		"start_date":      start,
		"end_date":        end,
		"daily_rows":      rows,
	}, nil
}
