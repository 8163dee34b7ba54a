package curator

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/curator/date"
	"github.com/shopspring/decimal"
)

// Cells of a Table are untyped. The values produced by this package are nil
// (null), string, json.Number, int64, float64, bool, decimal.Decimal,
// date.Date and time.Time. Other types are compared through their fmt
// representation.

// kind ranks the cell types for Compare. Numbers of any Go type share a rank.
type kind int

const (
	kindNull kind = iota
	kindBool
	kindNumber
	kindDate
	kindTime
	kindString
	kindOther
)

func kindOf(v any) kind {
	switch v.(type) {
	case nil:
		return kindNull
	case bool:
		return kindBool
	case json.Number, int, int64, float64, decimal.Decimal:
		return kindNumber
	case date.Date:
		return kindDate
	case time.Time:
		return kindTime
	case string:
		return kindString
	default:
		return kindOther
	}
}

// asDecimal returns the exact decimal value of a numeric cell.
func asDecimal(v any) (decimal.Decimal, bool) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v, true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case float64:
		d, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', -1, 64))
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

// Equal reports whether two cells hold the same value. Numbers are compared
// by value whatever their Go type, nil only equals nil.
func Equal(a, b any) bool {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case kindNull:
		return true
	case kindNumber:
		da, oka := asDecimal(a)
		db, okb := asDecimal(b)
		if oka && okb {
			return da.Equal(db)
		}
		return fmt.Sprint(a) == fmt.Sprint(b)
	case kindTime:
		return a.(time.Time).Equal(b.(time.Time))
	case kindOther:
		return fmt.Sprint(a) == fmt.Sprint(b)
	default:
		return a == b
	}
}

// Compare orders two cells: nil first, then by kind, then by natural order
// within a kind.
func Compare(a, b any) int {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return cmp.Compare(ka, kb)
	}
	switch ka {
	case kindNull:
		return 0
	case kindBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case bb:
			return -1
		default:
			return 1
		}
	case kindNumber:
		da, oka := asDecimal(a)
		db, okb := asDecimal(b)
		if oka && okb {
			return da.Cmp(db)
		}
	case kindDate:
		return a.(date.Date).Compare(b.(date.Date))
	case kindTime:
		return a.(time.Time).Compare(b.(time.Time))
	case kindString:
		return strings.Compare(a.(string), b.(string))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// compareTuples orders key tuples lexicographically.
func compareTuples(a, b []any) int {
	for i := range min(len(a), len(b)) {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

// keyOf encodes a key tuple into a string usable as a map key. Equal tuples
// have the same encoding, null included.
func keyOf(tuple []any) string {
	var b strings.Builder
	for i, v := range tuple {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		switch kindOf(v) {
		case kindNull:
			b.WriteByte(0)
		case kindNumber:
			d, _ := asDecimal(v)
			b.WriteString("n:")
			b.WriteString(d.String())
		case kindTime:
			b.WriteString("t:")
			b.WriteString(v.(time.Time).UTC().Format(time.RFC3339Nano))
		default:
			fmt.Fprintf(&b, "%T:%v", v, v)
		}
	}
	return b.String()
}

// isBlank reports whether a cell is null or an empty string.
func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
