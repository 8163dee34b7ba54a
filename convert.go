package curator

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/etnz/curator/date"
	"github.com/shopspring/decimal"
)

// Converter converts a non null raw cell to the Go type of a scalar type.
// It must pass through values that already have the target type.
type Converter func(v any) (any, error)

// Conversions is a registry of converters by scalar type. It is safe for
// concurrent use.
type Conversions struct {
	mu         sync.RWMutex
	converters map[ScalarType]Converter
}

// NewConversions returns an empty registry.
func NewConversions() *Conversions {
	return &Conversions{converters: make(map[ScalarType]Converter)}
}

// DefaultConversions returns a registry for every ScalarType of this package.
func DefaultConversions() *Conversions {
	c := NewConversions()
	c.Register(TypeDate, toDate)
	c.Register(TypeDecimal, toDecimal)
	c.Register(TypeInt, toInt)
	c.Register(TypeFloat, toFloat)
	c.Register(TypeString, toString)
	c.Register(TypeBool, toBool)
	c.Register(TypeCurrency, toCurrency)
	return c
}

// Register sets the converter of a scalar type, replacing any previous one.
func (c *Conversions) Register(typ ScalarType, fn Converter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.converters[typ] = fn
}

// Types returns the registered scalar types.
func (c *Conversions) Types() []ScalarType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.converters))
}

// Convert converts a raw cell to the declared type of a scalar field.
// Optional fields map nil and "" to nil.
func (c *Conversions) Convert(v any, f Field) (any, error) {
	if f.Kind == KindOptionalScalar && isBlank(v) {
		return nil, nil
	}
	c.mu.RLock()
	fn, ok := c.converters[f.Scalar]
	c.mu.RUnlock()
	if !ok {
		return nil, &ConversionError{Type: f.Scalar, Value: v}
	}
	if v == nil {
		return nil, &ConversionError{Type: f.Scalar, Value: v, Err: errors.New("null value for a required field")}
	}
	out, err := fn(v)
	if err != nil {
		return nil, &ConversionError{Type: f.Scalar, Value: v, Err: err}
	}
	return out, nil
}

func toDate(v any) (any, error) {
	switch v := v.(type) {
	case date.Date:
		return v, nil
	case time.Time:
		return date.FromTime(v), nil
	case string:
		return date.Parse(v)
	}
	return nil, fmt.Errorf("unsupported %T", v)
}

func toDecimal(v any) (any, error) {
	switch v := v.(type) {
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case bool:
		return nil, fmt.Errorf("unsupported %T", v)
	}
	if d, ok := asDecimal(v); ok {
		return d, nil
	}
	return nil, fmt.Errorf("unsupported %T %v", v, v)
}

func toInt(v any) (any, error) {
	switch v := v.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		// integral values written with a fraction or an exponent
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return nil, err
		}
		return decimalToInt(d)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%v is not an integer", v)
		}
		return decimalToInt(decimal.NewFromFloat(v))
	case decimal.Decimal:
		return decimalToInt(v)
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	}
	return nil, fmt.Errorf("unsupported %T", v)
}

func decimalToInt(d decimal.Decimal) (any, error) {
	if !d.Equal(d.Truncate(0)) {
		return nil, fmt.Errorf("%v is not an integer", d)
	}
	if !d.BigInt().IsInt64() {
		return nil, fmt.Errorf("%v overflows int64", d)
	}
	return d.IntPart(), nil
}

func toFloat(v any) (any, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case decimal.Decimal:
		return v.InexactFloat64(), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	return nil, fmt.Errorf("unsupported %T", v)
}

func toString(v any) (any, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case fmt.Stringer:
		return v.String(), nil
	case int64, int, float64, bool:
		return fmt.Sprint(v), nil
	}
	return nil, fmt.Errorf("unsupported %T", v)
}

func toBool(v any) (any, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	}
	return nil, fmt.Errorf("unsupported %T", v)
}

// toCurrency accepts ISO 4217 codes, in any case.
func toCurrency(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("unsupported %T", v)
	}
	code := strings.ToUpper(strings.TrimSpace(s))
	if money.GetCurrency(code) == nil {
		return nil, fmt.Errorf("unknown currency %q", s)
	}
	return code, nil
}
