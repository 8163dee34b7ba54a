package curator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/etnz/curator/date"
	"github.com/shopspring/decimal"
)

// Entity is an immutable instance of an EntityType.
type Entity struct {
	typ    *EntityType
	values []any // aligned with typ.Fields
}

// New builds an instance from field values. Fields absent from values are
// null. Values must already have the Go type of their declared type:
//
//	date     date.Date
//	decimal  decimal.Decimal
//	int      int64
//	float    float64
//	string   string
//	currency string
//	bool     bool
//
// Entity kinds take *Entity, lists []*Entity and maps *RowMap.
func (t *EntityType) New(values map[string]any) (*Entity, error) {
	for name := range values {
		if _, ok := t.index[name]; !ok {
			return nil, fmt.Errorf("%w: %s has no field %q", ErrEntityType, t.Name, name)
		}
	}
	e := &Entity{typ: t, values: make([]any, len(t.Fields))}
	for i, f := range t.Fields {
		v := values[f.Name]
		if err := checkValue(f, v); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, f.Name, err)
		}
		e.values[i] = detach(v)
	}
	if t.Validate != nil {
		if err := t.Validate(e); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrEntityValue, t.Name, err)
		}
	}
	return e, nil
}

// checkValue verifies v against the declared field.
func checkValue(f Field, v any) error {
	if v == nil {
		if f.Kind.Optional() {
			return nil
		}
		return fmt.Errorf("%w: required %s is missing", ErrEntityValue, f.Type())
	}
	ok := false
	switch f.Kind {
	case KindScalar, KindOptionalScalar:
		switch f.Scalar {
		case TypeDate:
			_, ok = v.(date.Date)
		case TypeDecimal:
			_, ok = v.(decimal.Decimal)
		case TypeInt:
			_, ok = v.(int64)
		case TypeFloat:
			_, ok = v.(float64)
		case TypeString, TypeCurrency:
			_, ok = v.(string)
		case TypeBool:
			_, ok = v.(bool)
		default:
			ok = true
		}
	case KindEntity, KindOptionalEntity:
		var sub *Entity
		if sub, ok = v.(*Entity); ok {
			ok = sub == nil && f.Kind.Optional() || sub != nil && sub.typ == f.Entity
		}
	case KindEntityList, KindOptionalEntityList:
		var list []*Entity
		if list, ok = v.([]*Entity); ok {
			for _, sub := range list {
				ok = ok && sub != nil && sub.typ == f.Entity
			}
		}
	case KindEntityMap, KindOptionalEntityMap:
		var rows *RowMap
		if rows, ok = v.(*RowMap); ok {
			for _, sub := range rows.All() {
				ok = ok && (sub == nil || sub.typ == f.Entity)
			}
		}
	}
	if !ok {
		return fmt.Errorf("%w: %T is not a %s", ErrEntityType, v, f.Type())
	}
	return nil
}

// Type returns the entity type of e.
func (e *Entity) Type() *EntityType { return e.typ }

// Value returns the value of the named field, nil if null or undeclared.
func (e *Entity) Value(name string) any {
	i, ok := e.typ.index[name]
	if !ok {
		return nil
	}
	return detach(e.values[i])
}

// detach copies the containers of v so entities cannot be changed through
// them.
func detach(v any) any {
	switch v := v.(type) {
	case []*Entity:
		return slices.Clone(v)
	case *RowMap:
		return v.clone()
	}
	return v
}

// Date returns a date field.
func (e *Entity) Date(name string) (date.Date, bool) {
	v, ok := e.Value(name).(date.Date)
	return v, ok
}

// Decimal returns a decimal field.
func (e *Entity) Decimal(name string) (decimal.Decimal, bool) {
	v, ok := e.Value(name).(decimal.Decimal)
	return v, ok
}

// Int returns an int field.
func (e *Entity) Int(name string) (int64, bool) {
	v, ok := e.Value(name).(int64)
	return v, ok
}

// Float returns a float field.
func (e *Entity) Float(name string) (float64, bool) {
	v, ok := e.Value(name).(float64)
	return v, ok
}

// Text returns a string or currency field.
func (e *Entity) Text(name string) (string, bool) {
	v, ok := e.Value(name).(string)
	return v, ok
}

// Bool returns a bool field.
func (e *Entity) Bool(name string) (bool, bool) {
	v, ok := e.Value(name).(bool)
	return v, ok
}

// Sub returns a sub-entity field, nil if null.
func (e *Entity) Sub(name string) *Entity {
	v, _ := e.Value(name).(*Entity)
	return v
}

// List returns a list of sub-entities field.
func (e *Entity) List(name string) []*Entity {
	v, _ := e.Value(name).([]*Entity)
	return v
}

// Rows returns a map of sub-entities field.
func (e *Entity) Rows(name string) *RowMap {
	v, _ := e.Value(name).(*RowMap)
	return v
}

// String returns a compact representation, e.g. Row(date=2024-01-02, close=100).
func (e *Entity) String() string {
	var b bytes.Buffer
	b.WriteString(e.typ.Name)
	b.WriteByte('(')
	first := true
	for i, f := range e.typ.Fields {
		v := e.values[i]
		if v == nil {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%s=%v", f.Name, v)
	}
	b.WriteByte(')')
	return b.String()
}

// MarshalJSON writes fields in declaration order.
func (e *Entity) MarshalJSON() ([]byte, error) {
	var w orderedObject
	for i, f := range e.typ.Fields {
		v := e.values[i]
		switch v := v.(type) {
		case decimal.Decimal:
			w.Append(f.Name, json.Number(v.String()))
		case time.Time:
			w.Append(f.Name, v.Format(time.RFC3339))
		default:
			w.Append(f.Name, v)
		}
	}
	return w.MarshalJSON()
}
