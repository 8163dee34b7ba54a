package curator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/etnz/curator/date"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// Preprocessor derives a column from one or more columns of the same length.
type Preprocessor func(columns ...Column) (Column, error)

// RemapEndpointTables renames raw tag columns to entity field columns.
//
// Every raw column whose tag is mapped is duplicated under each of its target
// names, "Entity.field" for plain tags and "Entity.field$tag" for inputs of a
// Preprocessed source. Unmapped columns are dropped, endpoints absent from
// the field map are kept as is. Rows are never touched.
func RemapEndpointTables(fm *FieldMap, tables EndpointTables) (EndpointTables, error) {
	p, err := fm.plan()
	if err != nil {
		return nil, err
	}
	return p.remap(tables)
}

func (p *remapPlan) remap(tables EndpointTables) (EndpointTables, error) {
	remapped := make(EndpointTables, 0, len(tables))
	for _, et := range tables {
		targets, ok := p.targets[et.Endpoint]
		if !ok {
			remapped = append(remapped, et)
			continue
		}
		var names []string
		var columns []Column
		for _, tag := range et.Table.Names() {
			c, _ := et.Table.Column(tag)
			for _, name := range targets[Tag(tag)] {
				names = append(names, name)
				columns = append(columns, c)
			}
		}
		t, err := NewTable(names, columns)
		if err != nil {
			return nil, fmt.Errorf("remapping endpoint %s: %w", et.Endpoint, err)
		}
		t.rows = et.Table.Len()
		remapped = append(remapped, EndpointTable{Endpoint: et.Endpoint, Table: t})
	}
	return remapped, nil
}

// PreprocessEndpointTables runs the Preprocessed sources of fm on remapped
// endpoint tables: the result of each chain replaces its "Entity.field$tag"
// inputs under "Entity.field".
func PreprocessEndpointTables(fm *FieldMap, tables EndpointTables) (EndpointTables, error) {
	p, err := fm.plan()
	if err != nil {
		return nil, err
	}
	return p.run(tables)
}

func (p *remapPlan) run(tables EndpointTables) (EndpointTables, error) {
	processed := make(EndpointTables, 0, len(tables))
	for _, et := range tables {
		t := et.Table
		for _, step := range p.preprocess[et.Endpoint] {
			var err error
			if t, err = step.apply(t); err != nil {
				return nil, fmt.Errorf("endpoint %s: %w", et.Endpoint, err)
			}
		}
		processed = append(processed, EndpointTable{Endpoint: et.Endpoint, Table: t})
	}
	return processed, nil
}

// apply runs one preprocessing chain on t. A field whose inputs are all
// absent is skipped, individual absent inputs are null columns.
func (s preprocessStep) apply(t *Table) (*Table, error) {
	inputs := make([]Column, len(s.inputs))
	found := false
	for i, name := range s.inputs {
		c, ok := t.Column(name)
		if !ok {
			c = NullColumn(t.Len())
		}
		found = found || ok
		inputs[i] = c
	}
	if !found {
		return t, nil
	}
	out, err := runChain(s.chain, inputs)
	if err != nil {
		return nil, &PreprocessingError{Field: s.field.String(), Err: err}
	}
	if out.Len() != t.Len() {
		return nil, &PreprocessingError{Field: s.field.String(), Err: fmt.Errorf("got %d rows, want %d", out.Len(), t.Len())}
	}
	return t.Drop(s.inputs...).With(s.field.String(), out)
}

func runChain(chain []Preprocessor, inputs []Column) (Column, error) {
	if len(chain) == 0 {
		if len(inputs) != 1 {
			return Column{}, fmt.Errorf("%d inputs without preprocessor", len(inputs))
		}
		return inputs[0], nil
	}
	out, err := chain[0](inputs...)
	for _, fn := range chain[1:] {
		if err != nil {
			break
		}
		out, err = fn(out)
	}
	return out, err
}

// mapCells applies fn on every non null cell of a single column.
func mapCells(columns []Column, fn func(any) (any, error)) (Column, error) {
	if len(columns) != 1 {
		return Column{}, fmt.Errorf("want 1 column, got %d", len(columns))
	}
	in := columns[0]
	out := make([]any, in.Len())
	for i, v := range in.values {
		if v == nil {
			continue
		}
		var err error
		if out[i], err = fn(v); err != nil {
			return Column{}, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return Column{values: out}, nil
}

// DatetimeToDate truncates datetimes to their date. Strings are parsed as
// RFC 3339 datetimes, "2006-01-02 15:04:05" or plain dates.
func DatetimeToDate(columns ...Column) (Column, error) {
	return mapCells(columns, func(v any) (any, error) {
		switch v := v.(type) {
		case date.Date:
			return v, nil
		case time.Time:
			return date.FromTime(v), nil
		case string:
			if v == "" {
				return nil, nil
			}
			for _, layout := range []string{time.RFC3339Nano, time.DateTime} {
				if t, err := time.Parse(layout, v); err == nil {
					return date.FromTime(t), nil
				}
			}
			return date.Parse(v)
		}
		return nil, fmt.Errorf("cannot cast %T to date", v)
	})
}

// MillionsToUnits multiplies numbers by one million.
func MillionsToUnits(columns ...Column) (Column, error) {
	return Scale(decimal.NewFromInt(1_000_000))(columns...)
}

// Sum adds numbers row by row. A row with any null input is null.
func Sum(columns ...Column) (Column, error) {
	if len(columns) == 0 {
		return Column{}, errors.New("sum of no column")
	}
	out := make([]any, columns[0].Len())
rows:
	for i := range out {
		total := decimal.Zero
		for _, c := range columns {
			v := c.At(i)
			if v == nil {
				continue rows
			}
			d, err := toDecimal(v)
			if err != nil {
				return Column{}, fmt.Errorf("row %d: %w", i, err)
			}
			total = total.Add(d.(decimal.Decimal))
		}
		out[i] = total
	}
	return Column{values: out}, nil
}

// Scale returns a preprocessor multiplying numbers by factor.
func Scale(factor decimal.Decimal) Preprocessor {
	return func(columns ...Column) (Column, error) {
		return mapCells(columns, func(v any) (any, error) {
			d, err := toDecimal(v)
			if err != nil {
				return nil, err
			}
			return d.(decimal.Decimal).Mul(factor), nil
		})
	}
}

// NormalizeText applies Unicode NFKC normalization and trims spaces. Blank
// strings become null.
func NormalizeText(columns ...Column) (Column, error) {
	return mapCells(columns, func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("cannot normalize %T", v)
		}
		s = strings.TrimSpace(norm.NFKC.String(s))
		if s == "" {
			return nil, nil
		}
		return s, nil
	})
}

// CalendarQuarter returns "Q1".."Q4" from the calendar quarter of a date.
// It does not know about fiscal calendars: a company whose fiscal year does
// not end in December gets its calendar quarter.
func CalendarQuarter(columns ...Column) (Column, error) {
	return mapCells(columns, func(v any) (any, error) {
		d, err := toDate(v)
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf("Q%d", d.(date.Date).Quarter()), nil
	})
}

// CalendarYear returns the year of a date.
func CalendarYear(columns ...Column) (Column, error) {
	return mapCells(columns, func(v any) (any, error) {
		d, err := toDate(v)
		if err != nil {
			return nil, err
		}
		return int64(d.(date.Date).Year()), nil
	})
}
