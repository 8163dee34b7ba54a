package curator

import (
	"fmt"
	"iter"
	"slices"
)

// Column is an immutable sequence of cells. A nil cell is null.
type Column struct {
	values []any
}

// NewColumn returns a column holding a copy of values.
func NewColumn(values ...any) Column { return Column{values: slices.Clone(values)} }

// NullColumn returns a column of n null cells.
func NullColumn(n int) Column { return Column{values: make([]any, n)} }

// Len returns the number of cells.
func (c Column) Len() int { return len(c.values) }

// At returns the cell at index i.
func (c Column) At(i int) any { return c.values[i] }

// IsNull reports whether the cell at index i is null.
func (c Column) IsNull(i int) bool { return c.values[i] == nil }

// Values returns a copy of the cells.
func (c Column) Values() []any { return slices.Clone(c.values) }

// All iterates over the cells.
func (c Column) All() iter.Seq2[int, any] { return slices.All(c.values) }

// Equal reports whether both columns hold equal cells.
func (c Column) Equal(x Column) bool {
	return slices.EqualFunc(c.values, x.values, Equal)
}

// take returns the cells at the given indexes, -1 yielding null.
func (c Column) take(indexes []int) Column {
	out := make([]any, len(indexes))
	for i, j := range indexes {
		if j >= 0 {
			out[i] = c.values[j]
		}
	}
	return Column{values: out}
}

// Table is an immutable columnar table with ordered, unique column names.
// Transformations return new tables, columns are shared between them.
type Table struct {
	names   []string
	columns []Column
	index   map[string]int
	rows    int
}

// NewTable returns a table made of the given columns. Every column must have
// the same length and names must be unique.
func NewTable(names []string, columns []Column) (*Table, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("%w: %d column names for %d columns", ErrArgument, len(names), len(columns))
	}
	t := &Table{
		names:   slices.Clone(names),
		columns: slices.Clone(columns),
		index:   make(map[string]int, len(names)),
	}
	for i, name := range names {
		if _, exists := t.index[name]; exists {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrArgument, name)
		}
		t.index[name] = i
		if i == 0 {
			t.rows = columns[i].Len()
		} else if columns[i].Len() != t.rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrArgument, name, columns[i].Len(), t.rows)
		}
	}
	return t, nil
}

// MustTable is like NewTable but panics on error.
func MustTable(names []string, columns []Column) *Table {
	t, err := NewTable(names, columns)
	if err != nil {
		panic(err)
	}
	return t
}

// EmptyTable returns a table with the given columns and no rows.
func EmptyTable(names ...string) *Table {
	columns := make([]Column, len(names))
	return MustTable(names, columns)
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.names) }

// Names returns the column names, in order.
func (t *Table) Names() []string { return slices.Clone(t.names) }

// Has reports whether every name is a column of t.
func (t *Table) Has(names ...string) bool {
	for _, name := range names {
		if _, ok := t.index[name]; !ok {
			return false
		}
	}
	return true
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Row returns the cells of row i, in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.values[i]
	}
	return row
}

// Rows iterates over the rows as name to cell maps.
func (t *Table) Rows() iter.Seq2[int, map[string]any] {
	return func(yield func(int, map[string]any) bool) {
		for i := range t.rows {
			row := make(map[string]any, len(t.names))
			for j, name := range t.names {
				row[name] = t.columns[j].values[i]
			}
			if !yield(i, row) {
				return
			}
		}
	}
}

// Select returns a table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	columns := make([]Column, len(names))
	for i, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: no column %q", ErrArgument, name)
		}
		columns[i] = c
	}
	s, err := NewTable(names, columns)
	if err != nil {
		return nil, err
	}
	s.rows = t.rows
	return s, nil
}

// With returns a table where the named column is replaced, or appended if
// it does not exist yet.
func (t *Table) With(name string, c Column) (*Table, error) {
	if t.Width() > 0 && c.Len() != t.rows {
		return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrArgument, name, c.Len(), t.rows)
	}
	names, columns := t.Names(), slices.Clone(t.columns)
	if i, ok := t.index[name]; ok {
		columns[i] = c
	} else {
		names = append(names, name)
		columns = append(columns, c)
	}
	return NewTable(names, columns)
}

// Drop returns a table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	var keptNames []string
	var kept []Column
	for i, name := range t.names {
		if slices.Contains(names, name) {
			continue
		}
		keptNames = append(keptNames, name)
		kept = append(kept, t.columns[i])
	}
	d := MustTable(keptNames, kept)
	d.rows = t.rows
	return d
}

// Rename returns a table with columns renamed according to names. Columns
// absent from names keep their name.
func (t *Table) Rename(names map[string]string) (*Table, error) {
	renamed := make([]string, len(t.names))
	for i, name := range t.names {
		if n, ok := names[name]; ok {
			name = n
		}
		renamed[i] = name
	}
	r, err := NewTable(renamed, t.columns)
	if err != nil {
		return nil, err
	}
	r.rows = t.rows
	return r, nil
}

// Filter returns the rows where mask is true.
func (t *Table) Filter(mask []bool) (*Table, error) {
	if len(mask) != t.rows {
		return nil, fmt.Errorf("%w: mask has %d rows, want %d", ErrArgument, len(mask), t.rows)
	}
	var indexes []int
	for i, keep := range mask {
		if keep {
			indexes = append(indexes, i)
		}
	}
	return t.take(indexes), nil
}

// Reverse returns the table with rows in reverse order.
func (t *Table) Reverse() *Table {
	indexes := make([]int, t.rows)
	for i := range indexes {
		indexes[i] = t.rows - 1 - i
	}
	return t.take(indexes)
}

// take builds a table from row indexes, -1 yielding a null row.
func (t *Table) take(indexes []int) *Table {
	columns := make([]Column, len(t.columns))
	for i, c := range t.columns {
		columns[i] = c.take(indexes)
	}
	r := MustTable(t.names, columns)
	r.rows = len(indexes)
	return r
}

// Equal reports whether both tables have the same columns, in the same order,
// with equal cells.
func (t *Table) Equal(x *Table) bool {
	if t.rows != x.rows || !slices.Equal(t.names, x.names) {
		return false
	}
	for i, c := range t.columns {
		if !c.Equal(x.columns[i]) {
			return false
		}
	}
	return true
}

// tuple returns the cells of the given columns at row i.
func tuple(columns []Column, i int) []any {
	values := make([]any, len(columns))
	for j, c := range columns {
		values[j] = c.values[i]
	}
	return values
}

// columnsOf returns the named columns of t, which must exist.
func (t *Table) columnsOf(names []string) []Column {
	columns := make([]Column, len(names))
	for i, name := range names {
		columns[i] = t.columns[t.index[name]]
	}
	return columns
}
