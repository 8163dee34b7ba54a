package curator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/PaesslerAG/jsonpath"
)

// TableFromJSON parses records into a table. Records are JSON objects, either
// in a top level array or as a stream of objects (newline delimited JSON).
// Numbers are kept as json.Number, columns appear in first seen order and
// keys absent from a record are null. Blank input is an empty table.
func TableFromJSON(data []byte) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var b tableBuilder

	tok, err := dec.Token()
	if err == io.EOF {
		return EmptyTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParsing, err)
	}
	switch tok {
	case json.Delim('['):
		for dec.More() {
			if err := b.decodeRecord(dec, nil); err != nil {
				return nil, err
			}
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParsing, err)
		}
		if _, err := dec.Token(); err != io.EOF {
			return nil, fmt.Errorf("%w: trailing data after array", ErrParsing)
		}
	case json.Delim('{'):
		// newline delimited: the first object is already open.
		if err := b.decodeRecord(dec, tok); err != nil {
			return nil, err
		}
		for {
			err := b.decodeRecord(dec, nil)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: unexpected %v, want an object or an array of objects", ErrParsing, tok)
	}
	return b.table()
}

// TableFromJSONPath selects records in a JSON document with a JSONPath
// expression, then builds a table from them. The selection may be an array of
// objects, or an object of objects which are then taken in key order.
func TableFromJSONPath(data []byte, path string) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return EmptyTable(), nil
		}
		return nil, fmt.Errorf("%w: %w", ErrParsing, err)
	}
	selected, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParsing, path, err)
	}

	var records []any
	switch v := selected.(type) {
	case nil:
		return EmptyTable(), nil
	case []any:
		records = v
		// wildcard selections return a single match wrapped in a slice
		if len(v) == 1 {
			if inner, ok := v[0].([]any); ok {
				records = inner
			} else if inner, ok := v[0].(map[string]any); ok && allObjects(inner) {
				records = valuesByKey(inner)
			}
		}
	case map[string]any:
		records = valuesByKey(v)
	default:
		return nil, fmt.Errorf("%w: %s selects a %T, want records", ErrParsing, path, selected)
	}

	var b tableBuilder
	for i, r := range records {
		obj, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s record %d is a %T, want an object", ErrParsing, path, i, r)
		}
		rec := b.newRecord()
		for _, k := range slices.Sorted(maps.Keys(obj)) {
			b.set(rec, k, obj[k])
		}
	}
	return b.table()
}

// EndpointTablesFromJSON parses one JSON document per endpoint, in the given
// endpoint order. Endpoints without document are skipped.
func EndpointTablesFromJSON(documents map[Endpoint][]byte, order []Endpoint) (EndpointTables, error) {
	var tables EndpointTables
	for _, e := range order {
		data, ok := documents[e]
		if !ok {
			continue
		}
		t, err := TableFromJSON(data)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", e, err)
		}
		tables = append(tables, EndpointTable{Endpoint: e, Table: t})
	}
	return tables, nil
}

func allObjects(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for _, v := range m {
		if _, ok := v.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func valuesByKey(m map[string]any) []any {
	values := make([]any, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		values = append(values, m[k])
	}
	return values
}

// tableBuilder accumulates records into columns.
type tableBuilder struct {
	names   []string
	columns map[string][]any
	rows    int
}

func (b *tableBuilder) newRecord() int {
	b.rows++
	for name := range b.columns {
		b.columns[name] = append(b.columns[name], nil)
	}
	return b.rows - 1
}

func (b *tableBuilder) set(row int, name string, v any) {
	if b.columns == nil {
		b.columns = make(map[string][]any)
	}
	c, ok := b.columns[name]
	if !ok {
		b.names = append(b.names, name)
		c = make([]any, b.rows)
	}
	c[row] = v
	b.columns[name] = c
}

// decodeRecord reads one object keeping its key order. If open is nil, the
// opening brace is read first.
func (b *tableBuilder) decodeRecord(dec *json.Decoder, open json.Token) error {
	if open == nil {
		tok, err := dec.Token()
		if err == io.EOF {
			return io.EOF
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrParsing, err)
		}
		open = tok
	}
	if open != json.Delim('{') {
		return fmt.Errorf("%w: record %d: unexpected %v, want an object", ErrParsing, b.rows, open)
	}
	row := b.newRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: record %d: %w", ErrParsing, row, err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: record %d: unexpected key %v", ErrParsing, row, tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("%w: record %d: %s: %w", ErrParsing, row, key, err)
		}
		b.set(row, key, v)
	}
	if _, err := dec.Token(); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("%w: record %d: %w", ErrParsing, row, err)
	}
	return nil
}

func (b *tableBuilder) table() (*Table, error) {
	columns := make([]Column, len(b.names))
	for i, name := range b.names {
		columns[i] = Column{values: b.columns[name]}
	}
	t, err := NewTable(b.names, columns)
	if err != nil {
		return nil, err
	}
	t.rows = b.rows
	return t, nil
}
