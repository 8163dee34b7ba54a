package curator

import (
	"slices"

	"github.com/zeebo/xxh3"
)

// aligned is an endpoint table re-indexed on the merged key order.
type aligned struct {
	endpoint Endpoint
	table    *Table // nil when the endpoint has no key column
	valid    []bool // rows supplied by the endpoint
}

// Consolidate merges processed endpoint tables into a single table ordered by
// the primary key.
//
// The key order is merged from every endpoint holding all key columns, each
// endpoint is then aligned on it. Columns reported by several endpoints must
// agree on every row both endpoints supply (null only agrees with null),
// otherwise Consolidate returns a *DiscrepancyError describing every
// disagreement. Agreeing columns are coalesced, first non null value in
// endpoint order.
//
// The result has the key columns first, in keys order, then the other columns
// sorted by name. A single endpoint table is returned as is.
func Consolidate(tables EndpointTables, keys []FieldRef, descending bool) (*Table, error) {
	switch len(tables) {
	case 0:
		return EmptyTable(), nil
	case 1:
		return tables[0].Table, nil
	}
	keyNames := qualifiedNames(keys)

	var keyTables []*Table
	for _, et := range tables {
		if !et.Table.Has(keyNames...) {
			continue
		}
		kt, err := et.Table.Select(keyNames...)
		if err != nil {
			return nil, err
		}
		keyTables = append(keyTables, kt)
	}
	if len(keyTables) == 0 {
		return nil, runtimeError("none of the endpoint tables has the key columns %v", keyNames)
	}
	order, err := MergeKeyOrder(keyTables, descending)
	if err != nil {
		return nil, err
	}

	endpoints := make([]aligned, len(tables))
	for i, et := range tables {
		endpoints[i] = align(et, order, keyNames)
	}

	if err := findDiscrepancies(endpoints, order, keyNames); err != nil {
		return nil, err
	}
	return coalesce(endpoints, order, keyNames)
}

// align left joins an endpoint table on the merged key order.
func align(et EndpointTable, order *Table, keyNames []string) aligned {
	a := aligned{endpoint: et.Endpoint, valid: make([]bool, order.Len())}
	if !et.Table.Has(keyNames...) {
		return a
	}
	positions := make(map[string]int, et.Table.Len())
	keys := et.Table.columnsOf(keyNames)
	for row := range et.Table.Len() {
		key := tuple(keys, row)
		if allNull(key) {
			continue
		}
		positions[keyOf(key)] = row
	}
	indexes := make([]int, order.Len())
	orderKeys := order.columnsOf(keyNames)
	for i := range indexes {
		row, ok := positions[keyOf(tuple(orderKeys, i))]
		if !ok {
			row = -1
		}
		indexes[i] = row
		a.valid[i] = ok
	}
	a.table = et.Table.Drop(keyNames...).take(indexes)
	return a
}

// columnCandidates lists, per non key column name, the endpoints having it.
// Names are sorted, endpoints keep their order.
func columnCandidates(endpoints []aligned) ([]string, map[string][]int) {
	candidates := make(map[string][]int)
	var names []string
	for i, a := range endpoints {
		if a.table == nil {
			continue
		}
		for _, name := range a.table.names {
			if _, ok := candidates[name]; !ok {
				names = append(names, name)
			}
			candidates[name] = append(candidates[name], i)
		}
	}
	slices.Sort(names)
	return names, candidates
}

// findDiscrepancies compares every column reported by several endpoints.
func findDiscrepancies(endpoints []aligned, order *Table, keyNames []string) error {
	names, candidates := columnCandidates(endpoints)
	rows := make([]bool, order.Len())
	var discrepant []string
	for _, name := range names {
		owners := candidates[name]
		found := false
		for x, i := range owners {
			ci, _ := endpoints[i].table.Column(name)
			for _, j := range owners[x+1:] {
				cj, _ := endpoints[j].table.Column(name)
				for row := range rows {
					if !endpoints[i].valid[row] || !endpoints[j].valid[row] {
						continue
					}
					if !Equal(ci.values[row], cj.values[row]) {
						rows[row] = true
						found = true
					}
				}
			}
		}
		if found {
			discrepant = append(discrepant, name)
		}
	}
	if len(discrepant) == 0 {
		return nil
	}

	t, err := order.Filter(rows)
	if err != nil {
		return err
	}
	for _, name := range discrepant {
		for _, i := range candidates[name] {
			c, _ := endpoints[i].table.Column(name)
			var kept []any
			for row, v := range c.values {
				if rows[row] {
					kept = append(kept, v)
				}
			}
			if t, err = t.With(string(endpoints[i].endpoint)+"$"+name, Column{values: kept}); err != nil {
				return err
			}
		}
	}
	return &DiscrepancyError{Columns: discrepant, Table: t, KeyNames: keyNames}
}

// coalesce builds the consolidated table from agreeing endpoints.
func coalesce(endpoints []aligned, order *Table, keyNames []string) (*Table, error) {
	names, candidates := columnCandidates(endpoints)
	out, err := order.Select(keyNames...)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		var columns []Column
		for _, i := range candidates[name] {
			c, _ := endpoints[i].table.Column(name)
			columns = append(columns, c)
		}
		if out, err = out.With(name, coalesceColumns(dedupe(columns))); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// dedupe removes columns identical to a previous one.
func dedupe(columns []Column) []Column {
	if len(columns) < 2 {
		return columns
	}
	seen := make(map[uint64][]Column)
	var unique []Column
	for _, c := range columns {
		h := fingerprint(c)
		if slices.ContainsFunc(seen[h], c.Equal) {
			continue
		}
		seen[h] = append(seen[h], c)
		unique = append(unique, c)
	}
	return unique
}

// fingerprint hashes the cells of a column, so that equal columns share a
// fingerprint.
func fingerprint(c Column) uint64 {
	h := xxh3.New()
	for _, v := range c.values {
		h.WriteString(keyOf([]any{v}))
		h.Write([]byte{0x1e})
	}
	return h.Sum64()
}

// coalesceColumns keeps the first non null cell of each row.
func coalesceColumns(columns []Column) Column {
	if len(columns) == 1 {
		return columns[0]
	}
	out := make([]any, columns[0].Len())
	for row := range out {
		for _, c := range columns {
			if v := c.values[row]; v != nil {
				out[row] = v
				break
			}
		}
	}
	return Column{values: out}
}
