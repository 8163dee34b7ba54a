package curator

import (
	"encoding/csv"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscrepancyError reports columns on which endpoints disagree.
//
// Table holds the merged key columns of the discrepant rows, followed by one
// column per endpoint and discrepant column, named "ENDPOINT$Entity.field".
type DiscrepancyError struct {
	Columns  []string
	Table    *Table
	KeyNames []string
}

func (e *DiscrepancyError) Error() string {
	return fmt.Sprintf("%d row(s) disagree on %s", e.Table.Len(), strings.Join(e.Columns, ", "))
}

func (e *DiscrepancyError) Unwrap() error { return ErrDiscrepancy }

// FormatDiscrepancies writes a table as CSV with a header row, using sep as
// separator. Columns are renamed according to renames.
func FormatDiscrepancies(t *Table, renames map[string]string, sep rune) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Comma = sep
	header := t.Names()
	for i, name := range header {
		if n, ok := renames[name]; ok {
			header[i] = n
		}
	}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for i := range t.Len() {
		row := t.Row(i)
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = formatCell(v)
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}

// FormatEndpointDiscrepancies formats a discrepancy error for operators,
// pipe separated, with endpoint columns named after their raw tags.
func FormatEndpointDiscrepancies(fm *FieldMap, err *DiscrepancyError) (string, error) {
	return FormatDiscrepancies(err.Table, fm.DiscrepancyRenames(err.Table.Names()), '|')
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return v.String()
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// ClearDiscrepantRows nulls, in every endpoint table, the rows whose key
// appears in the discrepancy table. Key columns and preserved columns keep
// their values and rows are never removed, so that consolidation can be run
// again with the conflicting cells turned into missing data.
//
// Every non empty table must hold the key and preserved columns. Nothing is done if
// either the discrepancy table or the endpoint tables are empty.
func ClearDiscrepantRows(discrepancies *Table, tables EndpointTables, keyNames, preserved []string) (EndpointTables, error) {
	if discrepancies.Len() == 0 || len(tables) == 0 {
		return tables, nil
	}
	if !discrepancies.Has(keyNames...) {
		return nil, runtimeError("discrepancy table lacks key columns %v", keyNames)
	}
	discrepant := make(map[string]bool, discrepancies.Len())
	keys := discrepancies.columnsOf(keyNames)
	for row := range discrepancies.Len() {
		discrepant[keyOf(tuple(keys, row))] = true
	}

	cleared := make(EndpointTables, len(tables))
	for i, et := range tables {
		t := et.Table
		if t.Len() == 0 {
			cleared[i] = et
			continue
		}
		for _, name := range append(keyNames[:len(keyNames):len(keyNames)], preserved...) {
			if !t.Has(name) {
				return nil, runtimeError("endpoint %s lacks column %q", et.Endpoint, name)
			}
		}
		mask := make([]bool, t.Len())
		tableKeys := t.columnsOf(keyNames)
		matched := false
		for row := range mask {
			mask[row] = discrepant[keyOf(tuple(tableKeys, row))]
			matched = matched || mask[row]
		}
		if matched {
			columns := make([]Column, len(t.columns))
			for j, name := range t.names {
				if slices.Contains(keyNames, name) || slices.Contains(preserved, name) {
					columns[j] = t.columns[j]
					continue
				}
				values := t.columns[j].Values()
				for row, drop := range mask {
					if drop {
						values[row] = nil
					}
				}
				columns[j] = Column{values: values}
			}
			t = MustTable(t.names, columns)
		}
		cleared[i] = EndpointTable{Endpoint: et.Endpoint, Table: t}
	}
	return cleared, nil
}
