package renderer

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/etnz/curator"
	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"
)

// RowsMarkdown renders curated rows as a markdown table, one line per clock
// key. Fields are field names of the row entities, sub-entity fields are
// dotted paths like "income_statement.revenues". With no fields, every scalar
// field of the first row is rendered.
func RowsMarkdown(title string, rows *curator.RowMap, fields ...string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(title)

	if len(fields) == 0 {
		fields = scalarFields(rows)
	}
	if rows.Len() == 0 {
		doc.PlainText("No rows.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft},
		Header:    []string{md.Bold("key")},
	}
	for _, f := range fields {
		table.Alignment = append(table.Alignment, md.AlignRight)
		table.Header = append(table.Header, md.Bold(f))
	}
	for key, e := range rows.All() {
		line := []string{key}
		for _, f := range fields {
			line = append(line, formatValue(fieldValue(e, f)))
		}
		table.Rows = append(table.Rows, line)
	}
	doc.Table(table)
	doc.PlainText(fmt.Sprintf("%d row(s), %d with data.", rows.Len(), rows.Present()))
	return doc.String()
}

// scalarFields returns the scalar fields of the first non nil row.
func scalarFields(rows *curator.RowMap) []string {
	for _, e := range rows.All() {
		if e == nil {
			continue
		}
		var fields []string
		for _, f := range e.Type().Fields {
			if !f.Kind.IsEntity() {
				fields = append(fields, f.Name)
			}
		}
		return fields
	}
	return nil
}

// fieldValue follows a dotted path of sub-entity fields.
func fieldValue(e *curator.Entity, path string) any {
	names := strings.Split(path, ".")
	for _, name := range names[:len(names)-1] {
		if e == nil {
			return nil
		}
		e = e.Sub(name)
	}
	if e == nil {
		return nil
	}
	return e.Value(names[len(names)-1])
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return v.String()
	case time.Time:
		return v.Format(time.RFC3339)
	case string:
		return strings.ReplaceAll(v, "|", `\|`)
	case *curator.Entity, []*curator.Entity, *curator.RowMap:
		return "…"
	default:
		return fmt.Sprint(v)
	}
}
