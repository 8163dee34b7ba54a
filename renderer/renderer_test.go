package renderer

import (
	"strings"
	"testing"

	"github.com/etnz/curator"
	"github.com/etnz/curator/date"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// tables parses markdown and returns the text of every table cell, row by
// row, header included.
func tables(t *testing.T, markdown string) [][]string {
	t.Helper()
	source := []byte(markdown)
	parser := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser()
	root := parser.Parse(text.NewReader(source))

	var rows [][]string
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *extast.TableHeader, *extast.TableRow:
			var row []string
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				cell := strings.ReplaceAll(cellText(c, source), `\|`, "|")
				row = append(row, strings.TrimSpace(cell))
			}
			rows = append(rows, row)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("ast.Walk() failed: %v", err)
	}
	return rows
}

func cellText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if txt, ok := c.(*ast.Text); ok {
			b.Write(txt.Segment.Value(source))
			continue
		}
		b.WriteString(cellText(c, source))
	}
	return b.String()
}

func TestRenderDiscrepancies(t *testing.T) {
	report := "filing_date|period_end_date|BALANCE.currency_symbol|INCOME.currency\n" +
		"2024-05-03|2024-03-31|USD|EUR\n" +
		"2024-08-02|2024-06-30|\"US|D\"|\n"
	d, err := ParseDiscrepancies("fundamentals", "AAPL.US", report)
	if err != nil {
		t.Fatalf("ParseDiscrepancies() failed: %v", err)
	}
	got := RenderDiscrepancies(d)

	if !strings.HasPrefix(got, "# Discrepancies in fundamentals for AAPL.US\n") {
		t.Errorf("RenderDiscrepancies() title = %q", strings.SplitN(got, "\n", 2)[0])
	}
	if !strings.Contains(got, "2 row(s)") {
		t.Errorf("RenderDiscrepancies() = %q, want the row count", got)
	}
	want := [][]string{
		{"filing_date", "period_end_date", "BALANCE.currency_symbol", "INCOME.currency"},
		{"2024-05-03", "2024-03-31", "USD", "EUR"},
		{"2024-08-02", "2024-06-30", "US|D", ""},
	}
	if diff := cmp.Diff(want, tables(t, got)); diff != "" {
		t.Errorf("RenderDiscrepancies() table mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderDiscrepancies_none(t *testing.T) {
	d, err := ParseDiscrepancies("splits", "AAPL.US", "")
	if err != nil {
		t.Fatalf("ParseDiscrepancies() failed: %v", err)
	}
	got := RenderDiscrepancies(d)
	if !strings.Contains(got, "Endpoints agree.") {
		t.Errorf("RenderDiscrepancies() = %q, want no table", got)
	}
	if rows := tables(t, got); len(rows) != 0 {
		t.Errorf("RenderDiscrepancies() rendered a table %v", rows)
	}
}

func TestParseDiscrepancies_error(t *testing.T) {
	if _, err := ParseDiscrepancies("splits", "AAPL.US", "a|b\n1|2|3\n"); err == nil {
		t.Errorf("ParseDiscrepancies() with ragged rows succeeded")
	}
}

var (
	testStatement = curator.NewEntityType("Statement",
		curator.Optional("revenues", curator.TypeDecimal),
	)
	testFiling = curator.NewEntityType("Filing",
		curator.Scalar("filing_date", curator.TypeDate),
		curator.Optional("fiscal_period", curator.TypeString),
		curator.Sub("income_statement", curator.KindOptionalEntity, testStatement),
	)
)

func testRows(t *testing.T) *curator.RowMap {
	t.Helper()
	statement, err := testStatement.New(map[string]any{"revenues": decimal.RequireFromString("90753000000")})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	filing, err := testFiling.New(map[string]any{
		"filing_date":      date.New(2024, 5, 3),
		"fiscal_period":    "Q1",
		"income_statement": statement,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	rows := curator.NewRowMap()
	rows.Set("2024-02-02", nil)
	rows.Set("2024-05-03", filing)
	return rows
}

func TestRowsMarkdown(t *testing.T) {
	testCases := []struct {
		name   string
		fields []string
		want   [][]string
	}{
		{
			name: "scalar fields",
			want: [][]string{
				{"key", "filing_date", "fiscal_period"},
				{"2024-02-02", "", ""},
				{"2024-05-03", "2024-05-03", "Q1"},
			},
		},
		{
			name:   "sub-entity fields",
			fields: []string{"income_statement.revenues", "fiscal_period"},
			want: [][]string{
				{"key", "income_statement.revenues", "fiscal_period"},
				{"2024-02-02", "", ""},
				{"2024-05-03", "90753000000", "Q1"},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := RowsMarkdown("fundamentals for AAPL.US", testRows(t), tc.fields...)
			if diff := cmp.Diff(tc.want, tables(t, got)); diff != "" {
				t.Errorf("RowsMarkdown() table mismatch (-want +got):\n%s", diff)
			}
			if !strings.Contains(got, "2 row(s), 1 with data.") {
				t.Errorf("RowsMarkdown() = %q, want the row count", got)
			}
		})
	}
}

func TestRowsMarkdown_empty(t *testing.T) {
	got := RowsMarkdown("splits for AAPL.US", curator.NewRowMap())
	if !strings.Contains(got, "No rows.") {
		t.Errorf("RowsMarkdown() = %q, want no rows", got)
	}
}
