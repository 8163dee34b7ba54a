package curator

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitEntityTables(t *testing.T) {
	tbl := mustTable(t,
		[]string{"FilingRow.filing_date", "Statement.assets", "FilingRow.reported_currency", "Statement.net_income"},
		dates("2024-02-01"), col(1), col("USD"), col(2))
	got, err := SplitEntityTables(tbl, testFilingBlock.Entities())
	if err != nil {
		t.Fatalf("SplitEntityTables() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("SplitEntityTables() returned %d tables, want 2", len(got))
	}
	testCases := []struct {
		entity *EntityType
		want   []string
	}{
		{testFiling, []string{"filing_date", "reported_currency"}},
		{testStatement, []string{"assets", "net_income"}},
	}
	for _, tc := range testCases {
		et, ok := got[tc.entity]
		if !ok {
			t.Errorf("SplitEntityTables() has no %s table", tc.entity)
			continue
		}
		if diff := cmp.Diff(tc.want, et.Names()); diff != "" {
			t.Errorf("SplitEntityTables() %s names mismatch (-want +got):\n%s", tc.entity, diff)
		}
		if et.Len() != 1 {
			t.Errorf("SplitEntityTables() %s has %d rows, want 1", tc.entity, et.Len())
		}
	}
}

func TestSplitEntityTables_cells(t *testing.T) {
	tbl := mustTable(t,
		[]string{"FilingRow.filing_date", "FilingRow.period_end_date", "Statement.assets", "Statement.net_income"},
		dates("2024-02-01", "2024-05-01", "2024-08-01"),
		dates("2023-12-31", "2024-03-31", ""),
		col(dec("1.5"), nil, int64(3)),
		col(nil, "n/a", json.Number("-2")))
	got, err := SplitEntityTables(tbl, testFilingBlock.Entities())
	if err != nil {
		t.Fatalf("SplitEntityTables() failed: %v", err)
	}
	for _, name := range tbl.Names() {
		entity, field, _ := strings.Cut(name, ".")
		et, ok := got[testFilingBlock.Entities()[entity]]
		if !ok {
			t.Fatalf("SplitEntityTables() has no %s table", entity)
		}
		if diff := cmp.Diff(cells(t, tbl, name), cells(t, et, field), cmp.Comparer(Equal)); diff != "" {
			t.Errorf("SplitEntityTables() %s cells mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestSplitEntityTables_errors(t *testing.T) {
	entities := testFilingBlock.Entities()
	entities["Nothing"] = nil
	testCases := []struct {
		name   string
		column string
	}{
		{"not qualified", "filing_date"},
		{"unknown entity", "Unknown.filing_date"},
		{"nil entity", "Nothing.x"},
		{"unknown field", "FilingRow.unknown"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tbl := mustTable(t, []string{tc.column}, col(1))
			_, err := SplitEntityTables(tbl, entities)
			if !errors.Is(err, ErrIncorrectMappingType) {
				t.Errorf("SplitEntityTables(%q) error = %v, want ErrIncorrectMappingType", tc.column, err)
			}
		})
	}
}
