package curator

import (
	"errors"
	"testing"
)

func dates(values ...string) Column {
	cells := make([]any, len(values))
	for i, v := range values {
		if v != "" {
			cells[i] = day(v)
		}
	}
	return NewColumn(cells...)
}

func keyTable(t *testing.T, values ...string) *Table {
	return mustTable(t, []string{"Row.date"}, dates(values...))
}

func TestMergeKeyOrder(t *testing.T) {
	testCases := []struct {
		name       string
		tables     [][]string
		descending bool
		want       []string
	}{
		{
			name:   "overlapping",
			tables: [][]string{{"2024-01-01", "2024-01-02", "2024-01-03"}, {"2024-01-02", "2024-01-03", "2024-01-04"}},
			want:   []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"},
		},
		{
			name:   "disjoint ties by smallest key",
			tables: [][]string{{"2024-01-05"}, {"2024-01-01", "2024-01-03"}},
			want:   []string{"2024-01-01", "2024-01-03", "2024-01-05"},
		},
		{
			name:   "interleaved",
			tables: [][]string{{"2024-01-01", "2024-01-03"}, {"2024-01-02", "2024-01-03"}},
			want:   []string{"2024-01-01", "2024-01-02", "2024-01-03"},
		},
		{
			name:   "null keys are ignored",
			tables: [][]string{{"2024-01-01", "", "2024-01-02"}},
			want:   []string{"2024-01-01", "2024-01-02"},
		},
		{
			name:   "single table keeps its order",
			tables: [][]string{{"2024-01-03", "2024-01-01", "2024-01-02"}},
			want:   []string{"2024-01-03", "2024-01-01", "2024-01-02"},
		},
		{
			name:       "single table keeps its order descending",
			tables:     [][]string{{"2024-01-03", "2024-01-01", "2024-01-02"}},
			descending: true,
			want:       []string{"2024-01-03", "2024-01-01", "2024-01-02"},
		},
		{
			name:       "descending",
			tables:     [][]string{{"2024-01-03", "2024-01-02"}, {"2024-01-04", "2024-01-03"}},
			descending: true,
			want:       []string{"2024-01-04", "2024-01-03", "2024-01-02"},
		},
		{
			name:       "descending ties",
			tables:     [][]string{{"2024-01-09"}, {"2024-01-05", "2024-01-01"}},
			descending: true,
			want:       []string{"2024-01-09", "2024-01-05", "2024-01-01"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var tables []*Table
			for _, values := range tc.tables {
				tables = append(tables, keyTable(t, values...))
			}
			got, err := MergeKeyOrder(tables, tc.descending)
			if err != nil {
				t.Fatalf("MergeKeyOrder() failed: %v", err)
			}
			want := keyTable(t, tc.want...)
			if !got.Equal(want) {
				t.Errorf("MergeKeyOrder() = %v, want %v", cells(t, got, "Row.date"), cells(t, want, "Row.date"))
			}
		})
	}
}

func TestMergeKeyOrder_contradiction(t *testing.T) {
	tables := []*Table{
		keyTable(t, "2024-01-01", "2024-01-02"),
		keyTable(t, "2024-01-02", "2024-01-01"),
	}
	_, err := MergeKeyOrder(tables, false)
	if !errors.Is(err, ErrOrder) {
		t.Errorf("MergeKeyOrder() error = %v, want ErrOrder", err)
	}
}

func TestMergeKeyOrder_invalid(t *testing.T) {
	testCases := []struct {
		name   string
		tables []*Table
	}{
		{"different columns", []*Table{keyTable(t, "2024-01-01"), mustTable(t, []string{"Row.day"}, dates("2024-01-01"))}},
		{"different types", []*Table{keyTable(t, "2024-01-01"), mustTable(t, []string{"Row.date"}, col("2024-01-01"))}},
		{"duplicate key", []*Table{keyTable(t, "2024-01-01", "2024-01-01")}},
		{"no column", []*Table{EmptyTable(), EmptyTable()}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := MergeKeyOrder(tc.tables, false)
			if !errors.Is(err, ErrToolkitRuntime) {
				t.Errorf("MergeKeyOrder() error = %v, want ErrToolkitRuntime", err)
			}
		})
	}
}

func TestMergeKeyOrder_compositeKeys(t *testing.T) {
	names := []string{"Row.filing_date", "Row.period_end_date"}
	a := mustTable(t, names, dates("2024-02-01", "2024-05-01"), dates("2023-12-31", "2024-03-31"))
	b := mustTable(t, names, dates("2024-02-01", "2024-02-01"), dates("2023-12-31", "2023-09-30"))
	got, err := MergeKeyOrder([]*Table{a, b}, false)
	if err != nil {
		t.Fatalf("MergeKeyOrder() failed: %v", err)
	}
	want := mustTable(t, names,
		dates("2024-02-01", "2024-02-01", "2024-05-01"),
		dates("2023-12-31", "2023-09-30", "2024-03-31"))
	if !got.Equal(want) {
		t.Errorf("MergeKeyOrder() = %v, want %v", got.Names(), want.Names())
		for i := range got.Len() {
			t.Logf("row %d: %v", i, got.Row(i))
		}
	}
}
