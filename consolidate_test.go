package curator

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConsolidate(t *testing.T) {
	keys := []FieldRef{testDaily.Ref("date")}
	tables := EndpointTables{
		{Endpoint: "EOD", Table: mustTable(t, []string{"DailyRow.date", "DailyRow.close"},
			dates("2024-01-01", "2024-01-02", "2024-01-03"),
			col(json.Number("10"), json.Number("11.00"), json.Number("12")))},
		{Endpoint: "INTRADAY", Table: mustTable(t, []string{"DailyRow.volume", "DailyRow.date", "DailyRow.close"},
			col(json.Number("100"), json.Number("200"), json.Number("300")),
			dates("2024-01-02", "2024-01-03", "2024-01-04"),
			col(json.Number("11"), json.Number("12.0"), json.Number("13")))},
	}
	got, err := Consolidate(tables, keys, false)
	if err != nil {
		t.Fatalf("Consolidate() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"DailyRow.date", "DailyRow.close", "DailyRow.volume"}, got.Names()); diff != "" {
		t.Errorf("Consolidate() names mismatch (-want +got):\n%s", diff)
	}
	testCases := []struct {
		column string
		want   []any
	}{
		{"DailyRow.date", []any{day("2024-01-01"), day("2024-01-02"), day("2024-01-03"), day("2024-01-04")}},
		// 01-04 is only reported by INTRADAY
		{"DailyRow.close", []any{json.Number("10"), json.Number("11"), json.Number("12"), json.Number("13")}},
		{"DailyRow.volume", []any{nil, json.Number("100"), json.Number("200"), json.Number("300")}},
	}
	for _, tc := range testCases {
		if got := cells(t, got, tc.column); !sameCells(got, tc.want) {
			t.Errorf("Consolidate() %s = %v, want %v", tc.column, got, tc.want)
		}
	}
}

func TestConsolidate_singleEndpoint(t *testing.T) {
	tbl := mustTable(t, []string{"DailyRow.date"}, dates("2024-01-02", "2024-01-01"))
	got, err := Consolidate(EndpointTables{{Endpoint: "EOD", Table: tbl}}, []FieldRef{testDaily.Ref("date")}, false)
	if err != nil {
		t.Fatalf("Consolidate() failed: %v", err)
	}
	if got != tbl {
		t.Errorf("Consolidate() of a single table did not return it as is")
	}
}

func TestConsolidate_discrepancy(t *testing.T) {
	keys := []FieldRef{testFiling.Ref("filing_date")}
	tables := EndpointTables{
		{Endpoint: "BALANCE", Table: mustTable(t, []string{"FilingRow.filing_date", "FilingRow.reported_currency"},
			dates("2024-02-01", "2024-05-01"), col("USD", "USD"))},
		{Endpoint: "INCOME", Table: mustTable(t, []string{"FilingRow.filing_date", "FilingRow.reported_currency"},
			dates("2024-02-01", "2024-05-01"), col("USD", "EUR"))},
	}
	_, err := Consolidate(tables, keys, false)
	if !errors.Is(err, ErrDiscrepancy) {
		t.Fatalf("Consolidate() error = %v, want ErrDiscrepancy", err)
	}
	var de *DiscrepancyError
	if !errors.As(err, &de) {
		t.Fatalf("Consolidate() error = %T, want *DiscrepancyError", err)
	}
	if diff := cmp.Diff([]string{"FilingRow.reported_currency"}, de.Columns); diff != "" {
		t.Errorf("DiscrepancyError.Columns mismatch (-want +got):\n%s", diff)
	}
	wantNames := []string{"FilingRow.filing_date", "BALANCE$FilingRow.reported_currency", "INCOME$FilingRow.reported_currency"}
	if diff := cmp.Diff(wantNames, de.Table.Names()); diff != "" {
		t.Errorf("DiscrepancyError.Table names mismatch (-want +got):\n%s", diff)
	}
	if de.Table.Len() != 1 {
		t.Fatalf("DiscrepancyError.Table has %d rows, want 1", de.Table.Len())
	}
	if got, want := de.Table.Row(0), []any{day("2024-05-01"), "USD", "EUR"}; !sameCells(got, want) {
		t.Errorf("DiscrepancyError.Table row = %v, want %v", got, want)
	}
}

func TestConsolidate_nullAgainstValue(t *testing.T) {
	keys := []FieldRef{testDaily.Ref("date")}
	tables := EndpointTables{
		{Endpoint: "A", Table: mustTable(t, []string{"DailyRow.date", "DailyRow.close"}, dates("2024-01-01"), col(nil))},
		{Endpoint: "B", Table: mustTable(t, []string{"DailyRow.date", "DailyRow.close"}, dates("2024-01-01"), col(json.Number("1")))},
	}
	if _, err := Consolidate(tables, keys, false); !errors.Is(err, ErrDiscrepancy) {
		t.Errorf("Consolidate() error = %v, want ErrDiscrepancy", err)
	}
}

func TestConsolidate_deterministic(t *testing.T) {
	keys := []FieldRef{testDaily.Ref("date")}
	tables := EndpointTables{
		{Endpoint: "A", Table: mustTable(t, []string{"DailyRow.date", "DailyRow.close"}, dates("2024-01-01", "2024-01-03"), col(1, 3))},
		{Endpoint: "B", Table: mustTable(t, []string{"DailyRow.date", "DailyRow.volume"}, dates("2024-01-02", "2024-01-03"), col(20, 30))},
	}
	first, err := Consolidate(tables, keys, false)
	if err != nil {
		t.Fatalf("Consolidate() failed: %v", err)
	}
	for range 10 {
		got, err := Consolidate(tables, keys, false)
		if err != nil {
			t.Fatalf("Consolidate() failed: %v", err)
		}
		if !got.Equal(first) {
			t.Fatalf("Consolidate() is not deterministic")
		}
	}
}

func TestConsolidate_errors(t *testing.T) {
	keys := []FieldRef{testDaily.Ref("date")}
	testCases := []struct {
		name    string
		tables  EndpointTables
		wantErr error
	}{
		{
			name: "no key column",
			tables: EndpointTables{
				{Endpoint: "A", Table: mustTable(t, []string{"DailyRow.close"}, col(1))},
				{Endpoint: "B", Table: mustTable(t, []string{"DailyRow.close"}, col(1))},
			},
			wantErr: ErrToolkitRuntime,
		},
		{
			name: "contradictory order",
			tables: EndpointTables{
				{Endpoint: "A", Table: mustTable(t, []string{"DailyRow.date"}, dates("2024-01-01", "2024-01-02"))},
				{Endpoint: "B", Table: mustTable(t, []string{"DailyRow.date"}, dates("2024-01-02", "2024-01-01"))},
			},
			wantErr: ErrOrder,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Consolidate(tc.tables, keys, false); !errors.Is(err, tc.wantErr) {
				t.Errorf("Consolidate() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	a := col(json.Number("1"), nil)
	b := col(dec("1.0"), nil)
	c := col(json.Number("1"), json.Number("2"))
	got := dedupe([]Column{a, b, c})
	if len(got) != 2 {
		t.Fatalf("dedupe() kept %d columns, want 2", len(got))
	}
	if !got[0].Equal(a) || !got[1].Equal(c) {
		t.Errorf("dedupe() = %v, want [%v %v]", got, a, c)
	}
	if fingerprint(a) != fingerprint(b) {
		t.Errorf("fingerprint() differs for equal columns")
	}
}
