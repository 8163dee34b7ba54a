package date

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		name    string
		in      string
		want    Date
		wantErr bool
	}{
		{"iso", "2024-03-31", New(2024, time.March, 31), false},
		{"single digits", "2025-7-1", New(2025, time.July, 1), false},
		{"datetime", "2024-03-31T10:00:00Z", Date{}, true},
		{"empty", "", Date{}, true},
		{"garbage", "not a date", Date{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestFromTime(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	in := time.Date(2024, time.January, 2, 23, 59, 0, 0, loc)
	if got, want := FromTime(in), New(2024, time.January, 2); got != want {
		t.Errorf("FromTime(%v) = %v, want %v", in, got, want)
	}
}

func TestCompare(t *testing.T) {
	a, b := New(2024, time.January, 2), New(2024, time.January, 3)
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Errorf("Compare(%v, %v) is not a total order", a, b)
	}
	if !a.Before(b) || !b.After(a) {
		t.Errorf("Before/After disagree with Compare for %v and %v", a, b)
	}
}

func TestQuarter(t *testing.T) {
	testCases := []struct {
		in   Date
		want int
	}{
		{New(2024, time.January, 1), 1},
		{New(2024, time.March, 31), 1},
		{New(2024, time.April, 1), 2},
		{New(2024, time.September, 30), 3},
		{New(2024, time.December, 31), 4},
	}
	for _, tc := range testCases {
		if got := tc.in.Quarter(); got != tc.want {
			t.Errorf("%v.Quarter() = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := New(2024, time.February, 29)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("json.Marshal(%v) failed: %v", d, err)
	}
	if string(data) != `"2024-02-29"` {
		t.Errorf("json.Marshal(%v) = %s, want %q", d, data, "2024-02-29")
	}
}
