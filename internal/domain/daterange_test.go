package domain

import (
	"testing"
	"time"
)

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2023-01-02", "2023-02-03")
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	if r.Start != time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC) {
		t.Errorf("start = %v", r.Start)
	}
	if r.End != time.Date(2023, 2, 3, 0, 0, 0, 0, time.UTC) {
		t.Errorf("end = %v", r.End)
	}
}

func TestParseDateRangeSingleDateEndsNow(t *testing.T) {
	before := time.Now().UTC()
	r, err := ParseDateRange("2023-01-02", "")
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	if r.End.Before(before) {
		t.Errorf("end %v precedes call time %v", r.End, before)
	}
}

func TestParseDateRangeRejectsMalformedInput(t *testing.T) {
	cases := []struct{ start, end string }{
		{"02-01-2023", "2023-02-03"},
		{"2023-01-02", "tomorrow"},
		{"", "2023-02-03"},
		{"2023-02-03", "2023-01-02"}, // reversed bounds
	}
	for _, tc := range cases {
		if _, err := ParseDateRange(tc.start, tc.end); err == nil {
			t.Errorf("ParseDateRange(%q, %q) accepted malformed input", tc.start, tc.end)
		}
	}
}
