package domain

import "testing"

func TestStatusNextIsMonotonic(t *testing.T) {
	cases := []struct {
		from Status
		want Status
	}{
		{StatusNew, StatusUploaded},
		{StatusUploaded, StatusProcessing},
		{StatusProcessing, StatusProcessed},
		{StatusProcessed, StatusProcessed},
	}
	for _, tc := range cases {
		if got := tc.from.Next(); got != tc.want {
			t.Errorf("Next(%d) = %d, want %d", tc.from, got, tc.want)
		}
	}
}

func TestStatusNeverLeavesKnownSet(t *testing.T) {
	s := StatusNew
	for i := 0; i < 10; i++ {
		s = s.Next()
		if !s.Valid() {
			t.Fatalf("advance %d produced invalid status %d", i, s)
		}
	}
	if s != StatusProcessed {
		t.Fatalf("repeated advance ended at %d, want terminal %d", s, StatusProcessed)
	}
}

func TestStatusNextKeepsUnknownValues(t *testing.T) {
	if got := Status(3).Next(); got != Status(3) {
		t.Fatalf("Next(3) = %d, want 3", got)
	}
}
