package domain

import (
	"errors"
	"testing"
)

func rowsWithAverages(ids ...*int64) []ProcessedScan {
	out := make([]ProcessedScan, len(ids))
	for i, id := range ids {
		out[i] = ProcessedScan{ID: int64(i + 1), AverageID: id}
	}
	return out
}

func ptr(v int64) *int64 { return &v }

func TestSelectAverageIDMajorityVote(t *testing.T) {
	got, err := SelectAverageID(rowsWithAverages(ptr(7), ptr(7), nil, ptr(7), ptr(9)))
	if err != nil {
		t.Fatalf("SelectAverageID: %v", err)
	}
	if got != 7 {
		t.Fatalf("SelectAverageID = %d, want 7", got)
	}
}

func TestSelectAverageIDNullModeFallsToRunnerUp(t *testing.T) {
	got, err := SelectAverageID(rowsWithAverages(nil, nil, nil, ptr(4), ptr(4)))
	if err != nil {
		t.Fatalf("SelectAverageID: %v", err)
	}
	if got != 4 {
		t.Fatalf("SelectAverageID = %d, want 4", got)
	}
}

func TestSelectAverageIDTieBreaksByFirstEncounter(t *testing.T) {
	got, err := SelectAverageID(rowsWithAverages(ptr(2), ptr(5), ptr(2), ptr(5)))
	if err != nil {
		t.Fatalf("SelectAverageID: %v", err)
	}
	if got != 2 {
		t.Fatalf("SelectAverageID = %d, want first-encountered 2", got)
	}
}

func TestSelectAverageIDAllNull(t *testing.T) {
	_, err := SelectAverageID(rowsWithAverages(nil, nil))
	if !errors.Is(err, ErrNoAverage) {
		t.Fatalf("err = %v, want ErrNoAverage", err)
	}
}

func TestSelectAverageIDEmpty(t *testing.T) {
	_, err := SelectAverageID(nil)
	if !errors.Is(err, ErrNoAverage) {
		t.Fatalf("err = %v, want ErrNoAverage", err)
	}
}
