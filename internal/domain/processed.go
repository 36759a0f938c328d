package domain

import (
	"errors"
	"time"
)

// ErrNoAverage reports that no scan average could be selected for a set
// of processed scans.
var ErrNoAverage = errors.New("no average scan found")

// ProcessedScan is the interpolated representation of one raw scan.
// AverageID is nil while the row is not a member of any scan average;
// membership is transient and may be revoked by a later averaging run.
type ProcessedScan struct {
	ID          int64
	ProjectID   int64
	Name        string
	ScanID      int64
	Domain      string
	Group       string
	Resolution  float64
	Range       string
	Independent string
	Status      Status
	AverageID   *int64
	Created     time.Time
	Modified    time.Time
}

// SelectAverageID picks the current average for a set of processed rows
// by majority vote over their nullable average ids: the most frequent
// value wins, ties broken by first encounter. When the mode is null and
// more than one distinct value exists, the runner-up wins instead. With
// no non-null candidate the vote fails with ErrNoAverage.
//
// The null-runner-up rule is inherited from the upstream system and is
// preserved as-is, including the case where null is the only value.
func SelectAverageID(rows []ProcessedScan) (int64, error) {
	type candidate struct {
		id    *int64
		count int
	}
	var order []candidate
	index := make(map[int64]int)
	nullAt := -1
	for _, row := range rows {
		if row.AverageID == nil {
			if nullAt < 0 {
				nullAt = len(order)
				order = append(order, candidate{id: nil})
			}
			order[nullAt].count++
			continue
		}
		at, ok := index[*row.AverageID]
		if !ok {
			at = len(order)
			index[*row.AverageID] = at
			id := *row.AverageID
			order = append(order, candidate{id: &id})
		}
		order[at].count++
	}
	if len(order) == 0 {
		return 0, ErrNoAverage
	}
	best := 0
	for i, c := range order {
		if c.count > order[best].count {
			best = i
		}
	}
	if order[best].id == nil {
		if len(order) < 2 {
			return 0, ErrNoAverage
		}
		second := -1
		for i := range order {
			if i == best {
				continue
			}
			if second < 0 || order[i].count > order[second].count {
				second = i
			}
		}
		if order[second].id == nil {
			return 0, ErrNoAverage
		}
		return *order[second].id, nil
	}
	return *order[best].id, nil
}
