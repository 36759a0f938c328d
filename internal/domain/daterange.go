package domain

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DateRange bounds a scan query by acquisition start time, inclusive on
// both ends (SQL BETWEEN semantics).
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("date range requires both bounds")
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("date range end %s precedes start %s",
			r.End.Format(dateLayout), r.Start.Format(dateLayout))
	}
	return nil
}

// ParseDateRange accepts "YYYY-MM-DD" bounds. An empty end means
// end = now, matching the single-date query form. Malformed input fails
// here, before any I/O happens.
func ParseDateRange(start, end string) (DateRange, error) {
	first, err := time.Parse(dateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("incorrect date format %q, should be YYYY-MM-DD", start)
	}
	last := time.Now().UTC()
	if end != "" {
		last, err = time.Parse(dateLayout, end)
		if err != nil {
			return DateRange{}, fmt.Errorf("incorrect date format %q, should be YYYY-MM-DD", end)
		}
	}
	r := DateRange{Start: first, End: last}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}
