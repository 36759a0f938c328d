package domain

import "time"

// ScanAverage is the mean dataset computed over a subset of a sample's
// processed scans. Exactly one row exists per (project, domain); repeat
// averaging runs update the row in place.
type ScanAverage struct {
	ID        int64
	ProjectID int64
	Name      string
	Domain    string
	Group     string
	Status    Status
	Created   time.Time
	Modified  time.Time
}
