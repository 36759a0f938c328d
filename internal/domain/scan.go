package domain

import (
	"strings"
	"time"
)

// Scan is one raw acquisition. Domain is the dotted file-store locator
// (e.g. "run1.alice.vsrv-sgm-hdf5-01.clsi.ca") and Group the NeXus entry
// label the scan was recorded under.
type Scan struct {
	ID        int64
	ProjectID int64
	SampleID  int64
	Domain    string
	Group     string
	StartTime time.Time
	Status    Status
}

// BaseName is the domain text before the first dot, shared by all scans
// written into the same container file.
func (s Scan) BaseName() string {
	name, _, _ := strings.Cut(s.Domain, ".")
	return name
}

// GroupScans indexes scans as base name -> entry label -> scan id, the
// shape used to correlate processed entries back to their source scan.
func GroupScans(scans []Scan) map[string]map[string]int64 {
	out := make(map[string]map[string]int64, len(scans))
	for _, sc := range scans {
		base := sc.BaseName()
		if _, ok := out[base]; !ok {
			out[base] = make(map[string]int64)
		}
		out[base][sc.Group] = sc.ID
	}
	return out
}
