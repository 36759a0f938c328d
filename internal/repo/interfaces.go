package repo

import (
	"context"
	"errors"

	"github.com/sgmdata-labs/sgmsync-go/internal/domain"
)

// ErrNotFound reports an empty lookup. Callers treat it as "no data",
// not as a hard failure.
var ErrNotFound = errors.New("not found")

// UpsertProcessedScan carries the fields persisted for one interpolated
// scan entry. Domain identifies the row within the project: re-running a
// pipeline against the same domain updates in place.
type UpsertProcessedScan struct {
	ProjectID   int64
	Name        string
	ScanID      int64
	Domain      string
	Group       string
	Resolution  float64
	Range       string
	Independent string
}

// UpsertScanAverage carries the fields persisted for one scan average.
type UpsertScanAverage struct {
	ProjectID int64
	Name      string
	Domain    string
	Group     string
}

// ProjectStore resolves account namespaces. Projects are read-only here.
type ProjectStore interface {
	FindByName(ctx context.Context, name string) (domain.Project, error)
}

// SampleStore resolves samples within a project.
type SampleStore interface {
	FindByName(ctx context.Context, projectID int64, name string) (domain.Sample, error)
}

// ScanStore lists raw scans eligible for processing.
type ScanStore interface {
	List(ctx context.Context, projectID, sampleID int64, dates *domain.DateRange) ([]domain.Scan, error)
}

// ProcessedScanStore manages interpolated-scan provenance rows.
type ProcessedScanStore interface {
	ListByScans(ctx context.Context, scanIDs []int64) ([]domain.ProcessedScan, error)
	Upsert(ctx context.Context, fields UpsertProcessedScan) (int64, error)
}

// ScanAverageStore manages averaged-result rows and their membership.
type ScanAverageStore interface {
	Get(ctx context.Context, projectID, id int64) (domain.ScanAverage, error)
	Upsert(ctx context.Context, fields UpsertScanAverage, memberIDs []int64) (int64, error)
}

// StatusAdvancer applies the one-step status transition to a batch of
// rows in a single transaction.
type StatusAdvancer interface {
	AdvanceStatus(ctx context.Context, table string, ids []int64) error
}
