package postgres

import (
	"context"
	"fmt"

	"github.com/sgmdata-labs/sgmsync-go/internal/domain"
)

const (
	selectScansQuery = `SELECT id, project_id, sample_id, domain, "group", start_time, status
	 FROM lims_xasscan
	 WHERE project_id = $1 AND sample_id = $2
	 ORDER BY start_time`

	selectScansByDateQuery = `SELECT id, project_id, sample_id, domain, "group", start_time, status
	 FROM lims_xasscan
	 WHERE project_id = $1 AND sample_id = $2 AND start_time BETWEEN $3 AND $4
	 ORDER BY start_time`
)

type ScanStore struct {
	db DB
}

func NewScanStore(db DB) *ScanStore {
	if db == nil {
		return nil
	}
	return &ScanStore{db: db}
}

func (s *ScanStore) List(ctx context.Context, projectID, sampleID int64, dates *domain.DateRange) ([]domain.Scan, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("scan store not initialized")
	}
	if projectID <= 0 || sampleID <= 0 {
		return nil, fmt.Errorf("project and sample ids are required")
	}
	query := selectScansQuery
	args := []any{projectID, sampleID}
	if dates != nil && !dates.IsZero() {
		if err := dates.Validate(); err != nil {
			return nil, err
		}
		query = selectScansByDateQuery
		args = append(args, dates.Start, dates.End)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	scans := make([]domain.Scan, 0)
	for rows.Next() {
		var sc domain.Scan
		if err := rows.Scan(&sc.ID, &sc.ProjectID, &sc.SampleID, &sc.Domain, &sc.Group, &sc.StartTime, &sc.Status); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		scans = append(scans, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	return scans, nil
}
