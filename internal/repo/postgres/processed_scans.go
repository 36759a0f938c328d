package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sgmdata-labs/sgmsync-go/internal/domain"
	"github.com/sgmdata-labs/sgmsync-go/internal/repo"
)

// listProcessedLimit bounds one provenance fetch, matching the upstream
// system's batch size.
const listProcessedLimit = 500

const (
	selectProcessedByDomainQuery = `SELECT id FROM lims_xasprocessedscan WHERE domain = $1 AND project_id = $2`

	touchProcessedQuery = `UPDATE lims_xasprocessedscan SET modified = $1, resolution = $2 WHERE id = $3`

	insertProcessedQuery = `INSERT INTO lims_xasprocessedscan
	 (project_id, name, created, modified, xasscan_id, download, domain, "group", resolution, "range", independent, status)
	 VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7, $8, $9, $10, $11)
	 RETURNING id`
)

type ProcessedScanStore struct {
	db     DB
	status *StatusStore
	now    func() time.Time
}

func NewProcessedScanStore(db DB) *ProcessedScanStore {
	if db == nil {
		return nil
	}
	return &ProcessedScanStore{db: db, status: NewStatusStore(db), now: time.Now}
}

// ListByScans fetches the processed rows derived from the given raw
// scans, at most listProcessedLimit of them.
func (s *ProcessedScanStore) ListByScans(ctx context.Context, scanIDs []int64) ([]domain.ProcessedScan, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("processed scan store not initialized")
	}
	if len(scanIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT id, project_id, name, xasscan_id, domain, "group", resolution, "range", independent, status, average_id, created, modified
	 FROM lims_xasprocessedscan
	 WHERE xasscan_id IN (%s)
	 ORDER BY id
	 LIMIT %d`, placeholders(1, len(scanIDs)), listProcessedLimit)
	rows, err := s.db.QueryContext(ctx, query, int64Args(scanIDs)...)
	if err != nil {
		return nil, fmt.Errorf("list processed scans: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ProcessedScan, 0)
	for rows.Next() {
		var (
			p     domain.ProcessedScan
			avgID sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Name, &p.ScanID, &p.Domain, &p.Group,
			&p.Resolution, &p.Range, &p.Independent, &p.Status, &avgID, &p.Created, &p.Modified); err != nil {
			return nil, fmt.Errorf("processed scan row: %w", err)
		}
		if avgID.Valid {
			id := avgID.Int64
			p.AverageID = &id
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list processed scans: %w", err)
	}
	return out, nil
}

// Upsert inserts or refreshes the provenance row identified by
// (domain, project). An existing row only has modified and resolution
// touched; a new row is stamped created/modified/status=5 and the parent
// scan is status-advanced. Re-running against the same domain never
// duplicates rows.
func (s *ProcessedScanStore) Upsert(ctx context.Context, fields repo.UpsertProcessedScan) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("processed scan store not initialized")
	}
	if fields.Domain == "" {
		return 0, fmt.Errorf("processed scan domain is required")
	}
	if fields.ProjectID <= 0 {
		return 0, fmt.Errorf("project id is required")
	}
	now := nowUTC(s.now)

	var id int64
	err := s.db.QueryRowContext(ctx, selectProcessedByDomainQuery, fields.Domain, fields.ProjectID).Scan(&id)
	switch {
	case err == nil:
		if _, err := s.db.ExecContext(ctx, touchProcessedQuery, now, fields.Resolution, id); err != nil {
			return 0, fmt.Errorf("touch processed scan %d: %w", id, err)
		}
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
		// fall through to insert
	default:
		return 0, fmt.Errorf("lookup processed scan: %w", err)
	}

	err = s.db.QueryRowContext(ctx, insertProcessedQuery,
		fields.ProjectID, fields.Name, now, now, fields.ScanID,
		fields.Domain, fields.Group, fields.Resolution, fields.Range,
		fields.Independent, domain.StatusUploaded,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert processed scan: %w", err)
	}
	if err := s.status.AdvanceStatus(ctx, "lims_xasscan", []int64{fields.ScanID}); err != nil {
		return 0, fmt.Errorf("advance scan %d: %w", fields.ScanID, err)
	}
	return id, nil
}
