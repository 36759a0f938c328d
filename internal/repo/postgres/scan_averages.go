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

const (
	selectAverageQuery = `SELECT id, project_id, name, domain, "group", status, created, modified
	 FROM lims_xasscanaverage
	 WHERE project_id = $1 AND id = $2`

	selectAverageByDomainQuery = `SELECT id FROM lims_xasscanaverage WHERE domain = $1 AND project_id = $2`

	insertAverageQuery = `INSERT INTO lims_xasscanaverage
	 (project_id, name, created, modified, download, domain, "group", status)
	 VALUES ($1, $2, $3, $4, TRUE, $5, $6, $7)
	 RETURNING id`

	touchAverageQuery = `UPDATE lims_xasscanaverage SET modified = $1 WHERE id = $2`

	selectSampleIDQuery = `SELECT id FROM lims_xassample WHERE name = $1 AND project_id = $2`
)

type ScanAverageStore struct {
	db     DB
	status *StatusStore
	now    func() time.Time
}

func NewScanAverageStore(db DB) *ScanAverageStore {
	if db == nil {
		return nil
	}
	return &ScanAverageStore{db: db, status: NewStatusStore(db), now: time.Now}
}

// Get fetches an average row within a project. An average owned by a
// different project is indistinguishable from a missing one.
func (s *ScanAverageStore) Get(ctx context.Context, projectID, id int64) (domain.ScanAverage, error) {
	if s == nil || s.db == nil {
		return domain.ScanAverage{}, fmt.Errorf("scan average store not initialized")
	}
	var avg domain.ScanAverage
	row := s.db.QueryRowContext(ctx, selectAverageQuery, projectID, id)
	if err := row.Scan(&avg.ID, &avg.ProjectID, &avg.Name, &avg.Domain, &avg.Group,
		&avg.Status, &avg.Created, &avg.Modified); err != nil {
		return domain.ScanAverage{}, handleNotFound(err)
	}
	return avg, nil
}

// Upsert inserts or refreshes the average row identified by
// (domain, project) and replaces its membership with exactly memberIDs:
// rows newly included are pointed at the average, rows previously
// included but absent now are reset to no average. Finishes by advancing
// the owning sample's status. The membership rewrite commits as one
// transaction.
func (s *ScanAverageStore) Upsert(ctx context.Context, fields repo.UpsertScanAverage, memberIDs []int64) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("scan average store not initialized")
	}
	if fields.Domain == "" {
		return 0, fmt.Errorf("scan average domain is required")
	}
	if fields.ProjectID <= 0 {
		return 0, fmt.Errorf("project id is required")
	}
	now := nowUTC(s.now)
	group := fields.Group
	if group == "" {
		group = "entry1/"
	}

	var avgID int64
	err := inTx(ctx, s.db, func(q DB) error {
		err := q.QueryRowContext(ctx, selectAverageByDomainQuery, fields.Domain, fields.ProjectID).Scan(&avgID)
		switch {
		case err == nil:
			if err := s.replaceMembership(ctx, q, avgID, memberIDs, now); err != nil {
				return err
			}
			if _, err := q.ExecContext(ctx, touchAverageQuery, now, avgID); err != nil {
				return fmt.Errorf("touch scan average %d: %w", avgID, err)
			}
			return nil
		case errors.Is(err, sql.ErrNoRows):
			err := q.QueryRowContext(ctx, insertAverageQuery,
				fields.ProjectID, fields.Name, now, now, fields.Domain, group, domain.StatusUploaded,
			).Scan(&avgID)
			if err != nil {
				return fmt.Errorf("insert scan average: %w", err)
			}
			return s.pointMembers(ctx, q, avgID, memberIDs, now)
		default:
			return fmt.Errorf("lookup scan average: %w", err)
		}
	})
	if err != nil {
		return 0, err
	}

	if err := s.advanceSample(ctx, fields.Name, fields.ProjectID); err != nil {
		return 0, err
	}
	return avgID, nil
}

func (s *ScanAverageStore) pointMembers(ctx context.Context, q DB, avgID int64, memberIDs []int64, now time.Time) error {
	if len(memberIDs) == 0 {
		return nil
	}
	query := fmt.Sprintf(`UPDATE lims_xasprocessedscan SET average_id = $1, modified = $2 WHERE id IN (%s)`,
		placeholders(3, len(memberIDs)))
	args := append([]any{avgID, now}, int64Args(memberIDs)...)
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("point members at average %d: %w", avgID, err)
	}
	return nil
}

// replaceMembership enforces the full-replace invariant: after it runs,
// the rows pointing at avgID are exactly memberIDs.
func (s *ScanAverageStore) replaceMembership(ctx context.Context, q DB, avgID int64, memberIDs []int64, now time.Time) error {
	if err := s.pointMembers(ctx, q, avgID, memberIDs, now); err != nil {
		return err
	}
	query := `UPDATE lims_xasprocessedscan SET average_id = NULL, modified = $1 WHERE average_id = $2`
	args := []any{now, avgID}
	if len(memberIDs) > 0 {
		query = fmt.Sprintf(`UPDATE lims_xasprocessedscan SET average_id = NULL, modified = $1
	 WHERE average_id = $2 AND id NOT IN (%s)`, placeholders(3, len(memberIDs)))
		args = append(args, int64Args(memberIDs)...)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("reset stale members of average %d: %w", avgID, err)
	}
	return nil
}

func (s *ScanAverageStore) advanceSample(ctx context.Context, name string, projectID int64) error {
	var sampleID int64
	err := s.db.QueryRowContext(ctx, selectSampleIDQuery, name, projectID).Scan(&sampleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup sample %q: %w", name, err)
	}
	return s.status.AdvanceStatus(ctx, "lims_xassample", []int64{sampleID})
}
