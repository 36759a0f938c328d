package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/sgmdata-labs/sgmsync-go/internal/domain"
)

const selectSampleByNameQuery = `SELECT id, project_id, name, status FROM lims_xassample WHERE project_id = $1 AND name = $2`

type SampleStore struct {
	db DB
}

func NewSampleStore(db DB) *SampleStore {
	if db == nil {
		return nil
	}
	return &SampleStore{db: db}
}

func (s *SampleStore) FindByName(ctx context.Context, projectID int64, name string) (domain.Sample, error) {
	if s == nil || s.db == nil {
		return domain.Sample{}, fmt.Errorf("sample store not initialized")
	}
	if projectID <= 0 {
		return domain.Sample{}, fmt.Errorf("project id is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Sample{}, fmt.Errorf("sample name is required")
	}
	var sm domain.Sample
	row := s.db.QueryRowContext(ctx, selectSampleByNameQuery, projectID, name)
	if err := row.Scan(&sm.ID, &sm.ProjectID, &sm.Name, &sm.Status); err != nil {
		return domain.Sample{}, handleNotFound(err)
	}
	return sm, nil
}
