package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/sgmdata-labs/sgmsync-go/internal/domain"
)

const selectProjectByNameQuery = `SELECT id, name FROM lims_project WHERE name = $1`

type ProjectStore struct {
	db DB
}

func NewProjectStore(db DB) *ProjectStore {
	if db == nil {
		return nil
	}
	return &ProjectStore{db: db}
}

func (s *ProjectStore) FindByName(ctx context.Context, name string) (domain.Project, error) {
	if s == nil || s.db == nil {
		return domain.Project{}, fmt.Errorf("project store not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Project{}, fmt.Errorf("project name is required")
	}
	var p domain.Project
	row := s.db.QueryRowContext(ctx, selectProjectByNameQuery, name)
	if err := row.Scan(&p.ID, &p.Name); err != nil {
		return domain.Project{}, handleNotFound(err)
	}
	return p, nil
}
