package domain

import (
	"errors"
	"strings"
	"time"
)

// Project is the account namespace a user's samples live under. Rows are
// created by the acquisition system; this core only reads them.
type Project struct {
	ID   int64
	Name string
}

func (p Project) Validate() error {
	if p.ID <= 0 {
		return errors.New("project id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("project name is required")
	}
	return nil
}

// Sample groups the scans acquired for one physical specimen.
type Sample struct {
	ID        int64
	ProjectID int64
	Name      string
	Status    Status
	Modified  time.Time
}

func (s Sample) Validate() error {
	if s.ID <= 0 {
		return errors.New("sample id is required")
	}
	if s.ProjectID <= 0 {
		return errors.New("sample project id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("sample name is required")
	}
	return nil
}
