package salescrm

import (
	"context"
	"errors"
	"time"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidProject  = errors.New("invalid project")
)

type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

// Project groups leads.
type Project struct {
	ID        string        `json:"id" db:"id"`
	Name      string        `json:"name" db:"name"`
	Budget    float64       `json:"budget" db:"budget"`
	Status    ProjectStatus `json:"status" db:"status"`
	StartDate *time.Time    `json:"start_date" db:"start_date"`
	EndDate   *time.Time    `json:"end_date" db:"end_date"`
	Link      string        `json:"link" db:"link"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// Validate fills the default status and checks the date range.
func (p *Project) Validate() error {
	if p.Name == "" {
		return ErrInvalidProject
	}
	if p.Status == "" {
		p.Status = ProjectPlanning
	}
	if !p.Status.Valid() {
		return ErrInvalidProject
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return ErrInvalidProject
	}
	return nil
}

type ProjectService interface {
	Create(ctx context.Context, project Project) error
	GetByID(ctx context.Context, id string) (Project, error)
	List(ctx context.Context) ([]Project, error)
	Update(ctx context.Context, project Project) error
	Delete(ctx context.Context, id string) error
}
