package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	salescrm "github.com/phbpx/sales-crm"
)

const projectColumns = `id, name, budget, status, start_date, end_date, link, created_at`

type ProjectService struct {
	db *sqlx.DB
}

func NewProjectService(db *sqlx.DB) salescrm.ProjectService {
	return &ProjectService{
		db: db,
	}
}

func (ps ProjectService) Create(ctx context.Context, project salescrm.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}

	query := `
	INSERT INTO projects (` + projectColumns + `)
	VALUES (:id, :name, :budget, :status, :start_date, :end_date, :link, :created_at)`

	_, err := ps.db.NamedExecContext(ctx, query, project)
	return err
}

func (ps ProjectService) GetByID(ctx context.Context, id string) (salescrm.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	var project salescrm.Project
	if err := ps.db.GetContext(ctx, &project, query, id); err != nil {
		if err == sql.ErrNoRows {
			return project, salescrm.ErrProjectNotFound
		}
		return project, err
	}
	return project, nil
}

func (ps ProjectService) List(ctx context.Context) ([]salescrm.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC`

	projects := []salescrm.Project{}
	if err := ps.db.SelectContext(ctx, &projects, query); err != nil {
		return nil, err
	}
	return projects, nil
}

func (ps ProjectService) Update(ctx context.Context, project salescrm.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}

	query := `
	UPDATE projects SET
		name = :name,
		budget = :budget,
		status = :status,
		start_date = :start_date,
		end_date = :end_date,
		link = :link
	WHERE id = :id`

	res, err := ps.db.NamedExecContext(ctx, query, project)
	if err != nil {
		return err
	}
	return affected(res, salescrm.ErrProjectNotFound)
}

// Delete removes the project. Its leads stay, detached from any project.
func (ps ProjectService) Delete(ctx context.Context, id string) error {
	res, err := ps.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(res, salescrm.ErrProjectNotFound)
}
