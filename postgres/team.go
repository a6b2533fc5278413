package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	salescrm "github.com/phbpx/sales-crm"
)

const (
	teamColumns  = `id, name, manager_id, created_at`
	quotaColumns = `id, user_id, period, target, created_at`
)

type TeamService struct {
	db *sqlx.DB
}

func NewTeamService(db *sqlx.DB) salescrm.TeamService {
	return &TeamService{
		db: db,
	}
}

func (ts TeamService) Create(ctx context.Context, team salescrm.Team) error {
	query := `INSERT INTO teams (` + teamColumns + `) VALUES (:id, :name, :manager_id, :created_at)`

	if _, err := ts.db.NamedExecContext(ctx, query, team); err != nil {
		return translate(err, nil)
	}
	return nil
}

func (ts TeamService) GetByID(ctx context.Context, id string) (salescrm.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`

	var team salescrm.Team
	if err := ts.db.GetContext(ctx, &team, query, id); err != nil {
		if err == sql.ErrNoRows {
			return team, salescrm.ErrTeamNotFound
		}
		return team, err
	}
	return team, nil
}

func (ts TeamService) List(ctx context.Context) ([]salescrm.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams ORDER BY name`

	teams := []salescrm.Team{}
	if err := ts.db.SelectContext(ctx, &teams, query); err != nil {
		return nil, err
	}
	return teams, nil
}

func (ts TeamService) Members(ctx context.Context, teamID string) ([]salescrm.User, error) {
	if _, err := ts.GetByID(ctx, teamID); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE team_id = $1 ORDER BY full_name`

	users := []salescrm.User{}
	if err := ts.db.SelectContext(ctx, &users, query, teamID); err != nil {
		return nil, err
	}
	return users, nil
}

func (ts TeamService) SetQuota(ctx context.Context, quota salescrm.Quota) (salescrm.Quota, error) {
	if _, _, err := salescrm.PeriodRange(quota.Period); err != nil {
		return quota, err
	}
	if quota.ID == "" {
		quota.ID = uuid.NewString()
	}

	query := `
	INSERT INTO quotas (` + quotaColumns + `)
	VALUES (:id, :user_id, :period, :target, :created_at)
	ON CONFLICT (user_id, period) DO UPDATE SET target = EXCLUDED.target
	RETURNING ` + quotaColumns

	rows, err := ts.db.NamedQueryContext(ctx, query, quota)
	if err != nil {
		return quota, translate(err, nil)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.StructScan(&quota); err != nil {
			return quota, err
		}
	}
	return quota, rows.Err()
}

func (ts TeamService) Quotas(ctx context.Context, period string) ([]salescrm.Quota, error) {
	if _, _, err := salescrm.PeriodRange(period); err != nil {
		return nil, err
	}

	query := `SELECT ` + quotaColumns + ` FROM quotas WHERE period = $1 ORDER BY user_id`

	quotas := []salescrm.Quota{}
	if err := ts.db.SelectContext(ctx, &quotas, query, period); err != nil {
		return nil, err
	}
	return quotas, nil
}
