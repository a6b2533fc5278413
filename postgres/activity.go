package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	salescrm "github.com/phbpx/sales-crm"
)

const activityColumns = `id, type, description, lead_id, user_id, created_at`

type ActivityService struct {
	db *sqlx.DB
}

func NewActivityService(db *sqlx.DB) salescrm.ActivityService {
	return &ActivityService{
		db: db,
	}
}

// Create appends an activity. Contact activities (call, email, meeting) also
// move the lead's last_contacted_at forward.
func (as ActivityService) Create(ctx context.Context, activity salescrm.Activity) error {
	if !activity.Type.Valid() {
		return salescrm.ErrInvalidActivity
	}

	tx, err := as.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertActivity(ctx, tx, activity); err != nil {
		return err
	}

	if activity.Type.Contact() {
		const query = `
		UPDATE leads SET last_contacted_at = $2
		WHERE id = $1 AND (last_contacted_at IS NULL OR last_contacted_at < $2)`
		if _, err := tx.ExecContext(ctx, query, activity.LeadID, activity.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertActivity(ctx context.Context, ext sqlx.ExtContext, activity salescrm.Activity) error {
	query := `
	INSERT INTO activities (` + activityColumns + `)
	VALUES (:id, :type, :description, :lead_id, :user_id, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, ext, query, activity); err != nil {
		return translate(err, nil)
	}
	return nil
}

func (as ActivityService) ListByLead(ctx context.Context, leadID string) ([]salescrm.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE lead_id = $1 ORDER BY created_at DESC`

	activities := []salescrm.Activity{}
	if err := as.db.SelectContext(ctx, &activities, query, leadID); err != nil {
		return nil, err
	}
	return activities, nil
}

// ListByUser returns the latest activities authored by userID. A
// non-positive limit returns all of them.
func (as ActivityService) ListByUser(ctx context.Context, userID string, limit int) ([]salescrm.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE user_id = $1 ORDER BY created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	activities := []salescrm.Activity{}
	if err := as.db.SelectContext(ctx, &activities, query, args...); err != nil {
		return nil, err
	}
	return activities, nil
}
