package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	salescrm "github.com/phbpx/sales-crm"
)

const leadColumns = `
	id,
	company_name,
	contact_name,
	email,
	phone,
	value,
	status,
	assigned_to,
	project_id,
	last_contacted_at,
	description,
	link,
	created_by,
	status_changed_at,
	created_at,
	updated_at`

type LeadService struct {
	db *sqlx.DB
}

func NewLeadService(db *sqlx.DB) salescrm.LeadService {
	return &LeadService{
		db: db,
	}
}

func (ls LeadService) Create(ctx context.Context, lead salescrm.Lead) error {
	if err := lead.Validate(); err != nil {
		return err
	}

	tx, err := ls.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO leads (` + leadColumns + `
	) VALUES (
		:id, :company_name, :contact_name, :email, :phone, :value, :status,
		:assigned_to, :project_id, :last_contacted_at, :description, :link,
		:created_by, :status_changed_at, :created_at, :updated_at
	)`

	if _, err := tx.NamedExecContext(ctx, query, lead); err != nil {
		tx.Rollback()
		return translate(err, salescrm.ErrDuplicatedLead)
	}

	return tx.Commit()
}

func (ls LeadService) GetByID(ctx context.Context, id string) (salescrm.Lead, error) {
	lead, err := getLead(ctx, ls.db, id, false)
	if err != nil {
		return lead, err
	}
	lead.Normalize()
	return lead, nil
}

// getLead reads one lead with its status as stored. forUpdate locks the row
// for the rest of the transaction.
func getLead(ctx context.Context, q sqlx.QueryerContext, id string, forUpdate bool) (salescrm.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var lead salescrm.Lead
	if err := sqlx.GetContext(ctx, q, &lead, query, id); err != nil {
		if err == sql.ErrNoRows {
			return lead, salescrm.ErrLeadNotFound
		}
		return lead, err
	}

	return lead, nil
}

// List pushes the assignee and project criteria down to SQL and applies the
// status and search criteria with salescrm.FilterLeads, so legacy status
// values are matched the same way everywhere.
func (ls LeadService) List(ctx context.Context, filter salescrm.LeadFilter) ([]salescrm.Lead, error) {
	var (
		where []string
		args  []interface{}
	)

	switch filter.AssignedTo {
	case "":
	case salescrm.Unassigned:
		where = append(where, "assigned_to IS NULL")
	default:
		args = append(args, filter.AssignedTo)
		where = append(where, fmt.Sprintf("assigned_to = $%d", len(args)))
	}

	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	leads := []salescrm.Lead{}
	if err := ls.db.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, err
	}

	leads = salescrm.FilterLeads(leads, filter)
	salescrm.NormalizeLeads(leads)
	return leads, nil
}

// Update writes the editable fields of lead. Status and assignee have their
// own operations because they leave an activity behind.
func (ls LeadService) Update(ctx context.Context, lead salescrm.Lead) error {
	if lead.CompanyName == "" {
		return salescrm.ErrInvalidLead
	}

	query := `
	UPDATE leads SET
		company_name = :company_name,
		contact_name = :contact_name,
		email = :email,
		phone = :phone,
		value = :value,
		project_id = :project_id,
		description = :description,
		link = :link,
		updated_at = :updated_at
	WHERE id = :id`

	res, err := ls.db.NamedExecContext(ctx, query, lead)
	if err != nil {
		return translate(err, nil)
	}

	return affected(res, salescrm.ErrLeadNotFound)
}

func (ls LeadService) UpdateStatus(ctx context.Context, id string, status salescrm.Status, actorID string) (salescrm.Lead, error) {
	status, err := salescrm.ParseStatus(string(status))
	if err != nil {
		return salescrm.Lead{}, err
	}

	tx, err := ls.db.BeginTxx(ctx, nil)
	if err != nil {
		return salescrm.Lead{}, err
	}
	defer tx.Rollback()

	lead, err := getLead(ctx, tx, id, true)
	if err != nil {
		return lead, err
	}

	if lead.Status == status {
		return lead, tx.Commit()
	}

	// A legacy spelling of the same stage is rewritten in place. The stage
	// did not change, so neither status_changed_at nor the history moves.
	previous := salescrm.NormalizeStatus(string(lead.Status))
	if previous == status {
		const query = `UPDATE leads SET status = $2 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, query, id, status); err != nil {
			return lead, err
		}
		if err := tx.Commit(); err != nil {
			return lead, err
		}
		lead.Status = status
		return lead, nil
	}

	now := time.Now().UTC()
	const query = `UPDATE leads SET status = $2, status_changed_at = $3, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, status, now); err != nil {
		return lead, err
	}

	activity := salescrm.Activity{
		ID:          uuid.NewString(),
		Type:        salescrm.ActivityStatusChange,
		Description: fmt.Sprintf("Status changed from %s to %s", previous, status),
		LeadID:      id,
		UserID:      nullable(actorID),
		CreatedAt:   now,
	}
	if err := insertActivity(ctx, tx, activity); err != nil {
		return lead, err
	}

	if err := tx.Commit(); err != nil {
		return lead, err
	}

	lead.Status = status
	lead.StatusChangedAt = now
	lead.UpdatedAt = now
	return lead, nil
}

func (ls LeadService) Assign(ctx context.Context, id string, assignee *string, actorID string) (salescrm.Lead, error) {
	tx, err := ls.db.BeginTxx(ctx, nil)
	if err != nil {
		return salescrm.Lead{}, err
	}
	defer tx.Rollback()

	lead, err := getLead(ctx, tx, id, true)
	if err != nil {
		return lead, err
	}

	now := time.Now().UTC()
	const query = `UPDATE leads SET assigned_to = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, assignee, now); err != nil {
		return lead, translate(err, nil)
	}

	description := "Lead unassigned"
	if assignee != nil {
		var name string
		err := tx.GetContext(ctx, &name, `SELECT full_name FROM users WHERE id = $1`, *assignee)
		if err != nil && err != sql.ErrNoRows {
			return lead, err
		}
		if name == "" {
			name = *assignee
		}
		description = "Lead assigned to " + name
	}

	activity := salescrm.Activity{
		ID:          uuid.NewString(),
		Type:        salescrm.ActivityAssignment,
		Description: description,
		LeadID:      id,
		UserID:      nullable(actorID),
		CreatedAt:   now,
	}
	if err := insertActivity(ctx, tx, activity); err != nil {
		return lead, err
	}

	if err := tx.Commit(); err != nil {
		return lead, err
	}

	lead.AssignedTo = assignee
	lead.UpdatedAt = now
	lead.Normalize()
	return lead, nil
}

// Touch records that the lead was contacted at the given time.
func (ls LeadService) Touch(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE leads SET last_contacted_at = $2 WHERE id = $1`

	res, err := ls.db.ExecContext(ctx, query, id, at.UTC())
	if err != nil {
		return err
	}

	return affected(res, salescrm.ErrLeadNotFound)
}

func (ls LeadService) Delete(ctx context.Context, id string) error {
	res, err := ls.db.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return affected(res, salescrm.ErrLeadNotFound)
}

// affected returns notFound when the statement touched no row.
func affected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
