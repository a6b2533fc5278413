package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	salescrm "github.com/phbpx/sales-crm"
)

const userColumns = `id, email, full_name, role, team_id, created_at`

type UserService struct {
	db *sqlx.DB
}

func NewUserService(db *sqlx.DB) salescrm.UserService {
	return &UserService{
		db: db,
	}
}

func (us UserService) Create(ctx context.Context, user salescrm.User) error {
	if !user.Role.Valid() {
		return salescrm.ErrInvalidRole
	}

	query := `
	INSERT INTO users (` + userColumns + `)
	VALUES (:id, :email, :full_name, :role, :team_id, :created_at)`

	if _, err := us.db.NamedExecContext(ctx, query, user); err != nil {
		return translate(err, salescrm.ErrDuplicatedUser)
	}
	return nil
}

func (us UserService) GetByID(ctx context.Context, id string) (salescrm.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user salescrm.User
	if err := us.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return user, salescrm.ErrUserNotFound
		}
		return user, err
	}
	return user, nil
}

func (us UserService) List(ctx context.Context, filter salescrm.UserFilter) ([]salescrm.User, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Role != "" {
		args = append(args, filter.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.TeamID != "" {
		args = append(args, filter.TeamID)
		where = append(where, fmt.Sprintf("team_id = $%d", len(args)))
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY full_name`

	users := []salescrm.User{}
	if err := us.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, err
	}
	return users, nil
}

// Update changes the profile fields of a user. Users are never deleted.
func (us UserService) Update(ctx context.Context, user salescrm.User) error {
	if !user.Role.Valid() {
		return salescrm.ErrInvalidRole
	}

	query := `
	UPDATE users SET
		email = :email,
		full_name = :full_name,
		role = :role,
		team_id = :team_id
	WHERE id = :id`

	res, err := us.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return translate(err, salescrm.ErrDuplicatedUser)
	}
	return affected(res, salescrm.ErrUserNotFound)
}
