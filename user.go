package salescrm

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicatedUser = errors.New("email already in use")
	ErrInvalidRole    = errors.New("invalid role")
)

type Role string

const (
	RoleOwner    Role = "owner"
	RoleManager  Role = "manager"
	RoleSalesman Role = "salesman"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleSalesman:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"full_name" db:"full_name"`
	Role      Role      `json:"role" db:"role"`
	TeamID    *string   `json:"team_id" db:"team_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserFilter narrows List. Empty fields match everything.
type UserFilter struct {
	Role   Role
	TeamID string
}

type UserService interface {
	Create(ctx context.Context, newUser User) error
	GetByID(ctx context.Context, id string) (User, error)
	List(ctx context.Context, filter UserFilter) ([]User, error)
	Update(ctx context.Context, user User) error
}
