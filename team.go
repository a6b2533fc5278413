package salescrm

import (
	"context"
	"errors"
	"regexp"
	"time"
)

var (
	ErrTeamNotFound  = errors.New("team not found")
	ErrInvalidPeriod = errors.New("period must be formatted as YYYY-MM")
)

type Team struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ManagerID *string   `json:"manager_id" db:"manager_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Quota is a salesperson's revenue target for one month.
type Quota struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Period    string    `json:"period" db:"period"`
	Target    float64   `json:"target" db:"target"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

var periodRE = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// PeriodRange returns the [start, end) bounds in UTC of a YYYY-MM period.
func PeriodRange(period string) (time.Time, time.Time, error) {
	if !periodRE.MatchString(period) {
		return time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	return start, start.AddDate(0, 1, 0), nil
}

// Period formats t as a quota period.
func Period(t time.Time) string {
	return t.UTC().Format("2006-01")
}

type TeamService interface {
	Create(ctx context.Context, team Team) error
	GetByID(ctx context.Context, id string) (Team, error)
	List(ctx context.Context) ([]Team, error)
	Members(ctx context.Context, teamID string) ([]User, error)
	// SetQuota inserts or replaces the quota of quota.UserID for quota.Period.
	SetQuota(ctx context.Context, quota Quota) (Quota, error)
	Quotas(ctx context.Context, period string) ([]Quota, error)
}
