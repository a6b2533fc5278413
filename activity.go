package salescrm

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidActivity = errors.New("invalid activity type")

type ActivityType string

const (
	ActivityCall         ActivityType = "call"
	ActivityEmail        ActivityType = "email"
	ActivityNote         ActivityType = "note"
	ActivityMeeting      ActivityType = "meeting"
	ActivityStatusChange ActivityType = "status_change"
	ActivityAssignment   ActivityType = "assignment"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityCall, ActivityEmail, ActivityNote, ActivityMeeting,
		ActivityStatusChange, ActivityAssignment:
		return true
	}
	return false
}

// Contact reports whether the activity counts as reaching out to the lead.
func (t ActivityType) Contact() bool {
	return t == ActivityCall || t == ActivityEmail || t == ActivityMeeting
}

// Activity is an append-only log entry attached to a lead.
type Activity struct {
	ID          string       `json:"id" db:"id"`
	Type        ActivityType `json:"type" db:"type"`
	Description string       `json:"description" db:"description"`
	LeadID      string       `json:"lead_id" db:"lead_id"`
	UserID      *string      `json:"user_id" db:"user_id"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

type ActivityService interface {
	Create(ctx context.Context, activity Activity) error
	ListByLead(ctx context.Context, leadID string) ([]Activity, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Activity, error)
}
