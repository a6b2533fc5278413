package salescrm

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrLeadNotFound     = errors.New("lead not found")
	ErrDuplicatedLead   = errors.New("lead already exists")
	ErrInvalidStatus    = errors.New("invalid lead status")
	ErrInvalidLead      = errors.New("lead requires a company name")
	ErrUnknownReference = errors.New("referenced record does not exist")
)

type Lead struct {
	ID              string     `json:"id" db:"id"`
	CompanyName     string     `json:"company_name" db:"company_name"`
	ContactName     string     `json:"contact_name" db:"contact_name"`
	Email           string     `json:"email" db:"email"`
	Phone           string     `json:"phone" db:"phone"`
	Value           float64    `json:"value" db:"value"`
	Status          Status     `json:"status" db:"status"`
	AssignedTo      *string    `json:"assigned_to" db:"assigned_to"`
	ProjectID       *string    `json:"project_id" db:"project_id"`
	LastContactedAt *time.Time `json:"last_contacted_at" db:"last_contacted_at"`
	Description     string     `json:"description" db:"description"`
	Link            string     `json:"link" db:"link"`
	CreatedBy       *string    `json:"created_by" db:"created_by"`
	StatusChangedAt time.Time  `json:"status_changed_at" db:"status_changed_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// UnmarshalJSON accepts the pre-migration keys "company" and "contact" when
// the current ones are missing. Encoding only ever emits the current keys.
func (l *Lead) UnmarshalJSON(data []byte) error {
	type plain Lead
	aux := struct {
		*plain
		Company string `json:"company"`
		Contact string `json:"contact"`
	}{plain: (*plain)(l)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if l.CompanyName == "" {
		l.CompanyName = aux.Company
	}
	if l.ContactName == "" {
		l.ContactName = aux.Contact
	}
	return nil
}

// Assigned reports whether the lead is assigned to userID.
func (l Lead) Assigned(userID string) bool {
	return l.AssignedTo != nil && *l.AssignedTo == userID
}

// Normalize rewrites a legacy stored status to its canonical value. Every
// read path applies it so callers never see legacy spellings.
func (l *Lead) Normalize() {
	l.Status = NormalizeStatus(string(l.Status))
}

// NormalizeLeads applies Normalize to every lead in place.
func NormalizeLeads(leads []Lead) {
	for i := range leads {
		leads[i].Normalize()
	}
}

// Validate normalizes the lead status and checks the fields every stored
// lead must carry. An empty status becomes StatusNew.
func (l *Lead) Validate() error {
	if l.CompanyName == "" {
		return ErrInvalidLead
	}
	if l.Status == "" {
		l.Status = StatusNew
	}
	st, err := ParseStatus(string(l.Status))
	if err != nil {
		return err
	}
	l.Status = st
	return nil
}

type LeadService interface {
	Create(ctx context.Context, newLead Lead) error
	GetByID(ctx context.Context, id string) (Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]Lead, error)
	Update(ctx context.Context, lead Lead) error
	// UpdateStatus moves the lead to status and records a status_change
	// activity authored by actorID.
	UpdateStatus(ctx context.Context, id string, status Status, actorID string) (Lead, error)
	// Assign sets or clears (nil) the assignee and records an assignment
	// activity authored by actorID.
	Assign(ctx context.Context, id string, assignee *string, actorID string) (Lead, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}
