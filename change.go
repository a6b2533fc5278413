package salescrm

import "time"

// Tables that emit change events.
const (
	TableUsers      = "users"
	TableLeads      = "leads"
	TableProjects   = "projects"
	TableActivities = "activities"
	TableTeams      = "teams"
	TableQuotas     = "quotas"
)

// Change operations. OpResync tells subscribers that events may have been
// lost and everything should be refetched.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
	OpResync = "RESYNC"
)

// ChangeEvent announces that a row changed. It carries no row data; receivers
// refetch what they display.
type ChangeEvent struct {
	Table string    `json:"table"`
	Op    string    `json:"op"`
	ID    string    `json:"id,omitempty"`
	At    time.Time `json:"at"`
}
