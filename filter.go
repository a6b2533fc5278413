package salescrm

import (
	"sort"
	"strings"
)

// Unassigned is the LeadFilter.AssignedTo value that selects leads without
// an assignee.
const Unassigned = "unassigned"

// LeadFilter holds the criteria used by the lead tables. The zero value
// matches every lead.
type LeadFilter struct {
	Status     Status
	AssignedTo string
	ProjectID  string
	Search     string
}

// Empty reports whether f matches every lead.
func (f LeadFilter) Empty() bool {
	return (f.Status == "" || f.Status == StatusAll) &&
		f.AssignedTo == "" &&
		f.ProjectID == "" &&
		strings.TrimSpace(f.Search) == ""
}

// Match reports whether the lead satisfies every criterion of f.
func (f LeadFilter) Match(l Lead) bool {
	if f.Status != "" && f.Status != StatusAll {
		if NormalizeStatus(string(l.Status)) != NormalizeStatus(string(f.Status)) {
			return false
		}
	}

	switch f.AssignedTo {
	case "":
	case Unassigned:
		if l.AssignedTo != nil {
			return false
		}
	default:
		if !l.Assigned(f.AssignedTo) {
			return false
		}
	}

	if f.ProjectID != "" && (l.ProjectID == nil || *l.ProjectID != f.ProjectID) {
		return false
	}

	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	for _, field := range []string{l.CompanyName, l.ContactName, l.Email, l.Phone} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// FilterLeads returns the leads matching f in their original order. An empty
// filter returns leads itself.
func FilterLeads(leads []Lead, f LeadFilter) []Lead {
	if f.Empty() {
		return leads
	}

	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

// Sort keys accepted by SortLeads.
const (
	SortCreatedAt       = "created_at"
	SortValue           = "value"
	SortLastContactedAt = "last_contacted_at"
	SortCompanyName     = "company_name"
	SortStatus          = "status"
)

// SortLeads sorts leads in place by key. Unknown keys leave the slice as is.
// Leads that were never contacted sort before contacted ones in ascending
// order. Statuses sort by pipeline stage.
func SortLeads(leads []Lead, key string, desc bool) {
	var less func(a, b Lead) bool

	switch key {
	case SortCreatedAt:
		less = func(a, b Lead) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortValue:
		less = func(a, b Lead) bool { return a.Value < b.Value }
	case SortCompanyName:
		less = func(a, b Lead) bool {
			return strings.ToLower(a.CompanyName) < strings.ToLower(b.CompanyName)
		}
	case SortStatus:
		less = func(a, b Lead) bool {
			return stageOrder(a.Status) < stageOrder(b.Status)
		}
	case SortLastContactedAt:
		less = func(a, b Lead) bool {
			switch {
			case a.LastContactedAt == nil:
				return b.LastContactedAt != nil
			case b.LastContactedAt == nil:
				return false
			}
			return a.LastContactedAt.Before(*b.LastContactedAt)
		}
	default:
		return
	}

	sort.SliceStable(leads, func(i, j int) bool {
		if desc {
			return less(leads[j], leads[i])
		}
		return less(leads[i], leads[j])
	})
}

// stageOrder puts non-canonical statuses after every pipeline stage.
func stageOrder(s Status) int {
	if stage := NormalizeStatus(string(s)).Stage(); stage >= 0 {
		return stage
	}
	return len(Pipeline)
}

// StatusOther is the pipeline bucket for leads whose status is not canonical.
const StatusOther Status = "other"

// PipelineColumn is one stage of the pipeline board.
type PipelineColumn struct {
	Status Status  `json:"status"`
	Leads  []Lead  `json:"leads"`
	Count  int     `json:"count"`
	Value  float64 `json:"value"`
}

// GroupByStatus buckets leads by normalized status. Every canonical stage is
// present even when empty; the StatusOther column is appended only when some
// lead carries an unknown status.
func GroupByStatus(leads []Lead) []PipelineColumn {
	cols := make([]PipelineColumn, len(Pipeline), len(Pipeline)+1)
	for i, st := range Pipeline {
		cols[i] = PipelineColumn{Status: st, Leads: []Lead{}}
	}
	other := PipelineColumn{Status: StatusOther, Leads: []Lead{}}

	for _, l := range leads {
		l.Status = NormalizeStatus(string(l.Status))
		col := &other
		if stage := l.Status.Stage(); stage >= 0 {
			col = &cols[stage]
		}
		col.Leads = append(col.Leads, l)
		col.Count++
		col.Value += l.Value
	}

	if other.Count > 0 {
		cols = append(cols, other)
	}
	return cols
}
