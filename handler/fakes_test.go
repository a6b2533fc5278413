package handler_test

import (
	"context"
	"sort"
	"sync"
	"time"

	salescrm "github.com/phbpx/sales-crm"
)

type memLeads struct {
	mu    sync.Mutex
	leads map[string]salescrm.Lead
	acts  *memActivities
}

func newMemLeads(acts *memActivities, leads ...salescrm.Lead) *memLeads {
	m := &memLeads{leads: map[string]salescrm.Lead{}, acts: acts}
	for _, l := range leads {
		m.leads[l.ID] = l
	}
	return m
}

func (m *memLeads) Create(_ context.Context, lead salescrm.Lead) error {
	if err := lead.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[lead.ID]; ok {
		return salescrm.ErrDuplicatedLead
	}
	m.leads[lead.ID] = lead
	return nil
}

func (m *memLeads) GetByID(_ context.Context, id string) (salescrm.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return l, salescrm.ErrLeadNotFound
	}
	l.Normalize()
	return l, nil
}

// stored returns the status exactly as it is kept, legacy spelling included.
func (m *memLeads) stored(id string) salescrm.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leads[id].Status
}

func (m *memLeads) List(_ context.Context, f salescrm.LeadFilter) ([]salescrm.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []salescrm.Lead{}
	for _, l := range m.leads {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	out = salescrm.FilterLeads(out, f)
	salescrm.NormalizeLeads(out)
	return out, nil
}

func (m *memLeads) Update(_ context.Context, lead salescrm.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[lead.ID]; !ok {
		return salescrm.ErrLeadNotFound
	}
	m.leads[lead.ID] = lead
	return nil
}

func (m *memLeads) UpdateStatus(ctx context.Context, id string, status salescrm.Status, actorID string) (salescrm.Lead, error) {
	status, err := salescrm.ParseStatus(string(status))
	if err != nil {
		return salescrm.Lead{}, err
	}
	m.mu.Lock()
	l, ok := m.leads[id]
	if !ok {
		m.mu.Unlock()
		return l, salescrm.ErrLeadNotFound
	}
	if l.Status == status {
		m.mu.Unlock()
		return l, nil
	}
	previous := salescrm.NormalizeStatus(string(l.Status))
	l.Status = status
	m.leads[id] = l
	m.mu.Unlock()

	if previous != status {
		m.acts.Create(ctx, salescrm.Activity{ID: "auto-" + id, Type: salescrm.ActivityStatusChange, LeadID: id, UserID: &actorID})
	}
	return l, nil
}

func (m *memLeads) Assign(_ context.Context, id string, assignee *string, _ string) (salescrm.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return l, salescrm.ErrLeadNotFound
	}
	l.AssignedTo = assignee
	m.leads[id] = l
	l.Normalize()
	return l, nil
}

func (m *memLeads) Touch(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return salescrm.ErrLeadNotFound
	}
	l.LastContactedAt = &at
	m.leads[id] = l
	return nil
}

func (m *memLeads) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[id]; !ok {
		return salescrm.ErrLeadNotFound
	}
	delete(m.leads, id)
	return nil
}

type memActivities struct {
	mu   sync.Mutex
	list []salescrm.Activity
}

func (m *memActivities) Create(_ context.Context, a salescrm.Activity) error {
	if !a.Type.Valid() {
		return salescrm.ErrInvalidActivity
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = append(m.list, a)
	return nil
}

func (m *memActivities) ListByLead(_ context.Context, leadID string) ([]salescrm.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []salescrm.Activity{}
	for _, a := range m.list {
		if a.LeadID == leadID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memActivities) ListByUser(_ context.Context, userID string, _ int) ([]salescrm.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []salescrm.Activity{}
	for _, a := range m.list {
		if a.UserID != nil && *a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memUsers struct {
	mu    sync.Mutex
	users []salescrm.User
}

func (m *memUsers) Create(_ context.Context, u salescrm.User) error {
	if !u.Role.Valid() {
		return salescrm.ErrInvalidRole
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return salescrm.ErrDuplicatedUser
		}
	}
	m.users = append(m.users, u)
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (salescrm.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return salescrm.User{}, salescrm.ErrUserNotFound
}

func (m *memUsers) List(_ context.Context, f salescrm.UserFilter) ([]salescrm.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []salescrm.User{}
	for _, u := range m.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.TeamID != "" && (u.TeamID == nil || *u.TeamID != f.TeamID) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) Update(_ context.Context, u salescrm.User) error {
	if !u.Role.Valid() {
		return salescrm.ErrInvalidRole
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == u.ID {
			m.users[i] = u
			return nil
		}
	}
	return salescrm.ErrUserNotFound
}

type memProjects struct {
	mu       sync.Mutex
	projects []salescrm.Project
}

func (m *memProjects) Create(_ context.Context, p salescrm.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects = append(m.projects, p)
	return nil
}

func (m *memProjects) GetByID(_ context.Context, id string) (salescrm.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return salescrm.Project{}, salescrm.ErrProjectNotFound
}

func (m *memProjects) List(context.Context) ([]salescrm.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]salescrm.Project{}, m.projects...), nil
}

func (m *memProjects) Update(_ context.Context, p salescrm.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.projects {
		if m.projects[i].ID == p.ID {
			m.projects[i] = p
			return nil
		}
	}
	return salescrm.ErrProjectNotFound
}

func (m *memProjects) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.projects {
		if m.projects[i].ID == id {
			m.projects = append(m.projects[:i], m.projects[i+1:]...)
			return nil
		}
	}
	return salescrm.ErrProjectNotFound
}

type memTeams struct {
	mu     sync.Mutex
	teams  []salescrm.Team
	quotas []salescrm.Quota
	users  *memUsers
}

func (m *memTeams) Create(_ context.Context, t salescrm.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams = append(m.teams, t)
	return nil
}

func (m *memTeams) GetByID(_ context.Context, id string) (salescrm.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teams {
		if t.ID == id {
			return t, nil
		}
	}
	return salescrm.Team{}, salescrm.ErrTeamNotFound
}

func (m *memTeams) List(context.Context) ([]salescrm.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]salescrm.Team{}, m.teams...), nil
}

func (m *memTeams) Members(ctx context.Context, teamID string) ([]salescrm.User, error) {
	if _, err := m.GetByID(ctx, teamID); err != nil {
		return nil, err
	}
	return m.users.List(ctx, salescrm.UserFilter{TeamID: teamID})
}

func (m *memTeams) SetQuota(_ context.Context, q salescrm.Quota) (salescrm.Quota, error) {
	if _, _, err := salescrm.PeriodRange(q.Period); err != nil {
		return q, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.quotas {
		if m.quotas[i].UserID == q.UserID && m.quotas[i].Period == q.Period {
			m.quotas[i].Target = q.Target
			return m.quotas[i], nil
		}
	}
	m.quotas = append(m.quotas, q)
	return q, nil
}

func (m *memTeams) Quotas(_ context.Context, period string) ([]salescrm.Quota, error) {
	if _, _, err := salescrm.PeriodRange(period); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []salescrm.Quota{}
	for _, q := range m.quotas {
		if q.Period == period {
			out = append(out, q)
		}
	}
	return out, nil
}
