package salescrm

import (
	"sort"
	"time"
)

// StatusTotal is the count and value of leads sharing a status.
type StatusTotal struct {
	Status Status  `json:"status"`
	Count  int     `json:"count"`
	Value  float64 `json:"value"`
}

// Summary is the headline numbers of a set of leads.
type Summary struct {
	ByStatus      []StatusTotal `json:"by_status"`
	Total         int           `json:"total"`
	TotalValue    float64       `json:"total_value"`
	PipelineValue float64       `json:"pipeline_value"`
	WonCount      int           `json:"won_count"`
	WonValue      float64       `json:"won_value"`
	LostCount     int           `json:"lost_count"`
	// ConversionRate is won / (won + lost) as a percentage.
	ConversionRate float64 `json:"conversion_rate"`
	// WinRate is won / total as a percentage.
	WinRate float64 `json:"win_rate"`
}

func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// Summarize aggregates leads by normalized status. PipelineValue only counts
// leads that are still open.
func Summarize(leads []Lead) Summary {
	var s Summary
	for _, col := range GroupByStatus(leads) {
		s.ByStatus = append(s.ByStatus, StatusTotal{Status: col.Status, Count: col.Count, Value: col.Value})
		s.Total += col.Count
		s.TotalValue += col.Value

		switch col.Status {
		case StatusClosedWon:
			s.WonCount = col.Count
			s.WonValue = col.Value
		case StatusNotInterested:
			s.LostCount = col.Count
		default:
			s.PipelineValue += col.Value
		}
	}

	s.ConversionRate = percent(float64(s.WonCount), float64(s.WonCount+s.LostCount))
	s.WinRate = percent(float64(s.WonCount), float64(s.Total))
	return s
}

// StaleLead is an open lead nobody reached out to for a while.
type StaleLead struct {
	Lead      Lead `json:"lead"`
	DaysSince int  `json:"days_since"`
}

// DaysSince returns the number of whole days between the last contact with l
// (or its creation when it was never contacted) and now.
func DaysSince(l Lead, now time.Time) int {
	ref := l.CreatedAt
	if l.LastContactedAt != nil {
		ref = *l.LastContactedAt
	}
	d := now.Sub(ref)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

// StaleLeads returns the open leads untouched for at least days days, most
// stale first.
func StaleLeads(leads []Lead, now time.Time, days int) []StaleLead {
	out := []StaleLead{}
	for _, l := range leads {
		if NormalizeStatus(string(l.Status)).Closed() {
			continue
		}
		if n := DaysSince(l, now); n >= days {
			out = append(out, StaleLead{Lead: l, DaysSince: n})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysSince > out[j].DaysSince
	})
	return out
}

// Performance is one salesperson's scoreboard line.
type Performance struct {
	UserID         string  `json:"user_id"`
	FullName       string  `json:"full_name"`
	Assigned       int     `json:"assigned"`
	Open           int     `json:"open"`
	WonCount       int     `json:"won_count"`
	WonValue       float64 `json:"won_value"`
	PipelineValue  float64 `json:"pipeline_value"`
	ConversionRate float64 `json:"conversion_rate"`
}

// SalesPerformance scores every salesman in users against the leads assigned
// to them, best won value first.
func SalesPerformance(users []User, leads []Lead) []Performance {
	byUser := make(map[string][]Lead)
	for _, l := range leads {
		if l.AssignedTo != nil {
			byUser[*l.AssignedTo] = append(byUser[*l.AssignedTo], l)
		}
	}

	out := []Performance{}
	for _, u := range users {
		if u.Role != RoleSalesman {
			continue
		}
		s := Summarize(byUser[u.ID])
		out = append(out, Performance{
			UserID:         u.ID,
			FullName:       u.FullName,
			Assigned:       s.Total,
			Open:           s.Total - s.WonCount - s.LostCount,
			WonCount:       s.WonCount,
			WonValue:       s.WonValue,
			PipelineValue:  s.PipelineValue,
			ConversionRate: s.ConversionRate,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WonValue != out[j].WonValue {
			return out[i].WonValue > out[j].WonValue
		}
		return out[i].FullName < out[j].FullName
	})
	return out
}

// Attainment compares a quota with what its owner closed in the period.
type Attainment struct {
	UserID   string  `json:"user_id"`
	Period   string  `json:"period"`
	Target   float64 `json:"target"`
	Achieved float64 `json:"achieved"`
	Percent  float64 `json:"percent"`
}

// QuotaAttainment computes, for every quota of period, the value of the
// leads its owner won during that month. A lead counts as won in the month
// its status last changed.
func QuotaAttainment(quotas []Quota, leads []Lead, period string) ([]Attainment, error) {
	start, end, err := PeriodRange(period)
	if err != nil {
		return nil, err
	}

	won := make(map[string]float64)
	for _, l := range leads {
		if l.AssignedTo == nil || NormalizeStatus(string(l.Status)) != StatusClosedWon {
			continue
		}
		if l.StatusChangedAt.Before(start) || !l.StatusChangedAt.Before(end) {
			continue
		}
		won[*l.AssignedTo] += l.Value
	}

	out := []Attainment{}
	for _, q := range quotas {
		if q.Period != period {
			continue
		}
		out = append(out, Attainment{
			UserID:   q.UserID,
			Period:   q.Period,
			Target:   q.Target,
			Achieved: won[q.UserID],
			Percent:  percent(won[q.UserID], q.Target),
		})
	}
	return out, nil
}

// ProjectStat summarizes the leads of one project.
type ProjectStat struct {
	ProjectID   string  `json:"project_id"`
	Name        string  `json:"name"`
	Budget      float64 `json:"budget"`
	Leads       int     `json:"leads"`
	TotalValue  float64 `json:"total_value"`
	WonValue    float64 `json:"won_value"`
	BudgetUsage float64 `json:"budget_usage"`
}

// ProjectStats aggregates leads per project, keeping the order of projects.
func ProjectStats(projects []Project, leads []Lead) []ProjectStat {
	byProject := make(map[string][]Lead)
	for _, l := range leads {
		if l.ProjectID != nil {
			byProject[*l.ProjectID] = append(byProject[*l.ProjectID], l)
		}
	}

	out := make([]ProjectStat, 0, len(projects))
	for _, p := range projects {
		s := Summarize(byProject[p.ID])
		out = append(out, ProjectStat{
			ProjectID:   p.ID,
			Name:        p.Name,
			Budget:      p.Budget,
			Leads:       s.Total,
			TotalValue:  s.TotalValue,
			WonValue:    s.WonValue,
			BudgetUsage: percent(s.WonValue, p.Budget),
		})
	}
	return out
}
