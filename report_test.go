package salescrm_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	salescrm "github.com/phbpx/sales-crm"
)

func TestSummarize(t *testing.T) {
	s := salescrm.Summarize(fixtureLeads())

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 7200.0, s.TotalValue)
	assert.Equal(t, 1, s.WonCount)
	assert.Equal(t, 5000.0, s.WonValue)
	assert.Equal(t, 1, s.LostCount)
	assert.Equal(t, 1900.0, s.PipelineValue)
	assert.Equal(t, 50.0, s.ConversionRate)
	assert.Equal(t, 20.0, s.WinRate)

	want := []salescrm.StatusTotal{
		{Status: salescrm.StatusNew, Count: 1, Value: 200},
		{Status: salescrm.StatusQualified},
		{Status: salescrm.StatusProposal, Count: 2, Value: 1700},
		{Status: salescrm.StatusClosedWon, Count: 1, Value: 5000},
		{Status: salescrm.StatusNotInterested, Count: 1, Value: 300},
	}
	if diff := cmp.Diff(want, s.ByStatus); diff != "" {
		t.Errorf("ByStatus mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := salescrm.Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.ConversionRate)
	assert.Zero(t, s.WinRate)
	assert.Len(t, s.ByStatus, len(salescrm.Pipeline))
}

func TestStaleLeads(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	leads := []salescrm.Lead{
		{ID: "fresh", Status: "new", CreatedAt: now.Add(-2 * 24 * time.Hour)},
		{ID: "old", Status: "qualified", CreatedAt: now.Add(-30 * 24 * time.Hour)},
		{ID: "contacted", Status: "proposal", CreatedAt: now.Add(-30 * 24 * time.Hour), LastContactedAt: timePtr(now.Add(-8*24*time.Hour - time.Hour))},
		{ID: "won", Status: "won", CreatedAt: now.Add(-60 * 24 * time.Hour)},
		{ID: "edge", Status: "negotiation", CreatedAt: now.Add(-7 * 24 * time.Hour)},
	}

	got := salescrm.StaleLeads(leads, now, 7)
	require.Len(t, got, 3)
	assert.Equal(t, "old", got[0].Lead.ID)
	assert.Equal(t, 30, got[0].DaysSince)
	assert.Equal(t, "contacted", got[1].Lead.ID)
	assert.Equal(t, 8, got[1].DaysSince)
	assert.Equal(t, "edge", got[2].Lead.ID)
	assert.Equal(t, 7, got[2].DaysSince)
}

func TestDaysSinceFuture(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	l := salescrm.Lead{CreatedAt: now.Add(48 * time.Hour)}
	assert.Zero(t, salescrm.DaysSince(l, now))
}

func TestSalesPerformance(t *testing.T) {
	users := []salescrm.User{
		{ID: "u1", FullName: "Ann", Role: salescrm.RoleSalesman},
		{ID: "u2", FullName: "Bob", Role: salescrm.RoleSalesman},
		{ID: "u3", FullName: "Cid", Role: salescrm.RoleSalesman},
		{ID: "m1", FullName: "Max", Role: salescrm.RoleManager},
	}

	got := salescrm.SalesPerformance(users, fixtureLeads())

	want := []salescrm.Performance{
		{UserID: "u2", FullName: "Bob", Assigned: 2, Open: 0, WonCount: 1, WonValue: 5000, ConversionRate: 50},
		{UserID: "u1", FullName: "Ann", Assigned: 2, Open: 2, PipelineValue: 1700},
		{UserID: "u3", FullName: "Cid"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SalesPerformance() mismatch (-want +got):\n%s", diff)
	}
}

func TestQuotaAttainment(t *testing.T) {
	march := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	leads := []salescrm.Lead{
		{ID: "1", Status: "closed_won", Value: 400, AssignedTo: strPtr("u1"), StatusChangedAt: march},
		{ID: "2", Status: "won", Value: 100, AssignedTo: strPtr("u1"), StatusChangedAt: march},
		{ID: "3", Status: "closed_won", Value: 900, AssignedTo: strPtr("u1"), StatusChangedAt: april},
		{ID: "4", Status: "proposal", Value: 900, AssignedTo: strPtr("u1"), StatusChangedAt: march},
		{ID: "5", Status: "closed_won", Value: 50, StatusChangedAt: march},
	}
	quotas := []salescrm.Quota{
		{UserID: "u1", Period: "2026-03", Target: 1000},
		{UserID: "u2", Period: "2026-03", Target: 0},
		{UserID: "u1", Period: "2026-04", Target: 1000},
	}

	got, err := salescrm.QuotaAttainment(quotas, leads, "2026-03")
	require.NoError(t, err)

	want := []salescrm.Attainment{
		{UserID: "u1", Period: "2026-03", Target: 1000, Achieved: 500, Percent: 50},
		{UserID: "u2", Period: "2026-03"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("QuotaAttainment() mismatch (-want +got):\n%s", diff)
	}

	_, err = salescrm.QuotaAttainment(quotas, leads, "2026-13")
	assert.ErrorIs(t, err, salescrm.ErrInvalidPeriod)
}

func TestProjectStats(t *testing.T) {
	projects := []salescrm.Project{
		{ID: "p1", Name: "Expansion", Budget: 2000},
		{ID: "p2", Name: "Renewals"},
	}

	got := salescrm.ProjectStats(projects, fixtureLeads())

	want := []salescrm.ProjectStat{
		{ProjectID: "p1", Name: "Expansion", Budget: 2000, Leads: 2, TotalValue: 1300},
		{ProjectID: "p2", Name: "Renewals", Leads: 1, TotalValue: 700},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ProjectStats() mismatch (-want +got):\n%s", diff)
	}
}

func TestPeriodRange(t *testing.T) {
	start, end, err := salescrm.PeriodRange("2026-12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), end)

	for _, bad := range []string{"", "2026-1", "2026-00", "26-01", "2026-01-01"} {
		_, _, err := salescrm.PeriodRange(bad)
		assert.ErrorIs(t, err, salescrm.ErrInvalidPeriod, bad)
	}

	assert.Equal(t, "2026-03", salescrm.Period(time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)))
}
