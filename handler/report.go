package handler

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	salescrm "github.com/phbpx/sales-crm"
)

// DefaultStaleDays is used by Stale when ?days is missing.
const DefaultStaleDays = 7

type ReportHandler struct {
	leads    salescrm.LeadService
	users    salescrm.UserService
	projects salescrm.ProjectService
	teams    salescrm.TeamService
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewReportHandler(
	leads salescrm.LeadService,
	users salescrm.UserService,
	projects salescrm.ProjectService,
	teams salescrm.TeamService,
	log *zap.SugaredLogger,
) *ReportHandler {
	return &ReportHandler{
		leads:    leads,
		users:    users,
		projects: projects,
		teams:    teams,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// scopedLeads returns the leads the caller may see, narrowed by the usual
// lead query parameters.
func (rh ReportHandler) scopedLeads(r *http.Request) ([]salescrm.Lead, error) {
	filter, err := leadFilter(r)
	if err != nil {
		return nil, err
	}
	return rh.leads.List(r.Context(), salescrm.ScopeFilter(actor(r), filter))
}

func (rh ReportHandler) Summary(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	leads, err := rh.scopedLeads(r)
	if err != nil {
		rh.log.Errorw("Summary", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, salescrm.Summarize(leads))
}

func (rh ReportHandler) Stale(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days := DefaultStaleDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondErr(ctx, rw, http.StatusBadRequest, errBadDays)
			return
		}
		days = n
	}

	leads, err := rh.scopedLeads(r)
	if err != nil {
		rh.log.Errorw("Stale", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, salescrm.StaleLeads(leads, rh.now(), days))
}

func (rh ReportHandler) Performance(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	teamID, err := queryID(r, "team_id")
	if err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	users, err := rh.users.List(ctx, salescrm.UserFilter{
		Role:   salescrm.RoleSalesman,
		TeamID: teamID,
	})
	if err != nil {
		rh.log.Errorw("Performance", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	leads, err := rh.leads.List(ctx, salescrm.LeadFilter{})
	if err != nil {
		rh.log.Errorw("Performance", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, salescrm.SalesPerformance(users, leads))
}

func (rh ReportHandler) Quotas(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	period := r.URL.Query().Get("period")
	if period == "" {
		period = salescrm.Period(rh.now())
	}

	quotas, err := rh.teams.Quotas(ctx, period)
	if err != nil {
		rh.log.Errorw("Quotas", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	leads, err := rh.leads.List(ctx, salescrm.LeadFilter{Status: salescrm.StatusClosedWon})
	if err != nil {
		rh.log.Errorw("Quotas", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	attainment, err := salescrm.QuotaAttainment(quotas, leads, period)
	if err != nil {
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, attainment)
}

func (rh ReportHandler) Projects(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projects, err := rh.projects.List(ctx)
	if err != nil {
		rh.log.Errorw("Projects", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	leads, err := rh.leads.List(ctx, salescrm.LeadFilter{})
	if err != nil {
		rh.log.Errorw("Projects", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, salescrm.ProjectStats(projects, leads))
}
