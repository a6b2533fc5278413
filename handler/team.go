package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	salescrm "github.com/phbpx/sales-crm"
)

type TeamHandler struct {
	service salescrm.TeamService
	log     *zap.SugaredLogger
}

func NewTeamHandler(service salescrm.TeamService, log *zap.SugaredLogger) *TeamHandler {
	return &TeamHandler{
		service: service,
		log:     log,
	}
}

func (th TeamHandler) List(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	teams, err := th.service.List(ctx)
	if err != nil {
		th.log.Errorw("List", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, teams)
}

func (th TeamHandler) Create(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var team salescrm.Team

	if err := decode(r, &team); err != nil {
		th.log.Errorw("Create", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	if err := optionalID(team.ManagerID); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	team.ID = uuid.NewString()
	team.CreatedAt = time.Now().UTC()

	if err := th.service.Create(ctx, team); err != nil {
		th.log.Errorw("Create", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusCreated, team)
}

func (th TeamHandler) Members(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r, "id")
	if err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	members, err := th.service.Members(ctx, id)
	if err != nil {
		th.log.Errorw("Members", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, members)
}

func (th TeamHandler) SetQuota(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var quota salescrm.Quota

	if err := decode(r, &quota); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	if _, err := uuid.Parse(quota.UserID); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, errBadID)
		return
	}

	quota.ID = uuid.NewString()
	quota.CreatedAt = time.Now().UTC()

	quota, err := th.service.SetQuota(ctx, quota)
	if err != nil {
		th.log.Errorw("SetQuota", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, quota)
}

// Quotas lists the quotas of ?period=YYYY-MM, defaulting to the current month.
func (th TeamHandler) Quotas(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	period := r.URL.Query().Get("period")
	if period == "" {
		period = salescrm.Period(time.Now())
	}

	quotas, err := th.service.Quotas(ctx, period)
	if err != nil {
		th.log.Errorw("Quotas", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, quotas)
}
