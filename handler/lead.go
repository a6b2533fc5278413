package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	salescrm "github.com/phbpx/sales-crm"
)

type LeadHandler struct {
	service    salescrm.LeadService
	activities salescrm.ActivityService
	log        *zap.SugaredLogger
}

func NewLeadHandler(service salescrm.LeadService, activities salescrm.ActivityService, log *zap.SugaredLogger) *LeadHandler {
	return &LeadHandler{
		service:    service,
		activities: activities,
		log:        log,
	}
}

// leadFilter reads the lead query parameters. Ids must be UUIDs, except for
// the assigned_to=unassigned sentinel.
func leadFilter(r *http.Request) (salescrm.LeadFilter, error) {
	q := r.URL.Query()
	filter := salescrm.LeadFilter{
		Status: salescrm.Status(q.Get("status")),
		Search: q.Get("q"),
	}

	if q.Get("assigned_to") == salescrm.Unassigned {
		filter.AssignedTo = salescrm.Unassigned
	} else {
		id, err := queryID(r, "assigned_to")
		if err != nil {
			return filter, err
		}
		filter.AssignedTo = id
	}

	id, err := queryID(r, "project_id")
	if err != nil {
		return filter, err
	}
	filter.ProjectID = id

	return filter, nil
}

func (lh LeadHandler) List(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := leadFilter(r)
	if err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	filter = salescrm.ScopeFilter(actor(r), filter)

	leads, err := lh.service.List(ctx, filter)
	if err != nil {
		lh.log.Errorw("List", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	sortKey := r.URL.Query().Get("sort")
	if sortKey == "" {
		sortKey = salescrm.SortCreatedAt
	}
	salescrm.SortLeads(leads, sortKey, r.URL.Query().Get("order") != "asc")

	respond(ctx, rw, http.StatusOK, leads)
}

// Pipeline returns the caller's leads grouped by stage.
func (lh LeadHandler) Pipeline(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := leadFilter(r)
	if err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	filter.Status = salescrm.StatusAll
	filter = salescrm.ScopeFilter(actor(r), filter)

	leads, err := lh.service.List(ctx, filter)
	if err != nil {
		lh.log.Errorw("Pipeline", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, salescrm.GroupByStatus(leads))
}

func (lh LeadHandler) Create(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var lead salescrm.Lead

	if err := decode(r, &lead); err != nil {
		lh.log.Errorw("Create", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	if err := optionalID(lead.AssignedTo); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	if err := optionalID(lead.ProjectID); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	if err := lead.Validate(); err != nil {
		respondServiceErr(ctx, rw, err)
		return
	}

	now := time.Now().UTC()
	creator := actor(r).UserID

	lead.ID = uuid.NewString()
	lead.CreatedBy = &creator
	lead.StatusChangedAt = now
	lead.CreatedAt = now
	lead.UpdatedAt = now

	if err := lh.service.Create(ctx, lead); err != nil {
		lh.log.Errorw("Create", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusCreated, lead)
}

// load fetches the lead named in the path and checks the caller may see it.
// It writes the error response itself and returns ok=false on failure.
func (lh LeadHandler) load(rw http.ResponseWriter, r *http.Request, op string) (salescrm.Lead, bool) {
	ctx := r.Context()

	id, err := idParam(r, "id")
	if err != nil {
		lh.log.Errorw(op, "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return salescrm.Lead{}, false
	}

	lead, err := lh.service.GetByID(ctx, id)
	if err != nil {
		lh.log.Errorw(op, "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return lead, false
	}

	if !actor(r).CanView(lead) {
		respondErr(ctx, rw, http.StatusForbidden, salescrm.ErrForbidden)
		return lead, false
	}

	return lead, true
}

func (lh LeadHandler) GetByID(rw http.ResponseWriter, r *http.Request) {
	lead, ok := lh.load(rw, r, "GetByID")
	if !ok {
		return
	}
	respond(r.Context(), rw, http.StatusOK, lead)
}

func (lh LeadHandler) Update(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	current, ok := lh.load(rw, r, "Update")
	if !ok {
		return
	}

	var lead salescrm.Lead
	if err := decode(r, &lead); err != nil {
		lh.log.Errorw("Update", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	if err := optionalID(lead.ProjectID); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	lead.ID = current.ID
	lead.Status = current.Status
	lead.AssignedTo = current.AssignedTo
	lead.LastContactedAt = current.LastContactedAt
	lead.CreatedBy = current.CreatedBy
	lead.StatusChangedAt = current.StatusChangedAt
	lead.CreatedAt = current.CreatedAt
	lead.UpdatedAt = time.Now().UTC()

	if err := lh.service.Update(ctx, lead); err != nil {
		lh.log.Errorw("Update", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, lead)
}

func (lh LeadHandler) Delete(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r, "id")
	if err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	if err := lh.service.Delete(ctx, id); err != nil {
		lh.log.Errorw("Delete", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusNoContent, nil)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (lh LeadHandler) UpdateStatus(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lead, ok := lh.load(rw, r, "UpdateStatus")
	if !ok {
		return
	}

	a := actor(r)
	if !a.CanWork(lead) {
		respondErr(ctx, rw, http.StatusForbidden, salescrm.ErrForbidden)
		return
	}

	var req statusRequest
	if err := decode(r, &req); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	status, err := salescrm.ParseStatus(req.Status)
	if err != nil {
		respondServiceErr(ctx, rw, err)
		return
	}

	lead, err = lh.service.UpdateStatus(ctx, lead.ID, status, a.UserID)
	if err != nil {
		lh.log.Errorw("UpdateStatus", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, lead)
}

type assignRequest struct {
	AssignedTo *string `json:"assigned_to"`
}

func (lh LeadHandler) Assign(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lead, ok := lh.load(rw, r, "Assign")
	if !ok {
		return
	}

	var req assignRequest
	if err := decode(r, &req); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	if err := optionalID(req.AssignedTo); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	lead, err := lh.service.Assign(ctx, lead.ID, req.AssignedTo, actor(r).UserID)
	if err != nil {
		lh.log.Errorw("Assign", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, lead)
}

// Touch marks the lead as contacted now.
func (lh LeadHandler) Touch(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lead, ok := lh.load(rw, r, "Touch")
	if !ok {
		return
	}
	if !actor(r).CanWork(lead) {
		respondErr(ctx, rw, http.StatusForbidden, salescrm.ErrForbidden)
		return
	}

	if err := lh.service.Touch(ctx, lead.ID, time.Now().UTC()); err != nil {
		lh.log.Errorw("Touch", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusNoContent, nil)
}

func (lh LeadHandler) Activities(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lead, ok := lh.load(rw, r, "Activities")
	if !ok {
		return
	}

	activities, err := lh.activities.ListByLead(ctx, lead.ID)
	if err != nil {
		lh.log.Errorw("Activities", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, activities)
}

type activityRequest struct {
	Type        salescrm.ActivityType `json:"type"`
	Description string                `json:"description"`
}

// LogActivity appends a manual activity (call, email, note, meeting). The
// status_change and assignment types are written by the server only.
func (lh LeadHandler) LogActivity(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lead, ok := lh.load(rw, r, "LogActivity")
	if !ok {
		return
	}

	a := actor(r)
	if !a.CanWork(lead) {
		respondErr(ctx, rw, http.StatusForbidden, salescrm.ErrForbidden)
		return
	}

	var req activityRequest
	if err := decode(r, &req); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	if !req.Type.Valid() || req.Type == salescrm.ActivityStatusChange || req.Type == salescrm.ActivityAssignment {
		respondErr(ctx, rw, http.StatusBadRequest, salescrm.ErrInvalidActivity)
		return
	}

	activity := salescrm.Activity{
		ID:          uuid.NewString(),
		Type:        req.Type,
		Description: req.Description,
		LeadID:      lead.ID,
		UserID:      &a.UserID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := lh.activities.Create(ctx, activity); err != nil {
		lh.log.Errorw("LogActivity", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusCreated, activity)
}

// DefaultActivityLimit caps the activity feed when ?limit is missing.
const DefaultActivityLimit = 50

// RecentActivities lists the latest activities logged by ?user_id. Salesmen
// only ever get their own.
func (lh LeadHandler) RecentActivities(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	a := actor(r)
	userID, err := queryID(r, "user_id")
	if err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	if userID == "" || !a.Manages() {
		userID = a.UserID
	}

	limit := DefaultActivityLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondErr(ctx, rw, http.StatusBadRequest, errBadLimit)
			return
		}
		limit = n
	}

	activities, err := lh.activities.ListByUser(ctx, userID, limit)
	if err != nil {
		lh.log.Errorw("RecentActivities", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, activities)
}
