package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	salescrm "github.com/phbpx/sales-crm"
)

type UserHandler struct {
	service salescrm.UserService
	log     *zap.SugaredLogger
}

func NewUserHandler(service salescrm.UserService, log *zap.SugaredLogger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

func (uh UserHandler) List(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	teamID, err := queryID(r, "team_id")
	if err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	filter := salescrm.UserFilter{
		Role:   salescrm.Role(r.URL.Query().Get("role")),
		TeamID: teamID,
	}

	users, err := uh.service.List(ctx, filter)
	if err != nil {
		uh.log.Errorw("List", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, users)
}

// Me returns the profile of the caller.
func (uh UserHandler) Me(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := uh.service.GetByID(ctx, actor(r).UserID)
	if err != nil {
		uh.log.Errorw("Me", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, user)
}

func (uh UserHandler) Create(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var user salescrm.User

	if err := decode(r, &user); err != nil {
		uh.log.Errorw("Create", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	if err := optionalID(user.TeamID); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()

	if err := uh.service.Create(ctx, user); err != nil {
		uh.log.Errorw("Create", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusCreated, user)
}

func (uh UserHandler) GetByID(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r, "id")
	if err != nil {
		uh.log.Errorw("GetByID", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	user, err := uh.service.GetByID(ctx, id)
	if err != nil {
		uh.log.Errorw("GetByID", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, user)
}

// Update edits a profile. Users may edit their own profile but only owners
// and managers may change roles or other people's profiles.
func (uh UserHandler) Update(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r, "id")
	if err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	a := actor(r)
	if !a.Manages() && a.UserID != id {
		respondErr(ctx, rw, http.StatusForbidden, salescrm.ErrForbidden)
		return
	}

	current, err := uh.service.GetByID(ctx, id)
	if err != nil {
		uh.log.Errorw("Update", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	var user salescrm.User
	if err := decode(r, &user); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	if err := optionalID(user.TeamID); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	user.ID = current.ID
	user.CreatedAt = current.CreatedAt
	if !a.Manages() {
		user.Role = current.Role
		user.TeamID = current.TeamID
	}

	if err := uh.service.Update(ctx, user); err != nil {
		uh.log.Errorw("Update", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, user)
}
