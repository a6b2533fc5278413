package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	salescrm "github.com/phbpx/sales-crm"
)

type ProjectHandler struct {
	service salescrm.ProjectService
	log     *zap.SugaredLogger
}

func NewProjectHandler(service salescrm.ProjectService, log *zap.SugaredLogger) *ProjectHandler {
	return &ProjectHandler{
		service: service,
		log:     log,
	}
}

func (ph ProjectHandler) List(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projects, err := ph.service.List(ctx)
	if err != nil {
		ph.log.Errorw("List", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, projects)
}

func (ph ProjectHandler) Create(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var project salescrm.Project

	if err := decode(r, &project); err != nil {
		ph.log.Errorw("Create", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	if err := project.Validate(); err != nil {
		respondServiceErr(ctx, rw, err)
		return
	}

	project.ID = uuid.NewString()
	project.CreatedAt = time.Now().UTC()

	if err := ph.service.Create(ctx, project); err != nil {
		ph.log.Errorw("Create", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusCreated, project)
}

func (ph ProjectHandler) GetByID(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r, "id")
	if err != nil {
		ph.log.Errorw("GetByID", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	project, err := ph.service.GetByID(ctx, id)
	if err != nil {
		ph.log.Errorw("GetByID", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, project)
}

func (ph ProjectHandler) Update(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r, "id")
	if err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	current, err := ph.service.GetByID(ctx, id)
	if err != nil {
		ph.log.Errorw("Update", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	var project salescrm.Project
	if err := decode(r, &project); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	project.ID = current.ID
	project.CreatedAt = current.CreatedAt
	if err := project.Validate(); err != nil {
		respondServiceErr(ctx, rw, err)
		return
	}

	if err := ph.service.Update(ctx, project); err != nil {
		ph.log.Errorw("Update", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusOK, project)
}

func (ph ProjectHandler) Delete(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r, "id")
	if err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	if err := ph.service.Delete(ctx, id); err != nil {
		ph.log.Errorw("Delete", "error", err.Error())
		respondServiceErr(ctx, rw, err)
		return
	}

	respond(ctx, rw, http.StatusNoContent, nil)
}
