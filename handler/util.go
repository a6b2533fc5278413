package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	salescrm "github.com/phbpx/sales-crm"
)

var (
	errInternal = errors.New("internal error")
	errBadID    = errors.New("ID is not in its proper form")
	errBadDays  = errors.New("days must be a non-negative integer")
	errBadLimit = errors.New("limit must be a positive integer")
)

func decode(r *http.Request, into interface{}) error {
	rawJson, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(rawJson, into)
}

func respond(ctx context.Context, rw http.ResponseWriter, status int, data interface{}) {
	ctx, span := otel.GetTracerProvider().Tracer("").Start(ctx, "handler.respond")
	span.SetAttributes(attribute.Int("http.status", status))
	defer span.End()

	if status == http.StatusNoContent || data == nil {
		rw.WriteHeader(status)
		return
	}

	rawJson, err := json.Marshal(data)
	if err != nil {
		panic("respond-json-marshal:" + err.Error())
	}

	rw.Header().Add("Content-Type", "application/json")
	rw.WriteHeader(status)
	rw.Write(rawJson)
}

func respondErr(ctx context.Context, rw http.ResponseWriter, status int, err error) {
	respond(ctx, rw, status, map[string]string{
		"code":  http.StatusText(status),
		"error": err.Error(),
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, salescrm.ErrLeadNotFound),
		errors.Is(err, salescrm.ErrUserNotFound),
		errors.Is(err, salescrm.ErrProjectNotFound),
		errors.Is(err, salescrm.ErrTeamNotFound):
		return http.StatusNotFound
	case errors.Is(err, salescrm.ErrDuplicatedLead),
		errors.Is(err, salescrm.ErrDuplicatedUser):
		return http.StatusConflict
	case errors.Is(err, salescrm.ErrInvalidStatus),
		errors.Is(err, salescrm.ErrInvalidLead),
		errors.Is(err, salescrm.ErrInvalidRole),
		errors.Is(err, salescrm.ErrInvalidActivity),
		errors.Is(err, salescrm.ErrInvalidProject),
		errors.Is(err, salescrm.ErrInvalidPeriod),
		errors.Is(err, errBadID):
		return http.StatusBadRequest
	case errors.Is(err, salescrm.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, salescrm.ErrUnknownReference):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondServiceErr answers with the status matching err. Internal errors
// are not echoed to the client.
func respondServiceErr(ctx context.Context, rw http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		err = errInternal
	}
	respondErr(ctx, rw, status, err)
}

// idParam reads a UUID path parameter.
func idParam(r *http.Request, name string) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return "", errBadID
	}
	return id.String(), nil
}

// queryID reads an optional UUID query parameter. A missing parameter gives
// an empty id.
func queryID(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return "", errBadID
	}
	return id.String(), nil
}

// optionalID validates an optional UUID reference from a request body.
func optionalID(id *string) error {
	if id == nil {
		return nil
	}
	if _, err := uuid.Parse(*id); err != nil {
		return errBadID
	}
	return nil
}
