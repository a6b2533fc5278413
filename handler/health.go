package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/phbpx/sales-crm/postgres"
)

// Health reports whether the database answers within a second.
func Health(db *sqlx.DB) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()

		if err := postgres.StatusCheck(ctx, db); err != nil {
			respondErr(r.Context(), rw, http.StatusServiceUnavailable, err)
			return
		}
		respond(r.Context(), rw, http.StatusOK, map[string]string{"status": "ok"})
	}
}
