package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	salescrm "github.com/phbpx/sales-crm"
	"github.com/phbpx/sales-crm/realtime"
)

var errUnknownTable = errors.New("unknown table")

var watchable = map[string]bool{
	"":                       true,
	salescrm.TableUsers:      true,
	salescrm.TableLeads:      true,
	salescrm.TableProjects:   true,
	salescrm.TableActivities: true,
	salescrm.TableTeams:      true,
	salescrm.TableQuotas:     true,
}

// ChangeHandler streams change events as Server-Sent Events.
type ChangeHandler struct {
	hub       *realtime.Hub
	log       *zap.SugaredLogger
	keepAlive time.Duration
}

func NewChangeHandler(hub *realtime.Hub, keepAlive time.Duration, log *zap.SugaredLogger) *ChangeHandler {
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	return &ChangeHandler{
		hub:       hub,
		log:       log,
		keepAlive: keepAlive,
	}
}

// Stream subscribes to ?table= (all tables when empty) and writes one
// "change" event per row change until the client goes away. The
// subscription is released when the request ends.
func (ch ChangeHandler) Stream(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	table := r.URL.Query().Get("table")
	if !watchable[table] {
		respondErr(ctx, rw, http.StatusBadRequest, errUnknownTable)
		return
	}

	flusher, ok := rw.(http.Flusher)
	if !ok {
		respondErr(ctx, rw, http.StatusInternalServerError, errInternal)
		return
	}

	// The server write timeout would otherwise cut the stream.
	http.NewResponseController(rw).SetWriteDeadline(time.Time{})

	sub := ch.hub.Subscribe(table)
	defer sub.Close()

	rw.Header().Set("Content-Type", "text/event-stream")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Connection", "keep-alive")
	rw.WriteHeader(http.StatusOK)
	fmt.Fprint(rw, "retry: 3000\n\n")
	flusher.Flush()

	ticker := time.NewTicker(ch.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			raw, err := json.Marshal(ev)
			if err != nil {
				ch.log.Errorw("Stream", "error", err.Error())
				continue
			}
			if _, err := fmt.Fprintf(rw, "event: change\ndata: %s\n\n", raw); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprint(rw, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
