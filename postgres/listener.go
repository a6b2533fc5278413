package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	salescrm "github.com/phbpx/sales-crm"
)

// ChangeChannel is the NOTIFY channel the crm_notify_change trigger writes to.
const ChangeChannel = "crm_changes"

// Publisher receives the decoded change events.
type Publisher interface {
	Publish(ev salescrm.ChangeEvent)
}

// Listener turns PostgreSQL notifications into change events.
type Listener struct {
	listener     *pq.Listener
	pub          Publisher
	log          *zap.SugaredLogger
	pingInterval time.Duration
}

// ListenerConfig controls the reconnect behaviour of the underlying
// pq.Listener.
type ListenerConfig struct {
	MinReconnect time.Duration
	MaxReconnect time.Duration
	PingInterval time.Duration
}

func NewListener(cfg Config, lcfg ListenerConfig, pub Publisher, log *zap.SugaredLogger) (*Listener, error) {
	report := func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
			log.Errorw("listener", "event", ev, "error", err)
		case pq.ListenerEventReconnected:
			log.Infow("listener", "status", "reconnected")
		}
	}

	l := pq.NewListener(cfg.URL(), lcfg.MinReconnect, lcfg.MaxReconnect, report)
	if err := l.Listen(ChangeChannel); err != nil {
		l.Close()
		return nil, fmt.Errorf("listen %s: %w", ChangeChannel, err)
	}

	if lcfg.PingInterval <= 0 {
		lcfg.PingInterval = 90 * time.Second
	}

	return &Listener{
		listener:     l,
		pub:          pub,
		log:          log,
		pingInterval: lcfg.PingInterval,
	}, nil
}

// Run forwards notifications until ctx is done, then closes the listener.
// After a reconnect, notifications sent while disconnected are lost, so a
// resync event is published instead.
func (l *Listener) Run(ctx context.Context) error {
	defer l.listener.Close()

	ticker := time.NewTicker(l.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case n, ok := <-l.listener.Notify:
			if !ok {
				return nil
			}
			if n == nil {
				l.pub.Publish(salescrm.ChangeEvent{Op: salescrm.OpResync, At: time.Now().UTC()})
				continue
			}

			ev, err := decodeChange(n.Extra, time.Now().UTC())
			if err != nil {
				l.log.Errorw("listener", "error", err, "payload", n.Extra)
				continue
			}
			l.pub.Publish(ev)

		case <-ticker.C:
			go func() {
				if err := l.listener.Ping(); err != nil {
					l.log.Errorw("listener", "status", "ping failed", "error", err)
				}
			}()
		}
	}
}

func decodeChange(payload string, at time.Time) (salescrm.ChangeEvent, error) {
	var ev salescrm.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, fmt.Errorf("decoding change payload: %w", err)
	}
	if ev.Table == "" || ev.Op == "" {
		return ev, fmt.Errorf("incomplete change payload %q", payload)
	}
	ev.At = at
	return ev, nil
}
