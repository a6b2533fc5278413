// Package realtime fans row change events out to in-process subscribers.
package realtime

import (
	"sync"
	"sync/atomic"

	salescrm "github.com/phbpx/sales-crm"
)

// DefaultBuffer is the per-subscription channel capacity used when Hub is
// created with a non-positive buffer.
const DefaultBuffer = 64

// Hub delivers every published event to the subscriptions watching its
// table. Publish never blocks on a slow subscriber: the event is dropped for
// that subscriber and counted instead.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool

	dropped uint64
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscription is the handle returned by Subscribe. Close must be called
// once the receiver is done with it.
type Subscription struct {
	hub    *Hub
	table  string
	events chan salescrm.ChangeEvent
	once   sync.Once
}

// Events returns the channel events are delivered on. It is closed when the
// subscription or the hub is closed.
func (s *Subscription) Events() <-chan salescrm.ChangeEvent {
	return s.events
}

// Table returns the watched table, empty when watching all of them.
func (s *Subscription) Table() string {
	return s.table
}

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Subscribe registers a listener for table, or for every table when table is
// empty. Subscribing to a closed hub returns a subscription whose channel is
// already closed.
func (h *Hub) Subscribe(table string) *Subscription {
	s := &Subscription{
		hub:    h,
		table:  table,
		events: make(chan salescrm.ChangeEvent, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		s.once.Do(func() { close(s.events) })
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs, s)
	s.once.Do(func() { close(s.events) })
}

// Publish delivers ev to every matching subscription. Resync events go to
// everyone.
func (h *Hub) Publish(ev salescrm.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs {
		if s.table != "" && s.table != ev.Table && ev.Op != salescrm.OpResync {
			continue
		}
		select {
		case s.events <- ev:
		default:
			atomic.AddUint64(&h.dropped, 1)
		}
	}
}

// Len returns the number of open subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber's
// buffer was full.
func (h *Hub) Dropped() uint64 {
	return atomic.LoadUint64(&h.dropped)
}

// Close closes every subscription. Later publishes are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		s.once.Do(func() { close(s.events) })
	}
}
