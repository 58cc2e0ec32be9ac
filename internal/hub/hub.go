// Package hub fans chat events out to per-recipient inboxes so that long-lived
// HTTP streams can block on a bounded drain instead of polling storage.
package hub

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultCapacity bounds every inbox and listener queue.
const DefaultCapacity = 100

// ErrListenerClosed is returned by Drain once the listener was unsubscribed.
var ErrListenerClosed = errors.New("hub: listener closed")

// Stats is a point-in-time view of hub occupancy.
type Stats struct {
	Inboxes   int   `json:"inboxes"`
	Listeners int   `json:"listeners"`
	Pending   int   `json:"pending"`
	Published int64 `json:"published"`
	Dropped   int64 `json:"dropped"`
}

type inbox struct {
	// pending buffers events while nobody is attached.
	pending   []Event
	listeners map[*Listener]struct{}
}

// Listener is a single consumer attached to a recipient inbox.
type Listener struct {
	recipientID string
	queue       []Event
	wake        chan struct{}
	closed      bool
}

// RecipientID returns the inbox key the listener is attached to.
func (l *Listener) RecipientID() string {
	return l.recipientID
}

// Hub owns every inbox. A single mutex guards the table, the listener queues
// and the counters; no call holds it while waiting.
type Hub struct {
	mu        sync.Mutex
	inboxes   map[string]*inbox
	capacity  int
	published int64
	dropped   int64
}

// New builds a hub whose queues hold at most capacity events.
func New(capacity int) *Hub {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Hub{
		inboxes:  make(map[string]*inbox),
		capacity: capacity,
	}
}

// Subscribe attaches a new listener to recipientID. Events buffered while the
// inbox had no listener are handed to it.
func (h *Hub) Subscribe(recipientID string) *Listener {
	h.mu.Lock()
	defer h.mu.Unlock()

	ib := h.inboxLocked(recipientID)
	l := &Listener{
		recipientID: recipientID,
		queue:       ib.pending,
		wake:        make(chan struct{}, 1),
	}
	ib.pending = nil
	ib.listeners[l] = struct{}{}
	return l
}

// Publish appends ev to every listener of recipientID, or to the inbox buffer
// when none is attached. It never blocks; the oldest event is dropped when a
// queue is full.
func (h *Hub) Publish(recipientID string, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ib := h.inboxLocked(recipientID)
	h.published++

	if len(ib.listeners) == 0 {
		ib.pending = h.appendLocked(ib.pending, ev)
		return
	}
	for l := range ib.listeners {
		l.queue = h.appendLocked(l.queue, ev)
		signal(l.wake)
	}
}

// Drain returns the listener's oldest event, waiting up to timeout for one to
// arrive. On timeout it returns a ping event.
func (h *Hub) Drain(ctx context.Context, l *Listener, timeout time.Duration) (Event, error) {
	if ev, ok, err := h.pop(l); ok || err != nil {
		return ev, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-l.wake:
			if ev, ok, err := h.pop(l); ok || err != nil {
				return ev, err
			}
		case <-timer.C:
			if ev, ok, err := h.pop(l); ok || err != nil {
				return ev, err
			}
			return Ping(), nil
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// Unsubscribe detaches l. Undelivered events go back to the inbox buffer if
// l was the last listener, so a reconnecting client still sees them. Calling
// it twice is a no-op.
func (h *Hub) Unsubscribe(l *Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	signal(l.wake)

	ib, ok := h.inboxes[l.recipientID]
	if !ok {
		return
	}
	delete(ib.listeners, l)
	if len(ib.listeners) == 0 {
		for _, ev := range l.queue {
			ib.pending = h.appendLocked(ib.pending, ev)
		}
	}
	l.queue = nil

	if len(ib.listeners) == 0 && len(ib.pending) == 0 {
		delete(h.inboxes, l.recipientID)
	}
}

// Discard drops buffered events for recipientID and closes its listeners.
func (h *Hub) Discard(recipientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ib, ok := h.inboxes[recipientID]
	if !ok {
		return
	}
	for l := range ib.listeners {
		l.closed = true
		l.queue = nil
		signal(l.wake)
	}
	delete(h.inboxes, recipientID)
}

// Stats reports current occupancy and lifetime counters.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := Stats{
		Inboxes:   len(h.inboxes),
		Published: h.published,
		Dropped:   h.dropped,
	}
	for _, ib := range h.inboxes {
		st.Listeners += len(ib.listeners)
		st.Pending += len(ib.pending)
		for l := range ib.listeners {
			st.Pending += len(l.queue)
		}
	}
	return st
}

func (h *Hub) pop(l *Listener) (Event, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if l.closed {
		return Event{}, false, ErrListenerClosed
	}
	if len(l.queue) == 0 {
		return Event{}, false, nil
	}
	ev := l.queue[0]
	l.queue[0] = Event{}
	l.queue = l.queue[1:]
	if len(l.queue) == 0 {
		l.queue = nil
	}
	return ev, true, nil
}

func (h *Hub) inboxLocked(recipientID string) *inbox {
	ib, ok := h.inboxes[recipientID]
	if !ok {
		ib = &inbox{listeners: make(map[*Listener]struct{})}
		h.inboxes[recipientID] = ib
	}
	return ib
}

func (h *Hub) appendLocked(queue []Event, ev Event) []Event {
	if len(queue) >= h.capacity {
		h.dropped++
		n := copy(queue, queue[1:])
		queue = queue[:n]
	}
	return append(queue, ev)
}

// signal wakes a drain without blocking; one pending wake is enough since
// drain re-reads the queue.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
