package hub

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Callback receives an event. A non-nil error is reported, never propagated
// to the publisher or to other subscribers.
type Callback func(Event) error

// Handle identifies a registration returned by Subscribe
type Handle struct {
	ID   uuid.UUID
	Kind Kind
}

type subscription struct {
	handle  Handle
	cb      Callback
	removed atomic.Bool
}

// Hub fans events out to subscribers. It is safe for concurrent use.
type Hub struct {
	mu       sync.Mutex
	subs     map[Kind][]*subscription
	reporter Reporter
}

// New creates a hub. A nil reporter falls back to a FailureLog.
func New(reporter Reporter) *Hub {
	if reporter == nil {
		reporter = NewFailureLog()
	}
	return &Hub{
		subs:     map[Kind][]*subscription{},
		reporter: reporter,
	}
}

// Subscribe registers cb for events of the given kind. Multiple
// subscribers per kind are delivered in registration order.
func (h *Hub) Subscribe(kind Kind, cb Callback) Handle {
	s := &subscription{
		handle: Handle{ID: uuid.New(), Kind: kind},
		cb:     cb,
	}
	h.mu.Lock()
	h.subs[kind] = append(h.subs[kind], s)
	h.mu.Unlock()
	return s.handle
}

// Unsubscribe removes a registration. Unknown or already removed handles
// are ignored.
func (h *Hub) Unsubscribe(handle Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.subs[handle.Kind]
	for i, s := range list {
		if s.handle.ID != handle.ID {
			continue
		}
		s.removed.Store(true)
		// copy rather than mutate in place: in-flight snapshots share the old backing array
		next := make([]*subscription, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		h.subs[handle.Kind] = next
		return
	}
}

// Len returns the number of current subscribers for kind
func (h *Hub) Len(kind Kind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[kind])
}

// Publish delivers ev to every subscriber registered for ev.Kind at the
// moment Publish is called.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	snapshot := h.subs[ev.Kind]
	h.mu.Unlock()

	for _, s := range snapshot {
		if s.removed.Load() {
			continue
		}
		if err := invoke(s.cb, ev); err != nil {
			h.reporter.ReportFailure(Failure{Kind: ev.Kind, Handle: s.handle, Err: err})
		}
	}
}

func invoke(cb Callback, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panicked: %v", r)
		}
	}()
	return cb(ev)
}
