package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/interview-assistant/internal/session"
)

// sessionEvent is one item on a session's event stream: timer ticks, timer
// expiry, answer acceptance, and completion.
type sessionEvent struct {
	Name string
	Data any
}

// eventHub fans session events out to SSE subscribers. Subscriber channels
// are buffered; a slow consumer drops events rather than blocking the timer
// callback that published them.
type eventHub struct {
	mu   sync.Mutex
	subs map[chan sessionEvent]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[chan sessionEvent]struct{})}
}

// Subscribe registers a new consumer. The returned cancel function must be
// called when the consumer goes away.
func (h *eventHub) Subscribe() (<-chan sessionEvent, func()) {
	ch := make(chan sessionEvent, 32)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber that has buffer space.
func (h *eventHub) Publish(name string, data any) {
	ev := sessionEvent{Name: name, Data: data}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is behind; the next tick supersedes this one.
		}
	}
}

// liveSession pairs an in-memory interview state machine with its event hub.
type liveSession struct {
	ID        uuid.UUID
	Machine   *session.Machine
	Hub       *eventHub
	CreatedAt time.Time
}

// Registry tracks the live interview sessions hosted by this server. Sessions
// are in-memory; recovery snapshots in the store cover process restarts.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*liveSession
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*liveSession)}
}

// Add creates a registry entry for the machine and returns it.
func (r *Registry) Add(m *session.Machine, hub *eventHub) *liveSession {
	ls := &liveSession{
		ID:        uuid.New(),
		Machine:   m,
		Hub:       hub,
		CreatedAt: time.Now(),
	}
	r.mu.Lock()
	r.sessions[ls.ID] = ls
	r.mu.Unlock()
	return ls
}

// Get returns the live session for id, or false when none exists.
func (r *Registry) Get(id uuid.UUID) (*liveSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ls, ok := r.sessions[id]
	return ls, ok
}

// Remove drops the session from the registry and releases its countdown.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	ls, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		ls.Machine.Close()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
