package timer

import "sync"

// Lifecycle is a host lifecycle signal: foreground/background transitions of
// whatever environment embeds the timer. A browser front end maps page
// visibility onto it; headless targets use NopLifecycle.
type Lifecycle interface {
	// Subscribe registers a callback invoked with true on foreground and
	// false on background. It returns an unsubscribe function.
	Subscribe(fn func(foreground bool)) (cancel func())
}

// NopLifecycle is a Lifecycle that never signals.
type NopLifecycle struct{}

// Subscribe implements Lifecycle; the callback is never invoked.
func (NopLifecycle) Subscribe(func(foreground bool)) func() { return func() {} }

// Signal is a manually driven Lifecycle for hosts that report their own
// foreground/background transitions (and for tests).
type Signal struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(bool)
}

// NewSignal creates an empty lifecycle signal.
func NewSignal() *Signal {
	return &Signal{subs: make(map[int]func(bool))}
}

// Subscribe implements Lifecycle.
func (s *Signal) Subscribe(fn func(foreground bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Background notifies subscribers that the host went to the background.
func (s *Signal) Background() { s.broadcast(false) }

// Foreground notifies subscribers that the host returned to the foreground.
func (s *Signal) Foreground() { s.broadcast(true) }

func (s *Signal) broadcast(foreground bool) {
	s.mu.Lock()
	fns := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(foreground)
	}
}
