package search

import (
	"sync"
	"time"
)

// DefaultDebounce is the default quiet interval before a query fires.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer coalesces rapid query updates so each keystroke does not trigger
// a full recomputation. Only the last value submitted within the quiet
// interval is delivered.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func(query string)
	timer *time.Timer
}

// NewDebouncer creates a debouncer delivering queries to fn after delay of
// inactivity. A non-positive delay uses DefaultDebounce.
func NewDebouncer(delay time.Duration, fn func(query string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Update submits a new query value, resetting the quiet interval.
func (d *Debouncer) Update(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fn(query) })
}

// Flush cancels any pending delivery and fires fn immediately with the given
// query.
func (d *Debouncer) Flush(query string) {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.fn(query)
}

// Cancel drops any pending delivery.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
