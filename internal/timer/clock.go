// Package timer provides a wall-clock-accurate countdown decoupled from tick
// scheduling. Remaining time is always derived from a monotonic clock snapshot
// rather than accumulated per-tick deltas, so delayed or batched callbacks
// cannot introduce drift.
package timer

import "time"

// Clock abstracts the monotonic time source so tests can control elapsed time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real monotonic clock.
func SystemClock() Clock { return systemClock{} }
