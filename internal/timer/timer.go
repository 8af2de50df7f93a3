package timer

import (
	"sync"
	"time"
)

// DefaultPrecision is the minimum interval between committed tick updates.
const DefaultPrecision = 100 * time.Millisecond

// ScheduleFunc schedules fn to run after d and returns a stop function.
// The default implementation uses time.AfterFunc; tests substitute a no-op
// and drive updates directly.
type ScheduleFunc func(d time.Duration, fn func()) (stop func())

func afterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Config holds countdown configuration. Zero values select the system clock,
// the default precision and real scheduling.
type Config struct {
	Precision  time.Duration
	OnTick     func(remaining time.Duration)
	OnComplete func()
	Clock      Clock
	Lifecycle  Lifecycle
	Schedule   ScheduleFunc
}

// Snapshot is a read-only view of countdown state.
type Snapshot struct {
	TimeLeft time.Duration
	Duration time.Duration
	Progress float64 // 0..100
	Running  bool
	Paused   bool
}

// Countdown tracks a countdown from a configured duration to zero with
// sub-second precision. Elapsed time is computed as
// now - start - accumulatedPausedTime on every update, so remaining time is
// immune to scheduling jitter. OnTick commits are throttled to Precision;
// OnComplete fires exactly once per Start.
//
// All operations are idempotent no-ops when called in an invalid state.
type Countdown struct {
	mu         sync.Mutex
	clock      Clock
	precision  time.Duration
	schedule   ScheduleFunc
	onTick     func(time.Duration)
	onComplete func()

	duration    time.Duration
	startAt     time.Time
	pausedAt    time.Time
	pausedAccum time.Duration
	lastCommit  time.Time

	running       bool
	paused        bool
	autoPaused    bool
	completeFired bool

	stopSched   func()
	unsubscribe func()
}

// New creates a countdown in the idle state. If cfg.Lifecycle is set, the
// countdown auto-pauses on background and auto-resumes on foreground while an
// auto-pause is in effect.
func New(cfg Config) *Countdown {
	c := &Countdown{
		clock:      cfg.Clock,
		precision:  cfg.Precision,
		schedule:   cfg.Schedule,
		onTick:     cfg.OnTick,
		onComplete: cfg.OnComplete,
	}
	if c.clock == nil {
		c.clock = SystemClock()
	}
	if c.precision <= 0 {
		c.precision = DefaultPrecision
	}
	if c.schedule == nil {
		c.schedule = afterFunc
	}
	if cfg.Lifecycle != nil {
		c.unsubscribe = cfg.Lifecycle.Subscribe(c.onLifecycle)
	}
	return c
}

// Close stops the countdown and detaches it from the lifecycle source. A
// closed countdown no longer reacts to background/foreground transitions;
// call it when the session that owns the countdown ends.
func (c *Countdown) Close() {
	c.Stop()
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Start resets the countdown to the running state with the given duration.
// Negative durations are clamped to zero.
func (c *Countdown) Start(duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	c.mu.Lock()
	now := c.clock.Now()
	c.cancelScheduledLocked()
	c.duration = duration
	c.startAt = now
	c.pausedAccum = 0
	c.lastCommit = now
	c.running = true
	c.paused = false
	c.autoPaused = false
	c.completeFired = false
	c.scheduleNextLocked(duration)
	c.mu.Unlock()
}

// Pause freezes progression. No-op unless running and not already paused.
func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || c.paused {
		return
	}
	c.paused = true
	c.pausedAt = c.clock.Now()
	c.cancelScheduledLocked()
}

// Resume continues a paused countdown. The elapsed paused interval is folded
// into the paused-time offset so no time is lost or gained. No-op unless
// paused.
func (c *Countdown) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || !c.paused {
		return
	}
	now := c.clock.Now()
	c.pausedAccum += now.Sub(c.pausedAt)
	c.lastCommit = now
	c.paused = false
	c.autoPaused = false
	c.scheduleNextLocked(c.remainingLocked(now))
}

// Stop resets to the zero idle state and cancels any scheduled update.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelScheduledLocked()
	c.duration = 0
	c.pausedAccum = 0
	c.running = false
	c.paused = false
	c.autoPaused = false
}

// AddTime administratively extends (or shrinks) the countdown. The resulting
// duration is clamped to zero.
func (c *Countdown) AddTime(delta time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.duration += delta
	if c.duration < 0 {
		c.duration = 0
	}
}

// SetTime re-bases the countdown so the remaining time equals d.
func (c *Countdown) SetTime(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.duration = d
	c.startAt = c.clock.Now()
	c.pausedAccum = 0
	if c.paused {
		c.pausedAt = c.startAt
	}
}

// Remaining returns the time left, derived from the monotonic clock.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remainingLocked(c.clock.Now())
}

// Snapshot returns a consistent view of the countdown state.
func (c *Countdown) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.remainingLocked(c.clock.Now())
	s := Snapshot{
		TimeLeft: remaining,
		Duration: c.duration,
		Running:  c.running,
		Paused:   c.paused,
	}
	if c.duration > 0 {
		s.Progress = (1 - remaining.Seconds()/c.duration.Seconds()) * 100
	}
	return s
}

// update is the scheduled tick handler. It recomputes remaining time from the
// clock, commits at most once per precision window, reschedules itself, and
// fires OnComplete when the countdown reaches zero.
func (c *Countdown) update() {
	c.mu.Lock()
	if !c.running || c.paused {
		c.mu.Unlock()
		return
	}
	now := c.clock.Now()
	remaining := c.remainingLocked(now)

	fireTick := false
	if now.Sub(c.lastCommit) >= c.precision {
		c.lastCommit = now
		fireTick = true
	}

	fireComplete := false
	if remaining <= 0 {
		c.running = false
		fireTick = true
		if !c.completeFired {
			c.completeFired = true
			fireComplete = true
		}
	} else {
		c.scheduleNextLocked(remaining)
	}
	onTick, onComplete := c.onTick, c.onComplete
	c.mu.Unlock()

	if fireTick && onTick != nil {
		onTick(remaining)
	}
	if fireComplete && onComplete != nil {
		onComplete()
	}
}

func (c *Countdown) remainingLocked(now time.Time) time.Duration {
	if !c.running {
		return 0
	}
	if c.paused {
		now = c.pausedAt
	}
	elapsed := now.Sub(c.startAt) - c.pausedAccum
	remaining := c.duration - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (c *Countdown) scheduleNextLocked(remaining time.Duration) {
	c.cancelScheduledLocked()
	next := c.precision
	if remaining > 0 && remaining < next {
		next = remaining
	}
	c.stopSched = c.schedule(next, c.update)
}

func (c *Countdown) cancelScheduledLocked() {
	if c.stopSched != nil {
		c.stopSched()
		c.stopSched = nil
	}
}

// onLifecycle auto-pauses when the host backgrounds and auto-resumes when it
// returns to the foreground, but only when the pause was lifecycle-induced.
func (c *Countdown) onLifecycle(foreground bool) {
	if foreground {
		c.mu.Lock()
		resume := c.running && c.paused && c.autoPaused
		c.mu.Unlock()
		if resume {
			c.Resume()
		}
		return
	}
	c.mu.Lock()
	pause := c.running && !c.paused
	c.mu.Unlock()
	if pause {
		c.Pause()
		c.mu.Lock()
		c.autoPaused = true
		c.mu.Unlock()
	}
}
