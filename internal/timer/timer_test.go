package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced monotonic clock.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

// noSchedule disables real scheduling; tests drive update() directly.
func noSchedule(time.Duration, func()) func() { return func() {} }

func newTestCountdown(clock Clock, cfg Config) *Countdown {
	cfg.Clock = clock
	cfg.Schedule = noSchedule
	return New(cfg)
}

func TestCountdown_StartThenStop(t *testing.T) {
	clock := newFakeClock()
	c := newTestCountdown(clock, Config{})

	c.Start(30 * time.Second)
	c.Stop()

	s := c.Snapshot()
	assert.Equal(t, time.Duration(0), s.TimeLeft)
	assert.False(t, s.Running)
	assert.False(t, s.Paused)
}

func TestCountdown_RemainingTracksClock(t *testing.T) {
	clock := newFakeClock()
	c := newTestCountdown(clock, Config{})

	c.Start(20 * time.Second)
	clock.Advance(7 * time.Second)

	assert.Equal(t, 13*time.Second, c.Remaining())
}

func TestCountdown_PauseResumeNoDrift(t *testing.T) {
	clock := newFakeClock()
	c := newTestCountdown(clock, Config{})

	c.Start(60 * time.Second)
	clock.Advance(10 * time.Second)

	c.Pause()
	atPause := c.Remaining()
	require.Equal(t, 50*time.Second, atPause)

	// A long paused interval must not burn countdown time.
	clock.Advance(5 * time.Minute)
	assert.Equal(t, atPause, c.Remaining())

	c.Resume()
	assert.Equal(t, atPause, c.Remaining())

	clock.Advance(20 * time.Second)
	assert.Equal(t, 30*time.Second, c.Remaining())
}

func TestCountdown_PauseWhileIdleIsNoop(t *testing.T) {
	clock := newFakeClock()
	c := newTestCountdown(clock, Config{})

	c.Pause()
	c.Resume()

	s := c.Snapshot()
	assert.False(t, s.Running)
	assert.False(t, s.Paused)
}

func TestCountdown_DoublePauseAndDoubleResume(t *testing.T) {
	clock := newFakeClock()
	c := newTestCountdown(clock, Config{})

	c.Start(40 * time.Second)
	clock.Advance(5 * time.Second)
	c.Pause()
	c.Pause() // no-op
	clock.Advance(time.Minute)
	c.Resume()
	c.Resume() // no-op

	assert.Equal(t, 35*time.Second, c.Remaining())
}

func TestCountdown_OnCompleteFiresExactlyOnce(t *testing.T) {
	clock := newFakeClock()
	completions := 0
	c := newTestCountdown(clock, Config{
		OnComplete: func() { completions++ },
	})

	c.Start(10 * time.Second)
	clock.Advance(11 * time.Second)
	c.update()
	c.update()
	c.update()

	assert.Equal(t, 1, completions)
	s := c.Snapshot()
	assert.False(t, s.Running)
	assert.Equal(t, time.Duration(0), s.TimeLeft)
}

func TestCountdown_TickThrottledToPrecision(t *testing.T) {
	clock := newFakeClock()
	ticks := 0
	c := newTestCountdown(clock, Config{
		Precision: 100 * time.Millisecond,
		OnTick:    func(time.Duration) { ticks++ },
	})

	c.Start(10 * time.Second)

	// Updates arriving faster than the precision window commit nothing.
	clock.Advance(30 * time.Millisecond)
	c.update()
	clock.Advance(30 * time.Millisecond)
	c.update()
	assert.Equal(t, 0, ticks)

	clock.Advance(50 * time.Millisecond)
	c.update()
	assert.Equal(t, 1, ticks)
}

func TestCountdown_TickRemainingIsMonotonic(t *testing.T) {
	clock := newFakeClock()
	var seen []time.Duration
	c := newTestCountdown(clock, Config{
		Precision: 100 * time.Millisecond,
		OnTick:    func(remaining time.Duration) { seen = append(seen, remaining) },
	})

	c.Start(2 * time.Second)
	// Simulate jittery scheduling: irregular gaps, some far beyond precision.
	for _, gap := range []time.Duration{150 * time.Millisecond, 700 * time.Millisecond, 110 * time.Millisecond, 900 * time.Millisecond} {
		clock.Advance(gap)
		c.update()
	}

	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.LessOrEqual(t, seen[i], seen[i-1], "remaining must never increase")
	}
}

func TestCountdown_RestartResetsCompletion(t *testing.T) {
	clock := newFakeClock()
	completions := 0
	c := newTestCountdown(clock, Config{OnComplete: func() { completions++ }})

	c.Start(time.Second)
	clock.Advance(2 * time.Second)
	c.update()
	require.Equal(t, 1, completions)

	c.Start(time.Second)
	clock.Advance(2 * time.Second)
	c.update()
	assert.Equal(t, 2, completions)
}

func TestCountdown_AddTimeClampsAtZero(t *testing.T) {
	clock := newFakeClock()
	c := newTestCountdown(clock, Config{})

	c.Start(10 * time.Second)
	c.AddTime(-time.Minute)

	assert.Equal(t, time.Duration(0), c.Snapshot().Duration)
	assert.Equal(t, time.Duration(0), c.Remaining())
}

func TestCountdown_SetTimeRebases(t *testing.T) {
	clock := newFakeClock()
	c := newTestCountdown(clock, Config{})

	c.Start(10 * time.Second)
	clock.Advance(8 * time.Second)
	c.SetTime(30 * time.Second)

	assert.Equal(t, 30*time.Second, c.Remaining())
	clock.Advance(10 * time.Second)
	assert.Equal(t, 20*time.Second, c.Remaining())
}

func TestCountdown_Progress(t *testing.T) {
	clock := newFakeClock()
	c := newTestCountdown(clock, Config{})

	c.Start(20 * time.Second)
	clock.Advance(5 * time.Second)

	assert.InDelta(t, 25.0, c.Snapshot().Progress, 0.001)
}

func TestCountdown_LifecycleAutoPauseResume(t *testing.T) {
	clock := newFakeClock()
	signal := NewSignal()
	cfg := Config{Lifecycle: signal}
	c := newTestCountdown(clock, cfg)

	c.Start(60 * time.Second)
	clock.Advance(10 * time.Second)

	signal.Background()
	require.True(t, c.Snapshot().Paused)

	clock.Advance(time.Hour) // backgrounded time must not count
	signal.Foreground()

	s := c.Snapshot()
	assert.False(t, s.Paused)
	assert.Equal(t, 50*time.Second, s.TimeLeft)
}

func TestCountdown_ManualPauseSurvivesForeground(t *testing.T) {
	clock := newFakeClock()
	signal := NewSignal()
	c := newTestCountdown(clock, Config{Lifecycle: signal})

	c.Start(60 * time.Second)
	c.Pause() // user-initiated, not lifecycle-induced

	signal.Foreground()
	assert.True(t, c.Snapshot().Paused, "foreground must not override a manual pause")
}

func TestCountdown_CloseDetachesLifecycle(t *testing.T) {
	clock := newFakeClock()
	signal := NewSignal()
	c := newTestCountdown(clock, Config{Lifecycle: signal})

	c.Start(60 * time.Second)
	require.Len(t, signal.subs, 1)

	c.Close()
	assert.Empty(t, signal.subs, "closing must remove the lifecycle subscription")
	assert.False(t, c.Snapshot().Running)

	// A detached countdown ignores lifecycle transitions entirely.
	c.Start(60 * time.Second)
	signal.Background()
	assert.False(t, c.Snapshot().Paused)

	c.Close() // second close is a no-op
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "01:05", FormatDuration(65*time.Second, FormatMMSS))
	assert.Equal(t, "00:00", FormatDuration(-time.Second, FormatMMSS))
	assert.Equal(t, "1:01:05", FormatDuration(3665*time.Second, FormatHMMSS))
	assert.Equal(t, "1h 1m", FormatDuration(3665*time.Second, FormatCompact))
	assert.Equal(t, "2m 3s", FormatDuration(123*time.Second, FormatCompact))
	assert.Equal(t, "45s", FormatDuration(45*time.Second, FormatCompact))
}
