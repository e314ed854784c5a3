// Package timer implements a pomodoro timer as a pure state machine over an
// injected clock. Callers drive it with Tick; nothing here spawns goroutines.
package timer

import (
	"fmt"
	"time"
)

// Kind selects which preset duration the timer counts down.
type Kind string

const (
	KindPomodoro   Kind = "pomodoro"
	KindShortBreak Kind = "short-break"
	KindLongBreak  Kind = "long-break"
)

// State is the timer lifecycle phase.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// Presets holds the countdown duration per kind.
type Presets struct {
	Pomodoro   time.Duration
	ShortBreak time.Duration
	LongBreak  time.Duration
}

// DefaultPresets returns the classic 25/5/15 minute configuration.
func DefaultPresets() Presets {
	return Presets{
		Pomodoro:   25 * time.Minute,
		ShortBreak: 5 * time.Minute,
		LongBreak:  15 * time.Minute,
	}
}

// Duration returns the preset for kind, defaulting unknown kinds to pomodoro.
func (p Presets) Duration(kind Kind) time.Duration {
	switch kind {
	case KindShortBreak:
		return p.ShortBreak
	case KindLongBreak:
		return p.LongBreak
	default:
		return p.Pomodoro
	}
}

// Timer counts a preset duration down. Time only advances through Tick, so a
// test can drive the whole lifecycle with a fake clock.
type Timer struct {
	Presets Presets
	Now     func() time.Time

	kind      Kind
	state     State
	remaining time.Duration
	startedAt time.Time

	// sessions counts completed pomodoros, not breaks.
	sessions int
}

func New(presets Presets) *Timer {
	return &Timer{
		Presets: presets,
		Now:     time.Now,
		kind:    KindPomodoro,
		state:   StateIdle,
	}
}

func (t *Timer) Kind() Kind    { return t.kind }
func (t *Timer) State() State  { return t.state }
func (t *Timer) Sessions() int { return t.sessions }

// Start begins a countdown of the given kind. Starting while running restarts
// with the new kind from its full preset.
func (t *Timer) Start(kind Kind) {
	t.kind = kind
	t.remaining = t.Presets.Duration(kind)
	t.startedAt = t.now()
	t.state = StateRunning
}

// Pause freezes the remaining time. A no-op unless running.
func (t *Timer) Pause() {
	if t.state != StateRunning {
		return
	}
	t.remaining = t.remainingAt(t.now())
	t.state = StatePaused
}

// Resume continues a paused countdown. A no-op unless paused.
func (t *Timer) Resume() {
	if t.state != StatePaused {
		return
	}
	t.startedAt = t.now()
	t.state = StateRunning
}

// Stop abandons the countdown without crediting a session.
func (t *Timer) Stop() {
	t.state = StateIdle
	t.remaining = 0
}

// Reset stops the timer and clears the session counter.
func (t *Timer) Reset() {
	t.Stop()
	t.sessions = 0
}

// Tick advances the timer to now. When a running countdown reaches zero the
// timer goes idle and, for a pomodoro, the session counter increments. It
// reports whether this tick completed the countdown.
func (t *Timer) Tick() bool {
	if t.state != StateRunning {
		return false
	}
	if t.remainingAt(t.now()) > 0 {
		return false
	}
	if t.kind == KindPomodoro {
		t.sessions++
	}
	t.state = StateIdle
	t.remaining = 0
	return true
}

// Remaining returns the time left on the countdown, floored at zero.
func (t *Timer) Remaining() time.Duration {
	switch t.state {
	case StateRunning:
		return t.remainingAt(t.now())
	case StatePaused:
		return t.remaining
	default:
		return 0
	}
}

// Progress returns completion in [0,1] for the current kind's preset.
func (t *Timer) Progress() float64 {
	total := t.Presets.Duration(t.kind)
	if total <= 0 || t.state == StateIdle {
		return 0
	}
	return 1 - float64(t.Remaining())/float64(total)
}

// FormatClock renders a duration as mm:ss, e.g. "24:59".
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func (t *Timer) remainingAt(now time.Time) time.Duration {
	left := t.remaining - now.Sub(t.startedAt)
	if left < 0 {
		return 0
	}
	return left
}

func (t *Timer) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}
