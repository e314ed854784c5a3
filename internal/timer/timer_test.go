package timer_test

import (
	"testing"
	"time"

	"taskline/internal/timer"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTimer() (*timer.Timer, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	tm := timer.New(timer.DefaultPresets())
	tm.Now = clock.Now
	return tm, clock
}

func TestDefaultPresets(t *testing.T) {
	p := timer.DefaultPresets()
	if p.Pomodoro != 25*time.Minute || p.ShortBreak != 5*time.Minute || p.LongBreak != 15*time.Minute {
		t.Fatalf("unexpected presets: %+v", p)
	}
	if p.Duration(timer.Kind("bogus")) != p.Pomodoro {
		t.Fatalf("unknown kind should default to pomodoro")
	}
}

func TestCountdownLifecycle(t *testing.T) {
	tm, clock := newTestTimer()

	if tm.State() != timer.StateIdle || tm.Remaining() != 0 {
		t.Fatalf("fresh timer should be idle")
	}
	tm.Start(timer.KindPomodoro)
	if tm.State() != timer.StateRunning {
		t.Fatalf("expected running")
	}
	clock.Advance(10 * time.Minute)
	if got := tm.Remaining(); got != 15*time.Minute {
		t.Fatalf("remaining = %s, want 15m", got)
	}
	if done := tm.Tick(); done {
		t.Fatalf("tick should not complete with time left")
	}

	clock.Advance(15 * time.Minute)
	if done := tm.Tick(); !done {
		t.Fatalf("tick should complete at zero")
	}
	if tm.State() != timer.StateIdle || tm.Sessions() != 1 {
		t.Fatalf("expected idle with one session, got %s/%d", tm.State(), tm.Sessions())
	}
}

func TestPauseFreezesRemaining(t *testing.T) {
	tm, clock := newTestTimer()
	tm.Start(timer.KindPomodoro)
	clock.Advance(5 * time.Minute)
	tm.Pause()
	if tm.State() != timer.StatePaused {
		t.Fatalf("expected paused")
	}

	clock.Advance(time.Hour)
	if got := tm.Remaining(); got != 20*time.Minute {
		t.Fatalf("paused remaining drifted: %s", got)
	}

	tm.Resume()
	clock.Advance(20 * time.Minute)
	if !tm.Tick() {
		t.Fatalf("expected completion after resume")
	}
}

func TestPauseResumeAreNoOpsOutOfState(t *testing.T) {
	tm, _ := newTestTimer()
	tm.Pause()
	if tm.State() != timer.StateIdle {
		t.Fatalf("pause on idle should be a no-op")
	}
	tm.Resume()
	if tm.State() != timer.StateIdle {
		t.Fatalf("resume on idle should be a no-op")
	}
}

func TestBreaksDoNotCountSessions(t *testing.T) {
	tm, clock := newTestTimer()
	tm.Start(timer.KindShortBreak)
	clock.Advance(5 * time.Minute)
	if !tm.Tick() {
		t.Fatalf("expected break completion")
	}
	if tm.Sessions() != 0 {
		t.Fatalf("break should not count a session")
	}

	tm.Start(timer.KindLongBreak)
	clock.Advance(15 * time.Minute)
	tm.Tick()
	if tm.Sessions() != 0 {
		t.Fatalf("long break should not count a session")
	}
}

func TestStopAbandonsWithoutCredit(t *testing.T) {
	tm, clock := newTestTimer()
	tm.Start(timer.KindPomodoro)
	clock.Advance(24 * time.Minute)
	tm.Stop()
	if tm.State() != timer.StateIdle || tm.Sessions() != 0 {
		t.Fatalf("stop should abandon without a session")
	}

	tm.Start(timer.KindPomodoro)
	clock.Advance(25 * time.Minute)
	tm.Tick()
	tm.Reset()
	if tm.Sessions() != 0 {
		t.Fatalf("reset should clear sessions")
	}
}

func TestProgress(t *testing.T) {
	tm, clock := newTestTimer()
	if tm.Progress() != 0 {
		t.Fatalf("idle progress should be 0")
	}
	tm.Start(timer.KindPomodoro)
	clock.Advance(12*time.Minute + 30*time.Second)
	if got := tm.Progress(); got < 0.49 || got > 0.51 {
		t.Fatalf("progress = %f, want ~0.5", got)
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{25 * time.Minute, "25:00"},
		{61 * time.Second, "01:01"},
		{0, "00:00"},
		{-time.Second, "00:00"},
		{9*time.Minute + 5*time.Second, "09:05"},
	}
	for _, c := range cases {
		if got := timer.FormatClock(c.d); got != c.want {
			t.Errorf("FormatClock(%s) = %q, want %q", c.d, got, c.want)
		}
	}
}
