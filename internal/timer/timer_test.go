package timer

import (
	"errors"
	"testing"
)

// fakeClock drives a tracker deterministically.
type fakeClock struct{ ms int64 }

func (c *fakeClock) advance(ms int64) { c.ms += ms }

// memState is an in-memory StateStore.
type memState struct{ raw string }

func (m *memState) RunningTimerState() (string, error)  { return m.raw, nil }
func (m *memState) SetRunningTimerState(s string) error { m.raw = s; return nil }

func newTestTracker(t *testing.T) (*Tracker, *fakeClock, *memState) {
	t.Helper()
	clock := &fakeClock{ms: 1_000_000}
	state := &memState{}
	tr := NewTracker(state)
	tr.nowMs = func() int64 { return clock.ms }
	return tr, clock, state
}

func TestStartWhileRunning(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	if err := tr.Start("phd", "writing", Refs{}); err != nil {
		t.Fatal(err)
	}
	err := tr.Start("phd", "again", Refs{})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestInvalidTransitions(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	if err := tr.Pause(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("pause on idle: %v", err)
	}
	if err := tr.Resume(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("resume on idle: %v", err)
	}
	if _, err := tr.Stop(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("stop on idle: %v", err)
	}

	tr.Start("phd", "", Refs{})
	if err := tr.Resume(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("resume while running: %v", err)
	}
	tr.Pause()
	if err := tr.Pause(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double pause: %v", err)
	}
}

func TestDiscardDropsTimer(t *testing.T) {
	tr, _, state := newTestTracker(t)

	if err := tr.Discard(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("discard on idle: %v", err)
	}

	tr.Start("phd", "writing", Refs{})
	if err := tr.Discard(); err != nil {
		t.Fatal(err)
	}
	if tr.Running() {
		t.Fatal("tracker still running after discard")
	}
	if state.raw != "" {
		t.Fatalf("persisted state not cleared: %q", state.raw)
	}
}

func TestPauseResumeAccounting(t *testing.T) {
	tr, clock, _ := newTestTracker(t)

	tr.Start("phd", "ch3", Refs{})
	clock.advance(10 * 60_000) // 10m active
	if got := tr.ActiveMs(); got != 10*60_000 {
		t.Fatalf("active before pause = %d", got)
	}

	tr.Pause()
	clock.advance(5 * 60_000) // 5m paused, clock keeps going
	if got := tr.ActiveMs(); got != 10*60_000 {
		t.Fatalf("active while paused = %d, want frozen 10m", got)
	}

	// A pause/resume pair with no wall time in between changes nothing.
	tr.Resume()
	if got := tr.ActiveMs(); got != 10*60_000 {
		t.Fatalf("active at resume instant = %d, want 10m", got)
	}

	clock.advance(20 * 60_000) // 20m more active
	if got := tr.ActiveMs(); got != 30*60_000 {
		t.Fatalf("active after resume = %d, want 30m", got)
	}
}

func TestStopProducesConsistentSession(t *testing.T) {
	tr, clock, _ := newTestTracker(t)
	start := clock.ms

	tr.Start("phd", "ch3", Refs{ProjectID: "default-thesis"})
	clock.advance(40 * 60_000)
	tr.Pause()
	clock.advance(15 * 60_000)
	tr.Resume()
	clock.advance(20 * 60_000)

	liveActive := tr.ActiveMs()
	sess, err := tr.Stop()
	if err != nil {
		t.Fatal(err)
	}

	if sess.Start != start || sess.End != clock.ms {
		t.Fatalf("session span [%d,%d], want [%d,%d]", sess.Start, sess.End, start, clock.ms)
	}
	if sess.ActiveMs() != liveActive {
		t.Fatalf("session active %d != live active %d at stop", sess.ActiveMs(), liveActive)
	}
	if sess.PausedMs != 15*60_000 {
		t.Fatalf("pausedMs = %d, want 15m", sess.PausedMs)
	}
	if sess.WallMs() != sess.ActiveMs()+sess.PausedMs {
		t.Fatal("wall != active + paused")
	}
	if sess.ID == "" || sess.ProjectID != "default-thesis" {
		t.Fatalf("session metadata missing: %+v", sess)
	}

	if tr.Running() {
		t.Fatal("tracker not idle after stop")
	}
}

func TestStopWhilePaused(t *testing.T) {
	tr, clock, _ := newTestTracker(t)

	tr.Start("phd", "", Refs{})
	clock.advance(30 * 60_000)
	tr.Pause()
	clock.advance(10 * 60_000)

	sess, err := tr.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if sess.ActiveMs() != 30*60_000 {
		t.Fatalf("active = %d, want 30m", sess.ActiveMs())
	}
	if sess.PausedMs != 10*60_000 {
		t.Fatalf("paused = %d, want 10m", sess.PausedMs)
	}
}

func TestResumeAcrossRestart(t *testing.T) {
	tr, clock, state := newTestTracker(t)

	tr.Start("phd", "ch3", Refs{})
	clock.advance(10 * 60_000)
	tr.Pause()

	// Simulate a process restart from the same persisted state.
	tr2 := NewTracker(state)
	tr2.nowMs = func() int64 { return clock.ms }

	if !tr2.Running() || !tr2.Paused() {
		t.Fatal("restarted tracker lost the paused timer")
	}
	if got := tr2.ActiveMs(); got != 10*60_000 {
		t.Fatalf("restored active = %d, want 10m", got)
	}
}

func TestCorruptPersistedStateDropped(t *testing.T) {
	state := &memState{raw: "{not json"}
	tr := NewTracker(state)

	if tr.Running() {
		t.Fatal("corrupt state must not resurrect a timer")
	}
	if state.raw != "" {
		t.Fatalf("corrupt state not cleared: %q", state.raw)
	}
}
