// Package timer owns the single in-progress tracking interval. A Timer
// is created by Start, transitions through pause/resume, and is
// destroyed by Stop, which hands the completed interval to the record
// store as a Session. The live active duration is always computed from
// wall-clock now, never stored, so the displayed value can not drift.
package timer

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/talipakcelik/calisalim/internal/store"
	"github.com/talipakcelik/calisalim/internal/timeutil"
)

// ErrInvalidState marks a timer operation invoked in a state that
// forbids it (pausing an idle timer, starting twice, ...). The call is
// rejected synchronously and nothing is mutated.
var ErrInvalidState = errors.New("invalid timer state")

// Timer is the running (possibly paused) tracking interval.
type Timer struct {
	CategoryID      string `json:"categoryId"`
	TopicID         string `json:"topicId,omitempty"`
	SourceID        string `json:"sourceId,omitempty"`
	ProjectID       string `json:"projectId,omitempty"`
	ChapterID       string `json:"chapterId,omitempty"`
	Label           string `json:"label"`
	WallStart       int64  `json:"wallStart"`
	LastStart       int64  `json:"lastStart"`
	ElapsedActiveMs int64  `json:"elapsedActiveMs"`
	IsPaused        bool   `json:"isPaused"`
	PausedAt        int64  `json:"pausedAt,omitempty"`
}

// ActiveMs is the live active duration at nowMs: accumulated segments
// plus the current segment when not paused.
func (t Timer) ActiveMs(nowMs int64) int64 {
	if t.IsPaused {
		return t.ElapsedActiveMs
	}
	return t.ElapsedActiveMs + (nowMs - t.LastStart)
}

// Refs are the optional entity references attached to a session.
type Refs struct {
	TopicID   string
	SourceID  string
	ProjectID string
	ChapterID string
}

// StateStore persists the running timer across process restarts.
type StateStore interface {
	RunningTimerState() (string, error)
	SetRunningTimerState(raw string) error
}

// Tracker owns the at-most-one Timer instance.
type Tracker struct {
	state StateStore
	cur   *Timer

	nowMs func() int64
}

// NewTracker loads any persisted running timer; corrupt persisted state
// is dropped rather than surfaced, a stale timer is worth less than a
// working start button.
func NewTracker(state StateStore) *Tracker {
	tr := &Tracker{state: state, nowMs: func() int64 { return time.Now().UnixMilli() }}
	if state == nil {
		return tr
	}
	raw, err := state.RunningTimerState()
	if err != nil || raw == "" {
		return tr
	}
	var t Timer
	if err := json.Unmarshal([]byte(raw), &t); err != nil || t.WallStart == 0 || t.CategoryID == "" {
		state.SetRunningTimerState("")
		return tr
	}
	tr.cur = &t
	return tr
}

// Current returns a copy of the running timer, or nil when idle.
func (tr *Tracker) Current() *Timer {
	if tr.cur == nil {
		return nil
	}
	t := *tr.cur
	return &t
}

func (tr *Tracker) Running() bool { return tr.cur != nil }

func (tr *Tracker) Paused() bool { return tr.cur != nil && tr.cur.IsPaused }

// ActiveMs is the live active duration, 0 when idle.
func (tr *Tracker) ActiveMs() int64 {
	if tr.cur == nil {
		return 0
	}
	return tr.cur.ActiveMs(tr.nowMs())
}

// Start creates the running timer. Fails when one is already running.
func (tr *Tracker) Start(categoryID, label string, refs Refs) error {
	if tr.cur != nil {
		return fmt.Errorf("%w: timer already running", ErrInvalidState)
	}
	if categoryID == "" {
		return fmt.Errorf("%w: start needs a category", ErrInvalidState)
	}
	now := tr.nowMs()
	tr.cur = &Timer{
		CategoryID: categoryID,
		TopicID:    refs.TopicID,
		SourceID:   refs.SourceID,
		ProjectID:  refs.ProjectID,
		ChapterID:  refs.ChapterID,
		Label:      label,
		WallStart:  now,
		LastStart:  now,
	}
	tr.persist()
	return nil
}

// Pause freezes the active clock, banking the current segment.
func (tr *Tracker) Pause() error {
	if tr.cur == nil {
		return fmt.Errorf("%w: no timer to pause", ErrInvalidState)
	}
	if tr.cur.IsPaused {
		return fmt.Errorf("%w: timer already paused", ErrInvalidState)
	}
	now := tr.nowMs()
	tr.cur.ElapsedActiveMs += now - tr.cur.LastStart
	tr.cur.IsPaused = true
	tr.cur.PausedAt = now
	tr.persist()
	return nil
}

// Resume opens a new active segment.
func (tr *Tracker) Resume() error {
	if tr.cur == nil || !tr.cur.IsPaused {
		return fmt.Errorf("%w: no paused timer to resume", ErrInvalidState)
	}
	tr.cur.LastStart = tr.nowMs()
	tr.cur.IsPaused = false
	tr.cur.PausedAt = 0
	tr.persist()
	return nil
}

// Stop finalizes the running timer into a Session and returns to idle.
// The session's PausedMs is total wall time minus total active time, so
// active + paused always reconstructs the wall span exactly.
func (tr *Tracker) Stop() (store.Session, error) {
	if tr.cur == nil {
		return store.Session{}, fmt.Errorf("%w: no timer to stop", ErrInvalidState)
	}
	now := tr.nowMs()
	t := tr.cur

	activeMs := t.ActiveMs(now)
	wallMs := timeutil.WallMs(t.WallStart, now)
	pausedMs := wallMs - activeMs
	if pausedMs < 0 {
		pausedMs = 0
	}

	sess := store.Session{
		ID:         uuid.NewString(),
		CategoryID: t.CategoryID,
		TopicID:    t.TopicID,
		SourceID:   t.SourceID,
		ProjectID:  t.ProjectID,
		ChapterID:  t.ChapterID,
		Label:      t.Label,
		Start:      t.WallStart,
		End:        now,
		PausedMs:   pausedMs,
	}

	tr.cur = nil
	tr.persist()
	return sess, nil
}

// Discard drops the running timer without producing a session.
func (tr *Tracker) Discard() error {
	if tr.cur == nil {
		return fmt.Errorf("%w: no timer to discard", ErrInvalidState)
	}
	tr.cur = nil
	tr.persist()
	return nil
}

func (tr *Tracker) persist() {
	if tr.state == nil {
		return
	}
	if tr.cur == nil {
		tr.state.SetRunningTimerState("")
		return
	}
	data, err := json.Marshal(tr.cur)
	if err != nil {
		return
	}
	tr.state.SetRunningTimerState(string(data))
}
