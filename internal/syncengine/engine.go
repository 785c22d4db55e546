package syncengine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/talipakcelik/calisalim/internal/store"
)

// Status is the engine's externally visible state.
type Status int

const (
	StatusDisabled Status = iota
	StatusIdle
	StatusSyncing
	StatusSynced
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusIdle:
		return "idle"
	case StatusSyncing:
		return "syncing"
	case StatusSynced:
		return "synced"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome reports which direction a reconcile moved data.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomePushed
	OutcomeAdopted
)

// DefaultDebounce batches bursts of edits into one push.
const DefaultDebounce = 1800 * time.Millisecond

// ErrBusy is returned by Reconcile when a push is already in flight.
// The in-flight push reruns with the fresher state, so the caller's
// intent is not lost.
var ErrBusy = errors.New("sync already in flight")

// Engine reconciles the store with a Remote and debounces change
// notifications into pushes. A nil Remote yields a permanently
// disabled engine whose methods are all no-ops.
type Engine struct {
	store    *store.Store
	remote   Remote
	log      *slog.Logger
	debounce time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	syncing  bool
	pending  bool
	status   Status
	lastErr  error
	lastSync time.Time
	onChange func()
}

func New(st *store.Store, remote Remote, log *slog.Logger) *Engine {
	e := &Engine{
		store:    st,
		remote:   remote,
		log:      log,
		debounce: DefaultDebounce,
		status:   StatusIdle,
	}
	if remote == nil {
		e.status = StatusDisabled
	}
	return e
}

// SetOnStatusChange registers a callback fired after every status
// transition, outside the engine's lock.
func (e *Engine) SetOnStatusChange(fn func()) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

// State returns the current status with the last error and last
// successful sync time.
func (e *Engine) State() (Status, error, time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status, e.lastErr, e.lastSync
}

// Reconcile runs the startup handshake. The side holding the newer
// watermark wins: a newer remote replaces local state wholesale, an
// equal-or-older remote is overwritten with ours. An absent remote
// snapshot seeds the remote from local state. At most one sync is in
// flight at a time: a Reconcile overlapping a debounced push returns
// ErrBusy and leaves a rerun pending instead.
func (e *Engine) Reconcile(ctx context.Context) (Outcome, error) {
	if e.remote == nil {
		return OutcomeNone, nil
	}
	e.mu.Lock()
	if e.syncing {
		e.pending = true
		e.mu.Unlock()
		return OutcomeNone, ErrBusy
	}
	e.syncing = true
	e.mu.Unlock()

	out, err := e.reconcile(ctx)

	e.mu.Lock()
	e.syncing = false
	rerun := e.pending
	e.pending = false
	e.mu.Unlock()
	if rerun {
		go e.flush()
	}
	return out, err
}

func (e *Engine) reconcile(ctx context.Context) (Outcome, error) {
	e.setStatus(StatusSyncing, nil)

	local, localMark, err := e.store.Snapshot()
	if err != nil {
		e.setStatus(StatusError, err)
		return OutcomeNone, err
	}

	remoteSnap, remoteMark, err := e.remote.Fetch(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		e.log.Info("no remote snapshot, seeding", "watermark", localMark)
		if err := e.remote.Push(ctx, local, localMark); err != nil {
			e.setStatus(StatusError, err)
			return OutcomeNone, err
		}
		e.setStatus(StatusSynced, nil)
		return OutcomePushed, nil

	case err != nil:
		e.setStatus(StatusError, err)
		return OutcomeNone, err

	case remoteMark > localMark:
		e.log.Info("adopting remote snapshot", "remote", remoteMark, "local", localMark)
		if err := e.store.ImportSnapshot(*remoteSnap, remoteMark); err != nil {
			e.setStatus(StatusError, err)
			return OutcomeNone, err
		}
		e.setStatus(StatusSynced, nil)
		return OutcomeAdopted, nil

	default:
		e.log.Info("pushing local snapshot", "local", localMark, "remote", remoteMark)
		if err := e.remote.Push(ctx, local, localMark); err != nil {
			e.setStatus(StatusError, err)
			return OutcomeNone, err
		}
		e.setStatus(StatusSynced, nil)
		return OutcomePushed, nil
	}
}

// NotifyChange schedules a push after the debounce window. Bursts of
// calls collapse into one push carrying the final state.
func (e *Engine) NotifyChange() {
	if e.remote == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, e.flush)
}

// Flush pushes immediately, bypassing the debounce window.
func (e *Engine) Flush() {
	if e.remote == nil {
		return
	}
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()
	e.flush()
}

func (e *Engine) flush() {
	e.mu.Lock()
	if e.syncing {
		// A push is in flight; it will rerun with the fresher state.
		e.pending = true
		e.mu.Unlock()
		return
	}
	e.syncing = true
	e.mu.Unlock()
	e.setStatus(StatusSyncing, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	err := e.push(ctx)
	cancel()

	e.mu.Lock()
	e.syncing = false
	rerun := e.pending
	e.pending = false
	e.mu.Unlock()

	if err != nil {
		e.log.Warn("push failed", "error", err)
		e.setStatus(StatusError, err)
	} else {
		e.setStatus(StatusSynced, nil)
	}
	if rerun {
		e.flush()
	}
}

func (e *Engine) push(ctx context.Context) error {
	snap, mark, err := e.store.Snapshot()
	if err != nil {
		return err
	}
	return e.remote.Push(ctx, snap, mark)
}

// Close cancels any pending debounced push without running it.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Engine) setStatus(s Status, err error) {
	e.mu.Lock()
	e.status = s
	e.lastErr = err
	if s == StatusSynced {
		e.lastSync = time.Now()
	}
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}
