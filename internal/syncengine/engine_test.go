package syncengine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/talipakcelik/calisalim/internal/store"
)

type fakeRemote struct {
	mu       sync.Mutex
	snap     *store.Snapshot
	mark     int64
	pushes   int
	fetchErr error
	pushErr  error
}

func (f *fakeRemote) Fetch(ctx context.Context) (*store.Snapshot, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, 0, f.fetchErr
	}
	if f.snap == nil {
		return nil, 0, ErrNotFound
	}
	return f.snap, f.mark, nil
}

func (f *fakeRemote) Push(ctx context.Context, snap *store.Snapshot, updatedAt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.snap = snap
	f.mark = updatedAt
	f.pushes++
	return nil
}

func (f *fakeRemote) state() (int64, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mark, f.pushes
}

func newTestEngine(t *testing.T, remote Remote) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.NewMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(st, remote, log)
	t.Cleanup(e.Close)
	return e, st
}

func addSession(t *testing.T, st *store.Store, start int64) *store.Session {
	t.Helper()
	s, err := st.CreateSession(store.Session{
		CategoryID: "phd",
		Start:      start,
		End:        start + 3_600_000,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

// ==================== reconcile ====================

func TestReconcileSeedsEmptyRemote(t *testing.T) {
	remote := &fakeRemote{}
	e, st := newTestEngine(t, remote)
	addSession(t, st, 1_000_000)

	out, err := e.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if out != OutcomePushed {
		t.Fatalf("outcome = %v, want pushed", out)
	}

	localMark, err := st.LastModified()
	if err != nil {
		t.Fatal(err)
	}
	mark, _ := remote.state()
	if mark != localMark {
		t.Errorf("remote watermark = %d, want local %d", mark, localMark)
	}
	if len(remote.snap.Sessions) != 1 {
		t.Errorf("remote sessions = %d, want 1", len(remote.snap.Sessions))
	}
}

func TestReconcileAdoptsNewerRemote(t *testing.T) {
	remoteSession := store.Session{
		ID: "remote-1", CategoryID: "writing", Start: 5_000_000, End: 9_000_000,
	}
	e, st := newTestEngine(t, &fakeRemote{
		snap: &store.Snapshot{
			Sessions:    []store.Session{remoteSession},
			DailyTarget: 3,
		},
		mark: time.Now().UnixMilli() + 60_000,
	})
	addSession(t, st, 1_000_000)

	out, err := e.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if out != OutcomeAdopted {
		t.Fatalf("outcome = %v, want adopted", out)
	}

	sessions, err := st.ListSessions(store.SessionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].ID != "remote-1" {
		t.Errorf("local sessions = %+v, want only remote-1", sessions)
	}
	mark, _ := st.LastModified()
	if mark != e.remote.(*fakeRemote).mark {
		t.Errorf("local watermark = %d, want pinned to remote %d", mark, e.remote.(*fakeRemote).mark)
	}
}

func TestReconcilePushesWhenLocalNewer(t *testing.T) {
	remote := &fakeRemote{
		snap: &store.Snapshot{DailyTarget: 2},
		mark: 1, // far in the past
	}
	e, st := newTestEngine(t, remote)
	addSession(t, st, 1_000_000)

	out, err := e.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if out != OutcomePushed {
		t.Fatalf("outcome = %v, want pushed", out)
	}

	localMark, _ := st.LastModified()
	mark, _ := remote.state()
	if mark != localMark {
		t.Errorf("remote watermark = %d, want local %d not a fresh clock read", mark, localMark)
	}
}

func TestReconcileFetchErrorLeavesLocalUntouched(t *testing.T) {
	e, st := newTestEngine(t, &fakeRemote{fetchErr: errors.New("boom")})
	addSession(t, st, 1_000_000)
	before, _ := st.LastModified()

	if _, err := e.Reconcile(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	status, lastErr, _ := e.State()
	if status != StatusError || lastErr == nil {
		t.Errorf("status = %v err = %v, want error state", status, lastErr)
	}

	after, _ := st.LastModified()
	if after != before {
		t.Errorf("watermark moved from %d to %d on failed fetch", before, after)
	}
	sessions, _ := st.ListSessions(store.SessionFilter{})
	if len(sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(sessions))
	}
}

func TestDisabledEngineIsNoop(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	out, err := e.Reconcile(context.Background())
	if err != nil || out != OutcomeNone {
		t.Errorf("Reconcile = %v, %v, want none, nil", out, err)
	}
	e.NotifyChange()
	e.Flush()
	status, _, _ := e.State()
	if status != StatusDisabled {
		t.Errorf("status = %v, want disabled", status)
	}
}

// ==================== debounced push ====================

func TestNotifyChangeCoalesces(t *testing.T) {
	remote := &fakeRemote{}
	e, st := newTestEngine(t, remote)
	e.debounce = 30 * time.Millisecond
	addSession(t, st, 1_000_000)

	e.NotifyChange()
	e.NotifyChange()
	e.NotifyChange()
	time.Sleep(150 * time.Millisecond)

	_, pushes := remote.state()
	if pushes != 1 {
		t.Errorf("pushes = %d, want 1 coalesced push", pushes)
	}
}

func TestNotifyChangeResetsWindow(t *testing.T) {
	remote := &fakeRemote{}
	e, st := newTestEngine(t, remote)
	e.debounce = 60 * time.Millisecond
	addSession(t, st, 1_000_000)

	e.NotifyChange()
	time.Sleep(30 * time.Millisecond)
	if _, pushes := remote.state(); pushes != 0 {
		t.Fatal("pushed before the window elapsed")
	}
	e.NotifyChange()
	time.Sleep(30 * time.Millisecond)
	if _, pushes := remote.state(); pushes != 0 {
		t.Error("push fired despite the window being reset")
	}
	time.Sleep(100 * time.Millisecond)
	if _, pushes := remote.state(); pushes != 1 {
		t.Error("push never fired after the reset window elapsed")
	}
}

func TestFlushPushesImmediately(t *testing.T) {
	remote := &fakeRemote{}
	e, st := newTestEngine(t, remote)
	addSession(t, st, 1_000_000)

	e.Flush()

	mark, pushes := remote.state()
	if pushes != 1 {
		t.Fatalf("pushes = %d, want 1", pushes)
	}
	localMark, _ := st.LastModified()
	if mark != localMark {
		t.Errorf("remote watermark = %d, want %d", mark, localMark)
	}
	status, _, _ := e.State()
	if status != StatusSynced {
		t.Errorf("status = %v, want synced", status)
	}
}

// slowRemote holds every Push open until released, tracking the peak
// number of concurrent pushes.
type slowRemote struct {
	fakeRemote
	entered chan struct{}
	release chan struct{}

	inFlight atomic.Int32
	peak     atomic.Int32
}

func (r *slowRemote) Push(ctx context.Context, snap *store.Snapshot, updatedAt int64) error {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case r.entered <- struct{}{}:
	default:
	}
	<-r.release
	return r.fakeRemote.Push(ctx, snap, updatedAt)
}

func TestReconcileRefusedWhileQuickSyncInFlight(t *testing.T) {
	remote := &slowRemote{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	e, st := newTestEngine(t, remote)
	addSession(t, st, 1_000_000)

	done := make(chan struct{})
	go func() {
		e.Flush()
		close(done)
	}()
	<-remote.entered

	out, err := e.Reconcile(context.Background())
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("Reconcile during push: err = %v, want ErrBusy", err)
	}
	if out != OutcomeNone {
		t.Fatalf("outcome = %v, want none", out)
	}

	close(remote.release)
	<-done

	// The refused reconcile left a rerun pending, so the blocked push
	// is followed by exactly one more carrying the fresher state.
	_, pushes := remote.state()
	if pushes != 2 {
		t.Errorf("pushes = %d, want 2", pushes)
	}
	if p := remote.peak.Load(); p != 1 {
		t.Errorf("concurrent pushes peaked at %d, want 1", p)
	}
}

func TestFlushErrorSetsStatus(t *testing.T) {
	e, _ := newTestEngine(t, &fakeRemote{pushErr: errors.New("unreachable")})

	e.Flush()

	status, lastErr, _ := e.State()
	if status != StatusError || lastErr == nil {
		t.Errorf("status = %v err = %v, want error", status, lastErr)
	}
}

// ==================== http adapter ====================

func TestHTTPRemoteRoundTrip(t *testing.T) {
	var stored []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/v1/snapshots/talip" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			if stored == nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write(stored)
		case http.MethodPut:
			stored, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL, "secret", "talip")
	ctx := context.Background()

	if _, _, err := remote.Fetch(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty fetch err = %v, want ErrNotFound", err)
	}

	snap := &store.Snapshot{
		Sessions:    []store.Session{{ID: "s1", CategoryID: "phd", Start: 1, End: 2}},
		DailyTarget: 2,
	}
	if err := remote.Push(ctx, snap, 42); err != nil {
		t.Fatalf("Push: %v", err)
	}

	got, mark, err := remote.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if mark != 42 {
		t.Errorf("watermark = %d, want 42", mark)
	}
	if len(got.Sessions) != 1 || got.Sessions[0].ID != "s1" {
		t.Errorf("sessions = %+v, want s1", got.Sessions)
	}

	var p payload
	if err := json.Unmarshal(stored, &p); err != nil {
		t.Fatalf("wire document: %v", err)
	}
	if p.UpdatedAt != 42 {
		t.Errorf("wire updatedAt = %d, want 42", p.UpdatedAt)
	}
}

func TestHTTPRemoteBadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL, "wrong", "talip")
	if _, _, err := remote.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for unauthorized fetch")
	}
	if err := remote.Push(context.Background(), &store.Snapshot{}, 1); err == nil {
		t.Fatal("expected error for unauthorized push")
	}
}
