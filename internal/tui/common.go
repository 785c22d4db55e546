package tui

import (
	"fmt"
	"time"

	"github.com/talipakcelik/calisalim/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewWriting
	viewReports
	viewSessions
	viewSettings
)

var viewNames = []string{"Panel", "Yazım", "Raporlar", "Oturumlar", "Ayarlar"}

// --- Messages ---

type timerStartedMsg struct{}

type timerStoppedMsg struct {
	session *store.Session
}

// dataChangedMsg is emitted after any store mutation so the app can
// schedule a sync push.
type dataChangedMsg struct{}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// SyncStateChangedMsg is sent from outside the program when the sync
// engine's status changes, forcing a repaint.
type SyncStateChangedMsg struct{}

type reminderDismissedMsg struct {
	id string
}

// --- Helpers ---

func formatMs(ms int64) string {
	h := ms / 3_600_000
	m := (ms % 3_600_000) / 60_000
	s := (ms % 60_000) / 1000
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatHoursMs(ms int64) string {
	return fmt.Sprintf("%.1f sa", float64(ms)/3_600_000)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
