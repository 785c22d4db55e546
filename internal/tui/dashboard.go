package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/talipakcelik/calisalim/internal/analytics"
	"github.com/talipakcelik/calisalim/internal/remind"
	"github.com/talipakcelik/calisalim/internal/store"
	"github.com/talipakcelik/calisalim/internal/timer"
	"github.com/talipakcelik/calisalim/internal/timeutil"
)

type dashboardModel struct {
	store   *store.Store
	tracker *timer.Tracker
	width   int
	height  int

	categories []store.Category
	todayMs    int64
	weekMs     int64
	target     float64
	streak     int
	reminders  []remind.Reminder
	recent     []store.Session

	// Category picker state
	picking      bool
	pickerCursor int

	reminderCursor int
	lastReload     time.Time
}

func newDashboardModel(s *store.Store, tr *timer.Tracker) dashboardModel {
	return dashboardModel{store: s, tracker: tr}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) isRunning() bool { return d.tracker.Running() }
func (d dashboardModel) isPaused() bool  { return d.tracker.Paused() }
func (d dashboardModel) elapsedMs() int64 {
	return d.tracker.ActiveMs()
}

type dashboardDataMsg struct {
	categories []store.Category
	todayMs    int64
	weekMs     int64
	target     float64
	streak     int
	reminders  []remind.Reminder
	recent     []store.Session
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		now := time.Now()
		sessions, _ := d.store.ListSessions(store.SessionFilter{})
		logs, _ := d.store.ListDailyLogs()
		categories, _ := d.store.ListCategories()
		milestones, _ := d.store.ListMilestones()
		dismissed, _ := d.store.DismissedReminderIDs()
		target, _ := d.store.DailyTarget()

		today := timeutil.StartOfDay(now)
		week := timeutil.StartOfWeek(now)

		recent := sessions
		if len(recent) > 5 {
			recent = recent[:5]
		}

		return dashboardDataMsg{
			categories: categories,
			todayMs:    analytics.TotalActiveMs(sessions, today, today.AddDate(0, 0, 1)),
			weekMs:     analytics.TotalActiveMs(sessions, week, week.AddDate(0, 0, 7)),
			target:     target,
			streak:     analytics.Streak(logs, now),
			reminders: remind.Evaluate(remind.Input{
				Logs:       logs,
				Milestones: milestones,
				Sessions:   sessions,
				Categories: categories,
				Dismissed:  dismissed,
			}, now),
			recent: recent,
		}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.categories = msg.categories
		d.todayMs = msg.todayMs
		d.weekMs = msg.weekMs
		d.target = msg.target
		d.streak = msg.streak
		d.reminders = msg.reminders
		d.recent = msg.recent
		d.lastReload = time.Now()
		if d.reminderCursor >= len(d.reminders) {
			d.reminderCursor = max(0, len(d.reminders)-1)
		}
		return d, nil

	case tickMsg:
		// Reminder rules are hour-sensitive; re-evaluate periodically.
		if time.Since(d.lastReload) >= time.Hour {
			return d, d.loadData()
		}
		return d, nil

	case tea.KeyMsg:
		if d.picking {
			return d.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if d.tracker.Running() {
				return d, nil
			}
			if len(d.categories) == 0 {
				return d, func() tea.Msg {
					return statusMsg{text: "Kategori yok.", isError: true}
				}
			}
			d.picking = true
			d.pickerCursor = 0
			return d, nil

		case key.Matches(msg, keys.Stop):
			return d.stopTimer()

		case key.Matches(msg, keys.Discard):
			return d.discardTimer()

		case key.Matches(msg, keys.Pause):
			return d.togglePause()

		case key.Matches(msg, keys.Up):
			if d.reminderCursor > 0 {
				d.reminderCursor--
			}
			return d, nil

		case key.Matches(msg, keys.Down):
			if d.reminderCursor < len(d.reminders)-1 {
				d.reminderCursor++
			}
			return d, nil

		case key.Matches(msg, keys.Dismiss):
			return d.dismissReminder()
		}
	}
	return d, nil
}

func (d dashboardModel) updatePicker(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if d.pickerCursor > 0 {
			d.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.pickerCursor < len(d.categories)-1 {
			d.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		c := d.categories[d.pickerCursor]
		d.picking = false
		return d.startTimer(c.ID)
	case key.Matches(msg, keys.Back):
		d.picking = false
	}
	return d, nil
}

func (d dashboardModel) startTimer(categoryID string) (dashboardModel, tea.Cmd) {
	if err := d.tracker.Start(categoryID, "", timer.Refs{}); err != nil {
		return d, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Hata: %v", err), isError: true}
		}
	}
	return d, func() tea.Msg { return timerStartedMsg{} }
}

func (d dashboardModel) togglePause() (dashboardModel, tea.Cmd) {
	if !d.tracker.Running() {
		return d, nil
	}
	var err error
	if d.tracker.Paused() {
		err = d.tracker.Resume()
	} else {
		err = d.tracker.Pause()
	}
	if err != nil {
		return d, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Hata: %v", err), isError: true}
		}
	}
	return d, nil
}

func (d dashboardModel) stopTimer() (dashboardModel, tea.Cmd) {
	if !d.tracker.Running() {
		return d, nil
	}
	sess, err := d.tracker.Stop()
	if err != nil {
		return d, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Hata: %v", err), isError: true}
		}
	}
	saved, err := d.store.CreateSession(sess)
	if err != nil {
		return d, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Oturum kaydedilemedi: %v", err), isError: true}
		}
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return timerStoppedMsg{session: saved} },
		func() tea.Msg { return dataChangedMsg{} },
	)
}

func (d dashboardModel) discardTimer() (dashboardModel, tea.Cmd) {
	if !d.tracker.Running() {
		return d, nil
	}
	if err := d.tracker.Discard(); err != nil {
		return d, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Hata: %v", err), isError: true}
		}
	}
	return d, func() tea.Msg {
		return statusMsg{text: "Sayaç iptal edildi."}
	}
}

func (d dashboardModel) dismissReminder() (dashboardModel, tea.Cmd) {
	if len(d.reminders) == 0 {
		return d, nil
	}
	r := d.reminders[d.reminderCursor]
	if err := d.store.DismissReminder(r.ID); err != nil {
		return d, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Hata: %v", err), isError: true}
		}
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return reminderDismissedMsg{id: r.ID} },
	)
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal çok küçük"
	}

	contentWidth := d.width - 4

	timerPanel := d.renderTimerPanel(contentWidth)
	progressPanel := d.renderProgressPanel(contentWidth)

	var bottomPanel string
	if d.picking {
		bottomPanel = d.renderCategoryPicker(contentWidth)
	} else {
		bottomPanel = d.renderRemindersPanel(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left, timerPanel, progressPanel, bottomPanel)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.tracker.Running() {
		timeStr := formatMs(d.tracker.ActiveMs())

		var timeDisplay, indicator string
		if d.tracker.Paused() {
			timeDisplay = timerPausedStyle.Width(w - 6).Render(timeStr)
			indicator = warningStyle.Render("⏸  DURAKLATILDI")
		} else {
			timeDisplay = timerRunningStyle.Width(w - 6).Render(timeStr)
			indicator = successStyle.Render("●  ÇALIŞIYOR")
		}

		catLine := highlightStyle.Render(d.categoryName(d.tracker.Current().CategoryID))

		content := lipgloss.JoinVertical(lipgloss.Center,
			timeDisplay,
			indicator,
			catLine,
		)
		return activePanelStyle.Width(w).Render(content)
	}

	timeDisplay := timerStyle.Width(w - 6).Render("00:00:00")
	indicator := mutedStyle.Render("■  DURDU")
	hint := mutedStyle.Render("Başlamak için s")

	content := lipgloss.JoinVertical(lipgloss.Center,
		timeDisplay,
		indicator,
		hint,
	)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderProgressPanel(w int) string {
	todayHours := float64(d.todayMs) / 3_600_000

	todayLine := fmt.Sprintf("%s  %s",
		titleStyle.Render("Bugün"),
		highlightStyle.Render(formatHoursMs(d.todayMs)))
	if d.target > 0 {
		pct := min(100, int(todayHours/d.target*100))
		bar := renderBar(pct, 20)
		todayLine += fmt.Sprintf("  %s %d%%  (hedef %.1f sa)", bar, pct, d.target)
	}

	weekLine := fmt.Sprintf("%s %s",
		titleStyle.Render("Bu hafta"),
		highlightStyle.Render(formatHoursMs(d.weekMs)))

	streakLine := fmt.Sprintf("%s  %s",
		titleStyle.Render("Seri"),
		successStyle.Render(fmt.Sprintf("%d gün", d.streak)))

	rows := []string{todayLine, weekLine, streakLine}

	if len(d.recent) > 0 {
		rows = append(rows, "", titleStyle.Render("Son oturumlar"))
		for _, s := range d.recent {
			startStr := time.UnixMilli(s.Start).Local().Format("02 Jan 15:04")
			rows = append(rows, fmt.Sprintf("  %s  %-14s %s",
				startStr, d.categoryName(s.CategoryID), formatMs(s.ActiveMs())))
		}
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRemindersPanel(w int) string {
	title := titleStyle.Render("Hatırlatmalar")
	if len(d.reminders) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("Hatırlatma yok"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for i, r := range d.reminders {
		cursor := "  "
		style := normalItemStyle
		if i == d.reminderCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		icon := reminderIcon(r.Kind)
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, icon, r.Message)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  d: kapat"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderCategoryPicker(w int) string {
	title := titleStyle.Render("Kategori Seç")

	var rows []string
	rows = append(rows, title)
	for i, c := range d.categories {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == d.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, colorDot, c.Name)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: seç  esc: iptal"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) categoryName(id string) string {
	for _, c := range d.categories {
		if c.ID == id {
			return c.Name
		}
	}
	return id
}

func reminderIcon(k remind.Kind) string {
	switch k {
	case remind.KindStreak:
		return warningStyle.Render("🔥")
	case remind.KindDeadline:
		return errorStyle.Render("⏰")
	default:
		return mutedStyle.Render("💤")
	}
}

func renderBar(pct, width int) string {
	filled := pct * width / 100
	if filled > width {
		filled = width
	}
	return successStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
}
