package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/talipakcelik/calisalim/internal/export"
	"github.com/talipakcelik/calisalim/internal/store"
	"github.com/talipakcelik/calisalim/internal/syncengine"
	"github.com/talipakcelik/calisalim/internal/timer"
)

// App is the root Bubble Tea model.
type App struct {
	store   *store.Store
	tracker *timer.Tracker
	engine  *syncengine.Engine
	width   int
	height  int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard dashboardModel
	writing   writingModel
	reports   reportsModel
	sessions  sessionsModel
	settings  settingsModel

	help   help.Model
	status string
}

func NewApp(s *store.Store, tr *timer.Tracker, eng *syncengine.Engine) App {
	h := help.New()
	h.ShowAll = false

	return App{
		store:      s,
		tracker:    tr,
		engine:     eng,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(s, tr),
		writing:    newWritingModel(s),
		reports:    newReportsModel(s),
		sessions:   newSessionsModel(s),
		settings:   newSettingsModel(s, eng),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.writing.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.sessions.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Sync):
			return a, a.doSync()
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			return a, a.dashboard.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewWriting
			return a, a.writing.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSessions
			return a, a.sessions.refresh()
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 5
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case dataChangedMsg:
		a.engine.NotifyChange()
		return a, nil

	case statusMsg:
		a.status = msg.text
		return a, nil

	case timerStoppedMsg:
		a.status = "Oturum kaydedildi"
		return a, nil

	case timerStartedMsg:
		a.status = "Sayaç başladı"
		return a, nil

	case reminderDismissedMsg:
		a.status = "Hatırlatma kapatıldı"
		return a, nil

	case SyncStateChangedMsg:
		return a, nil

	case exportDoneMsg:
		a.status = "Dışa aktarıldı: " + msg.path
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewWriting:
		a.writing, cmd = a.writing.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSessions:
		a.sessions, cmd = a.sessions.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewWriting:
		return a.writing.formActive
	case viewSessions:
		return a.sessions.formActive
	case viewSettings:
		return a.settings.activeForm != formNone
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewWriting:
		return a.writing.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSessions:
		return a.sessions.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) doSync() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		out, err := a.engine.Reconcile(ctx)
		if errors.Is(err, syncengine.ErrBusy) {
			return statusMsg{text: "Eşitleme zaten sürüyor"}
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Eşitleme hatası: %v", err), isError: true}
		}
		switch out {
		case syncengine.OutcomeAdopted:
			return statusMsg{text: "Uzak durum alındı"}
		case syncengine.OutcomePushed:
			return statusMsg{text: "Eşitlendi"}
		default:
			return statusMsg{text: "Eşitleme kapalı"}
		}
	}
}

func (a App) View() string {
	if a.width == 0 {
		return "Yükleniyor..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewWriting:
		content = a.writing.view()
	case viewReports:
		content = a.reports.view()
	case viewSessions:
		content = a.sessions.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("çalışalım")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	// Timer indicator in footer
	timerInfo := ""
	if a.tracker.Running() {
		elapsed := formatMs(a.tracker.ActiveMs())
		if a.tracker.Paused() {
			timerInfo = warningStyle.Render(" ⏸ " + elapsed)
		} else {
			timerInfo = successStyle.Render(" ● " + elapsed)
		}
	}

	// Sync indicator
	syncInfo := ""
	if st, _, _ := a.engine.State(); st != syncengine.StatusDisabled {
		switch st {
		case syncengine.StatusSyncing:
			syncInfo = warningStyle.Render(" ↻")
		case syncengine.StatusSynced:
			syncInfo = successStyle.Render(" ✓")
		case syncengine.StatusError:
			syncInfo = errorStyle.Render(" ✗")
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + syncInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Dışa Aktarma Biçimi")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: aktar  esc: iptal"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		sessions, err := a.store.ListSessions(store.SessionFilter{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Dışa aktarma hatası: %v", err), isError: true}
		}

		categories := make(map[string]*store.Category)
		clist, _ := a.store.ListCategories()
		for i := range clist {
			categories[clist[i].ID] = &clist[i]
		}

		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("calisalim-%s.csv", dateStr))
			if err := export.ToCSV(sessions, categories, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV hatası: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("calisalim-%s.json", dateStr))
			if err := export.ToJSON(sessions, categories, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON hatası: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
