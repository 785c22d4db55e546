package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/talipakcelik/calisalim/internal/analytics"
	"github.com/talipakcelik/calisalim/internal/store"
	"github.com/talipakcelik/calisalim/internal/timeutil"
)

type writingSection int

const (
	sectionLogs writingSection = iota
	sectionMilestones
)

type writingModel struct {
	store  *store.Store
	width  int
	height int

	logs       []store.DailyLog
	milestones []store.Milestone
	projects   []store.Project
	summary    analytics.WeekSummary

	section         writingSection
	logCursor       int
	milestoneCursor int

	formActive bool
	form       *huh.Form
	formType   string // "log", "milestone"

	// Form field pointers (survive value copies)
	fDate    *string
	fWords   *string
	fProject *string
	fNote    *string
	mTitle   *string
	mDate    *string
}

func newWritingModel(s *store.Store) writingModel {
	fd, fw, fp, fn := "", "", "", ""
	mt, md := "", ""
	return writingModel{
		store:    s,
		fDate:    &fd,
		fWords:   &fw,
		fProject: &fp,
		fNote:    &fn,
		mTitle:   &mt,
		mDate:    &md,
	}
}

func (w *writingModel) setSize(width, height int) {
	w.width = width
	w.height = height
}

type writingDataMsg struct {
	logs       []store.DailyLog
	milestones []store.Milestone
	projects   []store.Project
	summary    analytics.WeekSummary
}

func (w writingModel) refresh() tea.Cmd {
	return func() tea.Msg {
		logs, _ := w.store.ListDailyLogs()
		milestones, _ := w.store.ListMilestones()
		projects, _ := w.store.ListProjects()
		sessions, _ := w.store.ListSessions(store.SessionFilter{})

		// Newest first for the list.
		for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
			logs[i], logs[j] = logs[j], logs[i]
		}

		return writingDataMsg{
			logs:       logs,
			milestones: milestones,
			projects:   projects,
			summary:    analytics.WeeklySummary(sessions, logs, time.Now()),
		}
	}
}

func (w writingModel) update(msg tea.Msg) (writingModel, tea.Cmd) {
	if w.formActive && w.form != nil {
		return w.updateForm(msg)
	}

	switch msg := msg.(type) {
	case writingDataMsg:
		w.logs = msg.logs
		w.milestones = msg.milestones
		w.projects = msg.projects
		w.summary = msg.summary
		if w.logCursor >= len(w.logs) {
			w.logCursor = max(0, len(w.logs)-1)
		}
		if w.milestoneCursor >= len(w.milestones) {
			w.milestoneCursor = max(0, len(w.milestones)-1)
		}
		return w, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
			if w.section == sectionLogs {
				w.section = sectionMilestones
			} else {
				w.section = sectionLogs
			}
			return w, nil

		case key.Matches(msg, keys.Up):
			w.moveCursor(-1)
			return w, nil

		case key.Matches(msg, keys.Down):
			w.moveCursor(1)
			return w, nil

		case key.Matches(msg, keys.New):
			if w.section == sectionLogs {
				return w.showLogForm(nil)
			}
			return w.showMilestoneForm()

		case key.Matches(msg, keys.Edit):
			if w.section == sectionLogs && w.logCursor < len(w.logs) {
				l := w.logs[w.logCursor]
				return w.showLogForm(&l)
			}
			return w, nil

		case key.Matches(msg, keys.Toggle):
			return w.toggleMilestone()

		case key.Matches(msg, keys.Delete):
			return w.deleteSelected()
		}
	}
	return w, nil
}

func (w *writingModel) moveCursor(delta int) {
	if w.section == sectionLogs {
		w.logCursor = max(0, min(len(w.logs)-1, w.logCursor+delta))
	} else {
		w.milestoneCursor = max(0, min(len(w.milestones)-1, w.milestoneCursor+delta))
	}
}

func (w writingModel) showLogForm(existing *store.DailyLog) (writingModel, tea.Cmd) {
	if existing != nil {
		*w.fDate = existing.Date
		*w.fWords = strconv.FormatInt(existing.WordCount, 10)
		*w.fNote = existing.Note
	} else {
		*w.fDate = timeutil.DayKey(time.Now())
		*w.fWords = ""
		*w.fNote = ""
	}
	*w.fProject = ""

	projectOpts := []huh.Option[string]{huh.NewOption("(genel)", "")}
	for _, p := range w.projects {
		projectOpts = append(projectOpts, huh.NewOption(p.Title, p.ID))
	}

	w.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Tarih (YYYY-AA-GG)").Value(w.fDate).
				Validate(validateDate),
			huh.NewInput().Title("Kelime sayısı").Value(w.fWords).
				Validate(validateWords),
			huh.NewSelect[string]().Title("Proje").Options(projectOpts...).Value(w.fProject),
			huh.NewInput().Title("Not").Value(w.fNote),
		).Title("Günlük Kayıt"),
	).WithShowHelp(true).WithShowErrors(true)

	w.formType = "log"
	w.formActive = true
	return w, w.form.Init()
}

func (w writingModel) showMilestoneForm() (writingModel, tea.Cmd) {
	*w.mTitle = ""
	*w.mDate = timeutil.DayKey(time.Now())

	w.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Başlık").Value(w.mTitle).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("başlık boş olamaz")
					}
					return nil
				}),
			huh.NewInput().Title("Tarih (YYYY-AA-GG)").Value(w.mDate).
				Validate(validateDate),
		).Title("Kilometre Taşı"),
	).WithShowHelp(true).WithShowErrors(true)

	w.formType = "milestone"
	w.formActive = true
	return w, w.form.Init()
}

func (w writingModel) updateForm(msg tea.Msg) (writingModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			w.formActive = false
			w.form = nil
			return w, nil
		}
	}

	form, cmd := w.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.form = f
	}

	if w.form.State == huh.StateCompleted {
		w.formActive = false
		return w.submitForm()
	}

	return w, cmd
}

func (w writingModel) submitForm() (writingModel, tea.Cmd) {
	if w.formType == "milestone" {
		d, _ := time.ParseInLocation("2006-01-02", *w.mDate, time.Local)
		if _, err := w.store.AddMilestone(strings.TrimSpace(*w.mTitle), d.UnixMilli()); err != nil {
			return w, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Hata: %v", err), isError: true}
			}
		}
	} else {
		words, _ := strconv.ParseInt(strings.TrimSpace(*w.fWords), 10, 64)
		if _, err := w.store.UpsertDailyLog(*w.fDate, words, *w.fProject, *w.fNote); err != nil {
			return w, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Hata: %v", err), isError: true}
			}
		}
	}
	return w, tea.Batch(
		w.refresh(),
		func() tea.Msg { return dataChangedMsg{} },
	)
}

func (w writingModel) toggleMilestone() (writingModel, tea.Cmd) {
	if w.section != sectionMilestones || w.milestoneCursor >= len(w.milestones) {
		return w, nil
	}
	m := w.milestones[w.milestoneCursor]
	if err := w.store.ToggleMilestone(m.ID); err != nil {
		return w, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Hata: %v", err), isError: true}
		}
	}
	return w, tea.Batch(
		w.refresh(),
		func() tea.Msg { return dataChangedMsg{} },
	)
}

func (w writingModel) deleteSelected() (writingModel, tea.Cmd) {
	var err error
	switch {
	case w.section == sectionLogs && w.logCursor < len(w.logs):
		err = w.store.DeleteDailyLog(w.logs[w.logCursor].Date)
	case w.section == sectionMilestones && w.milestoneCursor < len(w.milestones):
		err = w.store.DeleteMilestone(w.milestones[w.milestoneCursor].ID)
	default:
		return w, nil
	}
	if err != nil {
		return w, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Hata: %v", err), isError: true}
		}
	}
	return w, tea.Batch(
		w.refresh(),
		func() tea.Msg { return dataChangedMsg{} },
	)
}

func (w writingModel) view() string {
	cw := w.width - 4

	if w.formActive && w.form != nil {
		title := titleStyle.Render("Yazım")
		return panelStyle.Width(cw).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", w.form.View()),
		)
	}

	summaryLine := fmt.Sprintf("Son 7 gün: %s kelime, %s, ort. %d k/sa, %d aktif gün",
		highlightStyle.Render(strconv.FormatInt(w.summary.Words, 10)),
		formatHoursMs(int64(w.summary.Hours*3_600_000)),
		w.summary.AvgWPH,
		w.summary.ActiveDays,
	)

	logsPanel := w.renderLogs(cw)
	milestonesPanel := w.renderMilestones(cw)

	return lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Width(cw).Render(summaryLine),
		logsPanel,
		milestonesPanel,
	)
}

func (w writingModel) renderLogs(cw int) string {
	title := titleStyle.Render("Günlük Kayıtlar")
	if w.section == sectionLogs {
		title += mutedStyle.Render("  ←/→ bölüm  n: yeni  e: düzenle  d: sil")
	}

	var rows []string
	rows = append(rows, title)
	if len(w.logs) == 0 {
		rows = append(rows, mutedStyle.Render("Kayıt yok"))
	}
	for i, l := range w.logs {
		if i >= 7 {
			rows = append(rows, mutedStyle.Render(fmt.Sprintf("  … %d kayıt daha", len(w.logs)-i)))
			break
		}
		cursor := "  "
		style := normalItemStyle
		if w.section == sectionLogs && i == w.logCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		line := fmt.Sprintf("%s%s  %5d kelime", cursor, l.Date, l.WordCount)
		if l.Note != "" {
			line += mutedStyle.Render("  " + l.Note)
		}
		rows = append(rows, style.Render(line))
	}

	panel := panelStyle
	if w.section == sectionLogs {
		panel = activePanelStyle
	}
	return panel.Width(cw).Render(strings.Join(rows, "\n"))
}

func (w writingModel) renderMilestones(cw int) string {
	title := titleStyle.Render("Kilometre Taşları")
	if w.section == sectionMilestones {
		title += mutedStyle.Render("  n: yeni  t: tamamlandı  d: sil")
	}

	var rows []string
	rows = append(rows, title)
	if len(w.milestones) == 0 {
		rows = append(rows, mutedStyle.Render("Kilometre taşı yok"))
	}
	for i, m := range w.milestones {
		cursor := "  "
		style := normalItemStyle
		if w.section == sectionMilestones && i == w.milestoneCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		mark := "☐"
		if m.Done {
			mark = successStyle.Render("☑")
		}
		dateStr := time.UnixMilli(m.Date).Local().Format("02 Jan 2006")
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s  %s", cursor, mark, dateStr, m.Title)))
	}

	panel := panelStyle
	if w.section == sectionMilestones {
		panel = activePanelStyle
	}
	return panel.Width(cw).Render(strings.Join(rows, "\n"))
}

func validateDate(v string) error {
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(v)); err != nil {
		return fmt.Errorf("geçersiz tarih")
	}
	return nil
}

func validateWords(v string) error {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return fmt.Errorf("geçersiz sayı")
	}
	return nil
}
