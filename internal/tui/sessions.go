package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/talipakcelik/calisalim/internal/store"
)

const sessionTimeLayout = "2006-01-02 15:04"

type sessionsModel struct {
	store  *store.Store
	width  int
	height int

	sessions   []store.Session
	categories []store.Category
	cursor     int

	formActive bool
	form       *huh.Form
	editingID  string // empty when creating

	// Form field pointers (survive value copies)
	fCategory *string
	fLabel    *string
	fStart    *string
	fEnd      *string
}

func newSessionsModel(s *store.Store) sessionsModel {
	fc, fl, fs, fe := "", "", "", ""
	return sessionsModel{
		store:     s,
		fCategory: &fc,
		fLabel:    &fl,
		fStart:    &fs,
		fEnd:      &fe,
	}
}

func (m *sessionsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type sessionsDataMsg struct {
	sessions   []store.Session
	categories []store.Category
}

func (m sessionsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		sessions, _ := m.store.ListSessions(store.SessionFilter{})
		categories, _ := m.store.ListCategories()
		return sessionsDataMsg{sessions: sessions, categories: categories}
	}
}

func (m sessionsModel) update(msg tea.Msg) (sessionsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case sessionsDataMsg:
		m.sessions = msg.sessions
		m.categories = msg.categories
		if m.cursor >= len(m.sessions) {
			m.cursor = max(0, len(m.sessions)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.sessions)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.New):
			return m.showForm(nil)
		case key.Matches(msg, keys.Edit):
			if m.cursor < len(m.sessions) {
				s := m.sessions[m.cursor]
				return m.showForm(&s)
			}
		case key.Matches(msg, keys.Delete):
			return m.deleteSelected()
		}
	}
	return m, nil
}

func (m sessionsModel) showForm(existing *store.Session) (sessionsModel, tea.Cmd) {
	if existing != nil {
		m.editingID = existing.ID
		*m.fCategory = existing.CategoryID
		*m.fLabel = existing.Label
		*m.fStart = time.UnixMilli(existing.Start).Local().Format(sessionTimeLayout)
		*m.fEnd = time.UnixMilli(existing.End).Local().Format(sessionTimeLayout)
	} else {
		m.editingID = ""
		if len(m.categories) > 0 {
			*m.fCategory = m.categories[0].ID
		}
		*m.fLabel = ""
		*m.fEnd = time.Now().Format(sessionTimeLayout)
		*m.fStart = time.Now().Add(-time.Hour).Format(sessionTimeLayout)
	}

	var catOpts []huh.Option[string]
	for _, c := range m.categories {
		catOpts = append(catOpts, huh.NewOption(c.Name, c.ID))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Kategori").Options(catOpts...).Value(m.fCategory),
			huh.NewInput().Title("Etiket").Value(m.fLabel),
			huh.NewInput().Title("Başlangıç (YYYY-AA-GG SS:DD)").Value(m.fStart).
				Validate(validateDateTime),
			huh.NewInput().Title("Bitiş (YYYY-AA-GG SS:DD)").Value(m.fEnd).
				Validate(validateDateTime),
		).Title("Oturum"),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m sessionsModel) updateForm(msg tea.Msg) (sessionsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		return m.submitForm()
	}

	return m, cmd
}

func (m sessionsModel) submitForm() (sessionsModel, tea.Cmd) {
	start, _ := time.ParseInLocation(sessionTimeLayout, strings.TrimSpace(*m.fStart), time.Local)
	end, _ := time.ParseInLocation(sessionTimeLayout, strings.TrimSpace(*m.fEnd), time.Local)

	sess := store.Session{
		ID:         m.editingID,
		CategoryID: *m.fCategory,
		Label:      strings.TrimSpace(*m.fLabel),
		Start:      start.UnixMilli(),
		End:        end.UnixMilli(),
	}

	var err error
	if m.editingID != "" {
		err = m.store.UpdateSession(sess)
	} else {
		_, err = m.store.CreateSession(sess)
	}
	if err != nil {
		text := fmt.Sprintf("Hata: %v", err)
		if errors.Is(err, store.ErrValidation) {
			text = fmt.Sprintf("Geçersiz oturum: %v", err)
		}
		return m, func() tea.Msg { return statusMsg{text: text, isError: true} }
	}

	return m, tea.Batch(
		m.refresh(),
		func() tea.Msg { return dataChangedMsg{} },
	)
}

func (m sessionsModel) deleteSelected() (sessionsModel, tea.Cmd) {
	if m.cursor >= len(m.sessions) {
		return m, nil
	}
	if err := m.store.DeleteSession(m.sessions[m.cursor].ID); err != nil {
		return m, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Hata: %v", err), isError: true}
		}
	}
	return m, tea.Batch(
		m.refresh(),
		func() tea.Msg { return dataChangedMsg{} },
	)
}

func (m sessionsModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("Oturum Düzenle")
		if m.editingID == "" {
			title = titleStyle.Render("Yeni Oturum")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	title := titleStyle.Render("Oturumlar") +
		mutedStyle.Render("  n: yeni  e: düzenle  d: sil")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	if len(m.sessions) == 0 {
		rows = append(rows, mutedStyle.Render("  Oturum yok"))
	}

	visible := m.sessions
	limit := max(5, m.height-10)
	if len(visible) > limit {
		visible = visible[:limit]
	}
	for i, s := range visible {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		startStr := time.UnixMilli(s.Start).Local().Format("02 Jan 15:04")
		line := fmt.Sprintf("%s%s  %-14s %8s", cursor, startStr, m.categoryName(s.CategoryID), formatMs(s.ActiveMs()))
		if s.PausedMs > 0 {
			line += mutedStyle.Render(fmt.Sprintf("  (+%s mola)", formatMs(s.PausedMs)))
		}
		if s.Label != "" {
			line += mutedStyle.Render("  " + s.Label)
		}
		rows = append(rows, style.Render(line))
	}
	if len(m.sessions) > len(visible) {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  … %d oturum daha", len(m.sessions)-len(visible))))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m sessionsModel) categoryName(id string) string {
	for _, c := range m.categories {
		if c.ID == id {
			return c.Name
		}
	}
	return id
}

func validateDateTime(v string) error {
	if _, err := time.ParseInLocation(sessionTimeLayout, strings.TrimSpace(v), time.Local); err != nil {
		return fmt.Errorf("geçersiz tarih/saat")
	}
	return nil
}
