package tui

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/talipakcelik/calisalim/internal/store"
	"github.com/talipakcelik/calisalim/internal/syncengine"
)

type settingsForm int

const (
	formNone settingsForm = iota
	formTarget
	formCategory
)

type settingsModel struct {
	store  *store.Store
	engine *syncengine.Engine
	width  int
	height int

	target     float64
	categories []store.Category
	cursor     int

	activeForm settingsForm
	form       *huh.Form
	editingID  string

	// Form values as pointers (survive value copies)
	fTarget *string
	fName   *string
	fColor  *string
}

func newSettingsModel(s *store.Store, eng *syncengine.Engine) settingsModel {
	ft, fn, fc := "", "", ""
	return settingsModel{store: s, engine: eng, fTarget: &ft, fName: &fn, fColor: &fc}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	target     float64
	categories []store.Category
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		target, _ := s.store.DailyTarget()
		categories, _ := s.store.ListCategories()
		return settingsDataMsg{target: target, categories: categories}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.activeForm != formNone && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.target = msg.target
		s.categories = msg.categories
		if s.cursor >= len(s.categories) {
			s.cursor = max(0, len(s.categories)-1)
		}
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter):
			return s.showTargetForm()
		case key.Matches(msg, keys.New):
			return s.showCategoryForm(nil)
		case key.Matches(msg, keys.Edit):
			if len(s.categories) > 0 {
				c := s.categories[s.cursor]
				return s.showCategoryForm(&c)
			}
		case key.Matches(msg, keys.Delete):
			return s.deleteCategory()
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < len(s.categories)-1 {
				s.cursor++
			}
		}
	}
	return s, nil
}

func (s settingsModel) showTargetForm() (settingsModel, tea.Cmd) {
	*s.fTarget = strconv.FormatFloat(s.target, 'f', 1, 64)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Günlük hedef (saat)").Value(s.fTarget).
				Validate(func(v string) error {
					f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
					if err != nil || f <= 0 {
						return fmt.Errorf("pozitif bir sayı girin")
					}
					return nil
				}),
		).Title("Ayarlar"),
	).WithShowHelp(true).WithShowErrors(true)

	s.activeForm = formTarget
	return s, s.form.Init()
}

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func validateColor(v string) error {
	if !hexColorRe.MatchString(strings.TrimSpace(v)) {
		return fmt.Errorf("renk #RRGGBB biçiminde olmalı")
	}
	return nil
}

func (s settingsModel) showCategoryForm(c *store.Category) (settingsModel, tea.Cmd) {
	if c != nil {
		s.editingID = c.ID
		*s.fName = c.Name
		*s.fColor = c.Color
	} else {
		s.editingID = ""
		*s.fName = ""
		*s.fColor = "#8C6BFF"
	}

	title := "Yeni kategori"
	if c != nil {
		title = "Kategoriyi düzenle"
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Ad").Value(s.fName).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("ad boş olamaz")
					}
					return nil
				}),
			huh.NewInput().Title("Renk").Value(s.fColor).Validate(validateColor),
		).Title(title),
	).WithShowHelp(true).WithShowErrors(true)

	s.activeForm = formCategory
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.activeForm = formNone
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		kind := s.activeForm
		s.activeForm = formNone
		return s.submitForm(kind)
	}

	return s, cmd
}

func (s settingsModel) submitForm(kind settingsForm) (settingsModel, tea.Cmd) {
	var err error
	switch kind {
	case formTarget:
		target, _ := strconv.ParseFloat(strings.TrimSpace(*s.fTarget), 64)
		err = s.store.SetDailyTarget(target)
	case formCategory:
		name := strings.TrimSpace(*s.fName)
		color := strings.TrimSpace(*s.fColor)
		if s.editingID != "" {
			err = s.store.UpdateCategory(store.Category{ID: s.editingID, Name: name, Color: color})
		} else {
			_, err = s.store.CreateCategory("", name, color)
		}
	}
	if err != nil {
		return s, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Hata: %v", err), isError: true}
		}
	}
	return s, tea.Batch(
		s.refresh(),
		func() tea.Msg { return dataChangedMsg{} },
	)
}

func (s settingsModel) deleteCategory() (settingsModel, tea.Cmd) {
	if len(s.categories) == 0 {
		return s, nil
	}
	c := s.categories[s.cursor]
	if c.ID == "phd" {
		return s, func() tea.Msg {
			return statusMsg{text: "Ana kategori silinemez.", isError: true}
		}
	}
	if err := s.store.DeleteCategory(c.ID); err != nil {
		return s, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Hata: %v", err), isError: true}
		}
	}
	return s, tea.Batch(
		s.refresh(),
		func() tea.Msg { return dataChangedMsg{} },
	)
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.activeForm != formNone && s.form != nil {
		title := titleStyle.Render("Ayarlar")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	title := titleStyle.Render("Ayarlar")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  %s %s",
		lipgloss.NewStyle().Width(24).Render("Günlük hedef"),
		highlightStyle.Render(fmt.Sprintf("%.1f saat", s.target))))
	rows = append(rows, "")
	rows = append(rows, s.renderSyncStatus())
	rows = append(rows, "")
	rows = append(rows, titleStyle.Render("Kategoriler"))
	for i, c := range s.categories {
		cursor := "  "
		style := normalItemStyle
		if i == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("■")
		rows = append(rows, fmt.Sprintf("  %s%s %s", cursor, swatch, style.Render(c.Name)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("enter: hedef  n: yeni kategori  e: düzenle  d: sil  S: şimdi eşitle"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (s settingsModel) renderSyncStatus() string {
	label := lipgloss.NewStyle().Width(24).Render("Eşitleme")

	status, lastErr, lastSync := s.engine.State()
	var value string
	switch status {
	case syncengine.StatusDisabled:
		value = mutedStyle.Render("kapalı")
	case syncengine.StatusSyncing:
		value = warningStyle.Render("eşitleniyor…")
	case syncengine.StatusSynced:
		value = successStyle.Render("eşitlendi")
		if !lastSync.IsZero() {
			value += mutedStyle.Render("  " + lastSync.Local().Format(time.Kitchen))
		}
	case syncengine.StatusError:
		value = errorStyle.Render("hata")
		if lastErr != nil {
			value += mutedStyle.Render("  " + lastErr.Error())
		}
	default:
		value = mutedStyle.Render("beklemede")
	}

	return fmt.Sprintf("  %s %s", label, value)
}
