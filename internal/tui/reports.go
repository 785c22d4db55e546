package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/talipakcelik/calisalim/internal/analytics"
	"github.com/talipakcelik/calisalim/internal/store"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
	reportMonthly
	reportHeatmap
)

var reportModeNames = []string{"Günlük", "Haftalık", "Aylık", "Isı Haritası"}

type reportsModel struct {
	store  *store.Store
	width  int
	height int

	mode       reportMode
	rollup     analytics.Rollup
	heatmap    []analytics.HeatmapDay
	categories []store.Category
	wph        []analytics.WPHPoint
	peaks      [24]analytics.PeakHour

	chart barchart.Model
}

func newReportsModel(s *store.Store) reportsModel {
	return reportsModel{
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	rollup     analytics.Rollup
	heatmap    []analytics.HeatmapDay
	categories []store.Category
	wph        []analytics.WPHPoint
	peaks      [24]analytics.PeakHour
}

func (r reportsModel) refresh() tea.Cmd {
	mode := r.mode
	return func() tea.Msg {
		now := time.Now()
		sessions, _ := r.store.ListSessions(store.SessionFilter{})
		logs, _ := r.store.ListDailyLogs()
		categories, _ := r.store.ListCategories()

		var rollup analytics.Rollup
		switch mode {
		case reportWeekly:
			rollup = analytics.WeeklyRollup(sessions, now)
		case reportMonthly:
			rollup = analytics.MonthlyRollup(sessions, now)
		default:
			rollup = analytics.DailyRollup(sessions, now)
		}

		return reportsDataMsg{
			rollup:     rollup,
			heatmap:    analytics.Heatmap(sessions, now),
			categories: categories,
			wph:        analytics.WordsPerHour(sessions, logs, now.Location()),
			peaks:      analytics.PeakHours(sessions, now.Location()),
		}
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.rollup = msg.rollup
		r.heatmap = msg.heatmap
		r.categories = msg.categories
		r.wph = msg.wph
		r.peaks = msg.peaks
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			if r.mode > reportDaily {
				r.mode--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.mode < reportHeatmap {
				r.mode++
			}
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for _, b := range r.rollup.Buckets {
		var values []barchart.BarValue
		for _, c := range r.categories {
			hours := b.ByCategory[c.ID]
			if hours <= 0 {
				continue
			}
			values = append(values, barchart.BarValue{
				Name:  c.Name,
				Value: hours,
				Style: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}
		bars = append(bars, barchart.BarData{
			Label:  b.Label,
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	var modeTabs []string
	for i, name := range reportModeNames {
		if reportMode(i) == r.mode {
			modeTabs = append(modeTabs, activeTabStyle.Render(name))
		} else {
			modeTabs = append(modeTabs, inactiveTabStyle.Render(name))
		}
	}

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Raporlar"), "  ",
		lipgloss.JoinHorizontal(lipgloss.Bottom, modeTabs...),
	)

	var body string
	if r.mode == reportHeatmap {
		body = r.renderHeatmap()
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left,
			r.chart.View(),
			"",
			r.renderTotals(),
			"",
			r.renderWritingStats(),
		)
	}

	nav := mutedStyle.Render("  ←/→: görünüm değiştir")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", nav),
	)
}

func (r reportsModel) renderTotals() string {
	total := fmt.Sprintf("  Toplam: %s   Ortalama: %.1f sa",
		highlightStyle.Render(fmt.Sprintf("%.1f sa", r.rollup.TotalHours)),
		r.rollup.AvgHours,
	)

	var legend []string
	for _, c := range r.categories {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("●")
		legend = append(legend, fmt.Sprintf("%s %s", dot, c.Name))
	}

	return total + "\n  " + strings.Join(legend, "  ")
}

func (r reportsModel) renderWritingStats() string {
	var rows []string

	if len(r.wph) > 0 {
		last := r.wph[len(r.wph)-1]
		rows = append(rows, fmt.Sprintf("  Son yazım günü %s: %d kelime, %d k/sa",
			last.Date, last.Words, last.WPH))
	}

	best, bestCount := 0, 0
	for _, p := range r.peaks {
		if p.Count > bestCount {
			best, bestCount = p.Hour, p.Count
		}
	}
	if bestCount > 0 {
		rows = append(rows, fmt.Sprintf("  En verimli saat: %02d:00 (%d oturum, ort. %.0f dk)",
			best, bestCount, r.peaks[best].AvgMinutes))
	}

	if len(rows) == 0 {
		return mutedStyle.Render("  Henüz veri yok")
	}
	return strings.Join(rows, "\n")
}

// renderHeatmap paints the year grid one week per column, Monday on
// the top row.
func (r reportsModel) renderHeatmap() string {
	if len(r.heatmap) == 0 {
		return mutedStyle.Render("  Henüz veri yok")
	}

	weeks := (len(r.heatmap) + 6) / 7
	maxWeeks := (r.width - 10) / 2
	startWeek := 0
	if maxWeeks > 0 && weeks > maxWeeks {
		startWeek = weeks - maxWeeks
	}

	var rows []string
	for dow := 0; dow < 7; dow++ {
		var sb strings.Builder
		sb.WriteString("  ")
		for wk := startWeek; wk < weeks; wk++ {
			idx := wk*7 + dow
			if idx >= len(r.heatmap) {
				sb.WriteString("  ")
				continue
			}
			cell := r.heatmap[idx]
			sb.WriteString(lipgloss.NewStyle().Foreground(heatColors[cell.Level]).Render("■ "))
		}
		rows = append(rows, sb.String())
	}

	first := r.heatmap[startWeek*7].Date
	last := r.heatmap[len(r.heatmap)-1].Date
	caption := mutedStyle.Render(fmt.Sprintf("  %s — %s",
		first.Format("Jan 2006"), last.Format("Jan 2006")))

	legend := "  " + mutedStyle.Render("az ") +
		lipgloss.NewStyle().Foreground(heatColors[0]).Render("■ ") +
		lipgloss.NewStyle().Foreground(heatColors[1]).Render("■ ") +
		lipgloss.NewStyle().Foreground(heatColors[2]).Render("■ ") +
		lipgloss.NewStyle().Foreground(heatColors[3]).Render("■ ") +
		lipgloss.NewStyle().Foreground(heatColors[4]).Render("■ ") +
		mutedStyle.Render("çok")

	rows = append(rows, "", caption, legend)
	return strings.Join(rows, "\n")
}
