// Package remind evaluates the nudge rules over current state. Rules
// are pure functions of their inputs and produce deterministic IDs, so
// a dismissed reminder stays dismissed across re-evaluations and a new
// day mints a fresh one.
package remind

import (
	"fmt"
	"strings"
	"time"

	"github.com/talipakcelik/calisalim/internal/store"
	"github.com/talipakcelik/calisalim/internal/timeutil"
)

// Kind classifies a reminder for display.
type Kind string

const (
	KindStreak     Kind = "streak"
	KindDeadline   Kind = "deadline"
	KindInactivity Kind = "inactive"
)

// Reminder is one actionable nudge.
type Reminder struct {
	ID      string
	Kind    Kind
	Message string
}

// Input is everything the rules read. Callers assemble it from the
// store once per evaluation.
type Input struct {
	Logs       []store.DailyLog
	Milestones []store.Milestone
	Sessions   []store.Session
	Categories []store.Category
	Dismissed  map[string]bool
}

// Evaluate runs every rule and filters out dismissed reminders.
func Evaluate(in Input, now time.Time) []Reminder {
	var out []Reminder
	for _, r := range []*Reminder{
		StreakRisk(in.Logs, now),
		DeadlineProximity(in.Milestones, now),
		Inactivity(in.Sessions, in.Categories, now),
	} {
		if r != nil && !in.Dismissed[r.ID] {
			out = append(out, *r)
		}
	}
	return out
}

// StreakRisk fires in the evening when yesterday had words but today
// has none yet. Before 18:00 the day is not considered at risk.
func StreakRisk(logs []store.DailyLog, now time.Time) *Reminder {
	if now.Hour() < 18 {
		return nil
	}
	today := timeutil.DayKey(now)
	yesterday := timeutil.DayKey(timeutil.StartOfDay(now).AddDate(0, 0, -1))

	var wroteYesterday, wroteToday bool
	for _, l := range logs {
		switch l.Date {
		case today:
			wroteToday = wroteToday || l.WordCount > 0
		case yesterday:
			wroteYesterday = wroteYesterday || l.WordCount > 0
		}
	}
	if !wroteYesterday || wroteToday {
		return nil
	}
	return &Reminder{
		ID:      "streak-" + today,
		Kind:    KindStreak,
		Message: "Serin risk altında! Bugün henüz kelime girmedin.",
	}
}

// deadlineWindowMs is how far ahead the deadline rule looks.
const deadlineWindowMs = 3 * timeutil.DayMs

// DeadlineProximity fires for the nearest undone milestone due within
// the next three days. Past-due milestones are not nagged about.
func DeadlineProximity(milestones []store.Milestone, now time.Time) *Reminder {
	nowMs := now.UnixMilli()
	var nearest *store.Milestone
	for i := range milestones {
		m := &milestones[i]
		if m.Done || m.Date < nowMs || m.Date > nowMs+deadlineWindowMs {
			continue
		}
		if nearest == nil || m.Date < nearest.Date {
			nearest = m
		}
	}
	if nearest == nil {
		return nil
	}
	// Partial days count as a full day: 2.9 days out is "3 gün içinde".
	days := int((nearest.Date - nowMs + timeutil.DayMs - 1) / timeutil.DayMs)
	var when string
	switch days {
	case 0:
		when = "bugün"
	case 1:
		when = "yarın"
	default:
		when = fmt.Sprintf("%d gün içinde", days)
	}
	return &Reminder{
		ID:      "deadline-" + nearest.ID,
		Kind:    KindDeadline,
		Message: fmt.Sprintf("%q hedefi %s doluyor.", nearest.Title, when),
	}
}

// inactivityWindowMs is how long the primary category may sit idle.
const inactivityWindowMs = 3 * timeutil.DayMs

// Inactivity fires when the primary research category has tracked
// sessions but none ended within the last three days. It stays silent
// for a brand-new database with no history to lapse from.
func Inactivity(sessions []store.Session, categories []store.Category, now time.Time) *Reminder {
	primary := primaryCategory(categories)
	if primary == nil {
		return nil
	}

	var lastEnd int64
	for _, s := range sessions {
		if s.CategoryID == primary.ID && s.End > lastEnd {
			lastEnd = s.End
		}
	}
	if lastEnd == 0 || now.UnixMilli()-lastEnd <= inactivityWindowMs {
		return nil
	}
	return &Reminder{
		ID:      "inactive-" + primary.ID + "-" + timeutil.DayKey(now),
		Kind:    KindInactivity,
		Message: fmt.Sprintf("%s kategorisinde 3 günden uzun süredir çalışma yok.", primary.Name),
	}
}

func primaryCategory(categories []store.Category) *store.Category {
	for i := range categories {
		c := &categories[i]
		if c.ID == "phd" {
			return c
		}
		name := strings.ToLower(c.Name)
		if strings.Contains(name, "tez") || strings.Contains(name, "thesis") {
			return c
		}
	}
	return nil
}
