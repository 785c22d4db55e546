package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/talipakcelik/calisalim/internal/store"
	"github.com/talipakcelik/calisalim/internal/timeutil"
)

// WPHPoint is one day's writing velocity sample.
type WPHPoint struct {
	Date  string
	Words int64
	Hours float64
	WPH   int
}

// WordsPerHour pairs each daily log with the active time tracked that
// day and derives words per hour. Sessions are attributed to the day
// they started in loc. Days with under 6 minutes of tracked time get
// WPH 0 rather than an absurd ratio.
func WordsPerHour(sessions []store.Session, logs []store.DailyLog, loc *time.Location) []WPHPoint {
	msByDay := map[string]int64{}
	for _, s := range sessions {
		msByDay[timeutil.DayKeyMs(s.Start, loc)] += s.ActiveMs()
	}

	points := make([]WPHPoint, 0, len(logs))
	for _, l := range logs {
		ms := msByDay[l.Date]
		hours := float64(ms) / 3_600_000
		wph := 0
		if hours > 0.1 {
			wph = int(math.Round(float64(l.WordCount) / hours))
		}
		points = append(points, WPHPoint{
			Date:  l.Date,
			Words: l.WordCount,
			Hours: timeutil.Hours(ms),
			WPH:   wph,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// WeekSummary aggregates the trailing 7 days of writing activity.
type WeekSummary struct {
	Words      int64
	Hours      float64
	AvgWPH     int
	ActiveDays int
}

// WeeklySummary totals words and active hours over the trailing 7 days
// and derives an average velocity. The average is zero when under half
// an hour was tracked, so a stray 5-minute session cannot report
// thousands of words per hour.
func WeeklySummary(sessions []store.Session, logs []store.DailyLog, now time.Time) WeekSummary {
	// Seven calendar dates including today, so six days back.
	cutoff := timeutil.DayKey(now.AddDate(0, 0, -6))
	cutoffMs := now.AddDate(0, 0, -7).UnixMilli()

	var sum WeekSummary
	seen := map[string]bool{}
	for _, l := range logs {
		if l.Date < cutoff || l.WordCount <= 0 {
			continue
		}
		sum.Words += l.WordCount
		if !seen[l.Date] {
			seen[l.Date] = true
			sum.ActiveDays++
		}
	}

	var ms int64
	for _, s := range sessions {
		if s.Start >= cutoffMs {
			ms += s.ActiveMs()
		}
	}
	hours := float64(ms) / 3_600_000
	sum.Hours = timeutil.Hours(ms)
	if hours >= 0.5 {
		sum.AvgWPH = int(math.Round(float64(sum.Words) / hours))
	}
	return sum
}

// Streak counts consecutive days with logged words, walking back from
// today. A streak survives a missing entry for today itself, so it is
// not reported broken before the day's writing has happened.
func Streak(logs []store.DailyLog, now time.Time) int {
	words := map[string]int64{}
	for _, l := range logs {
		words[l.Date] += l.WordCount
	}

	day := timeutil.StartOfDay(now)
	if words[timeutil.DayKey(day)] <= 0 {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for words[timeutil.DayKey(day)] > 0 {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// ScopeSessions keeps the sessions attributable to p: an explicit
// project reference, or a matching primary category for sessions that
// predate project support.
func ScopeSessions(sessions []store.Session, p store.Project) []store.Session {
	var out []store.Session
	for _, s := range sessions {
		if s.ProjectID == p.ID || (s.ProjectID == "" && s.CategoryID == p.CategoryID && p.CategoryID != "") {
			out = append(out, s)
		}
	}
	return out
}

// ScopeLogs keeps the logs with words attributed to p, with the word
// count narrowed to p's share.
func ScopeLogs(logs []store.DailyLog, projectID string) []store.DailyLog {
	var out []store.DailyLog
	for _, l := range logs {
		words := l.WordsFor(projectID)
		if words <= 0 {
			continue
		}
		scoped := l
		scoped.WordCount = words
		out = append(out, scoped)
	}
	return out
}

// Progress describes a project's standing against its word target and
// deadline.
type Progress struct {
	Words    int64
	Percent  float64
	DaysLeft int
}

// ProjectProgress totals the words attributed to p and positions them
// against the target. DaysLeft is 0 when no deadline is set and
// negative once the deadline has passed.
func ProjectProgress(logs []store.DailyLog, p store.Project, now time.Time) Progress {
	var prog Progress
	for _, l := range logs {
		prog.Words += l.WordsFor(p.ID)
	}
	if p.Goal > 0 {
		prog.Percent = math.Min(100, float64(prog.Words)/float64(p.Goal)*100)
	}
	if p.Deadline > 0 {
		prog.DaysLeft = int(math.Ceil(float64(p.Deadline-now.UnixMilli()) / float64(timeutil.DayMs)))
	}
	return prog
}
