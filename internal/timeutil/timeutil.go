// Package timeutil holds the pause-aware duration math and calendar
// bucket helpers shared by the store, analytics and TUI layers.
//
// Session instants are epoch milliseconds throughout; calendar math is
// done in the location of the time.Time passed in.
package timeutil

import (
	"fmt"
	"math"
	"time"
)

const (
	HourMs = int64(time.Hour / time.Millisecond)
	DayMs  = 24 * HourMs
	WeekMs = 7 * DayMs
)

// WallMs is the wall-clock span of an interval, never negative.
func WallMs(start, end int64) int64 {
	if end < start {
		return 0
	}
	return end - start
}

// ActiveMs is the wall-clock span minus paused time, never negative.
func ActiveMs(start, end, pausedMs int64) int64 {
	d := WallMs(start, end) - pausedMs
	if d < 0 {
		return 0
	}
	return d
}

// OverlapActiveMs allocates an interval's active time proportionally to
// the fraction of its wall-clock span that falls inside
// [rangeStart, rangeEnd). A session crossing a bucket boundary thus
// credits each bucket by wall-time overlap instead of being truncated
// into one of them. Returns 0 for zero-length sessions and for
// non-positive overlaps.
func OverlapActiveMs(start, end, pausedMs, rangeStart, rangeEnd int64) int64 {
	wall := WallMs(start, end)
	if wall <= 0 {
		return 0
	}
	lo := max(start, rangeStart)
	hi := min(end, rangeEnd)
	overlap := hi - lo
	if overlap <= 0 {
		return 0
	}
	active := ActiveMs(start, end, pausedMs)
	v := int64(math.Round(float64(active) * float64(overlap) / float64(wall)))
	if v < 0 {
		return 0
	}
	return v
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek truncates t to the Monday of its week, at midnight.
func StartOfWeek(t time.Time) time.Time {
	d := StartOfDay(t)
	wd := int(d.Weekday())
	if wd == 0 {
		wd = 7
	}
	return d.AddDate(0, 0, 1-wd)
}

// StartOfMonth truncates t to the first of its month, at midnight.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DayKey is the calendar-day bucket key, e.g. "2024-03-01".
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DayKeyMs converts an epoch-ms instant to its day key in loc.
func DayKeyMs(ms int64, loc *time.Location) string {
	return DayKey(time.UnixMilli(ms).In(loc))
}

// Hours converts milliseconds to hours rounded to one decimal, the
// resolution used everywhere durations are charted.
func Hours(ms int64) float64 {
	return math.Round(float64(ms)/float64(time.Hour/time.Millisecond)*10) / 10
}

// FormatHM renders a millisecond duration as "3h 20m" (or "45m").
func FormatHM(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalMin := ms / 60000
	h := totalMin / 60
	m := totalMin % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// FormatClock renders a duration as "02:10:33".
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
