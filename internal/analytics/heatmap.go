package analytics

import (
	"time"

	"github.com/talipakcelik/calisalim/internal/store"
	"github.com/talipakcelik/calisalim/internal/timeutil"
)

// HeatmapDay is one cell of the activity grid.
type HeatmapDay struct {
	Date     time.Time
	Key      string
	ActiveMs int64
	Level    int
}

// Heatmap builds a Monday-aligned year grid ending on today. It covers
// 53 week columns, enough to always include a full trailing year. Days
// after today are not emitted, so the last column may be partial.
func Heatmap(sessions []store.Session, now time.Time) []HeatmapDay {
	today := timeutil.StartOfDay(now)
	gridStart := timeutil.StartOfWeek(today.AddDate(0, 0, -364))

	var days []HeatmapDay
	for d := gridStart; !d.After(today); d = d.AddDate(0, 0, 1) {
		startMs := d.UnixMilli()
		var ms int64
		for _, s := range sessions {
			ms += timeutil.OverlapActiveMs(s.Start, s.End, s.PausedMs, startMs, startMs+timeutil.DayMs)
		}
		days = append(days, HeatmapDay{
			Date:     d,
			Key:      timeutil.DayKey(d),
			ActiveMs: ms,
			Level:    HeatLevel(ms),
		})
	}
	return days
}

// HeatLevel maps a day's active time onto the 0..4 intensity scale.
func HeatLevel(activeMs int64) int {
	minutes := activeMs / 60_000
	switch {
	case activeMs <= 0:
		return 0
	case minutes < 30:
		return 1
	case minutes < 60:
		return 2
	case minutes < 120:
		return 3
	default:
		return 4
	}
}
