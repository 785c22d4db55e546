package analytics

import (
	"math"
	"time"

	"github.com/talipakcelik/calisalim/internal/store"
)

// PeakHour aggregates the sessions that started within one hour of day.
type PeakHour struct {
	Hour       int
	Count      int
	AvgMinutes float64
}

// PeakHours groups sessions by their local start hour. All 24 slots are
// returned so charts render a stable axis even for empty hours.
func PeakHours(sessions []store.Session, loc *time.Location) [24]PeakHour {
	var hours [24]PeakHour
	var totalMs [24]int64
	for i := range hours {
		hours[i].Hour = i
	}
	for _, s := range sessions {
		h := time.UnixMilli(s.Start).In(loc).Hour()
		hours[h].Count++
		totalMs[h] += s.ActiveMs()
	}
	for i := range hours {
		if hours[i].Count > 0 {
			mins := float64(totalMs[i]) / 60_000 / float64(hours[i].Count)
			hours[i].AvgMinutes = math.Round(mins*10) / 10
		}
	}
	return hours
}
