// Package analytics derives rollups, heatmaps, writing velocity and
// streaks from the raw session and daily-log streams. Every function is
// pure: it mutates nothing and is deterministic given its inputs, so
// callers can feed results straight into charts or exports.
//
// Durations are allocated to calendar buckets with
// timeutil.OverlapActiveMs, so a session spanning midnight credits both
// days proportionally instead of collapsing into one.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/talipakcelik/calisalim/internal/store"
	"github.com/talipakcelik/calisalim/internal/timeutil"
)

// Bucket is one calendar-aligned aggregation window.
type Bucket struct {
	Start      time.Time
	End        time.Time
	Label      string
	Hours      float64
	ByCategory map[string]float64
}

// Rollup is a series of buckets plus its grand total and mean.
type Rollup struct {
	Buckets    []Bucket
	TotalHours float64
	AvgHours   float64
}

// DailyRollup sums active hours per day over the trailing 7 days,
// oldest first.
func DailyRollup(sessions []store.Session, now time.Time) Rollup {
	today := timeutil.StartOfDay(now)
	var buckets []Bucket
	for i := 6; i >= 0; i-- {
		start := today.AddDate(0, 0, -i)
		buckets = append(buckets, newBucket(start, start.AddDate(0, 0, 1), start.Format("Mon 02")))
	}
	return fillRollup(buckets, sessions)
}

// WeeklyRollup sums active hours per Monday-anchored week over the
// trailing 4 weeks, oldest first.
func WeeklyRollup(sessions []store.Session, now time.Time) Rollup {
	thisWeek := timeutil.StartOfWeek(now)
	var buckets []Bucket
	for i := 3; i >= 0; i-- {
		start := thisWeek.AddDate(0, 0, -7*i)
		buckets = append(buckets, newBucket(start, start.AddDate(0, 0, 7), start.Format("Jan 02")))
	}
	return fillRollup(buckets, sessions)
}

// MonthlyRollup sums active hours per calendar month over the trailing
// 6 months, oldest first.
func MonthlyRollup(sessions []store.Session, now time.Time) Rollup {
	thisMonth := timeutil.StartOfMonth(now)
	var buckets []Bucket
	for i := 5; i >= 0; i-- {
		start := thisMonth.AddDate(0, -i, 0)
		buckets = append(buckets, newBucket(start, start.AddDate(0, 1, 0), start.Format("Jan 06")))
	}
	return fillRollup(buckets, sessions)
}

func newBucket(start, end time.Time, label string) Bucket {
	return Bucket{Start: start, End: end, Label: label, ByCategory: map[string]float64{}}
}

func fillRollup(buckets []Bucket, sessions []store.Session) Rollup {
	var totalMs int64
	for i := range buckets {
		b := &buckets[i]
		startMs, endMs := b.Start.UnixMilli(), b.End.UnixMilli()

		var bucketMs int64
		catMs := map[string]int64{}
		for _, s := range sessions {
			ms := timeutil.OverlapActiveMs(s.Start, s.End, s.PausedMs, startMs, endMs)
			if ms <= 0 {
				continue
			}
			bucketMs += ms
			catMs[s.CategoryID] += ms
		}

		b.Hours = timeutil.Hours(bucketMs)
		for cat, ms := range catMs {
			b.ByCategory[cat] = timeutil.Hours(ms)
		}
		totalMs += bucketMs
	}

	r := Rollup{Buckets: buckets, TotalHours: timeutil.Hours(totalMs)}
	if len(buckets) > 0 {
		r.AvgHours = math.Round(r.TotalHours/float64(len(buckets))*10) / 10
	}
	return r
}

// TotalActiveMs sums active time allocated to [start, end).
func TotalActiveMs(sessions []store.Session, start, end time.Time) int64 {
	startMs, endMs := start.UnixMilli(), end.UnixMilli()
	var total int64
	for _, s := range sessions {
		total += timeutil.OverlapActiveMs(s.Start, s.End, s.PausedMs, startMs, endMs)
	}
	return total
}

// CategoryShare is one category's slice of the last-7-days distribution.
type CategoryShare struct {
	CategoryID string
	ActiveMs   int64
}

// CategoryDistribution breaks the trailing 7 days down per category,
// largest share first.
func CategoryDistribution(sessions []store.Session, now time.Time) []CategoryShare {
	end := now.UnixMilli()
	start := timeutil.StartOfDay(now).UnixMilli() - 6*timeutil.DayMs

	byCat := map[string]int64{}
	for _, s := range sessions {
		ms := timeutil.OverlapActiveMs(s.Start, s.End, s.PausedMs, start, end+1)
		if ms > 0 {
			byCat[s.CategoryID] += ms
		}
	}

	shares := make([]CategoryShare, 0, len(byCat))
	for cat, ms := range byCat {
		shares = append(shares, CategoryShare{CategoryID: cat, ActiveMs: ms})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].ActiveMs != shares[j].ActiveMs {
			return shares[i].ActiveMs > shares[j].ActiveMs
		}
		return shares[i].CategoryID < shares[j].CategoryID
	})
	return shares
}

// LabelTotal is one session label's accumulated active time.
type LabelTotal struct {
	Label    string
	ActiveMs int64
}

// TopLabels ranks session labels by active time over the trailing 7
// days and returns at most the top five. Unlabeled sessions group
// under an empty label.
func TopLabels(sessions []store.Session, now time.Time) []LabelTotal {
	end := now.UnixMilli()
	start := timeutil.StartOfDay(now).UnixMilli() - 6*timeutil.DayMs

	byLabel := map[string]int64{}
	for _, s := range sessions {
		ms := timeutil.OverlapActiveMs(s.Start, s.End, s.PausedMs, start, end+1)
		if ms > 0 {
			byLabel[s.Label] += ms
		}
	}

	totals := make([]LabelTotal, 0, len(byLabel))
	for label, ms := range byLabel {
		totals = append(totals, LabelTotal{Label: label, ActiveMs: ms})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].ActiveMs != totals[j].ActiveMs {
			return totals[i].ActiveMs > totals[j].ActiveMs
		}
		return totals[i].Label < totals[j].Label
	})
	if len(totals) > 5 {
		totals = totals[:5]
	}
	return totals
}
