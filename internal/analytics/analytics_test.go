package analytics

import (
	"testing"
	"time"

	"github.com/talipakcelik/calisalim/internal/store"
	"github.com/talipakcelik/calisalim/internal/timeutil"
)

// Wed 2025-03-12 14:00 UTC.
var testNow = time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC)

func session(start, end, paused int64, cat string) store.Session {
	return store.Session{ID: "s", CategoryID: cat, Start: start, End: end, PausedMs: paused}
}

func dayStart(t time.Time, daysAgo int) int64 {
	return timeutil.StartOfDay(t).AddDate(0, 0, -daysAgo).UnixMilli()
}

// ==================== rollups ====================

func TestDailyRollupSplitsAcrossMidnight(t *testing.T) {
	midnight := timeutil.StartOfDay(testNow).UnixMilli()
	// 23:00 yesterday to 03:00 today, fully active.
	s := session(midnight-timeutil.HourMs, midnight+3*timeutil.HourMs, 0, "phd")

	r := DailyRollup([]store.Session{s}, testNow)
	if len(r.Buckets) != 7 {
		t.Fatalf("buckets = %d, want 7", len(r.Buckets))
	}
	yesterday, today := r.Buckets[5], r.Buckets[6]
	if yesterday.Hours != 1.0 {
		t.Errorf("yesterday hours = %v, want 1.0", yesterday.Hours)
	}
	if today.Hours != 3.0 {
		t.Errorf("today hours = %v, want 3.0", today.Hours)
	}
	if r.TotalHours != 4.0 {
		t.Errorf("total hours = %v, want 4.0", r.TotalHours)
	}
}

func TestDailyRollupCategoryBreakdown(t *testing.T) {
	start := dayStart(testNow, 0)
	sessions := []store.Session{
		session(start, start+2*timeutil.HourMs, 0, "phd"),
		session(start+3*timeutil.HourMs, start+4*timeutil.HourMs, 0, "reading"),
	}

	r := DailyRollup(sessions, testNow)
	today := r.Buckets[6]
	if today.ByCategory["phd"] != 2.0 || today.ByCategory["reading"] != 1.0 {
		t.Errorf("breakdown = %v, want phd:2 reading:1", today.ByCategory)
	}
}

func TestWeeklyRollupBucketsAnchorMonday(t *testing.T) {
	r := WeeklyRollup(nil, testNow)
	if len(r.Buckets) != 4 {
		t.Fatalf("buckets = %d, want 4", len(r.Buckets))
	}
	for _, b := range r.Buckets {
		if b.Start.Weekday() != time.Monday {
			t.Errorf("bucket %s starts on %s, want Monday", b.Label, b.Start.Weekday())
		}
	}
	last := r.Buckets[3]
	if got := timeutil.StartOfWeek(testNow); !last.Start.Equal(got) {
		t.Errorf("last bucket = %v, want current week %v", last.Start, got)
	}
}

func TestMonthlyRollupAverage(t *testing.T) {
	start := dayStart(testNow, 0)
	s := session(start, start+6*timeutil.HourMs, 0, "phd")

	r := MonthlyRollup([]store.Session{s}, testNow)
	if len(r.Buckets) != 6 {
		t.Fatalf("buckets = %d, want 6", len(r.Buckets))
	}
	if r.TotalHours != 6.0 {
		t.Errorf("total = %v, want 6.0", r.TotalHours)
	}
	if r.AvgHours != 1.0 {
		t.Errorf("avg = %v, want 1.0", r.AvgHours)
	}
}

func TestCategoryDistributionSortsDescending(t *testing.T) {
	start := dayStart(testNow, 1)
	sessions := []store.Session{
		session(start, start+timeutil.HourMs, 0, "reading"),
		session(start+timeutil.HourMs, start+4*timeutil.HourMs, 0, "phd"),
	}

	shares := CategoryDistribution(sessions, testNow)
	if len(shares) != 2 {
		t.Fatalf("shares = %d, want 2", len(shares))
	}
	if shares[0].CategoryID != "phd" || shares[1].CategoryID != "reading" {
		t.Errorf("order = %s, %s, want phd first", shares[0].CategoryID, shares[1].CategoryID)
	}
}

func TestTopLabelsCapsAtFive(t *testing.T) {
	start := dayStart(testNow, 0)
	var sessions []store.Session
	for i, label := range []string{"a", "b", "c", "d", "e", "f"} {
		s := session(start, start+int64(i+1)*600_000, 0, "phd")
		s.Label = label
		sessions = append(sessions, s)
	}

	top := TopLabels(sessions, testNow)
	if len(top) != 5 {
		t.Fatalf("labels = %d, want 5", len(top))
	}
	if top[0].Label != "f" {
		t.Errorf("top label = %q, want f", top[0].Label)
	}
	for _, lt := range top {
		if lt.Label == "a" {
			t.Error("shortest label survived the cap")
		}
	}
}

// ==================== heatmap ====================

func TestHeatmapEndsTodayAndStartsMonday(t *testing.T) {
	days := Heatmap(nil, testNow)
	if len(days) == 0 {
		t.Fatal("empty heatmap")
	}
	first, last := days[0], days[len(days)-1]
	if first.Date.Weekday() != time.Monday {
		t.Errorf("grid starts on %s, want Monday", first.Date.Weekday())
	}
	if want := timeutil.DayKey(testNow); last.Key != want {
		t.Errorf("last cell = %s, want %s", last.Key, want)
	}
	if len(days) < 365 {
		t.Errorf("grid covers %d days, want a full year", len(days))
	}
}

func TestHeatmapLevels(t *testing.T) {
	cases := []struct {
		minutes int64
		want    int
	}{
		{0, 0}, {10, 1}, {29, 1}, {30, 2}, {59, 2}, {60, 3}, {119, 3}, {120, 4}, {300, 4},
	}
	for _, c := range cases {
		if got := HeatLevel(c.minutes * 60_000); got != c.want {
			t.Errorf("HeatLevel(%dm) = %d, want %d", c.minutes, got, c.want)
		}
	}
}

func TestHeatmapAllocatesToDays(t *testing.T) {
	start := dayStart(testNow, 2)
	s := session(start, start+90*60_000, 0, "phd")

	days := Heatmap([]store.Session{s}, testNow)
	cell := days[len(days)-3]
	if cell.Key != timeutil.DayKey(time.UnixMilli(start)) {
		t.Fatalf("unexpected cell %s", cell.Key)
	}
	if cell.Level != 3 {
		t.Errorf("level = %d, want 3 for 90m", cell.Level)
	}
}

// ==================== writing velocity ====================

func TestWordsPerHour(t *testing.T) {
	start := dayStart(testNow, 0)
	sessions := []store.Session{session(start, start+5*timeutil.HourMs, 0, "phd")}
	logs := []store.DailyLog{{Date: timeutil.DayKey(testNow), WordCount: 1500}}

	points := WordsPerHour(sessions, logs, time.UTC)
	if len(points) != 1 {
		t.Fatalf("points = %d, want 1", len(points))
	}
	if points[0].WPH != 300 {
		t.Errorf("wph = %d, want 300", points[0].WPH)
	}
}

func TestWordsPerHourFloorsTinyDays(t *testing.T) {
	start := dayStart(testNow, 0)
	// 5 minutes tracked, 200 words: below the ratio floor.
	sessions := []store.Session{session(start, start+5*60_000, 0, "phd")}
	logs := []store.DailyLog{{Date: timeutil.DayKey(testNow), WordCount: 200}}

	points := WordsPerHour(sessions, logs, time.UTC)
	if points[0].WPH != 0 {
		t.Errorf("wph = %d, want 0 below floor", points[0].WPH)
	}
}

func TestWeeklySummary(t *testing.T) {
	d0, d1 := dayStart(testNow, 0), dayStart(testNow, 1)
	sessions := []store.Session{
		session(d1, d1+2*timeutil.HourMs, 0, "phd"),
		session(d0, d0+2*timeutil.HourMs, 0, "phd"),
	}
	logs := []store.DailyLog{
		{Date: timeutil.DayKeyMs(d1, time.UTC), WordCount: 600},
		{Date: timeutil.DayKeyMs(d0, time.UTC), WordCount: 600},
		{Date: "2024-01-01", WordCount: 9999}, // outside the window
	}

	sum := WeeklySummary(sessions, logs, testNow)
	if sum.Words != 1200 {
		t.Errorf("words = %d, want 1200", sum.Words)
	}
	if sum.ActiveDays != 2 {
		t.Errorf("active days = %d, want 2", sum.ActiveDays)
	}
	if sum.AvgWPH != 300 {
		t.Errorf("avg wph = %d, want 300", sum.AvgWPH)
	}
}

func TestWeeklySummaryWindowIsSevenDates(t *testing.T) {
	logs := []store.DailyLog{
		{Date: timeutil.DayKeyMs(dayStart(testNow, 6), time.UTC), WordCount: 400},
		{Date: timeutil.DayKeyMs(dayStart(testNow, 7), time.UTC), WordCount: 9999},
	}

	sum := WeeklySummary(nil, logs, testNow)
	if sum.Words != 400 {
		t.Errorf("words = %d, want only the 6-days-ago log counted", sum.Words)
	}
	if sum.ActiveDays != 1 {
		t.Errorf("active days = %d, want 1", sum.ActiveDays)
	}
}

func TestWeeklySummaryFloorsUnderHalfHour(t *testing.T) {
	d0 := dayStart(testNow, 0)
	sessions := []store.Session{session(d0, d0+10*60_000, 0, "phd")}
	logs := []store.DailyLog{{Date: timeutil.DayKeyMs(d0, time.UTC), WordCount: 500}}

	sum := WeeklySummary(sessions, logs, testNow)
	if sum.AvgWPH != 0 {
		t.Errorf("avg wph = %d, want 0 under half an hour", sum.AvgWPH)
	}
}

// ==================== streak ====================

func TestStreakCountsBackFromToday(t *testing.T) {
	logs := []store.DailyLog{
		{Date: timeutil.DayKeyMs(dayStart(testNow, 0), time.UTC), WordCount: 100},
		{Date: timeutil.DayKeyMs(dayStart(testNow, 1), time.UTC), WordCount: 100},
		{Date: timeutil.DayKeyMs(dayStart(testNow, 2), time.UTC), WordCount: 100},
		// gap at 3 days ago
		{Date: timeutil.DayKeyMs(dayStart(testNow, 4), time.UTC), WordCount: 100},
	}
	if got := Streak(logs, testNow); got != 3 {
		t.Errorf("streak = %d, want 3", got)
	}
}

func TestStreakSurvivesMissingToday(t *testing.T) {
	logs := []store.DailyLog{
		{Date: timeutil.DayKeyMs(dayStart(testNow, 1), time.UTC), WordCount: 100},
		{Date: timeutil.DayKeyMs(dayStart(testNow, 2), time.UTC), WordCount: 100},
	}
	if got := Streak(logs, testNow); got != 2 {
		t.Errorf("streak = %d, want 2 before today's entry", got)
	}
}

func TestStreakIgnoresZeroWordDays(t *testing.T) {
	logs := []store.DailyLog{
		{Date: timeutil.DayKeyMs(dayStart(testNow, 0), time.UTC), WordCount: 0, Note: "stuck"},
		{Date: timeutil.DayKeyMs(dayStart(testNow, 1), time.UTC), WordCount: 100},
	}
	if got := Streak(logs, testNow); got != 1 {
		t.Errorf("streak = %d, want 1", got)
	}
}

func TestStreakEmpty(t *testing.T) {
	if got := Streak(nil, testNow); got != 0 {
		t.Errorf("streak = %d, want 0", got)
	}
}

// ==================== project scoping ====================

func TestScopeSessionsByProjectAndCategory(t *testing.T) {
	p := store.Project{ID: "proj", CategoryID: "phd"}
	tagged := session(0, timeutil.HourMs, 0, "other")
	tagged.ProjectID = "proj"
	legacy := session(0, timeutil.HourMs, 0, "phd")
	unrelated := session(0, timeutil.HourMs, 0, "admin")

	got := ScopeSessions([]store.Session{tagged, legacy, unrelated}, p)
	if len(got) != 2 {
		t.Fatalf("scoped = %d sessions, want 2", len(got))
	}
}

func TestScopeLogsNarrowsBreakdown(t *testing.T) {
	logs := []store.DailyLog{
		{Date: "2025-03-10", WordCount: 500, ProjectBreakdown: map[string]int64{"proj": 300, "other": 200}},
		{Date: "2025-03-11", WordCount: 400, ProjectBreakdown: map[string]int64{"other": 400}},
	}
	got := ScopeLogs(logs, "proj")
	if len(got) != 1 {
		t.Fatalf("scoped = %d logs, want 1", len(got))
	}
	if got[0].WordCount != 300 {
		t.Errorf("scoped words = %d, want 300", got[0].WordCount)
	}
}

func TestProjectProgress(t *testing.T) {
	p := store.Project{
		ID:       store.DefaultThesisProjectID,
		Goal:     10000,
		Deadline: testNow.AddDate(0, 0, 10).UnixMilli(),
	}
	logs := []store.DailyLog{
		{Date: "2025-03-10", WordCount: 2000}, // legacy, attributes to the thesis
		{Date: "2025-03-11", WordCount: 500, ProjectBreakdown: map[string]int64{p.ID: 500}},
	}

	prog := ProjectProgress(logs, p, testNow)
	if prog.Words != 2500 {
		t.Errorf("words = %d, want 2500", prog.Words)
	}
	if prog.Percent != 25 {
		t.Errorf("percent = %v, want 25", prog.Percent)
	}
	if prog.DaysLeft != 10 {
		t.Errorf("days left = %d, want 10", prog.DaysLeft)
	}
}

// ==================== peak hours ====================

func TestPeakHours(t *testing.T) {
	nine := timeutil.StartOfDay(testNow).Add(9 * time.Hour).UnixMilli()
	sessions := []store.Session{
		session(nine, nine+timeutil.HourMs, 0, "phd"),
		session(nine-timeutil.DayMs, nine-timeutil.DayMs+2*timeutil.HourMs, 0, "phd"),
	}

	hours := PeakHours(sessions, time.UTC)
	if hours[9].Count != 2 {
		t.Fatalf("09:00 count = %d, want 2", hours[9].Count)
	}
	if hours[9].AvgMinutes != 90 {
		t.Errorf("09:00 avg = %v, want 90", hours[9].AvgMinutes)
	}
	if hours[3].Count != 0 || hours[3].Hour != 3 {
		t.Errorf("empty slot malformed: %+v", hours[3])
	}
}
