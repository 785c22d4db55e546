package timeutil

import (
	"testing"
	"time"
)

func TestWallAndActiveMs(t *testing.T) {
	if got := WallMs(100, 500); got != 400 {
		t.Fatalf("WallMs = %d, want 400", got)
	}
	if got := WallMs(500, 100); got != 0 {
		t.Fatalf("WallMs inverted = %d, want 0", got)
	}
	if got := ActiveMs(100, 500, 150); got != 250 {
		t.Fatalf("ActiveMs = %d, want 250", got)
	}
	// Paused beyond the wall span clamps to zero.
	if got := ActiveMs(100, 500, 9999); got != 0 {
		t.Fatalf("ActiveMs overclamped = %d, want 0", got)
	}
}

func TestActiveNeverExceedsWall(t *testing.T) {
	cases := []struct{ start, end, paused int64 }{
		{0, 0, 0},
		{0, 1000, 0},
		{0, 1000, 400},
		{0, 1000, 1000},
		{5000, 2000, 100},
	}
	for _, c := range cases {
		w := WallMs(c.start, c.end)
		a := ActiveMs(c.start, c.end, c.paused)
		if a < 0 || w < 0 {
			t.Fatalf("negative duration for %+v", c)
		}
		if a > w {
			t.Fatalf("active %d > wall %d for %+v", a, w, c)
		}
	}
}

func TestOverlapActiveMsBoundarySplit(t *testing.T) {
	// 22:00 day1 to 02:00 day2, no pause: exactly half of the 4h active
	// time must land on each side of midnight.
	midnight := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC).UnixMilli()
	start := midnight - 2*int64(time.Hour/time.Millisecond)
	end := midnight + 2*int64(time.Hour/time.Millisecond)

	twoHours := 2 * int64(time.Hour/time.Millisecond)
	if got := OverlapActiveMs(start, end, 0, midnight-DayMs, midnight); got != twoHours {
		t.Fatalf("before-midnight share = %d, want %d", got, twoHours)
	}
	if got := OverlapActiveMs(start, end, 0, midnight, midnight+DayMs); got != twoHours {
		t.Fatalf("after-midnight share = %d, want %d", got, twoHours)
	}
}

func TestOverlapActiveMsAdditive(t *testing.T) {
	start := int64(1_700_000_000_000)
	end := start + 7*3_600_000
	paused := int64(1_234_567)

	b0 := start - 3_600_000
	b1 := start + 2*3_600_000
	b2 := end + 3_600_000

	whole := OverlapActiveMs(start, end, paused, b0, b2)
	split := OverlapActiveMs(start, end, paused, b0, b1) + OverlapActiveMs(start, end, paused, b1, b2)

	diff := whole - split
	if diff < -2 || diff > 2 {
		t.Fatalf("partition not additive: whole=%d split=%d", whole, split)
	}
}

func TestOverlapActiveMsDegenerate(t *testing.T) {
	if got := OverlapActiveMs(100, 100, 0, 0, 1000); got != 0 {
		t.Fatalf("zero-wall session overlap = %d, want 0", got)
	}
	if got := OverlapActiveMs(100, 500, 0, 600, 1000); got != 0 {
		t.Fatalf("disjoint range overlap = %d, want 0", got)
	}
}

func TestStartOfWeekMondayAnchor(t *testing.T) {
	// 2024-03-03 is a Sunday; its week starts Monday 2024-02-26.
	sun := time.Date(2024, 3, 3, 15, 4, 5, 0, time.UTC)
	if got := StartOfWeek(sun); !got.Equal(time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("StartOfWeek(sunday) = %v", got)
	}
	mon := time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC)
	if got := StartOfWeek(mon); !got.Equal(mon) {
		t.Fatalf("StartOfWeek(monday) = %v", got)
	}
}

func TestDayKey(t *testing.T) {
	d := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	if got := DayKey(d); got != "2024-03-01" {
		t.Fatalf("DayKey = %q", got)
	}
	if got := DayKeyMs(d.UnixMilli(), time.UTC); got != "2024-03-01" {
		t.Fatalf("DayKeyMs = %q", got)
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatHM(0); got != "0m" {
		t.Fatalf("FormatHM(0) = %q", got)
	}
	if got := FormatHM(3*3_600_000 + 20*60_000); got != "3h 20m" {
		t.Fatalf("FormatHM = %q", got)
	}
	if got := FormatClock(2*time.Hour + 10*time.Minute + 33*time.Second); got != "02:10:33" {
		t.Fatalf("FormatClock = %q", got)
	}
	if got := Hours(90 * 60_000); got != 1.5 {
		t.Fatalf("Hours = %v", got)
	}
}
