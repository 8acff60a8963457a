package dates_test

import (
	"testing"
	"time"

	"parkshare/internal/dates"
)

func TestParseAndString(t *testing.T) {
	d, err := dates.Parse("2025-06-10")
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "2025-06-10" {
		t.Fatalf("round trip broke: %s", d)
	}

	for _, bad := range []string{"", "2025-6-10", "10.06.2025", "2025-13-01", "2025-06-10T00:00"} {
		if _, err := dates.Parse(bad); err == nil {
			t.Fatalf("parsed %q without error", bad)
		}
	}
}

func TestWeekdayMondayZero(t *testing.T) {
	// 2025-06-09 is a Monday.
	d, _ := dates.Parse("2025-06-09")
	for i := 0; i < 7; i++ {
		if got := d.AddDays(i).Weekday(); got != i {
			t.Fatalf("day %s: want weekday %d, got %d", d.AddDays(i), i, got)
		}
	}
}

func TestRangeInclusive(t *testing.T) {
	start, _ := dates.Parse("2025-06-10")
	end, _ := dates.Parse("2025-06-12")
	days := dates.Range(start, end)
	if len(days) != 3 {
		t.Fatalf("want 3 days, got %d", len(days))
	}
	if days[0].String() != "2025-06-10" || days[2].String() != "2025-06-12" {
		t.Fatalf("bad bounds: %v", days)
	}
	if got := dates.Range(end, start); got != nil {
		t.Fatalf("inverted range should be nil, got %v", got)
	}
}

func TestDaysUntilAndCompare(t *testing.T) {
	a, _ := dates.Parse("2025-06-10")
	b, _ := dates.Parse("2025-06-20")
	if a.DaysUntil(b) != 10 || b.DaysUntil(a) != -10 {
		t.Fatalf("DaysUntil wrong: %d %d", a.DaysUntil(b), b.DaysUntil(a))
	}
	if !a.Before(b) || !b.After(a) || a.Equal(b) {
		t.Fatal("comparison operators inconsistent")
	}
}

func TestFromTimeUsesZoneDate(t *testing.T) {
	loc := time.FixedZone("east", 2*3600)
	// 23:30 UTC on the 9th is already the 10th two hours east.
	instant := time.Date(2025, 6, 9, 23, 30, 0, 0, time.UTC)
	if got := dates.FromTime(instant.In(loc)).String(); got != "2025-06-10" {
		t.Fatalf("want 2025-06-10, got %s", got)
	}
}
