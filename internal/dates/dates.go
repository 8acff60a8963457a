// Package dates provides a civil calendar day for the fixed local zone the
// parking lots live in. All booking logic compares Days, never raw strings;
// the canonical ISO form only appears at the storage and template boundary.
package dates

import (
	"fmt"
	"time"
)

// ISO is the canonical on-disk and on-wire day format.
const ISO = "2006-01-02"

// Day is a calendar date without time-of-day.
type Day struct {
	t time.Time // midnight UTC, date part only
}

// Parse parses a strict zero-padded YYYY-MM-DD string.
func Parse(s string) (Day, error) {
	t, err := time.Parse(ISO, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return Day{t: t}, nil
}

// FromTime truncates a wall-clock instant to its calendar day in t's zone.
func FromTime(t time.Time) Day {
	y, m, d := t.Date()
	return Day{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current day in loc.
func Today(loc *time.Location) Day {
	return FromTime(time.Now().In(loc))
}

func (d Day) String() string { return d.t.Format(ISO) }

func (d Day) IsZero() bool { return d.t.IsZero() }

// AddDays returns the day n calendar days later (n may be negative).
func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

func (d Day) Before(o Day) bool { return d.t.Before(o.t) }
func (d Day) After(o Day) bool  { return d.t.After(o.t) }
func (d Day) Equal(o Day) bool  { return d.t.Equal(o.t) }

// Weekday numbers days Monday=0 .. Sunday=6.
func (d Day) Weekday() int {
	return (int(d.t.Weekday()) + 6) % 7
}

// DaysUntil returns the number of calendar days from d to o (negative if o
// is earlier).
func (d Day) DaysUntil(o Day) int {
	return int(o.t.Sub(d.t) / (24 * time.Hour))
}

// Range returns all days from start to end inclusive. An inverted range
// yields nil.
func Range(start, end Day) []Day {
	if end.Before(start) {
		return nil
	}
	out := make([]Day, 0, start.DaysUntil(end)+1)
	for cur := start; !cur.After(end); cur = cur.AddDays(1) {
		out = append(out, cur)
	}
	return out
}
