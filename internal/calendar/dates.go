// Package calendar derives date views over tasks. Everything here is pure:
// callers pass the cursor and "now" explicitly.
package calendar

import (
	"time"
)

// DayLayout is the calendar-date form used for task due dates
const DayLayout = "2006-01-02"

// View selects the calendar granularity
type View string

const (
	ViewMonth View = "month"
	ViewWeek  View = "week"
	ViewDay   View = "day"
)

// Valid reports whether v is a known view
func (v View) Valid() bool {
	switch v {
	case ViewMonth, ViewWeek, ViewDay:
		return true
	}
	return false
}

// ParseDay parses a YYYY-MM-DD date in loc. Full RFC3339 timestamps are accepted too and
// reduced to their calendar day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(DayLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return StartOfDay(t.In(loc)), nil
}

// FormatDay renders t as YYYY-MM-DD
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in a's location
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween counts calendar days from a to b (negative when b is earlier).
// Both are taken in a's location so DST shifts do not skew the count.
func DaysBetween(a, b time.Time) int {
	loc := a.Location()
	ay, am, ad := a.Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 12, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 12, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// HoursUntil returns the hours from now to t; negative when t has passed
func HoursUntil(t, now time.Time) float64 {
	return t.Sub(now).Hours()
}

// IsOverdue reports whether t is in the past relative to now
func IsOverdue(t, now time.Time) bool {
	return HoursUntil(t, now) < 0
}

// Shift moves the cursor by n periods of the given view
func Shift(view View, cursor time.Time, n int) time.Time {
	switch view {
	case ViewMonth:
		y, m, _ := cursor.Date()
		first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, cursor.Location())
		// Clamp the day so Jan 31 + 1 month lands on the last day of February.
		day := cursor.Day()
		if last := daysIn(first); day > last {
			day = last
		}
		return time.Date(first.Year(), first.Month(), day, cursor.Hour(), cursor.Minute(), 0, 0, cursor.Location())
	case ViewWeek:
		return cursor.AddDate(0, 0, 7*n)
	default:
		return cursor.AddDate(0, 0, n)
	}
}

func daysIn(monthStart time.Time) int {
	return monthStart.AddDate(0, 1, -1).Day()
}
