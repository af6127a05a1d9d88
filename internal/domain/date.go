package domain

import "time"

// Day constructs a calendar date at midnight UTC. All engine dates are
// day-granular; normalizing to midnight UTC keeps comparisons exact.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Midnight truncates a timestamp to its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)).Hours() / 24)
}

// RangesOverlap reports whether [start1, end1] and [start2, end2] intersect
// after extending both ranges by proximityDays on each side.
func RangesOverlap(start1, end1, start2, end2 time.Time, proximityDays int) bool {
	pad := time.Duration(proximityDays) * 24 * time.Hour
	return !start1.Add(-pad).After(end2.Add(pad)) && !start2.Add(-pad).After(end1.Add(pad))
}
