package holiday

import "time"

// LeapPolicy controls how a Feb 29 source date maps into a non-leap target
// year. The right answer is a product choice, so it is configuration.
type LeapPolicy string

const (
	// LeapClamp maps Feb 29 to Feb 28 of the target year.
	LeapClamp LeapPolicy = "clamp"
	// LeapRoll maps Feb 29 to Mar 1 of the target year.
	LeapRoll LeapPolicy = "roll"
)

// Valid reports whether p is a known policy.
func (p LeapPolicy) Valid() bool { return p == LeapClamp || p == LeapRoll }

// ShiftYear replaces the year of a date, preserving month and day. A Feb 29
// source in a non-leap target year resolves per policy.
func ShiftYear(d time.Time, toYear int, policy LeapPolicy) time.Time {
	if d.Month() == time.February && d.Day() == 29 && !isLeap(toYear) {
		if policy == LeapRoll {
			return day(toYear, time.March, 1)
		}
		return day(toYear, time.February, 28)
	}
	return day(toYear, d.Month(), d.Day())
}

// AdjustYear moves a date from one year to another relative to a holiday
// anchor: the day offset from the anchor's date in the source year is
// preserved against the anchor's date in the target year.
func AdjustYear(d time.Time, fromYear, toYear int, anchor Holiday) (time.Time, error) {
	from, err := DateOf(anchor, fromYear)
	if err != nil {
		return time.Time{}, err
	}
	to, err := DateOf(anchor, toYear)
	if err != nil {
		return time.Time{}, err
	}
	offsetDays := int(d.Sub(from).Hours() / 24)
	return to.AddDate(0, 0, offsetDays), nil
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
