// Package holiday computes US retail holiday dates for any year. Floating
// holidays (Memorial Day, Thanksgiving, Easter) are derived from their
// rules; everything is a pure function of (holiday, year) with no state.
package holiday

import (
	"errors"
	"fmt"
	"time"
)

// Holiday identifies a tracked retail holiday.
type Holiday string

const (
	NewYearsDay     Holiday = "new_years_day"
	MLKDay          Holiday = "mlk_day"
	ValentinesDay   Holiday = "valentines_day"
	PresidentsDay   Holiday = "presidents_day"
	Easter          Holiday = "easter"
	MothersDay      Holiday = "mothers_day"
	MemorialDay     Holiday = "memorial_day"
	FathersDay      Holiday = "fathers_day"
	IndependenceDay Holiday = "independence_day"
	BackToSchool    Holiday = "back_to_school"
	EndOfSummer     Holiday = "end_of_summer"
	LaborDay        Holiday = "labor_day"
	ColumbusDay     Holiday = "columbus_day"
	Halloween       Holiday = "halloween"
	VeteransDay     Holiday = "veterans_day"
	Thanksgiving    Holiday = "thanksgiving"
	BlackFriday     Holiday = "black_friday"
	CyberMonday     Holiday = "cyber_monday"
	ChristmasEve    Holiday = "christmas_eve"
	Christmas       Holiday = "christmas"
	NewYearsEve     Holiday = "new_years_eve"
)

// ErrUnknownHoliday is returned by DateOf for unrecognized holiday ids.
var ErrUnknownHoliday = errors.New("unknown holiday")

// All lists every holiday in calendar order. The order is fixed and load
// bearing: anchor detection uses first-match-wins over this slice.
var All = []Holiday{
	NewYearsDay, MLKDay, ValentinesDay, PresidentsDay, Easter, MothersDay,
	MemorialDay, FathersDay, IndependenceDay, BackToSchool, EndOfSummer,
	LaborDay, ColumbusDay, Halloween, VeteransDay, Thanksgiving, BlackFriday,
	CyberMonday, ChristmasEve, Christmas, NewYearsEve,
}

var names = map[Holiday]string{
	NewYearsDay:     "New Year's Day",
	MLKDay:          "Martin Luther King Jr. Day",
	ValentinesDay:   "Valentine's Day",
	PresidentsDay:   "Presidents' Day",
	Easter:          "Easter",
	MothersDay:      "Mother's Day",
	MemorialDay:     "Memorial Day",
	FathersDay:      "Father's Day",
	IndependenceDay: "Independence Day",
	BackToSchool:    "Back to School",
	EndOfSummer:     "End of Summer",
	LaborDay:        "Labor Day",
	ColumbusDay:     "Columbus Day",
	Halloween:       "Halloween",
	VeteransDay:     "Veterans Day",
	Thanksgiving:    "Thanksgiving",
	BlackFriday:     "Black Friday",
	CyberMonday:     "Cyber Monday",
	ChristmasEve:    "Christmas Eve",
	Christmas:       "Christmas",
	NewYearsEve:     "New Year's Eve",
}

// Name returns the human-readable holiday name, or the raw id if unknown.
func (h Holiday) Name() string {
	if n, ok := names[h]; ok {
		return n
	}
	return string(h)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// nthWeekday returns the nth occurrence (1-based) of a weekday in a month:
// find the first match, then add 7*(n-1) days.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := day(year, month, 1)
	ahead := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, ahead+7*(n-1))
}

// lastWeekday walks backward from month-end to the final occurrence of a
// weekday in a month.
func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	last := day(year, month, 1).AddDate(0, 1, -1)
	back := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.AddDate(0, 0, -back)
}

// easterSunday computes Easter via the Anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	dd := (h+l-7*m+114)%31 + 1
	return day(year, time.Month(month), dd)
}

// DateOf returns the calendar date of a holiday in a given year, or
// ErrUnknownHoliday for ids it does not recognize.
func DateOf(h Holiday, year int) (time.Time, error) {
	switch h {
	case NewYearsDay:
		return day(year, time.January, 1), nil
	case ValentinesDay:
		return day(year, time.February, 14), nil
	case IndependenceDay:
		return day(year, time.July, 4), nil
	case BackToSchool:
		return day(year, time.August, 15), nil
	case Halloween:
		return day(year, time.October, 31), nil
	case VeteransDay:
		return day(year, time.November, 11), nil
	case ChristmasEve:
		return day(year, time.December, 24), nil
	case Christmas:
		return day(year, time.December, 25), nil
	case NewYearsEve:
		return day(year, time.December, 31), nil
	case MLKDay:
		return nthWeekday(year, time.January, time.Monday, 3), nil
	case PresidentsDay:
		return nthWeekday(year, time.February, time.Monday, 3), nil
	case Easter:
		return easterSunday(year), nil
	case MothersDay:
		return nthWeekday(year, time.May, time.Sunday, 2), nil
	case MemorialDay:
		return lastWeekday(year, time.May, time.Monday), nil
	case FathersDay:
		return nthWeekday(year, time.June, time.Sunday, 3), nil
	case LaborDay:
		return nthWeekday(year, time.September, time.Monday, 1), nil
	case ColumbusDay:
		return nthWeekday(year, time.October, time.Monday, 2), nil
	case Thanksgiving:
		return nthWeekday(year, time.November, time.Thursday, 4), nil
	case BlackFriday:
		t, _ := DateOf(Thanksgiving, year)
		return t.AddDate(0, 0, 1), nil
	case CyberMonday:
		t, _ := DateOf(Thanksgiving, year)
		return t.AddDate(0, 0, 4), nil
	case EndOfSummer:
		t, _ := DateOf(LaborDay, year)
		return t.AddDate(0, 0, -2), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownHoliday, h)
	}
}

// Occurrence is a holiday resolved to a concrete date.
type Occurrence struct {
	Holiday Holiday
	Date    time.Time
}

// ForYear resolves every holiday for a year, in the fixed evaluation order.
func ForYear(year int) []Occurrence {
	out := make([]Occurrence, 0, len(All))
	for _, h := range All {
		d, err := DateOf(h, year)
		if err != nil {
			continue
		}
		out = append(out, Occurrence{Holiday: h, Date: d})
	}
	return out
}

// Nearest finds the first holiday in evaluation order whose date falls
// within maxDays of target, in target's year. Returns nil when none
// qualifies.
func Nearest(target time.Time, maxDays int) *Occurrence {
	for _, occ := range ForYear(target.Year()) {
		diff := occ.Date.Sub(target).Hours() / 24
		if diff < 0 {
			diff = -diff
		}
		if int(diff) <= maxDays {
			o := occ
			return &o
		}
	}
	return nil
}
