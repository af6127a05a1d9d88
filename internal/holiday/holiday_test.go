package holiday_test

import (
	"errors"
	"testing"
	"time"

	"github.com/salewatch/salewatch/internal/holiday"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFixedDates(t *testing.T) {
	cases := []struct {
		h    holiday.Holiday
		year int
		want time.Time
	}{
		{holiday.NewYearsDay, 2024, date(2024, time.January, 1)},
		{holiday.IndependenceDay, 2023, date(2023, time.July, 4)},
		{holiday.Christmas, 2025, date(2025, time.December, 25)},
		{holiday.Halloween, 2024, date(2024, time.October, 31)},
	}
	for _, c := range cases {
		got, err := holiday.DateOf(c.h, c.year)
		if err != nil {
			t.Fatalf("DateOf(%s, %d): %v", c.h, c.year, err)
		}
		if !got.Equal(c.want) {
			t.Errorf("DateOf(%s, %d) = %s, want %s", c.h, c.year, got, c.want)
		}
	}
}

func TestFloatingDates(t *testing.T) {
	cases := []struct {
		h    holiday.Holiday
		year int
		want time.Time
	}{
		{holiday.MemorialDay, 2023, date(2023, time.May, 29)},
		{holiday.MemorialDay, 2024, date(2024, time.May, 27)},
		{holiday.MLKDay, 2024, date(2024, time.January, 15)},
		{holiday.LaborDay, 2024, date(2024, time.September, 2)},
		{holiday.Thanksgiving, 2023, date(2023, time.November, 23)},
		{holiday.Thanksgiving, 2024, date(2024, time.November, 28)},
		{holiday.BlackFriday, 2024, date(2024, time.November, 29)},
		{holiday.CyberMonday, 2024, date(2024, time.December, 2)},
		{holiday.Easter, 2024, date(2024, time.March, 31)},
		{holiday.Easter, 2025, date(2025, time.April, 20)},
		{holiday.MothersDay, 2024, date(2024, time.May, 12)},
	}
	for _, c := range cases {
		got, err := holiday.DateOf(c.h, c.year)
		if err != nil {
			t.Fatalf("DateOf(%s, %d): %v", c.h, c.year, err)
		}
		if !got.Equal(c.want) {
			t.Errorf("DateOf(%s, %d) = %s, want %s", c.h, c.year, got.Format("2006-01-02"), c.want.Format("2006-01-02"))
		}
	}
}

// Floating-rule holidays must land on their rule's weekday in every year.
func TestFloatingWeekdays(t *testing.T) {
	rules := map[holiday.Holiday]time.Weekday{
		holiday.MLKDay:        time.Monday,
		holiday.PresidentsDay: time.Monday,
		holiday.MothersDay:    time.Sunday,
		holiday.MemorialDay:   time.Monday,
		holiday.FathersDay:    time.Sunday,
		holiday.LaborDay:      time.Monday,
		holiday.ColumbusDay:   time.Monday,
		holiday.Thanksgiving:  time.Thursday,
		holiday.Easter:        time.Sunday,
	}
	for year := 2020; year <= 2032; year++ {
		for h, wd := range rules {
			got, err := holiday.DateOf(h, year)
			if err != nil {
				t.Fatalf("DateOf(%s, %d): %v", h, year, err)
			}
			if got.Weekday() != wd {
				t.Errorf("%s %d fell on %s, want %s", h, year, got.Weekday(), wd)
			}
		}
	}
}

func TestUnknownHoliday(t *testing.T) {
	_, err := holiday.DateOf("festivus", 2024)
	if !errors.Is(err, holiday.ErrUnknownHoliday) {
		t.Fatalf("expected ErrUnknownHoliday, got %v", err)
	}
}

func TestNearest(t *testing.T) {
	// 2023-05-26 is 3 days before Memorial Day 2023 (May 29).
	occ := holiday.Nearest(date(2023, time.May, 26), 3)
	if occ == nil || occ.Holiday != holiday.MemorialDay {
		t.Fatalf("Nearest = %+v, want memorial_day", occ)
	}

	// Mid-March 2023 has no holiday within 3 days.
	if occ := holiday.Nearest(date(2023, time.March, 15), 3); occ != nil {
		t.Fatalf("expected no holiday near mid-March, got %s", occ.Holiday)
	}
}

func TestAdjustYearPreservesOffset(t *testing.T) {
	// Memorial Day 2023-05-29 -> 2024-05-27. A date 3 days before the 2023
	// holiday must land 3 days before the 2024 holiday.
	got, err := holiday.AdjustYear(date(2023, time.May, 26), 2023, 2024, holiday.MemorialDay)
	if err != nil {
		t.Fatalf("AdjustYear: %v", err)
	}
	if want := date(2024, time.May, 24); !got.Equal(want) {
		t.Errorf("AdjustYear = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestAdjustYearUnknownAnchor(t *testing.T) {
	_, err := holiday.AdjustYear(date(2023, time.May, 26), 2023, 2024, "festivus")
	if !errors.Is(err, holiday.ErrUnknownHoliday) {
		t.Fatalf("expected ErrUnknownHoliday, got %v", err)
	}
}

func TestShiftYearLeapPolicies(t *testing.T) {
	feb29 := date(2024, time.February, 29)
	if got := holiday.ShiftYear(feb29, 2025, holiday.LeapClamp); !got.Equal(date(2025, time.February, 28)) {
		t.Errorf("clamp: got %s", got.Format("2006-01-02"))
	}
	if got := holiday.ShiftYear(feb29, 2025, holiday.LeapRoll); !got.Equal(date(2025, time.March, 1)) {
		t.Errorf("roll: got %s", got.Format("2006-01-02"))
	}
	// Leap target year keeps Feb 29.
	if got := holiday.ShiftYear(feb29, 2028, holiday.LeapClamp); !got.Equal(date(2028, time.February, 29)) {
		t.Errorf("leap target: got %s", got.Format("2006-01-02"))
	}
}
