package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaleWindow is the deduplicated canonical record of one real-world
// promotional event, built from one or more observations. Windows are
// immutable once a prediction cycle has consumed them; later observations
// for the same period open new windows instead.
type SaleWindow struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	BrandID         uuid.UUID   `json:"brand_id" db:"brand_id"`
	Name            string      `json:"name" db:"name"`
	DiscountSummary string      `json:"discount_summary" db:"discount_summary"`
	Discount        Discount    `json:"discount"`
	Start           time.Time   `json:"start" db:"start_date"`
	End             time.Time   `json:"end" db:"end_date"`
	ObservationIDs  []uuid.UUID `json:"observation_ids" db:"observation_ids"`
	HolidayAnchor   string      `json:"holiday_anchor,omitempty" db:"holiday_anchor"`
	Categories      []string    `json:"categories" db:"categories"`
	Sitewide        bool        `json:"sitewide" db:"is_sitewide"`
	Year            int         `json:"year" db:"year"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

// Validate checks the window invariants: ordered dates, at least one
// contributing observation with no duplicates, and year matching the start
// date.
func (w *SaleWindow) Validate() error {
	if w.Start.After(w.End) {
		return fmt.Errorf("sale window %s: start %s after end %s", w.ID, w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
	}
	if len(w.ObservationIDs) == 0 {
		return fmt.Errorf("sale window %s: no contributing observations", w.ID)
	}
	seen := make(map[uuid.UUID]struct{}, len(w.ObservationIDs))
	for _, id := range w.ObservationIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("sale window %s: duplicate observation %s", w.ID, id)
		}
		seen[id] = struct{}{}
	}
	if w.Year != w.Start.Year() {
		return fmt.Errorf("sale window %s: year %d does not match start date %s", w.ID, w.Year, w.Start.Format("2006-01-02"))
	}
	return nil
}

// Duration returns the window length in days, inclusive of both endpoints.
func (w *SaleWindow) Duration() int {
	return DaysBetween(w.Start, w.End) + 1
}
