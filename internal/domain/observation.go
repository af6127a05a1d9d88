package domain

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType enumerates the closed set of discount classifications.
type DiscountType string

const (
	DiscountPercentOff   DiscountType = "percent_off"
	DiscountUpTo         DiscountType = "up_to"
	DiscountBOGO         DiscountType = "bogo"
	DiscountFixedPrice   DiscountType = "fixed_price"
	DiscountFreeShipping DiscountType = "free_shipping"
	DiscountOther        DiscountType = "other"
)

// Discount is a tagged-variant discount classification. Value is the
// percent-off or dollar figure where the type carries one; MaxValue is the
// ceiling for "up to" promotions.
type Discount struct {
	Type     DiscountType `json:"type" db:"discount_type"`
	Value    *float64     `json:"value,omitempty" db:"discount_value"`
	MaxValue *float64     `json:"max_value,omitempty" db:"discount_max"`
}

// SaleObservation is one raw extracted sighting of a promotion. Many
// observations may describe the same real-world event; the deduplicator
// folds them into sale windows. Observations are immutable once created.
type SaleObservation struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	BrandID            uuid.UUID  `json:"brand_id" db:"brand_id"`
	Start              *time.Time `json:"start,omitempty" db:"sale_start"`
	End                *time.Time `json:"end,omitempty" db:"sale_end"`
	Discount           Discount   `json:"discount"`
	Sitewide           bool       `json:"sitewide" db:"is_sitewide"`
	Categories         []string   `json:"categories" db:"categories"`
	ExcludedCategories []string   `json:"excluded_categories" db:"excluded_categories"`
	Confidence         float64    `json:"confidence" db:"confidence"`
	SourceRef          string     `json:"source_ref" db:"source_ref"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

// DateRange returns the observation's effective date range. An observation
// without a start date cannot anchor or join a window, so ok is false. A
// missing end date collapses to a single-day range.
func (o *SaleObservation) DateRange() (start, end time.Time, ok bool) {
	if o.Start == nil {
		return time.Time{}, time.Time{}, false
	}
	start = Midnight(*o.Start)
	end = start
	if o.End != nil && !o.End.Before(*o.Start) {
		end = Midnight(*o.End)
	}
	return start, end, true
}
