package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Prediction is a projected future occurrence of a historical sale window.
// Read-only after creation except for CalendarEventID, which the
// calendar-sync collaborator writes back.
type Prediction struct {
	ID              uuid.UUID `json:"id" db:"id"`
	BrandID         uuid.UUID `json:"brand_id" db:"brand_id"`
	SourceWindowID  uuid.UUID `json:"source_window_id" db:"source_window_id"`
	TargetYear      int       `json:"target_year" db:"target_year"`
	PredictedStart  time.Time `json:"predicted_start" db:"predicted_start"`
	PredictedEnd    time.Time `json:"predicted_end" db:"predicted_end"`
	DiscountSummary string    `json:"discount_summary" db:"discount_summary"`
	DiscountValue   *float64  `json:"discount_value,omitempty" db:"discount_value"`
	HolidayAnchor   string    `json:"holiday_anchor,omitempty" db:"holiday_anchor"`
	Confidence      float64   `json:"confidence" db:"confidence"`
	CalendarEventID string    `json:"calendar_event_id,omitempty" db:"calendar_event_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// NewPrediction builds a prediction and enforces its invariants: ordered
// dates and confidence in [0,1]. Code that would violate these is a defect,
// so the constructor is the only way services create predictions.
func NewPrediction(brandID, sourceWindowID uuid.UUID, targetYear int, start, end time.Time, confidence float64) (*Prediction, error) {
	if start.After(end) {
		return nil, fmt.Errorf("prediction for window %s: start %s after end %s",
			sourceWindowID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("prediction for window %s: confidence %.3f outside [0,1]", sourceWindowID, confidence)
	}
	return &Prediction{
		ID:             uuid.New(),
		BrandID:        brandID,
		SourceWindowID: sourceWindowID,
		TargetYear:     targetYear,
		PredictedStart: Midnight(start),
		PredictedEnd:   Midnight(end),
		Confidence:     confidence,
	}, nil
}

// Result classifies a prediction outcome.
type Result string

const (
	ResultHit     Result = "hit"
	ResultMiss    Result = "miss"
	ResultPending Result = "pending"
)

// Valid reports whether r is one of the known result values.
func (r Result) Valid() bool {
	return r == ResultHit || r == ResultMiss || r == ResultPending
}

// PredictionOutcome records how a prediction turned out. Exactly one
// outcome exists per prediction. Manual fields are written only through the
// override entry point and are never touched by auto-verification.
type PredictionOutcome struct {
	ID                    uuid.UUID   `json:"id" db:"id"`
	PredictionID          uuid.UUID   `json:"prediction_id" db:"prediction_id"`
	AutoResult            Result      `json:"auto_result" db:"auto_result"`
	AutoVerifiedAt        *time.Time  `json:"auto_verified_at,omitempty" db:"auto_verified_at"`
	MatchedObservationIDs []uuid.UUID `json:"matched_observation_ids" db:"matched_observation_ids"`
	ManualOverride        bool        `json:"manual_override" db:"manual_override"`
	ManualResult          Result      `json:"manual_result,omitempty" db:"manual_result"`
	OverrideReason        string      `json:"override_reason,omitempty" db:"override_reason"`
	OverriddenAt          *time.Time  `json:"overridden_at,omitempty" db:"overridden_at"`
	ActualStart           *time.Time  `json:"actual_start,omitempty" db:"actual_start"`
	ActualEnd             *time.Time  `json:"actual_end,omitempty" db:"actual_end"`
	ActualDiscount        *float64    `json:"actual_discount,omitempty" db:"actual_discount"`
	TimingDeltaDays       *int        `json:"timing_delta_days,omitempty" db:"timing_delta_days"`
	DiscountDeltaPercent  *float64    `json:"discount_delta_percent,omitempty" db:"discount_delta_percent"`
	CreatedAt             time.Time   `json:"created_at" db:"created_at"`
}

// FinalResult resolves to the manual result when overridden, otherwise the
// automatic result.
func (o *PredictionOutcome) FinalResult() Result {
	if o.ManualOverride && o.ManualResult != "" {
		return o.ManualResult
	}
	if o.AutoResult == "" {
		return ResultPending
	}
	return o.AutoResult
}
