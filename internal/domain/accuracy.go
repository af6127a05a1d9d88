package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReliabilityTier buckets a brand's prediction track record.
type ReliabilityTier string

const (
	TierExcellent ReliabilityTier = "excellent"
	TierGood      ReliabilityTier = "good"
	TierFair      ReliabilityTier = "fair"
	TierPoor      ReliabilityTier = "poor"
)

// BrandAccuracyStats is the materialized accuracy record for one brand.
// It is fully derived: recomputed wholesale each run and replaced on write.
// The stored row is a cache, never a source of truth.
type BrandAccuracyStats struct {
	BrandID                 uuid.UUID       `json:"brand_id" db:"brand_id"`
	TotalPredictions        int             `json:"total_predictions" db:"total_predictions"`
	CorrectPredictions      int             `json:"correct_predictions" db:"correct_predictions"`
	HitRate                 float64         `json:"hit_rate" db:"hit_rate"`
	AvgTimingDeltaDays      *float64        `json:"avg_timing_delta_days,omitempty" db:"avg_timing_delta_days"`
	TimingDeltaStdDev       *float64        `json:"timing_delta_std,omitempty" db:"timing_delta_std"`
	AvgDiscountDeltaPercent *float64        `json:"avg_discount_delta_percent,omitempty" db:"avg_discount_delta_percent"`
	ReliabilityScore        int             `json:"reliability_score" db:"reliability_score"`
	ReliabilityTier         ReliabilityTier `json:"reliability_tier" db:"reliability_tier"`
	LastCalculatedAt        time.Time       `json:"last_calculated_at" db:"last_calculated_at"`
}

// SuggestionType enumerates the kinds of adjustment suggestions.
type SuggestionType string

const (
	SuggestTimingShift      SuggestionType = "timing_shift"
	SuggestPatternChange    SuggestionType = "pattern_change"
	SuggestConfidenceAdjust SuggestionType = "confidence_adjust"
)

// SuggestionStatus tracks suggestion resolution. Transitions are
// pending -> approved or pending -> dismissed only; resolved suggestions
// are terminal.
type SuggestionStatus string

const (
	SuggestionPending   SuggestionStatus = "pending"
	SuggestionApproved  SuggestionStatus = "approved"
	SuggestionDismissed SuggestionStatus = "dismissed"
)

// AdjustmentSuggestion is a generated recommendation to adjust prediction
// behavior for a brand. EvidenceHash keys generation idempotence: the same
// underlying evidence never produces a second suggestion of the same type.
type AdjustmentSuggestion struct {
	ID                uuid.UUID        `json:"id" db:"id"`
	BrandID           uuid.UUID        `json:"brand_id" db:"brand_id"`
	Type              SuggestionType   `json:"type" db:"suggestion_type"`
	Description       string           `json:"description" db:"description"`
	RecommendedAction string           `json:"recommended_action" db:"recommended_action"`
	Evidence          json.RawMessage  `json:"evidence" db:"evidence"`
	EvidenceHash      string           `json:"evidence_hash" db:"evidence_hash"`
	Status            SuggestionStatus `json:"status" db:"status"`
	ResolvedAt        *time.Time       `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
}

// IsResolved reports whether the suggestion has reached a terminal status.
func (s *AdjustmentSuggestion) IsResolved() bool {
	return s.Status == SuggestionApproved || s.Status == SuggestionDismissed
}
