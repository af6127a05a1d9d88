package suggest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
)

// Rule thresholds.
const (
	DefaultLookbackDays      = 90
	MinHitsForTimingShift    = 3
	MinMeanShiftDays         = 2.0
	ConsecutiveMissThreshold = 3
	HitRateDropThreshold     = 0.15
)

// Options tunes suggestion generation. Zero values fall back to defaults.
type Options struct {
	LookbackDays int
}

func (o Options) withDefaults() Options {
	if o.LookbackDays <= 0 {
		o.LookbackDays = DefaultLookbackDays
	}
	return o
}

// Service generates and resolves adjustment suggestions.
type Service struct {
	repo Repository
	opts Options
}

// NewService creates a suggest service backed by the given repository.
func NewService(repo Repository, opts Options) *Service {
	return &Service{repo: repo, opts: opts.withDefaults()}
}

// Generate applies the suggestion rules to a brand's recent outcomes and
// stats. The caller supplies previous stats captured before the latest
// recompute so the hit-rate-drop rule can compare against them. Returned
// suggestions carry evidence hashes; the caller filters already-known
// hashes before persisting.
func (s *Service) Generate(brandID uuid.UUID, recent []BrandOutcome, current, previous *domain.BrandAccuracyStats, asOf time.Time) ([]domain.AdjustmentSuggestion, error) {
	ordered := make([]BrandOutcome, len(recent))
	copy(ordered, recent)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PredictedStart.Before(ordered[j].PredictedStart)
	})

	var out []domain.AdjustmentSuggestion

	if sg, err := s.timingShift(brandID, ordered, asOf); err != nil {
		return nil, err
	} else if sg != nil {
		out = append(out, *sg)
	}

	if sg, err := s.patternChange(brandID, ordered); err != nil {
		return nil, err
	} else if sg != nil {
		out = append(out, *sg)
	}

	if sg, err := s.confidenceAdjust(brandID, current, previous); err != nil {
		return nil, err
	} else if sg != nil {
		out = append(out, *sg)
	}

	return out, nil
}

// timingShift fires when the brand's recent hits consistently land early
// or late by two or more days on average.
func (s *Service) timingShift(brandID uuid.UUID, ordered []BrandOutcome, asOf time.Time) (*domain.AdjustmentSuggestion, error) {
	cutoff := domain.Midnight(asOf).AddDate(0, 0, -s.opts.LookbackDays)

	var deltas []int
	for _, bo := range ordered {
		if bo.PredictedStart.Before(cutoff) {
			continue
		}
		if bo.Outcome.FinalResult() != domain.ResultHit || bo.Outcome.TimingDeltaDays == nil {
			continue
		}
		deltas = append(deltas, *bo.Outcome.TimingDeltaDays)
	}
	if len(deltas) < MinHitsForTimingShift {
		return nil, nil
	}

	var sum float64
	for _, d := range deltas {
		sum += float64(d)
	}
	meanDelta := sum / float64(len(deltas))
	if math.Abs(meanDelta) < MinMeanShiftDays {
		return nil, nil
	}
	shift := int(math.Round(meanDelta))

	direction := "later"
	if shift < 0 {
		direction = "earlier"
	}
	evidence := struct {
		TimingDeltas []int   `json:"timing_deltas"`
		MeanDelta    float64 `json:"mean_delta"`
		LookbackDays int     `json:"lookback_days"`
	}{deltas, meanDelta, s.opts.LookbackDays}

	return s.build(brandID, domain.SuggestTimingShift,
		fmt.Sprintf("Recent sales for this brand start an average of %.1f days %s than predicted.", math.Abs(meanDelta), direction),
		fmt.Sprintf("Shift predicted dates by %+d days.", shift),
		evidence)
}

// patternChange fires on a streak of misses from a brand that used to hit.
func (s *Service) patternChange(brandID uuid.UUID, ordered []BrandOutcome) (*domain.AdjustmentSuggestion, error) {
	sawHit := false
	var streak []uuid.UUID
	for _, bo := range ordered {
		switch bo.Outcome.FinalResult() {
		case domain.ResultHit:
			sawHit = true
			streak = streak[:0]
		case domain.ResultMiss:
			streak = append(streak, bo.Outcome.PredictionID)
		}
	}
	if !sawHit || len(streak) < ConsecutiveMissThreshold {
		return nil, nil
	}

	evidence := struct {
		MissedPredictionIDs []uuid.UUID `json:"missed_prediction_ids"`
		ConsecutiveMisses   int         `json:"consecutive_misses"`
	}{streak, len(streak)}

	return s.build(brandID, domain.SuggestPatternChange,
		fmt.Sprintf("Brand hit reliably before but has now missed %d predictions in a row.", len(streak)),
		"Review the brand's sale pattern; its promotional schedule may have changed.",
		evidence)
}

// confidenceAdjust fires when the hit rate drops sharply against the
// previously stored stats.
func (s *Service) confidenceAdjust(brandID uuid.UUID, current, previous *domain.BrandAccuracyStats) (*domain.AdjustmentSuggestion, error) {
	if current == nil || previous == nil {
		return nil, nil
	}
	drop := previous.HitRate - current.HitRate
	if drop < HitRateDropThreshold {
		return nil, nil
	}

	evidence := struct {
		PreviousHitRate float64 `json:"previous_hit_rate"`
		CurrentHitRate  float64 `json:"current_hit_rate"`
	}{previous.HitRate, current.HitRate}

	return s.build(brandID, domain.SuggestConfidenceAdjust,
		fmt.Sprintf("Hit rate fell from %.0f%% to %.0f%%.", previous.HitRate*100, current.HitRate*100),
		"Lower the confidence weighting for this brand's windows until accuracy recovers.",
		evidence)
}

func (s *Service) build(brandID uuid.UUID, typ domain.SuggestionType, description, action string, evidence any) (*domain.AdjustmentSuggestion, error) {
	payload, err := json.Marshal(evidence)
	if err != nil {
		return nil, fmt.Errorf("marshal %s evidence: %w", typ, err)
	}
	return &domain.AdjustmentSuggestion{
		ID:                uuid.New(),
		BrandID:           brandID,
		Type:              typ,
		Description:       description,
		RecommendedAction: action,
		Evidence:          payload,
		EvidenceHash:      EvidenceHash(typ, payload),
		Status:            domain.SuggestionPending,
	}, nil
}

// EvidenceHash keys a suggestion by its type and canonical evidence
// payload. Identical evidence always hashes identically, which is what
// makes generation idempotent across re-runs.
func EvidenceHash(typ domain.SuggestionType, evidence []byte) string {
	h := sha256.New()
	h.Write([]byte(typ))
	h.Write([]byte{0})
	h.Write(evidence)
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateBrand runs generation for one brand and persists only
// suggestions whose evidence the brand has not seen before, pending or
// resolved.
func (s *Service) GenerateBrand(ctx context.Context, brandID uuid.UUID, current, previous *domain.BrandAccuracyStats, asOf time.Time) ([]domain.AdjustmentSuggestion, error) {
	since := domain.Midnight(asOf).AddDate(0, 0, -s.opts.LookbackDays)
	recent, err := s.repo.ListRecentOutcomes(ctx, brandID, since)
	if err != nil {
		return nil, fmt.Errorf("list recent outcomes: %w", err)
	}

	candidates, err := s.Generate(brandID, recent, current, previous, asOf)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	known, err := s.repo.ExistingEvidenceHashes(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("list evidence hashes: %w", err)
	}

	fresh := candidates[:0]
	for _, c := range candidates {
		if _, seen := known[c.EvidenceHash]; seen {
			continue
		}
		fresh = append(fresh, c)
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	if err := s.repo.CreateSuggestions(ctx, brandID, fresh); err != nil {
		return nil, fmt.Errorf("create suggestions: %w", err)
	}
	return fresh, nil
}

// Resolve transitions a pending suggestion to approved or dismissed.
// Resolved suggestions are terminal; resolving one again is a conflict.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID, approve bool) (*domain.AdjustmentSuggestion, error) {
	sg, err := s.repo.GetSuggestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if sg.IsResolved() {
		return nil, fmt.Errorf("%w: suggestion %s is %s", ErrAlreadyResolved, id, sg.Status)
	}

	now := time.Now().UTC()
	if approve {
		sg.Status = domain.SuggestionApproved
	} else {
		sg.Status = domain.SuggestionDismissed
	}
	sg.ResolvedAt = &now

	if err := s.repo.SaveSuggestion(ctx, sg); err != nil {
		return nil, fmt.Errorf("save suggestion: %w", err)
	}
	return sg, nil
}
