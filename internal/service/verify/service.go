package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
)

// Verification thresholds. The grace period lets late observations land
// before a prediction is judged; the discount floor is looser than the
// tracking threshold to absorb measurement noise.
const (
	DefaultGraceDays       = 7
	DefaultMatchWindowDays = 7
	DefaultDiscountFloor   = 15.0
)

// Options tunes verification. Zero values fall back to defaults.
type Options struct {
	GraceDays       int
	MatchWindowDays int
	DiscountFloor   float64
}

func (o Options) withDefaults() Options {
	if o.GraceDays <= 0 {
		o.GraceDays = DefaultGraceDays
	}
	if o.MatchWindowDays <= 0 {
		o.MatchWindowDays = DefaultMatchWindowDays
	}
	if o.DiscountFloor <= 0 {
		o.DiscountFloor = DefaultDiscountFloor
	}
	return o
}

// Service verifies predictions against observed sales.
type Service struct {
	repo Repository
	opts Options
}

// NewService creates a verify service backed by the given repository.
func NewService(repo Repository, opts Options) *Service {
	return &Service{repo: repo, opts: opts.withDefaults()}
}

// Verify evaluates predictions against fresh observations as of the given
// time and returns the outcomes to persist. Predictions still inside their
// grace period are skipped, as is any prediction whose existing outcome is
// resolved or carries a manual override. Manual overrides are permanently
// sticky against re-verification.
func (s *Service) Verify(predictions []domain.Prediction, existing map[uuid.UUID]domain.PredictionOutcome, fresh []domain.SaleObservation, asOf time.Time) []domain.PredictionOutcome {
	asOf = domain.Midnight(asOf)

	var out []domain.PredictionOutcome
	for _, p := range predictions {
		deadline := p.PredictedEnd.AddDate(0, 0, s.opts.GraceDays)
		if !deadline.Before(asOf) {
			continue
		}
		if prior, ok := existing[p.ID]; ok {
			if prior.ManualOverride || prior.AutoResult != domain.ResultPending {
				continue
			}
		}
		out = append(out, s.evaluate(p, existing[p.ID], fresh))
	}
	return out
}

// evaluate classifies one elapsed prediction as hit or miss.
func (s *Service) evaluate(p domain.Prediction, prior domain.PredictionOutcome, fresh []domain.SaleObservation) domain.PredictionOutcome {
	outcome := prior
	if outcome.ID == uuid.Nil {
		outcome = domain.PredictionOutcome{
			ID:           uuid.New(),
			PredictionID: p.ID,
		}
	}

	windowStart := p.PredictedStart.AddDate(0, 0, -s.opts.MatchWindowDays)
	windowEnd := p.PredictedEnd.AddDate(0, 0, s.opts.MatchWindowDays)

	var (
		matched        []domain.SaleObservation
		matchedIDs     []uuid.UUID
		actualStart    time.Time
		actualEnd      time.Time
		bestConfidence float64
		bestDiscount   *float64
	)
	for _, obs := range fresh {
		if obs.BrandID != p.BrandID {
			continue
		}
		start, end, ok := obs.DateRange()
		if !ok {
			continue
		}
		if end.Before(windowStart) || start.After(windowEnd) {
			continue
		}
		if obs.Discount.Value == nil || *obs.Discount.Value < s.opts.DiscountFloor {
			continue
		}

		if len(matched) == 0 || start.Before(actualStart) {
			actualStart = start
		}
		if len(matched) == 0 || end.After(actualEnd) {
			actualEnd = end
		}
		if len(matched) == 0 || obs.Confidence > bestConfidence {
			bestConfidence = obs.Confidence
			bestDiscount = obs.Discount.Value
		}
		matched = append(matched, obs)
		matchedIDs = append(matchedIDs, obs.ID)
	}

	now := time.Now().UTC()
	outcome.AutoVerifiedAt = &now

	if len(matched) == 0 {
		outcome.AutoResult = domain.ResultMiss
		outcome.MatchedObservationIDs = nil
		return outcome
	}

	outcome.AutoResult = domain.ResultHit
	outcome.MatchedObservationIDs = matchedIDs
	outcome.ActualStart = &actualStart
	outcome.ActualEnd = &actualEnd
	outcome.ActualDiscount = bestDiscount

	timingDelta := domain.DaysBetween(p.PredictedStart, actualStart)
	outcome.TimingDeltaDays = &timingDelta

	if bestDiscount != nil && p.DiscountValue != nil {
		delta := *bestDiscount - *p.DiscountValue
		outcome.DiscountDeltaPercent = &delta
	}
	return outcome
}

// VerifyBrand verifies one brand's elapsed predictions against a snapshot
// of observations from the last year and persists the resulting outcomes
// atomically. Returns the outcomes written.
func (s *Service) VerifyBrand(ctx context.Context, brandID uuid.UUID, asOf time.Time) ([]domain.PredictionOutcome, error) {
	predictions, err := s.repo.ListElapsedPredictions(ctx, brandID, asOf)
	if err != nil {
		return nil, fmt.Errorf("list elapsed predictions: %w", err)
	}
	if len(predictions) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(predictions))
	for _, p := range predictions {
		ids = append(ids, p.ID)
	}
	existing, err := s.repo.GetOutcomes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load outcomes: %w", err)
	}

	fresh, err := s.repo.ListObservationsSince(ctx, brandID, asOf.AddDate(-1, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("load observation snapshot: %w", err)
	}

	outcomes := s.Verify(predictions, existing, fresh, asOf)
	if len(outcomes) == 0 {
		return nil, nil
	}

	if err := s.repo.UpsertOutcomes(ctx, brandID, outcomes); err != nil {
		return nil, fmt.Errorf("upsert outcomes: %w", err)
	}
	return outcomes, nil
}

// Override records a manual hit/miss correction for one prediction. It
// writes only the manual fields, creating the outcome row if
// auto-verification has not produced one yet. Overrides win over any past
// or future automatic result.
func (s *Service) Override(ctx context.Context, predictionID uuid.UUID, result domain.Result, reason string) (*domain.PredictionOutcome, error) {
	if result != domain.ResultHit && result != domain.ResultMiss {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResult, result)
	}

	if _, err := s.repo.GetPrediction(ctx, predictionID); err != nil {
		return nil, err
	}

	outcome, err := s.repo.GetOutcome(ctx, predictionID)
	if err != nil {
		return nil, fmt.Errorf("load outcome: %w", err)
	}
	if outcome == nil {
		outcome = &domain.PredictionOutcome{
			ID:           uuid.New(),
			PredictionID: predictionID,
			AutoResult:   domain.ResultPending,
		}
	}

	now := time.Now().UTC()
	outcome.ManualOverride = true
	outcome.ManualResult = result
	outcome.OverrideReason = reason
	outcome.OverriddenAt = &now

	if err := s.repo.SaveOutcome(ctx, outcome); err != nil {
		return nil, fmt.Errorf("save outcome: %w", err)
	}
	return outcome, nil
}
