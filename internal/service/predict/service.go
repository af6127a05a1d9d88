package predict

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/holiday"
)

// DefaultMinConfidence is the threshold below which no prediction is
// emitted. The value tracks product policy for "high confidence".
const DefaultMinConfidence = 0.6

// Options tunes prediction generation. Zero values fall back to defaults.
type Options struct {
	MinConfidence float64
	LeapPolicy    holiday.LeapPolicy
}

func (o Options) withDefaults() Options {
	if o.MinConfidence <= 0 {
		o.MinConfidence = DefaultMinConfidence
	}
	if o.LeapPolicy == "" {
		o.LeapPolicy = holiday.LeapClamp
	}
	return o
}

// Service generates predictions from historical sale windows.
type Service struct {
	repo   Repository
	scorer Scorer
	opts   Options
}

// NewService creates a predict service. A nil scorer uses EvidenceScorer.
func NewService(repo Repository, scorer Scorer, opts Options) *Service {
	if scorer == nil {
		scorer = EvidenceScorer{}
	}
	return &Service{repo: repo, scorer: scorer, opts: opts.withDefaults()}
}

// Predict projects windows into targetYear. Only windows from
// targetYear-1 are eligible; windows whose id is in alreadyPredicted are
// skipped, preserving the one-prediction-per-(window, year) invariant
// across re-runs. History feeds the confidence scorer.
func (s *Service) Predict(windows, history []domain.SaleWindow, alreadyPredicted map[uuid.UUID]struct{}, targetYear int) ([]domain.Prediction, error) {
	var out []domain.Prediction
	for _, w := range windows {
		if w.Year != targetYear-1 {
			continue
		}
		if _, done := alreadyPredicted[w.ID]; done {
			continue
		}

		start, end, err := s.projectDates(w, targetYear)
		if err != nil {
			return nil, err
		}

		confidence := s.scorer.Score(w, history)
		if confidence < s.opts.MinConfidence {
			continue
		}

		p, err := domain.NewPrediction(w.BrandID, w.ID, targetYear, start, end, confidence)
		if err != nil {
			return nil, err
		}
		p.DiscountSummary = w.DiscountSummary
		p.DiscountValue = w.Discount.Value
		p.HolidayAnchor = w.HolidayAnchor
		out = append(out, *p)
	}
	return out, nil
}

// projectDates computes the predicted range. Anchored windows preserve
// their day offset from the holiday; unanchored windows keep month and day
// with the year replaced.
func (s *Service) projectDates(w domain.SaleWindow, targetYear int) (time.Time, time.Time, error) {
	if w.HolidayAnchor != "" {
		anchor := holiday.Holiday(w.HolidayAnchor)
		start, err := holiday.AdjustYear(w.Start, w.Year, targetYear, anchor)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("window %s: %w", w.ID, err)
		}
		durationDays := domain.DaysBetween(w.Start, w.End)
		return start, start.AddDate(0, 0, durationDays), nil
	}

	start := holiday.ShiftYear(w.Start, targetYear, s.opts.LeapPolicy)
	end := holiday.ShiftYear(w.End, targetYear, s.opts.LeapPolicy)
	if end.Before(start) {
		// Dec->Jan windows spill into the following year after the shift.
		end = end.AddDate(1, 0, 0)
	}
	return start, end, nil
}

// PredictBrand generates and persists predictions for one brand's target
// year. Re-running is a no-op for windows already predicted.
func (s *Service) PredictBrand(ctx context.Context, brandID uuid.UUID, targetYear int) ([]domain.Prediction, error) {
	windows, err := s.repo.ListWindowsByYear(ctx, brandID, targetYear-1)
	if err != nil {
		return nil, fmt.Errorf("list source windows: %w", err)
	}
	if len(windows) == 0 {
		return nil, nil
	}

	history, err := s.repo.ListWindowsBefore(ctx, brandID, targetYear)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	predicted, err := s.repo.PredictedWindowIDs(ctx, brandID, targetYear)
	if err != nil {
		return nil, fmt.Errorf("list existing predictions: %w", err)
	}

	predictions, err := s.Predict(windows, history, predicted, targetYear)
	if err != nil {
		return nil, err
	}
	if len(predictions) == 0 {
		return nil, nil
	}

	if err := s.repo.CreatePredictions(ctx, brandID, predictions); err != nil {
		return nil, fmt.Errorf("create predictions: %w", err)
	}
	return predictions, nil
}
