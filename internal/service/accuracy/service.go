package accuracy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
)

// Tier cutoffs on the 0-100 reliability score.
const (
	TierExcellentMin = 85
	TierGoodMin      = 70
	TierFairMin      = 55
)

// Service recomputes brand accuracy stats from outcome history.
type Service struct {
	repo Repository
}

// NewService creates an accuracy service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Recompute derives a brand's stats from its full outcome history. Pending
// outcomes count toward the total but not toward hits. Delta aggregates
// cover hit outcomes only and are nil when the brand has no hits.
func (s *Service) Recompute(brandID uuid.UUID, outcomes []domain.PredictionOutcome) domain.BrandAccuracyStats {
	stats := domain.BrandAccuracyStats{
		BrandID:          brandID,
		TotalPredictions: len(outcomes),
		LastCalculatedAt: time.Now().UTC(),
	}

	var timingDeltas, discountDeltas []float64
	for _, o := range outcomes {
		if o.FinalResult() != domain.ResultHit {
			continue
		}
		stats.CorrectPredictions++
		if o.TimingDeltaDays != nil {
			timingDeltas = append(timingDeltas, float64(*o.TimingDeltaDays))
		}
		if o.DiscountDeltaPercent != nil {
			discountDeltas = append(discountDeltas, *o.DiscountDeltaPercent)
		}
	}

	if stats.TotalPredictions > 0 {
		stats.HitRate = float64(stats.CorrectPredictions) / float64(stats.TotalPredictions)
	}

	if len(timingDeltas) > 0 {
		m := mean(timingDeltas)
		sd := stdDev(timingDeltas, m)
		stats.AvgTimingDeltaDays = &m
		stats.TimingDeltaStdDev = &sd
	}
	if len(discountDeltas) > 0 {
		m := mean(discountDeltas)
		stats.AvgDiscountDeltaPercent = &m
	}

	stats.ReliabilityScore = score(stats)
	stats.ReliabilityTier = tier(stats.ReliabilityScore)
	return stats
}

// score maps a brand's aggregates to 0-100: hit rate contributes up to 60,
// timing precision and discount precision up to 20 each. The delta terms
// contribute nothing when the brand has no hits.
func score(stats domain.BrandAccuracyStats) int {
	v := stats.HitRate * 60
	if stats.AvgTimingDeltaDays != nil {
		v += math.Max(0, 20-math.Abs(*stats.AvgTimingDeltaDays))
	}
	if stats.AvgDiscountDeltaPercent != nil {
		v += math.Max(0, 20-math.Abs(*stats.AvgDiscountDeltaPercent))
	}
	return int(math.Round(v))
}

func tier(score int) domain.ReliabilityTier {
	switch {
	case score >= TierExcellentMin:
		return domain.TierExcellent
	case score >= TierGoodMin:
		return domain.TierGood
	case score >= TierFairMin:
		return domain.TierFair
	default:
		return domain.TierPoor
	}
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// stdDev is the population standard deviation.
func stdDev(vals []float64, mean float64) float64 {
	var sumSq float64
	for _, v := range vals {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(vals)))
}

// Stats returns the brand's stored stats row, or nil when none has been
// computed yet.
func (s *Service) Stats(ctx context.Context, brandID uuid.UUID) (*domain.BrandAccuracyStats, error) {
	stats, err := s.repo.GetStats(ctx, brandID)
	if err != nil {
		if errors.Is(err, ErrStatsNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return stats, nil
}

// RecomputeBrand reloads a brand's outcome history, recomputes its stats,
// and replaces the stored row. Brands with no outcomes keep no stats row.
func (s *Service) RecomputeBrand(ctx context.Context, brandID uuid.UUID) (*domain.BrandAccuracyStats, error) {
	outcomes, err := s.repo.ListOutcomesByBrand(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	if len(outcomes) == 0 {
		return nil, nil
	}

	stats := s.Recompute(brandID, outcomes)
	if err := s.repo.UpsertStats(ctx, &stats); err != nil {
		return nil, fmt.Errorf("upsert stats: %w", err)
	}
	return &stats, nil
}
