package accuracy_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/service/accuracy"
)

func hit(timingDelta int, discountDelta float64) domain.PredictionOutcome {
	td, dd := timingDelta, discountDelta
	return domain.PredictionOutcome{
		ID:                   uuid.New(),
		PredictionID:         uuid.New(),
		AutoResult:           domain.ResultHit,
		TimingDeltaDays:      &td,
		DiscountDeltaPercent: &dd,
	}
}

func miss() domain.PredictionOutcome {
	return domain.PredictionOutcome{ID: uuid.New(), PredictionID: uuid.New(), AutoResult: domain.ResultMiss}
}

func TestRecomputeAggregates(t *testing.T) {
	brandID := uuid.New()
	outcomes := []domain.PredictionOutcome{
		hit(3, 2.0),
		hit(2, -1.0),
		hit(4, 5.0),
		miss(),
	}

	svc := accuracy.NewService(nil)
	stats := svc.Recompute(brandID, outcomes)

	if stats.TotalPredictions != 4 || stats.CorrectPredictions != 3 {
		t.Fatalf("counts = %d/%d, want 3/4", stats.CorrectPredictions, stats.TotalPredictions)
	}
	if math.Abs(stats.HitRate-0.75) > 1e-9 {
		t.Errorf("hit rate = %f, want 0.75", stats.HitRate)
	}
	if stats.AvgTimingDeltaDays == nil || math.Abs(*stats.AvgTimingDeltaDays-3.0) > 1e-9 {
		t.Errorf("avg timing delta = %v, want 3.0", stats.AvgTimingDeltaDays)
	}
	// Population std dev of [3, 2, 4] is sqrt(2/3).
	if stats.TimingDeltaStdDev == nil || math.Abs(*stats.TimingDeltaStdDev-math.Sqrt(2.0/3.0)) > 1e-9 {
		t.Errorf("timing std dev = %v", stats.TimingDeltaStdDev)
	}
	if stats.AvgDiscountDeltaPercent == nil || math.Abs(*stats.AvgDiscountDeltaPercent-2.0) > 1e-9 {
		t.Errorf("avg discount delta = %v, want 2.0", stats.AvgDiscountDeltaPercent)
	}

	// 0.75*60 + (20-3) + (20-2) = 80.
	if stats.ReliabilityScore != 80 {
		t.Errorf("score = %d, want 80", stats.ReliabilityScore)
	}
	if stats.ReliabilityTier != domain.TierGood {
		t.Errorf("tier = %s, want good", stats.ReliabilityTier)
	}
}

func TestZeroHitsLeavesDeltasNil(t *testing.T) {
	svc := accuracy.NewService(nil)
	stats := svc.Recompute(uuid.New(), []domain.PredictionOutcome{miss(), miss()})

	if stats.AvgTimingDeltaDays != nil || stats.TimingDeltaStdDev != nil || stats.AvgDiscountDeltaPercent != nil {
		t.Errorf("delta aggregates must be nil with no hits: %+v", stats)
	}
	if stats.ReliabilityScore != 0 || stats.ReliabilityTier != domain.TierPoor {
		t.Errorf("score/tier = %d/%s, want 0/poor", stats.ReliabilityScore, stats.ReliabilityTier)
	}
}

func TestManualOverrideCountsAsFinalResult(t *testing.T) {
	o := miss()
	o.ManualOverride = true
	o.ManualResult = domain.ResultHit

	svc := accuracy.NewService(nil)
	stats := svc.Recompute(uuid.New(), []domain.PredictionOutcome{o})
	if stats.CorrectPredictions != 1 {
		t.Errorf("overridden hit must count: %+v", stats)
	}
}

func TestPendingCountsTowardTotalOnly(t *testing.T) {
	pending := domain.PredictionOutcome{ID: uuid.New(), PredictionID: uuid.New(), AutoResult: domain.ResultPending}

	svc := accuracy.NewService(nil)
	stats := svc.Recompute(uuid.New(), []domain.PredictionOutcome{hit(1, 0.5), pending})
	if stats.TotalPredictions != 2 || stats.CorrectPredictions != 1 {
		t.Errorf("counts = %d/%d, want 1/2", stats.CorrectPredictions, stats.TotalPredictions)
	}
}

func TestScoreMonotonicInHitRate(t *testing.T) {
	svc := accuracy.NewService(nil)

	// Fixed deltas, rising hit counts out of 10.
	prev := -1
	for hits := 0; hits <= 10; hits++ {
		var outcomes []domain.PredictionOutcome
		for i := 0; i < hits; i++ {
			outcomes = append(outcomes, hit(2, 1.0))
		}
		for i := hits; i < 10; i++ {
			outcomes = append(outcomes, miss())
		}
		stats := svc.Recompute(uuid.New(), outcomes)
		if stats.ReliabilityScore < prev {
			t.Fatalf("score dropped from %d to %d at %d hits", prev, stats.ReliabilityScore, hits)
		}
		prev = stats.ReliabilityScore
	}
}

func TestTierBoundaries(t *testing.T) {
	svc := accuracy.NewService(nil)

	// All hits with perfect deltas: 60 + 20 + 20 = 100, excellent.
	stats := svc.Recompute(uuid.New(), []domain.PredictionOutcome{hit(0, 0), hit(0, 0)})
	if stats.ReliabilityScore != 100 || stats.ReliabilityTier != domain.TierExcellent {
		t.Errorf("score/tier = %d/%s, want 100/excellent", stats.ReliabilityScore, stats.ReliabilityTier)
	}

	// Large deltas wipe out the precision terms: 60 + 0 + 0 = 60, fair.
	stats = svc.Recompute(uuid.New(), []domain.PredictionOutcome{hit(30, 40)})
	if stats.ReliabilityScore != 60 || stats.ReliabilityTier != domain.TierFair {
		t.Errorf("score/tier = %d/%s, want 60/fair", stats.ReliabilityScore, stats.ReliabilityTier)
	}
}

func TestRecomputeBrandPersists(t *testing.T) {
	brandID := uuid.New()
	repo := &memRepo{outcomes: []domain.PredictionOutcome{hit(1, 1.0), miss()}}
	svc := accuracy.NewService(repo)

	stats, err := svc.RecomputeBrand(context.Background(), brandID)
	if err != nil {
		t.Fatalf("RecomputeBrand: %v", err)
	}
	if stats == nil || repo.saved == nil {
		t.Fatal("stats not persisted")
	}
	if repo.saved.BrandID != brandID {
		t.Errorf("saved brand = %s, want %s", repo.saved.BrandID, brandID)
	}
}

func TestRecomputeBrandNoOutcomes(t *testing.T) {
	repo := &memRepo{}
	svc := accuracy.NewService(repo)

	stats, err := svc.RecomputeBrand(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("RecomputeBrand: %v", err)
	}
	if stats != nil || repo.saved != nil {
		t.Fatal("brand without outcomes must not get a stats row")
	}
}

// memRepo is an in-memory accuracy repository for unit testing.
type memRepo struct {
	outcomes []domain.PredictionOutcome
	saved    *domain.BrandAccuracyStats
}

func (m *memRepo) ListOutcomesByBrand(_ context.Context, _ uuid.UUID) ([]domain.PredictionOutcome, error) {
	return m.outcomes, nil
}

func (m *memRepo) UpsertStats(_ context.Context, stats *domain.BrandAccuracyStats) error {
	m.saved = stats
	return nil
}

func (m *memRepo) GetStats(_ context.Context, brandID uuid.UUID) (*domain.BrandAccuracyStats, error) {
	if m.saved == nil || m.saved.BrandID != brandID {
		return nil, accuracy.ErrStatsNotFound
	}
	return m.saved, nil
}
