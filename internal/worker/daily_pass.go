package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
)

// Verifier checks a brand's elapsed predictions against observed sales.
type Verifier interface {
	VerifyBrand(ctx context.Context, brandID uuid.UUID, asOf time.Time) ([]domain.PredictionOutcome, error)
}

// StatsKeeper reads and recomputes a brand's accuracy stats.
type StatsKeeper interface {
	Stats(ctx context.Context, brandID uuid.UUID) (*domain.BrandAccuracyStats, error)
	RecomputeBrand(ctx context.Context, brandID uuid.UUID) (*domain.BrandAccuracyStats, error)
}

// Suggester generates adjustment suggestions from outcome history.
type Suggester interface {
	GenerateBrand(ctx context.Context, brandID uuid.UUID, current, previous *domain.BrandAccuracyStats, asOf time.Time) ([]domain.AdjustmentSuggestion, error)
}

// DailyPass verifies outcomes, recomputes accuracy, and generates
// suggestions for every active brand. The previous stats row is captured
// before recomputing so the hit-rate-drop rule has something to compare
// against.
type DailyPass struct {
	brands      BrandLister
	verify      Verifier
	accuracy    StatsKeeper
	suggest     Suggester
	locks       LockFactory
	concurrency int
}

// NewDailyPass wires a daily pass.
func NewDailyPass(brands BrandLister, verify Verifier, accuracy StatsKeeper, suggest Suggester, locks LockFactory, concurrency int) *DailyPass {
	return &DailyPass{brands: brands, verify: verify, accuracy: accuracy, suggest: suggest, locks: locks, concurrency: concurrency}
}

// Run executes the pass as of the given time.
func (p *DailyPass) Run(ctx context.Context, asOf time.Time) (PassSummary, error) {
	brands, err := p.brands.ListActive(ctx)
	if err != nil {
		return PassSummary{}, fmt.Errorf("list brands: %w", err)
	}
	log.Printf("[DailyPass] starting: %d brands", len(brands))

	summary := runBrands(ctx, "daily", brands, p.locks, p.concurrency, func(ctx context.Context, brand domain.Brand) error {
		outcomes, err := p.verify.VerifyBrand(ctx, brand.ID, asOf)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}

		previous, err := p.accuracy.Stats(ctx, brand.ID)
		if err != nil {
			return fmt.Errorf("load previous stats: %w", err)
		}
		current, err := p.accuracy.RecomputeBrand(ctx, brand.ID)
		if err != nil {
			return fmt.Errorf("recompute: %w", err)
		}

		suggestions, err := p.suggest.GenerateBrand(ctx, brand.ID, current, previous, asOf)
		if err != nil {
			return fmt.Errorf("suggest: %w", err)
		}

		if len(outcomes) > 0 || len(suggestions) > 0 {
			log.Printf("[DailyPass] brand %s: %d outcomes, %d suggestions", brand.Slug, len(outcomes), len(suggestions))
		}
		return nil
	})

	log.Printf("[DailyPass] done: %d brands, %d skipped, %d failed", summary.Brands, summary.Skipped, summary.Failed())
	return summary, nil
}
