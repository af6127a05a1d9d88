package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
)

// Deduper folds a brand's ungrouped observations into sale windows.
type Deduper interface {
	DedupBrand(ctx context.Context, brandID uuid.UUID) ([]domain.SaleWindow, error)
}

// Predictor projects a brand's prior-year windows into the target year.
type Predictor interface {
	PredictBrand(ctx context.Context, brandID uuid.UUID, targetYear int) ([]domain.Prediction, error)
}

// WeeklyPass runs deduplication then prediction for every active brand.
// Within a brand the ordering is strict: all observations are grouped
// before the predictor consumes the brand's windows.
type WeeklyPass struct {
	brands      BrandLister
	dedup       Deduper
	predict     Predictor
	locks       LockFactory
	concurrency int
}

// NewWeeklyPass wires a weekly pass.
func NewWeeklyPass(brands BrandLister, dedup Deduper, predict Predictor, locks LockFactory, concurrency int) *WeeklyPass {
	return &WeeklyPass{brands: brands, dedup: dedup, predict: predict, locks: locks, concurrency: concurrency}
}

// Run executes the pass. The target year defaults to the year after asOf.
func (p *WeeklyPass) Run(ctx context.Context, asOf time.Time) (PassSummary, error) {
	targetYear := asOf.UTC().Year() + 1

	brands, err := p.brands.ListActive(ctx)
	if err != nil {
		return PassSummary{}, fmt.Errorf("list brands: %w", err)
	}
	log.Printf("[WeeklyPass] starting: %d brands, target year %d", len(brands), targetYear)

	summary := runBrands(ctx, "weekly", brands, p.locks, p.concurrency, func(ctx context.Context, brand domain.Brand) error {
		windows, err := p.dedup.DedupBrand(ctx, brand.ID)
		if err != nil {
			return fmt.Errorf("dedup: %w", err)
		}
		predictions, err := p.predict.PredictBrand(ctx, brand.ID, targetYear)
		if err != nil {
			return fmt.Errorf("predict: %w", err)
		}
		if len(windows) > 0 || len(predictions) > 0 {
			log.Printf("[WeeklyPass] brand %s: %d new windows, %d new predictions", brand.Slug, len(windows), len(predictions))
		}
		return nil
	})

	log.Printf("[WeeklyPass] done: %d brands, %d skipped, %d failed", summary.Brands, summary.Skipped, summary.Failed())
	return summary, nil
}
