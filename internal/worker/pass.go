package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/pkg/distlock"
)

// DefaultBrandConcurrency bounds the per-brand fan-out within a pass.
const DefaultBrandConcurrency = 8

// DefaultLockTTL caps how long a crashed worker can hold a brand lock.
const DefaultLockTTL = 30 * time.Minute

// BrandLister supplies the brands a pass iterates.
type BrandLister interface {
	ListActive(ctx context.Context) ([]domain.Brand, error)
}

// LockFactory builds the brand-by-pass mutual exclusion lock for a key.
type LockFactory func(key string) distlock.DistLock

// PassSummary reports what a pass did. Per-brand failures are collected
// here rather than aborting the pass: one brand's bad data must never
// block the others.
type PassSummary struct {
	Brands  int
	Skipped int
	Errors  map[uuid.UUID]error
}

// Failed reports how many brands errored.
func (s *PassSummary) Failed() int { return len(s.Errors) }

// runBrands fans work out across brands with bounded concurrency. Each
// brand runs under its pass lock; brands whose lock is held elsewhere are
// skipped and counted, not failed. Context cancellation stops scheduling
// new brands while in-flight brands finish.
func runBrands(ctx context.Context, passName string, brands []domain.Brand, locks LockFactory, concurrency int, fn func(ctx context.Context, brand domain.Brand) error) PassSummary {
	if concurrency <= 0 {
		concurrency = DefaultBrandConcurrency
	}

	summary := PassSummary{Errors: map[uuid.UUID]error{}}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for _, brand := range brands {
		if ctx.Err() != nil {
			break
		}
		summary.Brands++

		wg.Add(1)
		sem <- struct{}{}
		go func(brand domain.Brand) {
			defer wg.Done()
			defer func() { <-sem }()

			lock := locks(distlock.PassKey(passName, brand.ID))
			ok, err := lock.Acquire(ctx)
			if err != nil {
				mu.Lock()
				summary.Errors[brand.ID] = err
				mu.Unlock()
				return
			}
			if !ok {
				log.Printf("[%sPass] brand %s locked elsewhere, skipping", passName, brand.Slug)
				mu.Lock()
				summary.Skipped++
				mu.Unlock()
				return
			}
			defer lock.Release(ctx)

			if err := fn(ctx, brand); err != nil {
				log.Printf("[%sPass] brand %s failed: %v", passName, brand.Slug, err)
				mu.Lock()
				summary.Errors[brand.ID] = err
				mu.Unlock()
			}
		}(brand)
	}

	wg.Wait()
	return summary
}
