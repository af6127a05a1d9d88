package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/pkg/distlock"
)

type fakeBrands struct{ brands []domain.Brand }

func (f *fakeBrands) ListActive(_ context.Context) ([]domain.Brand, error) { return f.brands, nil }

// fakeLock grants or denies acquisition, tracking release.
type fakeLock struct {
	grant    bool
	mu       sync.Mutex
	released bool
}

func (l *fakeLock) Acquire(context.Context) (bool, error) { return l.grant, nil }
func (l *fakeLock) Release(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = true
	return nil
}

func grantAll(string) distlock.DistLock { return &fakeLock{grant: true} }

type fakeDedup struct {
	mu     sync.Mutex
	calls  []uuid.UUID
	errFor map[uuid.UUID]error
}

func (f *fakeDedup) DedupBrand(_ context.Context, brandID uuid.UUID) ([]domain.SaleWindow, error) {
	f.mu.Lock()
	f.calls = append(f.calls, brandID)
	f.mu.Unlock()
	return nil, f.errFor[brandID]
}

type fakePredict struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (f *fakePredict) PredictBrand(_ context.Context, brandID uuid.UUID, _ int) ([]domain.Prediction, error) {
	f.mu.Lock()
	f.calls = append(f.calls, brandID)
	f.mu.Unlock()
	return nil, nil
}

func brandList(n int) []domain.Brand {
	out := make([]domain.Brand, n)
	for i := range out {
		out[i] = domain.Brand{ID: uuid.New(), Slug: "brand", Active: true}
	}
	return out
}

func TestWeeklyPassIsolatesBrandFailures(t *testing.T) {
	brands := brandList(3)
	bad := brands[1].ID

	dedup := &fakeDedup{errFor: map[uuid.UUID]error{bad: errors.New("corrupt observations")}}
	predict := &fakePredict{}
	pass := NewWeeklyPass(&fakeBrands{brands: brands}, dedup, predict, grantAll, 2)

	summary, err := pass.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Brands != 3 {
		t.Errorf("brands = %d, want 3", summary.Brands)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly the failing brand", summary.Errors)
	}
	if _, ok := summary.Errors[bad]; !ok {
		t.Errorf("failing brand missing from summary: %v", summary.Errors)
	}
	// The failing brand must not stop its dedup-stage siblings, and the
	// predictor must still run for the healthy brands.
	if len(dedup.calls) != 3 {
		t.Errorf("dedup calls = %d, want 3", len(dedup.calls))
	}
	if len(predict.calls) != 2 {
		t.Errorf("predict calls = %d, want 2 (failed brand stops at dedup)", len(predict.calls))
	}
}

func TestWeeklyPassSkipsLockedBrands(t *testing.T) {
	brands := brandList(2)
	lockedKey := distlock.PassKey("weekly", brands[0].ID)

	locks := func(key string) distlock.DistLock {
		return &fakeLock{grant: key != lockedKey}
	}
	dedup := &fakeDedup{}
	pass := NewWeeklyPass(&fakeBrands{brands: brands}, dedup, &fakePredict{}, locks, 2)

	summary, err := pass.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", summary.Skipped)
	}
	if len(summary.Errors) != 0 {
		t.Errorf("a held lock is a skip, not a failure: %v", summary.Errors)
	}
	if len(dedup.calls) != 1 {
		t.Errorf("dedup calls = %d, want 1", len(dedup.calls))
	}
}

func TestCancelledContextStopsScheduling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dedup := &fakeDedup{}
	pass := NewWeeklyPass(&fakeBrands{brands: brandList(5)}, dedup, &fakePredict{}, grantAll, 2)

	summary, err := pass.Run(ctx, time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Brands != 0 || len(dedup.calls) != 0 {
		t.Errorf("cancelled pass must not schedule brands: %+v, %d calls", summary, len(dedup.calls))
	}
}

type fakeVerify struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeVerify) VerifyBrand(_ context.Context, _ uuid.UUID, _ time.Time) ([]domain.PredictionOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return []domain.PredictionOutcome{{ID: uuid.New()}}, nil
}

type fakeStats struct {
	mu       sync.Mutex
	previous map[uuid.UUID]*domain.BrandAccuracyStats
	captured []*domain.BrandAccuracyStats
}

func (f *fakeStats) Stats(_ context.Context, brandID uuid.UUID) (*domain.BrandAccuracyStats, error) {
	return f.previous[brandID], nil
}

func (f *fakeStats) RecomputeBrand(_ context.Context, brandID uuid.UUID) (*domain.BrandAccuracyStats, error) {
	return &domain.BrandAccuracyStats{BrandID: brandID, HitRate: 0.5}, nil
}

type fakeSuggest struct {
	mu       sync.Mutex
	previous []*domain.BrandAccuracyStats
}

func (f *fakeSuggest) GenerateBrand(_ context.Context, _ uuid.UUID, current, previous *domain.BrandAccuracyStats, _ time.Time) ([]domain.AdjustmentSuggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previous = append(f.previous, previous)
	return nil, nil
}

func TestDailyPassCapturesPreviousStats(t *testing.T) {
	brands := brandList(1)
	prev := &domain.BrandAccuracyStats{BrandID: brands[0].ID, HitRate: 0.8}

	verify := &fakeVerify{}
	stats := &fakeStats{previous: map[uuid.UUID]*domain.BrandAccuracyStats{brands[0].ID: prev}}
	sugg := &fakeSuggest{}
	pass := NewDailyPass(&fakeBrands{brands: brands}, verify, stats, sugg, grantAll, 1)

	summary, err := pass.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed() != 0 {
		t.Fatalf("unexpected failures: %v", summary.Errors)
	}
	if verify.calls != 1 {
		t.Errorf("verify calls = %d, want 1", verify.calls)
	}
	if len(sugg.previous) != 1 || sugg.previous[0] != prev {
		t.Errorf("suggester must receive the pre-recompute stats, got %v", sugg.previous)
	}
}
