package suggest_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/service/suggest"
)

func date(y int, m time.Month, d int) time.Time { return domain.Day(y, m, d) }

func hitOutcome(start time.Time, timingDelta int) suggest.BrandOutcome {
	td := timingDelta
	return suggest.BrandOutcome{
		Outcome: domain.PredictionOutcome{
			ID:              uuid.New(),
			PredictionID:    uuid.New(),
			AutoResult:      domain.ResultHit,
			TimingDeltaDays: &td,
		},
		PredictedStart: start,
	}
}

func missOutcome(start time.Time) suggest.BrandOutcome {
	return suggest.BrandOutcome{
		Outcome: domain.PredictionOutcome{
			ID:           uuid.New(),
			PredictionID: uuid.New(),
			AutoResult:   domain.ResultMiss,
		},
		PredictedStart: start,
	}
}

func TestTimingShiftFromConsistentDeltas(t *testing.T) {
	asOf := date(2024, time.July, 1)
	recent := []suggest.BrandOutcome{
		hitOutcome(date(2024, time.May, 1), 3),
		hitOutcome(date(2024, time.May, 20), 2),
		hitOutcome(date(2024, time.June, 10), 4),
	}

	svc := suggest.NewService(nil, suggest.Options{})
	got, err := svc.Generate(uuid.New(), recent, nil, nil, asOf)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 1 || got[0].Type != domain.SuggestTimingShift {
		t.Fatalf("expected one timing-shift suggestion, got %+v", got)
	}
	if !strings.Contains(got[0].RecommendedAction, "+3 days") {
		t.Errorf("deltas [3 2 4] should recommend a +3 day shift: %q", got[0].RecommendedAction)
	}
	if got[0].EvidenceHash == "" || got[0].Status != domain.SuggestionPending {
		t.Errorf("suggestion missing hash or wrong status: %+v", got[0])
	}
}

func TestTimingShiftNeedsThreeHits(t *testing.T) {
	asOf := date(2024, time.July, 1)
	recent := []suggest.BrandOutcome{
		hitOutcome(date(2024, time.May, 1), 5),
		hitOutcome(date(2024, time.May, 20), 5),
	}

	svc := suggest.NewService(nil, suggest.Options{})
	got, err := svc.Generate(uuid.New(), recent, nil, nil, asOf)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("two hits must not trigger a timing shift, got %+v", got)
	}
}

func TestTimingShiftIgnoresSmallMeanDelta(t *testing.T) {
	asOf := date(2024, time.July, 1)
	recent := []suggest.BrandOutcome{
		hitOutcome(date(2024, time.May, 1), 1),
		hitOutcome(date(2024, time.May, 20), -1),
		hitOutcome(date(2024, time.June, 10), 2),
	}

	svc := suggest.NewService(nil, suggest.Options{})
	got, err := svc.Generate(uuid.New(), recent, nil, nil, asOf)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("mean delta under 2 days must not trigger, got %+v", got)
	}
}

func TestTimingShiftExcludesOutcomesOutsideLookback(t *testing.T) {
	asOf := date(2024, time.July, 1)
	recent := []suggest.BrandOutcome{
		hitOutcome(date(2024, time.January, 5), 6), // outside the 90-day window
		hitOutcome(date(2024, time.May, 20), 5),
		hitOutcome(date(2024, time.June, 10), 5),
	}

	svc := suggest.NewService(nil, suggest.Options{})
	got, err := svc.Generate(uuid.New(), recent, nil, nil, asOf)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("stale outcomes must not count toward the hit minimum, got %+v", got)
	}
}

func TestPatternChangeOnMissStreakAfterHits(t *testing.T) {
	asOf := date(2024, time.July, 1)
	recent := []suggest.BrandOutcome{
		hitOutcome(date(2024, time.April, 10), 0),
		missOutcome(date(2024, time.May, 1)),
		missOutcome(date(2024, time.May, 20)),
		missOutcome(date(2024, time.June, 10)),
	}

	svc := suggest.NewService(nil, suggest.Options{})
	got, err := svc.Generate(uuid.New(), recent, nil, nil, asOf)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 1 || got[0].Type != domain.SuggestPatternChange {
		t.Fatalf("expected one pattern-change suggestion, got %+v", got)
	}
}

func TestPatternChangeNeedsPriorHit(t *testing.T) {
	asOf := date(2024, time.July, 1)
	recent := []suggest.BrandOutcome{
		missOutcome(date(2024, time.May, 1)),
		missOutcome(date(2024, time.May, 20)),
		missOutcome(date(2024, time.June, 10)),
	}

	svc := suggest.NewService(nil, suggest.Options{})
	got, err := svc.Generate(uuid.New(), recent, nil, nil, asOf)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("all-miss history is not a pattern change, got %+v", got)
	}
}

func TestPatternChangeStreakResetByHit(t *testing.T) {
	asOf := date(2024, time.July, 1)
	recent := []suggest.BrandOutcome{
		hitOutcome(date(2024, time.April, 10), 0),
		missOutcome(date(2024, time.May, 1)),
		missOutcome(date(2024, time.May, 20)),
		hitOutcome(date(2024, time.June, 1), 0),
		missOutcome(date(2024, time.June, 10)),
	}

	svc := suggest.NewService(nil, suggest.Options{})
	got, err := svc.Generate(uuid.New(), recent, nil, nil, asOf)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("a hit resets the miss streak, got %+v", got)
	}
}

func TestConfidenceAdjustOnHitRateDrop(t *testing.T) {
	asOf := date(2024, time.July, 1)
	previous := &domain.BrandAccuracyStats{HitRate: 0.8}
	current := &domain.BrandAccuracyStats{HitRate: 0.6}

	svc := suggest.NewService(nil, suggest.Options{})
	got, err := svc.Generate(uuid.New(), nil, current, previous, asOf)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 1 || got[0].Type != domain.SuggestConfidenceAdjust {
		t.Fatalf("expected one confidence-adjust suggestion, got %+v", got)
	}

	// A small dip stays quiet.
	current = &domain.BrandAccuracyStats{HitRate: 0.72}
	got, err = svc.Generate(uuid.New(), nil, current, previous, asOf)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("drop below threshold must not trigger, got %+v", got)
	}
}

func TestEvidenceHashDeterministic(t *testing.T) {
	asOf := date(2024, time.July, 1)
	deltas := []suggest.BrandOutcome{
		hitOutcome(date(2024, time.May, 1), 3),
		hitOutcome(date(2024, time.May, 20), 2),
		hitOutcome(date(2024, time.June, 10), 4),
	}

	svc := suggest.NewService(nil, suggest.Options{})
	brandID := uuid.New()
	first, err := svc.Generate(brandID, deltas, nil, nil, asOf)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := svc.Generate(brandID, deltas, nil, nil, asOf)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if first[0].EvidenceHash != second[0].EvidenceHash {
		t.Errorf("identical evidence must hash identically: %s vs %s", first[0].EvidenceHash, second[0].EvidenceHash)
	}
}

func TestGenerateBrandSuppressesKnownEvidence(t *testing.T) {
	brandID := uuid.New()
	asOf := date(2024, time.July, 1)
	repo := &memRepo{
		outcomes: []suggest.BrandOutcome{
			hitOutcome(date(2024, time.May, 1), 3),
			hitOutcome(date(2024, time.May, 20), 2),
			hitOutcome(date(2024, time.June, 10), 4),
		},
		suggestions: map[uuid.UUID]*domain.AdjustmentSuggestion{},
	}
	svc := suggest.NewService(repo, suggest.Options{})

	first, err := svc.GenerateBrand(context.Background(), brandID, nil, nil, asOf)
	if err != nil {
		t.Fatalf("GenerateBrand: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(first))
	}

	// Resolve it, then regenerate over unchanged evidence: nothing new,
	// even though the original is no longer pending.
	if _, err := svc.Resolve(context.Background(), first[0].ID, false); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := svc.GenerateBrand(context.Background(), brandID, nil, nil, asOf)
	if err != nil {
		t.Fatalf("GenerateBrand rerun: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("unchanged evidence must not re-emit, got %d", len(second))
	}
}

func TestResolveTransitions(t *testing.T) {
	brandID := uuid.New()
	sg := &domain.AdjustmentSuggestion{
		ID:      uuid.New(),
		BrandID: brandID,
		Type:    domain.SuggestTimingShift,
		Status:  domain.SuggestionPending,
	}
	repo := &memRepo{suggestions: map[uuid.UUID]*domain.AdjustmentSuggestion{sg.ID: sg}}
	svc := suggest.NewService(repo, suggest.Options{})

	resolved, err := svc.Resolve(context.Background(), sg.ID, true)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Status != domain.SuggestionApproved || resolved.ResolvedAt == nil {
		t.Errorf("approve did not transition: %+v", resolved)
	}

	// A second resolution is a conflict.
	if _, err := svc.Resolve(context.Background(), sg.ID, false); !errors.Is(err, suggest.ErrAlreadyResolved) {
		t.Errorf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestResolveUnknownSuggestion(t *testing.T) {
	repo := &memRepo{suggestions: map[uuid.UUID]*domain.AdjustmentSuggestion{}}
	svc := suggest.NewService(repo, suggest.Options{})

	if _, err := svc.Resolve(context.Background(), uuid.New(), true); !errors.Is(err, suggest.ErrSuggestionNotFound) {
		t.Errorf("expected ErrSuggestionNotFound, got %v", err)
	}
}

// memRepo is an in-memory suggest repository for unit testing.
type memRepo struct {
	outcomes    []suggest.BrandOutcome
	suggestions map[uuid.UUID]*domain.AdjustmentSuggestion
}

func (m *memRepo) ListRecentOutcomes(_ context.Context, _ uuid.UUID, since time.Time) ([]suggest.BrandOutcome, error) {
	var out []suggest.BrandOutcome
	for _, bo := range m.outcomes {
		if !bo.PredictedStart.Before(since) {
			out = append(out, bo)
		}
	}
	return out, nil
}

func (m *memRepo) ExistingEvidenceHashes(_ context.Context, brandID uuid.UUID) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for _, sg := range m.suggestions {
		if sg.BrandID == brandID {
			out[sg.EvidenceHash] = struct{}{}
		}
	}
	return out, nil
}

func (m *memRepo) CreateSuggestions(_ context.Context, _ uuid.UUID, suggestions []domain.AdjustmentSuggestion) error {
	for i := range suggestions {
		sg := suggestions[i]
		m.suggestions[sg.ID] = &sg
	}
	return nil
}

func (m *memRepo) GetSuggestion(_ context.Context, id uuid.UUID) (*domain.AdjustmentSuggestion, error) {
	sg, ok := m.suggestions[id]
	if !ok {
		return nil, suggest.ErrSuggestionNotFound
	}
	return sg, nil
}

func (m *memRepo) SaveSuggestion(_ context.Context, sg *domain.AdjustmentSuggestion) error {
	m.suggestions[sg.ID] = sg
	return nil
}
