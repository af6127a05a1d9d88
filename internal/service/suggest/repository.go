package suggest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
)

// BrandOutcome pairs an outcome with its prediction's start date, which
// drives the lookback window and miss-streak ordering.
type BrandOutcome struct {
	Outcome        domain.PredictionOutcome
	PredictedStart time.Time
}

// Repository defines the data access contract for suggestion generation.
// Implementations must be safe for concurrent use.
type Repository interface {
	// ListRecentOutcomes returns a brand's outcomes whose predicted start
	// falls at or after since, ordered by predicted start ascending.
	ListRecentOutcomes(ctx context.Context, brandID uuid.UUID, since time.Time) ([]BrandOutcome, error)

	// ExistingEvidenceHashes returns every evidence hash the brand already
	// has a suggestion for, pending and resolved alike.
	ExistingEvidenceHashes(ctx context.Context, brandID uuid.UUID) (map[string]struct{}, error)

	// CreateSuggestions persists a brand's new suggestions atomically.
	CreateSuggestions(ctx context.Context, brandID uuid.UUID, suggestions []domain.AdjustmentSuggestion) error

	// GetSuggestion returns one suggestion or domain-level not found.
	GetSuggestion(ctx context.Context, id uuid.UUID) (*domain.AdjustmentSuggestion, error)

	// SaveSuggestion replaces a suggestion's stored state.
	SaveSuggestion(ctx context.Context, suggestion *domain.AdjustmentSuggestion) error
}
