package accuracy

import (
	"context"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
)

// Repository defines the data access contract for accuracy computation.
// Implementations must be safe for concurrent use.
type Repository interface {
	// ListOutcomesByBrand returns every outcome whose prediction belongs to
	// the brand.
	ListOutcomesByBrand(ctx context.Context, brandID uuid.UUID) ([]domain.PredictionOutcome, error)

	// UpsertStats replaces the brand's stored stats row.
	UpsertStats(ctx context.Context, stats *domain.BrandAccuracyStats) error

	// GetStats returns the brand's stored stats or domain-level not found.
	GetStats(ctx context.Context, brandID uuid.UUID) (*domain.BrandAccuracyStats, error)
}
