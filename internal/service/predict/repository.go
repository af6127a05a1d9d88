package predict

import (
	"context"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
)

// Repository defines the data access contract for prediction generation.
// Implementations must be safe for concurrent use.
type Repository interface {
	// ListWindowsByYear returns a brand's sale windows for one calendar
	// year, ordered by start date.
	ListWindowsByYear(ctx context.Context, brandID uuid.UUID, year int) ([]domain.SaleWindow, error)

	// ListWindowsBefore returns all of a brand's windows from years before
	// the given year, newest first. Used for confidence scoring.
	ListWindowsBefore(ctx context.Context, brandID uuid.UUID, year int) ([]domain.SaleWindow, error)

	// PredictedWindowIDs returns the source window ids that already have a
	// prediction for the target year.
	PredictedWindowIDs(ctx context.Context, brandID uuid.UUID, targetYear int) (map[uuid.UUID]struct{}, error)

	// CreatePredictions persists a brand's new predictions atomically.
	CreatePredictions(ctx context.Context, brandID uuid.UUID, predictions []domain.Prediction) error
}
