package verify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
)

// Repository defines the data access contract for verification.
// Implementations must be safe for concurrent use.
type Repository interface {
	// ListElapsedPredictions returns a brand's predictions whose predicted
	// end plus the grace period falls before asOf.
	ListElapsedPredictions(ctx context.Context, brandID uuid.UUID, asOf time.Time) ([]domain.Prediction, error)

	// GetOutcomes returns existing outcomes keyed by prediction id for the
	// given predictions. Predictions without an outcome are absent from the
	// map.
	GetOutcomes(ctx context.Context, predictionIDs []uuid.UUID) (map[uuid.UUID]domain.PredictionOutcome, error)

	// ListObservationsSince returns a brand's observations created at or
	// after the given time. The verifier reads one snapshot per pass.
	ListObservationsSince(ctx context.Context, brandID uuid.UUID, since time.Time) ([]domain.SaleObservation, error)

	// UpsertOutcomes persists a brand's outcomes atomically, inserting or
	// replacing by prediction id.
	UpsertOutcomes(ctx context.Context, brandID uuid.UUID, outcomes []domain.PredictionOutcome) error

	// GetPrediction returns one prediction or domain-level not found.
	GetPrediction(ctx context.Context, predictionID uuid.UUID) (*domain.Prediction, error)

	// GetOutcome returns the outcome for one prediction, or nil when
	// auto-verification has not produced one yet.
	GetOutcome(ctx context.Context, predictionID uuid.UUID) (*domain.PredictionOutcome, error)

	// SaveOutcome inserts or replaces a single outcome.
	SaveOutcome(ctx context.Context, outcome *domain.PredictionOutcome) error
}
