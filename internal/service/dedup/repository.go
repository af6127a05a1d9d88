package dedup

import (
	"context"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
)

// Repository defines the data access contract for deduplication.
// Implementations must be safe for concurrent use.
type Repository interface {
	// GetBrand returns a single brand. Returns ErrBrandNotFound if it
	// doesn't exist.
	GetBrand(ctx context.Context, id uuid.UUID) (*domain.Brand, error)

	// ListUngroupedObservations returns the brand's observations not yet
	// linked to any sale window, oldest first.
	ListUngroupedObservations(ctx context.Context, brandID uuid.UUID) ([]domain.SaleObservation, error)

	// CreateWindows persists a brand's new sale windows atomically: all
	// windows commit or none do.
	CreateWindows(ctx context.Context, brandID uuid.UUID, windows []domain.SaleWindow) error
}
