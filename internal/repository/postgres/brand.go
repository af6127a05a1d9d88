package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
)

// BrandRepo reads brand records for passes and the API.
type BrandRepo struct{ db *sql.DB }

// NewBrandRepo creates a Postgres-backed brand repository.
func NewBrandRepo(db *sql.DB) *BrandRepo { return &BrandRepo{db: db} }

func (r *BrandRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	b := &domain.Brand{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, slug, active, created_at, updated_at
		FROM brands
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Name, &b.Slug, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("brand %s: not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get brand: %w", err)
	}
	return b, nil
}

// ListActive returns brands eligible for scheduled passes.
func (r *BrandRepo) ListActive(ctx context.Context) ([]domain.Brand, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, slug, active, created_at, updated_at
		FROM brands
		WHERE active = true
		ORDER BY slug
	`)
	if err != nil {
		return nil, fmt.Errorf("list active brands: %w", err)
	}
	defer rows.Close()

	var out []domain.Brand
	for rows.Next() {
		var b domain.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Slug, &b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
