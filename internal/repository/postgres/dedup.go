package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/service/dedup"
)

// DedupRepo implements dedup.Repository against PostgreSQL.
type DedupRepo struct{ db *sql.DB }

// NewDedupRepo creates a Postgres-backed dedup repository.
func NewDedupRepo(db *sql.DB) *DedupRepo { return &DedupRepo{db: db} }

func (r *DedupRepo) GetBrand(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	b := &domain.Brand{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, slug, active, created_at, updated_at
		FROM brands
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Name, &b.Slug, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, dedup.ErrBrandNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get brand: %w", err)
	}
	return b, nil
}

func (r *DedupRepo) ListUngroupedObservations(ctx context.Context, brandID uuid.UUID) ([]domain.SaleObservation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, brand_id, sale_start, sale_end,
		       discount_type, discount_value, discount_max,
		       is_sitewide, categories, excluded_categories,
		       confidence, COALESCE(source_ref,''), created_at
		FROM sale_observations
		WHERE brand_id = $1 AND window_id IS NULL
		ORDER BY created_at
	`, brandID)
	if err != nil {
		return nil, fmt.Errorf("list ungrouped observations: %w", err)
	}
	defer rows.Close()

	var out []domain.SaleObservation
	for rows.Next() {
		var (
			o          domain.SaleObservation
			categories pq.StringArray
			excluded   pq.StringArray
		)
		if err := rows.Scan(
			&o.ID, &o.BrandID, &o.Start, &o.End,
			&o.Discount.Type, &o.Discount.Value, &o.Discount.MaxValue,
			&o.Sitewide, &categories, &excluded,
			&o.Confidence, &o.SourceRef, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.Categories = categories
		o.ExcludedCategories = excluded
		out = append(out, o)
	}
	return out, rows.Err()
}

// CreateWindows inserts the windows and links their observations in one
// transaction, so a half-grouped brand can never be observed.
func (r *DedupRepo) CreateWindows(ctx context.Context, brandID uuid.UUID, windows []domain.SaleWindow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, w := range windows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_windows
				(id, brand_id, name, discount_summary,
				 discount_type, discount_value, discount_max,
				 start_date, end_date, observation_ids,
				 holiday_anchor, categories, is_sitewide, year, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::uuid[], $11, $12, $13, $14, NOW())
		`, w.ID, w.BrandID, w.Name, w.DiscountSummary,
			w.Discount.Type, w.Discount.Value, w.Discount.MaxValue,
			w.Start, w.End, pq.Array(uuidStrings(w.ObservationIDs)),
			w.HolidayAnchor, pq.Array(w.Categories), w.Sitewide, w.Year)
		if err != nil {
			return fmt.Errorf("insert window %s: %w", w.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE sale_observations SET window_id = $1
			WHERE id = ANY($2::uuid[]) AND brand_id = $3
		`, w.ID, pq.Array(uuidStrings(w.ObservationIDs)), brandID)
		if err != nil {
			return fmt.Errorf("link observations for window %s: %w", w.ID, err)
		}
	}
	return tx.Commit()
}
