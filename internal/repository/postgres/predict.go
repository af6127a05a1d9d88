package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/salewatch/salewatch/internal/domain"
)

// PredictRepo implements predict.Repository against PostgreSQL.
type PredictRepo struct{ db *sql.DB }

// NewPredictRepo creates a Postgres-backed predict repository.
func NewPredictRepo(db *sql.DB) *PredictRepo { return &PredictRepo{db: db} }

const windowColumns = `
	id, brand_id, name, discount_summary,
	discount_type, discount_value, discount_max,
	start_date, end_date, observation_ids,
	COALESCE(holiday_anchor,''), categories, is_sitewide, year, created_at`

func scanWindow(rows *sql.Rows) (domain.SaleWindow, error) {
	var (
		w          domain.SaleWindow
		obsIDs     pq.StringArray
		categories pq.StringArray
	)
	if err := rows.Scan(
		&w.ID, &w.BrandID, &w.Name, &w.DiscountSummary,
		&w.Discount.Type, &w.Discount.Value, &w.Discount.MaxValue,
		&w.Start, &w.End, &obsIDs,
		&w.HolidayAnchor, &categories, &w.Sitewide, &w.Year, &w.CreatedAt,
	); err != nil {
		return domain.SaleWindow{}, fmt.Errorf("scan window: %w", err)
	}
	ids, err := parseUUIDs(obsIDs)
	if err != nil {
		return domain.SaleWindow{}, err
	}
	w.ObservationIDs = ids
	w.Categories = categories
	return w, nil
}

func (r *PredictRepo) listWindows(ctx context.Context, where string, args ...interface{}) ([]domain.SaleWindow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+windowColumns+` FROM sale_windows WHERE `+where+` ORDER BY start_date`, args...)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	defer rows.Close()

	var out []domain.SaleWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *PredictRepo) ListWindowsByYear(ctx context.Context, brandID uuid.UUID, year int) ([]domain.SaleWindow, error) {
	return r.listWindows(ctx, "brand_id = $1 AND year = $2", brandID, year)
}

func (r *PredictRepo) ListWindowsBefore(ctx context.Context, brandID uuid.UUID, year int) ([]domain.SaleWindow, error) {
	return r.listWindows(ctx, "brand_id = $1 AND year < $2", brandID, year)
}

func (r *PredictRepo) PredictedWindowIDs(ctx context.Context, brandID uuid.UUID, targetYear int) (map[uuid.UUID]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source_window_id FROM predictions
		WHERE brand_id = $1 AND target_year = $2
	`, brandID, targetYear)
	if err != nil {
		return nil, fmt.Errorf("list predicted windows: %w", err)
	}
	defer rows.Close()

	out := map[uuid.UUID]struct{}{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan window id: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// CreatePredictions inserts a brand's predictions in one transaction. The
// unique (source_window_id, target_year) index backstops the
// one-prediction-per-window invariant against concurrent passes.
func (r *PredictRepo) CreatePredictions(ctx context.Context, brandID uuid.UUID, predictions []domain.Prediction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, p := range predictions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO predictions
				(id, brand_id, source_window_id, target_year,
				 predicted_start, predicted_end, discount_summary, discount_value,
				 holiday_anchor, confidence, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
			ON CONFLICT (source_window_id, target_year) DO NOTHING
		`, p.ID, p.BrandID, p.SourceWindowID, p.TargetYear,
			p.PredictedStart, p.PredictedEnd, p.DiscountSummary, p.DiscountValue,
			p.HolidayAnchor, p.Confidence)
		if err != nil {
			return fmt.Errorf("insert prediction %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}
