package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/service/verify"
)

// PredictionFilter narrows prediction listings.
type PredictionFilter struct {
	BrandID *uuid.UUID
	Year    *int
}

// PredictionRepo serves the API's prediction read paths and the
// calendar-sync write-back.
type PredictionRepo struct{ db *sql.DB }

// NewPredictionRepo creates a Postgres-backed prediction query repository.
func NewPredictionRepo(db *sql.DB) *PredictionRepo { return &PredictionRepo{db: db} }

func (r *PredictionRepo) List(ctx context.Context, f PredictionFilter) ([]domain.Prediction, error) {
	q := `SELECT ` + predictionColumns + ` FROM predictions WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if f.BrandID != nil {
		q += fmt.Sprintf(" AND brand_id = $%d", idx)
		args = append(args, *f.BrandID)
		idx++
	}
	if f.Year != nil {
		q += fmt.Sprintf(" AND target_year = $%d", idx)
		args = append(args, *f.Year)
		idx++
	}
	q += " ORDER BY predicted_start"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var out []domain.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PredictionRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Prediction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+predictionColumns+` FROM predictions WHERE id = $1`, id)
	p, err := scanPrediction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, verify.ErrPredictionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", err)
	}
	return &p, nil
}

// ListUpcoming returns predictions starting within the next N days,
// soonest first. The notification collaborator reads this to build digests.
func (r *PredictionRepo) ListUpcoming(ctx context.Context, asOf time.Time, days int) ([]domain.Prediction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+predictionColumns+`
		 FROM predictions
		 WHERE predicted_start >= $1 AND predicted_start <= $2
		 ORDER BY predicted_start`, asOf, asOf.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("list upcoming predictions: %w", err)
	}
	defer rows.Close()

	var out []domain.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetCalendarRef records the external calendar event id on a prediction,
// the one field a collaborator may write back.
func (r *PredictionRepo) SetCalendarRef(ctx context.Context, id uuid.UUID, calendarEventID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE predictions SET calendar_event_id = $1 WHERE id = $2
	`, calendarEventID, id)
	if err != nil {
		return fmt.Errorf("set calendar ref: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return verify.ErrPredictionNotFound
	}
	return nil
}
