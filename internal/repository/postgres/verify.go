package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/service/verify"
)

// VerifyRepo implements verify.Repository against PostgreSQL.
type VerifyRepo struct{ db *sql.DB }

// NewVerifyRepo creates a Postgres-backed verify repository.
func NewVerifyRepo(db *sql.DB) *VerifyRepo { return &VerifyRepo{db: db} }

const predictionColumns = `
	id, brand_id, source_window_id, target_year,
	predicted_start, predicted_end, discount_summary, discount_value,
	COALESCE(holiday_anchor,''), confidence, COALESCE(calendar_event_id,''), created_at`

func scanPrediction(scan func(...interface{}) error) (domain.Prediction, error) {
	var p domain.Prediction
	err := scan(
		&p.ID, &p.BrandID, &p.SourceWindowID, &p.TargetYear,
		&p.PredictedStart, &p.PredictedEnd, &p.DiscountSummary, &p.DiscountValue,
		&p.HolidayAnchor, &p.Confidence, &p.CalendarEventID, &p.CreatedAt,
	)
	if err != nil {
		return domain.Prediction{}, err
	}
	return p, nil
}

func (r *VerifyRepo) ListElapsedPredictions(ctx context.Context, brandID uuid.UUID, asOf time.Time) ([]domain.Prediction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+predictionColumns+`
		 FROM predictions
		 WHERE brand_id = $1 AND predicted_end < $2
		 ORDER BY predicted_start`, brandID, asOf)
	if err != nil {
		return nil, fmt.Errorf("list elapsed predictions: %w", err)
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

const outcomeColumns = `
	id, prediction_id, auto_result, auto_verified_at, matched_observation_ids,
	manual_override, COALESCE(manual_result,''), COALESCE(override_reason,''), overridden_at,
	actual_start, actual_end, actual_discount, timing_delta_days, discount_delta_percent, created_at`

func scanOutcome(scan func(...interface{}) error) (domain.PredictionOutcome, error) {
	var (
		o       domain.PredictionOutcome
		matched pq.StringArray
	)
	err := scan(
		&o.ID, &o.PredictionID, &o.AutoResult, &o.AutoVerifiedAt, &matched,
		&o.ManualOverride, &o.ManualResult, &o.OverrideReason, &o.OverriddenAt,
		&o.ActualStart, &o.ActualEnd, &o.ActualDiscount, &o.TimingDeltaDays, &o.DiscountDeltaPercent, &o.CreatedAt,
	)
	if err != nil {
		return domain.PredictionOutcome{}, err
	}
	ids, err := parseUUIDs(matched)
	if err != nil {
		return domain.PredictionOutcome{}, err
	}
	o.MatchedObservationIDs = ids
	return o, nil
}

func (r *VerifyRepo) GetOutcomes(ctx context.Context, predictionIDs []uuid.UUID) (map[uuid.UUID]domain.PredictionOutcome, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+outcomeColumns+`
		 FROM prediction_outcomes
		 WHERE prediction_id = ANY($1::uuid[])`, pq.Array(uuidStrings(predictionIDs)))
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	out := map[uuid.UUID]domain.PredictionOutcome{}
	for rows.Next() {
		o, err := scanOutcome(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out[o.PredictionID] = o
	}
	return out, rows.Err()
}

func (r *VerifyRepo) ListObservationsSince(ctx context.Context, brandID uuid.UUID, since time.Time) ([]domain.SaleObservation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, brand_id, sale_start, sale_end,
		       discount_type, discount_value, discount_max,
		       is_sitewide, categories, excluded_categories,
		       confidence, COALESCE(source_ref,''), created_at
		FROM sale_observations
		WHERE brand_id = $1 AND created_at >= $2
		ORDER BY created_at
	`, brandID, since)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
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

func upsertOutcome(ctx context.Context, execer interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
}, o *domain.PredictionOutcome) error {
	_, err := execer.ExecContext(ctx, `
		INSERT INTO prediction_outcomes
			(id, prediction_id, auto_result, auto_verified_at, matched_observation_ids,
			 manual_override, manual_result, override_reason, overridden_at,
			 actual_start, actual_end, actual_discount, timing_delta_days, discount_delta_percent, created_at)
		VALUES ($1, $2, $3, $4, $5::uuid[], $6, NULLIF($7,''), NULLIF($8,''), $9, $10, $11, $12, $13, $14, NOW())
		ON CONFLICT (prediction_id) DO UPDATE SET
			auto_result = EXCLUDED.auto_result,
			auto_verified_at = EXCLUDED.auto_verified_at,
			matched_observation_ids = EXCLUDED.matched_observation_ids,
			manual_override = EXCLUDED.manual_override,
			manual_result = EXCLUDED.manual_result,
			override_reason = EXCLUDED.override_reason,
			overridden_at = EXCLUDED.overridden_at,
			actual_start = EXCLUDED.actual_start,
			actual_end = EXCLUDED.actual_end,
			actual_discount = EXCLUDED.actual_discount,
			timing_delta_days = EXCLUDED.timing_delta_days,
			discount_delta_percent = EXCLUDED.discount_delta_percent
	`, o.ID, o.PredictionID, o.AutoResult, o.AutoVerifiedAt, pq.Array(uuidStrings(o.MatchedObservationIDs)),
		o.ManualOverride, string(o.ManualResult), o.OverrideReason, o.OverriddenAt,
		o.ActualStart, o.ActualEnd, o.ActualDiscount, o.TimingDeltaDays, o.DiscountDeltaPercent)
	return err
}

func (r *VerifyRepo) UpsertOutcomes(ctx context.Context, brandID uuid.UUID, outcomes []domain.PredictionOutcome) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for i := range outcomes {
		if err := upsertOutcome(ctx, tx, &outcomes[i]); err != nil {
			return fmt.Errorf("upsert outcome for prediction %s: %w", outcomes[i].PredictionID, err)
		}
	}
	return tx.Commit()
}

func (r *VerifyRepo) GetPrediction(ctx context.Context, predictionID uuid.UUID) (*domain.Prediction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+predictionColumns+` FROM predictions WHERE id = $1`, predictionID)
	p, err := scanPrediction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, verify.ErrPredictionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", err)
	}
	return &p, nil
}

func (r *VerifyRepo) GetOutcome(ctx context.Context, predictionID uuid.UUID) (*domain.PredictionOutcome, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+outcomeColumns+` FROM prediction_outcomes WHERE prediction_id = $1`, predictionID)
	o, err := scanOutcome(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get outcome: %w", err)
	}
	return &o, nil
}

func (r *VerifyRepo) SaveOutcome(ctx context.Context, outcome *domain.PredictionOutcome) error {
	if err := upsertOutcome(ctx, r.db, outcome); err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}
	return nil
}
