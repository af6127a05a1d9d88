package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/service/accuracy"
)

// AccuracyRepo implements accuracy.Repository against PostgreSQL.
type AccuracyRepo struct{ db *sql.DB }

// NewAccuracyRepo creates a Postgres-backed accuracy repository.
func NewAccuracyRepo(db *sql.DB) *AccuracyRepo { return &AccuracyRepo{db: db} }

func (r *AccuracyRepo) ListOutcomesByBrand(ctx context.Context, brandID uuid.UUID) ([]domain.PredictionOutcome, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.prediction_id, o.auto_result, o.auto_verified_at, o.matched_observation_ids,
		       o.manual_override, COALESCE(o.manual_result,''), COALESCE(o.override_reason,''), o.overridden_at,
		       o.actual_start, o.actual_end, o.actual_discount, o.timing_delta_days, o.discount_delta_percent, o.created_at
		FROM prediction_outcomes o
		JOIN predictions p ON p.id = o.prediction_id
		WHERE p.brand_id = $1
		ORDER BY p.predicted_start
	`, brandID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []domain.PredictionOutcome
	for rows.Next() {
		o, err := scanOutcome(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *AccuracyRepo) UpsertStats(ctx context.Context, s *domain.BrandAccuracyStats) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO brand_accuracy_stats
			(brand_id, total_predictions, correct_predictions, hit_rate,
			 avg_timing_delta_days, timing_delta_std, avg_discount_delta_percent,
			 reliability_score, reliability_tier, last_calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (brand_id) DO UPDATE SET
			total_predictions = EXCLUDED.total_predictions,
			correct_predictions = EXCLUDED.correct_predictions,
			hit_rate = EXCLUDED.hit_rate,
			avg_timing_delta_days = EXCLUDED.avg_timing_delta_days,
			timing_delta_std = EXCLUDED.timing_delta_std,
			avg_discount_delta_percent = EXCLUDED.avg_discount_delta_percent,
			reliability_score = EXCLUDED.reliability_score,
			reliability_tier = EXCLUDED.reliability_tier,
			last_calculated_at = EXCLUDED.last_calculated_at
	`, s.BrandID, s.TotalPredictions, s.CorrectPredictions, s.HitRate,
		s.AvgTimingDeltaDays, s.TimingDeltaStdDev, s.AvgDiscountDeltaPercent,
		s.ReliabilityScore, s.ReliabilityTier, s.LastCalculatedAt)
	if err != nil {
		return fmt.Errorf("upsert stats: %w", err)
	}
	return nil
}

const statsColumns = `
	brand_id, total_predictions, correct_predictions, hit_rate,
	avg_timing_delta_days, timing_delta_std, avg_discount_delta_percent,
	reliability_score, reliability_tier, last_calculated_at`

func scanStats(scan func(...interface{}) error) (domain.BrandAccuracyStats, error) {
	var s domain.BrandAccuracyStats
	err := scan(
		&s.BrandID, &s.TotalPredictions, &s.CorrectPredictions, &s.HitRate,
		&s.AvgTimingDeltaDays, &s.TimingDeltaStdDev, &s.AvgDiscountDeltaPercent,
		&s.ReliabilityScore, &s.ReliabilityTier, &s.LastCalculatedAt,
	)
	return s, err
}

func (r *AccuracyRepo) GetStats(ctx context.Context, brandID uuid.UUID) (*domain.BrandAccuracyStats, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+statsColumns+` FROM brand_accuracy_stats WHERE brand_id = $1`, brandID)
	s, err := scanStats(row.Scan)
	if err == sql.ErrNoRows {
		return nil, accuracy.ErrStatsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &s, nil
}

// ListAllStats returns every brand's stats row, worst reliability first,
// for the accuracy overview endpoints.
func (r *AccuracyRepo) ListAllStats(ctx context.Context) ([]domain.BrandAccuracyStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+statsColumns+` FROM brand_accuracy_stats ORDER BY reliability_score`)
	if err != nil {
		return nil, fmt.Errorf("list stats: %w", err)
	}
	defer rows.Close()

	var out []domain.BrandAccuracyStats
	for rows.Next() {
		s, err := scanStats(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
