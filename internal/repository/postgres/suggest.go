package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/service/suggest"
)

// SuggestRepo implements suggest.Repository against PostgreSQL.
type SuggestRepo struct{ db *sql.DB }

// NewSuggestRepo creates a Postgres-backed suggest repository.
func NewSuggestRepo(db *sql.DB) *SuggestRepo { return &SuggestRepo{db: db} }

func (r *SuggestRepo) ListRecentOutcomes(ctx context.Context, brandID uuid.UUID, since time.Time) ([]suggest.BrandOutcome, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.prediction_id, o.auto_result, o.auto_verified_at, o.matched_observation_ids,
		       o.manual_override, COALESCE(o.manual_result,''), COALESCE(o.override_reason,''), o.overridden_at,
		       o.actual_start, o.actual_end, o.actual_discount, o.timing_delta_days, o.discount_delta_percent, o.created_at,
		       p.predicted_start
		FROM prediction_outcomes o
		JOIN predictions p ON p.id = o.prediction_id
		WHERE p.brand_id = $1 AND p.predicted_start >= $2
		ORDER BY p.predicted_start
	`, brandID, since)
	if err != nil {
		return nil, fmt.Errorf("list recent outcomes: %w", err)
	}
	defer rows.Close()

	var out []suggest.BrandOutcome
	for rows.Next() {
		var bo suggest.BrandOutcome
		o, err := scanOutcome(func(dest ...interface{}) error {
			return rows.Scan(append(dest, &bo.PredictedStart)...)
		})
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		bo.Outcome = o
		out = append(out, bo)
	}
	return out, rows.Err()
}

func (r *SuggestRepo) ExistingEvidenceHashes(ctx context.Context, brandID uuid.UUID) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT evidence_hash FROM adjustment_suggestions WHERE brand_id = $1
	`, brandID)
	if err != nil {
		return nil, fmt.Errorf("list evidence hashes: %w", err)
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan hash: %w", err)
		}
		out[h] = struct{}{}
	}
	return out, rows.Err()
}

func (r *SuggestRepo) CreateSuggestions(ctx context.Context, brandID uuid.UUID, suggestions []domain.AdjustmentSuggestion) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, s := range suggestions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO adjustment_suggestions
				(id, brand_id, suggestion_type, description, recommended_action,
				 evidence, evidence_hash, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			ON CONFLICT (brand_id, evidence_hash) DO NOTHING
		`, s.ID, s.BrandID, s.Type, s.Description, s.RecommendedAction,
			[]byte(s.Evidence), s.EvidenceHash, s.Status)
		if err != nil {
			return fmt.Errorf("insert suggestion %s: %w", s.ID, err)
		}
	}
	return tx.Commit()
}

const suggestionColumns = `
	id, brand_id, suggestion_type, description, recommended_action,
	evidence, evidence_hash, status, resolved_at, created_at`

func scanSuggestion(scan func(...interface{}) error) (domain.AdjustmentSuggestion, error) {
	var (
		s        domain.AdjustmentSuggestion
		evidence []byte
	)
	err := scan(
		&s.ID, &s.BrandID, &s.Type, &s.Description, &s.RecommendedAction,
		&evidence, &s.EvidenceHash, &s.Status, &s.ResolvedAt, &s.CreatedAt,
	)
	if err != nil {
		return domain.AdjustmentSuggestion{}, err
	}
	s.Evidence = evidence
	return s, nil
}

func (r *SuggestRepo) GetSuggestion(ctx context.Context, id uuid.UUID) (*domain.AdjustmentSuggestion, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+suggestionColumns+` FROM adjustment_suggestions WHERE id = $1`, id)
	s, err := scanSuggestion(row.Scan)
	if err == sql.ErrNoRows {
		return nil, suggest.ErrSuggestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get suggestion: %w", err)
	}
	return &s, nil
}

func (r *SuggestRepo) SaveSuggestion(ctx context.Context, s *domain.AdjustmentSuggestion) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE adjustment_suggestions
		SET status = $1, resolved_at = $2
		WHERE id = $3
	`, s.Status, s.ResolvedAt, s.ID)
	if err != nil {
		return fmt.Errorf("save suggestion: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return suggest.ErrSuggestionNotFound
	}
	return nil
}

// ListByStatus returns suggestions for the API, newest first. An empty
// status returns everything.
func (r *SuggestRepo) ListByStatus(ctx context.Context, status domain.SuggestionStatus) ([]domain.AdjustmentSuggestion, error) {
	q := `SELECT ` + suggestionColumns + ` FROM adjustment_suggestions`
	args := []interface{}{}
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	var out []domain.AdjustmentSuggestion
	for rows.Next() {
		s, err := scanSuggestion(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
