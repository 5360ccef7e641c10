// Package repository persists lead scores in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nexus_crm_backend/platform/apperr"
)

const scoreColumns = `lead_id, budget_score, timeline_score, engagement_score, fit_score, composite_score, quality, scored_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new lead score repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByLead retrieves the latest score for a lead.
func (r *Repo) GetByLead(ctx context.Context, leadID uuid.UUID) (LeadScore, error) {
	query := `SELECT ` + scoreColumns + ` FROM lead_scores WHERE lead_id = $1`

	score, err := scanScore(r.pool.QueryRow(ctx, query, leadID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LeadScore{}, apperr.NotFound("lead has not been scored yet")
		}
		return LeadScore{}, fmt.Errorf("get lead score: %w", err)
	}
	return score, nil
}

// ListByQuality retrieves scores of one quality tier, best first.
func (r *Repo) ListByQuality(ctx context.Context, quality string, limit, offset int) ([]LeadScore, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM lead_scores WHERE quality = $1`
	if err := r.pool.QueryRow(ctx, countQuery, quality).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count lead scores: %w", err)
	}

	query := `
		SELECT ` + scoreColumns + `
		FROM lead_scores
		WHERE quality = $1
		ORDER BY composite_score DESC, scored_at DESC, lead_id
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, quality, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list lead scores: %w", err)
	}
	defer rows.Close()

	var results []LeadScore
	for rows.Next() {
		score, err := scanScore(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead score: %w", err)
		}
		results = append(results, score)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate lead scores: %w", err)
	}
	return results, total, nil
}

// CountsByQuality tallies scored leads per quality tier.
func (r *Repo) CountsByQuality(ctx context.Context) (map[string]int, error) {
	query := `SELECT quality, COUNT(*) FROM lead_scores GROUP BY quality`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count scores by quality: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var quality string
		var count int
		if err := rows.Scan(&quality, &count); err != nil {
			return nil, fmt.Errorf("scan quality count: %w", err)
		}
		counts[quality] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quality counts: %w", err)
	}
	return counts, nil
}

// Upsert stores the latest score for a lead, replacing any previous row.
func (r *Repo) Upsert(ctx context.Context, params UpsertParams) (LeadScore, error) {
	query := `
		INSERT INTO lead_scores (lead_id, budget_score, timeline_score, engagement_score, fit_score, composite_score, quality, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (lead_id) DO UPDATE SET
			budget_score = EXCLUDED.budget_score,
			timeline_score = EXCLUDED.timeline_score,
			engagement_score = EXCLUDED.engagement_score,
			fit_score = EXCLUDED.fit_score,
			composite_score = EXCLUDED.composite_score,
			quality = EXCLUDED.quality,
			scored_at = now()
		RETURNING ` + scoreColumns

	score, err := scanScore(r.pool.QueryRow(ctx, query,
		params.LeadID, params.BudgetScore, params.TimelineScore, params.EngagementScore,
		params.FitScore, params.CompositeScore, params.Quality))
	if err != nil {
		return LeadScore{}, fmt.Errorf("upsert lead score: %w", err)
	}
	return score, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScore(row rowScanner) (LeadScore, error) {
	var s LeadScore
	err := row.Scan(&s.LeadID, &s.BudgetScore, &s.TimelineScore, &s.EngagementScore,
		&s.FitScore, &s.CompositeScore, &s.Quality, &s.ScoredAt)
	return s, err
}
