// Package repository persists the append-only sales activity ledger in
// PostgreSQL.
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

const activityNotFoundMessage = "activity not found"

const activityColumns = `id, opportunity_id, lead_id, type, subject, notes, due_at,
	completed_at, amends_id, created_by, created_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new activity repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Record appends a ledger entry.
func (r *Repo) Record(ctx context.Context, params RecordParams) (Activity, error) {
	query := `
		INSERT INTO sales_activities (opportunity_id, lead_id, type, subject, notes,
			due_at, amends_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + activityColumns

	row := r.pool.QueryRow(ctx, query,
		params.OpportunityID, params.LeadID, params.Type, params.Subject,
		params.Notes, params.DueAt, params.AmendsID, params.CreatedBy,
	)

	activity, err := scanActivity(row)
	if err != nil {
		return Activity{}, fmt.Errorf("record activity: %w", err)
	}
	return activity, nil
}

// GetByID retrieves a ledger entry by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM sales_activities WHERE id = $1`

	activity, err := scanActivity(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Activity{}, apperr.NotFound(activityNotFoundMessage)
		}
		return Activity{}, fmt.Errorf("get activity by id: %w", err)
	}
	return activity, nil
}

// ListForOpportunity retrieves all ledger entries for one opportunity,
// newest first.
func (r *Repo) ListForOpportunity(ctx context.Context, opportunityID uuid.UUID) ([]Activity, error) {
	query := `
		SELECT ` + activityColumns + ` FROM sales_activities
		WHERE opportunity_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list activities for opportunity: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// ListForLead retrieves all ledger entries linked to one lead, newest first.
func (r *Repo) ListForLead(ctx context.Context, leadID uuid.UUID) ([]Activity, error) {
	query := `
		SELECT ` + activityColumns + ` FROM sales_activities
		WHERE lead_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("list activities for lead: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// StatsForLead summarizes completed activities for engagement scoring.
// Amendments are excluded so a corrected entry is not counted twice.
func (r *Repo) StatsForLead(ctx context.Context, leadID uuid.UUID) (LeadStats, error) {
	query := `
		SELECT COUNT(*), MAX(completed_at)
		FROM sales_activities
		WHERE lead_id = $1 AND completed_at IS NOT NULL AND amends_id IS NULL`

	var stats LeadStats
	if err := r.pool.QueryRow(ctx, query, leadID).Scan(&stats.CompletedCount, &stats.LastCompleted); err != nil {
		return LeadStats{}, fmt.Errorf("activity stats for lead: %w", err)
	}
	return stats, nil
}

// Complete stamps completed_at exactly once.
func (r *Repo) Complete(ctx context.Context, id uuid.UUID) (Activity, error) {
	query := `
		UPDATE sales_activities SET completed_at = now()
		WHERE id = $1 AND completed_at IS NULL
		RETURNING ` + activityColumns

	activity, err := scanActivity(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Activity{}, r.completedOrMissing(ctx, id)
		}
		return Activity{}, fmt.Errorf("complete activity: %w", err)
	}
	return activity, nil
}

// completedOrMissing distinguishes a repeat completion from a missing row.
func (r *Repo) completedOrMissing(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sales_activities WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check activity exists: %w", err)
	}
	if exists {
		return apperr.AlreadyCompleted("activity is already completed")
	}
	return apperr.NotFound(activityNotFoundMessage)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (Activity, error) {
	var a Activity
	err := row.Scan(
		&a.ID, &a.OpportunityID, &a.LeadID, &a.Type, &a.Subject, &a.Notes,
		&a.DueAt, &a.CompletedAt, &a.AmendsID, &a.CreatedBy, &a.CreatedAt,
	)
	return a, err
}

func scanActivities(rows pgx.Rows) ([]Activity, error) {
	var results []Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		results = append(results, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return results, nil
}
