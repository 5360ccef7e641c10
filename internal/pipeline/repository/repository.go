// Package repository persists pipeline opportunities in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nexus_crm_backend/platform/apperr"
)

const opportunityNotFoundMessage = "opportunity not found"

const opportunityColumns = `id, lead_id, title, amount_cents, probability, stage, lost_reason,
	owner_id, expected_close_date, actual_close_date, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new opportunity repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create opens a new opportunity.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Opportunity, error) {
	query := `
		INSERT INTO opportunities (lead_id, title, amount_cents, probability, stage,
			owner_id, expected_close_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + opportunityColumns

	row := r.pool.QueryRow(ctx, query,
		params.LeadID, params.Title, params.AmountCents, params.Probability,
		params.Stage, params.OwnerID, params.ExpectedCloseDate,
	)

	opp, err := scanOpportunity(row)
	if err != nil {
		return Opportunity{}, fmt.Errorf("create opportunity: %w", err)
	}
	return opp, nil
}

// GetByID retrieves an opportunity by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE id = $1`

	opp, err := scanOpportunity(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Opportunity{}, apperr.NotFound(opportunityNotFoundMessage)
		}
		return Opportunity{}, fmt.Errorf("get opportunity by id: %w", err)
	}
	return opp, nil
}

// GetByLead retrieves the opportunity opened from a lead, if any.
func (r *Repo) GetByLead(ctx context.Context, leadID uuid.UUID) (Opportunity, error) {
	query := `
		SELECT ` + opportunityColumns + ` FROM opportunities
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	opp, err := scanOpportunity(r.pool.QueryRow(ctx, query, leadID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Opportunity{}, apperr.NotFound(opportunityNotFoundMessage)
		}
		return Opportunity{}, fmt.Errorf("get opportunity by lead: %w", err)
	}
	return opp, nil
}

// List retrieves opportunities with optional stage/owner/close-date filters,
// soonest expected close first.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Opportunity, int, error) {
	var stageParam, ownerParam, closingParam interface{}
	if params.Stage != nil {
		stageParam = *params.Stage
	}
	if params.OwnerID != nil {
		ownerParam = *params.OwnerID
	}
	if params.ClosingBefore != nil {
		closingParam = *params.ClosingBefore
	}

	filter := `
		WHERE ($1::text IS NULL OR stage = $1)
		  AND ($2::uuid IS NULL OR owner_id = $2)
		  AND ($3::timestamptz IS NULL OR expected_close_date < $3)`

	var total int
	countQuery := `SELECT COUNT(*) FROM opportunities` + filter
	if err := r.pool.QueryRow(ctx, countQuery, stageParam, ownerParam, closingParam).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count opportunities: %w", err)
	}

	query := `
		SELECT ` + opportunityColumns + `
		FROM opportunities` + filter + `
		ORDER BY expected_close_date ASC NULLS LAST, id
		LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query, stageParam, ownerParam, closingParam, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	opps, err := scanOpportunities(rows)
	if err != nil {
		return nil, 0, err
	}
	return opps, total, nil
}

// ListAll retrieves every opportunity for stats projection.
func (r *Repo) ListAll(ctx context.Context) ([]Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all opportunities: %w", err)
	}
	defer rows.Close()

	return scanOpportunities(rows)
}

// UpdateStage applies a stage transition under optimistic concurrency.
func (r *Repo) UpdateStage(ctx context.Context, params UpdateStageParams) (Opportunity, error) {
	query := `
		UPDATE opportunities
		SET stage = $2, probability = $3, lost_reason = $4, actual_close_date = $5, updated_at = now()
		WHERE id = $1 AND updated_at = $6
		RETURNING ` + opportunityColumns

	opp, err := scanOpportunity(r.pool.QueryRow(ctx, query,
		params.ID, params.Stage, params.Probability, params.LostReason,
		params.ActualCloseDate, params.Expected))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Opportunity{}, r.staleOrMissing(ctx, params.ID, "opportunity was modified concurrently")
		}
		return Opportunity{}, fmt.Errorf("update opportunity stage: %w", err)
	}
	return opp, nil
}

// UpdateDetails amends the mutable details of an open opportunity.
func (r *Repo) UpdateDetails(ctx context.Context, id uuid.UUID, params CreateParams, expected time.Time) (Opportunity, error) {
	query := `
		UPDATE opportunities
		SET title = $2, amount_cents = $3, owner_id = $4, expected_close_date = $5, updated_at = now()
		WHERE id = $1 AND updated_at = $6
		RETURNING ` + opportunityColumns

	opp, err := scanOpportunity(r.pool.QueryRow(ctx, query,
		id, params.Title, params.AmountCents, params.OwnerID, params.ExpectedCloseDate, expected))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Opportunity{}, r.staleOrMissing(ctx, id, "opportunity was modified concurrently")
		}
		return Opportunity{}, fmt.Errorf("update opportunity details: %w", err)
	}
	return opp, nil
}

// staleOrMissing distinguishes an optimistic-lock miss from a missing row.
func (r *Repo) staleOrMissing(ctx context.Context, id uuid.UUID, staleMessage string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM opportunities WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check opportunity exists: %w", err)
	}
	if exists {
		return apperr.ConcurrentUpdate(staleMessage)
	}
	return apperr.NotFound(opportunityNotFoundMessage)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOpportunity(row rowScanner) (Opportunity, error) {
	var o Opportunity
	err := row.Scan(
		&o.ID, &o.LeadID, &o.Title, &o.AmountCents, &o.Probability, &o.Stage,
		&o.LostReason, &o.OwnerID, &o.ExpectedCloseDate, &o.ActualCloseDate,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func scanOpportunities(rows pgx.Rows) ([]Opportunity, error) {
	var results []Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		results = append(results, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opportunities: %w", err)
	}
	return results, nil
}
