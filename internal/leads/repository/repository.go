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

const leadNotFoundMessage = "lead not found"

const leadColumns = `id, first_name, last_name, email, phone, services, budget_band,
	budget_amount_cents, timeline, description, source, status, followup_calls,
	created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create stores a new lead.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Lead, error) {
	query := `
		INSERT INTO leads (first_name, last_name, email, phone, services, budget_band,
			budget_amount_cents, timeline, description, source, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + leadColumns

	row := r.pool.QueryRow(ctx, query,
		params.FirstName, params.LastName, params.Email, params.Phone, params.Services,
		params.BudgetBand, params.BudgetAmountCents, params.Timeline, params.Description,
		params.Source, StatusNew,
	)

	lead, err := scanLead(row)
	if err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}
	return lead, nil
}

// GetByID retrieves a lead by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("get lead by id: %w", err)
	}
	return lead, nil
}

// List retrieves leads with an optional status filter, newest first.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	var statusParam interface{}
	if params.Status != nil {
		statusParam = *params.Status
	}

	countQuery := `
		SELECT COUNT(*) FROM leads
		WHERE ($1::text IS NULL OR status = $1)`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, statusParam).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, statusParam, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads, err := scanLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

// ListIDsAfter returns the next page of lead IDs for batch re-scoring.
func (r *Repo) ListIDsAfter(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	query := `SELECT id FROM leads WHERE id > $1 ORDER BY id ASC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, after, limit)
	if err != nil {
		return nil, fmt.Errorf("list lead ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan lead id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lead ids: %w", err)
	}
	return ids, nil
}

// UpdateStatus annotates a lead with a new status under optimistic concurrency.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, expected time.Time) (Lead, error) {
	query := `
		UPDATE leads SET status = $2, updated_at = now()
		WHERE id = $1 AND updated_at = $3
		RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query, id, status, expected))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, r.staleOrMissing(ctx, id, "lead was modified concurrently")
		}
		return Lead{}, fmt.Errorf("update lead status: %w", err)
	}
	return lead, nil
}

// IncrementFollowupCalls bumps the follow-up call counter.
func (r *Repo) IncrementFollowupCalls(ctx context.Context, id uuid.UUID) (Lead, error) {
	query := `
		UPDATE leads SET followup_calls = followup_calls + 1, updated_at = now()
		WHERE id = $1
		RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("increment followup calls: %w", err)
	}
	return lead, nil
}

// staleOrMissing distinguishes an optimistic-lock miss from a missing row.
func (r *Repo) staleOrMissing(ctx context.Context, id uuid.UUID, staleMessage string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check lead exists: %w", err)
	}
	if exists {
		return apperr.ConcurrentUpdate(staleMessage)
	}
	return apperr.NotFound(leadNotFoundMessage)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.Services,
		&l.BudgetBand, &l.BudgetAmountCents, &l.Timeline, &l.Description,
		&l.Source, &l.Status, &l.FollowupCalls, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func scanLeads(rows pgx.Rows) ([]Lead, error) {
	var results []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		results = append(results, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return results, nil
}
