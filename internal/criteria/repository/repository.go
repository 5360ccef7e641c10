package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nexus_crm_backend/platform/apperr"
)

const criterionNotFoundMessage = "scoring criterion not found"

const criterionColumns = `id, name, category, weight, condition, is_active, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new criteria repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a criterion by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Criterion, error) {
	query := `SELECT ` + criterionColumns + ` FROM scoring_criteria WHERE id = $1`

	crit, err := scanCriterion(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Criterion{}, apperr.NotFound(criterionNotFoundMessage)
		}
		return Criterion{}, fmt.Errorf("get criterion by id: %w", err)
	}
	return crit, nil
}

// List retrieves all criteria, active and inactive.
func (r *Repo) List(ctx context.Context) ([]Criterion, error) {
	query := `SELECT ` + criterionColumns + ` FROM scoring_criteria ORDER BY category, name, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list criteria: %w", err)
	}
	defer rows.Close()

	return scanCriteria(rows)
}

// ListActive retrieves active criteria, optionally filtered by category.
func (r *Repo) ListActive(ctx context.Context, category *string) ([]Criterion, error) {
	var categoryParam interface{}
	if category != nil {
		categoryParam = *category
	}

	query := `
		SELECT ` + criterionColumns + `
		FROM scoring_criteria
		WHERE is_active = true AND ($1::text IS NULL OR category = $1)
		ORDER BY category, name, id`

	rows, err := r.pool.Query(ctx, query, categoryParam)
	if err != nil {
		return nil, fmt.Errorf("list active criteria: %w", err)
	}
	defer rows.Close()

	return scanCriteria(rows)
}

// Upsert creates a criterion, or updates it when an ID is supplied.
func (r *Repo) Upsert(ctx context.Context, params UpsertParams) (Criterion, error) {
	conditionJSON, err := json.Marshal(params.Condition)
	if err != nil {
		return Criterion{}, fmt.Errorf("marshal condition: %w", err)
	}

	if params.ID == nil {
		query := `
			INSERT INTO scoring_criteria (name, category, weight, condition, is_active)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING ` + criterionColumns

		crit, err := scanCriterion(r.pool.QueryRow(ctx, query,
			params.Name, params.Category, params.Weight, conditionJSON, params.IsActive))
		if err != nil {
			return Criterion{}, fmt.Errorf("create criterion: %w", err)
		}
		return crit, nil
	}

	query := `
		UPDATE scoring_criteria
		SET name = $2, category = $3, weight = $4, condition = $5, is_active = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + criterionColumns

	crit, err := scanCriterion(r.pool.QueryRow(ctx, query,
		*params.ID, params.Name, params.Category, params.Weight, conditionJSON, params.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Criterion{}, apperr.NotFound(criterionNotFoundMessage)
		}
		return Criterion{}, fmt.Errorf("update criterion: %w", err)
	}
	return crit, nil
}

// SetActive toggles the is_active flag for a criterion.
func (r *Repo) SetActive(ctx context.Context, id uuid.UUID, isActive bool) (Criterion, error) {
	query := `
		UPDATE scoring_criteria SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + criterionColumns

	crit, err := scanCriterion(r.pool.QueryRow(ctx, query, id, isActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Criterion{}, apperr.NotFound(criterionNotFoundMessage)
		}
		return Criterion{}, fmt.Errorf("set criterion active: %w", err)
	}
	return crit, nil
}

// SeedInsert inserts a criterion only if the name is not already taken.
func (r *Repo) SeedInsert(ctx context.Context, params UpsertParams) (bool, error) {
	conditionJSON, err := json.Marshal(params.Condition)
	if err != nil {
		return false, fmt.Errorf("marshal condition: %w", err)
	}

	query := `
		INSERT INTO scoring_criteria (name, category, weight, condition, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		params.Name, params.Category, params.Weight, conditionJSON, params.IsActive)
	if err != nil {
		return false, fmt.Errorf("seed criterion: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCriterion(row rowScanner) (Criterion, error) {
	var c Criterion
	var conditionJSON []byte

	err := row.Scan(&c.ID, &c.Name, &c.Category, &c.Weight, &conditionJSON,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Criterion{}, err
	}

	if err := json.Unmarshal(conditionJSON, &c.Condition); err != nil {
		return Criterion{}, fmt.Errorf("unmarshal condition: %w", err)
	}
	return c, nil
}

func scanCriteria(rows pgx.Rows) ([]Criterion, error) {
	var results []Criterion
	for rows.Next() {
		crit, err := scanCriterion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan criterion: %w", err)
		}
		results = append(results, crit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate criteria: %w", err)
	}
	return results, nil
}
