package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Scoring categories. Each category contributes a capped share of the
// 0-100 composite score.
const (
	CategoryBudget     = "budget"
	CategoryTimeline   = "timeline"
	CategoryEngagement = "engagement"
	CategoryFit        = "fit"
)

// Category caps: budget 30, timeline 20, engagement 25, fit 25.
var categoryMax = map[string]int{
	CategoryBudget:     30,
	CategoryTimeline:   20,
	CategoryEngagement: 25,
	CategoryFit:        25,
}

// CategoryMax returns the maximum contribution of a category, or 0 for an
// unknown category.
func CategoryMax(category string) int {
	return categoryMax[category]
}

// Categories returns all known categories in scoring order.
func Categories() []string {
	return []string{CategoryBudget, CategoryTimeline, CategoryEngagement, CategoryFit}
}

// Condition operators.
const (
	OpEq       = "eq"
	OpNeq      = "neq"
	OpGt       = "gt"
	OpGte      = "gte"
	OpLt       = "lt"
	OpLte      = "lte"
	OpContains = "contains"
	OpIn       = "in"
	OpPresent  = "present"
)

// KnownOperator reports whether op is a supported condition operator.
func KnownOperator(op string) bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpContains, OpIn, OpPresent:
		return true
	}
	return false
}

// Condition is the declarative predicate of a criterion, evaluated against
// a lead's fact set by the scoring engine. Stored as JSONB.
type Condition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value,omitempty"`
}

// Criterion is a single weighted rule contributing to one scoring category.
type Criterion struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Category  string    `db:"category"`
	Weight    int       `db:"weight"`
	Condition Condition `db:"condition"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// UpsertParams contains parameters for creating or updating a criterion.
type UpsertParams struct {
	ID        *uuid.UUID
	Name      string
	Category  string
	Weight    int
	Condition Condition
	IsActive  bool
}

// CriterionReader provides read operations for scoring criteria.
type CriterionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Criterion, error)
	List(ctx context.Context) ([]Criterion, error)
	// ListActive returns active criteria, optionally filtered by category,
	// in a deterministic order (category, name, id). A single call reads a
	// consistent snapshot: the scoring engine must never observe a
	// half-written criterion set.
	ListActive(ctx context.Context, category *string) ([]Criterion, error)
}

// CriterionWriter provides write operations for scoring criteria.
type CriterionWriter interface {
	Upsert(ctx context.Context, params UpsertParams) (Criterion, error)
	SetActive(ctx context.Context, id uuid.UUID, isActive bool) (Criterion, error)
	// SeedInsert inserts a criterion only if no criterion with the same name
	// exists. Returns false when skipped.
	SeedInsert(ctx context.Context, params UpsertParams) (bool, error)
}

// Repository combines all criteria repository operations.
type Repository interface {
	CriterionReader
	CriterionWriter
}
