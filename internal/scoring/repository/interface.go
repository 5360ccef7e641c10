package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LeadScore is the persisted outcome of the latest scoring pass for a lead.
// One row per lead; re-scoring replaces it.
type LeadScore struct {
	LeadID          uuid.UUID `db:"lead_id"`
	BudgetScore     int       `db:"budget_score"`
	TimelineScore   int       `db:"timeline_score"`
	EngagementScore int       `db:"engagement_score"`
	FitScore        int       `db:"fit_score"`
	CompositeScore  int       `db:"composite_score"`
	Quality         string    `db:"quality"`
	ScoredAt        time.Time `db:"scored_at"`
}

// UpsertParams contains the full score breakdown to persist.
type UpsertParams struct {
	LeadID          uuid.UUID
	BudgetScore     int
	TimelineScore   int
	EngagementScore int
	FitScore        int
	CompositeScore  int
	Quality         string
}

// ScoreReader provides read access to persisted lead scores.
type ScoreReader interface {
	GetByLead(ctx context.Context, leadID uuid.UUID) (LeadScore, error)
	ListByQuality(ctx context.Context, quality string, limit, offset int) ([]LeadScore, int, error)
	// CountsByQuality tallies scored leads per quality tier.
	CountsByQuality(ctx context.Context) (map[string]int, error)
}

// ScoreWriter persists scoring outcomes.
type ScoreWriter interface {
	// Upsert stores the latest score for a lead, replacing any previous row.
	Upsert(ctx context.Context, params UpsertParams) (LeadScore, error)
}

// Repository combines all lead score operations.
type Repository interface {
	ScoreReader
	ScoreWriter
}
