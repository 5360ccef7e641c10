package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Activity types.
const (
	TypeCall    = "call"
	TypeEmail   = "email"
	TypeMeeting = "meeting"
	TypeNote    = "note"
	TypeTask    = "task"
)

// Activity is one entry in the append-only sales activity ledger. Entries
// are never updated in place: completion stamps completed_at exactly once,
// and corrections land as new entries linked through AmendsID.
type Activity struct {
	ID            uuid.UUID  `db:"id"`
	OpportunityID uuid.UUID  `db:"opportunity_id"`
	LeadID        *uuid.UUID `db:"lead_id"`
	Type          string     `db:"type"`
	Subject       string     `db:"subject"`
	Notes         string     `db:"notes"`
	DueAt         *time.Time `db:"due_at"`
	CompletedAt   *time.Time `db:"completed_at"`
	AmendsID      *uuid.UUID `db:"amends_id"`
	CreatedBy     *uuid.UUID `db:"created_by"`
	CreatedAt     time.Time  `db:"created_at"`
}

// RecordParams contains parameters for appending a ledger entry.
type RecordParams struct {
	OpportunityID uuid.UUID
	LeadID        *uuid.UUID
	Type          string
	Subject       string
	Notes         string
	DueAt         *time.Time
	AmendsID      *uuid.UUID
	CreatedBy     *uuid.UUID
}

// LeadStats summarizes completed activities for one lead.
type LeadStats struct {
	CompletedCount int
	LastCompleted  *time.Time
}

// ActivityReader provides read operations on the ledger.
type ActivityReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Activity, error)
	ListForOpportunity(ctx context.Context, opportunityID uuid.UUID) ([]Activity, error)
	ListForLead(ctx context.Context, leadID uuid.UUID) ([]Activity, error)
	// StatsForLead counts completed activities and their recency, the inputs
	// to engagement scoring.
	StatsForLead(ctx context.Context, leadID uuid.UUID) (LeadStats, error)
}

// ActivityWriter provides append operations on the ledger.
type ActivityWriter interface {
	Record(ctx context.Context, params RecordParams) (Activity, error)
	// Complete stamps completed_at exactly once. Completing an already
	// completed activity is an error, never a silent overwrite.
	Complete(ctx context.Context, id uuid.UUID) (Activity, error)
}

// Repository combines all activity ledger operations.
type Repository interface {
	ActivityReader
	ActivityWriter
}
