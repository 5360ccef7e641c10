package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Opportunity is a deal moving through the sales pipeline.
type Opportunity struct {
	ID                uuid.UUID  `db:"id"`
	LeadID            *uuid.UUID `db:"lead_id"`
	Title             string     `db:"title"`
	AmountCents       *int64     `db:"amount_cents"`
	Probability       int        `db:"probability"`
	Stage             string     `db:"stage"`
	LostReason        *string    `db:"lost_reason"`
	OwnerID           *uuid.UUID `db:"owner_id"`
	ExpectedCloseDate *time.Time `db:"expected_close_date"`
	ActualCloseDate   *time.Time `db:"actual_close_date"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// CreateParams contains parameters for opening an opportunity.
type CreateParams struct {
	LeadID            *uuid.UUID
	Title             string
	AmountCents       *int64
	Probability       int
	Stage             string
	OwnerID           *uuid.UUID
	ExpectedCloseDate *time.Time
}

// UpdateStageParams contains the full state of a stage transition.
type UpdateStageParams struct {
	ID              uuid.UUID
	Stage           string
	Probability     int
	LostReason      *string
	ActualCloseDate *time.Time
	// Expected is the updated_at the caller read. The update only applies
	// when it still matches (optimistic concurrency).
	Expected time.Time
}

// ListParams contains filters for listing opportunities.
type ListParams struct {
	Stage   *string
	OwnerID *uuid.UUID
	// ClosingBefore keeps only opportunities expected to close before the date.
	ClosingBefore *time.Time
	Limit         int
	Offset        int
}

// OpportunityReader provides read operations for opportunities.
type OpportunityReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Opportunity, error)
	GetByLead(ctx context.Context, leadID uuid.UUID) (Opportunity, error)
	List(ctx context.Context, params ListParams) ([]Opportunity, int, error)
	// ListAll streams every opportunity for read-time stats projection.
	ListAll(ctx context.Context) ([]Opportunity, error)
}

// OpportunityWriter provides write operations for opportunities.
type OpportunityWriter interface {
	Create(ctx context.Context, params CreateParams) (Opportunity, error)
	// UpdateStage applies a transition guarded by the expected updated_at.
	// A stale expectation yields a ConcurrentUpdate error.
	UpdateStage(ctx context.Context, params UpdateStageParams) (Opportunity, error)
	// UpdateDetails amends title, amount, owner, and expected close date.
	UpdateDetails(ctx context.Context, id uuid.UUID, params CreateParams, expected time.Time) (Opportunity, error)
}

// Repository combines all opportunity repository operations.
type Repository interface {
	OpportunityReader
	OpportunityWriter
}
