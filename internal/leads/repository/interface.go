package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Lead is an inbound quote/contact submission before sales qualification.
// It is immutable once created except for status annotations and the
// follow-up call counter.
type Lead struct {
	ID                uuid.UUID `db:"id"`
	FirstName         string    `db:"first_name"`
	LastName          string    `db:"last_name"`
	Email             string    `db:"email"`
	Phone             string    `db:"phone"`
	Services          []string  `db:"services"`
	BudgetBand        string    `db:"budget_band"`
	BudgetAmountCents *int64    `db:"budget_amount_cents"`
	Timeline          string    `db:"timeline"`
	Description       string    `db:"description"`
	Source            string    `db:"source"`
	Status            string    `db:"status"`
	FollowupCalls     int       `db:"followup_calls"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// Lead status annotations. The lead record itself stays immutable; only
// these markers move as the sales team works the lead.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusArchived  = "archived"
)

// CreateParams contains parameters for storing a new lead.
type CreateParams struct {
	FirstName         string
	LastName          string
	Email             string
	Phone             string
	Services          []string
	BudgetBand        string
	BudgetAmountCents *int64
	Timeline          string
	Description       string
	Source            string
}

// ListParams contains filters and pagination for listing leads.
type ListParams struct {
	Status *string
	Limit  int
	Offset int
}

// LeadReader provides read operations for leads.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
	// ListIDsAfter returns up to limit lead IDs strictly greater than after,
	// ordered ascending. It is the paging primitive for batch re-scoring:
	// interruptible, resumable, and stable under concurrent inserts.
	ListIDsAfter(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

// LeadWriter provides write operations for leads.
type LeadWriter interface {
	Create(ctx context.Context, params CreateParams) (Lead, error)
	// UpdateStatus annotates the lead. The expected updatedAt guards against
	// concurrent annotation (optimistic concurrency).
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, expected time.Time) (Lead, error)
	IncrementFollowupCalls(ctx context.Context, id uuid.UUID) (Lead, error)
}

// Repository combines all lead repository operations.
type Repository interface {
	LeadReader
	LeadWriter
}
