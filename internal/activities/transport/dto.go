// Package transport contains request/response DTOs for the activities module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// RecordActivityRequest appends an activity to an opportunity's ledger.
type RecordActivityRequest struct {
	Type    string     `json:"type" binding:"required,oneof=call email meeting note task"`
	Subject string     `json:"subject" binding:"required,max=200"`
	Notes   string     `json:"notes" binding:"omitempty,max=5000"`
	DueAt   *time.Time `json:"dueAt"`
}

// AmendActivityRequest records a correction of an earlier entry. The
// original entry stays in the ledger; the amendment links back to it.
type AmendActivityRequest struct {
	Subject string `json:"subject" binding:"required,max=200"`
	Notes   string `json:"notes" binding:"omitempty,max=5000"`
}

// ActivityResponse is the outbound representation of a ledger entry.
type ActivityResponse struct {
	ID            uuid.UUID  `json:"id"`
	OpportunityID uuid.UUID  `json:"opportunityId"`
	LeadID        *uuid.UUID `json:"leadId,omitempty"`
	Type          string     `json:"type"`
	Subject       string     `json:"subject"`
	Notes         string     `json:"notes,omitempty"`
	DueAt         *time.Time `json:"dueAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	AmendsID      *uuid.UUID `json:"amendsId,omitempty"`
	CreatedBy     *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ListActivitiesResponse wraps a ledger listing.
type ListActivitiesResponse struct {
	Items []ActivityResponse `json:"items"`
}
