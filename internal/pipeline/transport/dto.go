// Package transport contains request/response DTOs for the pipeline module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateOpportunityRequest opens an opportunity by hand, outside of lead
// promotion.
type CreateOpportunityRequest struct {
	LeadID            *uuid.UUID `json:"leadId"`
	Title             string     `json:"title" binding:"required,max=200"`
	AmountCents       *int64     `json:"amountCents" binding:"omitempty,gte=0"`
	OwnerID           *uuid.UUID `json:"ownerId"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate"`
}

// PromoteLeadRequest promotes a lead into the pipeline.
type PromoteLeadRequest struct {
	Title             string     `json:"title" binding:"omitempty,max=200"`
	OwnerID           *uuid.UUID `json:"ownerId"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate"`
}

// TransitionRequest moves an opportunity to a new stage. UpdatedAt must echo
// the updated_at the caller last read; a stale value is rejected with 412.
type TransitionRequest struct {
	Stage       string    `json:"stage" binding:"required,oneof=prospecting qualification proposal negotiation closed_won closed_lost"`
	LostReason  *string   `json:"lostReason" binding:"omitempty,max=500"`
	Probability *int      `json:"probability" binding:"omitempty,gte=0,lte=100"`
	UpdatedAt   time.Time `json:"updatedAt" binding:"required"`
}

// UpdateOpportunityRequest amends the details of an open opportunity.
type UpdateOpportunityRequest struct {
	Title             string     `json:"title" binding:"required,max=200"`
	AmountCents       *int64     `json:"amountCents" binding:"omitempty,gte=0"`
	OwnerID           *uuid.UUID `json:"ownerId"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate"`
	UpdatedAt         time.Time  `json:"updatedAt" binding:"required"`
}

// ListOpportunitiesRequest filters the pipeline listing.
type ListOpportunitiesRequest struct {
	Stage         *string    `form:"stage" binding:"omitempty,oneof=prospecting qualification proposal negotiation closed_won closed_lost"`
	OwnerID       *uuid.UUID `form:"ownerId"`
	ClosingBefore *time.Time `form:"closingBefore" time_format:"2006-01-02"`
	Limit         int        `form:"limit,default=50" binding:"omitempty,gte=1,lte=200"`
	Offset        int        `form:"offset" binding:"omitempty,gte=0"`
}

// OpportunityResponse is the outbound representation of an opportunity.
type OpportunityResponse struct {
	ID                uuid.UUID  `json:"id"`
	LeadID            *uuid.UUID `json:"leadId,omitempty"`
	Title             string     `json:"title"`
	AmountCents       *int64     `json:"amountCents,omitempty"`
	Probability       int        `json:"probability"`
	Stage             string     `json:"stage"`
	LostReason        *string    `json:"lostReason,omitempty"`
	OwnerID           *uuid.UUID `json:"ownerId,omitempty"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate,omitempty"`
	ActualCloseDate   *time.Time `json:"actualCloseDate,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// ListOpportunitiesResponse wraps a page of opportunities.
type ListOpportunitiesResponse struct {
	Items []OpportunityResponse `json:"items"`
	Total int                   `json:"total"`
}

// StageStats is the per-stage slice of the pipeline snapshot.
type StageStats struct {
	Stage      string `json:"stage"`
	Count      int    `json:"count"`
	ValueCents int64  `json:"valueCents"`
}

// StatsResponse is the read-time pipeline projection: per-stage totals, the
// probability-weighted value of open deals, and the won/lost conversion rate.
type StatsResponse struct {
	Stages             []StageStats `json:"stages"`
	OpenCount          int          `json:"openCount"`
	OpenValueCents     int64        `json:"openValueCents"`
	WeightedValueCents int64        `json:"weightedValueCents"`
	WonCount           int          `json:"wonCount"`
	LostCount          int          `json:"lostCount"`
	ConversionRate     float64      `json:"conversionRate"`
}
