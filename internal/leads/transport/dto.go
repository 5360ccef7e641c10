// Package transport contains request/response DTOs for the leads module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CaptureLeadRequest is the public intake payload submitted by the quote form.
type CaptureLeadRequest struct {
	FirstName         string   `json:"firstName" binding:"required,max=100"`
	LastName          string   `json:"lastName" binding:"required,max=100"`
	Email             string   `json:"email" binding:"required,email"`
	Phone             string   `json:"phone" binding:"omitempty,max=32"`
	Services          []string `json:"services" binding:"required,min=1,dive,max=64"`
	BudgetBand        string   `json:"budgetBand" binding:"omitempty,oneof=under_2000 2000_5000 5000_10000 over_10000 unknown"`
	BudgetAmountCents *int64   `json:"budgetAmountCents" binding:"omitempty,gte=0"`
	Timeline          string   `json:"timeline" binding:"omitempty,oneof=asap one_to_three_months three_to_six_months flexible"`
	Description       string   `json:"description" binding:"max=5000"`
	Source            string   `json:"source" binding:"omitempty,max=64"`
}

// UpdateLeadStatusRequest annotates a lead with a new status.
type UpdateLeadStatusRequest struct {
	Status    string    `json:"status" binding:"required,oneof=new contacted archived"`
	UpdatedAt time.Time `json:"updatedAt" binding:"required"`
}

// ListLeadsRequest carries list filters from query parameters.
type ListLeadsRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=new contacted archived"`
	Limit  int    `form:"limit,default=25" binding:"gte=1,lte=100"`
	Offset int    `form:"offset,default=0" binding:"gte=0"`
}

// LeadResponse is the outbound representation of a lead.
type LeadResponse struct {
	ID                uuid.UUID `json:"id"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	Services          []string  `json:"services"`
	BudgetBand        string    `json:"budgetBand,omitempty"`
	BudgetAmountCents *int64    `json:"budgetAmountCents,omitempty"`
	Timeline          string    `json:"timeline,omitempty"`
	Description       string    `json:"description,omitempty"`
	Source            string    `json:"source,omitempty"`
	Status            string    `json:"status"`
	FollowupCalls     int       `json:"followupCalls"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ListLeadsResponse wraps a page of leads.
type ListLeadsResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
}
