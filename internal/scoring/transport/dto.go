// Package transport contains request/response DTOs for the scoring module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// ScoreResponse is the outbound representation of a lead score.
type ScoreResponse struct {
	LeadID          uuid.UUID `json:"leadId"`
	BudgetScore     int       `json:"budgetScore"`
	TimelineScore   int       `json:"timelineScore"`
	EngagementScore int       `json:"engagementScore"`
	FitScore        int       `json:"fitScore"`
	CompositeScore  int       `json:"compositeScore"`
	Quality         string    `json:"quality"`
	ScoredAt        time.Time `json:"scoredAt"`
}

// ListScoresRequest filters scored leads by quality tier.
type ListScoresRequest struct {
	Quality string `form:"quality" binding:"required,oneof=qualified hot warm cold"`
	Limit   int    `form:"limit,default=50" binding:"omitempty,gte=1,lte=200"`
	Offset  int    `form:"offset" binding:"omitempty,gte=0"`
}

// ListScoresResponse wraps a page of lead scores.
type ListScoresResponse struct {
	Items []ScoreResponse `json:"items"`
	Total int             `json:"total"`
}

// BatchRescoreResponse acknowledges a scheduled batch re-score.
type BatchRescoreResponse struct {
	Scheduled bool `json:"scheduled"`
}
