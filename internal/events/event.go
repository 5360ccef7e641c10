// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"nexus_crm_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Intake Events
// =============================================================================

// LeadCaptured is published when an inbound quote/contact submission is stored.
type LeadCaptured struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Source string    `json:"source,omitempty"`
}

func (e LeadCaptured) EventName() string { return "leads.lead.captured" }

// LeadUpdated is published when a lead's annotations change (status,
// follow-up calls), which triggers a re-score.
type LeadUpdated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
}

func (e LeadUpdated) EventName() string { return "leads.lead.updated" }

// =============================================================================
// Scoring Events
// =============================================================================

// LeadScored is published after every scoring pass.
type LeadScored struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	CompositeScore int       `json:"compositeScore"`
	Quality        string    `json:"quality"`
}

func (e LeadScored) EventName() string { return "scoring.lead.scored" }

// ScoringCriteriaChanged is published when the criteria registry mutates.
// Subscribers schedule a batch re-score of leads; this is an administrative
// maintenance operation, not a real-time one.
type ScoringCriteriaChanged struct {
	BaseEvent
	CriterionID uuid.UUID `json:"criterionId"`
	Category    string    `json:"category"`
}

func (e ScoringCriteriaChanged) EventName() string { return "scoring.criteria.changed" }

// =============================================================================
// Pipeline Events
// =============================================================================

// OpportunityCreated is published when a lead is promoted into the pipeline.
type OpportunityCreated struct {
	BaseEvent
	OpportunityID uuid.UUID  `json:"opportunityId"`
	LeadID        *uuid.UUID `json:"leadId,omitempty"`
	Stage         string     `json:"stage"`
}

func (e OpportunityCreated) EventName() string { return "pipeline.opportunity.created" }

// OpportunityStageChanged is published on every stage transition.
// The from/to pair preserves an audit trail without a stored stage log.
type OpportunityStageChanged struct {
	BaseEvent
	OpportunityID uuid.UUID `json:"opportunityId"`
	FromStage     string    `json:"fromStage"`
	ToStage       string    `json:"toStage"`
}

func (e OpportunityStageChanged) EventName() string { return "pipeline.opportunity.stage_changed" }

// =============================================================================
// Activity Ledger Events
// =============================================================================

// ActivityCompleted is published when a sales activity is marked complete.
// The scoring module re-scores the linked lead because engagement is
// activity-count and recency sensitive.
type ActivityCompleted struct {
	BaseEvent
	ActivityID    uuid.UUID  `json:"activityId"`
	OpportunityID uuid.UUID  `json:"opportunityId"`
	LeadID        *uuid.UUID `json:"leadId,omitempty"`
	Type          string     `json:"type"`
}

func (e ActivityCompleted) EventName() string { return "activities.activity.completed" }
