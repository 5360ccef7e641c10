// Package adapters bridges bounded contexts at the composition root. Each
// adapter satisfies one module's inbound port with another module's
// repository so the modules themselves never import each other's services.
package adapters

import (
	"context"

	"github.com/google/uuid"

	actrepo "nexus_crm_backend/internal/activities/repository"
	pipelinerepo "nexus_crm_backend/internal/pipeline/repository"
	"nexus_crm_backend/internal/scoring/engine"
)

// ActivityStats adapts the activity ledger to the scoring module's
// ActivityStatsReader port.
type ActivityStats struct {
	activities actrepo.ActivityReader
}

// NewActivityStats creates a scoring stats adapter over the activity ledger.
func NewActivityStats(activities actrepo.ActivityReader) *ActivityStats {
	return &ActivityStats{activities: activities}
}

// StatsForLead summarizes completed activities for engagement scoring.
func (a *ActivityStats) StatsForLead(ctx context.Context, leadID uuid.UUID) (engine.ActivityStats, error) {
	stats, err := a.activities.StatsForLead(ctx, leadID)
	if err != nil {
		return engine.ActivityStats{}, err
	}
	return engine.ActivityStats{
		CompletedCount: stats.CompletedCount,
		LastCompleted:  stats.LastCompleted,
	}, nil
}

// LeadResolver adapts the pipeline to the activities module's LeadResolver
// port.
type LeadResolver struct {
	opportunities pipelinerepo.OpportunityReader
}

// NewLeadResolver creates a lead resolver over the opportunity repository.
func NewLeadResolver(opportunities pipelinerepo.OpportunityReader) *LeadResolver {
	return &LeadResolver{opportunities: opportunities}
}

// LeadForOpportunity returns the lead an opportunity was promoted from, or
// nil for hand-created opportunities.
func (r *LeadResolver) LeadForOpportunity(ctx context.Context, opportunityID uuid.UUID) (*uuid.UUID, error) {
	opp, err := r.opportunities.GetByID(ctx, opportunityID)
	if err != nil {
		return nil, err
	}
	return opp.LeadID, nil
}
