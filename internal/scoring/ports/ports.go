// Package ports defines the inbound dependencies of the scoring module on
// other bounded contexts. The composition root satisfies them with adapters
// so scoring never imports another module's service layer.
package ports

import (
	"context"

	"github.com/google/uuid"

	"nexus_crm_backend/internal/scoring/engine"
)

// ActivityStatsReader summarizes the sales-activity ledger for one lead.
// Engagement criteria depend on activity count and recency.
type ActivityStatsReader interface {
	StatsForLead(ctx context.Context, leadID uuid.UUID) (engine.ActivityStats, error)
}

// RescoreScheduler enqueues deferred re-scoring work. Activity-triggered
// re-scores are debounced; criteria changes fan out to the whole lead base.
type RescoreScheduler interface {
	// ScheduleLeadRescore enqueues a debounced single-lead re-score.
	ScheduleLeadRescore(ctx context.Context, leadID uuid.UUID) error
	// ScheduleBatchRescore enqueues a full re-score of every lead.
	ScheduleBatchRescore(ctx context.Context) error
}
