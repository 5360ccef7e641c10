// Package service implements the scoring engine use cases: scoring single
// leads, batch re-scoring, and reacting to domain events.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	critrepo "nexus_crm_backend/internal/criteria/repository"
	"nexus_crm_backend/internal/events"
	leadrepo "nexus_crm_backend/internal/leads/repository"
	"nexus_crm_backend/internal/scoring/engine"
	"nexus_crm_backend/internal/scoring/ports"
	"nexus_crm_backend/internal/scoring/repository"
	"nexus_crm_backend/platform/config"
	"nexus_crm_backend/platform/logger"
)

// Service orchestrates scoring passes over leads.
type Service struct {
	scores    repository.Repository
	leads     leadrepo.LeadReader
	criteria  critrepo.CriterionReader
	stats     ports.ActivityStatsReader
	scheduler ports.RescoreScheduler
	bus       events.Bus
	cfg       config.RescoreConfig
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new scoring service.
func New(
	scores repository.Repository,
	leads leadrepo.LeadReader,
	criteria critrepo.CriterionReader,
	stats ports.ActivityStatsReader,
	scheduler ports.RescoreScheduler,
	bus events.Bus,
	cfg config.RescoreConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		scores:    scores,
		leads:     leads,
		criteria:  criteria,
		stats:     stats,
		scheduler: scheduler,
		bus:       bus,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// GetScore retrieves the persisted score for a lead.
func (s *Service) GetScore(ctx context.Context, leadID uuid.UUID) (repository.LeadScore, error) {
	return s.scores.GetByLead(ctx, leadID)
}

// ListByQuality retrieves scored leads of one quality tier, best first.
func (s *Service) ListByQuality(ctx context.Context, quality string, limit, offset int) ([]repository.LeadScore, int, error) {
	return s.scores.ListByQuality(ctx, quality, limit, offset)
}

// Rescore runs a full scoring pass for one lead and persists the outcome.
// The criteria set is read once per pass so a concurrent registry edit never
// produces a half-old, half-new score.
func (s *Service) Rescore(ctx context.Context, leadID uuid.UUID) (repository.LeadScore, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return repository.LeadScore{}, fmt.Errorf("load lead for scoring: %w", err)
	}

	criteria, err := s.criteria.ListActive(ctx, nil)
	if err != nil {
		return repository.LeadScore{}, fmt.Errorf("load criteria snapshot: %w", err)
	}

	stats, err := s.stats.StatsForLead(ctx, leadID)
	if err != nil {
		return repository.LeadScore{}, fmt.Errorf("load activity stats: %w", err)
	}

	result := engine.Score(engine.BuildFacts(lead, stats, s.now()), criteria)
	for _, skipped := range result.Skipped {
		s.log.CriterionSkipped(skipped.Criterion.ID.String(), skipped.Criterion.Name, skipped.Err)
	}

	score, err := s.scores.Upsert(ctx, repository.UpsertParams{
		LeadID:          leadID,
		BudgetScore:     result.Categories[critrepo.CategoryBudget].Score,
		TimelineScore:   result.Categories[critrepo.CategoryTimeline].Score,
		EngagementScore: result.Categories[critrepo.CategoryEngagement].Score,
		FitScore:        result.Categories[critrepo.CategoryFit].Score,
		CompositeScore:  result.Composite,
		Quality:         result.Quality,
	})
	if err != nil {
		return repository.LeadScore{}, err
	}

	s.log.LeadScored(leadID.String(), score.CompositeScore, score.Quality)
	s.bus.Publish(ctx, events.LeadScored{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         leadID,
		CompositeScore: score.CompositeScore,
		Quality:        score.Quality,
	})
	return score, nil
}

// RescoreAll re-scores the entire lead base in keyset pages. A failing lead
// is logged and skipped so one bad row never stalls the batch; cancellation
// stops between leads and the batch can be re-run to resume.
func (s *Service) RescoreAll(ctx context.Context) (int, error) {
	pageSize := s.cfg.GetRescorePageSize()
	workers := s.cfg.GetRescoreWorkers()

	var scored int
	var cursor uuid.UUID

	for {
		ids, err := s.leads.ListIDsAfter(ctx, cursor, pageSize)
		if err != nil {
			return scored, fmt.Errorf("page leads for rescore: %w", err)
		}
		if len(ids) == 0 {
			return scored, nil
		}
		cursor = ids[len(ids)-1]

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(workers)
		for _, id := range ids {
			leadID := id
			group.Go(func() error {
				if _, err := s.Rescore(groupCtx, leadID); err != nil {
					if groupCtx.Err() != nil {
						return groupCtx.Err()
					}
					s.log.Error("rescore lead failed", "lead_id", leadID.String(), "error", err.Error())
				}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return scored, err
		}
		scored += len(ids)

		if len(ids) < pageSize {
			return scored, nil
		}
	}
}

// RegisterEventHandlers subscribes the scoring module to the events that
// trigger (re-)scoring.
func (s *Service) RegisterEventHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCaptured{}.EventName(), events.HandlerFunc(s.onLeadChanged))
	bus.Subscribe(events.LeadUpdated{}.EventName(), events.HandlerFunc(s.onLeadChanged))
	bus.Subscribe(events.ActivityCompleted{}.EventName(), events.HandlerFunc(s.onActivityCompleted))
	bus.Subscribe(events.ScoringCriteriaChanged{}.EventName(), events.HandlerFunc(s.onCriteriaChanged))
}

// onLeadChanged scores synchronously in the handler: a fresh capture must
// have a score before anyone reads it.
func (s *Service) onLeadChanged(ctx context.Context, event events.Event) error {
	var leadID uuid.UUID
	switch e := event.(type) {
	case events.LeadCaptured:
		leadID = e.LeadID
	case events.LeadUpdated:
		leadID = e.LeadID
	default:
		return nil
	}
	_, err := s.Rescore(ctx, leadID)
	return err
}

// onActivityCompleted defers to the debounced scheduler: a burst of logged
// activities collapses into one re-score.
func (s *Service) onActivityCompleted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ActivityCompleted)
	if !ok || e.LeadID == nil {
		return nil
	}
	return s.scheduler.ScheduleLeadRescore(ctx, *e.LeadID)
}

func (s *Service) onCriteriaChanged(ctx context.Context, _ events.Event) error {
	return s.scheduler.ScheduleBatchRescore(ctx)
}
