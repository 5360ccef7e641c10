// Package service implements the sales activity ledger use cases.
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"nexus_crm_backend/internal/activities/repository"
	"nexus_crm_backend/internal/activities/transport"
	"nexus_crm_backend/internal/events"
	"nexus_crm_backend/platform/apperr"
	"nexus_crm_backend/platform/logger"
)

// LeadResolver resolves the lead behind an opportunity so ledger entries
// stay linked to the lead that engagement scoring reads. The composition
// root satisfies it with a pipeline adapter.
type LeadResolver interface {
	LeadForOpportunity(ctx context.Context, opportunityID uuid.UUID) (*uuid.UUID, error)
}

// Service handles activity ledger operations.
type Service struct {
	repo     repository.Repository
	resolver LeadResolver
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new activities service.
func New(repo repository.Repository, resolver LeadResolver, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, bus: bus, log: log}
}

// Record appends an activity to an opportunity's ledger.
func (s *Service) Record(ctx context.Context, opportunityID uuid.UUID, req transport.RecordActivityRequest, actor *uuid.UUID) (repository.Activity, error) {
	leadID, err := s.resolver.LeadForOpportunity(ctx, opportunityID)
	if err != nil {
		return repository.Activity{}, err
	}

	return s.repo.Record(ctx, repository.RecordParams{
		OpportunityID: opportunityID,
		LeadID:        leadID,
		Type:          req.Type,
		Subject:       strings.TrimSpace(req.Subject),
		Notes:         req.Notes,
		DueAt:         req.DueAt,
		CreatedBy:     actor,
	})
}

// Complete marks an activity done, exactly once. Completion feeds engagement
// scoring through the published event.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (repository.Activity, error) {
	activity, err := s.repo.Complete(ctx, id)
	if err != nil {
		return repository.Activity{}, err
	}

	s.bus.Publish(ctx, events.ActivityCompleted{
		BaseEvent:     events.NewBaseEvent(),
		ActivityID:    activity.ID,
		OpportunityID: activity.OpportunityID,
		LeadID:        activity.LeadID,
		Type:          activity.Type,
	})
	return activity, nil
}

// Amend records a correction of an earlier entry. The ledger is append-only:
// the original stays untouched and the amendment links back to it. Amending
// an amendment is rejected to keep correction chains one level deep.
func (s *Service) Amend(ctx context.Context, id uuid.UUID, req transport.AmendActivityRequest, actor *uuid.UUID) (repository.Activity, error) {
	original, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Activity{}, err
	}
	if original.AmendsID != nil {
		return repository.Activity{}, apperr.Validation("cannot amend an amendment; amend the original entry")
	}

	return s.repo.Record(ctx, repository.RecordParams{
		OpportunityID: original.OpportunityID,
		LeadID:        original.LeadID,
		Type:          original.Type,
		Subject:       strings.TrimSpace(req.Subject),
		Notes:         req.Notes,
		DueAt:         original.DueAt,
		AmendsID:      &original.ID,
		CreatedBy:     actor,
	})
}

// Get retrieves a single ledger entry.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Activity, error) {
	return s.repo.GetByID(ctx, id)
}

// ListForOpportunity retrieves the ledger for one opportunity.
func (s *Service) ListForOpportunity(ctx context.Context, opportunityID uuid.UUID) ([]repository.Activity, error) {
	return s.repo.ListForOpportunity(ctx, opportunityID)
}

// ListForLead retrieves the ledger entries linked to one lead.
func (s *Service) ListForLead(ctx context.Context, leadID uuid.UUID) ([]repository.Activity, error) {
	return s.repo.ListForLead(ctx, leadID)
}

// ToResponse converts an activity entity to its transport representation.
func ToResponse(a repository.Activity) transport.ActivityResponse {
	return transport.ActivityResponse{
		ID:            a.ID,
		OpportunityID: a.OpportunityID,
		LeadID:        a.LeadID,
		Type:          a.Type,
		Subject:       a.Subject,
		Notes:         a.Notes,
		DueAt:         a.DueAt,
		CompletedAt:   a.CompletedAt,
		AmendsID:      a.AmendsID,
		CreatedBy:     a.CreatedBy,
		CreatedAt:     a.CreatedAt,
	}
}
