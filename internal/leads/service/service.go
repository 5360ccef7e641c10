// Package service implements lead intake use cases.
package service

import (
	"context"
	"strings"
	"time"

	"nexus_crm_backend/internal/events"
	"nexus_crm_backend/internal/leads/repository"
	"nexus_crm_backend/internal/leads/transport"
	"nexus_crm_backend/platform/logger"
	"nexus_crm_backend/platform/phone"

	"github.com/google/uuid"
)

// Service handles lead intake and annotation.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new leads service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Capture stores an inbound quote/contact submission and publishes
// LeadCaptured so the scoring engine picks it up.
func (s *Service) Capture(ctx context.Context, req transport.CaptureLeadRequest) (repository.Lead, error) {
	budgetBand := req.BudgetBand
	if budgetBand == "" {
		budgetBand = "unknown"
	}

	services := make([]string, 0, len(req.Services))
	for _, svc := range req.Services {
		if trimmed := strings.TrimSpace(svc); trimmed != "" {
			services = append(services, strings.ToLower(trimmed))
		}
	}

	lead, err := s.repo.Create(ctx, repository.CreateParams{
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:             phone.NormalizeE164(req.Phone),
		Services:          services,
		BudgetBand:        budgetBand,
		BudgetAmountCents: req.BudgetAmountCents,
		Timeline:          req.Timeline,
		Description:       strings.TrimSpace(req.Description),
		Source:            strings.TrimSpace(req.Source),
	})
	if err != nil {
		return repository.Lead{}, err
	}

	s.bus.Publish(ctx, events.LeadCaptured{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Source:    lead.Source,
	})

	return lead, nil
}

// Get retrieves a single lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves leads with filters.
func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) ([]repository.Lead, int, error) {
	params := repository.ListParams{Limit: req.Limit, Offset: req.Offset}
	if req.Status != "" {
		params.Status = &req.Status
	}
	return s.repo.List(ctx, params)
}

// Annotate changes a lead's status. The updatedAt read by the caller guards
// against concurrent annotation.
func (s *Service) Annotate(ctx context.Context, id uuid.UUID, status string, readUpdatedAt time.Time) (repository.Lead, error) {
	lead, err := s.repo.UpdateStatus(ctx, id, status, readUpdatedAt)
	if err != nil {
		return repository.Lead{}, err
	}

	s.bus.Publish(ctx, events.LeadUpdated{BaseEvent: events.NewBaseEvent(), LeadID: lead.ID})
	return lead, nil
}

// RecordFollowUpCall increments the lead's follow-up call counter and
// triggers a re-score through LeadUpdated.
func (s *Service) RecordFollowUpCall(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.IncrementFollowupCalls(ctx, id)
	if err != nil {
		return repository.Lead{}, err
	}

	s.bus.Publish(ctx, events.LeadUpdated{BaseEvent: events.NewBaseEvent(), LeadID: lead.ID})
	return lead, nil
}

// ToResponse converts a lead entity to its transport representation.
func ToResponse(l repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:                l.ID,
		FirstName:         l.FirstName,
		LastName:          l.LastName,
		Email:             l.Email,
		Phone:             l.Phone,
		Services:          l.Services,
		BudgetBand:        l.BudgetBand,
		BudgetAmountCents: l.BudgetAmountCents,
		Timeline:          l.Timeline,
		Description:       l.Description,
		Source:            l.Source,
		Status:            l.Status,
		FollowupCalls:     l.FollowupCalls,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}
