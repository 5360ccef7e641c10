// Package service implements criteria registry use cases.
package service

import (
	"context"
	"fmt"
	"strings"

	"nexus_crm_backend/internal/criteria/repository"
	"nexus_crm_backend/internal/criteria/transport"
	"nexus_crm_backend/internal/events"
	"nexus_crm_backend/platform/apperr"
	"nexus_crm_backend/platform/logger"
	"nexus_crm_backend/platform/validator"

	"github.com/google/uuid"
)

// Service handles criteria registry mutations and reads.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	val  *validator.Validator
	log  *logger.Logger
}

// New creates a new criteria service.
func New(repo repository.Repository, bus events.Bus, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, val: val, log: log}
}

// List retrieves all criteria for administration.
func (s *Service) List(ctx context.Context) ([]repository.Criterion, error) {
	return s.repo.List(ctx)
}

// Get retrieves a single criterion.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Criterion, error) {
	return s.repo.GetByID(ctx, id)
}

// Snapshot returns all active criteria in one consistent read. The scoring
// engine uses this so a single scoring pass never observes a half-written
// criteria set.
func (s *Service) Snapshot(ctx context.Context) ([]repository.Criterion, error) {
	return s.repo.ListActive(ctx, nil)
}

// ListActive retrieves active criteria for one category.
func (s *Service) ListActive(ctx context.Context, category string) ([]repository.Criterion, error) {
	if repository.CategoryMax(category) == 0 {
		return nil, apperr.Validation("unknown scoring category: " + category)
	}
	return s.repo.ListActive(ctx, &category)
}

// Upsert creates or updates a criterion after validating its weight against
// the category cap and the structural shape of its condition.
func (s *Service) Upsert(ctx context.Context, id *uuid.UUID, req transport.UpsertCriterionRequest) (repository.Criterion, error) {
	params := repository.UpsertParams{
		ID:       id,
		Name:     strings.TrimSpace(req.Name),
		Category: req.Category,
		Weight:   req.Weight,
		Condition: repository.Condition{
			Field:    strings.TrimSpace(req.Condition.Field),
			Operator: req.Condition.Operator,
			Value:    req.Condition.Value,
		},
		IsActive: req.IsActive,
	}

	if err := validate(params); err != nil {
		return repository.Criterion{}, err
	}

	crit, err := s.repo.Upsert(ctx, params)
	if err != nil {
		return repository.Criterion{}, err
	}

	s.publishChanged(ctx, crit)
	return crit, nil
}

// Deactivate removes a criterion from scoring without deleting it.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (repository.Criterion, error) {
	crit, err := s.repo.SetActive(ctx, id, false)
	if err != nil {
		return repository.Criterion{}, err
	}

	s.publishChanged(ctx, crit)
	return crit, nil
}

// Activate re-enables a criterion.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (repository.Criterion, error) {
	crit, err := s.repo.SetActive(ctx, id, true)
	if err != nil {
		return repository.Criterion{}, err
	}

	s.publishChanged(ctx, crit)
	return crit, nil
}

func (s *Service) publishChanged(ctx context.Context, crit repository.Criterion) {
	s.bus.Publish(ctx, events.ScoringCriteriaChanged{
		BaseEvent:   events.NewBaseEvent(),
		CriterionID: crit.ID,
		Category:    crit.Category,
	})
}

// validate enforces the registry invariants: a known category, a weight
// within the category cap, and a structurally sound condition. The semantic
// meaning of a condition's field is the scoring engine's concern; a field
// unknown at evaluation time is skipped there, not rejected here.
func validate(params repository.UpsertParams) error {
	max := repository.CategoryMax(params.Category)
	if max == 0 {
		return apperr.Validation("unknown scoring category: " + params.Category)
	}
	if params.Weight < 1 || params.Weight > max {
		return apperr.Validation(fmt.Sprintf(
			"criterion weight %d exceeds the %s category maximum of %d",
			params.Weight, params.Category, max,
		)).WithDetails(map[string]interface{}{"category": params.Category, "max": max})
	}
	if params.Name == "" {
		return apperr.Validation("criterion name is required")
	}
	if params.Condition.Field == "" {
		return apperr.Validation("condition field is required")
	}
	if !repository.KnownOperator(params.Condition.Operator) {
		return apperr.Validation("unknown condition operator: " + params.Condition.Operator)
	}
	if params.Condition.Operator != repository.OpPresent && params.Condition.Value == nil {
		return apperr.Validation("condition value is required for operator " + params.Condition.Operator)
	}
	return nil
}

// ToResponse converts a criterion entity to its transport representation.
func ToResponse(c repository.Criterion) transport.CriterionResponse {
	return transport.CriterionResponse{
		ID:       c.ID,
		Name:     c.Name,
		Category: c.Category,
		Weight:   c.Weight,
		Condition: transport.ConditionDTO{
			Field:    c.Condition.Field,
			Operator: c.Condition.Operator,
			Value:    c.Condition.Value,
		},
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
