// Package service implements the sales pipeline use cases: promoting leads,
// stage transitions, and the read-time pipeline projection.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"nexus_crm_backend/internal/events"
	leadrepo "nexus_crm_backend/internal/leads/repository"
	"nexus_crm_backend/internal/pipeline/repository"
	"nexus_crm_backend/internal/pipeline/transport"
	"nexus_crm_backend/internal/scoring/engine"
	"nexus_crm_backend/platform/apperr"
	"nexus_crm_backend/platform/logger"
)

// Service orchestrates opportunity lifecycle operations.
type Service struct {
	repo  repository.Repository
	leads leadrepo.LeadReader
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

// New creates a new pipeline service.
func New(repo repository.Repository, leads leadrepo.LeadReader, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, leads: leads, bus: bus, log: log, now: time.Now}
}

// Get retrieves a single opportunity.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Opportunity, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves opportunities with filters.
func (s *Service) List(ctx context.Context, req transport.ListOpportunitiesRequest) ([]repository.Opportunity, int, error) {
	return s.repo.List(ctx, repository.ListParams{
		Stage:         req.Stage,
		OwnerID:       req.OwnerID,
		ClosingBefore: req.ClosingBefore,
		Limit:         req.Limit,
		Offset:        req.Offset,
	})
}

// Create opens an opportunity by hand at the top of the pipeline.
func (s *Service) Create(ctx context.Context, req transport.CreateOpportunityRequest) (repository.Opportunity, error) {
	opp, err := s.repo.Create(ctx, repository.CreateParams{
		LeadID:            req.LeadID,
		Title:             strings.TrimSpace(req.Title),
		AmountCents:       req.AmountCents,
		Probability:       repository.DefaultProbability(repository.StageProspecting),
		Stage:             repository.StageProspecting,
		OwnerID:           req.OwnerID,
		ExpectedCloseDate: req.ExpectedCloseDate,
	})
	if err != nil {
		return repository.Opportunity{}, err
	}

	s.publishCreated(ctx, opp)
	return opp, nil
}

// Promote opens an opportunity from a lead. Every opportunity starts at
// prospecting with the stage's default probability; the deal amount carries
// over only when the lead declared a budget. A lead promotes at most once.
func (s *Service) Promote(ctx context.Context, leadID uuid.UUID, req transport.PromoteLeadRequest) (repository.Opportunity, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return repository.Opportunity{}, err
	}

	if _, err := s.repo.GetByLead(ctx, leadID); err == nil {
		return repository.Opportunity{}, apperr.Conflict("lead already has an opportunity")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return repository.Opportunity{}, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultTitle(lead)
	}

	opp, err := s.repo.Create(ctx, repository.CreateParams{
		LeadID:            &lead.ID,
		Title:             title,
		AmountCents:       lead.BudgetAmountCents,
		Probability:       repository.DefaultProbability(repository.StageProspecting),
		Stage:             repository.StageProspecting,
		OwnerID:           req.OwnerID,
		ExpectedCloseDate: req.ExpectedCloseDate,
	})
	if err != nil {
		return repository.Opportunity{}, err
	}

	s.publishCreated(ctx, opp)
	return opp, nil
}

// Transition moves an opportunity to a new stage. Moves are strictly
// forward, closed stages are terminal, and closing as lost requires a
// reason. The caller's updatedAt guards against lost updates: when two
// agents race, exactly one transition wins and the other gets a
// ConcurrentUpdate error.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, req transport.TransitionRequest) (repository.Opportunity, error) {
	opp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Opportunity{}, err
	}

	if !repository.CanTransition(opp.Stage, req.Stage) {
		if repository.IsClosed(opp.Stage) {
			return repository.Opportunity{}, apperr.InvalidTransition(
				fmt.Sprintf("opportunity is closed as %s", opp.Stage))
		}
		return repository.Opportunity{}, apperr.InvalidTransition(
			fmt.Sprintf("cannot move from %s to %s", opp.Stage, req.Stage))
	}

	params := repository.UpdateStageParams{
		ID:          id,
		Stage:       req.Stage,
		Probability: repository.DefaultProbability(req.Stage),
		Expected:    req.UpdatedAt,
	}
	if req.Probability != nil && !repository.IsClosed(req.Stage) {
		params.Probability = *req.Probability
	}

	if req.Stage == repository.StageClosedLost {
		if req.LostReason == nil || strings.TrimSpace(*req.LostReason) == "" {
			return repository.Opportunity{}, apperr.InvalidTransition("a lost reason is required to close as lost")
		}
		params.LostReason = req.LostReason
	}
	if repository.IsClosed(req.Stage) {
		closedAt := s.now()
		params.ActualCloseDate = &closedAt
	}

	updated, err := s.repo.UpdateStage(ctx, params)
	if err != nil {
		return repository.Opportunity{}, err
	}

	s.log.StageTransition(id.String(), opp.Stage, updated.Stage)
	s.bus.Publish(ctx, events.OpportunityStageChanged{
		BaseEvent:     events.NewBaseEvent(),
		OpportunityID: id,
		FromStage:     opp.Stage,
		ToStage:       updated.Stage,
	})
	return updated, nil
}

// Update amends the details of an open opportunity.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateOpportunityRequest) (repository.Opportunity, error) {
	opp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Opportunity{}, err
	}
	if repository.IsClosed(opp.Stage) {
		return repository.Opportunity{}, apperr.InvalidTransition("cannot amend a closed opportunity")
	}

	return s.repo.UpdateDetails(ctx, id, repository.CreateParams{
		Title:             strings.TrimSpace(req.Title),
		AmountCents:       req.AmountCents,
		OwnerID:           req.OwnerID,
		ExpectedCloseDate: req.ExpectedCloseDate,
	}, req.UpdatedAt)
}

// Stats projects the pipeline snapshot from current opportunities. Nothing
// is stored; the numbers are always derived from the rows at read time.
func (s *Service) Stats(ctx context.Context) (transport.StatsResponse, error) {
	opps, err := s.repo.ListAll(ctx)
	if err != nil {
		return transport.StatsResponse{}, err
	}
	return ComputeStats(opps), nil
}

// ComputeStats folds opportunities into the pipeline snapshot: per-stage
// counts and value, open totals, the probability-weighted open value, and
// the won/(won+lost) conversion rate.
func ComputeStats(opps []repository.Opportunity) transport.StatsResponse {
	byStage := make(map[string]*transport.StageStats, len(repository.Stages()))
	for _, stage := range repository.Stages() {
		byStage[stage] = &transport.StageStats{Stage: stage}
	}

	var stats transport.StatsResponse
	for _, opp := range opps {
		slot, ok := byStage[opp.Stage]
		if !ok {
			continue
		}
		slot.Count++

		var amount int64
		if opp.AmountCents != nil {
			amount = *opp.AmountCents
		}
		slot.ValueCents += amount

		switch opp.Stage {
		case repository.StageClosedWon:
			stats.WonCount++
		case repository.StageClosedLost:
			stats.LostCount++
		default:
			stats.OpenCount++
			stats.OpenValueCents += amount
			stats.WeightedValueCents += amount * int64(opp.Probability) / 100
		}
	}

	for _, stage := range repository.Stages() {
		stats.Stages = append(stats.Stages, *byStage[stage])
	}
	if closed := stats.WonCount + stats.LostCount; closed > 0 {
		stats.ConversionRate = float64(stats.WonCount) / float64(closed)
	}
	return stats
}

// RegisterEventHandlers subscribes the pipeline to scoring outcomes for
// automatic promotion.
func (s *Service) RegisterEventHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadScored{}.EventName(), events.HandlerFunc(s.onLeadScored))
}

// onLeadScored promotes any lead that scores above cold. Promotion is
// idempotent: an already-promoted lead is left alone.
func (s *Service) onLeadScored(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadScored)
	if !ok || e.Quality == engine.QualityCold {
		return nil
	}

	_, err := s.Promote(ctx, e.LeadID, transport.PromoteLeadRequest{})
	if apperr.Is(err, apperr.KindConflict) {
		return nil
	}
	return err
}

func defaultTitle(lead leadrepo.Lead) string {
	name := strings.TrimSpace(lead.FirstName + " " + lead.LastName)
	if len(lead.Services) > 0 {
		return name + ": " + strings.Join(lead.Services, ", ")
	}
	return name + ": new project"
}

// ToResponse converts an opportunity entity to its transport representation.
func ToResponse(o repository.Opportunity) transport.OpportunityResponse {
	return transport.OpportunityResponse{
		ID:                o.ID,
		LeadID:            o.LeadID,
		Title:             o.Title,
		AmountCents:       o.AmountCents,
		Probability:       o.Probability,
		Stage:             o.Stage,
		LostReason:        o.LostReason,
		OwnerID:           o.OwnerID,
		ExpectedCloseDate: o.ExpectedCloseDate,
		ActualCloseDate:   o.ActualCloseDate,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func (s *Service) publishCreated(ctx context.Context, opp repository.Opportunity) {
	s.bus.Publish(ctx, events.OpportunityCreated{
		BaseEvent:     events.NewBaseEvent(),
		OpportunityID: opp.ID,
		LeadID:        opp.LeadID,
		Stage:         opp.Stage,
	})
}
