// Package dashboard provides the read-only query façade: cross-context
// views assembled from the other modules' repositories. It owns no tables
// and never mutates state.
package dashboard

import (
	"context"

	"github.com/google/uuid"

	actrepo "nexus_crm_backend/internal/activities/repository"
	actsvc "nexus_crm_backend/internal/activities/service"
	acttransport "nexus_crm_backend/internal/activities/transport"
	leadrepo "nexus_crm_backend/internal/leads/repository"
	leadsvc "nexus_crm_backend/internal/leads/service"
	leadtransport "nexus_crm_backend/internal/leads/transport"
	pipelinerepo "nexus_crm_backend/internal/pipeline/repository"
	pipelinesvc "nexus_crm_backend/internal/pipeline/service"
	"nexus_crm_backend/internal/pipeline/transport"
	scorehandler "nexus_crm_backend/internal/scoring/handler"
	scorerepo "nexus_crm_backend/internal/scoring/repository"
	scoretransport "nexus_crm_backend/internal/scoring/transport"
	"nexus_crm_backend/platform/apperr"
)

// Overview is the agency's working snapshot: how many leads sit in each
// quality tier and what the pipeline currently holds.
type Overview struct {
	QualityCounts map[string]int          `json:"qualityCounts"`
	Pipeline      transport.StatsResponse `json:"pipeline"`
}

// LeadDetail is the full cross-context view of one lead.
type LeadDetail struct {
	Lead        leadtransport.LeadResponse      `json:"lead"`
	Score       *scoretransport.ScoreResponse   `json:"score,omitempty"`
	Opportunity *transport.OpportunityResponse  `json:"opportunity,omitempty"`
	Activities  []acttransport.ActivityResponse `json:"activities"`
}

// Service assembles read-only views over the other modules' repositories.
type Service struct {
	leads         leadrepo.LeadReader
	scores        scorerepo.ScoreReader
	opportunities pipelinerepo.OpportunityReader
	activities    actrepo.ActivityReader
}

// NewService creates a new dashboard query service.
func NewService(
	leads leadrepo.LeadReader,
	scores scorerepo.ScoreReader,
	opportunities pipelinerepo.OpportunityReader,
	activities actrepo.ActivityReader,
) *Service {
	return &Service{
		leads:         leads,
		scores:        scores,
		opportunities: opportunities,
		activities:    activities,
	}
}

// Overview builds the dashboard snapshot. Pipeline numbers are projected
// from current rows on every call.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	counts, err := s.scores.CountsByQuality(ctx)
	if err != nil {
		return Overview{}, err
	}

	opps, err := s.opportunities.ListAll(ctx)
	if err != nil {
		return Overview{}, err
	}

	return Overview{
		QualityCounts: counts,
		Pipeline:      pipelinesvc.ComputeStats(opps),
	}, nil
}

// LeadDetail assembles everything known about one lead. A lead without a
// score or opportunity is still a valid view; those sections are simply
// absent.
func (s *Service) LeadDetail(ctx context.Context, leadID uuid.UUID) (LeadDetail, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return LeadDetail{}, err
	}

	detail := LeadDetail{Lead: leadsvc.ToResponse(lead)}

	if score, err := s.scores.GetByLead(ctx, leadID); err == nil {
		resp := scorehandler.ToResponse(score)
		detail.Score = &resp
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return LeadDetail{}, err
	}

	if opp, err := s.opportunities.GetByLead(ctx, leadID); err == nil {
		resp := pipelinesvc.ToResponse(opp)
		detail.Opportunity = &resp
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return LeadDetail{}, err
	}

	activities, err := s.activities.ListForLead(ctx, leadID)
	if err != nil {
		return LeadDetail{}, err
	}
	detail.Activities = make([]acttransport.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		detail.Activities = append(detail.Activities, actsvc.ToResponse(a))
	}

	return detail, nil
}
