package dashboard

import (
	actrepo "nexus_crm_backend/internal/activities/repository"
	apphttp "nexus_crm_backend/internal/http"
	leadrepo "nexus_crm_backend/internal/leads/repository"
	pipelinerepo "nexus_crm_backend/internal/pipeline/repository"
	scorerepo "nexus_crm_backend/internal/scoring/repository"
)

// Module is the dashboard query façade implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates the dashboard module over the other modules' readers.
func NewModule(
	leads leadrepo.LeadReader,
	scores scorerepo.ScoreReader,
	opportunities pipelinerepo.OpportunityReader,
	activities actrepo.ActivityReader,
) *Module {
	svc := NewService(leads, scores, opportunities, activities)
	return &Module{handler: NewHandler(svc)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "dashboard"
}

// RegisterRoutes mounts dashboard routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/dashboard/overview", m.handler.GetOverview)
	ctx.Protected.GET("/dashboard/leads/:id", m.handler.GetLeadDetail)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
