// Package pipeline provides the sales pipeline bounded context: opportunity
// lifecycle, forward-only stage transitions, and the pipeline projection.
package pipeline

import (
	"nexus_crm_backend/internal/events"
	apphttp "nexus_crm_backend/internal/http"
	leadrepo "nexus_crm_backend/internal/leads/repository"
	"nexus_crm_backend/internal/pipeline/handler"
	"nexus_crm_backend/internal/pipeline/repository"
	"nexus_crm_backend/internal/pipeline/service"
	"nexus_crm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the pipeline bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the pipeline module with all its dependencies.
func NewModule(pool *pgxpool.Pool, leads leadrepo.LeadReader, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, bus, log)
	svc.RegisterEventHandlers(bus)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pipeline"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for adapter wiring.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts pipeline routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/opportunities", m.handler.Create)
	ctx.Protected.GET("/opportunities", m.handler.List)
	// stats before :id so the literal segment is not captured as an ID
	ctx.Protected.GET("/opportunities/stats", m.handler.Stats)
	ctx.Protected.GET("/opportunities/:id", m.handler.Get)
	ctx.Protected.PUT("/opportunities/:id", m.handler.Update)
	ctx.Protected.POST("/opportunities/:id/transition", m.handler.Transition)
	ctx.Protected.POST("/leads/:id/promote", m.handler.Promote)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
