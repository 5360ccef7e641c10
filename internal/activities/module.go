// Package activities provides the sales activity ledger bounded context.
// The ledger is append-only; completions are one-shot and corrections are
// new linked entries.
package activities

import (
	"nexus_crm_backend/internal/activities/handler"
	"nexus_crm_backend/internal/activities/repository"
	"nexus_crm_backend/internal/activities/service"
	"nexus_crm_backend/internal/events"
	apphttp "nexus_crm_backend/internal/http"
	"nexus_crm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the activities bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the activities module with all its dependencies.
func NewModule(pool *pgxpool.Pool, resolver service.LeadResolver, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, resolver, bus, log)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "activities"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for adapter wiring.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts activity routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/opportunities/:id/activities", m.handler.Record)
	ctx.Protected.GET("/opportunities/:id/activities", m.handler.ListForOpportunity)
	ctx.Protected.GET("/leads/:id/activities", m.handler.ListForLead)
	ctx.Protected.POST("/activities/:id/complete", m.handler.Complete)
	ctx.Protected.POST("/activities/:id/amend", m.handler.Amend)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
