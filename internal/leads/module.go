// Package leads provides the lead intake bounded context module.
// Leads are inbound quote/contact submissions; this module is the entry
// point for the intake collaborator and the source of LeadCaptured events.
package leads

import (
	"nexus_crm_backend/internal/events"
	apphttp "nexus_crm_backend/internal/http"
	"nexus_crm_backend/internal/leads/handler"
	"nexus_crm_backend/internal/leads/repository"
	"nexus_crm_backend/internal/leads/service"
	"nexus_crm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for adapter wiring.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public intake endpoint for the quote/contact form, strictly rate limited.
	public := ctx.V1.Group("/public")
	public.POST("/leads", ctx.IntakeRateLimiter.RateLimit(), m.handler.Capture)

	ctx.Protected.GET("/leads", m.handler.List)
	ctx.Protected.GET("/leads/:id", m.handler.Get)
	ctx.Protected.PATCH("/leads/:id/status", m.handler.UpdateStatus)
	ctx.Protected.POST("/leads/:id/follow-up-calls", m.handler.RecordFollowUpCall)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
