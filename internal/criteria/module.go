// Package criteria provides the scoring criteria registry bounded context.
// Criteria are weighted, declarative rules grouped into four capped
// categories; the scoring engine evaluates them against lead facts.
package criteria

import (
	"nexus_crm_backend/internal/criteria/handler"
	"nexus_crm_backend/internal/criteria/repository"
	"nexus_crm_backend/internal/criteria/service"
	"nexus_crm_backend/internal/events"
	apphttp "nexus_crm_backend/internal/http"
	"nexus_crm_backend/platform/config"
	"nexus_crm_backend/platform/logger"
	"nexus_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the criteria registry module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the criteria module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, cfg config.SeedConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, val, log)
	h := handler.New(svc, cfg)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "criteria"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for adapter wiring.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts criteria routes. The whole registry is
// administrator-only; weights reshape lead prioritization for everyone.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/criteria", m.handler.List)
	ctx.Admin.POST("/criteria", m.handler.Create)
	ctx.Admin.PUT("/criteria/:id", m.handler.Update)
	ctx.Admin.POST("/criteria/:id/activate", m.handler.Activate)
	ctx.Admin.POST("/criteria/:id/deactivate", m.handler.Deactivate)
	ctx.Admin.POST("/criteria/seed", m.handler.Seed)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
