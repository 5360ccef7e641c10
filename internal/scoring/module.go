// Package scoring provides the lead-scoring bounded context: the pure
// scoring engine, score persistence, and the event subscriptions that keep
// scores current as leads, activities, and criteria change.
package scoring

import (
	critrepo "nexus_crm_backend/internal/criteria/repository"
	"nexus_crm_backend/internal/events"
	apphttp "nexus_crm_backend/internal/http"
	leadrepo "nexus_crm_backend/internal/leads/repository"
	"nexus_crm_backend/internal/scoring/handler"
	"nexus_crm_backend/internal/scoring/ports"
	"nexus_crm_backend/internal/scoring/repository"
	"nexus_crm_backend/internal/scoring/service"
	"nexus_crm_backend/platform/config"
	"nexus_crm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the scoring bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the scoring module. Cross-context reads
// (leads, criteria, activity stats) and deferred work come in through
// interfaces so the composition root controls the wiring.
func NewModule(
	pool *pgxpool.Pool,
	leads leadrepo.LeadReader,
	criteria critrepo.CriterionReader,
	stats ports.ActivityStatsReader,
	scheduler ports.RescoreScheduler,
	bus events.Bus,
	cfg config.RescoreConfig,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, criteria, stats, scheduler, bus, cfg, log)
	svc.RegisterEventHandlers(bus)
	h := handler.New(svc, scheduler)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "scoring"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for adapter wiring.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts scoring routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/scoring/leads", m.handler.ListByQuality)
	ctx.Protected.GET("/scoring/leads/:id", m.handler.GetScore)

	ctx.Admin.POST("/scoring/leads/:id/rescore", m.handler.Rescore)
	ctx.Admin.POST("/scoring/rescore", m.handler.RescoreAll)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
