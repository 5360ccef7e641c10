package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nexus_crm_backend/internal/activities"
	"nexus_crm_backend/internal/adapters"
	"nexus_crm_backend/internal/criteria"
	"nexus_crm_backend/internal/dashboard"
	"nexus_crm_backend/internal/events"
	apphttp "nexus_crm_backend/internal/http"
	"nexus_crm_backend/internal/http/router"
	"nexus_crm_backend/internal/leads"
	"nexus_crm_backend/internal/pipeline"
	"nexus_crm_backend/internal/scheduler"
	"nexus_crm_backend/internal/scoring"
	"nexus_crm_backend/internal/scoring/ports"
	"nexus_crm_backend/migrations"
	"nexus_crm_backend/platform/config"
	"nexus_crm_backend/platform/db"
	"nexus_crm_backend/platform/logger"
	"nexus_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	rescoreScheduler, closeScheduler := initRescoreScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	val := validator.New()

	leadsModule := leads.NewModule(pool, eventBus, log)
	criteriaModule := criteria.NewModule(pool, eventBus, cfg, val, log)
	pipelineModule := pipeline.NewModule(pool, leadsModule.Repository(), eventBus, log)

	// Activities resolve their lead through the pipeline
	leadResolver := adapters.NewLeadResolver(pipelineModule.Repository())
	activitiesModule := activities.NewModule(pool, leadResolver, eventBus, log)

	// Scoring reads leads, the criteria snapshot, and activity stats
	activityStats := adapters.NewActivityStats(activitiesModule.Repository())
	scoringModule := scoring.NewModule(
		pool,
		leadsModule.Repository(),
		criteriaModule.Repository(),
		activityStats,
		rescoreScheduler,
		eventBus,
		cfg,
		log,
	)

	dashboardModule := dashboard.NewModule(
		leadsModule.Repository(),
		scoringModule.Repository(),
		pipelineModule.Repository(),
		activitiesModule.Repository(),
	)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			criteriaModule,
			scoringModule,
			pipelineModule,
			activitiesModule,
			dashboardModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initRescoreScheduler wires the asynq client with its Redis debouncer.
// Without Redis the API still runs; deferred re-scores are simply disabled.
func initRescoreScheduler(cfg *config.Config, log *logger.Logger) (ports.RescoreScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; deferred re-scoring disabled")
		return (*scheduler.Client)(nil), nil
	}

	rdb, err := scheduler.NewRedisClient(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		return (*scheduler.Client)(nil), nil
	}

	debouncer := scheduler.NewDebouncer(rdb, cfg.GetRescoreDebounce())
	client, err := scheduler.NewClient(cfg, debouncer)
	if err != nil {
		log.Error("failed to initialize rescore scheduler client", "error", err)
		return (*scheduler.Client)(nil), nil
	}

	return client, func() {
		_ = client.Close()
		_ = rdb.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("%s: %w", name, lastErr)
}
