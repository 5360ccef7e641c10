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
	critrepo "nexus_crm_backend/internal/criteria/repository"
	"nexus_crm_backend/internal/events"
	leadrepo "nexus_crm_backend/internal/leads/repository"
	"nexus_crm_backend/internal/pipeline"
	"nexus_crm_backend/internal/scheduler"
	scorerepo "nexus_crm_backend/internal/scoring/repository"
	scoreservice "nexus_crm_backend/internal/scoring/service"
	"nexus_crm_backend/platform/config"
	"nexus_crm_backend/platform/db"
	"nexus_crm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.AsynqQueueName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	rdb, err := scheduler.NewRedisClient(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		panic("failed to initialize redis client: " + err.Error())
	}
	defer func() { _ = rdb.Close() }()

	debouncer := scheduler.NewDebouncer(rdb, cfg.GetRescoreDebounce())

	schedClient, err := scheduler.NewClient(cfg, debouncer)
	if err != nil {
		log.Error("failed to initialize rescore scheduler client", "error", err)
		panic("failed to initialize rescore scheduler client: " + err.Error())
	}
	defer func() { _ = schedClient.Close() }()

	eventBus := events.NewInMemoryBus(log)

	// Worker-side scoring wiring (no HTTP handlers required). The pipeline
	// module is built for its event subscriptions so leads scored here still
	// auto-promote.
	leadsRepo := leadrepo.New(pool)
	pipelineModule := pipeline.NewModule(pool, leadsRepo, eventBus, log)
	activitiesModule := activities.NewModule(pool, adapters.NewLeadResolver(pipelineModule.Repository()), eventBus, log)

	scoringService := scoreservice.New(
		scorerepo.New(pool),
		leadsRepo,
		critrepo.New(pool),
		adapters.NewActivityStats(activitiesModule.Repository()),
		schedClient,
		eventBus,
		cfg,
		log,
	)

	worker, err := scheduler.NewWorker(cfg, scoringService, debouncer, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	log.Info("worker listening for tasks")
	worker.Run(ctx)
	log.Info("worker stopped")
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
