// Command rescore runs a one-shot scoring pass over the full lead base and
// exits. Useful after editing the criteria registry in bulk or restoring a
// database dump.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	actrepo "nexus_crm_backend/internal/activities/repository"
	"nexus_crm_backend/internal/adapters"
	critrepo "nexus_crm_backend/internal/criteria/repository"
	"nexus_crm_backend/internal/events"
	leadrepo "nexus_crm_backend/internal/leads/repository"
	"nexus_crm_backend/internal/scheduler"
	scorerepo "nexus_crm_backend/internal/scoring/repository"
	scoreservice "nexus_crm_backend/internal/scoring/service"
	"nexus_crm_backend/platform/config"
	"nexus_crm_backend/platform/db"
	"nexus_crm_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting full rescore")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Scores are written directly; nothing is enqueued from a one-shot run.
	scoringService := scoreservice.New(
		scorerepo.New(pool),
		leadrepo.New(pool),
		critrepo.New(pool),
		adapters.NewActivityStats(actrepo.New(pool)),
		(*scheduler.Client)(nil),
		eventBus,
		cfg,
		log,
	)

	scored, err := scoringService.RescoreAll(ctx)
	if err != nil {
		log.Error("full rescore failed", "error", err, "leads_scored", scored)
		os.Exit(1)
	}

	log.Info("full rescore complete", "leads_scored", scored)
}
