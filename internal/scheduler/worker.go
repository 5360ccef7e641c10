package scheduler

import (
	"context"
	"fmt"

	scorerepo "nexus_crm_backend/internal/scoring/repository"
	"nexus_crm_backend/platform/config"
	"nexus_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Rescorer is the slice of the scoring service the worker needs.
type Rescorer interface {
	Rescore(ctx context.Context, leadID uuid.UUID) (scorerepo.LeadScore, error)
	RescoreAll(ctx context.Context) (int, error)
}

// Worker consumes re-scoring tasks from the asynq queue.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	rescorer Rescorer
	debounce *Debouncer
	log      *logger.Logger
}

// NewWorker creates an asynq worker bound to the re-scoring handlers.
func NewWorker(cfg config.SchedulerConfig, rescorer Rescorer, debounce *Debouncer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		rescorer: rescorer,
		debounce: debounce,
		log:      log,
	}

	mux.HandleFunc(TaskRescoreLead, w.handleRescoreLead)
	mux.HandleFunc(TaskRescoreBatch, w.handleRescoreBatch)

	return w, nil
}

// Run serves tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleRescoreLead(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRescoreLeadPayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	if _, err := w.rescorer.Rescore(ctx, leadID); err != nil {
		return err
	}
	// Open the window for the next burst once this score is fresh.
	return w.debounce.Release(ctx, leadID)
}

func (w *Worker) handleRescoreBatch(ctx context.Context, _ *asynq.Task) error {
	scored, err := w.rescorer.RescoreAll(ctx)
	if err != nil {
		return err
	}
	w.log.Info("batch rescore complete", "leads_scored", scored)
	return nil
}
