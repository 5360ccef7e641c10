package scheduler

import (
	"context"
	"errors"
	"fmt"

	"nexus_crm_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues re-scoring work. It implements the scoring module's
// RescoreScheduler port, with single-lead enqueues debounced in Redis.
type Client struct {
	client   *asynq.Client
	queue    string
	debounce *Debouncer
}

// NewClient creates an asynq client from the scheduler configuration.
func NewClient(cfg config.SchedulerConfig, debounce *Debouncer) (*Client, error) {
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

	return &Client{
		client:   asynq.NewClient(opt),
		queue:    queue,
		debounce: debounce,
	}, nil
}

// Close releases the underlying asynq client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleLeadRescore enqueues a single-lead re-score unless one was
// already enqueued for this lead within the debounce window.
func (c *Client) ScheduleLeadRescore(ctx context.Context, leadID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	fresh, err := c.debounce.Acquire(ctx, leadID)
	if err != nil {
		return err
	}
	if !fresh {
		return nil
	}

	task, err := NewRescoreLeadTask(RescoreLeadPayload{LeadID: leadID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

// ScheduleBatchRescore enqueues a full re-score of the lead base. Duplicate
// enqueues collapse onto the pending task.
func (c *Client) ScheduleBatchRescore(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}

	_, err := c.client.EnqueueContext(ctx, NewRescoreBatchTask(),
		asynq.Queue(c.queue), asynq.TaskID(TaskRescoreBatch))
	if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
