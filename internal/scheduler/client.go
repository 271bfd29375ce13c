package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crm_search_backend/platform/apperr"
	"crm_search_backend/platform/cache"
	"crm_search_backend/platform/config"

	"github.com/hibiken/asynq"
)

// exportUniqueWindow collapses repeated manual export requests.
const exportUniqueWindow = 30 * time.Second

type Client struct {
	client *asynq.Client
	queue  string
}

// SnapshotEnqueuer queues snapshot exports and returns the task id.
type SnapshotEnqueuer interface {
	EnqueueSnapshotExport(ctx context.Context, payload SnapshotExportPayload) (string, error)
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) EnqueueSnapshotExport(ctx context.Context, payload SnapshotExportPayload) (string, error) {
	task, err := NewSnapshotExportTask(payload)
	if err != nil {
		return "", apperr.Internal("encode snapshot export task", err).WithOp("scheduler.EnqueueSnapshotExport")
	}

	info, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.Unique(exportUniqueWindow), asynq.MaxRetry(3))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return "", apperr.BadRequest("snapshot export already queued")
	}
	if err != nil {
		return "", apperr.Unavailable("task queue unavailable", err).WithOp("scheduler.EnqueueSnapshotExport")
	}
	return info.ID, nil
}

func redisClientOpt(cfg config.RedisConfig) (asynq.RedisClientOpt, error) {
	if cfg.GetRedisURL() == "" {
		return asynq.RedisClientOpt{}, fmt.Errorf("redis url not configured")
	}
	opt, err := cache.ParseOptions(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return "default"
}

var _ SnapshotEnqueuer = (*Client)(nil)
