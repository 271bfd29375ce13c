package scheduler

import (
	"context"
	"fmt"
	"time"

	"crm_search_backend/platform/config"
	"crm_search_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues snapshot exports on the configured cron spec.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	task, err := NewSnapshotExportTask(SnapshotExportPayload{Reason: ReasonPeriodic})
	if err != nil {
		return nil, err
	}

	s := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})
	spec := cfg.GetSnapshotExportCron()
	if _, err := s.Register(spec, task, asynq.Queue(queueName(cfg))); err != nil {
		return nil, fmt.Errorf("register snapshot export %q: %w", spec, err)
	}
	log.Info("snapshot export scheduled", "cron", spec)

	return &Periodic{scheduler: s, log: log}, nil
}

// Run starts the cron loop and stops it when ctx is done.
func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}
	if err := p.scheduler.Start(); err != nil {
		p.log.Error("periodic scheduler failed to start", "error", err)
		return
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
}
