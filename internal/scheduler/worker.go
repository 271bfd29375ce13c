package scheduler

import (
	"context"
	"fmt"

	"crm_search_backend/platform/config"
	"crm_search_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	exporter *Exporter
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, exporter *Exporter, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 4
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		exporter: exporter,
		log:      log,
	}

	mux.HandleFunc(TaskSnapshotExport, w.handleSnapshotExport)

	return w, nil
}

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

func (w *Worker) handleSnapshotExport(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSnapshotExportPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.Reason == "" {
		payload.Reason = ReasonManual
	}

	_, err = w.exporter.Export(ctx, payload.Reason)
	return err
}
