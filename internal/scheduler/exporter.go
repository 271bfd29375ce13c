package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"crm_search_backend/internal/entities"
	"crm_search_backend/internal/events"
	"crm_search_backend/platform/logger"
)

// SnapshotWriter persists a pool snapshot.
type SnapshotWriter interface {
	Write(ctx context.Context, data entities.Data) (int64, error)
	BucketName() string
	ObjectKey() string
}

// Exporter copies the pool from a loader into snapshot storage.
type Exporter struct {
	loader entities.Loader
	writer SnapshotWriter
	bus    events.Bus
	log    *logger.Logger
}

func NewExporter(loader entities.Loader, writer SnapshotWriter, bus events.Bus, log *logger.Logger) *Exporter {
	return &Exporter{loader: loader, writer: writer, bus: bus, log: log}
}

// Export loads the pool and uploads it. The bus, when set, receives a
// SnapshotExported event once the object is written.
func (e *Exporter) Export(ctx context.Context, reason string) (events.SnapshotExported, error) {
	data, err := e.loader.Load(ctx)
	if err != nil {
		return events.SnapshotExported{}, fmt.Errorf("load pool from %s: %w", e.loader.Name(), err)
	}

	size, err := e.writer.Write(ctx, data)
	if err != nil {
		return events.SnapshotExported{}, err
	}

	exported := events.SnapshotExported{
		BaseEvent: events.NewBaseEvent(),
		Bucket:    e.writer.BucketName(),
		ObjectKey: e.writer.ObjectKey(),
		SizeBytes: size,
		Leads:     len(data.Leads),
		Clients:   len(data.Clients),
	}
	e.log.Info("snapshot exported",
		slog.String("reason", reason),
		slog.String("object", exported.Bucket+"/"+exported.ObjectKey),
		slog.Int64("bytes", size),
		slog.Int("leads", exported.Leads),
		slog.Int("clients", exported.Clients),
	)

	if e.bus != nil {
		if err := e.bus.PublishSync(ctx, exported); err != nil {
			e.log.Warn("snapshot exported handlers failed", "error", err)
		}
	}
	return exported, nil
}
