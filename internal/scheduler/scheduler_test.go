package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"crm_search_backend/internal/entities"
	"crm_search_backend/internal/events"
	"crm_search_backend/platform/apperr"
	"crm_search_backend/platform/httpkit"
	"crm_search_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type stubLoader struct {
	data entities.Data
	err  error
}

func (s stubLoader) Name() string                               { return "stub" }
func (s stubLoader) Load(context.Context) (entities.Data, error) { return s.data, s.err }

type memoryWriter struct {
	written []entities.Data
	err     error
}

func (w *memoryWriter) Write(_ context.Context, data entities.Data) (int64, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.written = append(w.written, data)
	return 42, nil
}
func (w *memoryWriter) BucketName() string { return "crm-snapshots" }
func (w *memoryWriter) ObjectKey() string  { return "entities/latest.json" }

func TestExporterWritesAndPublishes(t *testing.T) {
	bus := events.NewInMemoryBus(nil)
	var got events.SnapshotExported
	bus.Subscribe(events.SnapshotExported{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		got = e.(events.SnapshotExported)
		return nil
	}))

	writer := &memoryWriter{}
	data := entities.Data{
		Leads:   []entities.Record{{ID: "L1"}, {ID: "L2"}},
		Clients: []entities.Record{{ID: "C1"}},
	}
	exporter := NewExporter(stubLoader{data: data}, writer, bus, logger.NewNop())

	result, err := exporter.Export(context.Background(), ReasonManual)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(writer.written) != 1 {
		t.Fatalf("expected one write, got %d", len(writer.written))
	}
	if result.Leads != 2 || result.Clients != 1 || result.SizeBytes != 42 {
		t.Errorf("unexpected result %+v", result)
	}
	if got.ObjectKey != "entities/latest.json" || got.Bucket != "crm-snapshots" {
		t.Errorf("event not published: %+v", got)
	}
}

func TestExporterFailures(t *testing.T) {
	loadErr := errors.New("db down")
	writer := &memoryWriter{}
	exporter := NewExporter(stubLoader{err: loadErr}, writer, nil, logger.NewNop())
	if _, err := exporter.Export(context.Background(), ReasonPeriodic); !errors.Is(err, loadErr) {
		t.Fatalf("expected load error, got %v", err)
	}
	if len(writer.written) != 0 {
		t.Fatal("nothing must be written when the load fails")
	}

	putErr := errors.New("bucket gone")
	exporter = NewExporter(stubLoader{}, &memoryWriter{err: putErr}, nil, logger.NewNop())
	if _, err := exporter.Export(context.Background(), ReasonPeriodic); !errors.Is(err, putErr) {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestSnapshotExportPayload(t *testing.T) {
	task, err := NewSnapshotExportTask(SnapshotExportPayload{Reason: ReasonManual, RequestedBy: "u1"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskSnapshotExport {
		t.Fatalf("unexpected task type %q", task.Type())
	}
	payload, err := ParseSnapshotExportPayload(task)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if payload.Reason != ReasonManual || payload.RequestedBy != "u1" {
		t.Errorf("unexpected payload %+v", payload)
	}
}

type fakeEnqueuer struct {
	payloads []SnapshotExportPayload
	err      error
}

func (f *fakeEnqueuer) EnqueueSnapshotExport(_ context.Context, payload SnapshotExportPayload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.payloads = append(f.payloads, payload)
	return "task-1", nil
}

func TestAdminEnqueueExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()

	tests := []struct {
		name     string
		err      error
		userID   uuid.UUID
		wantCode int
	}{
		{"queued", nil, userID, http.StatusAccepted},
		{"duplicate", apperr.BadRequest("snapshot export already queued"), userID, http.StatusBadRequest},
		{"queue down", apperr.Unavailable("task queue unavailable", errors.New("dial tcp: refused")), userID, http.StatusBadGateway},
		{"bad task", apperr.Internal("encode snapshot export task", errors.New("boom")), userID, http.StatusInternalServerError},
		{"anonymous", nil, uuid.Nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enq := &fakeEnqueuer{err: tt.err}
			m := NewAdminModule(enq)
			r := gin.New()
			r.POST("/admin/snapshots", func(c *gin.Context) {
				if tt.userID != uuid.Nil {
					c.Set(httpkit.ContextUserIDKey, tt.userID)
				}
				m.EnqueueExport(c)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/snapshots", nil))
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if tt.wantCode != http.StatusAccepted {
				return
			}
			var resp ExportQueuedResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.TaskID != "task-1" || len(enq.payloads) != 1 || enq.payloads[0].RequestedBy != userID.String() {
				t.Errorf("unexpected enqueue %+v / %+v", resp, enq.payloads)
			}
		})
	}
}
