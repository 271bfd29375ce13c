package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskSnapshotExport = "entities.snapshot.export"

// Export triggers.
const (
	ReasonPeriodic = "periodic"
	ReasonManual   = "manual"
)

type SnapshotExportPayload struct {
	Reason      string `json:"reason"`
	RequestedBy string `json:"requestedBy,omitempty"`
}

func NewSnapshotExportTask(payload SnapshotExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshotExport, data), nil
}

func ParseSnapshotExportPayload(task *asynq.Task) (SnapshotExportPayload, error) {
	var payload SnapshotExportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SnapshotExportPayload{}, err
	}
	return payload, nil
}
