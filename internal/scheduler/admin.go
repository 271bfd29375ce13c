package scheduler

import (
	"net/http"

	apphttp "crm_search_backend/internal/http"
	"crm_search_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type ExportQueuedResponse struct {
	TaskID string `json:"taskId"`
}

// AdminModule lets administrators trigger a snapshot export on demand.
type AdminModule struct {
	enqueuer SnapshotEnqueuer
}

func NewAdminModule(enqueuer SnapshotEnqueuer) *AdminModule {
	return &AdminModule{enqueuer: enqueuer}
}

func (m *AdminModule) Name() string {
	return "snapshots"
}

func (m *AdminModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.POST("/snapshots", m.EnqueueExport)
}

func (m *AdminModule) EnqueueExport(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	taskID, err := m.enqueuer.EnqueueSnapshotExport(c.Request.Context(), SnapshotExportPayload{
		Reason:      ReasonManual,
		RequestedBy: identity.UserID().String(),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, ExportQueuedResponse{TaskID: taskID})
}

var _ apphttp.Module = (*AdminModule)(nil)
