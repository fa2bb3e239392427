package handler

import (
	"errors"
	"net/http"

	"barcatalog-backend/internal/domains/snapshot"
	"barcatalog-backend/internal/shared/response"
	"barcatalog-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type SnapshotHandler struct {
	service snapshot.Service
}

func NewSnapshotHandler(service snapshot.Service) *SnapshotHandler {
	return &SnapshotHandler{service: service}
}

// GetLatest handles GET /api/v1/snapshots/latest.
// An empty metadata log is "service warming up", not a 500.
func (h *SnapshotHandler) GetLatest(c *gin.Context) {
	dto, err := h.service.Latest(c.Request.Context())
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			response.ServiceUnavailable(c, "NO_SNAPSHOT", "no snapshot has been published yet")
			return
		}
		logger.Error("GetLatest: failed to resolve latest snapshot", err)
		response.InternalServerError(c, "failed to resolve latest snapshot")
		return
	}

	response.Success(c, http.StatusOK, dto)
}
