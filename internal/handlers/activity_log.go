package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/strataly/boardroom/backend/internal/services"
	"github.com/strataly/boardroom/backend/pkg/response"
	"gorm.io/gorm"
)

type ActivityLogHandler struct {
	service *services.ActivityLogService
}

func NewActivityLogHandler(db *gorm.DB) *ActivityLogHandler {
	return &ActivityLogHandler{
		service: services.NewActivityLogService(db),
	}
}

// List returns paged audit entries with optional filters.
// GET /api/activity-logs
func (h *ActivityLogHandler) List(c *gin.Context) {
	req := &services.ActivityLogListRequest{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.List(req)
	if err != nil {
		response.ServerError(c, "failed to query activity logs")
		return
	}
	response.Success(c, result)
}
