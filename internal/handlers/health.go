package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/strataly/boardroom/backend/internal/models"
	"github.com/strataly/boardroom/backend/internal/services"
)

// HealthHandler provides enhanced health check endpoints.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Presence queue mode
	queue := services.GetPresenceQueue()
	queueMode := "sync"
	if queue != nil && queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	// Live meeting count
	var activeCount int64
	models.GetDB().Model(&models.Meeting{}).
		Where("status = ?", models.MeetingStatusActive).
		Count(&activeCount)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "boardroom",
		"components": gin.H{
			"database":        dbStatus,
			"queue_mode":      queueMode,
			"active_meetings": activeCount,
		},
	})
}
