package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/strataly/boardroom/backend/internal/services"
	"github.com/strataly/boardroom/backend/pkg/response"
	"gorm.io/gorm"
)

type ConferenceHandler struct {
	conference *services.ConferenceService
}

func NewConferenceHandler(db *gorm.DB) *ConferenceHandler {
	return &ConferenceHandler{
		conference: services.NewConferenceService(db),
	}
}

// HandleEvent ingests one conferencing-client callback. Idempotent with
// respect to duplicate join/leave deliveries.
// POST /api/callbacks/conference
func (h *ConferenceHandler) HandleEvent(c *gin.Context) {
	var event services.ConferenceEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	err := h.conference.HandleEvent(&event)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c, "unknown room")
		return
	}
	if errors.Is(err, services.ErrUnknownEvent) || errors.Is(err, services.ErrNoParticipantRef) {
		response.BadRequest(c, err.Error())
		return
	}
	if errors.Is(err, services.ErrMeetingFinalized) {
		response.Error(c, response.NewConflict("meeting has ended or been cancelled"))
		return
	}
	if err != nil {
		response.ServerError(c, "failed to process event")
		return
	}
	response.Success(c, gin.H{"message": "event processed"})
}
