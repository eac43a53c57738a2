package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/strataly/boardroom/backend/internal/middleware"
	"github.com/strataly/boardroom/backend/internal/models"
	"github.com/strataly/boardroom/backend/internal/services"
	"github.com/strataly/boardroom/backend/pkg/response"
	"gorm.io/gorm"
)

type ParticipantHandler struct {
	participants *services.ParticipantService
	meetings     *services.MeetingService
	membership   *services.MembershipService
}

func NewParticipantHandler(db *gorm.DB) *ParticipantHandler {
	return &ParticipantHandler{
		participants: services.NewParticipantService(db),
		meetings:     services.NewMeetingService(db),
		membership:   services.NewMembershipService(db),
	}
}

// Join records an authenticated join
// POST /api/meetings/:id/join
func (h *ParticipantHandler) Join(c *gin.Context) {
	meetingID, ok := parseMeetingID(c)
	if !ok {
		return
	}

	var req services.JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = middleware.GetDisplayName(c)
	}
	if req.Email == "" {
		req.Email = middleware.GetEmail(c)
	}
	if req.DisplayName == "" {
		response.BadRequest(c, "display_name is required")
		return
	}

	userID := middleware.GetUserID(c)
	participant, err := h.participants.Join(meetingID, &req, &userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c, "meeting not found")
		return
	}
	if errors.Is(err, services.ErrMeetingFinalized) {
		response.Error(c, response.NewConflict("meeting has ended or been cancelled"))
		return
	}
	if err != nil {
		response.ServerError(c, "failed to join meeting")
		return
	}
	response.Created(c, participant)
}

// Leave closes the caller's open participant row
// POST /api/meetings/:id/leave
func (h *ParticipantHandler) Leave(c *gin.Context) {
	meetingID, ok := parseMeetingID(c)
	if !ok {
		return
	}

	// The body is optional; leaving yourself needs no payload.
	var req services.LeaveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	callerID := middleware.GetUserID(c)
	if req.ParticipantID == nil && req.SessionID == "" && req.UserID == nil {
		req.UserID = &callerID
	}
	if req.UserID != nil && *req.UserID != callerID {
		// Closing another user's row requires manage rights on the meeting.
		meeting, err := h.meetings.GetByID(meetingID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "meeting not found")
			return
		}
		if err != nil {
			response.ServerError(c, "failed to load meeting")
			return
		}
		allowed, err := h.membership.CanManageMeeting(callerID, meeting)
		if err != nil {
			response.ServerError(c, "membership lookup failed")
			return
		}
		if !allowed {
			response.Forbidden(c, "only the host or a building director may remove another participant")
			return
		}
	}

	if err := h.participants.Leave(meetingID, &req); err != nil {
		if errors.Is(err, services.ErrNoParticipantRef) {
			response.BadRequest(c, err.Error())
			return
		}
		response.ServerError(c, "failed to record leave")
		return
	}
	response.Success(c, gin.H{"message": "left meeting"})
}

type participantView struct {
	models.MeetingParticipant
	DurationMinutes int  `json:"duration_minutes"`
	Active          bool `json:"active"`
}

// List returns the meeting's attendance ordered by join time
// GET /api/meetings/:id/participants
func (h *ParticipantHandler) List(c *gin.Context) {
	meetingID, ok := parseMeetingID(c)
	if !ok {
		return
	}

	participants, err := h.participants.List(meetingID)
	if err != nil {
		response.ServerError(c, "failed to list participants")
		return
	}

	views := make([]participantView, 0, len(participants))
	for i := range participants {
		views = append(views, participantView{
			MeetingParticipant: participants[i],
			DurationMinutes:    services.ComputeDuration(&participants[i]),
			Active:             participants[i].IsOpen(),
		})
	}
	response.Success(c, views)
}

func parseMeetingID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return 0, false
	}
	return uint(id), true
}
