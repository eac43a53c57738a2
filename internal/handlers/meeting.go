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

type MeetingHandler struct {
	meetingService *services.MeetingService
	membership     *services.MembershipService
	conference     *services.ConferenceService
}

func NewMeetingHandler(db *gorm.DB) *MeetingHandler {
	return &MeetingHandler{
		meetingService: services.NewMeetingService(db),
		membership:     services.NewMembershipService(db),
		conference:     services.NewConferenceService(db),
	}
}

// Create creates a meeting for an AGM occurrence
// POST /api/meetings
func (h *MeetingHandler) Create(c *gin.Context) {
	var req services.CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	role, err := h.membership.RoleInBuilding(userID, req.BuildingID)
	if err != nil {
		response.ServerError(c, "membership lookup failed")
		return
	}
	if role != models.RoleDirector {
		response.Forbidden(c, "only a building director can create a meeting")
		return
	}

	meeting, err := h.meetingService.Create(&req, userID)
	if err != nil {
		response.ServerError(c, "failed to create meeting")
		return
	}

	services.LogInfo("meeting", "create", "meeting created: "+meeting.RoomName,
		&userID, c.ClientIP(), c.Request.UserAgent(), gin.H{"meeting_id": meeting.ID})
	response.Created(c, meeting)
}

// GetByID returns a meeting by ID
// GET /api/meetings/:id
func (h *MeetingHandler) GetByID(c *gin.Context) {
	meeting, ok := h.loadMeeting(c)
	if !ok {
		return
	}
	response.Success(c, meeting)
}

// List returns the meetings of a building
// GET /api/meetings?building_id=
func (h *MeetingHandler) List(c *gin.Context) {
	buildingID, err := strconv.ParseUint(c.Query("building_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "building_id is required")
		return
	}

	meetings, err := h.meetingService.ListForBuilding(uint(buildingID))
	if err != nil {
		response.ServerError(c, "failed to list meetings")
		return
	}
	response.Success(c, meetings)
}

// GetByAgm returns the meeting attached to an AGM occurrence
// GET /api/meetings/by-agm?agm_id=&building_id=
func (h *MeetingHandler) GetByAgm(c *gin.Context) {
	agmID, err := strconv.ParseUint(c.Query("agm_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "agm_id is required")
		return
	}
	buildingID, err := strconv.ParseUint(c.Query("building_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "building_id is required")
		return
	}

	meeting, err := h.meetingService.GetByAgm(uint(agmID), uint(buildingID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c, "no meeting for this AGM")
		return
	}
	if err != nil {
		response.ServerError(c, "failed to look up meeting")
		return
	}
	response.Success(c, meeting)
}

// Update edits host-editable fields
// PUT /api/meetings/:id
func (h *MeetingHandler) Update(c *gin.Context) {
	meeting, ok := h.loadMeeting(c)
	if !ok {
		return
	}
	if !h.requireManage(c, meeting) {
		return
	}

	var req services.UpdateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updated, err := h.meetingService.Update(meeting.ID, &req)
	if errors.Is(err, services.ErrMeetingFinalized) {
		response.Error(c, response.NewConflict("meeting can no longer be edited"))
		return
	}
	if err != nil {
		response.ServerError(c, "failed to update meeting")
		return
	}
	response.Success(c, updated)
}

// Start transitions a meeting to active
// POST /api/meetings/:id/start
func (h *MeetingHandler) Start(c *gin.Context) {
	h.runTransition(c, "start", h.meetingService.Start)
}

// End transitions a meeting to ended
// POST /api/meetings/:id/end
func (h *MeetingHandler) End(c *gin.Context) {
	h.runTransition(c, "end", h.meetingService.End)
}

// Cancel cancels a scheduled meeting
// POST /api/meetings/:id/cancel
func (h *MeetingHandler) Cancel(c *gin.Context) {
	h.runTransition(c, "cancel", h.meetingService.Cancel)
}

// GetConferenceConfig returns the conferencing-client configuration for the caller
// GET /api/meetings/:id/config
func (h *MeetingHandler) GetConferenceConfig(c *gin.Context) {
	meeting, ok := h.loadMeeting(c)
	if !ok {
		return
	}

	userID := middleware.GetUserID(c)
	member, err := h.membership.IsMember(userID, meeting.BuildingID)
	if err != nil {
		response.ServerError(c, "membership lookup failed")
		return
	}
	if !member {
		response.Denied(c, services.DenyNotMember)
		return
	}

	cfg, err := h.conference.ConfigForUser(meeting.ID, userID,
		middleware.GetDisplayName(c), middleware.GetEmail(c))
	if err != nil {
		response.ServerError(c, "failed to build conference config")
		return
	}
	response.Success(c, cfg)
}

func (h *MeetingHandler) runTransition(c *gin.Context, action string, fn func(uint) (*models.Meeting, error)) {
	meeting, ok := h.loadMeeting(c)
	if !ok {
		return
	}
	if !h.requireManage(c, meeting) {
		return
	}

	updated, err := fn(meeting.ID)
	if errors.Is(err, services.ErrInvalidTransition) {
		response.Error(c, response.NewConflict("meeting cannot "+action+" from its current state"))
		return
	}
	if err != nil {
		response.ServerError(c, "failed to "+action+" meeting")
		return
	}

	userID := middleware.GetUserID(c)
	services.LogInfo("meeting", action, "meeting "+action+": "+updated.RoomName,
		&userID, c.ClientIP(), c.Request.UserAgent(), gin.H{"meeting_id": updated.ID, "status": updated.Status})
	response.Success(c, updated)
}

// loadMeeting parses :id and loads the meeting, writing the error response
// itself when that fails.
func (h *MeetingHandler) loadMeeting(c *gin.Context) (*models.Meeting, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return nil, false
	}

	meeting, err := h.meetingService.GetByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c, "meeting not found")
		return nil, false
	}
	if err != nil {
		response.ServerError(c, "failed to load meeting")
		return nil, false
	}
	return meeting, true
}

// requireManage enforces that the caller is the host or a director of the
// building.
func (h *MeetingHandler) requireManage(c *gin.Context, meeting *models.Meeting) bool {
	userID := middleware.GetUserID(c)
	allowed, err := h.membership.CanManageMeeting(userID, meeting)
	if err != nil {
		response.ServerError(c, "membership lookup failed")
		return false
	}
	if !allowed {
		response.Forbidden(c, "only the host or a building director may do this")
		return false
	}
	return true
}
