package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/strataly/boardroom/backend/internal/middleware"
	"github.com/strataly/boardroom/backend/internal/models"
	"github.com/strataly/boardroom/backend/internal/services"
	"github.com/strataly/boardroom/backend/internal/utils"
	"github.com/strataly/boardroom/backend/pkg/response"
	"gorm.io/gorm"
)

type LinkHandler struct {
	linkService    *services.MeetingLinkService
	meetingService *services.MeetingService
	membership     *services.MembershipService
	participants   *services.ParticipantService
}

func NewLinkHandler(db *gorm.DB, linkService *services.MeetingLinkService) *LinkHandler {
	return &LinkHandler{
		linkService:    linkService,
		meetingService: services.NewMeetingService(db),
		membership:     services.NewMembershipService(db),
		participants:   services.NewParticipantService(db),
	}
}

type generateLinkRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
	MaxUses   *int       `json:"max_uses"`
}

type linkResponse struct {
	ID          uint       `json:"id"`
	MeetingID   uint       `json:"meeting_id"`
	AccessURL   string     `json:"access_url"`
	ExpiresAt   *time.Time `json:"expires_at"`
	MaxUses     *int       `json:"max_uses"`
	CurrentUses int        `json:"current_uses"`
	IsActive    bool       `json:"is_active"`
}

// Generate mints a new access link for a meeting
// POST /api/meetings/:id/links
func (h *LinkHandler) Generate(c *gin.Context) {
	meetingID, ok := h.manageableMeeting(c)
	if !ok {
		return
	}

	// The body is optional; an empty one mints a link with no expiry or
	// usage quota.
	var req generateLinkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	if req.MaxUses != nil && *req.MaxUses < 1 {
		response.BadRequest(c, "max_uses must be at least 1")
		return
	}

	userID := middleware.GetUserID(c)
	link, err := h.linkService.Generate(meetingID, req.ExpiresAt, req.MaxUses, userID)
	if errors.Is(err, services.ErrMeetingFinalized) {
		response.Error(c, response.NewConflict("meeting has ended or been cancelled"))
		return
	}
	if err != nil {
		response.ServerError(c, "failed to generate link")
		return
	}

	services.LogInfo("link", "generate", "access link issued",
		&userID, c.ClientIP(), c.Request.UserAgent(), gin.H{"meeting_id": meetingID, "link_id": link.ID})
	response.Created(c, h.render(link))
}

// GenerateHomeowner returns the meeting's homeowner link, reusing a
// still-valid one when it exists
// POST /api/meetings/:id/homeowner-link
func (h *LinkHandler) GenerateHomeowner(c *gin.Context) {
	meetingID, ok := h.manageableMeeting(c)
	if !ok {
		return
	}

	userID := middleware.GetUserID(c)
	link, err := h.linkService.GenerateHomeownerLink(meetingID, userID)
	if errors.Is(err, services.ErrMeetingFinalized) {
		response.Error(c, response.NewConflict("meeting has ended or been cancelled"))
		return
	}
	if err != nil {
		response.ServerError(c, "failed to generate homeowner link")
		return
	}
	response.Success(c, h.render(link))
}

// Deactivate revokes an access link
// DELETE /api/meeting-links/:id
func (h *LinkHandler) Deactivate(c *gin.Context) {
	linkID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid link id")
		return
	}

	link, meeting, err := h.linkService.GetWithMeeting(uint(linkID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c, "link not found")
		return
	}
	if err != nil {
		response.ServerError(c, "failed to load link")
		return
	}

	userID := middleware.GetUserID(c)
	allowed, err := h.membership.CanManageMeeting(userID, meeting)
	if err != nil {
		response.ServerError(c, "membership lookup failed")
		return
	}
	if !allowed {
		response.Forbidden(c, "only the host or a building director may revoke a link")
		return
	}

	if err := h.linkService.Deactivate(link.ID); err != nil {
		response.ServerError(c, "failed to deactivate link")
		return
	}

	services.LogInfo("link", "deactivate", "access link revoked",
		&userID, c.ClientIP(), c.Request.UserAgent(), gin.H{"link_id": link.ID})
	response.Success(c, gin.H{"message": "link deactivated"})
}

// Resolve validates a path-embedded token and returns the meeting it grants
// entry to, or a structured denial reason
// GET /api/links/:token
func (h *LinkHandler) Resolve(c *gin.Context) {
	token := c.Param("token")
	userID := optionalUserID(c)

	decision, err := h.linkService.ValidateAccess(token, userID)
	if err != nil {
		response.ServerError(c, "link validation failed")
		return
	}
	if !decision.Valid {
		h.deny(c, decision.Reason)
		return
	}

	response.Success(c, gin.H{
		"meeting":    decision.Meeting,
		"access_url": h.linkService.AccessURL(decision.Link),
	})
}

type joinViaLinkRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Email       string `json:"email"`
}

// Join resolves a token and records presence, consuming one use of the link
// POST /api/links/:token/join
func (h *LinkHandler) Join(c *gin.Context) {
	token := c.Param("token")

	var req joinViaLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := optionalUserID(c)
	decision, err := h.linkService.ValidateAccess(token, userID)
	if err != nil {
		response.ServerError(c, "link validation failed")
		return
	}
	if !decision.Valid {
		h.deny(c, decision.Reason)
		return
	}

	// Usage is consumed after validation and before the join row is
	// written; a failed join wastes one use rather than handing out a free
	// resolution.
	if err := h.linkService.IncrementUsage(decision.Link.ID); err != nil {
		response.ServerError(c, "failed to record link usage")
		return
	}

	participant, err := h.participants.Join(decision.Meeting.ID, &services.JoinRequest{
		DisplayName: req.DisplayName,
		Email:       req.Email,
	}, userID)
	if err != nil {
		response.ServerError(c, "failed to join meeting")
		return
	}

	response.Created(c, gin.H{
		"participant": participant,
		"room_name":   decision.Meeting.RoomName,
	})
}

func (h *LinkHandler) deny(c *gin.Context, reason string) {
	if reason == services.DenyNotFound {
		response.NotFound(c, "link not found")
		return
	}
	response.Denied(c, reason)
}

func (h *LinkHandler) render(link *models.MeetingLink) linkResponse {
	return linkResponse{
		ID:          link.ID,
		MeetingID:   link.MeetingID,
		AccessURL:   h.linkService.AccessURL(link),
		ExpiresAt:   link.ExpiresAt,
		MaxUses:     link.MaxUses,
		CurrentUses: link.CurrentUses,
		IsActive:    link.IsActive,
	}
}

// manageableMeeting parses :id and checks the caller may manage the meeting.
func (h *LinkHandler) manageableMeeting(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return 0, false
	}

	meeting, err := h.meetingService.GetByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c, "meeting not found")
		return 0, false
	}
	if err != nil {
		response.ServerError(c, "failed to load meeting")
		return 0, false
	}

	userID := middleware.GetUserID(c)
	allowed, err := h.membership.CanManageMeeting(userID, meeting)
	if err != nil {
		response.ServerError(c, "membership lookup failed")
		return 0, false
	}
	if !allowed {
		response.Forbidden(c, "only the host or a building director may manage links")
		return 0, false
	}
	return meeting.ID, true
}

// optionalUserID extracts the caller's identity when a bearer token is
// present. Link endpoints are public: an invalid or absent token simply
// means an anonymous caller, not a rejection.
func optionalUserID(c *gin.Context) *uint {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil
	}
	claims, err := utils.ParseToken(parts[1])
	if err != nil {
		return nil
	}
	return &claims.UserID
}
