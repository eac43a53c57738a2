package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/strataly/boardroom/backend/internal/models"
	"github.com/strataly/boardroom/backend/pkg/logger"
	"gorm.io/gorm"
)

// ErrNoParticipantRef is returned when a leave carries no identifier at all.
var ErrNoParticipantRef = errors.New("cannot identify participant to remove")

// ParticipantService records join/leave events against a meeting and keeps
// the meeting's participants_count cache roughly current. One row per join
// attempt; rows are closed, never deleted.
type ParticipantService struct {
	db *gorm.DB
}

func NewParticipantService(db *gorm.DB) *ParticipantService {
	return &ParticipantService{db: db}
}

type JoinRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// LeaveRequest identifies the open row to close. Any one of the three
// identifiers is sufficient; session IDs are what the conferencing client
// echoes back.
type LeaveRequest struct {
	ParticipantID *uint  `json:"participant_id"`
	UserID        *uint  `json:"user_id"`
	SessionID     string `json:"session_id"`
}

// Join records presence. For an authenticated user any prior open row for
// the same meeting is closed first, so at most one row per (meeting, user)
// pair has left_at = NULL. The count recompute afterwards is best-effort.
func (s *ParticipantService) Join(meetingID uint, req *JoinRequest, userID *uint) (*models.MeetingParticipant, error) {
	var meeting models.Meeting
	if err := s.db.First(&meeting, meetingID).Error; err != nil {
		return nil, err
	}
	if meeting.IsTerminal() {
		return nil, ErrMeetingFinalized
	}

	now := time.Now()

	if userID != nil {
		// Rejoin: close any row this user left dangling. Read-then-write; a
		// narrow race can leave two open rows briefly, which the next
		// recompute self-heals.
		err := s.db.Model(&models.MeetingParticipant{}).
			Where("meeting_id = ? AND user_id = ? AND left_at IS NULL", meetingID, *userID).
			Update("left_at", now).Error
		if err != nil {
			return nil, err
		}
	}

	role := req.Role
	if role == "" {
		role = models.ParticipantRoleParticipant
	}
	if userID != nil && *userID == meeting.HostID {
		role = models.ParticipantRoleHost
	}

	participant := models.MeetingParticipant{
		MeetingID:   meetingID,
		UserID:      userID,
		SessionID:   uuid.NewString(),
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        role,
		JoinedAt:    now,
		IsAnonymous: userID == nil,
	}
	if err := s.db.Create(&participant).Error; err != nil {
		return nil, err
	}

	s.scheduleRecount(meetingID)
	return &participant, nil
}

// Leave closes the matching open row. Closing an already-closed row (a
// duplicate leave event) is a no-op success.
func (s *ParticipantService) Leave(meetingID uint, req *LeaveRequest) error {
	query := s.db.Model(&models.MeetingParticipant{}).
		Where("meeting_id = ? AND left_at IS NULL", meetingID)

	switch {
	case req.ParticipantID != nil:
		query = query.Where("id = ?", *req.ParticipantID)
	case req.UserID != nil:
		query = query.Where("user_id = ?", *req.UserID)
	case req.SessionID != "":
		query = query.Where("session_id = ?", req.SessionID)
	default:
		return ErrNoParticipantRef
	}

	if err := query.Update("left_at", time.Now()).Error; err != nil {
		return err
	}

	s.scheduleRecount(meetingID)
	return nil
}

// List returns all join rows of a meeting ordered by join time. "Currently
// active" is purely left_at IS NULL.
func (s *ParticipantService) List(meetingID uint) ([]models.MeetingParticipant, error) {
	var participants []models.MeetingParticipant
	err := s.db.Where("meeting_id = ?", meetingID).
		Order("joined_at ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// ComputeDuration returns the participant's attendance in whole minutes,
// clamped to zero. Open rows measure against now.
func ComputeDuration(p *models.MeetingParticipant) int {
	end := time.Now()
	if p.LeftAt != nil {
		end = *p.LeftAt
	}
	minutes := int(end.Sub(p.JoinedAt).Minutes())
	if minutes < 0 {
		return 0
	}
	return minutes
}

// RecomputeCount counts the open rows and writes the result into the
// meeting's participants_count cache. Always a full recount, never an
// in-place increment: missed leave events (a closed browser tab) would
// otherwise drift the cache forever.
func (s *ParticipantService) RecomputeCount(meetingID uint) error {
	var count int64
	err := s.db.Model(&models.MeetingParticipant{}).
		Where("meeting_id = ? AND left_at IS NULL", meetingID).
		Count(&count).Error
	if err != nil {
		return err
	}

	return s.db.Model(&models.Meeting{}).
		Where("id = ?", meetingID).
		UpdateColumn("participants_count", count).Error
}

// scheduleRecount enqueues a best-effort cache recompute. Its failure never
// fails the join/leave that triggered it.
func (s *ParticipantService) scheduleRecount(meetingID uint) {
	queue := GetPresenceQueue()
	if queue == nil {
		// No queue wired (tests); recount inline.
		if err := s.RecomputeCount(meetingID); err != nil {
			logger.Warn().Err(err).Uint("meeting_id", meetingID).Msg("participant count recompute failed")
		}
		return
	}
	if err := queue.Enqueue(&PresenceTask{MeetingID: meetingID}); err != nil {
		logger.Warn().Err(err).Uint("meeting_id", meetingID).Msg("failed to enqueue participant count recompute")
	}
}
