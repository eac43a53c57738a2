package services

import (
	"errors"
	"time"

	"github.com/strataly/boardroom/backend/internal/models"
	"github.com/strataly/boardroom/backend/pkg/logger"
	"gorm.io/gorm"
)

// ErrInvalidTransition is returned when a lifecycle operation is attempted
// from a state it is not reachable from (e.g. starting an ended meeting).
var ErrInvalidTransition = errors.New("invalid meeting state transition")

// ErrMeetingFinalized is returned when a meeting in a terminal state is
// edited.
var ErrMeetingFinalized = errors.New("meeting has ended or been cancelled")

// createRetries bounds re-insertion attempts after a room-name uniqueness
// violation. A true race between two creations for the same building+AGM
// pair is rare; one regeneration is normally enough.
const createRetries = 3

// MeetingService owns the meeting record and its state machine. Status is
// mutated only here, always through guarded read-modify-write transitions.
type MeetingService struct {
	db        *gorm.DB
	roomNames *RoomNameGenerator
}

func NewMeetingService(db *gorm.DB) *MeetingService {
	return &MeetingService{
		db:        db,
		roomNames: NewRoomNameGenerator(db),
	}
}

type CreateMeetingRequest struct {
	AgmID            uint       `json:"agm_id" binding:"required"`
	BuildingID       uint       `json:"building_id" binding:"required"`
	Title            string     `json:"title" binding:"required"`
	Description      string     `json:"description"`
	ScheduledStart   *time.Time `json:"scheduled_start"`
	MaxParticipants  int        `json:"max_participants"`
	RecordingEnabled bool       `json:"recording_enabled"`
}

type UpdateMeetingRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	MaxParticipants *int   `json:"max_participants"`
}

// Create allocates a room name and persists a scheduled meeting. A
// uniqueness violation on room_name means another creation won the race;
// the name is regenerated and the insert retried.
func (s *MeetingService) Create(req *CreateMeetingRequest, hostID uint) (*models.Meeting, error) {
	maxParticipants := req.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = 100
	}

	var lastErr error
	for attempt := 0; attempt < createRetries; attempt++ {
		meeting := models.Meeting{
			AgmID:            req.AgmID,
			BuildingID:       req.BuildingID,
			Title:            req.Title,
			Description:      req.Description,
			RoomName:         s.roomNames.Generate(req.BuildingID, req.AgmID),
			HostID:           hostID,
			Status:           models.MeetingStatusScheduled,
			ScheduledStart:   req.ScheduledStart,
			MaxParticipants:  maxParticipants,
			RecordingEnabled: req.RecordingEnabled,
		}

		err := s.db.Create(&meeting).Error
		if err == nil {
			return &meeting, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}

		lastErr = err
		logger.Warn().Str("room_name", meeting.RoomName).Msg("room name collided on insert, regenerating")
	}
	return nil, lastErr
}

// GetByID returns a meeting by ID. Absence surfaces as
// gorm.ErrRecordNotFound so callers can distinguish "doesn't exist" from
// "lookup failed".
func (s *MeetingService) GetByID(id uint) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := s.db.First(&meeting, id).Error; err != nil {
		return nil, err
	}
	return &meeting, nil
}

// GetByAgm returns the meeting attached to an AGM occurrence in a building.
func (s *MeetingService) GetByAgm(agmID, buildingID uint) (*models.Meeting, error) {
	var meeting models.Meeting
	err := s.db.Where("agm_id = ? AND building_id = ?", agmID, buildingID).
		Order("created_at DESC").
		First(&meeting).Error
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

// ListForBuilding returns all meetings of a building, newest first.
func (s *MeetingService) ListForBuilding(buildingID uint) ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := s.db.Where("building_id = ?", buildingID).
		Order("created_at DESC").
		Find(&meetings).Error
	if err != nil {
		return nil, err
	}
	return meetings, nil
}

// GetByRoomName resolves the meeting a conferencing-client event refers to.
func (s *MeetingService) GetByRoomName(roomName string) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := s.db.Where("room_name = ?", roomName).First(&meeting).Error; err != nil {
		return nil, err
	}
	return &meeting, nil
}

// Start transitions scheduled → active and stamps actual_start_time.
// Starting an already-active meeting is a no-op success so duplicate
// retries from the client are harmless.
func (s *MeetingService) Start(id uint) (*models.Meeting, error) {
	return s.transition(id, models.MeetingStatusScheduled, models.MeetingStatusActive, "actual_start_time")
}

// End transitions active → ended and stamps actual_end_time. Ending an
// already-ended meeting is a no-op success; the conferencing client's
// disconnect callback fires more than once.
func (s *MeetingService) End(id uint) (*models.Meeting, error) {
	return s.transition(id, models.MeetingStatusActive, models.MeetingStatusEnded, "actual_end_time")
}

// Cancel transitions scheduled → cancelled. Cancelling twice is a no-op
// success; cancelling an active or ended meeting is rejected.
func (s *MeetingService) Cancel(id uint) (*models.Meeting, error) {
	return s.transition(id, models.MeetingStatusScheduled, models.MeetingStatusCancelled, "")
}

// transition performs a guarded status update: the UPDATE only applies while
// the row is still in `from`, so two racing invocations cannot both move the
// meeting and stamp different times. When the guard misses, the row is
// reloaded to decide between idempotent success and rejection.
func (s *MeetingService) transition(id uint, from, to, stampColumn string) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := s.db.First(&meeting, id).Error; err != nil {
		return nil, err
	}

	if meeting.Status == to {
		return &meeting, nil
	}
	if meeting.Status != from {
		return nil, ErrInvalidTransition
	}

	updates := map[string]interface{}{"status": to}
	if stampColumn != "" {
		updates[stampColumn] = time.Now()
	}

	result := s.db.Model(&models.Meeting{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// Lost a race; re-read and re-evaluate.
		if err := s.db.First(&meeting, id).Error; err != nil {
			return nil, err
		}
		if meeting.Status == to {
			return &meeting, nil
		}
		return nil, ErrInvalidTransition
	}

	if err := s.db.First(&meeting, id).Error; err != nil {
		return nil, err
	}
	return &meeting, nil
}

// Update applies host-editable fields. Rejected once the meeting is in a
// terminal state.
func (s *MeetingService) Update(id uint, req *UpdateMeetingRequest) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := s.db.First(&meeting, id).Error; err != nil {
		return nil, err
	}

	if meeting.IsTerminal() {
		return nil, ErrMeetingFinalized
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.MaxParticipants != nil && *req.MaxParticipants > 0 {
		updates["max_participants"] = *req.MaxParticipants
	}

	if len(updates) == 0 {
		return &meeting, nil
	}

	if err := s.db.Model(&meeting).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &meeting, nil
}
