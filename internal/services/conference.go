package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Conferencing-client event types. These are the only inbound signals the
// core consumes from the embedded video client.
const (
	EventParticipantJoined = "participantJoined"
	EventParticipantLeft   = "participantLeft"
	EventErrorOccurred     = "errorOccurred"
	EventReadyToClose      = "readyToClose"
)

// ErrUnknownEvent is returned for event types outside the closed set.
var ErrUnknownEvent = errors.New("unknown conference event type")

// ConferenceEvent is one callback from the conferencing client, keyed by the
// room name the client was configured with. SessionID echoes the value the
// core handed out at join time, which is how leave events find their row.
type ConferenceEvent struct {
	Type        string `json:"type" binding:"required"`
	RoomName    string `json:"room_name" binding:"required"`
	SessionID   string `json:"session_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	UserID      *uint  `json:"user_id"`
	Error       string `json:"error"`
}

// ConferenceConfig is what the browser-embedded client is configured with.
// Media transport, mute state and recording storage stay entirely on the
// client side.
type ConferenceConfig struct {
	RoomName    string `json:"room_name"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	IsModerator bool   `json:"is_moderator"`
}

// ConferenceService routes conferencing-client callbacks into the
// participant tracker. Each callback is one explicit event type, so the
// state machine's entry points stay enumerable and testable without the
// client.
type ConferenceService struct {
	db           *gorm.DB
	meetings     *MeetingService
	participants *ParticipantService
}

func NewConferenceService(db *gorm.DB) *ConferenceService {
	return &ConferenceService{
		db:           db,
		meetings:     NewMeetingService(db),
		participants: NewParticipantService(db),
	}
}

// HandleEvent dispatches one callback. Duplicate join/leave events are
// tolerated: join dedupes per authenticated user, leave on a closed row is a
// no-op.
func (s *ConferenceService) HandleEvent(event *ConferenceEvent) error {
	meeting, err := s.meetings.GetByRoomName(event.RoomName)
	if err != nil {
		return err
	}

	switch event.Type {
	case EventParticipantJoined:
		displayName := event.DisplayName
		if displayName == "" {
			displayName = "Guest"
		}
		_, err := s.participants.Join(meeting.ID, &JoinRequest{
			DisplayName: displayName,
			Email:       event.Email,
		}, event.UserID)
		return err

	case EventParticipantLeft:
		return s.participants.Leave(meeting.ID, &LeaveRequest{
			UserID:    event.UserID,
			SessionID: event.SessionID,
		})

	case EventErrorOccurred:
		LogWarning("conference", "client_error",
			fmt.Sprintf("conferencing client error in room %s: %s", event.RoomName, event.Error),
			event.UserID, "", "", nil)
		return nil

	case EventReadyToClose:
		// The client signals it is done; ending the meeting stays an
		// explicit host action, so this is audit-only.
		LogInfo("conference", "ready_to_close",
			fmt.Sprintf("conferencing client closed for room %s", event.RoomName),
			event.UserID, "", "", nil)
		return nil
	}

	return ErrUnknownEvent
}

// ConfigForUser builds the client configuration for a user entering a
// meeting. The moderator flag is granted to the host only.
func (s *ConferenceService) ConfigForUser(meetingID, userID uint, displayName, email string) (*ConferenceConfig, error) {
	meeting, err := s.meetings.GetByID(meetingID)
	if err != nil {
		return nil, err
	}

	return &ConferenceConfig{
		RoomName:    meeting.RoomName,
		DisplayName: displayName,
		Email:       email,
		IsModerator: meeting.HostID == userID,
	}, nil
}
