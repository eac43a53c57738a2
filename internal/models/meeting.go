package models

import (
	"time"

	"gorm.io/gorm"
)

// Meeting statuses. Ended and cancelled are terminal; no transition leaves
// them.
const (
	MeetingStatusScheduled = "scheduled"
	MeetingStatusActive    = "active"
	MeetingStatusEnded     = "ended"
	MeetingStatusCancelled = "cancelled"
)

// Meeting represents one video session tied to an AGM occurrence.
type Meeting struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	AgmID       uint   `gorm:"index;not null" json:"agm_id"`
	BuildingID  uint   `gorm:"index;not null" json:"building_id"`
	Title       string `gorm:"size:300" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	// RoomName is immutable once allocated; the unique index is the backstop
	// against two concurrent creations racing the generator.
	RoomName         string     `gorm:"uniqueIndex;size:120;not null" json:"room_name"`
	HostID           uint       `gorm:"index;not null" json:"host_id"`
	Status           string     `gorm:"size:20;default:scheduled;index" json:"status"`
	ScheduledStart   *time.Time `json:"scheduled_start"`
	ActualStartTime  *time.Time `json:"actual_start_time"`
	ActualEndTime    *time.Time `json:"actual_end_time"`
	// ParticipantsCount is a cache recomputed from participant rows; it is
	// never the source of truth.
	ParticipantsCount int            `gorm:"default:0" json:"participants_count"`
	MaxParticipants   int            `gorm:"default:100" json:"max_participants"`
	RecordingEnabled  bool           `gorm:"default:false" json:"recording_enabled"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Meeting) TableName() string { return "meetings" }

// IsTerminal reports whether the meeting has reached a state no transition
// leaves.
func (m *Meeting) IsTerminal() bool {
	return m.Status == MeetingStatusEnded || m.Status == MeetingStatusCancelled
}
