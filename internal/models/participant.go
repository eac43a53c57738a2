package models

import "time"

// Participant roles within a meeting.
const (
	ParticipantRoleHost        = "host"
	ParticipantRoleModerator   = "moderator"
	ParticipantRoleParticipant = "participant"
)

// MeetingParticipant is one row per join attempt, not per user: a rejoin
// closes the prior open row and inserts a new one. Rows are never deleted;
// they are the attendance audit trail.
type MeetingParticipant struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	MeetingID uint `gorm:"index;not null" json:"meeting_id"`
	// UserID is nil for anonymous link-only joiners.
	UserID *uint `gorm:"index" json:"user_id"`
	// SessionID identifies this join attempt to the conferencing client; its
	// leave callback echoes it so the matching open row can be closed even
	// for anonymous participants.
	SessionID   string     `gorm:"size:36;index;not null" json:"session_id"`
	DisplayName string     `gorm:"size:200;not null" json:"display_name"`
	Email       string     `gorm:"size:255" json:"email"`
	Role        string     `gorm:"size:20;default:participant" json:"role"`
	JoinedAt    time.Time  `gorm:"index;not null" json:"joined_at"`
	LeftAt      *time.Time `json:"left_at"` // nil means currently active
	IsAnonymous bool       `gorm:"default:false" json:"is_anonymous"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (MeetingParticipant) TableName() string { return "meeting_participants" }

// IsOpen reports whether the participant is still counted as present.
func (p *MeetingParticipant) IsOpen() bool {
	return p.LeftAt == nil
}
