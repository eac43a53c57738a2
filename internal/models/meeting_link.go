package models

import "time"

// MeetingLink is a capability token granting entry to one meeting. The token
// is a bearer credential: possession plus passing validation grants entry,
// with no per-recipient binding.
type MeetingLink struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	MeetingID uint   `gorm:"index;not null" json:"meeting_id"`
	LinkToken string `gorm:"uniqueIndex;size:64;not null" json:"-"`
	// ExpiresAt nil means the link never expires; MaxUses nil means
	// unlimited resolutions.
	ExpiresAt   *time.Time `json:"expires_at"`
	MaxUses     *int       `json:"max_uses"`
	CurrentUses int        `gorm:"default:0" json:"current_uses"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	CreatedBy   uint       `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (MeetingLink) TableName() string { return "meeting_links" }

// IsExpired reports whether the link's expiry has passed at the given time.
func (l *MeetingLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// IsExhausted reports whether the link's usage quota is spent.
func (l *MeetingLink) IsExhausted() bool {
	return l.MaxUses != nil && l.CurrentUses >= *l.MaxUses
}
