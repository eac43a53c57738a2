package models

import (
	"time"

	"gorm.io/gorm"
)

// Building represents a managed property. Only the fields the meeting
// subsystem needs are modeled here; the rest of the building record lives in
// the management application.
type Building struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	DisplayName string         `gorm:"size:200;not null" json:"display_name"`
	Address     string         `gorm:"size:500" json:"address"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BuildingMember ties a user to a building with a role. The meeting core
// consults it for authorization only and never mutates it.
type BuildingMember struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BuildingID uint      `gorm:"not null;uniqueIndex:idx_building_user" json:"building_id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_building_user" json:"user_id"`
	Role       string    `gorm:"size:20;default:member" json:"role"` // director, member
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const (
	RoleDirector = "director"
	RoleMember   = "member"
)

func (Building) TableName() string       { return "buildings" }
func (BuildingMember) TableName() string { return "building_members" }
