package services

import (
	"errors"

	"github.com/strataly/boardroom/backend/internal/models"
	"gorm.io/gorm"
)

// MembershipService answers "is user U a member of building B" and "what
// role does U hold there". The meeting core only reads membership; the
// surrounding management application owns the rows.
type MembershipService struct {
	db *gorm.DB
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

// IsMember reports whether the user belongs to the building.
func (s *MembershipService) IsMember(userID, buildingID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.BuildingMember{}).
		Where("user_id = ? AND building_id = ?", userID, buildingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RoleInBuilding returns the user's role in the building, or "" when the
// user is not a member.
func (s *MembershipService) RoleInBuilding(userID, buildingID uint) (string, error) {
	var member models.BuildingMember
	err := s.db.Where("user_id = ? AND building_id = ?", userID, buildingID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

// CanManageMeeting reports whether the user may start, end, cancel or edit
// the meeting: the host always can, as can any director of the building.
func (s *MembershipService) CanManageMeeting(userID uint, meeting *models.Meeting) (bool, error) {
	if meeting.HostID == userID {
		return true, nil
	}
	role, err := s.RoleInBuilding(userID, meeting.BuildingID)
	if err != nil {
		return false, err
	}
	return role == models.RoleDirector, nil
}
