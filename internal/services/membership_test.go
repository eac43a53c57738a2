package services

import (
	"testing"

	"github.com/strataly/boardroom/backend/internal/models"
)

func TestIsMember(t *testing.T) {
	db := setupTestDB(t)
	building := createTestBuilding(t, db, "Sunset Towers")
	addMember(t, db, building.ID, 7, models.RoleMember)

	svc := NewMembershipService(db)

	member, err := svc.IsMember(7, building.ID)
	if err != nil {
		t.Fatalf("IsMember() error = %v", err)
	}
	if !member {
		t.Error("user 7 should be a member")
	}

	member, err = svc.IsMember(8, building.ID)
	if err != nil {
		t.Fatalf("IsMember() error = %v", err)
	}
	if member {
		t.Error("user 8 should not be a member")
	}
}

func TestRoleInBuilding(t *testing.T) {
	db := setupTestDB(t)
	building := createTestBuilding(t, db, "Sunset Towers")
	addMember(t, db, building.ID, 7, models.RoleDirector)

	svc := NewMembershipService(db)

	role, err := svc.RoleInBuilding(7, building.ID)
	if err != nil {
		t.Fatalf("RoleInBuilding() error = %v", err)
	}
	if role != models.RoleDirector {
		t.Errorf("role = %q, expected %q", role, models.RoleDirector)
	}

	role, err = svc.RoleInBuilding(8, building.ID)
	if err != nil {
		t.Fatalf("RoleInBuilding() error = %v", err)
	}
	if role != "" {
		t.Errorf("role = %q, expected empty for non-member", role)
	}
}

func TestCanManageMeeting(t *testing.T) {
	db := setupTestDB(t)
	building := createTestBuilding(t, db, "Sunset Towers")
	meeting := createTestMeeting(t, db, building.ID)
	addMember(t, db, building.ID, 2, models.RoleDirector)
	addMember(t, db, building.ID, 3, models.RoleMember)

	svc := NewMembershipService(db)

	cases := []struct {
		name   string
		userID uint
		want   bool
	}{
		{"host", meeting.HostID, true},
		{"director", 2, true},
		{"plain member", 3, false},
		{"stranger", 4, false},
	}

	for _, tc := range cases {
		got, err := svc.CanManageMeeting(tc.userID, meeting)
		if err != nil {
			t.Fatalf("CanManageMeeting(%s) error = %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("CanManageMeeting(%s) = %v, expected %v", tc.name, got, tc.want)
		}
	}
}
