package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/strataly/boardroom/backend/internal/models"
	"github.com/strataly/boardroom/backend/internal/services"
	"gorm.io/gorm"
)

func joinUser(t *testing.T, db *gorm.DB, meetingID, userID uint) *models.MeetingParticipant {
	t.Helper()
	participant, err := services.NewParticipantService(db).Join(meetingID, &services.JoinRequest{
		DisplayName: "Resident",
	}, &userID)
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	return participant
}

func openRowCount(t *testing.T, db *gorm.DB, meetingID, userID uint) int64 {
	t.Helper()
	var count int64
	err := db.Model(&models.MeetingParticipant{}).
		Where("meeting_id = ? AND user_id = ? AND left_at IS NULL", meetingID, userID).
		Count(&count).Error
	if err != nil {
		t.Fatalf("failed to count open rows: %v", err)
	}
	return count
}

func TestLeave_BodyUserIDRequiresManageRights(t *testing.T) {
	db := setupHandlerDB(t)
	meeting := seedMeeting(t, db, 1)
	joinUser(t, db, meeting.ID, 5)

	handler := NewParticipantHandler(db)
	c, w := postJSON(t, meetingParam(meeting.ID), gin.H{"user_id": 5}, 9)
	handler.Leave(c)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, expected %d", w.Code, http.StatusForbidden)
	}
	if n := openRowCount(t, db, meeting.ID, 5); n != 1 {
		t.Errorf("open rows for user 5 = %d, expected 1 (row must survive a forbidden leave)", n)
	}
}

func TestLeave_HostClosesOtherUser(t *testing.T) {
	db := setupHandlerDB(t)
	meeting := seedMeeting(t, db, 1)
	joinUser(t, db, meeting.ID, 5)

	handler := NewParticipantHandler(db)
	c, w := postJSON(t, meetingParam(meeting.ID), gin.H{"user_id": 5}, meeting.HostID)
	handler.Leave(c)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, expected %d", w.Code, http.StatusOK)
	}
	if n := openRowCount(t, db, meeting.ID, 5); n != 0 {
		t.Errorf("open rows for user 5 = %d, expected 0", n)
	}
}

func TestLeave_DirectorClosesOtherUser(t *testing.T) {
	db := setupHandlerDB(t)
	meeting := seedMeeting(t, db, 1)
	joinUser(t, db, meeting.ID, 5)

	member := &models.BuildingMember{BuildingID: meeting.BuildingID, UserID: 9, Role: models.RoleDirector}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create building member: %v", err)
	}

	handler := NewParticipantHandler(db)
	c, w := postJSON(t, meetingParam(meeting.ID), gin.H{"user_id": 5}, 9)
	handler.Leave(c)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, expected %d", w.Code, http.StatusOK)
	}
	if n := openRowCount(t, db, meeting.ID, 5); n != 0 {
		t.Errorf("open rows for user 5 = %d, expected 0", n)
	}
}

func TestLeave_BodyUserIDMatchingCaller(t *testing.T) {
	db := setupHandlerDB(t)
	meeting := seedMeeting(t, db, 1)
	joinUser(t, db, meeting.ID, 5)

	handler := NewParticipantHandler(db)
	c, w := postJSON(t, meetingParam(meeting.ID), gin.H{"user_id": 5}, 5)
	handler.Leave(c)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, expected %d", w.Code, http.StatusOK)
	}
	if n := openRowCount(t, db, meeting.ID, 5); n != 0 {
		t.Errorf("open rows for user 5 = %d, expected 0", n)
	}
}

func TestLeave_EmptyBodyClosesCallerRow(t *testing.T) {
	db := setupHandlerDB(t)
	meeting := seedMeeting(t, db, 1)
	joinUser(t, db, meeting.ID, 5)

	handler := NewParticipantHandler(db)
	c, w := postJSON(t, meetingParam(meeting.ID), nil, 5)
	handler.Leave(c)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, expected %d", w.Code, http.StatusOK)
	}
	if n := openRowCount(t, db, meeting.ID, 5); n != 0 {
		t.Errorf("open rows for user 5 = %d, expected 0", n)
	}
}
