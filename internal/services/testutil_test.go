package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/strataly/boardroom/backend/internal/config"
	"github.com/strataly/boardroom/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens a throwaway sqlite database with the same configuration
// the server uses, including error translation so duplicate-key detection
// behaves as in production.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Building{},
		&models.BuildingMember{},
		&models.Meeting{},
		&models.MeetingParticipant{},
		&models.MeetingLink{},
		&models.ActivityLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func testLinksConfig() *config.LinksConfig {
	return &config.LinksConfig{
		BaseURL:              "http://localhost:8080",
		HomeownerExpireHours: 24,
	}
}

func createTestBuilding(t *testing.T, db *gorm.DB, name string) *models.Building {
	t.Helper()
	building := &models.Building{DisplayName: name, IsActive: true}
	if err := db.Create(building).Error; err != nil {
		t.Fatalf("failed to create building: %v", err)
	}
	return building
}

func addMember(t *testing.T, db *gorm.DB, buildingID, userID uint, role string) {
	t.Helper()
	member := &models.BuildingMember{BuildingID: buildingID, UserID: userID, Role: role}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create building member: %v", err)
	}
}

func createTestMeeting(t *testing.T, db *gorm.DB, buildingID uint) *models.Meeting {
	t.Helper()
	svc := NewMeetingService(db)
	start := time.Now().Add(time.Hour)
	meeting, err := svc.Create(&CreateMeetingRequest{
		AgmID:          1,
		BuildingID:     buildingID,
		Title:          "Annual General Meeting",
		ScheduledStart: &start,
	}, 1)
	if err != nil {
		t.Fatalf("failed to create meeting: %v", err)
	}
	return meeting
}
