package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/strataly/boardroom/backend/internal/middleware"
	"github.com/strataly/boardroom/backend/internal/models"
	"github.com/strataly/boardroom/backend/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupHandlerDB(t *testing.T) *gorm.DB {
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

func seedMeeting(t *testing.T, db *gorm.DB, hostID uint) *models.Meeting {
	t.Helper()

	building := &models.Building{DisplayName: "Sunset Towers", IsActive: true}
	if err := db.Create(building).Error; err != nil {
		t.Fatalf("failed to create building: %v", err)
	}

	start := time.Now().Add(time.Hour)
	meeting, err := services.NewMeetingService(db).Create(&services.CreateMeetingRequest{
		AgmID:          1,
		BuildingID:     building.ID,
		Title:          "Annual General Meeting",
		ScheduledStart: &start,
	}, hostID)
	if err != nil {
		t.Fatalf("failed to create meeting: %v", err)
	}
	return meeting
}

// postJSON builds a test context for a POST carrying a JSON body. A non-zero
// userID plants an authenticated caller the way the auth middleware would.
func postJSON(t *testing.T, params gin.Params, body interface{}, userID uint) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest("POST", "/test", &buf)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params

	if userID != 0 {
		c.Set(middleware.ContextUserID, userID)
	}
	return c, w
}

func meetingParam(id uint) gin.Params {
	return gin.Params{{Key: "id", Value: strconv.FormatUint(uint64(id), 10)}}
}
