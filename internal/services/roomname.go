package services

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/strataly/boardroom/backend/internal/models"
	"github.com/strataly/boardroom/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	// maxNamePart bounds the cleaned building-name segment of a room name.
	maxNamePart = 24
	// maxCollisionRetries bounds the counter-suffix loop before falling back
	// to a timestamp-based name.
	maxCollisionRetries = 100
)

// RoomNameGenerator allocates globally unique, human-debuggable room names
// for meetings. Uniqueness here is check-then-act; the unique index on
// meetings.room_name is the authoritative backstop.
type RoomNameGenerator struct {
	db *gorm.DB
}

func NewRoomNameGenerator(db *gorm.DB) *RoomNameGenerator {
	return &RoomNameGenerator{db: db}
}

// Generate returns a room name of the form agm-{building}-{agmID}, appending
// a counter suffix on collision. It never fails: a building lookup error
// degrades to a building-id based name, and retry exhaustion degrades to a
// timestamp-based name.
func (g *RoomNameGenerator) Generate(buildingID, agmID uint) string {
	base := fmt.Sprintf("agm-%s-%d", g.buildingSlug(buildingID), agmID)

	candidate := base
	for i := 2; i <= maxCollisionRetries+1; i++ {
		if !g.exists(candidate) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	// Exhausted the counter loop; a timestamp suffix guarantees termination.
	return fmt.Sprintf("agm-%d-%d", time.Now().UnixMilli(), agmID)
}

// buildingSlug derives the cleaned building-name segment. Lookup failure is
// non-fatal: meeting creation must not fail because the building's display
// name could not be resolved.
func (g *RoomNameGenerator) buildingSlug(buildingID uint) string {
	var building models.Building
	if err := g.db.First(&building, buildingID).Error; err != nil {
		logger.Warn().Err(err).Uint("building_id", buildingID).Msg("building lookup failed, using id-based room slug")
		return fmt.Sprintf("bldg%d", buildingID)
	}

	slug := cleanName(building.DisplayName)
	if slug == "" {
		return fmt.Sprintf("bldg%d", buildingID)
	}
	return slug
}

func (g *RoomNameGenerator) exists(roomName string) bool {
	var count int64
	if err := g.db.Model(&models.Meeting{}).Where("room_name = ?", roomName).Count(&count).Error; err != nil {
		// Treat a failed existence check as a collision so the caller keeps
		// probing rather than handing out a name the DB may reject.
		logger.Warn().Err(err).Str("room_name", roomName).Msg("room name existence check failed")
		return true
	}
	return count > 0
}

// cleanName lowercases the display name, strips everything that is not a
// letter or digit, and truncates to a bounded length.
func cleanName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
		if b.Len() >= maxNamePart {
			break
		}
	}
	return b.String()
}
