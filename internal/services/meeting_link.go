package services

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/strataly/boardroom/backend/internal/config"
	"github.com/strataly/boardroom/backend/internal/models"
	"gorm.io/gorm"
)

// Closed set of denial reasons returned by ValidateAccess. The UI renders a
// different remediation for each, so these are part of the API contract.
const (
	DenyExpired   = "expired"
	DenyExhausted = "exhausted"
	DenyCancelled = "cancelled"
	DenyEnded     = "ended"
	DenyNotMember = "not-a-member"
	DenyNotFound  = "not-found"
)

// AccessDecision is the result of validating a link token. When Valid is
// false, Reason holds one of the Deny* constants.
type AccessDecision struct {
	Valid   bool                `json:"valid"`
	Reason  string              `json:"reason,omitempty"`
	Meeting *models.Meeting     `json:"meeting,omitempty"`
	Link    *models.MeetingLink `json:"link,omitempty"`
}

// MeetingLinkService issues and validates tokenized access URLs bound to a
// meeting. Expiry and usage are re-checked at every resolution, never only
// at creation: both are time-varying.
type MeetingLinkService struct {
	db         *gorm.DB
	membership *MembershipService
	cfg        *config.LinksConfig
}

func NewMeetingLinkService(db *gorm.DB, cfg *config.LinksConfig) *MeetingLinkService {
	return &MeetingLinkService{
		db:         db,
		membership: NewMembershipService(db),
		cfg:        cfg,
	}
}

func generateLinkToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// AccessURL derives the join URL for a link. The URL is derived, never
// independently trusted; the token is the sole credential.
func (s *MeetingLinkService) AccessURL(link *models.MeetingLink) string {
	return fmt.Sprintf("%s/join/%s", strings.TrimSuffix(s.cfg.BaseURL, "/"), link.LinkToken)
}

// Generate mints a new link for a meeting. Links for ended or cancelled
// meetings are refused: they could never validate.
func (s *MeetingLinkService) Generate(meetingID uint, expiresAt *time.Time, maxUses *int, createdBy uint) (*models.MeetingLink, error) {
	var meeting models.Meeting
	if err := s.db.First(&meeting, meetingID).Error; err != nil {
		return nil, err
	}
	if meeting.IsTerminal() {
		return nil, ErrMeetingFinalized
	}

	token, err := generateLinkToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate link token: %w", err)
	}

	link := models.MeetingLink{
		MeetingID: meetingID,
		LinkToken: token,
		ExpiresAt: expiresAt,
		MaxUses:   maxUses,
		IsActive:  true,
		CreatedBy: createdBy,
	}
	if err := s.db.Create(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// ResolveToken looks up the link-and-meeting pair for a token. Unknown and
// deactivated tokens are both gorm.ErrRecordNotFound: the caller learns
// nothing about whether the token ever existed.
func (s *MeetingLinkService) ResolveToken(token string) (*models.MeetingLink, *models.Meeting, error) {
	var link models.MeetingLink
	err := s.db.Where("link_token = ? AND is_active = ?", token, true).First(&link).Error
	if err != nil {
		return nil, nil, err
	}

	var meeting models.Meeting
	if err := s.db.First(&meeting, link.MeetingID).Error; err != nil {
		return nil, nil, err
	}
	return &link, &meeting, nil
}

// ValidateAccess composes token resolution with the business rules. Every
// failure path yields an explicit denial reason; there is no default-allow.
// A non-nil error means the record store or membership lookup failed, which
// is distinct from a denial.
func (s *MeetingLinkService) ValidateAccess(token string, userID *uint) (*AccessDecision, error) {
	link, meeting, err := s.ResolveToken(token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &AccessDecision{Valid: false, Reason: DenyNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	switch {
	case link.IsExpired(now):
		return &AccessDecision{Valid: false, Reason: DenyExpired, Link: link}, nil
	case link.IsExhausted():
		return &AccessDecision{Valid: false, Reason: DenyExhausted, Link: link}, nil
	case meeting.Status == models.MeetingStatusCancelled:
		return &AccessDecision{Valid: false, Reason: DenyCancelled, Link: link}, nil
	case meeting.Status == models.MeetingStatusEnded:
		return &AccessDecision{Valid: false, Reason: DenyEnded, Link: link}, nil
	}

	if userID != nil {
		member, err := s.membership.IsMember(*userID, meeting.BuildingID)
		if err != nil {
			return nil, err
		}
		if !member {
			return &AccessDecision{Valid: false, Reason: DenyNotMember, Link: link}, nil
		}
	}

	return &AccessDecision{Valid: true, Meeting: meeting, Link: link}, nil
}

// GetWithMeeting loads a link by ID together with its meeting.
func (s *MeetingLinkService) GetWithMeeting(linkID uint) (*models.MeetingLink, *models.Meeting, error) {
	var link models.MeetingLink
	if err := s.db.First(&link, linkID).Error; err != nil {
		return nil, nil, err
	}
	var meeting models.Meeting
	if err := s.db.First(&meeting, link.MeetingID).Error; err != nil {
		return nil, nil, err
	}
	return &link, &meeting, nil
}

// IncrementUsage records one successful resolution-to-join. Called exactly
// once per join-via-link, after validation succeeds and before the join row
// is inserted, so a partial failure cannot under-count.
func (s *MeetingLinkService) IncrementUsage(linkID uint) error {
	return s.db.Model(&models.MeetingLink{}).
		Where("id = ?", linkID).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1")).Error
}

// GenerateHomeownerLink reuses an existing still-valid link for the meeting
// when one exists, avoiding link proliferation; otherwise it mints one
// expiring a fixed period after the meeting's scheduled start.
func (s *MeetingLinkService) GenerateHomeownerLink(meetingID, createdBy uint) (*models.MeetingLink, error) {
	var meeting models.Meeting
	if err := s.db.First(&meeting, meetingID).Error; err != nil {
		return nil, err
	}
	if meeting.IsTerminal() {
		return nil, ErrMeetingFinalized
	}

	now := time.Now()
	var links []models.MeetingLink
	err := s.db.Where("meeting_id = ? AND is_active = ?", meetingID, true).
		Order("created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	for i := range links {
		if !links[i].IsExpired(now) && !links[i].IsExhausted() {
			return &links[i], nil
		}
	}

	ttl := time.Duration(s.cfg.HomeownerExpireHours) * time.Hour
	anchor := now
	if meeting.ScheduledStart != nil {
		anchor = *meeting.ScheduledStart
	}
	expiresAt := anchor.Add(ttl)

	return s.Generate(meetingID, &expiresAt, nil, createdBy)
}

// Deactivate revokes a link. Irreversible: there is no reactivate, a new
// link must be minted.
func (s *MeetingLinkService) Deactivate(linkID uint) error {
	result := s.db.Model(&models.MeetingLink{}).
		Where("id = ?", linkID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SweepInvalid deactivates links that have expired or spent their quota.
// Validation is lazy and does not depend on this; the sweep is storage
// hygiene only. Returns the number of deactivated links.
func (s *MeetingLinkService) SweepInvalid() (int64, error) {
	result := s.db.Model(&models.MeetingLink{}).
		Where("is_active = ?", true).
		Where(
			s.db.Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now()).
				Or("max_uses IS NOT NULL AND current_uses >= max_uses"),
		).
		Update("is_active", false)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
