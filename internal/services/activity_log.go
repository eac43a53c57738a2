package services

import (
	"encoding/json"
	"time"

	"github.com/strataly/boardroom/backend/internal/models"
	"github.com/strataly/boardroom/backend/pkg/logger"
	"gorm.io/gorm"
)

var activityDB *gorm.DB

// InitActivityLogger wires the DB-backed audit log. Writes are best-effort:
// the audit row is dropped, not the operation, when the store is down.
func InitActivityLogger(db *gorm.DB) {
	activityDB = db
}

func LogInfo(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeActivity("info", module, action, message, userID, ip, userAgent, extra)
}

func LogWarning(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeActivity("warning", module, action, message, userID, ip, userAgent, extra)
}

func LogError(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeActivity("error", module, action, message, userID, ip, userAgent, extra)
}

func writeActivity(level, module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	if activityDB == nil {
		return
	}

	var extraStr string
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			extraStr = string(b)
		}
	}

	entry := &models.ActivityLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
		Extra:     extraStr,
		CreatedAt: time.Now(),
	}
	activityDB.Create(entry)
}

type ActivityLogService struct {
	db *gorm.DB
}

func NewActivityLogService(db *gorm.DB) *ActivityLogService {
	return &ActivityLogService{db: db}
}

type ActivityLogListRequest struct {
	Page      int    `form:"page" binding:"min=1"`
	PageSize  int    `form:"page_size" binding:"min=1,max=100"`
	Level     string `form:"level"`
	Module    string `form:"module"`
	Action    string `form:"action"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Search    string `form:"search"`
}

type ActivityLogListResponse struct {
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Items    []models.ActivityLog `json:"items"`
}

func (s *ActivityLogService) List(req *ActivityLogListRequest) (*ActivityLogListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var logs []models.ActivityLog
	var total int64

	query := s.db.Model(&models.ActivityLog{})

	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action LIKE ?", "%"+req.Action+"%")
	}
	if req.StartDate != "" {
		query = query.Where("created_at >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("created_at <= ?", req.EndDate+" 23:59:59")
	}
	if req.Search != "" {
		query = query.Where("message LIKE ?", "%"+req.Search+"%")
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &ActivityLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

// CleanupOldLogs deletes audit rows older than the retention window.
// Returns the number of deleted records.
func (s *ActivityLogService) CleanupOldLogs(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoffTime).Delete(&models.ActivityLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// RunRetentionCleanup is invoked by the hygiene scheduler.
func (s *ActivityLogService) RunRetentionCleanup(retentionDays int) {
	deleted, err := s.CleanupOldLogs(retentionDays)
	if err != nil {
		logger.Errorf("[ActivityLog] Failed to cleanup old logs: %v", err)
		return
	}
	if deleted > 0 {
		logger.Infof("[ActivityLog] Cleaned up %d logs older than %d days", deleted, retentionDays)
	}
}
