package services

import (
	"github.com/robfig/cron/v3"
	"github.com/strataly/boardroom/backend/internal/config"
	"github.com/strataly/boardroom/backend/pkg/logger"
	"gorm.io/gorm"
)

// HygieneScheduler periodically deactivates dead links and prunes old audit
// rows. Correctness never depends on it: link validity is checked lazily at
// every resolution. This only keeps the tables tidy.
type HygieneScheduler struct {
	cron         *cron.Cron
	links        *MeetingLinkService
	activityLogs *ActivityLogService
	retention    int
}

func NewHygieneScheduler(db *gorm.DB, cfg *config.Config) *HygieneScheduler {
	return &HygieneScheduler{
		cron:         cron.New(),
		links:        NewMeetingLinkService(db, &cfg.Links),
		activityLogs: NewActivityLogService(db),
		retention:    cfg.Logging.RetentionDays,
	}
}

// Start registers the jobs and begins the schedule: link sweep hourly,
// audit retention daily.
func (s *HygieneScheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.sweepLinks); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", func() {
		s.activityLogs.RunRetentionCleanup(s.retention)
	}); err != nil {
		return err
	}

	s.cron.Start()
	logger.Infof("[Hygiene] Scheduler started (link sweep hourly, log retention daily)")
	return nil
}

// Stop halts the schedule; a running job finishes.
func (s *HygieneScheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *HygieneScheduler) sweepLinks() {
	swept, err := s.links.SweepInvalid()
	if err != nil {
		logger.Errorf("[Hygiene] Link sweep failed: %v", err)
		return
	}
	if swept > 0 {
		logger.Infof("[Hygiene] Deactivated %d expired or exhausted links", swept)
	}
}
