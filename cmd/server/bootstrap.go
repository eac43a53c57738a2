package main

import (
	"context"

	"github.com/strataly/boardroom/backend/internal/config"
	"github.com/strataly/boardroom/backend/internal/models"
	"github.com/strataly/boardroom/backend/internal/services"
	"github.com/strataly/boardroom/backend/internal/utils"
	"github.com/strataly/boardroom/backend/pkg/logger"
)

// appServices holds all initialized services needed by the application.
type appServices struct {
	linkService   *services.MeetingLinkService
	participants  *services.ParticipantService
	presenceQueue services.PresenceQueue
	worker        *services.PresenceWorker
	hygiene       *services.HygieneScheduler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize activity logger
	services.InitActivityLogger(models.GetDB())

	linkService := services.NewMeetingLinkService(models.GetDB(), &cfg.Links)
	participants := services.NewParticipantService(models.GetDB())

	recount := func(ctx context.Context, task *services.PresenceTask) error {
		return participants.RecomputeCount(task.MeetingID)
	}

	// Initialize presence queue (uses Redis if enabled, otherwise sync mode)
	presenceQueue := services.InitPresenceQueue(cfg)
	if syncQueue, ok := presenceQueue.(*services.SyncPresenceQueue); ok {
		syncQueue.SetProcessor(recount)
	}

	// Start async worker if Redis is enabled
	var worker *services.PresenceWorker
	if cfg.Redis.Enabled {
		worker = services.NewPresenceWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(recount)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start presence worker")
			}
		}
	}

	// Start hygiene scheduler (link sweep, audit retention)
	hygiene := services.NewHygieneScheduler(models.GetDB(), cfg)
	if err := hygiene.Start(); err != nil {
		logger.Warn().Err(err).Msg("Failed to start hygiene scheduler")
	}

	return &appServices{
		linkService:   linkService,
		participants:  participants,
		presenceQueue: presenceQueue,
		worker:        worker,
		hygiene:       hygiene,
	}
}

// shutdown gracefully stops all background services.
func (s *appServices) shutdown() {
	s.hygiene.Stop()
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.presenceQueue != nil {
		s.presenceQueue.Close()
	}
	logger.Info().Msg("All background services stopped")
}
