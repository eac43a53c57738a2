package main

import (
	"github.com/gin-gonic/gin"
	"github.com/strataly/boardroom/backend/internal/handlers"
	"github.com/strataly/boardroom/backend/internal/middleware"
	"github.com/strataly/boardroom/backend/internal/models"
	"github.com/strataly/boardroom/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for unauthenticated link and callback routes
	publicLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	db := models.GetDB()
	meetingHandler := handlers.NewMeetingHandler(db)
	linkHandler := handlers.NewLinkHandler(db, svc.linkService)
	participantHandler := handlers.NewParticipantHandler(db)
	conferenceHandler := handlers.NewConferenceHandler(db)
	activityLogHandler := handlers.NewActivityLogHandler(db)

	// API routes
	api := r.Group("/api")
	{
		// Public routes (token-bearing or client callbacks, rate limited)
		public := api.Group("", publicLimiter.Middleware())
		{
			public.GET("/links/:token", linkHandler.Resolve)
			public.POST("/links/:token/join", linkHandler.Join)
			public.POST("/callbacks/conference", conferenceHandler.HandleEvent)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Meetings
			protected.POST("/meetings", meetingHandler.Create)
			protected.GET("/meetings", meetingHandler.List)
			protected.GET("/meetings/by-agm", meetingHandler.GetByAgm)
			protected.GET("/meetings/:id", meetingHandler.GetByID)
			protected.PUT("/meetings/:id", meetingHandler.Update)

			// Lifecycle transitions
			protected.POST("/meetings/:id/start", meetingHandler.Start)
			protected.POST("/meetings/:id/end", meetingHandler.End)
			protected.POST("/meetings/:id/cancel", meetingHandler.Cancel)

			// Conferencing client config
			protected.GET("/meetings/:id/config", meetingHandler.GetConferenceConfig)

			// Access links
			protected.POST("/meetings/:id/links", linkHandler.Generate)
			protected.POST("/meetings/:id/homeowner-link", linkHandler.GenerateHomeowner)
			protected.DELETE("/meeting-links/:id", linkHandler.Deactivate)

			// Participants
			protected.POST("/meetings/:id/join", participantHandler.Join)
			protected.POST("/meetings/:id/leave", participantHandler.Leave)
			protected.GET("/meetings/:id/participants", participantHandler.List)

			// Activity logs
			protected.GET("/activity-logs", activityLogHandler.List)
		}
	}
}
