package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/studyhall/studyhall-gateway/internal/config"
	"github.com/studyhall/studyhall-gateway/internal/handler"
	"github.com/studyhall/studyhall-gateway/internal/middleware"
	"github.com/studyhall/studyhall-gateway/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Attempt   *handler.AttemptHandler
	Lesson    *handler.LessonHandler
	Survey    *handler.SurveyHandler
	Checkin   *handler.CheckinHandler
	Package   *handler.PackageHandler
	Flashcard *handler.FlashcardHandler
	Topic     *handler.TopicHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. API Group (Bearer Required) ────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireBearer())
	{
		// Attempt lifecycle
		attempts := api.Group("/attempts")
		{
			attempts.POST("", handlers.Attempt.StartAttempt)
			attempts.GET("/current", handlers.Attempt.GetCurrent)
			attempts.POST("/resume", handlers.Attempt.Resume)
			attempts.POST("/answers", handlers.Attempt.RecordAnswer)
			attempts.POST("/advance", handlers.Attempt.Advance)
			attempts.POST("/retreat", handlers.Attempt.Retreat)
			attempts.POST("/submit", handlers.Attempt.Submit)
			attempts.POST("/retry", handlers.Attempt.Retry)
			attempts.DELETE("", handlers.Attempt.Teardown)
		}

		// Lesson preview
		api.GET("/lessons/:lesson_id", handlers.Lesson.GetLesson)

		// Surveys
		api.GET("/surveys", handlers.Survey.ListSurveys)
		api.GET("/surveys/:survey_id", handlers.Survey.GetSurvey)
		api.POST("/surveys/:survey_id/responses", handlers.Survey.SubmitResponse)

		// Daily check-ins
		api.GET("/checkins", handlers.Checkin.ListCheckins)
		api.POST("/checkins", handlers.Checkin.MarkCheckin)

		// Package catalog
		api.GET("/packages", handlers.Package.ListPackages)
		api.GET("/packages/:package_id", handlers.Package.GetPackage)

		// Flashcards
		api.GET("/flashcards", handlers.Flashcard.ListFlashcards)
		api.POST("/flashcards", handlers.Flashcard.CreateFlashcard)
		api.PUT("/flashcards/:flashcard_id", handlers.Flashcard.UpdateFlashcard)
		api.DELETE("/flashcards/:flashcard_id", handlers.Flashcard.DeleteFlashcard)

		// Topics
		api.GET("/topics", handlers.Topic.ListTopics)
		api.GET("/topics/:topic_id", handlers.Topic.GetTopic)
	}

	// ─── 2. WebSocket Group (Bearer via ?token=) ───────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireBearer())
	{
		ws.GET("/attempts/stream", handlers.WS.AttemptStream)
	}

	return router
}
