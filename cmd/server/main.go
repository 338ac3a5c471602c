package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/config"
	"github.com/studyhall/studyhall-gateway/internal/database"
	"github.com/studyhall/studyhall-gateway/internal/handler"
	"github.com/studyhall/studyhall-gateway/internal/logger"
	"github.com/studyhall/studyhall-gateway/internal/router"
	"github.com/studyhall/studyhall-gateway/internal/session"
	"github.com/studyhall/studyhall-gateway/internal/store"
	"github.com/studyhall/studyhall-gateway/internal/upstream"
	"github.com/studyhall/studyhall-gateway/internal/validator"
	"github.com/studyhall/studyhall-gateway/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("timer_mode", cfg.TimerMode).
		Str("upstream", cfg.UpstreamBaseURL).
		Msg("Starting StudyHall Gateway")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Upstream Client ────────────────────────────────────
	refresher := upstream.NewRefreshClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout)
	api := upstream.New(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, log, upstream.WithRefresher(refresher))

	// ─── Initialize Session Layer ──────────────────────────────────────
	state := session.NewRedisStateStore(rdb, log)
	manager := session.NewManager(session.Config{
		Mode:                   session.Mode(cfg.TimerMode),
		DefaultQuestionSeconds: cfg.DefaultQuestionSeconds,
	}, api, state, log)

	// ─── Initialize Resource Stores ────────────────────────────────────
	stores := store.NewStores(api, rdb, log)
	stores.Rehydrate(ctx)

	// ─── Initialize Handlers ───────────────────────────────────────────
	handlers := &router.Handlers{
		Attempt:   handler.NewAttemptHandler(manager, log),
		Lesson:    handler.NewLessonHandler(stores.Lesson),
		Survey:    handler.NewSurveyHandler(stores.Survey),
		Checkin:   handler.NewCheckinHandler(stores.Checkin),
		Package:   handler.NewPackageHandler(stores.Package),
		Flashcard: handler.NewFlashcardHandler(stores.Flashcard),
		Topic:     handler.NewTopicHandler(stores.Topic),
		WS:        handler.NewWSHandler(manager, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ──────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	autosaveWorker := worker.NewAutosaveWorker(api, state, rdb, log)
	reaperWorker := worker.NewReaperWorker(manager, state, log)
	snapshotWorker := worker.NewSnapshotWorker(stores, log)

	go autosaveWorker.Start(workerCtx)
	go reaperWorker.Start(workerCtx)
	go snapshotWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
