package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/session"
)

const reaperInterval = 15 * time.Second

// ReaperWorker sweeps the deadline index and force-submits attempts whose
// time expired while no client was connected, so an abandoned attempt still
// reaches the upstream with whatever answers it had.
type ReaperWorker struct {
	manager *session.Manager
	state   session.StateStore
	log     zerolog.Logger
}

// NewReaperWorker creates a new ReaperWorker.
func NewReaperWorker(manager *session.Manager, state session.StateStore, log zerolog.Logger) *ReaperWorker {
	return &ReaperWorker{
		manager: manager,
		state:   state,
		log:     log.With().Str("component", "reaper_worker").Logger(),
	}
}

// Start begins the periodic sweep loop. Call in a goroutine.
func (w *ReaperWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	ticker := time.NewTicker(reaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ReaperWorker) sweep(ctx context.Context) {
	refs, err := w.state.ExpiredAttempts(ctx, time.Now())
	if err != nil {
		w.log.Error().Err(err).Msg("Deadline sweep failed")
		return
	}

	for _, ref := range refs {
		// A live controller's own countdown handles expiry.
		if w.manager.HasLive(ref) {
			continue
		}

		if err := w.manager.ForceSubmit(ctx, ref); err != nil {
			w.log.Error().Err(err).
				Str("user_id", ref.UserID).
				Str("lesson_id", ref.LessonID).
				Msg("Force submit failed")
		}
	}
}
