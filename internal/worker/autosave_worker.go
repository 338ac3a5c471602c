package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/config"
	"github.com/studyhall/studyhall-gateway/internal/session"
	"github.com/studyhall/studyhall-gateway/internal/upstream"
)

// AutosaveWorker consumes the autosave queue and mirrors recorded answers
// upstream as drafts, so a device switch mid-attempt does not lose work.
type AutosaveWorker struct {
	api   *upstream.Client
	state session.StateStore
	rdb   *redis.Client
	log   zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(api *upstream.Client, state session.StateStore, rdb *redis.Client, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		api:   api,
		state: state,
		rdb:   rdb,
		log:   log.With().Str("component", "autosave_worker").Logger(),
	}
}

type answerPayload struct {
	UserID     string `json:"user_id"`
	LessonID   string `json:"lesson_id"`
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AutosaveWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.AutosaveAnswersQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var payload answerPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.mirrorAnswer(ctx, &payload); err != nil {
		if errors.Is(err, session.ErrMissingSession) {
			// Attempt already submitted and cleared; the draft is moot.
			return
		}
		w.log.Error().Err(err).
			Str("user_id", payload.UserID).
			Str("lesson_id", payload.LessonID).
			Msg("Mirror error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.AutosaveAnswersQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

// mirrorAnswer resolves the attempt's stored credential and posts the draft.
func (w *AutosaveWorker) mirrorAnswer(ctx context.Context, p *answerPayload) error {
	rec, err := w.state.LoadAttempt(ctx, p.UserID, p.LessonID)
	if err != nil {
		return err
	}

	ctx = upstream.WithToken(ctx, rec.Token)
	return w.api.SaveDraftAnswer(ctx, p.LessonID, p.QuestionID, p.Answer)
}

// drain processes all remaining items in the queue before shutdown.
func (w *AutosaveWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.AutosaveAnswersQueue).Result()
		if err != nil {
			break
		}

		var payload answerPayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.mirrorAnswer(ctx, &payload); err != nil {
			if errors.Is(err, session.ErrMissingSession) {
				drained++
				continue
			}
			w.log.Error().Err(err).Msg("Drain mirror error")
			w.rdb.RPush(ctx, config.WorkerKey.AutosaveAnswersQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
