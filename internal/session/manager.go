package session

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/model"
	"github.com/studyhall/studyhall-gateway/internal/upstream"
)

// Manager keys live attempt controllers by user. Loading an attempt for a
// different lesson discards the user's prior in-progress attempt without
// submitting it.
//
// mu guards the maps and the shuffle source. locks serializes the whole
// replace sequence (check, fetch, teardown, install) per user, so two
// concurrent loads cannot both install controllers and leave an orphaned
// countdown running against overwritten state.
type Manager struct {
	cfg   Config
	api   *upstream.Client
	state StateStore
	log   zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Controller
	locks    map[string]*sync.Mutex
	rng      *rand.Rand
}

// NewManager creates a Manager. cfg.Seed fixes the shuffle source for
// deterministic behavior; zero seeds from the clock.
func NewManager(cfg Config, api *upstream.Client, state StateStore, log zerolog.Logger) *Manager {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Manager{
		cfg:      cfg,
		api:      api,
		state:    state,
		log:      log.With().Str("component", "session_manager").Logger(),
		sessions: make(map[string]*Controller),
		locks:    make(map[string]*sync.Mutex),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// userLock returns the mutex serializing attempt replacement for one user.
func (m *Manager) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	return lock
}

// LoadAttempt fetches the lesson's question set and starts a fresh attempt.
// Re-loading the same lesson while it is in progress is idempotent and
// returns the existing view, so a page reload never resets the clock.
func (m *Manager) LoadAttempt(ctx context.Context, userID, token, lessonID string) (AttemptView, error) {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	prev := m.sessions[userID]
	m.mu.Unlock()

	if prev != nil && prev.LessonID() == lessonID && !prev.Terminal() {
		return prev.View(), nil
	}

	lesson, err := m.api.GetLesson(upstream.WithToken(ctx, token), lessonID)
	if err != nil {
		return AttemptView{}, err
	}

	if prev != nil && !prev.Terminal() {
		m.log.Info().
			Str("user_id", userID).
			Str("discarded_lesson", prev.LessonID()).
			Msg("Discarding in-progress attempt for a different lesson")
		prev.Teardown(ctx)
	}

	m.mu.Lock()
	ctrl := NewController(m.cfg, m.api, m.state, m.log, userID, lesson, token, false, m.rng)
	m.sessions[userID] = ctrl
	m.mu.Unlock()

	if err := ctrl.Start(ctx); err != nil {
		return AttemptView{}, err
	}
	return ctrl.View(), nil
}

// Current returns the user's live controller.
func (m *Manager) Current(userID string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctrl, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoActiveAttempt
	}
	return ctrl, nil
}

// Teardown discards the user's attempt (explicit session exit).
func (m *Manager) Teardown(ctx context.Context, userID string) error {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	ctrl, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if !ok {
		return ErrNoActiveAttempt
	}
	ctrl.Teardown(ctx)
	return nil
}

// Retry resets the attempt state upstream and starts a fresh attempt for the
// same lesson, flagged as retried.
func (m *Manager) Retry(ctx context.Context, userID, token, lessonID string) (AttemptView, error) {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := m.api.RetryLesson(upstream.WithToken(ctx, token), lessonID); err != nil {
		return AttemptView{}, err
	}

	m.mu.Lock()
	if prev, ok := m.sessions[userID]; ok {
		delete(m.sessions, userID)
		m.mu.Unlock()
		if !prev.Terminal() {
			prev.Teardown(ctx)
		}
	} else {
		m.mu.Unlock()
	}

	lesson, err := m.api.GetLesson(upstream.WithToken(ctx, token), lessonID)
	if err != nil {
		return AttemptView{}, err
	}

	m.mu.Lock()
	ctrl := NewController(m.cfg, m.api, m.state, m.log, userID, lesson, token, true, m.rng)
	m.sessions[userID] = ctrl
	m.mu.Unlock()

	if err := ctrl.Start(ctx); err != nil {
		return AttemptView{}, err
	}
	return ctrl.View(), nil
}

// Resume rebuilds a controller from persisted state after a reconnect or a
// gateway restart. The stored question order is re-applied so the client sees
// the same sequence; recorded answers and the original deadline survive. An
// already-expired attempt is force-submitted instead.
func (m *Manager) Resume(ctx context.Context, userID, token string) (*Controller, error) {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if ctrl, err := m.Current(userID); err == nil && !ctrl.Terminal() {
		return ctrl, nil
	}

	lessonID, err := m.state.ActiveLesson(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lessonID == "" {
		return nil, ErrNoActiveAttempt
	}

	rec, err := m.state.LoadAttempt(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}

	remaining := int(time.Until(rec.Deadline).Seconds())
	if remaining <= 0 {
		if err := m.forceSubmit(ctx, AttemptRef{UserID: userID, LessonID: lessonID}); err != nil {
			return nil, err
		}
		return nil, ErrAttemptCompleted
	}

	lesson, err := m.api.GetLesson(upstream.WithToken(ctx, token), lessonID)
	if err != nil {
		return nil, err
	}

	answers, err := m.state.LoadAnswers(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	ctrl := NewController(m.cfg, m.api, m.state, m.log, userID, lesson, token, rec.IsRetried, m.rng)
	ctrl.restore(rec, answers, remaining)
	m.sessions[userID] = ctrl
	m.mu.Unlock()

	m.log.Info().
		Str("user_id", userID).
		Str("lesson_id", lessonID).
		Int("remaining", remaining).
		Msg("Attempt resumed from persisted state")
	return ctrl, nil
}

// ForceSubmit grades an abandoned attempt from persisted state alone (no
// lesson refetch) and posts it upstream with the stored credential. Used by
// the reaper for attempts whose deadline passed with no live controller.
func (m *Manager) ForceSubmit(ctx context.Context, ref AttemptRef) error {
	lock := m.userLock(ref.UserID)
	lock.Lock()
	defer lock.Unlock()
	return m.forceSubmit(ctx, ref)
}

// forceSubmit is ForceSubmit without the per-user lock, for callers that
// already hold it. A reap racing a resume of the same attempt stays
// single-submission this way: the loser finds the state already cleared.
func (m *Manager) forceSubmit(ctx context.Context, ref AttemptRef) error {
	rec, err := m.state.LoadAttempt(ctx, ref.UserID, ref.LessonID)
	if err != nil {
		return err
	}

	answers, err := m.state.LoadAnswers(ctx, ref.UserID, ref.LessonID)
	if err != nil {
		return err
	}

	results := make([]model.QuestionResult, 0, len(rec.Order))
	correctCount := 0
	for _, qid := range rec.Order {
		r := model.QuestionResult{QuestionID: qid, Answer: answers[qid]}
		if r.Answer == "" {
			r.IsTimeout = true
		}
		if entry, ok := rec.AnswerKey[qid]; ok && r.Answer != "" && r.Answer == entry.Correct {
			r.IsCorrect = true
			r.Score = entry.Points
			correctCount++
		}
		results = append(results, r)
	}

	provisional := 0
	if len(results) > 0 {
		provisional = int(math.Round(100 * float64(correctCount) / float64(len(results))))
	}

	req := model.ProgressRequest{
		LessonID:        ref.LessonID,
		Score:           provisional,
		QuestionResults: results,
		IsRetried:       rec.IsRetried,
	}
	if _, err := m.api.SubmitProgress(upstream.WithToken(ctx, rec.Token), req); err != nil {
		return err
	}

	if err := m.state.Clear(ctx, ref.UserID, ref.LessonID); err != nil {
		m.log.Warn().Err(err).Msg("Failed to clear reaped attempt state")
	}

	m.log.Info().
		Str("user_id", ref.UserID).
		Str("lesson_id", ref.LessonID).
		Int("provisional", provisional).
		Msg("Abandoned attempt force-submitted")
	return nil
}

// HasLive reports whether a live, in-progress controller exists for the ref.
// The reaper skips those: their own countdown handles expiry.
func (m *Manager) HasLive(ref AttemptRef) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctrl, ok := m.sessions[ref.UserID]
	return ok && ctrl.LessonID() == ref.LessonID && !ctrl.Terminal()
}
