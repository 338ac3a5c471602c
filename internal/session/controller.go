package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/model"
	"github.com/studyhall/studyhall-gateway/internal/shuffle"
	"github.com/studyhall/studyhall-gateway/internal/upstream"
)

// Mode selects the countdown behavior of an attempt.
type Mode string

const (
	// ModeWholeTest runs a single countdown over the entire lesson; zero
	// auto-submits.
	ModeWholeTest Mode = "whole_test"
	// ModePerQuestion restarts the countdown per question; zero records a
	// timed-out empty answer and force-advances.
	ModePerQuestion Mode = "per_question"
)

// Config carries session tuning shared by all attempts.
type Config struct {
	Mode                   Mode
	DefaultQuestionSeconds int
	// TickInterval overrides the one-second countdown resolution (tests).
	TickInterval time.Duration
	// Seed fixes the shuffle source; 0 means time-seeded.
	Seed int64
}

// EventType enumerates events pushed to a streaming client.
type EventType string

const (
	EventTick          EventType = "tick"
	EventForcedAdvance EventType = "forced_advance"
	EventSubmitted     EventType = "submitted"
)

// Event is one attempt lifecycle notification.
type Event struct {
	Type      EventType               `json:"type"`
	Remaining int                     `json:"remaining"`
	Cursor    int                     `json:"cursor"`
	Result    *model.SubmissionResult `json:"result,omitempty"`
}

// AttemptView is the client-facing snapshot of an attempt. Questions are in
// shuffled order with correct references stripped.
type AttemptView struct {
	LessonID      string                  `json:"lesson_id"`
	Title         string                  `json:"title"`
	Questions     []model.StudentQuestion `json:"questions"`
	Cursor        int                     `json:"cursor"`
	RemainingSecs int                     `json:"remaining_seconds"`
	Mode          Mode                    `json:"mode"`
	Answers       map[string]string       `json:"answers"`
	Status        model.AttemptStatus     `json:"status"`
	Result        *model.SubmissionResult `json:"result,omitempty"`
}

// Controller owns the lifecycle of a single timed attempt: shuffled question
// set, countdown, answer-set and the submission handshake. All state is
// private to the controller and guarded by its mutex; the countdown goroutine
// and HTTP handlers are the only writers.
type Controller struct {
	cfg   Config
	api   *upstream.Client
	state StateStore
	log   zerolog.Logger

	mu         sync.Mutex
	userID     string
	lesson     model.Lesson
	answers    map[string]*model.Answer
	cursor     int
	timer      *Countdown
	status     model.AttemptStatus
	submitting bool
	startedAt  time.Time
	deadline   time.Time
	token      string
	isRetried  bool
	result     *model.SubmissionResult
	notify     func(Event)
}

// NewController builds a controller around a freshly fetched lesson, applying
// two independent uniform shuffles: question order, and option order within
// each choice question. The correct reference moves with its text, so the
// shuffled payload stays answerable.
func NewController(
	cfg Config,
	api *upstream.Client,
	state StateStore,
	log zerolog.Logger,
	userID string,
	lesson *model.Lesson,
	token string,
	isRetried bool,
	src shuffle.Source,
) *Controller {
	shuffled := model.Lesson{
		ID:            lesson.ID,
		Title:         lesson.Title,
		MaxScore:      lesson.MaxScore,
		PassThreshold: lesson.PassThreshold,
		TimeLimitSecs: lesson.TimeLimitSecs,
		Questions:     shuffle.Copy(src, lesson.Questions),
	}
	for i := range shuffled.Questions {
		if shuffled.Questions[i].Type == model.QuestionTypeChoice {
			shuffled.Questions[i].Options = shuffle.Copy(src, shuffled.Questions[i].Options)
		}
	}

	return &Controller{
		cfg:       cfg,
		api:       api,
		state:     state,
		log:       log.With().Str("component", "attempt").Str("user_id", userID).Str("lesson_id", lesson.ID).Logger(),
		userID:    userID,
		lesson:    shuffled,
		answers:   make(map[string]*model.Answer, len(shuffled.Questions)),
		status:    model.AttemptStatusInProgress,
		token:     token,
		isRetried: isRetried,
	}
}

// Start persists the attempt record and begins the countdown. An attempt with
// zero questions is treated as immediately complete with the 0% sentinel
// score and is submitted right away.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	c.startedAt = time.Now()
	c.deadline = c.startedAt.Add(time.Duration(c.totalAllowanceLocked()) * time.Second)

	rec := AttemptRecord{
		UserID:    c.userID,
		LessonID:  c.lesson.ID,
		Title:     c.lesson.Title,
		StartedAt: c.startedAt,
		Deadline:  c.deadline,
		Order:     c.orderLocked(),
		AnswerKey: c.answerKeyLocked(),
		Token:     c.token,
		IsRetried: c.isRetried,
	}

	if len(c.lesson.Questions) == 0 {
		c.mu.Unlock()
		_, err := c.Submit(ctx)
		return err
	}

	c.startTimerLocked(c.initialAllowanceLocked())
	c.mu.Unlock()

	if err := c.state.SaveAttempt(ctx, rec); err != nil {
		// Rehydration degrades but the live attempt still works.
		c.log.Warn().Err(err).Msg("Failed to persist attempt state")
	}
	return nil
}

// SetNotifier installs the event sink used by the WebSocket stream. Passing
// nil detaches it.
func (c *Controller) SetNotifier(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = fn
}

// LessonID returns the attempt's lesson.
func (c *Controller) LessonID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lesson.ID
}

// Terminal reports whether the attempt has been submitted or discarded.
func (c *Controller) Terminal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == model.AttemptStatusCompleted
}

// View returns the client-facing snapshot.
func (c *Controller) View() AttemptView {
	c.mu.Lock()
	defer c.mu.Unlock()

	questions := make([]model.StudentQuestion, len(c.lesson.Questions))
	for i, q := range c.lesson.Questions {
		questions[i] = q.ForStudent()
	}

	answers := make(map[string]string, len(c.answers))
	for qid, ans := range c.answers {
		answers[qid] = ans.Value
	}

	return AttemptView{
		LessonID:      c.lesson.ID,
		Title:         c.lesson.Title,
		Questions:     questions,
		Cursor:        c.cursor,
		RemainingSecs: c.remainingLocked(),
		Mode:          c.cfg.Mode,
		Answers:       answers,
		Status:        c.status,
		Result:        c.result,
	}
}

// RecordAnswer stores or overwrites the response for a question. Choice
// answers must be one of the offered options; no correctness check happens
// here. Rejected once the attempt is terminal.
func (c *Controller) RecordAnswer(ctx context.Context, questionID, value string) error {
	c.mu.Lock()
	if c.status == model.AttemptStatusCompleted {
		c.mu.Unlock()
		return ErrAttemptCompleted
	}

	q := c.questionLocked(questionID)
	if q == nil {
		c.mu.Unlock()
		return ErrUnknownQuestion
	}

	if q.Type == model.QuestionTypeChoice && value != "" && !containsOption(q.Options, value) {
		c.mu.Unlock()
		return ErrInvalidChoice
	}

	c.answers[questionID] = &model.Answer{
		QuestionID: questionID,
		Value:      value,
		AnsweredAt: time.Now(),
	}
	c.mu.Unlock()

	if err := c.state.SaveAnswer(ctx, c.userID, c.lesson.ID, questionID, value); err != nil {
		c.log.Warn().Err(err).Str("question_id", questionID).Msg("Answer autosave failed")
	}
	return nil
}

// Advance moves the cursor forward, bounded to the last question. Past the
// boundary it is a no-op.
func (c *Controller) Advance() int {
	return c.move(1)
}

// Retreat moves the cursor backward, bounded to the first question.
func (c *Controller) Retreat() int {
	return c.move(-1)
}

func (c *Controller) move(delta int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.cursor + delta
	if next < 0 || next > len(c.lesson.Questions)-1 || c.status == model.AttemptStatusCompleted {
		return c.cursor
	}
	c.cursor = next
	if c.cfg.Mode == ModePerQuestion {
		c.startTimerLocked(c.allowanceLocked(c.lesson.Questions[c.cursor]))
	}
	return c.cursor
}

// Remaining returns the seconds left on the active countdown.
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remainingLocked()
}

// Submit assembles the final answer-set, computes the local provisional score
// and posts it upstream. The server's figures are authoritative and replace
// the provisional ones in the returned result. On upstream failure the
// answer-set is preserved so a user-initiated retry loses no work; there is
// no automatic retry.
//
// The mutex is released around the upstream POST, so the submitting flag
// keeps the boundary exactly-once: a second caller racing the first (user
// submit vs. countdown expiry) is rejected instead of posting a duplicate.
// The flag is cleared on failure so a retry still goes through.
func (c *Controller) Submit(ctx context.Context) (*model.SubmissionResult, error) {
	c.mu.Lock()
	if c.status == model.AttemptStatusCompleted {
		c.mu.Unlock()
		return nil, ErrAttemptCompleted
	}
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	c.submitting = true
	c.stopTimerLocked()

	results, provisional := c.buildResultsLocked()
	req := model.ProgressRequest{
		LessonID:        c.lesson.ID,
		Score:           provisional,
		QuestionResults: results,
		IsRetried:       c.isRetried,
	}
	token := c.token
	c.mu.Unlock()

	res, err := c.api.SubmitProgress(upstream.WithToken(ctx, token), req)
	if err != nil {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
		c.log.Warn().Err(err).Msg("Submission failed, answer-set preserved for retry")
		return nil, err
	}

	c.mu.Lock()
	c.submitting = false
	c.status = model.AttemptStatusCompleted
	c.result = &model.SubmissionResult{
		ProvisionalScore: provisional,
		Status:           res.Status,
		Progress:         res.Progress,
	}
	result := c.result
	notify := c.notify
	cursor := c.cursor
	c.mu.Unlock()

	if err := c.state.Clear(ctx, c.userID, c.lesson.ID); err != nil {
		c.log.Warn().Err(err).Msg("Failed to clear attempt state")
	}

	c.log.Info().
		Int("provisional", provisional).
		Int("accepted", result.Progress.Score).
		Bool("passed", result.Progress.Passed).
		Msg("Attempt submitted")

	if notify != nil {
		notify(Event{Type: EventSubmitted, Cursor: cursor, Result: result})
	}
	return result, nil
}

// Teardown discards the attempt without submitting: stops the countdown,
// drops the persisted state and marks the session terminal so late callbacks
// are ignored.
func (c *Controller) Teardown(ctx context.Context) {
	c.mu.Lock()
	c.stopTimerLocked()
	c.status = model.AttemptStatusCompleted
	c.mu.Unlock()

	if err := c.state.Clear(ctx, c.userID, c.lesson.ID); err != nil {
		c.log.Warn().Err(err).Msg("Failed to clear attempt state")
	}
	c.log.Info().Msg("Attempt discarded")
}

// restore re-applies a persisted attempt: the stored question order, the
// recorded answers and the original deadline. The cursor lands on the first
// unanswered question. Called before the controller is shared, so no locking.
func (c *Controller) restore(rec *AttemptRecord, answers map[string]string, remaining int) {
	byID := make(map[string]model.Question, len(c.lesson.Questions))
	for _, q := range c.lesson.Questions {
		byID[q.ID] = q
	}

	ordered := make([]model.Question, 0, len(c.lesson.Questions))
	for _, qid := range rec.Order {
		if q, ok := byID[qid]; ok {
			ordered = append(ordered, q)
			delete(byID, qid)
		}
	}
	// Questions added upstream since the attempt started go last.
	for _, q := range c.lesson.Questions {
		if _, pending := byID[q.ID]; pending {
			ordered = append(ordered, q)
		}
	}
	c.lesson.Questions = ordered

	c.startedAt = rec.StartedAt
	c.deadline = rec.Deadline

	for qid, value := range answers {
		if c.questionLocked(qid) == nil {
			continue
		}
		c.answers[qid] = &model.Answer{QuestionID: qid, Value: value, AnsweredAt: rec.StartedAt}
	}

	for i, q := range c.lesson.Questions {
		if _, answered := c.answers[q.ID]; !answered {
			c.cursor = i
			break
		}
	}

	if len(c.lesson.Questions) == 0 {
		return
	}
	if c.cfg.Mode == ModePerQuestion {
		allowance := c.allowanceLocked(c.lesson.Questions[c.cursor])
		if allowance > remaining {
			allowance = remaining
		}
		c.startTimerLocked(allowance)
		return
	}
	c.startTimerLocked(remaining)
}

// ─── Countdown callbacks ────────────────────────────────────────────────────

func (c *Controller) handleTick(remaining int) {
	c.mu.Lock()
	notify := c.notify
	cursor := c.cursor
	terminal := c.status == model.AttemptStatusCompleted
	c.mu.Unlock()

	if terminal || notify == nil {
		return
	}
	notify(Event{Type: EventTick, Remaining: remaining, Cursor: cursor})
}

// handleExpire fires exactly once per countdown. Whole-test mode submits the
// attempt; per-question mode records a timed-out empty answer and
// force-advances (submitting after the last question).
func (c *Controller) handleExpire() {
	c.mu.Lock()
	if c.status == model.AttemptStatusCompleted {
		c.mu.Unlock()
		return
	}

	if c.cfg.Mode == ModeWholeTest {
		// Everything still blank at expiry goes out as a timed-out non-answer.
		for _, q := range c.lesson.Questions {
			if _, answered := c.answers[q.ID]; !answered {
				c.answers[q.ID] = &model.Answer{
					QuestionID: q.ID,
					Value:      "",
					IsTimeout:  true,
					AnsweredAt: time.Now(),
				}
			}
		}
		c.mu.Unlock()
		c.submitForced()
		return
	}

	q := c.lesson.Questions[c.cursor]
	if _, answered := c.answers[q.ID]; !answered {
		c.answers[q.ID] = &model.Answer{
			QuestionID: q.ID,
			Value:      "",
			IsTimeout:  true,
			AnsweredAt: time.Now(),
		}
	}

	if c.cursor >= len(c.lesson.Questions)-1 {
		c.mu.Unlock()
		c.submitForced()
		return
	}

	c.cursor++
	c.startTimerLocked(c.allowanceLocked(c.lesson.Questions[c.cursor]))
	cursor := c.cursor
	remaining := c.remainingLocked()
	notify := c.notify
	c.mu.Unlock()

	if notify != nil {
		notify(Event{Type: EventForcedAdvance, Remaining: remaining, Cursor: cursor})
	}
}

func (c *Controller) submitForced() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err := c.Submit(ctx)
	if errors.Is(err, ErrAttemptCompleted) || errors.Is(err, ErrSubmissionInFlight) {
		// Lost the race to a user-initiated submit; nothing left to force.
		return
	}
	if err != nil {
		c.log.Error().Err(err).Msg("Forced submission failed")
	}
}

// ─── Internal helpers (mu held) ─────────────────────────────────────────────

func (c *Controller) startTimerLocked(seconds int) {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = NewCountdown(seconds, c.handleTick, c.handleExpire)
	if c.cfg.TickInterval > 0 {
		c.timer.SetInterval(c.cfg.TickInterval)
	}
	c.timer.Start()
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
}

func (c *Controller) remainingLocked() int {
	if c.timer == nil {
		return 0
	}
	return c.timer.Remaining()
}

func (c *Controller) questionLocked(questionID string) *model.Question {
	for i := range c.lesson.Questions {
		if c.lesson.Questions[i].ID == questionID {
			return &c.lesson.Questions[i]
		}
	}
	return nil
}

// allowanceLocked returns a question's time allowance, falling back to the
// configured default when omitted.
func (c *Controller) allowanceLocked(q model.Question) int {
	if q.TimeLimitSecs > 0 {
		return q.TimeLimitSecs
	}
	return c.cfg.DefaultQuestionSeconds
}

// initialAllowanceLocked is the first countdown duration for this mode.
func (c *Controller) initialAllowanceLocked() int {
	if c.cfg.Mode == ModePerQuestion {
		return c.allowanceLocked(c.lesson.Questions[0])
	}
	return c.wholeTestAllowanceLocked()
}

func (c *Controller) wholeTestAllowanceLocked() int {
	if c.lesson.TimeLimitSecs > 0 {
		return c.lesson.TimeLimitSecs
	}
	total := 0
	for _, q := range c.lesson.Questions {
		total += c.allowanceLocked(q)
	}
	return total
}

// totalAllowanceLocked is the wall-clock budget used for the reaper deadline.
func (c *Controller) totalAllowanceLocked() int {
	if c.cfg.Mode == ModeWholeTest {
		return c.wholeTestAllowanceLocked()
	}
	total := 0
	for _, q := range c.lesson.Questions {
		total += c.allowanceLocked(q)
	}
	return total
}

func (c *Controller) orderLocked() []string {
	order := make([]string, len(c.lesson.Questions))
	for i, q := range c.lesson.Questions {
		order[i] = q.ID
	}
	return order
}

func (c *Controller) answerKeyLocked() map[string]KeyEntry {
	key := make(map[string]KeyEntry, len(c.lesson.Questions))
	for _, q := range c.lesson.Questions {
		key[q.ID] = KeyEntry{Correct: q.CorrectAnswer, Points: q.Points}
	}
	return key
}

// buildResultsLocked assembles the submission payload. Unanswered questions
// are encoded with an empty response and isCorrect=false. The provisional
// score is round(100 * correct / total); a zero-question attempt scores the
// 0% sentinel rather than dividing by zero.
func (c *Controller) buildResultsLocked() ([]model.QuestionResult, int) {
	results := make([]model.QuestionResult, 0, len(c.lesson.Questions))
	correctCount := 0

	for _, q := range c.lesson.Questions {
		r := model.QuestionResult{QuestionID: q.ID, Answer: ""}
		if ans, ok := c.answers[q.ID]; ok {
			r.Answer = ans.Value
			r.IsTimeout = ans.IsTimeout
		}
		if !r.IsTimeout && r.Answer != "" && r.Answer == q.CorrectAnswer {
			r.IsCorrect = true
			r.Score = q.Points
			correctCount++
		}
		results = append(results, r)
	}

	provisional := 0
	if len(results) > 0 {
		provisional = int(math.Round(100 * float64(correctCount) / float64(len(results))))
	}
	return results, provisional
}

func containsOption(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
