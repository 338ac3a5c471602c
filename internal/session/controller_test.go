package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyhall/studyhall-gateway/internal/model"
	"github.com/studyhall/studyhall-gateway/internal/upstream"
)

// memoryStore is the in-memory StateStore used across session tests.
type memoryStore struct {
	mu      sync.Mutex
	recs    map[string]AttemptRecord
	answers map[string]map[string]string
	active  map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		recs:    make(map[string]AttemptRecord),
		answers: make(map[string]map[string]string),
		active:  make(map[string]string),
	}
}

func storeKey(userID, lessonID string) string { return userID + "|" + lessonID }

func (m *memoryStore) SaveAttempt(ctx context.Context, rec AttemptRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[storeKey(rec.UserID, rec.LessonID)] = rec
	m.answers[storeKey(rec.UserID, rec.LessonID)] = make(map[string]string)
	m.active[rec.UserID] = rec.LessonID
	return nil
}

func (m *memoryStore) LoadAttempt(ctx context.Context, userID, lessonID string) (*AttemptRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[storeKey(userID, lessonID)]
	if !ok {
		return nil, ErrMissingSession
	}
	return &rec, nil
}

func (m *memoryStore) SaveAnswer(ctx context.Context, userID, lessonID, questionID, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.answers[storeKey(userID, lessonID)] == nil {
		m.answers[storeKey(userID, lessonID)] = make(map[string]string)
	}
	m.answers[storeKey(userID, lessonID)][questionID] = value
	return nil
}

func (m *memoryStore) LoadAnswers(ctx context.Context, userID, lessonID string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	for k, v := range m.answers[storeKey(userID, lessonID)] {
		out[k] = v
	}
	return out, nil
}

func (m *memoryStore) ActiveLesson(ctx context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[userID], nil
}

func (m *memoryStore) Clear(ctx context.Context, userID, lessonID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, storeKey(userID, lessonID))
	delete(m.answers, storeKey(userID, lessonID))
	delete(m.active, userID)
	return nil
}

func (m *memoryStore) ExpiredAttempts(ctx context.Context, now time.Time) ([]AttemptRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var refs []AttemptRef
	for _, rec := range m.recs {
		if rec.Deadline.Before(now) {
			refs = append(refs, AttemptRef{UserID: rec.UserID, LessonID: rec.LessonID})
		}
	}
	return refs, nil
}

// fakeUpstream serves the lesson and records submissions.
type fakeUpstream struct {
	mu          sync.Mutex
	lesson      model.Lesson
	submissions []model.ProgressRequest
	lessonGets  int
	failSubmit  bool
	submitDelay time.Duration
	srv         *httptest.Server
}

func newFakeUpstream(t *testing.T, lesson model.Lesson) (*fakeUpstream, *upstream.Client) {
	t.Helper()
	f := &fakeUpstream{lesson: lesson}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /lessons/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lessonGets++
		lesson := f.lesson
		f.mu.Unlock()
		// Serve the same question set under whatever ID was asked for.
		lesson.ID = r.PathValue("id")
		writeEnvelope(w, map[string]interface{}{"lesson": lesson})
	})
	mux.HandleFunc("POST /lessons/retry", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, nil)
	})
	mux.HandleFunc("POST /progress", func(w http.ResponseWriter, r *http.Request) {
		var req model.ProgressRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		f.mu.Lock()
		fail := f.failSubmit
		delay := f.submitDelay
		f.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}

		f.mu.Lock()
		if !fail {
			f.submissions = append(f.submissions, req)
		}
		f.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"success":false,"message":"storage unavailable"}`)
			return
		}

		writeEnvelope(w, model.ProgressResponse{
			Status: model.ProgressStatusComplete,
			Progress: model.Progress{
				Score:           req.Score,
				QuestionResults: req.QuestionResults,
				Passed:          req.Score >= 60,
			},
		})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f, upstream.New(f.srv.URL, time.Second, zerolog.Nop())
}

func writeEnvelope(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	raw, _ := json.Marshal(map[string]interface{}{
		"success": true,
		"message": "ok",
		"data":    data,
	})
	w.Write(raw)
}

func (f *fakeUpstream) submissionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submissions)
}

func (f *fakeUpstream) lastSubmission(t *testing.T) model.ProgressRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.submissions)
	return f.submissions[len(f.submissions)-1]
}

func (f *fakeUpstream) setFailSubmit(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSubmit = fail
}

func (f *fakeUpstream) setSubmitDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitDelay = d
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func threeQuestionLesson() model.Lesson {
	return model.Lesson{
		ID:            "lesson-1",
		Title:         "Fractions",
		TimeLimitSecs: 60,
		Questions: []model.Question{
			{ID: "q1", Prompt: "1/2 + 1/2?", Type: model.QuestionTypeChoice, Options: []string{"1", "2", "1/4"}, CorrectAnswer: "1", Points: 10},
			{ID: "q2", Prompt: "1/3 of 9?", Type: model.QuestionTypeChoice, Options: []string{"2", "3", "6"}, CorrectAnswer: "3", Points: 10},
			{ID: "q3", Prompt: "Name a fraction.", Type: model.QuestionTypeFreeText, CorrectAnswer: "1/2", Points: 10},
		},
	}
}

func newTestController(t *testing.T, cfg Config, lesson model.Lesson) (*Controller, *fakeUpstream, *memoryStore) {
	t.Helper()
	f, api := newFakeUpstream(t, lesson)
	state := newMemoryStore()
	ctrl := NewController(cfg, api, state, zerolog.Nop(), "user-1", &lesson, "tok-1", false, rand.New(rand.NewSource(1)))
	return ctrl, f, state
}

// wholeTestCfg keeps the default one-second tick so the countdown cannot
// expire mid-test; expiry tests shrink the interval explicitly.
func wholeTestCfg() Config {
	return Config{Mode: ModeWholeTest, DefaultQuestionSeconds: 30}
}

func fastWholeTestCfg() Config {
	return Config{Mode: ModeWholeTest, DefaultQuestionSeconds: 30, TickInterval: 5 * time.Millisecond}
}

func TestViewShufflesWithoutLeakingAnswers(t *testing.T) {
	ctrl, _, _ := newTestController(t, wholeTestCfg(), threeQuestionLesson())
	require.NoError(t, ctrl.Start(context.Background()))
	defer ctrl.Teardown(context.Background())

	view := ctrl.View()
	require.Len(t, view.Questions, 3)

	// Question multiset preserved.
	ids := map[string]bool{}
	for _, q := range view.Questions {
		ids[q.ID] = true
	}
	assert.Equal(t, map[string]bool{"q1": true, "q2": true, "q3": true}, ids)

	// Option multiset preserved for choice questions.
	for _, q := range view.Questions {
		if q.ID == "q1" {
			assert.ElementsMatch(t, []string{"1", "2", "1/4"}, q.Options)
		}
	}

	assert.Equal(t, model.AttemptStatusInProgress, view.Status)
	assert.Equal(t, 0, view.Cursor)
	assert.Greater(t, view.RemainingSecs, 0)
}

func TestRecordAnswerValidatesAndOverwrites(t *testing.T) {
	ctrl, _, state := newTestController(t, wholeTestCfg(), threeQuestionLesson())
	require.NoError(t, ctrl.Start(context.Background()))
	defer ctrl.Teardown(context.Background())
	ctx := context.Background()

	assert.ErrorIs(t, ctrl.RecordAnswer(ctx, "nope", "1"), ErrUnknownQuestion)
	assert.ErrorIs(t, ctrl.RecordAnswer(ctx, "q1", "42"), ErrInvalidChoice)

	require.NoError(t, ctrl.RecordAnswer(ctx, "q1", "2"))
	require.NoError(t, ctrl.RecordAnswer(ctx, "q1", "1"))
	assert.Equal(t, "1", ctrl.View().Answers["q1"])

	// Free text takes anything, including clearing.
	require.NoError(t, ctrl.RecordAnswer(ctx, "q3", "3/4"))
	require.NoError(t, ctrl.RecordAnswer(ctx, "q3", ""))
	assert.Equal(t, "", ctrl.View().Answers["q3"])

	// Autosaved through the state store as well.
	saved, err := state.LoadAnswers(ctx, "user-1", "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, "1", saved["q1"])
}

func TestCursorClamping(t *testing.T) {
	ctrl, _, _ := newTestController(t, wholeTestCfg(), threeQuestionLesson())
	require.NoError(t, ctrl.Start(context.Background()))
	defer ctrl.Teardown(context.Background())

	assert.Equal(t, 0, ctrl.Retreat())
	assert.Equal(t, 1, ctrl.Advance())
	assert.Equal(t, 2, ctrl.Advance())
	assert.Equal(t, 2, ctrl.Advance())
	assert.Equal(t, 1, ctrl.Retreat())
}

func TestSubmitComputesProvisionalScore(t *testing.T) {
	ctrl, f, _ := newTestController(t, wholeTestCfg(), threeQuestionLesson())
	require.NoError(t, ctrl.Start(context.Background()))
	ctx := context.Background()

	require.NoError(t, ctrl.RecordAnswer(ctx, "q1", "1"))
	require.NoError(t, ctrl.RecordAnswer(ctx, "q2", "3"))

	result, err := ctrl.Submit(ctx)
	require.NoError(t, err)

	// round(100 * 2/3) = 67.
	assert.Equal(t, 67, result.ProvisionalScore)
	assert.Equal(t, model.ProgressStatusComplete, result.Status)
	assert.True(t, ctrl.Terminal())

	sub := f.lastSubmission(t)
	require.Len(t, sub.QuestionResults, 3)
	byID := map[string]model.QuestionResult{}
	for _, r := range sub.QuestionResults {
		byID[r.QuestionID] = r
	}
	assert.True(t, byID["q1"].IsCorrect)
	assert.Equal(t, 10, byID["q1"].Score)
	assert.True(t, byID["q2"].IsCorrect)
	assert.Equal(t, "", byID["q3"].Answer)
	assert.False(t, byID["q3"].IsCorrect)
}

func TestTerminalAttemptRejectsEverything(t *testing.T) {
	ctrl, _, _ := newTestController(t, wholeTestCfg(), threeQuestionLesson())
	require.NoError(t, ctrl.Start(context.Background()))
	ctx := context.Background()

	_, err := ctrl.Submit(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, ctrl.RecordAnswer(ctx, "q1", "1"), ErrAttemptCompleted)
	_, err = ctrl.Submit(ctx)
	assert.ErrorIs(t, err, ErrAttemptCompleted)

	// Cursor frozen too.
	assert.Equal(t, 0, ctrl.Advance())
}

func TestConcurrentSubmitsPostUpstreamOnce(t *testing.T) {
	ctrl, f, _ := newTestController(t, wholeTestCfg(), threeQuestionLesson())
	require.NoError(t, ctrl.Start(context.Background()))
	ctx := context.Background()

	require.NoError(t, ctrl.RecordAnswer(ctx, "q1", "1"))
	require.NoError(t, ctrl.RecordAnswer(ctx, "q2", "3"))

	// A slow upstream widens the window between the terminal check and the
	// POST; only one of the racing submits may reach the server.
	f.setSubmitDelay(300 * time.Millisecond)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ctrl.Submit(ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var accepted, rejected int
	for err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrSubmissionInFlight) || errors.Is(err, ErrAttemptCompleted):
			rejected++
		default:
			t.Fatalf("unexpected submit error: %v", err)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 1, f.submissionCount())
	assert.True(t, ctrl.Terminal())
}

func TestFailedSubmitPreservesAnswers(t *testing.T) {
	ctrl, f, _ := newTestController(t, wholeTestCfg(), threeQuestionLesson())
	require.NoError(t, ctrl.Start(context.Background()))
	ctx := context.Background()

	require.NoError(t, ctrl.RecordAnswer(ctx, "q1", "1"))
	require.NoError(t, ctrl.RecordAnswer(ctx, "q2", "3"))

	f.setFailSubmit(true)
	_, err := ctrl.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, upstream.KindServer, upstream.KindOf(err))

	// Not terminal; the answer-set survives for a user-initiated retry.
	assert.False(t, ctrl.Terminal())
	assert.Equal(t, "1", ctrl.View().Answers["q1"])

	f.setFailSubmit(false)
	result, err := ctrl.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 67, result.ProvisionalScore)
}

func TestZeroQuestionLessonCompletesImmediately(t *testing.T) {
	lesson := model.Lesson{ID: "empty", Title: "Empty", TimeLimitSecs: 30}
	ctrl, f, _ := newTestController(t, wholeTestCfg(), lesson)

	require.NoError(t, ctrl.Start(context.Background()))

	assert.True(t, ctrl.Terminal())
	sub := f.lastSubmission(t)
	assert.Equal(t, 0, sub.Score)
	assert.Empty(t, sub.QuestionResults)
}

func TestWholeTestExpiryForcesTimedOutSubmission(t *testing.T) {
	lesson := threeQuestionLesson()
	lesson.TimeLimitSecs = 1
	ctrl, f, _ := newTestController(t, fastWholeTestCfg(), lesson)

	require.NoError(t, ctrl.Start(context.Background()))
	ctx := context.Background()
	require.NoError(t, ctrl.RecordAnswer(ctx, "q1", "1"))
	require.NoError(t, ctrl.RecordAnswer(ctx, "q2", "3"))

	waitFor(t, func() bool { return f.submissionCount() > 0 }, "expiry did not submit")

	sub := f.lastSubmission(t)
	assert.Equal(t, 67, sub.Score)
	require.Len(t, sub.QuestionResults, 3)

	byID := map[string]model.QuestionResult{}
	for _, r := range sub.QuestionResults {
		byID[r.QuestionID] = r
	}
	assert.True(t, byID["q3"].IsTimeout)
	assert.Equal(t, "", byID["q3"].Answer)
	assert.False(t, byID["q3"].IsCorrect)
	assert.True(t, ctrl.Terminal())
}

func TestPerQuestionModeForceAdvances(t *testing.T) {
	lesson := threeQuestionLesson()
	for i := range lesson.Questions {
		lesson.Questions[i].TimeLimitSecs = 1
	}
	cfg := Config{Mode: ModePerQuestion, DefaultQuestionSeconds: 1, TickInterval: 5 * time.Millisecond}
	ctrl, f, _ := newTestController(t, cfg, lesson)

	var mu sync.Mutex
	var advances []int
	ctrl.SetNotifier(func(ev Event) {
		if ev.Type == EventForcedAdvance {
			mu.Lock()
			advances = append(advances, ev.Cursor)
			mu.Unlock()
		}
	})

	require.NoError(t, ctrl.Start(context.Background()))

	waitFor(t, func() bool { return f.submissionCount() > 0 }, "last question expiry did not submit")

	sub := f.lastSubmission(t)
	require.Len(t, sub.QuestionResults, 3)
	for _, r := range sub.QuestionResults {
		assert.True(t, r.IsTimeout, "question %s must be marked timed out", r.QuestionID)
		assert.Equal(t, "", r.Answer)
	}
	assert.Equal(t, 0, sub.Score)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, advances)
}
