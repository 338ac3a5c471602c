package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyhall/studyhall-gateway/internal/model"
)

func newTestManager(t *testing.T, lesson model.Lesson) (*Manager, *fakeUpstream, *memoryStore) {
	t.Helper()
	f, api := newFakeUpstream(t, lesson)
	state := newMemoryStore()
	cfg := Config{Mode: ModeWholeTest, DefaultQuestionSeconds: 30, TickInterval: time.Hour, Seed: 1}
	return NewManager(cfg, api, state, zerolog.Nop()), f, state
}

func TestLoadAttemptIsIdempotentPerLesson(t *testing.T) {
	m, f, _ := newTestManager(t, threeQuestionLesson())
	ctx := context.Background()

	first, err := m.LoadAttempt(ctx, "user-1", "tok-1", "lesson-1")
	require.NoError(t, err)

	second, err := m.LoadAttempt(ctx, "user-1", "tok-1", "lesson-1")
	require.NoError(t, err)

	// Same attempt, same question order, single lesson fetch.
	assert.Equal(t, first.LessonID, second.LessonID)
	assert.Equal(t, first.Questions, second.Questions)
	f.mu.Lock()
	assert.Equal(t, 1, f.lessonGets)
	f.mu.Unlock()

	require.NoError(t, m.Teardown(ctx, "user-1"))
}

func TestLoadAttemptDiscardsOtherLesson(t *testing.T) {
	m, f, _ := newTestManager(t, threeQuestionLesson())
	ctx := context.Background()

	_, err := m.LoadAttempt(ctx, "user-1", "tok-1", "lesson-1")
	require.NoError(t, err)
	ctrl, err := m.Current("user-1")
	require.NoError(t, err)

	view, err := m.LoadAttempt(ctx, "user-1", "tok-1", "lesson-2")
	require.NoError(t, err)

	assert.Equal(t, "lesson-2", view.LessonID)
	// The prior attempt was torn down, not submitted.
	assert.True(t, ctrl.Terminal())
	assert.Equal(t, 0, f.submissionCount())

	require.NoError(t, m.Teardown(ctx, "user-1"))
}

func TestConcurrentLoadsOfSameLessonShareOneAttempt(t *testing.T) {
	m, f, state := newTestManager(t, threeQuestionLesson())
	ctx := context.Background()

	views := make([]AttemptView, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			views[i], errs[i] = m.LoadAttempt(ctx, "user-1", "tok-1", "lesson-1")
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, views[0].Questions, views[1].Questions)

	// One fetch, one persisted attempt: the loser joined the winner's
	// attempt instead of installing a second controller.
	f.mu.Lock()
	assert.Equal(t, 1, f.lessonGets)
	f.mu.Unlock()

	state.mu.Lock()
	assert.Len(t, state.recs, 1)
	state.mu.Unlock()

	require.NoError(t, m.Teardown(ctx, "user-1"))
}

func TestConcurrentLoadsOfDifferentLessonsLeaveOneLiveAttempt(t *testing.T) {
	m, f, state := newTestManager(t, threeQuestionLesson())
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, lessonID := range []string{"lesson-1", "lesson-2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := m.LoadAttempt(ctx, "user-1", "tok-1", id)
			assert.NoError(t, err)
		}(lessonID)
	}
	wg.Wait()

	ctrl, err := m.Current("user-1")
	require.NoError(t, err)
	require.False(t, ctrl.Terminal())
	winner := ctrl.LessonID()

	// Only the winner's state survives. The displaced attempt was torn down
	// before the install, so no orphaned countdown can submit it later.
	state.mu.Lock()
	require.Len(t, state.recs, 1)
	_, ok := state.recs[storeKey("user-1", winner)]
	state.mu.Unlock()
	assert.True(t, ok)

	assert.Equal(t, 0, f.submissionCount())

	require.NoError(t, m.Teardown(ctx, "user-1"))
}

func TestCurrentWithoutAttempt(t *testing.T) {
	m, _, _ := newTestManager(t, threeQuestionLesson())

	_, err := m.Current("user-1")
	assert.ErrorIs(t, err, ErrNoActiveAttempt)
}

func TestRetryStartsFreshFlaggedAttempt(t *testing.T) {
	m, f, _ := newTestManager(t, threeQuestionLesson())
	ctx := context.Background()

	_, err := m.LoadAttempt(ctx, "user-1", "tok-1", "lesson-1")
	require.NoError(t, err)
	ctrl, err := m.Current("user-1")
	require.NoError(t, err)
	require.NoError(t, ctrl.RecordAnswer(ctx, "q1", "1"))

	view, err := m.Retry(ctx, "user-1", "tok-1", "lesson-1")
	require.NoError(t, err)

	// Fresh attempt: prior answers gone.
	assert.Empty(t, view.Answers)

	fresh, err := m.Current("user-1")
	require.NoError(t, err)
	_, err = fresh.Submit(ctx)
	require.NoError(t, err)

	assert.True(t, f.lastSubmission(t).IsRetried)
}

func TestResumeRestoresOrderAndAnswers(t *testing.T) {
	m, _, state := newTestManager(t, threeQuestionLesson())
	ctx := context.Background()

	first, err := m.LoadAttempt(ctx, "user-1", "tok-1", "lesson-1")
	require.NoError(t, err)
	ctrl, err := m.Current("user-1")
	require.NoError(t, err)
	require.NoError(t, ctrl.RecordAnswer(ctx, "q1", "1"))

	// Simulate a gateway restart: a new manager over the same persisted state.
	m2, _, _ := newTestManager(t, threeQuestionLesson())
	m2.state = state

	resumed, err := m2.Resume(ctx, "user-1", "tok-1")
	require.NoError(t, err)

	view := resumed.View()
	assert.Equal(t, "lesson-1", view.LessonID)
	assert.Equal(t, "1", view.Answers["q1"])

	// The stored shuffled order survives the restart.
	var firstOrder, resumedOrder []string
	for _, q := range first.Questions {
		firstOrder = append(firstOrder, q.ID)
	}
	for _, q := range view.Questions {
		resumedOrder = append(resumedOrder, q.ID)
	}
	assert.Equal(t, firstOrder, resumedOrder)

	resumed.Teardown(ctx)
	require.NoError(t, m.Teardown(ctx, "user-1"))
}

func TestResumeExpiredAttemptForceSubmits(t *testing.T) {
	m, f, state := newTestManager(t, threeQuestionLesson())
	ctx := context.Background()

	rec := AttemptRecord{
		UserID:    "user-1",
		LessonID:  "lesson-1",
		StartedAt: time.Now().Add(-2 * time.Hour),
		Deadline:  time.Now().Add(-time.Hour),
		Order:     []string{"q2", "q1", "q3"},
		AnswerKey: map[string]KeyEntry{
			"q1": {Correct: "1", Points: 10},
			"q2": {Correct: "3", Points: 10},
			"q3": {Correct: "1/2", Points: 10},
		},
		Token: "tok-1",
	}
	require.NoError(t, state.SaveAttempt(ctx, rec))
	require.NoError(t, state.SaveAnswer(ctx, "user-1", "lesson-1", "q1", "1"))

	_, err := m.Resume(ctx, "user-1", "tok-1")
	assert.ErrorIs(t, err, ErrAttemptCompleted)

	// Graded purely from the stored record: 1 of 3 → 33.
	sub := f.lastSubmission(t)
	assert.Equal(t, 33, sub.Score)
	require.Len(t, sub.QuestionResults, 3)

	byID := map[string]model.QuestionResult{}
	for _, r := range sub.QuestionResults {
		byID[r.QuestionID] = r
	}
	assert.True(t, byID["q1"].IsCorrect)
	assert.True(t, byID["q2"].IsTimeout)
	assert.True(t, byID["q3"].IsTimeout)

	// State cleared after the forced submission.
	_, err = state.LoadAttempt(ctx, "user-1", "lesson-1")
	assert.ErrorIs(t, err, ErrMissingSession)
}

func TestResumeWithNothingToResume(t *testing.T) {
	m, _, _ := newTestManager(t, threeQuestionLesson())

	_, err := m.Resume(context.Background(), "user-1", "tok-1")
	assert.ErrorIs(t, err, ErrNoActiveAttempt)
}

func TestHasLive(t *testing.T) {
	m, _, _ := newTestManager(t, threeQuestionLesson())
	ctx := context.Background()
	ref := AttemptRef{UserID: "user-1", LessonID: "lesson-1"}

	assert.False(t, m.HasLive(ref))

	_, err := m.LoadAttempt(ctx, "user-1", "tok-1", "lesson-1")
	require.NoError(t, err)
	assert.True(t, m.HasLive(ref))

	require.NoError(t, m.Teardown(ctx, "user-1"))
	assert.False(t, m.HasLive(ref))
}
