package session

import (
	"context"
	"time"
)

// KeyEntry is one answer-key record: the correct reference and point value
// for a question. It never leaves the gateway.
type KeyEntry struct {
	Correct string `json:"correct"`
	Points  int    `json:"points"`
}

// AttemptRecord is the hot state persisted per attempt so a reconnecting
// client (or a restarted gateway) can resume with the correct remaining time,
// and so the reaper can force-submit abandoned attempts.
type AttemptRecord struct {
	UserID    string
	LessonID  string
	Title     string
	StartedAt time.Time
	Deadline  time.Time
	Order     []string
	AnswerKey map[string]KeyEntry
	Token     string
	IsRetried bool
}

// AttemptRef identifies one attempt in the deadline index.
type AttemptRef struct {
	UserID   string
	LessonID string
}

// StateStore persists attempt hot state. The Redis implementation is the
// production one; tests substitute an in-memory store.
type StateStore interface {
	// SaveAttempt writes the full attempt record and indexes its deadline.
	SaveAttempt(ctx context.Context, rec AttemptRecord) error
	// LoadAttempt returns the stored record, or ErrMissingSession.
	LoadAttempt(ctx context.Context, userID, lessonID string) (*AttemptRecord, error)
	// SaveAnswer upserts a single answer and queues it for background autosave.
	SaveAnswer(ctx context.Context, userID, lessonID, questionID, value string) error
	// LoadAnswers returns all recorded answers keyed by question ID.
	LoadAnswers(ctx context.Context, userID, lessonID string) (map[string]string, error)
	// ActiveLesson returns the lesson ID of the user's active attempt, or "".
	ActiveLesson(ctx context.Context, userID string) (string, error)
	// Clear drops every key belonging to the attempt and unindexes it.
	Clear(ctx context.Context, userID, lessonID string) error
	// ExpiredAttempts lists attempts whose deadline passed before now.
	ExpiredAttempts(ctx context.Context, now time.Time) ([]AttemptRef, error)
}
