package model

import "time"

// AttemptStatus enumerates attempt states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
)

// Answer is the user's recorded response for one question plus derived flags.
// For audio questions Value carries the encoded blob reference.
type Answer struct {
	QuestionID string    `json:"question_id"`
	Value      string    `json:"value"`
	IsCorrect  bool      `json:"is_correct"`
	IsTimeout  bool      `json:"is_timeout"`
	AnsweredAt time.Time `json:"answered_at"`
}

// QuestionResult is one entry of the submission payload sent upstream.
type QuestionResult struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
	IsCorrect  bool   `json:"isCorrect"`
	Score      int    `json:"score"`
	IsTimeout  bool   `json:"isTimeout"`
}

// ProgressRequest is the body of POST /progress.
type ProgressRequest struct {
	LessonID        string           `json:"lessonId"`
	Score           int              `json:"score"`
	QuestionResults []QuestionResult `json:"questionResults"`
	IsRetried       bool             `json:"isRetried"`
}

// ProgressStatus is the upstream verdict for a submitted attempt.
type ProgressStatus string

const (
	ProgressStatusComplete   ProgressStatus = "COMPLETE"
	ProgressStatusIncomplete ProgressStatus = "INCOMPLETE"
)

// Progress is the authoritative result returned by the upstream API. The
// gateway's provisional score must be overwritten with these figures.
type Progress struct {
	Score           int              `json:"score"`
	QuestionResults []QuestionResult `json:"questionResults"`
	CoinsAwarded    int              `json:"coinsAwarded,omitempty"`
	XPAwarded       int              `json:"xpAwarded,omitempty"`
	Passed          bool             `json:"passed"`
}

// ProgressResponse is the response of POST /progress.
type ProgressResponse struct {
	Status   ProgressStatus `json:"status"`
	Progress Progress       `json:"progress"`
}

// RetryRequest is the body of POST /lessons/retry.
type RetryRequest struct {
	LessonID string `json:"lessonId"`
}

// SubmissionResult is what the gateway hands back to the client after submit:
// the local provisional score for immediate feedback plus the authoritative
// upstream progress.
type SubmissionResult struct {
	ProvisionalScore int            `json:"provisional_score"`
	Status           ProgressStatus `json:"status"`
	Progress         Progress       `json:"progress"`
}
