package model

// StartAttemptRequest is the body of POST /api/v1/attempts.
type StartAttemptRequest struct {
	LessonID string `json:"lesson_id" binding:"required"`
}

// RecordAnswerRequest is the body of POST /api/v1/attempts/answers.
// Answer may be empty to clear a previously recorded response.
type RecordAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Answer     string `json:"answer"`
}

// RetryAttemptRequest is the body of POST /api/v1/attempts/retry.
type RetryAttemptRequest struct {
	LessonID string `json:"lesson_id" binding:"required"`
}

// FlashcardRequest is the body for flashcard create and update.
type FlashcardRequest struct {
	Front   string   `json:"front" binding:"required"`
	Back    string   `json:"back" binding:"required"`
	TopicID string   `json:"topic_id"`
	Tags    []string `json:"tags"`
}

// SurveyResponseRequest is the body of POST /api/v1/surveys/:survey_id/responses.
type SurveyResponseRequest struct {
	Answers []SurveyAnswer `json:"answers" binding:"required,min=1,dive"`
}
