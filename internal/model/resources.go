package model

import "time"

// Survey is a questionnaire resource.
type Survey struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Questions []SurveyQuestion `json:"questions"`
	CreatedAt time.Time        `json:"createdAt"`
}

// SurveyQuestion is one survey item. Free-form items carry no options.
type SurveyQuestion struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options,omitempty"`
}

// SurveyAnswer is one answered survey item.
type SurveyAnswer struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

// SurveySubmission is the body of POST /surveys/{id}/responses.
type SurveySubmission struct {
	SurveyID string         `json:"surveyId"`
	Answers  []SurveyAnswer `json:"answers" binding:"required,dive"`
}

// Checkin is a daily check-in record.
type Checkin struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Streak    int       `json:"streak"`
	Reward    int       `json:"reward"`
	CheckedIn bool      `json:"checkedIn"`
}

// Package is a purchasable subscription package. Payment processing itself is
// upstream; the gateway only mirrors the catalog.
type Package struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	DurationDays int     `json:"durationDays"`
}

// Flashcard is a two-sided study card.
type Flashcard struct {
	ID      string   `json:"id"`
	Front   string   `json:"front"`
	Back    string   `json:"back"`
	TopicID string   `json:"topicId,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// Topic groups lessons and flashcards.
type Topic struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	LessonCount int    `json:"lessonCount"`
}
