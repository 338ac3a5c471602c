package upstream

import (
	"context"
	"net/http"

	"github.com/studyhall/studyhall-gateway/internal/model"
)

// GetLesson fetches the full question set for a lesson. The payload includes
// correct-answer references; they never leave the gateway.
func (c *Client) GetLesson(ctx context.Context, lessonID string) (*model.Lesson, error) {
	var data struct {
		Lesson model.Lesson `json:"lesson"`
	}
	if err := c.do(ctx, http.MethodGet, "/lessons/"+lessonID, nil, &data); err != nil {
		return nil, err
	}
	return &data.Lesson, nil
}

// SubmitProgress posts a completed answer-set. The response carries the
// authoritative score, awards and verdict, which supersede any locally
// computed figures.
func (c *Client) SubmitProgress(ctx context.Context, req model.ProgressRequest) (*model.ProgressResponse, error) {
	var data model.ProgressResponse
	if err := c.do(ctx, http.MethodPost, "/progress", req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// RetryLesson resets the attempt state upstream so the lesson can be taken
// again.
func (c *Client) RetryLesson(ctx context.Context, lessonID string) error {
	return c.do(ctx, http.MethodPost, "/lessons/retry", model.RetryRequest{LessonID: lessonID}, nil)
}

// SaveDraftAnswer mirrors one in-progress answer upstream so a device switch
// mid-attempt does not lose work. Best effort; the submission payload remains
// the source of truth.
func (c *Client) SaveDraftAnswer(ctx context.Context, lessonID, questionID, answer string) error {
	body := map[string]string{
		"questionId": questionID,
		"answer":     answer,
	}
	return c.do(ctx, http.MethodPost, "/lessons/"+lessonID+"/answers/draft", body, nil)
}
