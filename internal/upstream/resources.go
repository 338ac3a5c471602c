package upstream

import (
	"context"
	"net/http"

	"github.com/studyhall/studyhall-gateway/internal/model"
)

// Resource endpoints all follow the same list/detail/create/update/delete
// convention with the {success, message, data} envelope.

// ─── Surveys ────────────────────────────────────────────────────────────────

func (c *Client) ListSurveys(ctx context.Context) ([]model.Survey, error) {
	var data struct {
		Surveys []model.Survey `json:"surveys"`
	}
	if err := c.do(ctx, http.MethodGet, "/surveys", nil, &data); err != nil {
		return nil, err
	}
	return data.Surveys, nil
}

func (c *Client) GetSurvey(ctx context.Context, id string) (*model.Survey, error) {
	var data struct {
		Survey model.Survey `json:"survey"`
	}
	if err := c.do(ctx, http.MethodGet, "/surveys/"+id, nil, &data); err != nil {
		return nil, err
	}
	return &data.Survey, nil
}

func (c *Client) SubmitSurvey(ctx context.Context, sub model.SurveySubmission) error {
	return c.do(ctx, http.MethodPost, "/surveys/"+sub.SurveyID+"/responses", sub, nil)
}

// ─── Check-ins ──────────────────────────────────────────────────────────────

func (c *Client) ListCheckins(ctx context.Context) ([]model.Checkin, error) {
	var data struct {
		Checkins []model.Checkin `json:"checkins"`
	}
	if err := c.do(ctx, http.MethodGet, "/checkins", nil, &data); err != nil {
		return nil, err
	}
	return data.Checkins, nil
}

// MarkCheckin records today's check-in and returns the updated record
// (streak and reward are computed upstream).
func (c *Client) MarkCheckin(ctx context.Context) (*model.Checkin, error) {
	var data struct {
		Checkin model.Checkin `json:"checkin"`
	}
	if err := c.do(ctx, http.MethodPost, "/checkins", nil, &data); err != nil {
		return nil, err
	}
	return &data.Checkin, nil
}

// ─── Packages ───────────────────────────────────────────────────────────────

func (c *Client) ListPackages(ctx context.Context) ([]model.Package, error) {
	var data struct {
		Packages []model.Package `json:"packages"`
	}
	if err := c.do(ctx, http.MethodGet, "/packages", nil, &data); err != nil {
		return nil, err
	}
	return data.Packages, nil
}

func (c *Client) GetPackage(ctx context.Context, id string) (*model.Package, error) {
	var data struct {
		Package model.Package `json:"package"`
	}
	if err := c.do(ctx, http.MethodGet, "/packages/"+id, nil, &data); err != nil {
		return nil, err
	}
	return &data.Package, nil
}

// ─── Flashcards ─────────────────────────────────────────────────────────────

func (c *Client) ListFlashcards(ctx context.Context) ([]model.Flashcard, error) {
	var data struct {
		Flashcards []model.Flashcard `json:"flashcards"`
	}
	if err := c.do(ctx, http.MethodGet, "/flashcards", nil, &data); err != nil {
		return nil, err
	}
	return data.Flashcards, nil
}

func (c *Client) CreateFlashcard(ctx context.Context, card model.Flashcard) (*model.Flashcard, error) {
	var data struct {
		Flashcard model.Flashcard `json:"flashcard"`
	}
	if err := c.do(ctx, http.MethodPost, "/flashcards", card, &data); err != nil {
		return nil, err
	}
	return &data.Flashcard, nil
}

func (c *Client) UpdateFlashcard(ctx context.Context, card model.Flashcard) (*model.Flashcard, error) {
	var data struct {
		Flashcard model.Flashcard `json:"flashcard"`
	}
	if err := c.do(ctx, http.MethodPut, "/flashcards/"+card.ID, card, &data); err != nil {
		return nil, err
	}
	return &data.Flashcard, nil
}

func (c *Client) DeleteFlashcard(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/flashcards/"+id, nil, nil)
}

// ─── Topics ─────────────────────────────────────────────────────────────────

func (c *Client) ListTopics(ctx context.Context) ([]model.Topic, error) {
	var data struct {
		Topics []model.Topic `json:"topics"`
	}
	if err := c.do(ctx, http.MethodGet, "/topics", nil, &data); err != nil {
		return nil, err
	}
	return data.Topics, nil
}

func (c *Client) GetTopic(ctx context.Context, id string) (*model.Topic, error) {
	var data struct {
		Topic model.Topic `json:"topic"`
	}
	if err := c.do(ctx, http.MethodGet, "/topics/"+id, nil, &data); err != nil {
		return nil, err
	}
	return &data.Topic, nil
}
