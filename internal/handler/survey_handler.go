package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studyhall/studyhall-gateway/internal/model"
	"github.com/studyhall/studyhall-gateway/internal/response"
	"github.com/studyhall/studyhall-gateway/internal/store"
	"github.com/studyhall/studyhall-gateway/internal/validator"
)

// SurveyHandler serves the survey resource endpoints.
type SurveyHandler struct {
	surveys *store.SurveyStore
}

// NewSurveyHandler creates a new SurveyHandler.
func NewSurveyHandler(surveys *store.SurveyStore) *SurveyHandler {
	return &SurveyHandler{surveys: surveys}
}

// ListSurveys godoc
// GET /api/v1/surveys
func (h *SurveyHandler) ListSurveys(c *gin.Context) {
	surveys, err := h.surveys.FetchList(upstreamCtx(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	if surveys == nil {
		surveys = []model.Survey{}
	}
	response.Success(c, http.StatusOK, gin.H{"surveys": surveys})
}

// GetSurvey godoc
// GET /api/v1/surveys/:survey_id
func (h *SurveyHandler) GetSurvey(c *gin.Context) {
	survey, err := h.surveys.FetchByID(upstreamCtx(c), c.Param("survey_id"))
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"survey": survey})
}

// SubmitResponse godoc
// POST /api/v1/surveys/:survey_id/responses
func (h *SurveyHandler) SubmitResponse(c *gin.Context) {
	var req model.SurveyResponseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub := model.SurveySubmission{
		SurveyID: c.Param("survey_id"),
		Answers:  req.Answers,
	}
	if err := h.surveys.SubmitResponse(upstreamCtx(c), sub); err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"status": "submitted"})
}
