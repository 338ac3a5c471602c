package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/middleware"
	"github.com/studyhall/studyhall-gateway/internal/model"
	"github.com/studyhall/studyhall-gateway/internal/response"
	"github.com/studyhall/studyhall-gateway/internal/session"
	"github.com/studyhall/studyhall-gateway/internal/validator"
)

// AttemptHandler handles the timed-attempt lifecycle endpoints.
type AttemptHandler struct {
	manager *session.Manager
	log     zerolog.Logger
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(manager *session.Manager, log zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		manager: manager,
		log:     log.With().Str("component", "attempt_handler").Logger(),
	}
}

// StartAttempt godoc
// POST /api/v1/attempts
// Fetches the lesson and starts a timed attempt. Re-posting the same lesson
// while it is in progress returns the existing attempt without resetting the
// clock.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req model.StartAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.manager.LoadAttempt(c.Request.Context(), middleware.GetUserID(c), middleware.GetToken(c), req.LessonID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attempt": view})
}

// GetCurrent godoc
// GET /api/v1/attempts/current
// Returns the live attempt snapshot: shuffled questions, cursor, remaining
// time and recorded answers.
func (h *AttemptHandler) GetCurrent(c *gin.Context) {
	ctrl, err := h.manager.Current(middleware.GetUserID(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": ctrl.View()})
}

// Resume godoc
// POST /api/v1/attempts/resume
// Rebuilds the attempt from persisted state after a reconnect or gateway
// restart. An attempt whose deadline already passed is force-submitted and
// reported as completed.
func (h *AttemptHandler) Resume(c *gin.Context) {
	ctrl, err := h.manager.Resume(c.Request.Context(), middleware.GetUserID(c), middleware.GetToken(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": ctrl.View()})
}

// RecordAnswer godoc
// POST /api/v1/attempts/answers
// Records or overwrites one answer. Choice answers must match an offered
// option; re-answering a question replaces the prior value.
func (h *AttemptHandler) RecordAnswer(c *gin.Context) {
	var req model.RecordAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ctrl, err := h.manager.Current(middleware.GetUserID(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	if err := ctrl.RecordAnswer(c.Request.Context(), req.QuestionID, req.Answer); err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// Advance godoc
// POST /api/v1/attempts/advance
// Moves the cursor to the next question (clamped at the last one).
func (h *AttemptHandler) Advance(c *gin.Context) {
	ctrl, err := h.manager.Current(middleware.GetUserID(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"cursor": ctrl.Advance()})
}

// Retreat godoc
// POST /api/v1/attempts/retreat
// Moves the cursor to the previous question (clamped at the first one).
func (h *AttemptHandler) Retreat(c *gin.Context) {
	ctrl, err := h.manager.Current(middleware.GetUserID(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"cursor": ctrl.Retreat()})
}

// Submit godoc
// POST /api/v1/attempts/submit
// Grades the attempt locally for the provisional score and posts it upstream.
// On upstream failure the attempt stays open with its answers intact so the
// client can retry.
func (h *AttemptHandler) Submit(c *gin.Context) {
	ctrl, err := h.manager.Current(middleware.GetUserID(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	result, err := ctrl.Submit(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Retry godoc
// POST /api/v1/attempts/retry
// Resets the lesson upstream and starts a fresh attempt flagged as retried.
func (h *AttemptHandler) Retry(c *gin.Context) {
	var req model.RetryAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.manager.Retry(c.Request.Context(), middleware.GetUserID(c), middleware.GetToken(c), req.LessonID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attempt": view})
}

// Teardown godoc
// DELETE /api/v1/attempts
// Discards the attempt without submitting (explicit exit).
func (h *AttemptHandler) Teardown(c *gin.Context) {
	if err := h.manager.Teardown(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "discarded"})
}
