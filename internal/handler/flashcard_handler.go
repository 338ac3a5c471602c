package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studyhall/studyhall-gateway/internal/model"
	"github.com/studyhall/studyhall-gateway/internal/response"
	"github.com/studyhall/studyhall-gateway/internal/store"
	"github.com/studyhall/studyhall-gateway/internal/validator"
)

// FlashcardHandler serves the flashcard CRUD endpoints.
type FlashcardHandler struct {
	flashcards *store.FlashcardStore
}

// NewFlashcardHandler creates a new FlashcardHandler.
func NewFlashcardHandler(flashcards *store.FlashcardStore) *FlashcardHandler {
	return &FlashcardHandler{flashcards: flashcards}
}

// ListFlashcards godoc
// GET /api/v1/flashcards
func (h *FlashcardHandler) ListFlashcards(c *gin.Context) {
	cards, err := h.flashcards.FetchList(upstreamCtx(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	if cards == nil {
		cards = []model.Flashcard{}
	}
	response.Success(c, http.StatusOK, gin.H{"flashcards": cards})
}

// CreateFlashcard godoc
// POST /api/v1/flashcards
func (h *FlashcardHandler) CreateFlashcard(c *gin.Context) {
	var req model.FlashcardRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	created, err := h.flashcards.Create(upstreamCtx(c), model.Flashcard{
		Front:   req.Front,
		Back:    req.Back,
		TopicID: req.TopicID,
		Tags:    req.Tags,
	})
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"flashcard": created})
}

// UpdateFlashcard godoc
// PUT /api/v1/flashcards/:flashcard_id
func (h *FlashcardHandler) UpdateFlashcard(c *gin.Context) {
	var req model.FlashcardRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	updated, err := h.flashcards.Update(upstreamCtx(c), model.Flashcard{
		ID:      c.Param("flashcard_id"),
		Front:   req.Front,
		Back:    req.Back,
		TopicID: req.TopicID,
		Tags:    req.Tags,
	})
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"flashcard": updated})
}

// DeleteFlashcard godoc
// DELETE /api/v1/flashcards/:flashcard_id
func (h *FlashcardHandler) DeleteFlashcard(c *gin.Context) {
	if err := h.flashcards.Delete(upstreamCtx(c), c.Param("flashcard_id")); err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}
