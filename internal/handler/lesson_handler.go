package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studyhall/studyhall-gateway/internal/response"
	"github.com/studyhall/studyhall-gateway/internal/store"
)

// LessonHandler serves lesson browsing (detail only; the attempt endpoints
// own the answerable payload).
type LessonHandler struct {
	lessons *store.LessonStore
}

// NewLessonHandler creates a new LessonHandler.
func NewLessonHandler(lessons *store.LessonStore) *LessonHandler {
	return &LessonHandler{lessons: lessons}
}

// GetLesson godoc
// GET /api/v1/lessons/:lesson_id
// Returns the lesson for preview, with correct references stripped.
func (h *LessonHandler) GetLesson(c *gin.Context) {
	lessonID := c.Param("lesson_id")
	if lessonID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	lesson, err := h.lessons.FetchByID(upstreamCtx(c), lessonID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"lesson": lesson})
}
