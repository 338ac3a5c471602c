package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studyhall/studyhall-gateway/internal/model"
	"github.com/studyhall/studyhall-gateway/internal/response"
	"github.com/studyhall/studyhall-gateway/internal/store"
)

// CheckinHandler serves the daily check-in endpoints.
type CheckinHandler struct {
	checkins *store.CheckinStore
}

// NewCheckinHandler creates a new CheckinHandler.
func NewCheckinHandler(checkins *store.CheckinStore) *CheckinHandler {
	return &CheckinHandler{checkins: checkins}
}

// ListCheckins godoc
// GET /api/v1/checkins
func (h *CheckinHandler) ListCheckins(c *gin.Context) {
	checkins, err := h.checkins.FetchList(upstreamCtx(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	if checkins == nil {
		checkins = []model.Checkin{}
	}
	response.Success(c, http.StatusOK, gin.H{"checkins": checkins})
}

// MarkCheckin godoc
// POST /api/v1/checkins
// Marks today's check-in. The upstream computes streak and reward.
func (h *CheckinHandler) MarkCheckin(c *gin.Context) {
	checkin, err := h.checkins.Mark(upstreamCtx(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"checkin": checkin})
}
