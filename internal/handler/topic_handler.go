package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studyhall/studyhall-gateway/internal/model"
	"github.com/studyhall/studyhall-gateway/internal/response"
	"github.com/studyhall/studyhall-gateway/internal/store"
)

// TopicHandler serves the topic catalog endpoints.
type TopicHandler struct {
	topics *store.TopicStore
}

// NewTopicHandler creates a new TopicHandler.
func NewTopicHandler(topics *store.TopicStore) *TopicHandler {
	return &TopicHandler{topics: topics}
}

// ListTopics godoc
// GET /api/v1/topics
func (h *TopicHandler) ListTopics(c *gin.Context) {
	topics, err := h.topics.FetchList(upstreamCtx(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	if topics == nil {
		topics = []model.Topic{}
	}
	response.Success(c, http.StatusOK, gin.H{"topics": topics})
}

// GetTopic godoc
// GET /api/v1/topics/:topic_id
func (h *TopicHandler) GetTopic(c *gin.Context) {
	topic, err := h.topics.FetchByID(upstreamCtx(c), c.Param("topic_id"))
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"topic": topic})
}
