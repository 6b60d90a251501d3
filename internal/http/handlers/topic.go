package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studypath-backend/internal/http/response"
	"github.com/yungbote/studypath-backend/internal/services"
)

type TopicHandler struct {
	topics services.TopicService
}

func NewTopicHandler(topics services.TopicService) *TopicHandler {
	return &TopicHandler{topics: topics}
}

// GET /api/topics/subject/:id
func (h *TopicHandler) ListBySubject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subjectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	topics, err := h.topics.ListTopics(c.Request.Context(), userID, subjectID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, topics)
}

// PATCH /api/topics/:id
func (h *TopicHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	topicID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateTopicInput
	if !bindJSON(c, &req) {
		return
	}
	topic, err := h.topics.UpdateTopic(c.Request.Context(), userID, topicID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, topic)
}

// PUT /api/topics/reorder
// body: { "topics": [{ "id": "...", "order": 0 }] }
func (h *TopicHandler) Reorder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.ReorderInput
	if !bindJSON(c, &req) {
		return
	}
	if err := h.topics.ReorderTopics(c.Request.Context(), userID, req); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/topics/:id/pass
func (h *TopicHandler) Pass(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	topicID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	topic, err := h.topics.PassTopic(c.Request.Context(), userID, topicID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, topic)
}
