package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studypath-backend/internal/http/response"
	"github.com/yungbote/studypath-backend/internal/services"
)

type ChatHandler struct {
	chat services.ChatService
}

func NewChatHandler(chat services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// POST /api/chat/send
// body: { "subject_id": "...", "thread_id": "..."?, "message": "..." }
func (h *ChatHandler) Send(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.SendMessageInput
	if !bindJSON(c, &req) {
		return
	}
	exchange, err := h.chat.SendMessage(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, exchange)
}

// GET /api/chat/threads/:subjectId
func (h *ChatHandler) ListThreads(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subjectID, ok := uuidParam(c, "subjectId")
	if !ok {
		return
	}
	threads, err := h.chat.ListThreads(c.Request.Context(), userID, subjectID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, threads)
}

// GET /api/chat/messages/:threadId
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	threadID, ok := uuidParam(c, "threadId")
	if !ok {
		return
	}
	messages, err := h.chat.ListMessages(c.Request.Context(), userID, threadID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, messages)
}

// PUT /api/chat/threads/:threadId
func (h *ChatHandler) RenameThread(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	threadID, ok := uuidParam(c, "threadId")
	if !ok {
		return
	}
	var req services.RenameThreadInput
	if !bindJSON(c, &req) {
		return
	}
	thread, err := h.chat.RenameThread(c.Request.Context(), userID, threadID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, thread)
}

// DELETE /api/chat/threads/:threadId
func (h *ChatHandler) DeleteThread(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	threadID, ok := uuidParam(c, "threadId")
	if !ok {
		return
	}
	if err := h.chat.DeleteThread(c.Request.Context(), userID, threadID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
