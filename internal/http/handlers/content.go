package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studypath-backend/internal/http/response"
	"github.com/yungbote/studypath-backend/internal/services"
)

type ContentHandler struct {
	content  services.ContentService
	syllabus services.SyllabusService
}

func NewContentHandler(content services.ContentService, syllabus services.SyllabusService) *ContentHandler {
	return &ContentHandler{content: content, syllabus: syllabus}
}

// GET /api/content/:topicId/:mode?language=xx
// mode "quiz" returns the question set and the caller's latest result.
func (h *ContentHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	topicID, ok := uuidParam(c, "topicId")
	if !ok {
		return
	}
	language := c.Query("language")
	mode := strings.ToLower(strings.TrimSpace(c.Param("mode")))
	if mode == "quiz" {
		quiz, err := h.content.GetQuiz(c.Request.Context(), userID, topicID, language)
		if err != nil {
			response.RespondError(c, err)
			return
		}
		response.RespondOK(c, quiz)
		return
	}
	content, err := h.content.GetContent(c.Request.Context(), userID, topicID, mode, language)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, content)
}

// POST /api/content/:topicId/generate
// body: { "language": "en" } (optional)
func (h *ContentHandler) Generate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	topicID, ok := uuidParam(c, "topicId")
	if !ok {
		return
	}
	var req struct {
		Language string `json:"language"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}
	job, err := h.content.RequestGeneration(c.Request.Context(), userID, topicID, req.Language)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

// POST /api/content/:topicId/quiz-result
func (h *ContentHandler) SubmitQuizResult(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	topicID, ok := uuidParam(c, "topicId")
	if !ok {
		return
	}
	var req services.QuizResultInput
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.content.SubmitQuizResult(c.Request.Context(), userID, topicID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, result)
}

// POST /api/ai/generate-syllabus
func (h *ContentHandler) GenerateSyllabus(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	var req services.SyllabusInput
	if !bindJSON(c, &req) {
		return
	}
	topics, err := h.syllabus.GenerateSyllabus(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"topics": topics})
}
