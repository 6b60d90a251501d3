package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/studypath-backend/internal/http/response"
	"github.com/yungbote/studypath-backend/internal/services"
)

type ScanHandler struct {
	scans    services.ScanService
	maxBytes int64
}

func NewScanHandler(scans services.ScanService, maxUploadBytes int64) *ScanHandler {
	return &ScanHandler{scans: scans, maxBytes: maxUploadBytes}
}

// POST /api/scan/homework (multipart: image, subject_id, question?)
func (h *ScanHandler) Scan(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subjectID, err := uuid.Parse(strings.TrimSpace(c.PostForm("subject_id")))
	if err != nil {
		response.RespondBadRequest(c, "subject_id is required")
		return
	}
	file, ok := readFormFile(c, "image", h.maxBytes)
	if !ok {
		return
	}
	entry, err := h.scans.ScanHomework(c.Request.Context(), userID, services.ScanInput{
		SubjectID:   subjectID,
		Question:    c.PostForm("question"),
		ContentType: file.ContentType,
		Data:        file.Data,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, entry)
}

// GET /api/scan/history/:subjectId
func (h *ScanHandler) ListHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subjectID, ok := uuidParam(c, "subjectId")
	if !ok {
		return
	}
	rows, err := h.scans.ListHistory(c.Request.Context(), userID, subjectID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// DELETE /api/scan/history/:subjectId
func (h *ScanHandler) ClearHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subjectID, ok := uuidParam(c, "subjectId")
	if !ok {
		return
	}
	n, err := h.scans.ClearHistory(c.Request.Context(), userID, subjectID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "deleted": n})
}
