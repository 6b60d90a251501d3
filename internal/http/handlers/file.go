package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studypath-backend/internal/http/response"
	"github.com/yungbote/studypath-backend/internal/services"
)

type FileHandler struct {
	files    services.FileService
	maxBytes int64
}

func NewFileHandler(files services.FileService, maxUploadBytes int64) *FileHandler {
	return &FileHandler{files: files, maxBytes: maxUploadBytes}
}

// POST /api/pdf/upload-pdf (multipart: file)
func (h *FileHandler) UploadPDF(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	file, ok := readFormFile(c, "file", h.maxBytes)
	if !ok {
		return
	}
	out, err := h.files.UploadPDF(c.Request.Context(), userID, services.FileInput{
		FileName:    file.Name,
		ContentType: file.ContentType,
		Data:        file.Data,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/upload (multipart: file)
func (h *FileHandler) Upload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	file, ok := readFormFile(c, "file", h.maxBytes)
	if !ok {
		return
	}
	out, err := h.files.Upload(c.Request.Context(), userID, services.FileInput{
		FileName:    file.Name,
		ContentType: file.ContentType,
		Data:        file.Data,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}
