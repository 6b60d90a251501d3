package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studypath-backend/internal/http/response"
	"github.com/yungbote/studypath-backend/internal/services"
)

type SubjectHandler struct {
	subjects services.SubjectService
	jobs     services.JobService
}

func NewSubjectHandler(subjects services.SubjectService, jobs services.JobService) *SubjectHandler {
	return &SubjectHandler{subjects: subjects, jobs: jobs}
}

// POST /api/subjects
func (h *SubjectHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.CreateSubjectInput
	if !bindJSON(c, &req) {
		return
	}
	subject, err := h.subjects.CreateSubject(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, subject)
}

// GET /api/subjects?q=
func (h *SubjectHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subjects, err := h.subjects.ListSubjects(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, subjects)
}

// GET /api/subjects/:id
func (h *SubjectHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subjectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	subject, err := h.subjects.GetSubject(c.Request.Context(), userID, subjectID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, subject)
}

// PATCH /api/subjects/:id
func (h *SubjectHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subjectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateSubjectInput
	if !bindJSON(c, &req) {
		return
	}
	subject, err := h.subjects.UpdateSubject(c.Request.Context(), userID, subjectID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, subject)
}

// DELETE /api/subjects/:id
func (h *SubjectHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subjectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.subjects.DeleteSubject(c.Request.Context(), userID, subjectID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /api/subjects/:id/reset
// body: { "topics": ["..."] } (optional; the syllabus is regenerated when absent)
func (h *SubjectHandler) Reset(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subjectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Topics []string `json:"topics"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}
	subject, err := h.subjects.ResetSubject(c.Request.Context(), userID, subjectID, req.Topics)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, subject)
}

// GET /api/jobs/subject/:id
func (h *SubjectHandler) ListJobs(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subjectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	jobs, err := h.jobs.ListBySubject(c.Request.Context(), userID, subjectID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"jobs": jobs})
}
