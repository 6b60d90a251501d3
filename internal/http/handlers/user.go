package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studypath-backend/internal/http/response"
	"github.com/yungbote/studypath-backend/internal/services"
)

type UserHandler struct {
	users   services.UserService
	streaks services.StreakService
}

func NewUserHandler(users services.UserService, streaks services.StreakService) *UserHandler {
	return &UserHandler{users: users, streaks: streaks}
}

// GET /api/profile?tz=Area/City
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.users.GetProfile(c.Request.Context(), c.Query("tz"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, profile)
}

// PUT /api/profile/name
func (h *UserHandler) UpdateName(c *gin.Context) {
	var req services.UpdateNameInput
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.users.UpdateName(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, u)
}

// PUT /api/profile/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordInput
	if !bindJSON(c, &req) {
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), req); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /api/profile/email
func (h *UserHandler) UpdateEmail(c *gin.Context) {
	var req services.UpdateEmailInput
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.users.UpdateEmail(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, u)
}

// GET /api/user/streak?tz=Area/City
func (h *UserHandler) GetStreak(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := h.streaks.GetStreak(c.Request.Context(), userID, c.Query("tz"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /api/user/streak?tz=Area/City
func (h *UserHandler) RecordActivity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	tz := c.Query("tz")
	if tz == "" {
		var req struct {
			TZ string `json:"tz"`
		}
		if !bindOptionalJSON(c, &req) {
			return
		}
		tz = req.TZ
	}
	view, err := h.streaks.RecordActivity(c.Request.Context(), userID, tz)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, view)
}
