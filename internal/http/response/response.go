package response

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/platform/apierr"
)

const (
	maxMessageLen  = 200
	genericMessage = "upstream service error"
	internalError  = "internal server error"
)

type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// RespondError writes {"error": msg} with the status err maps to. Messages of
// unmapped errors never reach the client.
func RespondError(c *gin.Context, err error) {
	status := apierr.StatusOf(err)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		status = http.StatusNotFound
	}

	body := ErrorBody{Error: internalError}
	var ae *apierr.Error
	switch {
	case errors.As(err, &ae):
		body.Code = ae.Code
		body.Error = SanitizeMessage(err.Error())
	case status == http.StatusNotFound:
		body.Error = "not found"
	case status != http.StatusInternalServerError:
		body.Error = SanitizeMessage(err.Error())
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}

// RespondBadRequest is for malformed bodies and params caught before any
// service call.
func RespondBadRequest(c *gin.Context, msg string) {
	RespondError(c, apierr.BadRequest("%s", msg))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// SanitizeMessage collapses HTML pages and over-long provider messages into a
// generic one.
func SanitizeMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return internalError
	}
	lower := strings.ToLower(msg)
	if len([]rune(msg)) > maxMessageLen ||
		strings.Contains(lower, "<html") ||
		strings.Contains(lower, "<!doctype") ||
		strings.Contains(lower, "</") {
		return genericMessage
	}
	return msg
}
