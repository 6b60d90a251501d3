package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studypath-backend/internal/http/response"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

// Recovery turns a handler panic into a plain 500 JSON body.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		if log != nil {
			log.Error("Handler panic", "path", c.Request.URL.Path, "method", c.Request.Method, "panic", fmt.Sprint(recovered))
		}
		if c.Writer.Written() {
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.ErrorBody{Error: "internal server error"})
	})
}
