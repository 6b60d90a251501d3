package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/platform/apierr"
)

func TestSanitizeMessage(t *testing.T) {
	cases := map[string]string{
		"":                                   "internal server error",
		"subject not found":                  "subject not found",
		"<!DOCTYPE html><html>502</html>":    "upstream service error",
		"gateway said <b>nope</b>":           "upstream service error",
		strings.Repeat("x", maxMessageLen):   strings.Repeat("x", maxMessageLen),
		strings.Repeat("x", maxMessageLen+1): "upstream service error",
	}
	for in, want := range cases {
		if got := SanitizeMessage(in); got != want {
			t.Fatalf("SanitizeMessage(%.30q) = %q, want %q", in, got, want)
		}
	}
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"bad request", apierr.BadRequest("name is required"), http.StatusBadRequest, "name is required"},
		{"not found", apierr.NotFound("topic"), http.StatusNotFound, "topic not found"},
		{"gorm not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), http.StatusNotFound, "not found"},
		{"forbidden", apierr.ErrForbidden, http.StatusNotFound, "not found"},
		{"upstream html", apierr.Upstream("tutor reply", errors.New("<html>bad gateway</html>")), http.StatusBadGateway, "upstream service error"},
		{"internal", errors.New("pq: connection refused at 10.0.0.3"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			RespondError(c, tc.err)
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			var body ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tc.wantMsg {
				t.Fatalf("error = %q, want %q", body.Error, tc.wantMsg)
			}
		})
	}
}
