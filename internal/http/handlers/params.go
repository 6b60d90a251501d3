package handlers

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/studypath-backend/internal/http/response"
	"github.com/yungbote/studypath-backend/internal/platform/apierr"
	"github.com/yungbote/studypath-backend/internal/platform/ctxutil"
)

// DefaultMaxUploadBytes applies when a handler is built with a zero limit.
const DefaultMaxUploadBytes int64 = 10 << 20

// currentUser returns the authenticated user id, writing a 401 when the auth
// middleware did not run.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		response.RespondError(c, apierr.Unauthorized("not authenticated"))
		return uuid.Nil, false
	}
	return userID, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		response.RespondBadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		if errors.Is(err, io.EOF) {
			response.RespondBadRequest(c, "request body is required")
		} else {
			response.RespondBadRequest(c, "invalid request body")
		}
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, out any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(out); err != nil && !errors.Is(err, io.EOF) {
		response.RespondBadRequest(c, "invalid request body")
		return false
	}
	return true
}

type uploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// multipartOverhead is the slack allowed on top of the file limit for part
// headers, boundaries and small form fields.
const multipartOverhead int64 = 64 << 10

// readFormFile caps the request body before parsing it, so an oversized
// upload fails after roughly maxBytes have been read.
func readFormFile(c *gin.Context, field string, maxBytes int64) (*uploadedFile, bool) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	bodyLimit := maxBytes + multipartOverhead
	if c.Request.ContentLength > bodyLimit {
		respondTooLarge(c, field)
		return nil, false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)

	fh, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondTooLarge(c, field)
		case errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart):
			response.RespondBadRequest(c, field+" is required")
		default:
			response.RespondBadRequest(c, "invalid multipart body")
		}
		return nil, false
	}
	if fh.Size > maxBytes {
		respondTooLarge(c, field)
		return nil, false
	}
	data, err := readLimited(fh, maxBytes)
	if err != nil {
		response.RespondError(c, err)
		return nil, false
	}
	return &uploadedFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

func readLimited(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, apierr.BadRequest("could not read upload")
	}
	defer f.Close()
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, apierr.BadRequest("could not read upload")
	}
	if n > maxBytes {
		return nil, apierr.New(http.StatusRequestEntityTooLarge, "too_large", errors.New("upload is too large"))
	}
	return buf.Bytes(), nil
}

func respondTooLarge(c *gin.Context, field string) {
	response.RespondError(c, apierr.New(http.StatusRequestEntityTooLarge, "too_large", errors.New(field+" is too large")))
}
