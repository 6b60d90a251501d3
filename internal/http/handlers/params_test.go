package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type filler struct{ left int64 }

func (f *filler) Read(p []byte) (int, error) {
	if f.left <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > f.left {
		p = p[:f.left]
	}
	for i := range p {
		p[i] = 'x'
	}
	f.left -= int64(len(p))
	return len(p), nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func uploadRouter(limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/upload", func(c *gin.Context) {
		file, ok := readFormFile(c, "file", limit)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"size": len(file.Data)})
	})
	return r
}

func TestReadFormFileStopsReadingOversizedBody(t *testing.T) {
	const limit = 1 << 10
	const payload = 50 << 20
	boundary := "studypath-boundary"
	head := "--" + boundary + "\r\n" +
		`Content-Disposition: form-data; name="file"; filename="big.bin"` + "\r\n" +
		"Content-Type: application/octet-stream\r\n\r\n"
	tail := "\r\n--" + boundary + "--\r\n"

	body := &countingReader{r: io.MultiReader(
		strings.NewReader(head),
		&filler{left: payload},
		strings.NewReader(tail),
	)}
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	if req.ContentLength != -1 {
		t.Fatalf("expected an unknown content length, got %d", req.ContentLength)
	}

	rec := httptest.NewRecorder()
	uploadRouter(limit).ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	// The multipart reader buffers a little past the cap, never the payload.
	if max := int64(limit) + multipartOverhead + 64<<10; body.n > max {
		t.Fatalf("read %d bytes from the body, want at most %d", body.n, max)
	}
}

func TestReadFormFileRejectsDeclaredLength(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("ignored"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	req.ContentLength = 10 << 20

	rec := httptest.NewRecorder()
	uploadRouter(1<<10).ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReadFormFileAcceptsSmallUpload(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	uploadRouter(1<<10).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"size":5`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
