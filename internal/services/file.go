package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/studypath-backend/internal/learning/prompts"
	"github.com/yungbote/studypath-backend/internal/platform/apierr"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/gcp"
	"github.com/yungbote/studypath-backend/internal/platform/llm"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

type FileInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

type UploadResult struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type PDFUploadResult struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	Text string `json:"text"`
}

type FileService interface {
	// UploadPDF stores the document and extracts its text with the LLM.
	UploadPDF(ctx context.Context, userID uuid.UUID, in FileInput) (*PDFUploadResult, error)
	Upload(ctx context.Context, userID uuid.UUID, in FileInput) (*UploadResult, error)
}

type fileService struct {
	log           *logger.Logger
	llm           llm.Client
	bucketService gcp.BucketService
}

func NewFileService(baseLog *logger.Logger, client llm.Client, bucketService gcp.BucketService) FileService {
	return &fileService{
		log:           baseLog.With("service", "FileService"),
		llm:           client,
		bucketService: bucketService,
	}
}

func (fs *fileService) UploadPDF(ctx context.Context, userID uuid.UUID, in FileInput) (*PDFUploadResult, error) {
	if len(in.Data) == 0 {
		return nil, apierr.BadRequest("file is required")
	}
	if !isPDF(in) {
		return nil, apierr.BadRequest("file must be a PDF")
	}

	dbc := dbctx.Context{Ctx: ctx}
	key := fmt.Sprintf("%s/%s.pdf", userID, uuid.New())
	fs.log.Info("Uploading document to bucket", "storage_key", key, "size", len(in.Data))
	if err := fs.bucketService.UploadFile(dbc, gcp.BucketCategoryDocument, key, bytes.NewReader(in.Data)); err != nil {
		fs.log.Error("UploadFile failed", "error", err, "storage_key", key)
		return nil, apierr.Upstream("document upload", err)
	}

	p, err := prompts.Build(prompts.PromptPDFExtract, prompts.Input{FileName: safeFileName(in.FileName)})
	if err != nil {
		return nil, err
	}
	text, err := fs.llm.GenerateWithAttachments(ctx, p.System, p.User, []llm.Attachment{
		{MimeType: "application/pdf", Data: in.Data},
	})
	if err != nil {
		fs.log.Warn("PDF text extraction failed", "storage_key", key, "error", err)
		return nil, apierr.Upstream("text extraction", err)
	}
	return &PDFUploadResult{
		URL:  fs.bucketService.GetPublicURL(gcp.BucketCategoryDocument, key),
		Key:  key,
		Text: strings.TrimSpace(text),
	}, nil
}

func (fs *fileService) Upload(ctx context.Context, userID uuid.UUID, in FileInput) (*UploadResult, error) {
	if len(in.Data) == 0 {
		return nil, apierr.BadRequest("file is required")
	}
	ext := strings.ToLower(filepath.Ext(safeFileName(in.FileName)))
	if len(ext) > 10 || strings.Contains(ext, " ") {
		ext = ""
	}
	key := fmt.Sprintf("%s/%s%s", userID, uuid.New(), ext)

	contentType := strings.TrimSpace(in.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = gcp.ContentTypeForKey(key)
	}
	if contentType == "" {
		contentType = http.DetectContentType(in.Data)
	}

	if err := fs.bucketService.UploadFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryUpload, key, bytes.NewReader(in.Data)); err != nil {
		fs.log.Error("UploadFile failed", "error", err, "storage_key", key)
		return nil, apierr.Upstream("file upload", err)
	}
	return &UploadResult{
		URL:         fs.bucketService.GetPublicURL(gcp.BucketCategoryUpload, key),
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(in.Data)),
	}, nil
}

// isPDF trusts the magic bytes, not the client's content type.
func isPDF(in FileInput) bool {
	return bytes.HasPrefix(in.Data, []byte("%PDF-"))
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._ -]+`)

func safeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFileChars.ReplaceAllString(name, "")
	if name == "." || name == "/" {
		return ""
	}
	return truncateRunes(strings.TrimSpace(name), 120)
}
