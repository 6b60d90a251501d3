package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/yungbote/studypath-backend/internal/data/repos"
	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/learning/prompts"
	"github.com/yungbote/studypath-backend/internal/platform/apierr"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/gcp"
	"github.com/yungbote/studypath-backend/internal/platform/llm"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

const scanMaxEdge = 1600

// scanMaxPixels bounds the decoded frame; the header is checked before any
// pixel data is allocated.
const scanMaxPixels = 50_000_000

var errScanImageTooLarge = errors.New("image dimensions too large")

type ScanInput struct {
	SubjectID   uuid.UUID `json:"subject_id" validate:"required"`
	Question    string    `json:"question" validate:"max=2000"`
	ContentType string    `json:"-"`
	Data        []byte    `json:"-"`
}

type ScanService interface {
	ScanHomework(ctx context.Context, userID uuid.UUID, in ScanInput) (*types.ScanHistory, error)
	ListHistory(ctx context.Context, userID, subjectID uuid.UUID) ([]*types.ScanHistory, error)
	// ClearHistory removes the user's entries for the subject and their images
	// (best-effort). It returns how many entries were removed.
	ClearHistory(ctx context.Context, userID, subjectID uuid.UUID) (int, error)
}

type scanService struct {
	log           *logger.Logger
	llm           llm.Client
	bucketService gcp.BucketService
	subjectRepo   repos.SubjectRepo
	scanRepo      repos.ScanHistoryRepo
}

func NewScanService(
	log *logger.Logger,
	client llm.Client,
	bucketService gcp.BucketService,
	subjectRepo repos.SubjectRepo,
	scanRepo repos.ScanHistoryRepo,
) ScanService {
	return &scanService{
		log:           log.With("service", "ScanService"),
		llm:           client,
		bucketService: bucketService,
		subjectRepo:   subjectRepo,
		scanRepo:      scanRepo,
	}
}

func (s *scanService) ScanHomework(ctx context.Context, userID uuid.UUID, in ScanInput) (*types.ScanHistory, error) {
	in.Question = strings.TrimSpace(in.Question)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if len(in.Data) == 0 {
		return nil, apierr.BadRequest("image is required")
	}
	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(in.Data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apierr.BadRequest("image must be an image file")
	}

	dbc := dbctx.Context{Ctx: ctx}
	subject, err := ownedSubject(dbc, s.subjectRepo, userID, in.SubjectID)
	if err != nil {
		return nil, err
	}

	jpeg, err := normalizeScanImage(in.Data)
	if errors.Is(err, errScanImageTooLarge) {
		return nil, apierr.BadRequest("image must be at most %d pixels", scanMaxPixels)
	}
	if err != nil {
		return nil, apierr.BadRequest("image could not be decoded")
	}

	key := fmt.Sprintf("%s/%s/%s.jpg", userID, subject.ID, uuid.New())
	if err := s.bucketService.UploadFile(dbc, gcp.BucketCategoryHomework, key, bytes.NewReader(jpeg)); err != nil {
		return nil, apierr.Upstream("image upload", err)
	}

	p, err := prompts.Build(prompts.PromptHomeworkScan, prompts.Input{
		SubjectName: subject.Name,
		Language:    subject.Language,
		Question:    in.Question,
	})
	if err != nil {
		return nil, err
	}
	answer, err := s.llm.GenerateWithAttachments(ctx, p.System, p.User, []llm.Attachment{
		{MimeType: "image/jpeg", Data: jpeg},
	})
	if err == nil && strings.TrimSpace(answer) == "" {
		err = fmt.Errorf("empty answer")
	}
	if err != nil {
		s.log.Warn("Homework analysis failed", "subject_id", subject.ID, "error", err)
		if delErr := s.bucketService.DeleteFile(dbc, gcp.BucketCategoryHomework, key); delErr != nil {
			s.log.Warn("failed to delete scan image (ignored)", "key", key, "error", delErr)
		}
		return nil, apierr.Upstream("homework analysis", err)
	}

	entry := &types.ScanHistory{
		UserID:    userID,
		SubjectID: subject.ID,
		ImageKey:  key,
		ImageURL:  s.bucketService.GetPublicURL(gcp.BucketCategoryHomework, key),
		Question:  in.Question,
		Answer:    strings.TrimSpace(answer),
	}
	if _, err := s.scanRepo.Create(dbc, []*types.ScanHistory{entry}); err != nil {
		if delErr := s.bucketService.DeleteFile(dbc, gcp.BucketCategoryHomework, key); delErr != nil {
			s.log.Warn("failed to delete scan image (ignored)", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("save scan history: %w", err)
	}
	return entry, nil
}

func (s *scanService) ListHistory(ctx context.Context, userID, subjectID uuid.UUID) ([]*types.ScanHistory, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := ownedSubject(dbc, s.subjectRepo, userID, subjectID); err != nil {
		return nil, err
	}
	rows, err := s.scanRepo.ListBySubject(dbc, userID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list scan history: %w", err)
	}
	if rows == nil {
		rows = []*types.ScanHistory{}
	}
	return rows, nil
}

func (s *scanService) ClearHistory(ctx context.Context, userID, subjectID uuid.UUID) (int, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := ownedSubject(dbc, s.subjectRepo, userID, subjectID); err != nil {
		return 0, err
	}
	rows, err := s.scanRepo.DeleteBySubject(dbc, userID, subjectID)
	if err != nil {
		return 0, fmt.Errorf("clear scan history: %w", err)
	}
	removeScanImages(ctx, s.log, s.bucketService, rows)
	return len(rows), nil
}

// normalizeScanImage applies EXIF orientation, fits the image within
// scanMaxEdge and re-encodes it as JPEG.
func normalizeScanImage(raw []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New("empty image")
	}
	if int64(cfg.Width)*int64(cfg.Height) > scanMaxPixels {
		return nil, errScanImageTooLarge
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	var fitted *image.NRGBA
	if b.Dx() > scanMaxEdge || b.Dy() > scanMaxEdge {
		fitted = imaging.Fit(img, scanMaxEdge, scanMaxEdge, imaging.Lanczos)
	} else {
		fitted = imaging.Clone(img)
	}
	// Transparent areas turn white rather than black in the JPEG.
	bg := imaging.New(fitted.Bounds().Dx(), fitted.Bounds().Dy(), color.White)
	flat := imaging.Overlay(bg, fitted, image.Pt(0, 0), 1.0)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func removeScanImages(ctx context.Context, log *logger.Logger, bucket gcp.BucketService, rows []*types.ScanHistory) {
	if bucket == nil {
		return
	}
	for _, row := range rows {
		if row == nil || row.ImageKey == "" {
			continue
		}
		if err := bucket.DeleteFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryHomework, row.ImageKey); err != nil {
			log.Warn("failed to delete scan image (ignored)", "key", row.ImageKey, "error", err)
		}
	}
}
