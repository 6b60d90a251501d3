package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/data/repos"
	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/apierr"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

type JobService interface {
	// EnqueueTopic queues generation for (topic, language). A queued or
	// running job for the same key is returned instead of a new one; a failed
	// job with attempts left is moved back to queued and returned.
	EnqueueTopic(dbc dbctx.Context, userID, subjectID, topicID uuid.UUID, language string) (*types.GenerationJob, error)
	// EnqueueSubject queues every topic of the subject.
	EnqueueSubject(dbc dbctx.Context, userID, subjectID uuid.UUID, language string) ([]*types.GenerationJob, error)
	ListBySubject(ctx context.Context, userID, subjectID uuid.UUID) ([]*types.GenerationJob, error)
}

type jobService struct {
	log         *logger.Logger
	jobRepo     repos.GenerationJobRepo
	subjectRepo repos.SubjectRepo
	topicRepo   repos.TopicRepo
	maxAttempts int
}

// NewJobService takes the worker's attempt budget so it agrees with the
// worker on which failed jobs are still pending.
func NewJobService(
	log *logger.Logger,
	jobRepo repos.GenerationJobRepo,
	subjectRepo repos.SubjectRepo,
	topicRepo repos.TopicRepo,
	maxAttempts int,
) JobService {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &jobService{
		log:         log.With("service", "JobService"),
		jobRepo:     jobRepo,
		subjectRepo: subjectRepo,
		topicRepo:   topicRepo,
		maxAttempts: maxAttempts,
	}
}

func (s *jobService) EnqueueTopic(dbc dbctx.Context, userID, subjectID, topicID uuid.UUID, language string) (*types.GenerationJob, error) {
	language = strings.TrimSpace(language)
	if language == "" {
		language = types.DefaultLanguage
	}
	existing, err := s.jobRepo.FindActive(dbc, topicID, language, s.maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("find active job: %w", err)
	}
	if existing != nil && existing.Status == types.JobStatusFailed {
		// Retry now instead of waiting out the delay; attempts are kept.
		if err := s.jobRepo.UpdateFields(dbc, existing.ID, map[string]interface{}{
			"status":        types.JobStatusQueued,
			"last_error_at": nil,
		}); err != nil {
			return nil, fmt.Errorf("requeue job: %w", err)
		}
		existing.Status = types.JobStatusQueued
		existing.LastErrorAt = nil
	}
	if existing != nil {
		return existing, nil
	}
	job := &types.GenerationJob{
		UserID:    userID,
		SubjectID: subjectID,
		TopicID:   topicID,
		Language:  language,
		Status:    types.JobStatusQueued,
	}
	if _, err := s.jobRepo.Create(dbc, []*types.GenerationJob{job}); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.log.Debug("Generation job queued", "job_id", job.ID, "topic_id", topicID, "language", language)
	return job, nil
}

func (s *jobService) EnqueueSubject(dbc dbctx.Context, userID, subjectID uuid.UUID, language string) ([]*types.GenerationJob, error) {
	topicIDs, err := s.topicRepo.ListIDsBySubject(dbc, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	out := make([]*types.GenerationJob, 0, len(topicIDs))
	for _, topicID := range topicIDs {
		job, err := s.EnqueueTopic(dbc, userID, subjectID, topicID, language)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}

func (s *jobService) ListBySubject(ctx context.Context, userID, subjectID uuid.UUID) ([]*types.GenerationJob, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.subjectRepo.GetByIDForUser(dbc, userID, subjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("subject")
		}
		return nil, err
	}
	return s.jobRepo.ListBySubject(dbc, subjectID)
}
