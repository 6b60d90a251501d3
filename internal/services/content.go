package services

import (
	"context"
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

type QuizView struct {
	Questions []*types.QuizQuestion `json:"questions"`
	Result    *types.QuizResult     `json:"result"`
}

type QuizResultInput struct {
	Score  *int `json:"score" validate:"required,gte=0"`
	Total  int  `json:"total" validate:"omitempty,gte=1"`
	Passed bool `json:"passed"`
}

type ContentService interface {
	GetContent(ctx context.Context, userID, topicID uuid.UUID, mode, language string) (*types.TopicContent, error)
	GetQuiz(ctx context.Context, userID, topicID uuid.UUID, language string) (*QuizView, error)
	// RequestGeneration queues (or reuses) a generation job for the topic.
	RequestGeneration(ctx context.Context, userID, topicID uuid.UUID, language string) (*types.GenerationJob, error)
	// SubmitQuizResult keeps one result per (topic, user); a passing result
	// also marks the topic passed.
	SubmitQuizResult(ctx context.Context, userID, topicID uuid.UUID, in QuizResultInput) (*types.QuizResult, error)
}

type contentService struct {
	db           *gorm.DB
	log          *logger.Logger
	subjectRepo  repos.SubjectRepo
	topicRepo    repos.TopicRepo
	contentRepo  repos.TopicContentRepo
	questionRepo repos.QuizQuestionRepo
	resultRepo   repos.QuizResultRepo
	jobService   JobService
}

func NewContentService(
	db *gorm.DB,
	log *logger.Logger,
	subjectRepo repos.SubjectRepo,
	topicRepo repos.TopicRepo,
	contentRepo repos.TopicContentRepo,
	questionRepo repos.QuizQuestionRepo,
	resultRepo repos.QuizResultRepo,
	jobService JobService,
) ContentService {
	return &contentService{
		db:           db,
		log:          log.With("service", "ContentService"),
		subjectRepo:  subjectRepo,
		topicRepo:    topicRepo,
		contentRepo:  contentRepo,
		questionRepo: questionRepo,
		resultRepo:   resultRepo,
		jobService:   jobService,
	}
}

// resolve loads the owned topic and fills an empty language from its subject.
func (cs *contentService) resolve(dbc dbctx.Context, userID, topicID uuid.UUID, language string) (*types.Topic, string, error) {
	topic, err := ownedTopic(dbc, cs.topicRepo, userID, topicID)
	if err != nil {
		return nil, "", err
	}
	language = strings.TrimSpace(language)
	if language != "" {
		return topic, language, nil
	}
	subject, err := cs.subjectRepo.GetByID(dbc, topic.SubjectID)
	if err != nil {
		return nil, "", notFoundOr(err, "subject")
	}
	return topic, subject.Language, nil
}

func (cs *contentService) GetContent(ctx context.Context, userID, topicID uuid.UUID, mode, language string) (*types.TopicContent, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if !types.IsContentMode(mode) {
		return nil, apierr.BadRequest("mode must be one of: %s", strings.Join(types.ContentModes, ", "))
	}
	dbc := dbctx.Context{Ctx: ctx}
	_, language, err := cs.resolve(dbc, userID, topicID, language)
	if err != nil {
		return nil, err
	}
	content, err := cs.contentRepo.Get(dbc, topicID, mode, language)
	if err != nil {
		return nil, notFoundOr(err, "content")
	}
	return content, nil
}

func (cs *contentService) GetQuiz(ctx context.Context, userID, topicID uuid.UUID, language string) (*QuizView, error) {
	dbc := dbctx.Context{Ctx: ctx}
	_, language, err := cs.resolve(dbc, userID, topicID, language)
	if err != nil {
		return nil, err
	}
	questions, err := cs.questionRepo.ListByTopic(dbc, topicID, language)
	if err != nil {
		return nil, fmt.Errorf("list quiz questions: %w", err)
	}
	if questions == nil {
		questions = []*types.QuizQuestion{}
	}
	result, err := cs.resultRepo.Get(dbc, topicID, userID)
	if err != nil {
		return nil, fmt.Errorf("load quiz result: %w", err)
	}
	return &QuizView{Questions: questions, Result: result}, nil
}

func (cs *contentService) RequestGeneration(ctx context.Context, userID, topicID uuid.UUID, language string) (*types.GenerationJob, error) {
	dbc := dbctx.Context{Ctx: ctx}
	topic, language, err := cs.resolve(dbc, userID, topicID, language)
	if err != nil {
		return nil, err
	}
	if len(language) < 2 || len(language) > 10 {
		return nil, apierr.BadRequest("language must be 2 to 10 characters")
	}
	return cs.jobService.EnqueueTopic(dbc, userID, topic.SubjectID, topic.ID, language)
}

func (cs *contentService) SubmitQuizResult(ctx context.Context, userID, topicID uuid.UUID, in QuizResultInput) (*types.QuizResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Total == 0 {
		in.Total = types.QuizQuestionsPerTopic
	}
	if *in.Score > in.Total {
		return nil, apierr.BadRequest("score must not exceed total")
	}

	var saved *types.QuizResult
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := ownedTopic(dbc, cs.topicRepo, userID, topicID); err != nil {
			return err
		}
		res, err := cs.resultRepo.Upsert(dbc, &types.QuizResult{
			TopicID: topicID,
			UserID:  userID,
			Score:   *in.Score,
			Total:   in.Total,
			Passed:  in.Passed,
		})
		if err != nil {
			return fmt.Errorf("save quiz result: %w", err)
		}
		saved = res
		if in.Passed {
			return markTopicPassed(dbc, cs.topicRepo, topicID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
