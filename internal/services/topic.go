package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/data/repos"
	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/apierr"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

type UpdateTopicInput struct {
	Title *string `json:"title" validate:"omitempty,min=1,max=300"`
	Order *int    `json:"order" validate:"omitempty,gte=0"`
}

type TopicOrder struct {
	ID    uuid.UUID `json:"id" validate:"required"`
	Order int       `json:"order" validate:"gte=0"`
}

type ReorderInput struct {
	Topics []TopicOrder `json:"topics" validate:"required,min=1,dive"`
}

type TopicService interface {
	ListTopics(ctx context.Context, userID, subjectID uuid.UUID) ([]*types.Topic, error)
	UpdateTopic(ctx context.Context, userID, topicID uuid.UUID, in UpdateTopicInput) (*types.Topic, error)
	// ReorderTopics writes every position in one transaction. Any topic the
	// user does not own fails the whole request.
	ReorderTopics(ctx context.Context, userID uuid.UUID, in ReorderInput) error
	PassTopic(ctx context.Context, userID, topicID uuid.UUID) (*types.Topic, error)
}

type topicService struct {
	db          *gorm.DB
	log         *logger.Logger
	subjectRepo repos.SubjectRepo
	topicRepo   repos.TopicRepo
}

func NewTopicService(db *gorm.DB, log *logger.Logger, subjectRepo repos.SubjectRepo, topicRepo repos.TopicRepo) TopicService {
	return &topicService{
		db:          db,
		log:         log.With("service", "TopicService"),
		subjectRepo: subjectRepo,
		topicRepo:   topicRepo,
	}
}

func (ts *topicService) ListTopics(ctx context.Context, userID, subjectID uuid.UUID) ([]*types.Topic, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := ownedSubject(dbc, ts.subjectRepo, userID, subjectID); err != nil {
		return nil, err
	}
	topics, err := ts.topicRepo.ListBySubject(dbc, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	if topics == nil {
		topics = []*types.Topic{}
	}
	return topics, nil
}

func (ts *topicService) UpdateTopic(ctx context.Context, userID, topicID uuid.UUID, in UpdateTopicInput) (*types.Topic, error) {
	if in.Title != nil {
		*in.Title = strings.TrimSpace(*in.Title)
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := ownedTopic(dbc, ts.topicRepo, userID, topicID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Order != nil {
		updates["position"] = *in.Order
	}
	if len(updates) == 0 {
		return nil, apierr.BadRequest("no fields to update")
	}
	updates["updated_at"] = time.Now().UTC()
	if err := ts.topicRepo.UpdateFields(dbc, topicID, updates); err != nil {
		return nil, fmt.Errorf("update topic: %w", err)
	}
	return ts.topicRepo.GetByID(dbc, topicID)
}

func (ts *topicService) ReorderTopics(ctx context.Context, userID uuid.UUID, in ReorderInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	ids := make([]uuid.UUID, 0, len(in.Topics))
	seen := map[uuid.UUID]bool{}
	for _, t := range in.Topics {
		if seen[t.ID] {
			return apierr.BadRequest("topic %s listed twice", t.ID)
		}
		seen[t.ID] = true
		ids = append(ids, t.ID)
	}

	return ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := ts.topicRepo.GetByIDs(dbc, ids)
		if err != nil {
			return fmt.Errorf("load topics: %w", err)
		}
		owned := make(map[uuid.UUID]bool, len(found))
		for _, t := range found {
			if t.UserID == userID {
				owned[t.ID] = true
			}
		}
		now := time.Now().UTC()
		for _, t := range in.Topics {
			if !owned[t.ID] {
				return apierr.NotFound("topic")
			}
			if err := ts.topicRepo.UpdateFields(dbc, t.ID, map[string]interface{}{
				"position":   t.Order,
				"updated_at": now,
			}); err != nil {
				return fmt.Errorf("update topic order: %w", err)
			}
		}
		return nil
	})
}

func (ts *topicService) PassTopic(ctx context.Context, userID, topicID uuid.UUID) (*types.Topic, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := ownedTopic(dbc, ts.topicRepo, userID, topicID); err != nil {
		return nil, err
	}
	if err := markTopicPassed(dbc, ts.topicRepo, topicID); err != nil {
		return nil, err
	}
	return ts.topicRepo.GetByID(dbc, topicID)
}

func markTopicPassed(dbc dbctx.Context, topicRepo repos.TopicRepo, topicID uuid.UUID) error {
	now := time.Now().UTC()
	if err := topicRepo.UpdateFields(dbc, topicID, map[string]interface{}{
		"passed":     true,
		"passed_at":  now,
		"updated_at": now,
	}); err != nil {
		return fmt.Errorf("mark topic passed: %w", err)
	}
	return nil
}
