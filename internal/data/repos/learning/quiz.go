package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

type QuizQuestionRepo interface {
	// ReplaceSet swaps the whole question set for (topic, language) inside one
	// transaction. When dbc already carries a transaction it is reused.
	ReplaceSet(dbc dbctx.Context, topicID uuid.UUID, language string, questions []*types.QuizQuestion) error
	ListByTopic(dbc dbctx.Context, topicID uuid.UUID, language string) ([]*types.QuizQuestion, error)
	DeleteByTopicIDs(dbc dbctx.Context, topicIDs []uuid.UUID) error
}

type quizQuestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuizQuestionRepo {
	return &quizQuestionRepo{db: db, log: baseLog.With("repo", "QuizQuestionRepo")}
}

func (r *quizQuestionRepo) ReplaceSet(dbc dbctx.Context, topicID uuid.UUID, language string, questions []*types.QuizQuestion) error {
	return dbc.Conn(r.db).Transaction(func(txx *gorm.DB) error {
		if err := txx.
			Where("topic_id = ? AND language = ?", topicID, language).
			Delete(&types.QuizQuestion{}).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		for i, q := range questions {
			q.TopicID = topicID
			q.Language = language
			q.Position = i + 1
		}
		return txx.Create(&questions).Error
	})
}

func (r *quizQuestionRepo) ListByTopic(dbc dbctx.Context, topicID uuid.UUID, language string) ([]*types.QuizQuestion, error) {
	var out []*types.QuizQuestion
	if err := dbc.Conn(r.db).
		Where("topic_id = ? AND language = ?", topicID, language).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *quizQuestionRepo) DeleteByTopicIDs(dbc dbctx.Context, topicIDs []uuid.UUID) error {
	if len(topicIDs) == 0 {
		return nil
	}
	return dbc.Conn(r.db).Where("topic_id IN ?", topicIDs).Delete(&types.QuizQuestion{}).Error
}

type QuizResultRepo interface {
	Upsert(dbc dbctx.Context, result *types.QuizResult) (*types.QuizResult, error)
	// Get returns (nil, nil) when the user has no result for the topic.
	Get(dbc dbctx.Context, topicID, userID uuid.UUID) (*types.QuizResult, error)
	DeleteByTopicIDs(dbc dbctx.Context, topicIDs []uuid.UUID) error
}

type quizResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizResultRepo(db *gorm.DB, baseLog *logger.Logger) QuizResultRepo {
	return &quizResultRepo{db: db, log: baseLog.With("repo", "QuizResultRepo")}
}

func (r *quizResultRepo) Upsert(dbc dbctx.Context, result *types.QuizResult) (*types.QuizResult, error) {
	if result == nil {
		return nil, nil
	}
	now := time.Now().UTC()
	result.UpdatedAt = now
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}
	conn := dbc.Conn(r.db)
	if err := conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "topic_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "total", "passed", "updated_at"}),
	}).Create(result).Error; err != nil {
		return nil, err
	}
	// The conflicting row keeps its original id, so read it back.
	return r.Get(dbc, result.TopicID, result.UserID)
}

func (r *quizResultRepo) Get(dbc dbctx.Context, topicID, userID uuid.UUID) (*types.QuizResult, error) {
	var out types.QuizResult
	err := dbc.Conn(r.db).
		Where("topic_id = ? AND user_id = ?", topicID, userID).
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *quizResultRepo) DeleteByTopicIDs(dbc dbctx.Context, topicIDs []uuid.UUID) error {
	if len(topicIDs) == 0 {
		return nil
	}
	return dbc.Conn(r.db).Where("topic_id IN ?", topicIDs).Delete(&types.QuizResult{}).Error
}
