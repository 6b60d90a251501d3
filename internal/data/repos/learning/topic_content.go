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

type TopicContentRepo interface {
	// Upsert writes every row keyed by (topic_id, mode, language) in a single
	// statement.
	Upsert(dbc dbctx.Context, rows []*types.TopicContent) error
	Get(dbc dbctx.Context, topicID uuid.UUID, mode, language string) (*types.TopicContent, error)
	ListByTopic(dbc dbctx.Context, topicID uuid.UUID, language string) ([]*types.TopicContent, error)
	DeleteByTopicIDs(dbc dbctx.Context, topicIDs []uuid.UUID) error
}

type topicContentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicContentRepo(db *gorm.DB, baseLog *logger.Logger) TopicContentRepo {
	return &topicContentRepo{db: db, log: baseLog.With("repo", "TopicContentRepo")}
}

func (r *topicContentRepo) Upsert(dbc dbctx.Context, rows []*types.TopicContent) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		row.UpdatedAt = now
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
	}
	return dbc.Conn(r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "topic_id"},
			{Name: "mode"},
			{Name: "language"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"content", "failed", "updated_at"}),
	}).Create(&rows).Error
}

func (r *topicContentRepo) Get(dbc dbctx.Context, topicID uuid.UUID, mode, language string) (*types.TopicContent, error) {
	var out types.TopicContent
	if err := dbc.Conn(r.db).
		Where("topic_id = ? AND mode = ? AND language = ?", topicID, mode, language).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *topicContentRepo) ListByTopic(dbc dbctx.Context, topicID uuid.UUID, language string) ([]*types.TopicContent, error) {
	var out []*types.TopicContent
	q := dbc.Conn(r.db).Where("topic_id = ?", topicID)
	if language != "" {
		q = q.Where("language = ?", language)
	}
	if err := q.Order("mode ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *topicContentRepo) DeleteByTopicIDs(dbc dbctx.Context, topicIDs []uuid.UUID) error {
	if len(topicIDs) == 0 {
		return nil
	}
	return dbc.Conn(r.db).Where("topic_id IN ?", topicIDs).Delete(&types.TopicContent{}).Error
}
