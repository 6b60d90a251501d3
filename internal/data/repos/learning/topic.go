package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

// TopicCounts is the per-subject progress aggregate.
type TopicCounts struct {
	SubjectID uuid.UUID
	Total     int
	Passed    int
}

type TopicRepo interface {
	Create(dbc dbctx.Context, topics []*types.Topic) ([]*types.Topic, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Topic, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Topic, error)
	ListBySubject(dbc dbctx.Context, subjectID uuid.UUID) ([]*types.Topic, error)
	ListIDsBySubject(dbc dbctx.Context, subjectID uuid.UUID) ([]uuid.UUID, error)
	// LockByID share-locks the topic row for the rest of dbc.Tx. Writers of
	// topic children take it so a concurrent delete either waits for them or
	// makes them see the topic gone.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Topic, error)
	// LockIDsBySubject is ListIDsBySubject with the rows locked for update.
	LockIDsBySubject(dbc dbctx.Context, subjectID uuid.UUID) ([]uuid.UUID, error)
	CountBySubjects(dbc dbctx.Context, subjectIDs []uuid.UUID) (map[uuid.UUID]TopicCounts, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteBySubject(dbc dbctx.Context, subjectID uuid.UUID) error
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo")}
}

func (r *topicRepo) Create(dbc dbctx.Context, topics []*types.Topic) ([]*types.Topic, error) {
	if len(topics) == 0 {
		return []*types.Topic{}, nil
	}
	if err := dbc.Conn(r.db).Create(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

func (r *topicRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Topic, error) {
	var out types.Topic
	if err := dbc.Conn(r.db).Where("id = ?", id).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *topicRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Topic, error) {
	var out []*types.Topic
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *topicRepo) ListBySubject(dbc dbctx.Context, subjectID uuid.UUID) ([]*types.Topic, error) {
	var out []*types.Topic
	if err := dbc.Conn(r.db).
		Where("subject_id = ?", subjectID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *topicRepo) ListIDsBySubject(dbc dbctx.Context, subjectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := dbc.Conn(r.db).
		Model(&types.Topic{}).
		Where("subject_id = ?", subjectID).
		Order("position ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *topicRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Topic, error) {
	var out types.Topic
	if err := dbc.Conn(r.db).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *topicRepo) LockIDsBySubject(dbc dbctx.Context, subjectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := dbc.Conn(r.db).
		Model(&types.Topic{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("subject_id = ?", subjectID).
		Order("position ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *topicRepo) CountBySubjects(dbc dbctx.Context, subjectIDs []uuid.UUID) (map[uuid.UUID]TopicCounts, error) {
	out := make(map[uuid.UUID]TopicCounts, len(subjectIDs))
	if len(subjectIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		SubjectID uuid.UUID
		Total     int
		Passed    int
	}
	if err := dbc.Conn(r.db).
		Model(&types.Topic{}).
		Select("subject_id, COUNT(*) AS total, SUM(CASE WHEN passed THEN 1 ELSE 0 END) AS passed").
		Where("subject_id IN ?", subjectIDs).
		Group("subject_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.SubjectID] = TopicCounts{SubjectID: row.SubjectID, Total: row.Total, Passed: row.Passed}
	}
	return out, nil
}

func (r *topicRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.Conn(r.db).Model(&types.Topic{}).Where("id = ?", id).Updates(updates).Error
}

func (r *topicRepo) DeleteBySubject(dbc dbctx.Context, subjectID uuid.UUID) error {
	return dbc.Conn(r.db).Where("subject_id = ?", subjectID).Delete(&types.Topic{}).Error
}
