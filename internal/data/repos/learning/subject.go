package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

type SubjectRepo interface {
	Create(dbc dbctx.Context, subjects []*types.Subject) ([]*types.Subject, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Subject, error)
	// GetByIDForUser returns gorm.ErrRecordNotFound when the subject exists
	// but belongs to someone else.
	GetByIDForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Subject, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Subject, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type subjectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubjectRepo(db *gorm.DB, baseLog *logger.Logger) SubjectRepo {
	return &subjectRepo{db: db, log: baseLog.With("repo", "SubjectRepo")}
}

func (r *subjectRepo) Create(dbc dbctx.Context, subjects []*types.Subject) ([]*types.Subject, error) {
	if len(subjects) == 0 {
		return []*types.Subject{}, nil
	}
	if err := dbc.Conn(r.db).Create(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *subjectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Subject, error) {
	var out types.Subject
	if err := dbc.Conn(r.db).Where("id = ?", id).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *subjectRepo) GetByIDForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Subject, error) {
	var out types.Subject
	if err := dbc.Conn(r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *subjectRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Subject, error) {
	var out []*types.Subject
	if err := dbc.Conn(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *subjectRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.Conn(r.db).Model(&types.Subject{}).Where("id = ?", id).Updates(updates).Error
}

func (r *subjectRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.Conn(r.db).Where("id = ?", id).Delete(&types.Subject{}).Error
}
