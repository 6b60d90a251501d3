package homework

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

type ScanHistoryRepo interface {
	Create(dbc dbctx.Context, rows []*types.ScanHistory) ([]*types.ScanHistory, error)
	ListBySubject(dbc dbctx.Context, userID, subjectID uuid.UUID) ([]*types.ScanHistory, error)
	// DeleteBySubject removes the rows and returns them so stored images can be
	// cleaned up afterwards. A zero userID matches every owner.
	DeleteBySubject(dbc dbctx.Context, userID, subjectID uuid.UUID) ([]*types.ScanHistory, error)
}

type scanHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScanHistoryRepo(db *gorm.DB, baseLog *logger.Logger) ScanHistoryRepo {
	return &scanHistoryRepo{db: db, log: baseLog.With("repo", "ScanHistoryRepo")}
}

func (r *scanHistoryRepo) Create(dbc dbctx.Context, rows []*types.ScanHistory) ([]*types.ScanHistory, error) {
	if len(rows) == 0 {
		return []*types.ScanHistory{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *scanHistoryRepo) ListBySubject(dbc dbctx.Context, userID, subjectID uuid.UUID) ([]*types.ScanHistory, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ScanHistory
	if err := txx.WithContext(dbc.Ctx).
		Where("user_id = ? AND subject_id = ?", userID, subjectID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scanHistoryRepo) DeleteBySubject(dbc dbctx.Context, userID, subjectID uuid.UUID) ([]*types.ScanHistory, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).Where("subject_id = ?", subjectID)
	if userID != uuid.Nil {
		q = q.Where("user_id = ?", userID)
	}
	var rows []*types.ScanHistory
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	if err := txx.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.ScanHistory{}).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
