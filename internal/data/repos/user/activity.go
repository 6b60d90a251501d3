package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

type UserActivityRepo interface {
	// Get returns an empty record (not an error) for users with no activity.
	Get(dbc dbctx.Context, userID uuid.UUID) (*types.UserActivity, error)
	Increment(dbc dbctx.Context, userID uuid.UUID, day string) (*types.UserActivity, error)
}

type userActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserActivityRepo(db *gorm.DB, baseLog *logger.Logger) UserActivityRepo {
	return &userActivityRepo{db: db, log: baseLog.With("repo", "UserActivityRepo")}
}

func (r *userActivityRepo) Get(dbc dbctx.Context, userID uuid.UUID) (*types.UserActivity, error) {
	var out types.UserActivity
	err := dbc.Conn(r.db).Where("user_id = ?", userID).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &types.UserActivity{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userActivityRepo) Increment(dbc dbctx.Context, userID uuid.UUID, day string) (*types.UserActivity, error) {
	var result *types.UserActivity
	err := dbc.Conn(r.db).Transaction(func(txx *gorm.DB) error {
		var row types.UserActivity
		err := txx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			Take(&row).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		row.UserID = userID
		counts := row.Counts()
		counts[day]++
		if err := row.SetCounts(counts); err != nil {
			return err
		}
		row.UpdatedAt = time.Now().UTC()
		if err := txx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"activity", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}
		result = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
