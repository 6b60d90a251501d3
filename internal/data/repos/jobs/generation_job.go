package jobs

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

type GenerationJobRepo interface {
	Create(dbc dbctx.Context, jobs []*types.GenerationJob) ([]*types.GenerationJob, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.GenerationJob, error)
	// FindActive returns the job for (topic, language) that is queued, running
	// or failed with attempts left under maxAttempts, or (nil, nil).
	FindActive(dbc dbctx.Context, topicID uuid.UUID, language string, maxAttempts int) (*types.GenerationJob, error)
	ClaimNextRunnable(dbc dbctx.Context, maxAttempts int, retryDelay time.Duration, staleRunning time.Duration) (*types.GenerationJob, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Heartbeat(dbc dbctx.Context, id uuid.UUID) error
	ListBySubject(dbc dbctx.Context, subjectID uuid.UUID) ([]*types.GenerationJob, error)
	DeleteBySubject(dbc dbctx.Context, subjectID uuid.UUID) error
	DeleteByTopicIDs(dbc dbctx.Context, topicIDs []uuid.UUID) error
}

type generationJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationJobRepo(db *gorm.DB, baseLog *logger.Logger) GenerationJobRepo {
	return &generationJobRepo{
		db:  db,
		log: baseLog.With("repo", "GenerationJobRepo"),
	}
}

func (r *generationJobRepo) Create(dbc dbctx.Context, jobs []*types.GenerationJob) ([]*types.GenerationJob, error) {
	if len(jobs) == 0 {
		return []*types.GenerationJob{}, nil
	}
	if err := dbc.Conn(r.db).Create(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *generationJobRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.GenerationJob, error) {
	var out types.GenerationJob
	if err := dbc.Conn(r.db).Where("id = ?", id).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *generationJobRepo) FindActive(dbc dbctx.Context, topicID uuid.UUID, language string, maxAttempts int) (*types.GenerationJob, error) {
	if topicID == uuid.Nil {
		return nil, nil
	}
	var job types.GenerationJob
	err := dbc.Conn(r.db).
		Where("topic_id = ? AND language = ?", topicID, language).
		Where("(status IN ? OR (status = ? AND attempts < ?))",
			[]string{types.JobStatusQueued, types.JobStatusRunning}, types.JobStatusFailed, maxAttempts).
		Order("created_at DESC").
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

// ClaimNextRunnable picks the oldest job that is queued, failed but still
// under maxAttempts and past retryDelay, or running with a heartbeat older
// than staleRunning. The row is flipped to running in the same transaction.
func (r *generationJobRepo) ClaimNextRunnable(dbc dbctx.Context, maxAttempts int, retryDelay time.Duration, staleRunning time.Duration) (*types.GenerationJob, error) {
	now := time.Now().UTC()
	retryCutoff := now.Add(-retryDelay)
	staleCutoff := now.Add(-staleRunning)
	var claimed *types.GenerationJob
	err := dbc.Conn(r.db).Transaction(func(txx *gorm.DB) error {
		var job types.GenerationJob
		qErr := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where(`
        (
          status = ?
          OR (
            status = ?
            AND attempts < ?
            AND (last_error_at IS NULL OR last_error_at < ?)
          )
          OR (
            status = ?
            AND heartbeat_at IS NOT NULL
            AND heartbeat_at < ?
          )
        )
      `, types.JobStatusQueued, types.JobStatusFailed, maxAttempts, retryCutoff, types.JobStatusRunning, staleCutoff).
			Order("created_at ASC").
			First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		res := txx.Model(&types.GenerationJob{}).
			Where("id = ? AND status = ?", job.ID, job.Status).
			Updates(map[string]interface{}{
				"status":       types.JobStatusRunning,
				"attempts":     gorm.Expr("attempts + 1"),
				"heartbeat_at": now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another worker got there first.
			return nil
		}
		job.Status = types.JobStatusRunning
		job.Attempts++
		job.HeartbeatAt = &now
		job.UpdatedAt = now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *generationJobRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.Conn(r.db).
		Model(&types.GenerationJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *generationJobRepo) Heartbeat(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	return dbc.Conn(r.db).
		Model(&types.GenerationJob{}).
		Where("id = ? AND status = ?", id, types.JobStatusRunning).
		Updates(map[string]interface{}{
			"heartbeat_at": now,
			"updated_at":   now,
		}).Error
}

func (r *generationJobRepo) ListBySubject(dbc dbctx.Context, subjectID uuid.UUID) ([]*types.GenerationJob, error) {
	var out []*types.GenerationJob
	if err := dbc.Conn(r.db).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *generationJobRepo) DeleteBySubject(dbc dbctx.Context, subjectID uuid.UUID) error {
	return dbc.Conn(r.db).Where("subject_id = ?", subjectID).Delete(&types.GenerationJob{}).Error
}

func (r *generationJobRepo) DeleteByTopicIDs(dbc dbctx.Context, topicIDs []uuid.UUID) error {
	if len(topicIDs) == 0 {
		return nil
	}
	return dbc.Conn(r.db).Where("topic_id IN ?", topicIDs).Delete(&types.GenerationJob{}).Error
}
