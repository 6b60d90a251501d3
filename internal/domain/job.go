package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// GenerationJob is one queued "generate content for topic" unit. Rows
// survive restarts, so an interrupted subject-wide generation resumes.
type GenerationJob struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	SubjectID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"subject_id"`
	TopicID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"topic_id"`
	Language    string     `gorm:"column:language;not null" json:"language"`
	Status      string     `gorm:"column:status;not null;index" json:"status"`
	Attempts    int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	Error       string     `gorm:"column:error;type:text" json:"error,omitempty"`
	FailedModes string     `gorm:"column:failed_modes" json:"failed_modes,omitempty"`
	HeartbeatAt *time.Time `gorm:"column:heartbeat_at;index" json:"heartbeat_at,omitempty"`
	LastErrorAt *time.Time `gorm:"column:last_error_at" json:"last_error_at,omitempty"`
	FinishedAt  *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (GenerationJob) TableName() string { return "generation_job" }

func (j *GenerationJob) BeforeCreate(*gorm.DB) error {
	ensureID(&j.ID)
	return nil
}

func (j *GenerationJob) Active() bool {
	return j.Status == JobStatusQueued || j.Status == JobStatusRunning
}
