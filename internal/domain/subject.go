package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"

	IntensityLight   = "light"
	IntensityMedium  = "medium"
	IntensityIntense = "intense"

	DefaultLanguage = "en"
)

// Subject is a user's learning goal. It owns an ordered list of topics.
type Subject struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name          string    `gorm:"column:name;not null" json:"name"`
	Need          string    `gorm:"column:need;type:text" json:"need"`
	DurationWeeks int       `gorm:"column:duration_weeks;not null" json:"duration_weeks"`
	Level         string    `gorm:"column:level;not null" json:"level"`
	Intensity     string    `gorm:"column:intensity;not null" json:"intensity"`
	Language      string    `gorm:"column:language;not null" json:"language"`
	CreatedAt     time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`

	Topics      []*Topic `gorm:"-" json:"topics,omitempty"`
	TopicCount  int      `gorm:"-" json:"topic_count"`
	PassedCount int      `gorm:"-" json:"passed_count"`
}

func (Subject) TableName() string { return "subject" }

func (s *Subject) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Topic is one unit of curriculum inside a subject. Position is exposed as
// "order" to clients.
type Topic struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectID uuid.UUID  `gorm:"type:uuid;not null;index:idx_topic_subject_position,priority:1" json:"subject_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Position  int        `gorm:"column:position;not null;index:idx_topic_subject_position,priority:2" json:"order"`
	Title     string     `gorm:"column:title;not null" json:"title"`
	Passed    bool       `gorm:"column:passed;not null;default:false" json:"passed"`
	PassedAt  *time.Time `gorm:"column:passed_at" json:"passed_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (Topic) TableName() string { return "topic" }

func (t *Topic) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
