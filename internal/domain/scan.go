package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScanHistory is one homework-scan exchange, append-only per (user, subject).
type ScanHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_scan_history_owner,priority:1" json:"user_id"`
	SubjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_scan_history_owner,priority:2" json:"subject_id"`
	ImageKey  string    `gorm:"column:image_key;not null" json:"-"`
	ImageURL  string    `gorm:"column:image_url;not null" json:"image_url"`
	Question  string    `gorm:"column:question;type:text" json:"question"`
	Answer    string    `gorm:"column:answer;type:text;not null" json:"answer"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (ScanHistory) TableName() string { return "scan_history" }

func (s *ScanHistory) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
