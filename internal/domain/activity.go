package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActivityDateLayout is the key format of the activity map.
const ActivityDateLayout = "2006-01-02"

// UserActivity is the sparse date -> count map behind the streak display.
type UserActivity struct {
	UserID    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	Activity  datatypes.JSON `gorm:"column:activity;not null" json:"activity"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (UserActivity) TableName() string { return "user_activity" }

func (a *UserActivity) Counts() map[string]int {
	out := map[string]int{}
	if a == nil || len(a.Activity) == 0 {
		return out
	}
	_ = json.Unmarshal(a.Activity, &out)
	return out
}

func (a *UserActivity) SetCounts(counts map[string]int) error {
	raw, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	a.Activity = datatypes.JSON(raw)
	return nil
}
