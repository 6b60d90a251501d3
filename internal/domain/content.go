package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ModeExplain     = "explain"
	ModeDemonstrate = "demonstrate"
	ModeTry         = "try"
	ModeApply       = "apply"

	// ModeQuiz addresses the quiz through the content routes.
	ModeQuiz = "quiz"
)

// ContentModes is the fixed set of presentation styles generated per topic.
var ContentModes = []string{ModeExplain, ModeDemonstrate, ModeTry, ModeApply}

func IsContentMode(mode string) bool {
	for _, m := range ContentModes {
		if m == mode {
			return true
		}
	}
	return false
}

// QuizQuestionsPerTopic caps how many generated questions are stored.
const QuizQuestionsPerTopic = 10

// TopicContent is generated text keyed by (topic, mode, language).
type TopicContent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_topic_content_key,priority:1" json:"topic_id"`
	Mode      string    `gorm:"column:mode;not null;uniqueIndex:idx_topic_content_key,priority:2" json:"mode"`
	Language  string    `gorm:"column:language;not null;uniqueIndex:idx_topic_content_key,priority:3" json:"language"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	Failed    bool      `gorm:"column:failed;not null;default:false" json:"failed"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (TopicContent) TableName() string { return "topic_content" }

func (c *TopicContent) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// QuizQuestion is one generated multiple-choice question. The set for a
// (topic, language) is always replaced as a whole.
type QuizQuestion struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_quiz_question_key,priority:1" json:"topic_id"`
	Language     string         `gorm:"column:language;not null;index:idx_quiz_question_key,priority:2" json:"language"`
	Position     int            `gorm:"column:position;not null" json:"position"`
	Question     string         `gorm:"column:question;type:text;not null" json:"question"`
	Options      datatypes.JSON `gorm:"column:options;not null" json:"options"`
	CorrectIndex int            `gorm:"column:correct_index;not null" json:"correct_index"`
	Explanation  string         `gorm:"column:explanation;type:text" json:"explanation"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
}

func (QuizQuestion) TableName() string { return "quiz_question" }

func (q *QuizQuestion) BeforeCreate(*gorm.DB) error {
	ensureID(&q.ID)
	return nil
}

// OptionList decodes Options; malformed JSON yields nil.
func (q *QuizQuestion) OptionList() []string {
	var out []string
	if len(q.Options) == 0 {
		return nil
	}
	if err := json.Unmarshal(q.Options, &out); err != nil {
		return nil
	}
	return out
}

// QuizResult is the latest quiz outcome per (topic, user).
type QuizResult struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_quiz_result_key,priority:1" json:"topic_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_quiz_result_key,priority:2" json:"user_id"`
	Score     int       `gorm:"column:score;not null" json:"score"`
	Total     int       `gorm:"column:total;not null" json:"total"`
	Passed    bool      `gorm:"column:passed;not null" json:"passed"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (QuizResult) TableName() string { return "quiz_result" }

func (r *QuizResult) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
