package db

import (
	types "github.com/yungbote/studypath-backend/internal/domain"
	"gorm.io/gorm"
)

// Models lists every table the service owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		// Identity
		&types.User{},
		&types.UserActivity{},

		// Curriculum
		&types.Subject{},
		&types.Topic{},
		&types.TopicContent{},
		&types.QuizQuestion{},
		&types.QuizResult{},
		&types.GenerationJob{},

		// Conversations
		&types.ChatThread{},
		&types.ChatMessage{},
		&types.ScanHistory{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
