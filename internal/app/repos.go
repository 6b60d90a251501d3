package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/data/repos"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

type Repos struct {
	User          repos.UserRepo
	UserActivity  repos.UserActivityRepo
	Subject       repos.SubjectRepo
	Topic         repos.TopicRepo
	TopicContent  repos.TopicContentRepo
	QuizQuestion  repos.QuizQuestionRepo
	QuizResult    repos.QuizResultRepo
	GenerationJob repos.GenerationJobRepo
	ChatThread    repos.ChatThreadRepo
	ChatMessage   repos.ChatMessageRepo
	ScanHistory   repos.ScanHistoryRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		UserActivity:  repos.NewUserActivityRepo(db, log),
		Subject:       repos.NewSubjectRepo(db, log),
		Topic:         repos.NewTopicRepo(db, log),
		TopicContent:  repos.NewTopicContentRepo(db, log),
		QuizQuestion:  repos.NewQuizQuestionRepo(db, log),
		QuizResult:    repos.NewQuizResultRepo(db, log),
		GenerationJob: repos.NewGenerationJobRepo(db, log),
		ChatThread:    repos.NewChatThreadRepo(db, log),
		ChatMessage:   repos.NewChatMessageRepo(db, log),
		ScanHistory:   repos.NewScanHistoryRepo(db, log),
	}
}
