package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/data/repos/chat"
	"github.com/yungbote/studypath-backend/internal/data/repos/homework"
	"github.com/yungbote/studypath-backend/internal/data/repos/jobs"
	"github.com/yungbote/studypath-backend/internal/data/repos/learning"
	"github.com/yungbote/studypath-backend/internal/data/repos/user"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserActivityRepo = user.UserActivityRepo

type SubjectRepo = learning.SubjectRepo
type TopicRepo = learning.TopicRepo
type TopicCounts = learning.TopicCounts
type TopicContentRepo = learning.TopicContentRepo
type QuizQuestionRepo = learning.QuizQuestionRepo
type QuizResultRepo = learning.QuizResultRepo

type GenerationJobRepo = jobs.GenerationJobRepo

type ChatThreadRepo = chat.ChatThreadRepo
type ChatMessageRepo = chat.ChatMessageRepo

type ScanHistoryRepo = homework.ScanHistoryRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserActivityRepo(db *gorm.DB, baseLog *logger.Logger) UserActivityRepo {
	return user.NewUserActivityRepo(db, baseLog)
}

func NewSubjectRepo(db *gorm.DB, baseLog *logger.Logger) SubjectRepo {
	return learning.NewSubjectRepo(db, baseLog)
}
func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return learning.NewTopicRepo(db, baseLog)
}
func NewTopicContentRepo(db *gorm.DB, baseLog *logger.Logger) TopicContentRepo {
	return learning.NewTopicContentRepo(db, baseLog)
}
func NewQuizQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuizQuestionRepo {
	return learning.NewQuizQuestionRepo(db, baseLog)
}
func NewQuizResultRepo(db *gorm.DB, baseLog *logger.Logger) QuizResultRepo {
	return learning.NewQuizResultRepo(db, baseLog)
}

func NewGenerationJobRepo(db *gorm.DB, baseLog *logger.Logger) GenerationJobRepo {
	return jobs.NewGenerationJobRepo(db, baseLog)
}

func NewChatThreadRepo(db *gorm.DB, baseLog *logger.Logger) ChatThreadRepo {
	return chat.NewChatThreadRepo(db, baseLog)
}
func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return chat.NewChatMessageRepo(db, baseLog)
}

func NewScanHistoryRepo(db *gorm.DB, baseLog *logger.Logger) ScanHistoryRepo {
	return homework.NewScanHistoryRepo(db, baseLog)
}
