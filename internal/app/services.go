package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/jobs/pipeline/topic_content"
	"github.com/yungbote/studypath-backend/internal/jobs/worker"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
	"github.com/yungbote/studypath-backend/internal/realtime"
	"github.com/yungbote/studypath-backend/internal/services"
)

type Services struct {
	Avatar     services.AvatarService
	Auth       services.AuthService
	User       services.UserService
	Streak     services.StreakService
	Syllabus   services.SyllabusService
	Jobs       services.JobService
	Subject    services.SubjectService
	Topic      services.TopicService
	Content    services.ContentService
	Generation services.GenerationService
	Chat       services.ChatService
	Scan       services.ScanService
	File       services.FileService

	JobWorker *worker.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients, emitter realtime.Emitter) (Services, error) {
	log.Info("Wiring services...")

	avatar, err := services.NewAvatarService(log, c.Bucket)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}
	streak := services.NewStreakService(log, r.UserActivity)
	syllabus := services.NewSyllabusService(log, c.LLM)
	jobs := services.NewJobService(log, r.GenerationJob, r.Subject, r.Topic, cfg.Worker.MaxAttempts)
	generation := services.NewGenerationService(
		db, log, c.LLM, c.Locker, emitter,
		r.Subject, r.Topic, r.TopicContent, r.QuizQuestion,
	)

	out := Services{
		Avatar:   avatar,
		Auth:     services.NewAuthService(db, log, r.User, avatar, cfg.JWTSecretKey, cfg.JWTIssuer, cfg.AccessTokenTTL),
		User:     services.NewUserService(db, log, r.User, avatar, streak, emitter),
		Streak:   streak,
		Syllabus: syllabus,
		Jobs:     jobs,
		Subject: services.NewSubjectService(db, log, services.SubjectServiceDeps{
			SubjectRepo:   r.Subject,
			TopicRepo:     r.Topic,
			ContentRepo:   r.TopicContent,
			QuestionRepo:  r.QuizQuestion,
			ResultRepo:    r.QuizResult,
			JobRepo:       r.GenerationJob,
			ThreadRepo:    r.ChatThread,
			MessageRepo:   r.ChatMessage,
			ScanRepo:      r.ScanHistory,
			JobService:    jobs,
			Syllabus:      syllabus,
			BucketService: c.Bucket,
		}),
		Topic:      services.NewTopicService(db, log, r.Subject, r.Topic),
		Content:    services.NewContentService(db, log, r.Subject, r.Topic, r.TopicContent, r.QuizQuestion, r.QuizResult, jobs),
		Generation: generation,
		Chat:       services.NewChatService(db, log, c.LLM, c.Locker, r.Subject, r.ChatThread, r.ChatMessage),
		Scan:       services.NewScanService(log, c.LLM, c.Bucket, r.Subject, r.ScanHistory),
		File:       services.NewFileService(log, c.LLM, c.Bucket),
	}

	out.JobWorker = worker.NewWorker(log, r.GenerationJob, topic_content.New(log, generation), emitter, cfg.Worker)
	return out, nil
}
