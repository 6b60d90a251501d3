package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/studypath-backend/internal/http/handlers"
	httpMW "github.com/yungbote/studypath-backend/internal/http/middleware"
	"github.com/yungbote/studypath-backend/internal/observability"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowOrigins   []string
	MaxUploadBytes int64
	Metrics        *observability.Metrics
	MountMetrics   bool

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler     *httpH.AuthHandler
	SubjectHandler  *httpH.SubjectHandler
	TopicHandler    *httpH.TopicHandler
	ContentHandler  *httpH.ContentHandler
	ChatHandler     *httpH.ChatHandler
	ScanHandler     *httpH.ScanHandler
	UserHandler     *httpH.UserHandler
	FileHandler     *httpH.FileHandler
	RealtimeHandler *httpH.RealtimeHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	if r.MaxMultipartMemory <= 0 {
		r.MaxMultipartMemory = httpH.DefaultMaxUploadBytes
	}

	r.Use(httpMW.Recovery(log))
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowOrigins))
	r.Use(httpMW.RequestLogger(log.With("component", "HTTP")))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.MountMetrics && cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")

	// Auth (public)
	if cfg.AuthHandler != nil {
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)
	}

	protected := api.Group("")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.Stream)
		}

		// Subjects
		if cfg.SubjectHandler != nil {
			protected.GET("/subjects", cfg.SubjectHandler.List)
			protected.POST("/subjects", cfg.SubjectHandler.Create)
			protected.GET("/subjects/:id", cfg.SubjectHandler.Get)
			protected.PATCH("/subjects/:id", cfg.SubjectHandler.Update)
			protected.DELETE("/subjects/:id", cfg.SubjectHandler.Delete)
			protected.PUT("/subjects/:id/reset", cfg.SubjectHandler.Reset)
			protected.GET("/jobs/subject/:id", cfg.SubjectHandler.ListJobs)
		}

		// Topics
		if cfg.TopicHandler != nil {
			protected.GET("/topics/subject/:id", cfg.TopicHandler.ListBySubject)
			protected.PATCH("/topics/:id", cfg.TopicHandler.Update)
			protected.PUT("/topics/reorder", cfg.TopicHandler.Reorder)
			protected.POST("/topics/:id/pass", cfg.TopicHandler.Pass)
		}

		// Content, quiz, syllabus
		if cfg.ContentHandler != nil {
			protected.GET("/content/:topicId/:mode", cfg.ContentHandler.Get)
			protected.POST("/content/:topicId/generate", cfg.ContentHandler.Generate)
			protected.POST("/content/:topicId/quiz-result", cfg.ContentHandler.SubmitQuizResult)
			protected.POST("/ai/generate-syllabus", cfg.ContentHandler.GenerateSyllabus)
		}

		// Chat
		if cfg.ChatHandler != nil {
			protected.POST("/chat/send", cfg.ChatHandler.Send)
			protected.GET("/chat/threads/:subjectId", cfg.ChatHandler.ListThreads)
			protected.GET("/chat/messages/:threadId", cfg.ChatHandler.ListMessages)
			protected.PUT("/chat/threads/:threadId", cfg.ChatHandler.RenameThread)
			protected.DELETE("/chat/threads/:threadId", cfg.ChatHandler.DeleteThread)
		}

		// Scan
		if cfg.ScanHandler != nil {
			protected.POST("/scan/homework", cfg.ScanHandler.Scan)
			protected.GET("/scan/history/:subjectId", cfg.ScanHandler.ListHistory)
			protected.DELETE("/scan/history/:subjectId", cfg.ScanHandler.ClearHistory)
		}

		// Profile & streak
		if cfg.UserHandler != nil {
			protected.GET("/profile", cfg.UserHandler.GetProfile)
			protected.PUT("/profile/name", cfg.UserHandler.UpdateName)
			protected.PUT("/profile/password", cfg.UserHandler.ChangePassword)
			protected.PUT("/profile/email", cfg.UserHandler.UpdateEmail)
			protected.GET("/user/streak", cfg.UserHandler.GetStreak)
			protected.POST("/user/streak", cfg.UserHandler.RecordActivity)
		}

		// Files
		if cfg.FileHandler != nil {
			protected.POST("/pdf/upload-pdf", cfg.FileHandler.UploadPDF)
			protected.POST("/upload", cfg.FileHandler.Upload)
		}
	}

	return r
}
