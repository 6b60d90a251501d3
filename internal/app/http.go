package app

import (
	"context"

	"gorm.io/gorm"

	apphttp "github.com/yungbote/studypath-backend/internal/http"
	httpH "github.com/yungbote/studypath-backend/internal/http/handlers"
	httpMW "github.com/yungbote/studypath-backend/internal/http/middleware"
	"github.com/yungbote/studypath-backend/internal/observability"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
	"github.com/yungbote/studypath-backend/internal/realtime"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	Subject  *httpH.SubjectHandler
	Topic    *httpH.TopicHandler
	Content  *httpH.ContentHandler
	Chat     *httpH.ChatHandler
	Scan     *httpH.ScanHandler
	User     *httpH.UserHandler
	File     *httpH.FileHandler
	Realtime *httpH.RealtimeHandler
}

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireHandlers(log *logger.Logger, cfg Config, theDB *gorm.DB, c Clients, s Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(readinessChecks(theDB, c)),
		Auth:     httpH.NewAuthHandler(s.Auth),
		Subject:  httpH.NewSubjectHandler(s.Subject, s.Jobs),
		Topic:    httpH.NewTopicHandler(s.Topic),
		Content:  httpH.NewContentHandler(s.Content, s.Syllabus),
		Chat:     httpH.NewChatHandler(s.Chat),
		Scan:     httpH.NewScanHandler(s.Scan, cfg.MaxUploadBytes),
		User:     httpH.NewUserHandler(s.User, s.Streak),
		File:     httpH.NewFileHandler(s.File, cfg.MaxUploadBytes),
		Realtime: httpH.NewRealtimeHandler(log, hub),
	}
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, s.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, h Handlers, mw Middleware, metrics *observability.Metrics) *apphttp.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:             log,
		ServiceName:     serviceName,
		AllowOrigins:    cfg.AllowOrigins,
		Metrics:         metrics,
		MountMetrics:    metrics != nil && cfg.MetricsAddr == "",
		MaxUploadBytes:  cfg.MaxUploadBytes,
		AuthMiddleware:  mw.Auth,
		AuthHandler:     h.Auth,
		SubjectHandler:  h.Subject,
		TopicHandler:    h.Topic,
		ContentHandler:  h.Content,
		ChatHandler:     h.Chat,
		ScanHandler:     h.Scan,
		UserHandler:     h.User,
		FileHandler:     h.File,
		RealtimeHandler: h.Realtime,
		HealthHandler:   h.Health,
	})
}

func readinessChecks(theDB *gorm.DB, c Clients) map[string]httpH.ReadinessCheck {
	checks := map[string]httpH.ReadinessCheck{}
	if theDB != nil {
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := theDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if c.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		}
	}
	return checks
}
