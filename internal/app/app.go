package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/data/db"
	apphttp "github.com/yungbote/studypath-backend/internal/http"
	"github.com/yungbote/studypath-backend/internal/observability"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
	"github.com/yungbote/studypath-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *apphttp.Server
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	SSEHub   *realtime.SSEHub
	Metrics  *observability.Metrics

	pg     *db.PostgresService
	cancel context.CancelFunc
}

func New(ctx context.Context, log *logger.Logger) (*App, error) {
	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	a, err := assemble(log, cfg, pg.DB(), clients)
	if err != nil {
		clients.Close()
		_ = pg.Close()
		return nil, err
	}
	a.pg = pg
	return a, nil
}

// assemble wires everything above the database and external clients.
func assemble(log *logger.Logger, cfg Config, theDB *gorm.DB, clients Clients) (*App, error) {
	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}
	hub := realtime.NewSSEHub(log)
	emitter := realtime.NewEmitter(log, hub, clients.SSEBus)

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, emitter)
	if err != nil {
		return nil, err
	}
	handlerset := wireHandlers(log, cfg, theDB, clients, serviceset, hub)
	middleware := wireMiddleware(log, serviceset)
	if serviceset.JobWorker != nil {
		serviceset.JobWorker.WithMetrics(metrics)
	}
	server := wireServer(log, cfg, handlerset, middleware, metrics)
	server.OnShutdown(hub.Close)

	return &App{
		Log:      log,
		DB:       theDB,
		Server:   server,
		Router:   server.Engine,
		Cfg:      cfg,
		Repos:    reposet,
		Clients:  clients,
		Services: serviceset,
		SSEHub:   hub,
		Metrics:  metrics,
	}, nil
}

// Start launches the background parts: the generation worker pool and, with
// Redis, the SSE forwarder.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Clients.SSEBus != nil {
		if err := a.Clients.SSEBus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			cancel()
			a.cancel = nil
			return fmt.Errorf("start SSE forwarder: %w", err)
		}
	}
	if a.Services.JobWorker != nil {
		a.Services.JobWorker.Start(ctx)
	}
	if a.Metrics != nil {
		a.Metrics.StartJobQueueCollector(ctx, a.Log, a.DB, 15*time.Second)
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.Server.Run(addr)
}

// Shutdown drains HTTP, then stops the workers so interrupted jobs go back
// to the queue.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var httpErr error
	if a.Server != nil {
		httpErr = a.Server.Shutdown(ctx)
	}
	if a.Services.JobWorker != nil {
		a.Services.JobWorker.Stop()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	return httpErr
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
