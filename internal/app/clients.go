package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/studypath-backend/internal/clients/redis"
	"github.com/yungbote/studypath-backend/internal/platform/gcp"
	"github.com/yungbote/studypath-backend/internal/platform/keylock"
	"github.com/yungbote/studypath-backend/internal/platform/llm"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
	"github.com/yungbote/studypath-backend/internal/realtime"
)

type Clients struct {
	LLM    llm.Client
	Bucket gcp.BucketService
	// Redis, SSEBus are nil when REDIS_ADDR is unset; Locker then falls back
	// to an in-process keyed mutex.
	Redis  *goredis.Client
	SSEBus realtime.Bus
	Locker keylock.Locker
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		return Clients{}, err
	}

	llmClient, err := llm.NewClient(ctx, log, cfg.LLM)
	if err != nil {
		return Clients{}, fmt.Errorf("init llm client: %w", err)
	}

	out := Clients{
		LLM:    llmClient,
		Bucket: bucket,
		Locker: keylock.NewLocal(),
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		log.Info("REDIS_ADDR not set; using in-process locks and local SSE fan-out")
		return out, nil
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	bus, err := redis.NewSSEBus(log, rdb, cfg.Redis.Channel)
	if err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
	}
	out.Redis = rdb
	out.SSEBus = bus
	out.Locker = redis.NewLocker(log, rdb, cfg.LockTTL)
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
