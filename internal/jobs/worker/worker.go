package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/studypath-backend/internal/data/repos"
	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/jobs/runtime"
	"github.com/yungbote/studypath-backend/internal/observability"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/envutil"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
	"github.com/yungbote/studypath-backend/internal/realtime"
)

type Config struct {
	Concurrency  int
	PollInterval time.Duration
	MaxAttempts  int
	RetryDelay   time.Duration
	// StaleAfter is how long a running job may go without a heartbeat before
	// another worker takes it over.
	StaleAfter        time.Duration
	HeartbeatInterval time.Duration
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		Concurrency:  envutil.Int(log, "WORKER_CONCURRENCY", 2),
		PollInterval: envutil.Duration(log, "WORKER_POLL_INTERVAL", time.Second),
		MaxAttempts:  envutil.Int(log, "JOB_MAX_ATTEMPTS", 3),
		RetryDelay:   envutil.Duration(log, "JOB_RETRY_DELAY", 30*time.Second),
		StaleAfter:   envutil.Duration(log, "JOB_STALE_AFTER", 15*time.Minute),
	}
}

func (c Config) withDefaults() Config {
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 3
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 15 * time.Minute
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = c.StaleAfter / 3
	}
	return c
}

// Worker is a fixed-size pool polling generation_job.
type Worker struct {
	log     *logger.Logger
	repo    repos.GenerationJobRepo
	handler runtime.Handler
	notify  realtime.Emitter
	metrics *observability.Metrics
	cfg     Config

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewWorker(baseLog *logger.Logger, repo repos.GenerationJobRepo, handler runtime.Handler, notify realtime.Emitter, cfg Config) *Worker {
	if notify == nil {
		notify = realtime.NopEmitter{}
	}
	return &Worker{
		log:     baseLog.With("component", "JobWorker"),
		repo:    repo,
		handler: handler,
		notify:  notify,
		cfg:     cfg.withDefaults(),
	}
}

// WithMetrics records attempt outcomes on m. Call before Start.
func (w *Worker) WithMetrics(m *observability.Metrics) *Worker {
	w.metrics = m
	return w
}

func (w *Worker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.log.Info("Starting job worker pool", "concurrency", w.cfg.Concurrency)
	for i := 0; i < w.cfg.Concurrency; i++ {
		workerID := i + 1
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.runLoop(ctx, workerID)
		}()
	}
}

// Stop cancels the loops and waits for in-flight jobs to hand their rows
// back.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			// Drain the queue before waiting for the next tick.
			for ctx.Err() == nil && w.RunOnce(ctx, workerID) {
			}
		}
	}
}

// RunOnce claims and runs at most one job. It reports whether a job was
// claimed.
func (w *Worker) RunOnce(ctx context.Context, workerID int) bool {
	job, err := w.repo.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, w.cfg.MaxAttempts, w.cfg.RetryDelay, w.cfg.StaleAfter)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn("ClaimNextRunnable failed", "worker_id", workerID, "error", err)
		}
		return false
	}
	if job == nil {
		return false
	}

	jc := runtime.NewContext(ctx, job, w.repo, w.notify)
	w.notify.EmitToUser(ctx, job.UserID, realtime.SSEEventGenerationJobUpdated, job)
	w.log.Debug("Claimed job", "worker_id", workerID, "job_id", job.ID, "topic_id", job.TopicID, "attempt", job.Attempts)

	stopBeat := w.heartbeat(jc)
	defer stopBeat()
	started := time.Now()
	defer func() {
		if jc.Job.Status != types.JobStatusQueued {
			w.metrics.ObserveJob(jc.Job.Status, time.Since(started), jc.Job.FailedModes)
		}
	}()

	func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("Job handler panic",
					"worker_id", workerID,
					"job_id", job.ID,
					"panic", r,
				)
				jc.Fail("panic", fmt.Errorf("%v", r))
			}
		}()

		runErr := w.handler.Run(jc)
		if ctx.Err() != nil && !jc.Finished() {
			w.log.Info("Job interrupted, requeueing", "worker_id", workerID, "job_id", job.ID)
			jc.Requeue()
			return
		}
		if runErr != nil {
			jc.Fail("run", runErr)
			return
		}
		if !jc.Finished() {
			jc.Succeed(nil)
		}
	}()
	return true
}

func (w *Worker) heartbeat(jc *runtime.Context) func() {
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(w.cfg.HeartbeatInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				jc.Heartbeat()
			}
		}
	}()
	return func() { close(done) }
}
