package runtime

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/data/repos"
	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/realtime"
)

/*
Context is the execution handle for one claimed generation job.
It wraps:
  - the request-scoped context (cancelled on shutdown),
  - the in-memory generation_job row,
  - the notifier used to tell the owner about status changes.

Handlers never write generation_job directly; they go through
Heartbeat / Fail / Succeed so the lifecycle stays in one place.
*/
type Context struct {
	Ctx    context.Context
	Job    *types.GenerationJob
	Repo   repos.GenerationJobRepo
	Notify realtime.Emitter

	finished bool
}

// Handler runs a claimed job to completion.
type Handler interface {
	Run(jc *Context) error
}

type HandlerFunc func(jc *Context) error

func (f HandlerFunc) Run(jc *Context) error { return f(jc) }

func NewContext(ctx context.Context, job *types.GenerationJob, repo repos.GenerationJobRepo, notify realtime.Emitter) *Context {
	if notify == nil {
		notify = realtime.NopEmitter{}
	}
	return &Context{Ctx: ctx, Job: job, Repo: repo, Notify: notify}
}

// Finished reports whether Fail or Succeed already ran.
func (c *Context) Finished() bool { return c != nil && c.finished }

func (c *Context) Heartbeat() {
	if c == nil || c.Job == nil || c.Repo == nil {
		return
	}
	_ = c.Repo.Heartbeat(dbctx.Context{Ctx: c.background()}, c.Job.ID)
}

/*
Fail records a failed attempt.
The row goes to status=failed with error and last_error_at set; the worker
claims it again after the retry delay until attempts reaches the maximum.
*/
func (c *Context) Fail(stage string, err error) {
	if c == nil || c.Job == nil || c.finished {
		return
	}
	c.finished = true
	now := time.Now().UTC()
	msg := stage
	if err != nil {
		msg = stage + ": " + err.Error()
	}
	if c.Repo != nil && c.Job.ID != uuid.Nil {
		_ = c.Repo.UpdateFields(dbctx.Context{Ctx: c.background()}, c.Job.ID, map[string]interface{}{
			"status":        types.JobStatusFailed,
			"error":         msg,
			"last_error_at": now,
			"heartbeat_at":  nil,
			"finished_at":   now,
		})
	}
	c.Job.Status = types.JobStatusFailed
	c.Job.Error = msg
	c.Job.LastErrorAt = &now
	c.Job.HeartbeatAt = nil
	c.Job.FinishedAt = &now
	c.Job.UpdatedAt = now
	c.Notify.EmitToUser(c.background(), c.Job.UserID, realtime.SSEEventGenerationJobUpdated, c.Job)
}

// Succeed closes the job. failedModes lists the content modes that fell back
// to placeholder text; the job still counts as done.
func (c *Context) Succeed(failedModes []string) {
	if c == nil || c.Job == nil || c.finished {
		return
	}
	c.finished = true
	now := time.Now().UTC()
	modes := strings.Join(failedModes, ",")
	if c.Repo != nil && c.Job.ID != uuid.Nil {
		_ = c.Repo.UpdateFields(dbctx.Context{Ctx: c.background()}, c.Job.ID, map[string]interface{}{
			"status":       types.JobStatusSucceeded,
			"error":        "",
			"failed_modes": modes,
			"heartbeat_at": nil,
			"finished_at":  now,
		})
	}
	c.Job.Status = types.JobStatusSucceeded
	c.Job.Error = ""
	c.Job.FailedModes = modes
	c.Job.HeartbeatAt = nil
	c.Job.FinishedAt = &now
	c.Job.UpdatedAt = now
	c.Notify.EmitToUser(c.background(), c.Job.UserID, realtime.SSEEventGenerationJobUpdated, c.Job)
}

// Requeue hands an interrupted job back to the queue without charging the
// attempt.
func (c *Context) Requeue() {
	if c == nil || c.Job == nil || c.finished {
		return
	}
	c.finished = true
	if c.Repo != nil && c.Job.ID != uuid.Nil {
		_ = c.Repo.UpdateFields(dbctx.Context{Ctx: c.background()}, c.Job.ID, map[string]interface{}{
			"status":       types.JobStatusQueued,
			"attempts":     gorm.Expr("CASE WHEN attempts > 0 THEN attempts - 1 ELSE 0 END"),
			"heartbeat_at": nil,
		})
	}
	c.Job.Status = types.JobStatusQueued
	if c.Job.Attempts > 0 {
		c.Job.Attempts--
	}
	c.Job.HeartbeatAt = nil
}

// background keeps terminal writes alive when the worker's context was
// cancelled mid-run.
func (c *Context) background() context.Context {
	if c.Ctx == nil || c.Ctx.Err() != nil {
		return context.Background()
	}
	return c.Ctx
}
