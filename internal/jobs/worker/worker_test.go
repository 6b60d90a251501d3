package worker

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/studypath-backend/internal/data/repos"
	"github.com/yungbote/studypath-backend/internal/data/repos/testutil"
	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/jobs/runtime"
	"github.com/yungbote/studypath-backend/internal/observability"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
)

func seedJob(t *testing.T, repo repos.GenerationJobRepo, status string, mutate func(*types.GenerationJob)) *types.GenerationJob {
	t.Helper()
	now := time.Now().UTC()
	job := &types.GenerationJob{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		SubjectID: uuid.New(),
		TopicID:   uuid.New(),
		Language:  "en",
		Status:    status,
		CreatedAt: now.Add(-time.Minute),
		UpdatedAt: now.Add(-time.Minute),
	}
	if mutate != nil {
		mutate(job)
	}
	if _, err := repo.Create(dbctx.Context{Ctx: context.Background()}, []*types.GenerationJob{job}); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func newTestWorker(t *testing.T, repo repos.GenerationJobRepo, h runtime.Handler) *Worker {
	t.Helper()
	return NewWorker(testutil.Logger(t), repo, h, nil, Config{
		Concurrency:       1,
		PollInterval:      10 * time.Millisecond,
		MaxAttempts:       3,
		RetryDelay:        time.Hour,
		StaleAfter:        time.Minute,
		HeartbeatInterval: time.Hour,
	})
}

func reload(t *testing.T, repo repos.GenerationJobRepo, id uuid.UUID) *types.GenerationJob {
	t.Helper()
	job, err := repo.GetByID(dbctx.Context{Ctx: context.Background()}, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return job
}

func TestRunOnceSucceeds(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.NewGenerationJobRepo(db, testutil.Logger(t))
	job := seedJob(t, repo, types.JobStatusQueued, nil)

	var seen uuid.UUID
	w := newTestWorker(t, repo, runtime.HandlerFunc(func(jc *runtime.Context) error {
		seen = jc.Job.ID
		jc.Succeed([]string{types.ModeTry})
		return nil
	}))

	if !w.RunOnce(context.Background(), 1) {
		t.Fatalf("expected a job to be claimed")
	}
	if seen != job.ID {
		t.Fatalf("handler saw %v, want %v", seen, job.ID)
	}
	got := reload(t, repo, job.ID)
	if got.Status != types.JobStatusSucceeded {
		t.Fatalf("status = %q, want succeeded", got.Status)
	}
	if got.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", got.Attempts)
	}
	if got.FailedModes != types.ModeTry {
		t.Fatalf("failed_modes = %q", got.FailedModes)
	}
	if w.RunOnce(context.Background(), 1) {
		t.Fatalf("queue should be empty")
	}
}

func TestRunOnceFailsOnErrorAndPanic(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.NewGenerationJobRepo(db, testutil.Logger(t))
	job := seedJob(t, repo, types.JobStatusQueued, nil)

	w := newTestWorker(t, repo, runtime.HandlerFunc(func(jc *runtime.Context) error {
		panic("boom")
	}))
	if !w.RunOnce(context.Background(), 1) {
		t.Fatalf("expected a job to be claimed")
	}
	got := reload(t, repo, job.ID)
	if got.Status != types.JobStatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if !strings.HasPrefix(got.Error, "panic: boom") {
		t.Fatalf("error = %q", got.Error)
	}
	if got.LastErrorAt == nil {
		t.Fatalf("last_error_at not set")
	}

	// RetryDelay is an hour, so the failed row is not claimable yet.
	if w.RunOnce(context.Background(), 1) {
		t.Fatalf("failed job claimed before retry delay")
	}
}

func TestRunOnceRequeuesOnShutdown(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.NewGenerationJobRepo(db, testutil.Logger(t))
	job := seedJob(t, repo, types.JobStatusQueued, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := newTestWorker(t, repo, runtime.HandlerFunc(func(jc *runtime.Context) error {
		cancel()
		return jc.Ctx.Err()
	}))
	if !w.RunOnce(ctx, 1) {
		t.Fatalf("expected a job to be claimed")
	}
	got := reload(t, repo, job.ID)
	if got.Status != types.JobStatusQueued {
		t.Fatalf("status = %q, want queued", got.Status)
	}
	if got.Attempts != 0 {
		t.Fatalf("attempts = %d, want 0 after requeue", got.Attempts)
	}

	// A fresh worker picks it up again.
	w2 := newTestWorker(t, repo, runtime.HandlerFunc(func(jc *runtime.Context) error {
		jc.Succeed(nil)
		return nil
	}))
	if !w2.RunOnce(context.Background(), 1) {
		t.Fatalf("requeued job was not claimed")
	}
	if got := reload(t, repo, job.ID); got.Status != types.JobStatusSucceeded {
		t.Fatalf("status = %q, want succeeded", got.Status)
	}
}

func TestRunOnceResumesStaleRunningJob(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.NewGenerationJobRepo(db, testutil.Logger(t))
	stale := time.Now().UTC().Add(-time.Hour)
	job := seedJob(t, repo, types.JobStatusRunning, func(j *types.GenerationJob) {
		j.Attempts = 1
		j.HeartbeatAt = &stale
	})

	w := newTestWorker(t, repo, runtime.HandlerFunc(func(jc *runtime.Context) error {
		return nil
	}))
	if !w.RunOnce(context.Background(), 1) {
		t.Fatalf("stale running job was not claimed")
	}
	got := reload(t, repo, job.ID)
	if got.Status != types.JobStatusSucceeded {
		t.Fatalf("status = %q, want succeeded", got.Status)
	}
	if got.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", got.Attempts)
	}
}

func TestStartStopDrainsQueue(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.NewGenerationJobRepo(db, testutil.Logger(t))
	ids := []uuid.UUID{
		seedJob(t, repo, types.JobStatusQueued, nil).ID,
		seedJob(t, repo, types.JobStatusQueued, nil).ID,
		seedJob(t, repo, types.JobStatusQueued, nil).ID,
	}

	done := make(chan uuid.UUID, len(ids))
	w := newTestWorker(t, repo, runtime.HandlerFunc(func(jc *runtime.Context) error {
		done <- jc.Job.ID
		return nil
	}))
	w.Start(context.Background())
	defer w.Stop()

	seen := map[uuid.UUID]bool{}
	timeout := time.After(5 * time.Second)
	for len(seen) < len(ids) {
		select {
		case id := <-done:
			seen[id] = true
		case <-timeout:
			t.Fatalf("only %d of %d jobs ran", len(seen), len(ids))
		}
	}
	w.Stop()
	for _, id := range ids {
		if got := reload(t, repo, id); got.Status != types.JobStatusSucceeded {
			t.Fatalf("job %v status = %q", id, got.Status)
		}
	}
}

func TestRunOnceRecordsMetrics(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.NewGenerationJobRepo(db, testutil.Logger(t))
	seedJob(t, repo, types.JobStatusQueued, nil)

	m := observability.NewMetrics()
	w := newTestWorker(t, repo, runtime.HandlerFunc(func(jc *runtime.Context) error {
		jc.Succeed([]string{types.ModeTry, "quiz"})
		return nil
	})).WithMetrics(m)

	if !w.RunOnce(context.Background(), 1) {
		t.Fatalf("expected a job to be claimed")
	}
	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`studypath_generation_jobs_total{status="succeeded"} 1`,
		`studypath_generation_mode_fallbacks_total{mode="quiz"} 1`,
		`studypath_generation_mode_fallbacks_total{mode="` + types.ModeTry + `"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
}
