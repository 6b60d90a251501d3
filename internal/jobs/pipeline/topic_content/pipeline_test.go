package topic_content

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/studypath-backend/internal/data/repos/testutil"
	types "github.com/yungbote/studypath-backend/internal/domain"
	jobrt "github.com/yungbote/studypath-backend/internal/jobs/runtime"
	"github.com/yungbote/studypath-backend/internal/services"
)

type stubGeneration struct {
	report *services.GenerationReport
	err    error
	calls  int
}

func (s *stubGeneration) GenerateTopic(ctx context.Context, in services.GenerateTopicInput) (*services.GenerationReport, error) {
	return s.GenerateTopicByID(ctx, in.UserID, in.TopicID, in.Language)
}

func (s *stubGeneration) GenerateTopicByID(ctx context.Context, userID, topicID uuid.UUID, language string) (*services.GenerationReport, error) {
	s.calls++
	return s.report, s.err
}

func newJobContext() *jobrt.Context {
	job := &types.GenerationJob{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		TopicID:  uuid.New(),
		Language: "en",
		Status:   types.JobStatusRunning,
	}
	return jobrt.NewContext(context.Background(), job, nil, nil)
}

func TestPipelineRun(t *testing.T) {
	cases := []struct {
		name       string
		report     *services.GenerationReport
		err        error
		wantStatus string
		wantModes  string
		wantErr    string
	}{
		{
			name:       "all ok",
			report:     &services.GenerationReport{},
			wantStatus: types.JobStatusSucceeded,
		},
		{
			name:       "partial",
			report:     &services.GenerationReport{FailedModes: []string{types.ModeApply}, QuizFailed: true},
			wantStatus: types.JobStatusSucceeded,
			wantModes:  "apply,quiz",
		},
		{
			name: "everything failed",
			report: &services.GenerationReport{
				FailedModes: append([]string{}, types.ContentModes...),
				QuizFailed:  true,
			},
			wantStatus: types.JobStatusFailed,
			wantErr:    "every generation call failed",
		},
		{
			name:       "topic gone",
			err:        errors.New("topic not found"),
			wantStatus: types.JobStatusFailed,
			wantErr:    "generate: topic not found",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &stubGeneration{report: tc.report, err: tc.err}
			p := New(testutil.Logger(t), gen)
			jc := newJobContext()
			if err := p.Run(jc); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if gen.calls != 1 {
				t.Fatalf("calls = %d", gen.calls)
			}
			if jc.Job.Status != tc.wantStatus {
				t.Fatalf("status = %q, want %q", jc.Job.Status, tc.wantStatus)
			}
			if jc.Job.FailedModes != tc.wantModes {
				t.Fatalf("failed_modes = %q, want %q", jc.Job.FailedModes, tc.wantModes)
			}
			if tc.wantErr != "" && !strings.Contains(jc.Job.Error, tc.wantErr) {
				t.Fatalf("error = %q, want %q", jc.Job.Error, tc.wantErr)
			}
		})
	}
}
