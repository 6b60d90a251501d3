package topic_content

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	types "github.com/yungbote/studypath-backend/internal/domain"
	jobrt "github.com/yungbote/studypath-backend/internal/jobs/runtime"
)

var errAllFailed = errors.New("every generation call failed")

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	job := jc.Job
	if job.TopicID == uuid.Nil || job.UserID == uuid.Nil {
		jc.Fail("validate", fmt.Errorf("missing topic_id or user_id"))
		return nil
	}

	report, err := p.gen.GenerateTopicByID(jc.Ctx, job.UserID, job.TopicID, job.Language)
	if err != nil {
		if jc.Ctx.Err() != nil {
			// Shutdown; the worker requeues.
			return err
		}
		p.log.Warn("Topic generation failed", "job_id", job.ID, "topic_id", job.TopicID, "error", err)
		jc.Fail("generate", err)
		return nil
	}
	if report.AllFailed() {
		jc.Fail("generate", errAllFailed)
		return nil
	}
	if !report.OK() {
		p.log.Info("Topic generated with fallbacks",
			"job_id", job.ID,
			"topic_id", job.TopicID,
			"failed_modes", report.FailedModes,
			"quiz_failed", report.QuizFailed,
		)
	}
	failed := append([]string{}, report.FailedModes...)
	if report.QuizFailed {
		failed = append(failed, types.ModeQuiz)
	}
	jc.Succeed(failed)
	return nil
}
