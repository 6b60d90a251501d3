package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/data/repos"
	"github.com/yungbote/studypath-backend/internal/data/repos/testutil"
	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/gcp"
	"github.com/yungbote/studypath-backend/internal/platform/llm"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

type fixture struct {
	ctx    context.Context
	db     *gorm.DB
	log    *logger.Logger
	llm    *llm.Fake
	bucket *gcp.MemoryBucket

	users    repos.UserRepo
	activity repos.UserActivityRepo
	subjects repos.SubjectRepo
	topics   repos.TopicRepo
	content  repos.TopicContentRepo
	quiz     repos.QuizQuestionRepo
	results  repos.QuizResultRepo
	jobs     repos.GenerationJobRepo
	threads  repos.ChatThreadRepo
	messages repos.ChatMessageRepo
	scans    repos.ScanHistoryRepo

	jobService JobService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	f := &fixture{
		ctx:      context.Background(),
		db:       db,
		log:      log,
		llm:      &llm.Fake{},
		bucket:   gcp.NewMemoryBucket(),
		users:    repos.NewUserRepo(db, log),
		activity: repos.NewUserActivityRepo(db, log),
		subjects: repos.NewSubjectRepo(db, log),
		topics:   repos.NewTopicRepo(db, log),
		content:  repos.NewTopicContentRepo(db, log),
		quiz:     repos.NewQuizQuestionRepo(db, log),
		results:  repos.NewQuizResultRepo(db, log),
		jobs:     repos.NewGenerationJobRepo(db, log),
		threads:  repos.NewChatThreadRepo(db, log),
		messages: repos.NewChatMessageRepo(db, log),
		scans:    repos.NewScanHistoryRepo(db, log),
	}
	f.jobService = NewJobService(log, f.jobs, f.subjects, f.topics, 3)
	return f
}

func (f *fixture) user(t *testing.T, email string) *types.User {
	t.Helper()
	return testutil.SeedUser(t, f.ctx, f.db, email)
}

func (f *fixture) subject(t *testing.T, owner *types.User, name string, titles ...string) (*types.Subject, []*types.Topic) {
	t.Helper()
	s := testutil.SeedSubject(t, f.ctx, f.db, owner.ID, name)
	return s, testutil.SeedTopics(t, f.ctx, f.db, s, titles...)
}

func (f *fixture) subjectService(syllabus SyllabusService) SubjectService {
	return NewSubjectService(f.db, f.log, SubjectServiceDeps{
		SubjectRepo:   f.subjects,
		TopicRepo:     f.topics,
		ContentRepo:   f.content,
		QuestionRepo:  f.quiz,
		ResultRepo:    f.results,
		JobRepo:       f.jobs,
		ThreadRepo:    f.threads,
		MessageRepo:   f.messages,
		ScanRepo:      f.scans,
		JobService:    f.jobService,
		Syllabus:      syllabus,
		BucketService: f.bucket,
	})
}

func (f *fixture) generationService() GenerationService {
	return NewGenerationService(f.db, f.log, f.llm, nil, nil, f.subjects, f.topics, f.content, f.quiz)
}

func (f *fixture) contentService() ContentService {
	return NewContentService(f.db, f.log, f.subjects, f.topics, f.content, f.quiz, f.results, f.jobService)
}

func quizJSON(n int) map[string]any {
	qs := make([]any, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, map[string]any{
			"question":      "Question " + string(rune('A'+i)),
			"options":       []any{"a", "b", "c", "d"},
			"correct_index": i % 4,
			"explanation":   "because",
		})
	}
	return map[string]any{"questions": qs}
}

func ptr[T any](v T) *T { return &v }
