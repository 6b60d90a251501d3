package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/data/repos"
	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/apierr"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/gcp"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

const maxTopicsPerSubject = 100

type CreateSubjectInput struct {
	Name          string   `json:"name" validate:"required,max=200"`
	Need          string   `json:"need" validate:"max=2000"`
	DurationWeeks int      `json:"duration_weeks" validate:"gte=1,lte=52"`
	Level         string   `json:"level" validate:"oneof=beginner intermediate advanced"`
	Intensity     string   `json:"intensity" validate:"oneof=light medium intense"`
	Language      string   `json:"language" validate:"min=2,max=10"`
	Topics        []string `json:"topics" validate:"max=100,dive,max=300"`
}

type UpdateSubjectInput struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=200"`
	Need          *string `json:"need" validate:"omitempty,max=2000"`
	DurationWeeks *int    `json:"duration_weeks" validate:"omitempty,gte=1,lte=52"`
	Level         *string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Intensity     *string `json:"intensity" validate:"omitempty,oneof=light medium intense"`
	Language      *string `json:"language" validate:"omitempty,min=2,max=10"`
}

type SubjectService interface {
	CreateSubject(ctx context.Context, userID uuid.UUID, in CreateSubjectInput) (*types.Subject, error)
	// ListSubjects returns the user's subjects newest first. A non-empty
	// query keeps fuzzy matches on name or need, best name matches first.
	ListSubjects(ctx context.Context, userID uuid.UUID, query string) ([]*types.Subject, error)
	GetSubject(ctx context.Context, userID, subjectID uuid.UUID) (*types.Subject, error)
	UpdateSubject(ctx context.Context, userID, subjectID uuid.UUID, in UpdateSubjectInput) (*types.Subject, error)
	DeleteSubject(ctx context.Context, userID, subjectID uuid.UUID) error
	// ResetSubject replaces every topic. With no titles the syllabus is
	// generated again from the subject fields.
	ResetSubject(ctx context.Context, userID, subjectID uuid.UUID, titles []string) (*types.Subject, error)
}

type subjectService struct {
	db            *gorm.DB
	log           *logger.Logger
	subjectRepo   repos.SubjectRepo
	topicRepo     repos.TopicRepo
	contentRepo   repos.TopicContentRepo
	questionRepo  repos.QuizQuestionRepo
	resultRepo    repos.QuizResultRepo
	jobRepo       repos.GenerationJobRepo
	threadRepo    repos.ChatThreadRepo
	messageRepo   repos.ChatMessageRepo
	scanRepo      repos.ScanHistoryRepo
	jobService    JobService
	syllabus      SyllabusService
	bucketService gcp.BucketService
}

type SubjectServiceDeps struct {
	SubjectRepo   repos.SubjectRepo
	TopicRepo     repos.TopicRepo
	ContentRepo   repos.TopicContentRepo
	QuestionRepo  repos.QuizQuestionRepo
	ResultRepo    repos.QuizResultRepo
	JobRepo       repos.GenerationJobRepo
	ThreadRepo    repos.ChatThreadRepo
	MessageRepo   repos.ChatMessageRepo
	ScanRepo      repos.ScanHistoryRepo
	JobService    JobService
	Syllabus      SyllabusService
	BucketService gcp.BucketService
}

func NewSubjectService(db *gorm.DB, log *logger.Logger, deps SubjectServiceDeps) SubjectService {
	return &subjectService{
		db:            db,
		log:           log.With("service", "SubjectService"),
		subjectRepo:   deps.SubjectRepo,
		topicRepo:     deps.TopicRepo,
		contentRepo:   deps.ContentRepo,
		questionRepo:  deps.QuestionRepo,
		resultRepo:    deps.ResultRepo,
		jobRepo:       deps.JobRepo,
		threadRepo:    deps.ThreadRepo,
		messageRepo:   deps.MessageRepo,
		scanRepo:      deps.ScanRepo,
		jobService:    deps.JobService,
		syllabus:      deps.Syllabus,
		bucketService: deps.BucketService,
	}
}

func (ss *subjectService) CreateSubject(ctx context.Context, userID uuid.UUID, in CreateSubjectInput) (*types.Subject, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Need = strings.TrimSpace(in.Need)
	in.Level = lo.CoalesceOrEmpty(strings.TrimSpace(in.Level), types.LevelBeginner)
	in.Intensity = lo.CoalesceOrEmpty(strings.TrimSpace(in.Intensity), types.IntensityMedium)
	in.Language = lo.CoalesceOrEmpty(strings.TrimSpace(in.Language), types.DefaultLanguage)
	if in.DurationWeeks == 0 {
		in.DurationWeeks = 4
	}
	in.Topics = cleanTitles(in.Topics)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	subject := &types.Subject{
		UserID:        userID,
		Name:          in.Name,
		Need:          in.Need,
		DurationWeeks: in.DurationWeeks,
		Level:         in.Level,
		Intensity:     in.Intensity,
		Language:      in.Language,
	}
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := ss.subjectRepo.Create(dbc, []*types.Subject{subject}); err != nil {
			return fmt.Errorf("create subject: %w", err)
		}
		topics, err := ss.createTopics(dbc, subject, in.Topics)
		if err != nil {
			return err
		}
		subject.Topics = topics
		if len(topics) > 0 && ss.jobService != nil {
			if _, err := ss.jobService.EnqueueSubject(dbc, userID, subject.ID, subject.Language); err != nil {
				return fmt.Errorf("enqueue generation: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	subject.TopicCount = len(subject.Topics)
	ss.log.Info("Subject created", "subject_id", subject.ID, "topics", subject.TopicCount)
	return subject, nil
}

func (ss *subjectService) ListSubjects(ctx context.Context, userID uuid.UUID, query string) ([]*types.Subject, error) {
	dbc := dbctx.Context{Ctx: ctx}
	subjects, err := ss.subjectRepo.ListByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	subjects = filterSubjects(subjects, query)
	if len(subjects) == 0 {
		return []*types.Subject{}, nil
	}
	counts, err := ss.topicRepo.CountBySubjects(dbc, lo.Map(subjects, func(s *types.Subject, _ int) uuid.UUID {
		return s.ID
	}))
	if err != nil {
		return nil, fmt.Errorf("count topics: %w", err)
	}
	for _, s := range subjects {
		c := counts[s.ID]
		s.TopicCount = c.Total
		s.PassedCount = c.Passed
	}
	return subjects, nil
}

func (ss *subjectService) GetSubject(ctx context.Context, userID, subjectID uuid.UUID) (*types.Subject, error) {
	dbc := dbctx.Context{Ctx: ctx}
	subject, err := ownedSubject(dbc, ss.subjectRepo, userID, subjectID)
	if err != nil {
		return nil, err
	}
	if err := ss.attachTopics(dbc, subject); err != nil {
		return nil, err
	}
	return subject, nil
}

func (ss *subjectService) UpdateSubject(ctx context.Context, userID, subjectID uuid.UUID, in UpdateSubjectInput) (*types.Subject, error) {
	if in.Name != nil {
		*in.Name = strings.TrimSpace(*in.Name)
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := ownedSubject(dbc, ss.subjectRepo, userID, subjectID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Need != nil {
		updates["need"] = strings.TrimSpace(*in.Need)
	}
	if in.DurationWeeks != nil {
		updates["duration_weeks"] = *in.DurationWeeks
	}
	if in.Level != nil {
		updates["level"] = *in.Level
	}
	if in.Intensity != nil {
		updates["intensity"] = *in.Intensity
	}
	if in.Language != nil {
		updates["language"] = strings.TrimSpace(*in.Language)
	}
	if len(updates) == 0 {
		return nil, apierr.BadRequest("no fields to update")
	}
	if err := ss.subjectRepo.UpdateFields(dbc, subjectID, updates); err != nil {
		return nil, fmt.Errorf("update subject: %w", err)
	}
	return ss.GetSubject(ctx, userID, subjectID)
}

func (ss *subjectService) DeleteSubject(ctx context.Context, userID, subjectID uuid.UUID) error {
	var scans []*types.ScanHistory
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := ownedSubject(dbc, ss.subjectRepo, userID, subjectID); err != nil {
			return err
		}
		topicIDs, err := ss.topicRepo.LockIDsBySubject(dbc, subjectID)
		if err != nil {
			return err
		}
		if err := ss.deleteTopicData(dbc, topicIDs); err != nil {
			return err
		}
		if err := ss.jobRepo.DeleteBySubject(dbc, subjectID); err != nil {
			return fmt.Errorf("delete jobs: %w", err)
		}
		threadIDs, err := ss.threadRepo.ListIDsBySubject(dbc, subjectID)
		if err != nil {
			return err
		}
		if err := ss.messageRepo.DeleteByThreadIDs(dbc, threadIDs); err != nil {
			return fmt.Errorf("delete chat messages: %w", err)
		}
		if err := ss.threadRepo.DeleteByIDs(dbc, threadIDs); err != nil {
			return fmt.Errorf("delete chat threads: %w", err)
		}
		scans, err = ss.scanRepo.DeleteBySubject(dbc, userID, subjectID)
		if err != nil {
			return fmt.Errorf("delete scan history: %w", err)
		}
		if err := ss.topicRepo.DeleteBySubject(dbc, subjectID); err != nil {
			return fmt.Errorf("delete topics: %w", err)
		}
		return ss.subjectRepo.DeleteByID(dbc, subjectID)
	})
	if err != nil {
		return err
	}
	removeScanImages(ctx, ss.log, ss.bucketService, scans)
	ss.log.Info("Subject deleted", "subject_id", subjectID)
	return nil
}

func (ss *subjectService) ResetSubject(ctx context.Context, userID, subjectID uuid.UUID, titles []string) (*types.Subject, error) {
	dbc := dbctx.Context{Ctx: ctx}
	subject, err := ownedSubject(dbc, ss.subjectRepo, userID, subjectID)
	if err != nil {
		return nil, err
	}
	titles = cleanTitles(titles)
	if len(titles) > maxTopicsPerSubject {
		return nil, apierr.BadRequest("topics must have at most %d items", maxTopicsPerSubject)
	}
	if len(titles) == 0 {
		if ss.syllabus == nil {
			return nil, apierr.BadRequest("topics is required")
		}
		// The LLM call stays outside the transaction.
		titles, err = ss.syllabus.GenerateSyllabus(ctx, SyllabusInput{
			Name:          subject.Name,
			Need:          subject.Need,
			Level:         subject.Level,
			DurationWeeks: subject.DurationWeeks,
			Intensity:     subject.Intensity,
			Language:      subject.Language,
		})
		if err != nil {
			return nil, err
		}
	}

	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		oldIDs, err := ss.topicRepo.LockIDsBySubject(txc, subjectID)
		if err != nil {
			return err
		}
		if err := ss.deleteTopicData(txc, oldIDs); err != nil {
			return err
		}
		if err := ss.jobRepo.DeleteBySubject(txc, subjectID); err != nil {
			return fmt.Errorf("delete jobs: %w", err)
		}
		if err := ss.topicRepo.DeleteBySubject(txc, subjectID); err != nil {
			return fmt.Errorf("delete topics: %w", err)
		}
		topics, err := ss.createTopics(txc, subject, titles)
		if err != nil {
			return err
		}
		subject.Topics = topics
		if ss.jobService != nil {
			if _, err := ss.jobService.EnqueueSubject(txc, userID, subjectID, subject.Language); err != nil {
				return fmt.Errorf("enqueue generation: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	subject.TopicCount = len(subject.Topics)
	ss.log.Info("Subject reset", "subject_id", subjectID, "topics", subject.TopicCount)
	return subject, nil
}

func (ss *subjectService) createTopics(dbc dbctx.Context, subject *types.Subject, titles []string) ([]*types.Topic, error) {
	topics := make([]*types.Topic, 0, len(titles))
	for i, title := range titles {
		topics = append(topics, &types.Topic{
			SubjectID: subject.ID,
			UserID:    subject.UserID,
			Position:  i + 1,
			Title:     title,
		})
	}
	if _, err := ss.topicRepo.Create(dbc, topics); err != nil {
		return nil, fmt.Errorf("create topics: %w", err)
	}
	return topics, nil
}

func (ss *subjectService) deleteTopicData(dbc dbctx.Context, topicIDs []uuid.UUID) error {
	if len(topicIDs) == 0 {
		return nil
	}
	if err := ss.contentRepo.DeleteByTopicIDs(dbc, topicIDs); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	if err := ss.questionRepo.DeleteByTopicIDs(dbc, topicIDs); err != nil {
		return fmt.Errorf("delete quiz questions: %w", err)
	}
	if err := ss.resultRepo.DeleteByTopicIDs(dbc, topicIDs); err != nil {
		return fmt.Errorf("delete quiz results: %w", err)
	}
	return nil
}

func (ss *subjectService) attachTopics(dbc dbctx.Context, subject *types.Subject) error {
	topics, err := ss.topicRepo.ListBySubject(dbc, subject.ID)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	subject.Topics = topics
	subject.TopicCount = len(topics)
	subject.PassedCount = lo.CountBy(topics, func(t *types.Topic) bool { return t.Passed })
	return nil
}

func cleanTitles(titles []string) []string {
	return lo.Compact(lo.Map(titles, func(t string, _ int) string {
		return strings.TrimSpace(t)
	}))
}

func filterSubjects(subjects []*types.Subject, query string) []*types.Subject {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return subjects
	}
	type ranked struct {
		subject *types.Subject
		rank    int
	}
	hits := make([]ranked, 0, len(subjects))
	for _, s := range subjects {
		rank, ok := 0, true
		for _, term := range terms {
			if r := fuzzy.RankMatchFold(term, s.Name); r >= 0 {
				rank += r
				continue
			}
			if fuzzy.MatchFold(term, s.Need) {
				// Need-only matches sort after every name match.
				rank += 1 << 16
				continue
			}
			ok = false
			break
		}
		if ok {
			hits = append(hits, ranked{subject: s, rank: rank})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].rank < hits[j].rank })
	return lo.Map(hits, func(h ranked, _ int) *types.Subject { return h.subject })
}
