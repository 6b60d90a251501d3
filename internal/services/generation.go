package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/data/repos"
	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/learning/content"
	"github.com/yungbote/studypath-backend/internal/learning/prompts"
	"github.com/yungbote/studypath-backend/internal/observability"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/keylock"
	"github.com/yungbote/studypath-backend/internal/platform/llm"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
	"github.com/yungbote/studypath-backend/internal/realtime"
)

// FallbackContent is stored for a mode whose generation call failed.
const FallbackContent = "Content generation failed, please retry."

type GenerateTopicInput struct {
	TopicID     uuid.UUID
	UserID      uuid.UUID
	TopicTitle  string
	SubjectName string
	Language    string
}

type GenerationReport struct {
	TopicID       uuid.UUID `json:"topic_id"`
	Language      string    `json:"language"`
	FailedModes   []string  `json:"failed_modes"`
	QuizFailed    bool      `json:"quiz_failed"`
	QuizQuestions int       `json:"quiz_questions"`
}

func (r *GenerationReport) OK() bool {
	return r != nil && len(r.FailedModes) == 0 && !r.QuizFailed
}

// AllFailed reports whether no call produced anything usable.
func (r *GenerationReport) AllFailed() bool {
	return r != nil && len(r.FailedModes) == len(types.ContentModes) && r.QuizFailed
}

type GenerationService interface {
	GenerateTopic(ctx context.Context, in GenerateTopicInput) (*GenerationReport, error)
	// GenerateTopicByID loads the topic and its subject for userID, then runs
	// GenerateTopic. An empty language uses the subject's language.
	GenerateTopicByID(ctx context.Context, userID, topicID uuid.UUID, language string) (*GenerationReport, error)
}

type generationService struct {
	db           *gorm.DB
	log          *logger.Logger
	llm          llm.Client
	locker       keylock.Locker
	emitter      realtime.Emitter
	subjectRepo  repos.SubjectRepo
	topicRepo    repos.TopicRepo
	contentRepo  repos.TopicContentRepo
	questionRepo repos.QuizQuestionRepo
}

func NewGenerationService(
	db *gorm.DB,
	log *logger.Logger,
	client llm.Client,
	locker keylock.Locker,
	emitter realtime.Emitter,
	subjectRepo repos.SubjectRepo,
	topicRepo repos.TopicRepo,
	contentRepo repos.TopicContentRepo,
	questionRepo repos.QuizQuestionRepo,
) GenerationService {
	if locker == nil {
		locker = keylock.NewLocal()
	}
	if emitter == nil {
		emitter = realtime.NopEmitter{}
	}
	return &generationService{
		db:           db,
		log:          log.With("service", "GenerationService"),
		llm:          client,
		locker:       locker,
		emitter:      emitter,
		subjectRepo:  subjectRepo,
		topicRepo:    topicRepo,
		contentRepo:  contentRepo,
		questionRepo: questionRepo,
	}
}

func (gs *generationService) GenerateTopicByID(ctx context.Context, userID, topicID uuid.UUID, language string) (*GenerationReport, error) {
	dbc := dbctx.Context{Ctx: ctx}
	topic, err := gs.topicRepo.GetByID(dbc, topicID)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}
	subject, err := gs.subjectRepo.GetByIDForUser(dbc, userID, topic.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("load subject: %w", err)
	}
	if strings.TrimSpace(language) == "" {
		language = subject.Language
	}
	return gs.GenerateTopic(ctx, GenerateTopicInput{
		TopicID:     topic.ID,
		UserID:      userID,
		TopicTitle:  topic.Title,
		SubjectName: subject.Name,
		Language:    language,
	})
}

func (gs *generationService) GenerateTopic(ctx context.Context, in GenerateTopicInput) (*GenerationReport, error) {
	if in.TopicID == uuid.Nil {
		return nil, fmt.Errorf("topic id required")
	}
	in.Language = strings.TrimSpace(in.Language)
	if in.Language == "" {
		in.Language = types.DefaultLanguage
	}

	ctx, span := observability.Tracer().Start(ctx, "generation.topic")
	defer span.End()
	span.SetAttributes(
		attribute.String("topic.id", in.TopicID.String()),
		attribute.String("content.language", in.Language),
	)

	release, err := gs.locker.Lock(ctx, "topic-content:"+in.TopicID.String()+":"+in.Language)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("acquire generation lock: %w", err)
	}
	defer release()

	base := prompts.Input{
		SubjectName:   in.SubjectName,
		TopicTitle:    in.TopicTitle,
		Language:      in.Language,
		QuestionCount: types.QuizQuestionsPerTopic,
	}

	texts := make([]string, len(types.ContentModes))
	failed := make([]bool, len(types.ContentModes))
	var (
		questions []*types.QuizQuestion
		quizErr   error
	)

	var g errgroup.Group
	for i, mode := range types.ContentModes {
		g.Go(func() error {
			text, err := gs.generateMode(ctx, mode, base)
			if err != nil {
				gs.log.Warn("Content generation failed", "topic_id", in.TopicID, "mode", mode, "error", err)
				texts[i], failed[i] = FallbackContent, true
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	g.Go(func() error {
		questions, quizErr = gs.generateQuiz(ctx, base)
		if quizErr != nil {
			gs.log.Warn("Content generation failed", "topic_id", in.TopicID, "mode", types.ModeQuiz, "error", quizErr)
		}
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &GenerationReport{
		TopicID:     in.TopicID,
		Language:    in.Language,
		FailedModes: []string{},
		QuizFailed:  quizErr != nil,
	}
	if quizErr == nil {
		report.QuizQuestions = len(questions)
	}

	err = gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		// The subject may have been deleted or reset while the calls ran.
		if _, err := gs.topicRepo.LockByID(dbc, in.TopicID); err != nil {
			return notFoundOr(err, "topic")
		}
		existing, err := gs.contentRepo.ListByTopic(dbc, in.TopicID, in.Language)
		if err != nil {
			return err
		}
		good := map[string]bool{}
		for _, row := range existing {
			if !row.Failed {
				good[row.Mode] = true
			}
		}

		rows := make([]*types.TopicContent, 0, len(types.ContentModes))
		for i, mode := range types.ContentModes {
			if failed[i] {
				report.FailedModes = append(report.FailedModes, mode)
				// A fallback never replaces content that was generated before.
				if good[mode] {
					continue
				}
			}
			rows = append(rows, &types.TopicContent{
				TopicID:  in.TopicID,
				Mode:     mode,
				Language: in.Language,
				Content:  texts[i],
				Failed:   failed[i],
			})
		}
		if err := gs.contentRepo.Upsert(dbc, rows); err != nil {
			return fmt.Errorf("upsert content: %w", err)
		}
		if quizErr == nil {
			if err := gs.questionRepo.ReplaceSet(dbc, in.TopicID, in.Language, questions); err != nil {
				return fmt.Errorf("replace quiz: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist generated content")
		return nil, err
	}

	span.SetAttributes(
		attribute.StringSlice("generation.failed_modes", report.FailedModes),
		attribute.Bool("generation.quiz_failed", report.QuizFailed),
	)
	if !report.OK() {
		span.SetStatus(codes.Error, "partial generation")
	}

	gs.emitter.EmitToUser(ctx, in.UserID, realtime.SSEEventTopicContentGenerated, report)
	gs.log.Info("Topic content generated",
		"topic_id", in.TopicID,
		"language", in.Language,
		"failed_modes", report.FailedModes,
		"quiz_failed", report.QuizFailed,
	)
	return report, nil
}

func (gs *generationService) generateMode(ctx context.Context, mode string, in prompts.Input) (string, error) {
	name, ok := prompts.ContentPrompt(mode)
	if !ok {
		return "", fmt.Errorf("unknown mode %q", mode)
	}
	p, err := prompts.Build(name, in)
	if err != nil {
		return "", err
	}
	text, err := gs.llm.GenerateText(ctx, p.System, p.User)
	if err != nil {
		return "", err
	}
	text, scrubbed := content.ScrubMeta(strings.TrimSpace(text))
	if len(scrubbed) > 0 {
		gs.log.Debug("Scrubbed meta text from generated content", "mode", mode, "rules", scrubbed)
	}
	if text == "" {
		return "", errors.New("empty completion")
	}
	return text, nil
}

func (gs *generationService) generateQuiz(ctx context.Context, in prompts.Input) ([]*types.QuizQuestion, error) {
	p, err := prompts.Build(prompts.PromptQuiz, in)
	if err != nil {
		return nil, err
	}
	obj, err := gs.llm.GenerateJSON(ctx, p.System, p.User, p.SchemaName, p.Schema)
	if err != nil {
		return nil, err
	}
	var out prompts.QuizOutput
	if err := llm.Decode(obj, &out); err != nil {
		return nil, err
	}
	questions := sanitizeQuizItems(out.Questions, types.QuizQuestionsPerTopic)
	if len(questions) == 0 {
		return nil, errors.New("no valid quiz questions")
	}
	return questions, nil
}

// sanitizeQuizItems drops malformed items (not exactly four options, blank
// text, correct index out of range) and keeps at most limit.
func sanitizeQuizItems(items []prompts.QuizItem, limit int) []*types.QuizQuestion {
	out := make([]*types.QuizQuestion, 0, limit)
	now := time.Now().UTC()
	for _, it := range items {
		if len(out) >= limit {
			break
		}
		question := strings.TrimSpace(it.Question)
		if question == "" || len(it.Options) != 4 {
			continue
		}
		if it.CorrectIndex < 0 || it.CorrectIndex >= len(it.Options) {
			continue
		}
		opts := make([]string, len(it.Options))
		blank := false
		for i, o := range it.Options {
			opts[i] = strings.TrimSpace(o)
			if opts[i] == "" {
				blank = true
			}
		}
		if blank {
			continue
		}
		raw, err := json.Marshal(opts)
		if err != nil {
			continue
		}
		out = append(out, &types.QuizQuestion{
			Question:     question,
			Options:      datatypes.JSON(raw),
			CorrectIndex: it.CorrectIndex,
			Explanation:  strings.TrimSpace(it.Explanation),
			CreatedAt:    now,
		})
	}
	return out
}
