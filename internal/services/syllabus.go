package services

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"

	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/learning/prompts"
	"github.com/yungbote/studypath-backend/internal/platform/apierr"
	"github.com/yungbote/studypath-backend/internal/platform/llm"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

const (
	minSyllabusTopics  = 3
	maxSyllabusTopics  = 40
	maxSourceTextChars = 20000
)

type SyllabusInput struct {
	Name          string `json:"name" validate:"required,max=200"`
	Need          string `json:"need" validate:"max=2000"`
	Level         string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	DurationWeeks int    `json:"duration_weeks" validate:"gte=1,lte=52"`
	Intensity     string `json:"intensity" validate:"omitempty,oneof=light medium intense"`
	Language      string `json:"language" validate:"omitempty,min=2,max=10"`
	SourceText    string `json:"source_text"`
}

type SyllabusService interface {
	GenerateSyllabus(ctx context.Context, in SyllabusInput) ([]string, error)
}

type syllabusService struct {
	log *logger.Logger
	llm llm.Client
}

func NewSyllabusService(log *logger.Logger, client llm.Client) SyllabusService {
	return &syllabusService{log: log.With("service", "SyllabusService"), llm: client}
}

// TopicCountFor scales the syllabus length with the study plan.
func TopicCountFor(durationWeeks int, intensity string) int {
	perWeek := 3
	switch intensity {
	case types.IntensityLight:
		perWeek = 2
	case types.IntensityIntense:
		perWeek = 5
	}
	return lo.Clamp(durationWeeks*perWeek, minSyllabusTopics, maxSyllabusTopics)
}

func (s *syllabusService) GenerateSyllabus(ctx context.Context, in SyllabusInput) ([]string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Level = lo.CoalesceOrEmpty(strings.TrimSpace(in.Level), types.LevelBeginner)
	in.Intensity = lo.CoalesceOrEmpty(strings.TrimSpace(in.Intensity), types.IntensityMedium)
	in.Language = lo.CoalesceOrEmpty(strings.TrimSpace(in.Language), types.DefaultLanguage)
	if in.DurationWeeks == 0 {
		in.DurationWeeks = 4
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	count := TopicCountFor(in.DurationWeeks, in.Intensity)
	p, err := prompts.Build(prompts.PromptSyllabus, prompts.Input{
		SubjectName:   in.Name,
		SubjectNeed:   in.Need,
		Level:         in.Level,
		Intensity:     in.Intensity,
		DurationWeeks: in.DurationWeeks,
		TopicCount:    count,
		Language:      in.Language,
		SourceText:    truncateRunes(strings.TrimSpace(in.SourceText), maxSourceTextChars),
	})
	if err != nil {
		return nil, err
	}

	obj, err := s.llm.GenerateJSON(ctx, p.System, p.User, p.SchemaName, p.Schema)
	if err != nil {
		s.log.Warn("Syllabus generation failed", "subject", in.Name, "error", err)
		return nil, apierr.Upstream("syllabus generation", err)
	}
	var out prompts.SyllabusOutput
	if err := llm.Decode(obj, &out); err != nil {
		return nil, apierr.Upstream("syllabus generation", err)
	}

	topics := lo.Uniq(lo.Compact(lo.Map(out.Topics, func(t string, _ int) string {
		return strings.TrimSpace(t)
	})))
	if len(topics) == 0 {
		return nil, apierr.Upstream("syllabus generation", errors.New("model returned no topics"))
	}
	if len(topics) > count {
		topics = topics[:count]
	}
	return topics, nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
