package services

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/learning/prompts"
	"github.com/yungbote/studypath-backend/internal/platform/apierr"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
)

func TestGenerateTopicPartialSuccess(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "gen@example.com")
	subject, topics := f.subject(t, owner, "Algebra", "Linear equations")
	topic := topics[0]

	f.llm.TextFn = func(_, user string) (string, error) {
		if strings.HasPrefix(strings.TrimSpace(user), "Demonstrate") {
			return "", errors.New("provider down")
		}
		return "generated text", nil
	}
	f.llm.JSON = quizJSON(12)

	report, err := f.generationService().GenerateTopicByID(f.ctx, owner.ID, topic.ID, "")
	if err != nil {
		t.Fatalf("GenerateTopicByID: %v", err)
	}
	if report.Language != subject.Language {
		t.Fatalf("language = %q, want subject language %q", report.Language, subject.Language)
	}
	if len(report.FailedModes) != 1 || report.FailedModes[0] != types.ModeDemonstrate {
		t.Fatalf("failed modes = %v", report.FailedModes)
	}
	if report.QuizFailed || report.QuizQuestions != types.QuizQuestionsPerTopic {
		t.Fatalf("quiz: failed=%v questions=%d", report.QuizFailed, report.QuizQuestions)
	}
	if got := f.llm.Calls("text"); got != len(types.ContentModes) {
		t.Fatalf("text calls = %d", got)
	}

	dbc := dbctx.Context{Ctx: f.ctx}
	rows, err := f.content.ListByTopic(dbc, topic.ID, subject.Language)
	if err != nil {
		t.Fatalf("ListByTopic: %v", err)
	}
	if len(rows) != len(types.ContentModes) {
		t.Fatalf("content rows = %d", len(rows))
	}
	for _, row := range rows {
		if row.Mode == types.ModeDemonstrate {
			if row.Content != FallbackContent || !row.Failed {
				t.Fatalf("demonstrate row = %q failed=%v", row.Content, row.Failed)
			}
			continue
		}
		if row.Content != "generated text" || row.Failed {
			t.Fatalf("%s row = %q failed=%v", row.Mode, row.Content, row.Failed)
		}
	}
	qs, err := f.quiz.ListByTopic(dbc, topic.ID, subject.Language)
	if err != nil {
		t.Fatalf("quiz ListByTopic: %v", err)
	}
	if len(qs) != types.QuizQuestionsPerTopic {
		t.Fatalf("quiz questions = %d", len(qs))
	}
}

func TestGenerateTopicKeepsGoodContentAndQuizOnFailure(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "regen@example.com")
	_, topics := f.subject(t, owner, "Biology", "Cells")
	topic := topics[0]
	gen := f.generationService()

	f.llm.Text = "first pass"
	f.llm.JSON = quizJSON(10)
	if _, err := gen.GenerateTopicByID(f.ctx, owner.ID, topic.ID, "en"); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Everything fails on the second run.
	f.llm.Text = ""
	f.llm.JSON = nil
	f.llm.Err = errors.New("quota exceeded")
	report, err := gen.GenerateTopicByID(f.ctx, owner.ID, topic.ID, "en")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !report.AllFailed() {
		t.Fatalf("expected AllFailed, got %+v", report)
	}

	dbc := dbctx.Context{Ctx: f.ctx}
	rows, err := f.content.ListByTopic(dbc, topic.ID, "en")
	if err != nil {
		t.Fatalf("ListByTopic: %v", err)
	}
	for _, row := range rows {
		if row.Content != "first pass" {
			t.Fatalf("%s overwritten with %q", row.Mode, row.Content)
		}
	}
	qs, err := f.quiz.ListByTopic(dbc, topic.ID, "en")
	if err != nil {
		t.Fatalf("quiz ListByTopic: %v", err)
	}
	if len(qs) != 10 {
		t.Fatalf("quiz should survive a failed run, got %d questions", len(qs))
	}
}

func TestGenerateTopicReplacesQuizSet(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "quiz@example.com")
	_, topics := f.subject(t, owner, "Chemistry", "Bonds")
	topic := topics[0]
	gen := f.generationService()

	f.llm.Text = "text"
	f.llm.JSON = quizJSON(10)
	if _, err := gen.GenerateTopicByID(f.ctx, owner.ID, topic.ID, "en"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	f.llm.JSON = quizJSON(5)
	report, err := gen.GenerateTopicByID(f.ctx, owner.ID, topic.ID, "en")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.QuizQuestions != 5 {
		t.Fatalf("quiz questions = %d", report.QuizQuestions)
	}
	qs, err := f.quiz.ListByTopic(dbctx.Context{Ctx: f.ctx}, topic.ID, "en")
	if err != nil {
		t.Fatalf("ListByTopic: %v", err)
	}
	if len(qs) != 5 {
		t.Fatalf("expected the new set only, got %d", len(qs))
	}
}

func TestGenerateTopicByIDRejectsForeignTopic(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")
	_, topics := f.subject(t, owner, "History", "Rome")

	f.llm.Text = "text"
	if _, err := f.generationService().GenerateTopicByID(f.ctx, other.ID, topics[0].ID, ""); err == nil {
		t.Fatalf("expected an error for a topic the user does not own")
	}
	if got := f.llm.Calls(""); got != 0 {
		t.Fatalf("llm called %d times", got)
	}
}

func TestGenerateTopicSkipsWritesForDeletedSubject(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "deleted@example.com")
	subject, topics := f.subject(t, owner, "Physics", "Motion")
	topic := topics[0]
	subjects := f.subjectService(nil)

	f.llm.Text = "text"
	f.llm.JSONFn = func(_, _ string) (map[string]any, error) {
		if err := subjects.DeleteSubject(f.ctx, owner.ID, subject.ID); err != nil {
			t.Errorf("DeleteSubject: %v", err)
		}
		return quizJSON(10), nil
	}

	_, err := f.generationService().GenerateTopic(f.ctx, GenerateTopicInput{
		TopicID:     topic.ID,
		UserID:      owner.ID,
		TopicTitle:  topic.Title,
		SubjectName: subject.Name,
		Language:    "en",
	})
	if apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("err = %v, want not found", err)
	}

	var contentRows, quizRows int64
	if err := f.db.Model(&types.TopicContent{}).Where("topic_id = ?", topic.ID).Count(&contentRows).Error; err != nil {
		t.Fatalf("count content: %v", err)
	}
	if err := f.db.Model(&types.QuizQuestion{}).Where("topic_id = ?", topic.ID).Count(&quizRows).Error; err != nil {
		t.Fatalf("count quiz: %v", err)
	}
	if contentRows != 0 || quizRows != 0 {
		t.Fatalf("rows left for deleted topic: content=%d quiz=%d", contentRows, quizRows)
	}
}

func TestSanitizeQuizItems(t *testing.T) {
	items := []prompts.QuizItem{
		{Question: "ok", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2, Explanation: " why "},
		{Question: "three options", Options: []string{"a", "b", "c"}, CorrectIndex: 0},
		{Question: "bad index", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 4},
		{Question: "negative", Options: []string{"a", "b", "c", "d"}, CorrectIndex: -1},
		{Question: "  ", Options: []string{"a", "b", "c", "d"}},
		{Question: "blank option", Options: []string{"a", " ", "c", "d"}},
		{Question: "second ok", Options: []string{"w", "x", "y", "z"}, CorrectIndex: 0},
		{Question: "over limit", Options: []string{"w", "x", "y", "z"}, CorrectIndex: 0},
	}
	got := sanitizeQuizItems(items, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}
	if got[0].Question != "ok" || got[0].CorrectIndex != 2 || got[0].Explanation != "why" {
		t.Fatalf("first = %+v", got[0])
	}
	if opts := got[0].OptionList(); len(opts) != 4 || opts[2] != "c" {
		t.Fatalf("options = %v", opts)
	}
	if got[1].Question != "second ok" {
		t.Fatalf("second = %q", got[1].Question)
	}
}
