package learning

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/data/repos/testutil"
	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
)

func TestSubjectAndTopicRepos(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	log := testutil.Logger(t)

	subjects := NewSubjectRepo(db, log)
	topics := NewTopicRepo(db, log)

	owner := testutil.SeedUser(t, ctx, db, "owner@example.com")
	other := testutil.SeedUser(t, ctx, db, "other@example.com")
	subject := testutil.SeedSubject(t, ctx, db, owner.ID, "Algebra")
	seeded := testutil.SeedTopics(t, ctx, db, subject, "Variables", "Equations", "Inequalities")

	if _, err := subjects.GetByIDForUser(dbc, other.ID, subject.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("GetByIDForUser (foreign): expected not found, got %v", err)
	}
	if got, err := subjects.GetByIDForUser(dbc, owner.ID, subject.ID); err != nil || got.Name != "Algebra" {
		t.Fatalf("GetByIDForUser: got=%+v err=%v", got, err)
	}

	if err := topics.UpdateFields(dbc, seeded[0].ID, map[string]interface{}{"position": 5}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if err := topics.UpdateFields(dbc, seeded[1].ID, map[string]interface{}{"passed": true}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	list, err := topics.ListBySubject(dbc, subject.ID)
	if err != nil {
		t.Fatalf("ListBySubject: %v", err)
	}
	if len(list) != 3 || list[0].Title != "Equations" || list[2].Title != "Variables" {
		t.Fatalf("ListBySubject: unexpected order: %v", titles(list))
	}

	counts, err := topics.CountBySubjects(dbc, []uuid.UUID{subject.ID})
	if err != nil {
		t.Fatalf("CountBySubjects: %v", err)
	}
	if c := counts[subject.ID]; c.Total != 3 || c.Passed != 1 {
		t.Fatalf("CountBySubjects: unexpected %+v", c)
	}

	if err := topics.DeleteBySubject(dbc, subject.ID); err != nil {
		t.Fatalf("DeleteBySubject: %v", err)
	}
	if err := subjects.DeleteByID(dbc, subject.ID); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if _, err := subjects.GetByID(dbc, subject.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("GetByID after delete: expected not found, got %v", err)
	}
}

func TestTopicContentUpsert(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewTopicContentRepo(db, testutil.Logger(t))
	topicID := uuid.New()

	if err := repo.Upsert(dbc, []*types.TopicContent{
		{TopicID: topicID, Mode: types.ModeExplain, Language: "en", Content: "v1"},
		{TopicID: topicID, Mode: types.ModeTry, Language: "en", Content: "v1"},
	}); err != nil {
		t.Fatalf("Upsert #1: %v", err)
	}
	if err := repo.Upsert(dbc, []*types.TopicContent{
		{TopicID: topicID, Mode: types.ModeExplain, Language: "en", Content: "v2", Failed: true},
	}); err != nil {
		t.Fatalf("Upsert #2: %v", err)
	}

	got, err := repo.Get(dbc, topicID, types.ModeExplain, "en")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Content != "v2" || !got.Failed {
		t.Fatalf("Get: expected replaced row, got %+v", got)
	}
	all, err := repo.ListByTopic(dbc, topicID, "en")
	if err != nil || len(all) != 2 {
		t.Fatalf("ListByTopic: len=%d err=%v", len(all), err)
	}
	if _, err := repo.Get(dbc, topicID, types.ModeExplain, "fr"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("Get (other language): expected not found, got %v", err)
	}
}

func TestQuizQuestionReplaceSet(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewQuizQuestionRepo(db, testutil.Logger(t))
	topicID := uuid.New()

	if err := repo.ReplaceSet(dbc, topicID, "en", questions("old", 3)); err != nil {
		t.Fatalf("ReplaceSet #1: %v", err)
	}
	if err := repo.ReplaceSet(dbc, topicID, "fr", questions("fr", 2)); err != nil {
		t.Fatalf("ReplaceSet fr: %v", err)
	}
	if err := repo.ReplaceSet(dbc, topicID, "en", questions("new", 2)); err != nil {
		t.Fatalf("ReplaceSet #2: %v", err)
	}

	got, err := repo.ListByTopic(dbc, topicID, "en")
	if err != nil {
		t.Fatalf("ListByTopic: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}
	for i, q := range got {
		if q.Question != "new" || q.Position != i+1 {
			t.Fatalf("unexpected question %d: %+v", i, q)
		}
	}
	fr, _ := repo.ListByTopic(dbc, topicID, "fr")
	if len(fr) != 2 {
		t.Fatalf("other language must be untouched, got %d", len(fr))
	}
}

func TestQuizResultUpsert(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewQuizResultRepo(db, testutil.Logger(t))
	topicID, userID := uuid.New(), uuid.New()

	none, err := repo.Get(dbc, topicID, userID)
	if err != nil || none != nil {
		t.Fatalf("Get (none): got=%v err=%v", none, err)
	}

	first, err := repo.Upsert(dbc, &types.QuizResult{TopicID: topicID, UserID: userID, Score: 4, Total: 10})
	if err != nil {
		t.Fatalf("Upsert #1: %v", err)
	}
	second, err := repo.Upsert(dbc, &types.QuizResult{TopicID: topicID, UserID: userID, Score: 9, Total: 10, Passed: true})
	if err != nil {
		t.Fatalf("Upsert #2: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected a single row, ids %v and %v", first.ID, second.ID)
	}
	if second.Score != 9 || !second.Passed {
		t.Fatalf("expected latest result, got %+v", second)
	}

	var count int64
	db.Model(&types.QuizResult{}).Where("topic_id = ?", topicID).Count(&count)
	if count != 1 {
		t.Fatalf("expected one stored result, got %d", count)
	}
}

func questions(text string, n int) []*types.QuizQuestion {
	out := make([]*types.QuizQuestion, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &types.QuizQuestion{
			Question:     text,
			Options:      datatypes.JSON([]byte(`["a","b","c","d"]`)),
			CorrectIndex: 1,
		})
	}
	return out
}

func titles(topics []*types.Topic) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		out = append(out, t.Title)
	}
	return out
}
