package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/studypath-backend/internal/platform/apierr"
)

func TestReorderTopics(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "reorder@example.com")
	other := f.user(t, "intruder@example.com")
	subject, topics := f.subject(t, owner, "Art", "Color", "Line", "Form")
	_, foreign := f.subject(t, other, "Secret", "Hidden")
	svc := NewTopicService(f.db, f.log, f.subjects, f.topics)

	err := svc.ReorderTopics(f.ctx, owner.ID, ReorderInput{Topics: []TopicOrder{
		{ID: topics[2].ID, Order: 1},
		{ID: topics[0].ID, Order: 2},
		{ID: topics[1].ID, Order: 3},
	}})
	if err != nil {
		t.Fatalf("ReorderTopics: %v", err)
	}
	list, err := svc.ListTopics(f.ctx, owner.ID, subject.ID)
	if err != nil {
		t.Fatalf("ListTopics: %v", err)
	}
	want := []string{"Form", "Color", "Line"}
	for i, tp := range list {
		if tp.Title != want[i] {
			t.Fatalf("position %d: got %q, want %q", i+1, tp.Title, want[i])
		}
	}

	// One foreign topic rolls back the whole batch.
	err = svc.ReorderTopics(f.ctx, owner.ID, ReorderInput{Topics: []TopicOrder{
		{ID: topics[0].ID, Order: 9},
		{ID: foreign[0].ID, Order: 1},
	}})
	if apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("foreign topic: expected 404, got %v", err)
	}
	again, err := svc.ListTopics(f.ctx, owner.ID, subject.ID)
	if err != nil {
		t.Fatalf("ListTopics: %v", err)
	}
	if again[1].ID != topics[0].ID || again[1].Position != 2 {
		t.Fatalf("partial reorder leaked: %+v", again[1])
	}

	err = svc.ReorderTopics(f.ctx, owner.ID, ReorderInput{Topics: []TopicOrder{
		{ID: topics[0].ID, Order: 1},
		{ID: topics[0].ID, Order: 2},
	}})
	if apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("duplicate id: expected 400, got %v", err)
	}
	if err := svc.ReorderTopics(f.ctx, owner.ID, ReorderInput{}); apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("empty list: expected 400, got %v", err)
	}
	err = svc.ReorderTopics(f.ctx, owner.ID, ReorderInput{Topics: []TopicOrder{{ID: uuid.New(), Order: 1}}})
	if apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("unknown topic: expected 404, got %v", err)
	}
}

func TestUpdateAndPassTopic(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "topic@example.com")
	other := f.user(t, "nosy@example.com")
	_, topics := f.subject(t, owner, "Drama", "Acting")
	svc := NewTopicService(f.db, f.log, f.subjects, f.topics)

	got, err := svc.UpdateTopic(f.ctx, owner.ID, topics[0].ID, UpdateTopicInput{Title: ptr(" Method acting "), Order: ptr(5)})
	if err != nil {
		t.Fatalf("UpdateTopic: %v", err)
	}
	if got.Title != "Method acting" || got.Position != 5 {
		t.Fatalf("topic = %+v", got)
	}
	if _, err := svc.UpdateTopic(f.ctx, other.ID, topics[0].ID, UpdateTopicInput{Title: ptr("x")}); apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("foreign update: expected 404, got %v", err)
	}

	passed, err := svc.PassTopic(f.ctx, owner.ID, topics[0].ID)
	if err != nil {
		t.Fatalf("PassTopic: %v", err)
	}
	if !passed.Passed || passed.PassedAt == nil {
		t.Fatalf("topic not passed: %+v", passed)
	}
}
