package services

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/apierr"
	"github.com/yungbote/studypath-backend/internal/platform/llm"
)

func newChatService(f *fixture) ChatService {
	return NewChatService(f.db, f.log, f.llm, nil, f.subjects, f.threads, f.messages)
}

func TestSendMessageCreatesThread(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "chat@example.com")
	subject, _ := f.subject(t, owner, "Spanish")
	svc := newChatService(f)

	var seen []llm.Message
	f.llm.ChatFn = func(history []llm.Message) (string, error) {
		seen = history
		return "Hola!", nil
	}

	msg := "How do I conjugate ser?\nIn the past tense please"
	ex, err := svc.SendMessage(f.ctx, owner.ID, SendMessageInput{SubjectID: subject.ID, Message: msg})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if ex.Thread.Title != "How do I conjugate ser?" {
		t.Fatalf("title = %q", ex.Thread.Title)
	}
	if ex.UserMessage.Seq != 1 || ex.AssistantMessage.Seq != 2 || ex.AssistantMessage.Content != "Hola!" {
		t.Fatalf("exchange = %+v / %+v", ex.UserMessage, ex.AssistantMessage)
	}
	if len(seen) != 1 || seen[0].Role != types.ChatRoleUser {
		t.Fatalf("history sent to tutor = %+v", seen)
	}

	threadID := ex.Thread.ID
	if _, err := svc.SendMessage(f.ctx, owner.ID, SendMessageInput{SubjectID: subject.ID, ThreadID: &threadID, Message: "and the future?"}); err != nil {
		t.Fatalf("follow-up: %v", err)
	}
	if len(seen) != 3 {
		t.Fatalf("follow-up history = %d messages, want 3", len(seen))
	}

	threads, err := svc.ListThreads(f.ctx, owner.ID, subject.ID)
	if err != nil || len(threads) != 1 {
		t.Fatalf("threads = %v, %v", threads, err)
	}
	msgs, err := svc.ListMessages(f.ctx, owner.ID, threadID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 4 || msgs[3].Role != types.ChatRoleAssistant {
		t.Fatalf("messages = %d", len(msgs))
	}
}

func TestSendMessageKeepsUserMessageOnFailure(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "chatfail@example.com")
	subject, _ := f.subject(t, owner, "German")
	svc := newChatService(f)
	f.llm.Err = errors.New("provider timeout")

	_, err := svc.SendMessage(f.ctx, owner.ID, SendMessageInput{SubjectID: subject.ID, Message: "Was ist das?"})
	if apierr.StatusOf(err) != http.StatusBadGateway {
		t.Fatalf("expected 502, got %v", err)
	}

	threads, err := svc.ListThreads(f.ctx, owner.ID, subject.ID)
	if err != nil || len(threads) != 1 {
		t.Fatalf("threads = %v, %v", threads, err)
	}
	msgs, err := svc.ListMessages(f.ctx, owner.ID, threads[0].ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "Was ist das?" || msgs[0].Role != types.ChatRoleUser {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestChatThreadOwnership(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "threads@example.com")
	other := f.user(t, "snoop@example.com")
	subject, _ := f.subject(t, owner, "French")
	otherSubject, _ := f.subject(t, other, "Italian")
	svc := newChatService(f)

	ex, err := svc.SendMessage(f.ctx, owner.ID, SendMessageInput{SubjectID: subject.ID, Message: "Bonjour"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	threadID := ex.Thread.ID

	if _, err := svc.ListMessages(f.ctx, other.ID, threadID); apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("foreign thread: expected 404, got %v", err)
	}
	if _, err := svc.SendMessage(f.ctx, other.ID, SendMessageInput{SubjectID: otherSubject.ID, ThreadID: &threadID, Message: "hi"}); apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("foreign thread send: expected 404, got %v", err)
	}
	if _, err := svc.SendMessage(f.ctx, owner.ID, SendMessageInput{SubjectID: subject.ID, Message: "   "}); apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("blank message: expected 400, got %v", err)
	}

	renamed, err := svc.RenameThread(f.ctx, owner.ID, threadID, RenameThreadInput{Title: " Greetings "})
	if err != nil || renamed.Title != "Greetings" {
		t.Fatalf("RenameThread = %+v, %v", renamed, err)
	}
	if err := svc.DeleteThread(f.ctx, other.ID, threadID); apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("foreign delete: expected 404, got %v", err)
	}
	if err := svc.DeleteThread(f.ctx, owner.ID, threadID); err != nil {
		t.Fatalf("DeleteThread: %v", err)
	}
	if _, err := svc.ListMessages(f.ctx, owner.ID, threadID); apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("deleted thread: expected 404, got %v", err)
	}
	if _, err := svc.ListThreads(f.ctx, owner.ID, uuid.New()); apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("unknown subject: expected 404, got %v", err)
	}
}

func TestThreadTitle(t *testing.T) {
	if got := threadTitle("  \n second line"); got != "New chat" {
		t.Fatalf("blank first line = %q", got)
	}
	long := strings.Repeat("é", 80)
	if got := threadTitle(long); len([]rune(got)) != chatThreadTitleMax {
		t.Fatalf("long title = %d runes", len([]rune(got)))
	}
}
