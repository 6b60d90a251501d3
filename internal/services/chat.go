package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/data/repos"
	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/learning/prompts"
	"github.com/yungbote/studypath-backend/internal/platform/apierr"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/keylock"
	"github.com/yungbote/studypath-backend/internal/platform/llm"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

const (
	chatHistoryWindow   = 20
	chatThreadTitleMax  = 60
	chatThreadListLimit = 200
)

type SendMessageInput struct {
	SubjectID uuid.UUID  `json:"subject_id" validate:"required"`
	ThreadID  *uuid.UUID `json:"thread_id"`
	Message   string     `json:"message" validate:"required,max=8000"`
}

type RenameThreadInput struct {
	Title string `json:"title" validate:"required,max=200"`
}

type ChatExchange struct {
	Thread           *types.ChatThread  `json:"thread"`
	UserMessage      *types.ChatMessage `json:"user_message"`
	AssistantMessage *types.ChatMessage `json:"assistant_message"`
}

type ChatService interface {
	// SendMessage stores the user's message before asking the tutor, so an
	// upstream failure (502) still leaves it in the thread.
	SendMessage(ctx context.Context, userID uuid.UUID, in SendMessageInput) (*ChatExchange, error)
	ListThreads(ctx context.Context, userID, subjectID uuid.UUID) ([]*types.ChatThread, error)
	ListMessages(ctx context.Context, userID, threadID uuid.UUID) ([]*types.ChatMessage, error)
	RenameThread(ctx context.Context, userID, threadID uuid.UUID, in RenameThreadInput) (*types.ChatThread, error)
	DeleteThread(ctx context.Context, userID, threadID uuid.UUID) error
}

type chatService struct {
	db          *gorm.DB
	log         *logger.Logger
	llm         llm.Client
	locker      keylock.Locker
	subjectRepo repos.SubjectRepo
	threadRepo  repos.ChatThreadRepo
	messageRepo repos.ChatMessageRepo
}

func NewChatService(
	db *gorm.DB,
	log *logger.Logger,
	client llm.Client,
	locker keylock.Locker,
	subjectRepo repos.SubjectRepo,
	threadRepo repos.ChatThreadRepo,
	messageRepo repos.ChatMessageRepo,
) ChatService {
	if locker == nil {
		locker = keylock.NewLocal()
	}
	return &chatService{
		db:          db,
		log:         log.With("service", "ChatService"),
		llm:         client,
		locker:      locker,
		subjectRepo: subjectRepo,
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
	}
}

func (cs *chatService) SendMessage(ctx context.Context, userID uuid.UUID, in SendMessageInput) (*ChatExchange, error) {
	in.Message = strings.TrimSpace(in.Message)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	subject, err := ownedSubject(dbc, cs.subjectRepo, userID, in.SubjectID)
	if err != nil {
		return nil, err
	}

	thread, err := cs.resolveThread(ctx, userID, subject, in)
	if err != nil {
		return nil, err
	}

	release, err := cs.locker.Lock(ctx, "chat-thread:"+thread.ID.String())
	if err != nil {
		return nil, fmt.Errorf("acquire thread lock: %w", err)
	}
	defer release()

	userMsg, err := cs.appendMessage(ctx, thread, userID, types.ChatRoleUser, in.Message)
	if err != nil {
		return nil, err
	}

	recent, err := cs.messageRepo.ListRecent(dbc, thread.ID, chatHistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	history := make([]llm.Message, 0, len(recent))
	for _, m := range recent {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	p, err := prompts.Build(prompts.PromptTutorChat, prompts.Input{
		SubjectName: subject.Name,
		SubjectNeed: subject.Need,
		Level:       subject.Level,
		Language:    subject.Language,
	})
	if err != nil {
		return nil, err
	}

	reply, err := cs.llm.Chat(ctx, p.System, history)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = fmt.Errorf("empty reply")
	}
	if err != nil {
		cs.log.Warn("Tutor reply failed", "thread_id", thread.ID, "error", err)
		return nil, apierr.Upstream("tutor reply", err)
	}

	assistantMsg, err := cs.appendMessage(ctx, thread, userID, types.ChatRoleAssistant, strings.TrimSpace(reply))
	if err != nil {
		return nil, err
	}
	return &ChatExchange{Thread: thread, UserMessage: userMsg, AssistantMessage: assistantMsg}, nil
}

func (cs *chatService) resolveThread(ctx context.Context, userID uuid.UUID, subject *types.Subject, in SendMessageInput) (*types.ChatThread, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if in.ThreadID != nil && *in.ThreadID != uuid.Nil {
		thread, err := cs.threadRepo.GetByIDForUser(dbc, userID, *in.ThreadID)
		if err != nil {
			return nil, notFoundOr(err, "thread")
		}
		if thread.SubjectID != subject.ID {
			return nil, apierr.NotFound("thread")
		}
		return thread, nil
	}
	now := time.Now().UTC()
	thread := &types.ChatThread{
		UserID:        userID,
		SubjectID:     subject.ID,
		Title:         threadTitle(in.Message),
		LastMessageAt: now,
	}
	if _, err := cs.threadRepo.Create(dbc, []*types.ChatThread{thread}); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return thread, nil
}

func (cs *chatService) appendMessage(ctx context.Context, thread *types.ChatThread, userID uuid.UUID, role, content string) (*types.ChatMessage, error) {
	var msg *types.ChatMessage
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		maxSeq, err := cs.messageRepo.GetMaxSeq(dbc, thread.ID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		msg = &types.ChatMessage{
			ThreadID:  thread.ID,
			UserID:    userID,
			Seq:       maxSeq + 1,
			Role:      role,
			Content:   content,
			CreatedAt: now,
		}
		if _, err := cs.messageRepo.Create(dbc, []*types.ChatMessage{msg}); err != nil {
			return err
		}
		thread.LastMessageAt = now
		return cs.threadRepo.UpdateFields(dbc, thread.ID, map[string]interface{}{
			"last_message_at": now,
			"updated_at":      now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("append %s message: %w", role, err)
	}
	return msg, nil
}

func (cs *chatService) ListThreads(ctx context.Context, userID, subjectID uuid.UUID) ([]*types.ChatThread, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := ownedSubject(dbc, cs.subjectRepo, userID, subjectID); err != nil {
		return nil, err
	}
	threads, err := cs.threadRepo.ListBySubject(dbc, userID, subjectID, chatThreadListLimit)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	if threads == nil {
		threads = []*types.ChatThread{}
	}
	return threads, nil
}

func (cs *chatService) ListMessages(ctx context.Context, userID, threadID uuid.UUID) ([]*types.ChatMessage, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := cs.threadRepo.GetByIDForUser(dbc, userID, threadID); err != nil {
		return nil, notFoundOr(err, "thread")
	}
	msgs, err := cs.messageRepo.ListByThread(dbc, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if msgs == nil {
		msgs = []*types.ChatMessage{}
	}
	return msgs, nil
}

func (cs *chatService) RenameThread(ctx context.Context, userID, threadID uuid.UUID, in RenameThreadInput) (*types.ChatThread, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	thread, err := cs.threadRepo.GetByIDForUser(dbc, userID, threadID)
	if err != nil {
		return nil, notFoundOr(err, "thread")
	}
	now := time.Now().UTC()
	if err := cs.threadRepo.UpdateFields(dbc, threadID, map[string]interface{}{
		"title":      in.Title,
		"updated_at": now,
	}); err != nil {
		return nil, fmt.Errorf("rename thread: %w", err)
	}
	thread.Title = in.Title
	thread.UpdatedAt = now
	return thread, nil
}

func (cs *chatService) DeleteThread(ctx context.Context, userID, threadID uuid.UUID) error {
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := cs.threadRepo.GetByIDForUser(dbc, userID, threadID); err != nil {
			return notFoundOr(err, "thread")
		}
		if err := cs.messageRepo.DeleteByThreadIDs(dbc, []uuid.UUID{threadID}); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		return cs.threadRepo.DeleteByIDs(dbc, []uuid.UUID{threadID})
	})
}

// threadTitle is the first line of the opening message, cut to 60 runes.
func threadTitle(message string) string {
	line := strings.TrimSpace(strings.SplitN(message, "\n", 2)[0])
	if line == "" {
		return "New chat"
	}
	return truncateRunes(line, chatThreadTitleMax)
}
