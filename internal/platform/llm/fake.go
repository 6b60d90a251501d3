package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Fake is a scripted Client. Handlers are matched against the user prompt;
// a nil handler falls back to Text / JSON.
type Fake struct {
	mu    sync.Mutex
	calls []string

	TextFn  func(system, user string) (string, error)
	JSONFn  func(schemaName, user string) (map[string]any, error)
	ChatFn  func(history []Message) (string, error)
	Text    string
	JSON    map[string]any
	Err     error
	Attachs int
}

func (f *Fake) record(kind string) {
	f.mu.Lock()
	f.calls = append(f.calls, kind)
	f.mu.Unlock()
}

// Calls returns how many calls of kind were made ("" counts all).
func (f *Fake) Calls(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if kind == "" {
		return len(f.calls)
	}
	n := 0
	for _, c := range f.calls {
		if c == kind {
			n++
		}
	}
	return n
}

func (f *Fake) GenerateText(_ context.Context, system string, user string) (string, error) {
	f.record("text")
	if f.TextFn != nil {
		return f.TextFn(system, user)
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}

func (f *Fake) GenerateJSON(_ context.Context, _ string, user string, schemaName string, _ map[string]any) (map[string]any, error) {
	f.record("json")
	if f.JSONFn != nil {
		return f.JSONFn(schemaName, user)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if f.JSON == nil {
		return nil, errors.New("no json scripted")
	}
	return f.JSON, nil
}

func (f *Fake) GenerateWithAttachments(_ context.Context, system string, user string, attachments []Attachment) (string, error) {
	f.record("attachments")
	f.mu.Lock()
	f.Attachs += len(attachments)
	f.mu.Unlock()
	if f.TextFn != nil {
		return f.TextFn(system, user)
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}

func (f *Fake) Chat(_ context.Context, _ string, history []Message) (string, error) {
	f.record("chat")
	if f.ChatFn != nil {
		return f.ChatFn(history)
	}
	if f.Err != nil {
		return "", f.Err
	}
	if f.Text != "" {
		return f.Text, nil
	}
	if len(history) == 0 {
		return "", errors.New("empty history")
	}
	return "echo: " + strings.TrimSpace(history[len(history)-1].Content), nil
}
