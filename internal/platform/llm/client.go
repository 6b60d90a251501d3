package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Attachment is a binary input (image or PDF) sent alongside a prompt.
type Attachment struct {
	MimeType string
	Data     []byte
}

// Message is one turn of a chat history.
type Message struct {
	Role    string
	Content string
}

// Client is the generative model surface the services depend on.
type Client interface {
	// Plain text (no schema)
	GenerateText(ctx context.Context, system string, user string) (string, error)

	// JSON object output. schema is embedded into the instructions; the
	// provider runs in JSON mode.
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)

	// Multimodal: prompt + images/PDF -> plain text
	GenerateWithAttachments(ctx context.Context, system string, user string, attachments []Attachment) (string, error)

	// Chat continues history and returns the assistant reply.
	Chat(ctx context.Context, system string, history []Message) (string, error)
}

// Config selects the provider. Anthropic handles text and images only, so
// PDF extraction needs gemini or openai.
type Config struct {
	Provider        string
	GeminiAPIKey    string
	GeminiModel     string
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	Timeout         time.Duration
	Temperature     float64
}

type client struct {
	log         *logger.Logger
	model       llms.Model
	provider    string
	timeout     time.Duration
	temperature float64
}

func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderGemini
	}
	var (
		model llms.Model
		err   error
	)
	switch provider {
	case ProviderGemini:
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return nil, fmt.Errorf("missing GEMINI_API_KEY")
		}
		opts := []googleai.Option{googleai.WithAPIKey(cfg.GeminiAPIKey)}
		if cfg.GeminiModel != "" {
			opts = append(opts, googleai.WithDefaultModel(cfg.GeminiModel))
		}
		model, err = googleai.New(ctx, opts...)
	case ProviderOpenAI:
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return nil, fmt.Errorf("missing OPENAI_API_KEY")
		}
		opts := []openai.Option{openai.WithToken(cfg.OpenAIAPIKey)}
		if cfg.OpenAIModel != "" {
			opts = append(opts, openai.WithModel(cfg.OpenAIModel))
		}
		model, err = openai.New(opts...)
	case ProviderAnthropic:
		if strings.TrimSpace(cfg.AnthropicAPIKey) == "" {
			return nil, fmt.Errorf("missing ANTHROPIC_API_KEY")
		}
		opts := []anthropic.Option{anthropic.WithToken(cfg.AnthropicAPIKey)}
		if cfg.AnthropicModel != "" {
			opts = append(opts, anthropic.WithModel(cfg.AnthropicModel))
		}
		model, err = anthropic.New(opts...)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s client: %w", provider, err)
	}
	return NewFromModel(log, provider, model, cfg.Timeout, cfg.Temperature), nil
}

// NewFromModel wraps any langchaingo model.
func NewFromModel(log *logger.Logger, provider string, model llms.Model, timeout time.Duration, temperature float64) Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if temperature <= 0 {
		temperature = 0.7
	}
	return &client{
		log:         log.With("service", "LLMClient", "provider", provider),
		model:       model,
		provider:    provider,
		timeout:     timeout,
		temperature: temperature,
	}
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	msgs := []llms.MessageContent{}
	if strings.TrimSpace(system) != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, user))
	return c.generate(ctx, "text", msgs)
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	if schemaName == "" {
		return nil, errors.New("schemaName required")
	}
	if schema == nil {
		return nil, errors.New("schema required")
	}
	rawSchema, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", schemaName, err)
	}
	system = strings.TrimSpace(system) +
		"\n\nRespond with a single JSON object only, no prose and no code fences. " +
		"It must validate against this JSON schema (" + schemaName + "):\n" + string(rawSchema)

	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}
	text, err := c.generate(ctx, "json", msgs, llms.WithJSONMode())
	if err != nil {
		return nil, err
	}
	obj, err := ParseJSONObject(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model JSON for %s: %w", schemaName, err)
	}
	return obj, nil
}

func (c *client) GenerateWithAttachments(ctx context.Context, system string, user string, attachments []Attachment) (string, error) {
	parts := make([]llms.ContentPart, 0, len(attachments)+1)
	for _, a := range attachments {
		if len(a.Data) == 0 {
			continue
		}
		parts = append(parts, llms.BinaryPart(a.MimeType, a.Data))
	}
	parts = append(parts, llms.TextContent{Text: user})

	msgs := []llms.MessageContent{}
	if strings.TrimSpace(system) != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	msgs = append(msgs, llms.MessageContent{Role: llms.ChatMessageTypeHuman, Parts: parts})
	return c.generate(ctx, "attachments", msgs)
}

func (c *client) Chat(ctx context.Context, system string, history []Message) (string, error) {
	if len(history) == 0 {
		return "", errors.New("empty chat history")
	}
	msgs := make([]llms.MessageContent, 0, len(history)+1)
	if strings.TrimSpace(system) != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(role, m.Content))
	}
	return c.generate(ctx, "chat", msgs)
}

func (c *client) generate(ctx context.Context, kind string, msgs []llms.MessageContent, extra ...llms.CallOption) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := append([]llms.CallOption{llms.WithTemperature(c.temperature)}, extra...)
	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		c.log.Warn("LLM call failed", "kind", kind, "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return "", fmt.Errorf("%s generation: %w", c.provider, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s generation: empty response", c.provider)
	}
	out := strings.TrimSpace(resp.Choices[0].Content)
	if out == "" {
		return "", fmt.Errorf("%s generation: empty response", c.provider)
	}
	c.log.Debug("LLM call finished", "kind", kind, "duration_ms", time.Since(start).Milliseconds(), "chars", len(out))
	return out, nil
}

// ParseJSONObject tolerates code fences and leading prose around a JSON
// object.
func ParseJSONObject(text string) (map[string]any, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "{"); i > 0 {
		s = s[i:]
	}
	if j := strings.LastIndex(s, "}"); j >= 0 && j < len(s)-1 {
		s = s[:j+1]
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Decode converts a GenerateJSON result into a typed value.
func Decode(obj map[string]any, out any) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
