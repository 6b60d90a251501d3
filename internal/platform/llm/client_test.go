package llm

import (
	"context"
	"testing"

	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

func TestParseJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{name: "plain", in: `{"topics":["a","b"]}`},
		{name: "fenced", in: "```json\n{\"topics\":[\"a\",\"b\"]}\n```"},
		{name: "prose", in: "Here you go: {\"topics\":[\"a\",\"b\"]} hope it helps"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obj, err := ParseJSONObject(tc.in)
			if err != nil {
				t.Fatalf("ParseJSONObject: %v", err)
			}
			var out struct {
				Topics []string `json:"topics"`
			}
			if err := Decode(obj, &out); err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(out.Topics) != 2 || out.Topics[1] != "b" {
				t.Fatalf("unexpected topics: %v", out.Topics)
			}
		})
	}
	if _, err := ParseJSONObject("not json"); err == nil {
		t.Fatalf("expected error for non-JSON input")
	}
}

func TestSchemaFor(t *testing.T) {
	type payload struct {
		Topics []string `json:"topics" jsonschema:"required"`
	}
	schema := SchemaFor[payload]()
	if schema["type"] != "object" {
		t.Fatalf("expected object schema, got %v", schema["type"])
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok || props["topics"] == nil {
		t.Fatalf("expected topics property, got %v", schema["properties"])
	}
	if _, ok := schema["$schema"]; ok {
		t.Fatalf("$schema should be stripped")
	}
}

func TestNewClientRequiresProviderKey(t *testing.T) {
	ctx := context.Background()
	log := logger.Nop()
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"gemini default", Config{}, "missing GEMINI_API_KEY"},
		{"openai", Config{Provider: "OpenAI"}, "missing OPENAI_API_KEY"},
		{"anthropic", Config{Provider: ProviderAnthropic}, "missing ANTHROPIC_API_KEY"},
		{"unknown", Config{Provider: "mistral"}, `unknown LLM_PROVIDER "mistral"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClient(ctx, log, tc.cfg)
			if err == nil || err.Error() != tc.want {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
}
