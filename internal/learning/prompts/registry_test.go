package prompts

import (
	"strings"
	"testing"
)

func TestBuildSyllabus(t *testing.T) {
	p, err := Build(PromptSyllabus, Input{
		SubjectName:   "Algebra",
		SubjectNeed:   "pass the exam",
		Level:         "beginner",
		Intensity:     "medium",
		DurationWeeks: 4,
		TopicCount:    12,
		Language:      "en",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.SchemaName != "syllabus" || p.Schema == nil {
		t.Fatalf("expected syllabus schema, got %q", p.SchemaName)
	}
	if !strings.Contains(p.User, "exactly 12 topics") {
		t.Fatalf("user prompt missing topic count: %q", p.User)
	}
	if strings.Contains(p.User, "source material") {
		t.Fatalf("source block should be omitted without SourceText")
	}
}

func TestEveryContentModeHasPrompt(t *testing.T) {
	for _, mode := range []string{"explain", "demonstrate", "try", "apply"} {
		name, ok := ContentPrompt(mode)
		if !ok {
			t.Fatalf("no prompt for mode %s", mode)
		}
		p, err := Build(name, Input{TopicTitle: "Fractions", SubjectName: "Math", Language: "en"})
		if err != nil {
			t.Fatalf("Build %s: %v", name, err)
		}
		if !strings.Contains(p.User, "Fractions") || p.Schema != nil {
			t.Fatalf("unexpected prompt for %s: %+v", name, p)
		}
	}
	if _, ok := ContentPrompt("quiz"); ok {
		t.Fatalf("quiz is not a content mode")
	}
}

func TestBuildUnknown(t *testing.T) {
	if _, err := Build(PromptName("nope"), Input{}); err == nil {
		t.Fatalf("expected error for unknown prompt")
	}
}
