package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// Spec is one entry of prompts.yaml. System and User are Go templates over
// Input.
type Spec struct {
	Name    PromptName `yaml:"name"`
	Version int        `yaml:"version"`
	Schema  string     `yaml:"schema"`
	System  string     `yaml:"system"`
	User    string     `yaml:"user"`
}

type Template struct {
	Name       PromptName
	Version    int
	SchemaName string
	Schema     func() map[string]any
	system     *template.Template
	user       *template.Template
}

var (
	loadOnce sync.Once
	loadErr  error
	registry = map[PromptName]Template{}
)

// Load parses the embedded prompt file. It is safe to call repeatedly.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFrom(promptsYAML)
	})
	return loadErr
}

func loadFrom(raw []byte) error {
	var doc struct {
		Prompts []Spec `yaml:"prompts"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse prompts.yaml: %w", err)
	}
	for _, s := range doc.Prompts {
		t, err := MakeTemplate(s)
		if err != nil {
			return err
		}
		registry[t.Name] = t
	}
	return nil
}

// MakeTemplate compiles a Spec into a Template (runtime type)
func MakeTemplate(s Spec) (Template, error) {
	if strings.TrimSpace(string(s.Name)) == "" {
		return Template{}, fmt.Errorf("missing prompt name")
	}
	if s.Version <= 0 {
		return Template{}, fmt.Errorf("invalid version for %s", s.Name)
	}
	t := Template{Name: s.Name, Version: s.Version}
	if s.Schema != "" {
		fn, ok := schemas[s.Schema]
		if !ok {
			return Template{}, fmt.Errorf("%s: unknown schema %q", s.Name, s.Schema)
		}
		t.SchemaName = s.Schema
		t.Schema = fn
	}
	var err error
	if t.system, err = template.New("system").Option("missingkey=zero").Parse(s.System); err != nil {
		return Template{}, fmt.Errorf("%s system template parse: %w", s.Name, err)
	}
	if t.user, err = template.New("user").Option("missingkey=zero").Parse(s.User); err != nil {
		return Template{}, fmt.Errorf("%s user template parse: %w", s.Name, err)
	}
	return t, nil
}

// Build renders a prompt ready to pass into llm.GenerateJSON or GenerateText.
func Build(name PromptName, in Input) (Prompt, error) {
	if err := Load(); err != nil {
		return Prompt{}, err
	}
	t, ok := registry[name]
	if !ok {
		return Prompt{}, fmt.Errorf("unknown prompt: %s", string(name))
	}
	sys, err := render(t.system, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s system: %w", name, err)
	}
	usr, err := render(t.user, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s user: %w", name, err)
	}
	p := Prompt{
		Name:       string(t.Name),
		Version:    t.Version,
		SchemaName: t.SchemaName,
		System:     sys,
		User:       usr,
	}
	if t.Schema != nil {
		p.Schema = t.Schema()
	}
	return p, nil
}

func render(t *template.Template, in Input) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, in); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}
