package llm

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

// PromptPair is the system and user template of one oracle call.
type PromptPair struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Prompts holds every prompt template the oracles use.
type Prompts struct {
	Extraction PromptPair `yaml:"extraction"`
	Grouping   PromptPair `yaml:"grouping"`
	Matching   PromptPair `yaml:"matching"`
	Check      PromptPair `yaml:"check"`
}

// ExtractionData feeds the extraction templates.
type ExtractionData struct {
	FileName string
	Text     string
}

// GroupingData feeds the grouping templates.
type GroupingData struct {
	Names []string
}

// MatchingData feeds the matching templates.
type MatchingData struct {
	Names      []string
	Candidates []string
}

// DefaultPrompts returns the embedded prompt set.
func DefaultPrompts() (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(defaultPromptsYAML, &p); err != nil {
		return nil, fmt.Errorf("decode embedded prompts: %w", err)
	}
	return &p, nil
}

// LoadPrompts returns the embedded prompts overlaid with any non-empty template from path.
// An empty path yields the defaults.
func LoadPrompts(path string) (*Prompts, error) {
	p, err := DefaultPrompts()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return p, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	var override Prompts
	if err := yaml.Unmarshal(b, &override); err != nil {
		return nil, fmt.Errorf("decode prompts file %s: %w", path, err)
	}
	p.Extraction.merge(override.Extraction)
	p.Grouping.merge(override.Grouping)
	p.Matching.merge(override.Matching)
	p.Check.merge(override.Check)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (pp *PromptPair) merge(o PromptPair) {
	if strings.TrimSpace(o.System) != "" {
		pp.System = o.System
	}
	if strings.TrimSpace(o.User) != "" {
		pp.User = o.User
	}
}

// Validate parses every template so a broken override fails at startup.
func (p *Prompts) Validate() error {
	for name, tmpl := range map[string]string{
		"extraction.system": p.Extraction.System,
		"extraction.user":   p.Extraction.User,
		"grouping.system":   p.Grouping.System,
		"grouping.user":     p.Grouping.User,
		"matching.system":   p.Matching.System,
		"matching.user":     p.Matching.User,
		"check.user":        p.Check.User,
	} {
		if _, err := parseTemplate(name, tmpl); err != nil {
			return err
		}
	}
	return nil
}

// Render executes a prompt template with data.
func Render(name, tmpl string, data any) (string, error) {
	t, err := parseTemplate(name, tmpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

func parseTemplate(name, tmpl string) (*template.Template, error) {
	t, err := template.New(name).Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", name, err)
	}
	return t, nil
}
