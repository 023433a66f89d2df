// Package prompt renders the instructions sent to the model together with
// the staged diff.
package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// defaultTemplate asks for an untyped subject line and a "-" bullet summary
// that follow the 50/70 rule.
const defaultTemplate = `This is a Git diff from a repository.

Generate a commit message with changes summary.

Guidelines:
- Do NOT include prefixes like 'feat:' or 'fix:' in the commit message.
- Do NOT include the given git diff in the commit message.
- Always include a bullet point summary of the changes,
  using '-' as the bullet character.
- Follow the 50/70 rule: the summary line should be at most 50 characters,
  and each line in the description should be at most 70 characters.
- Use plain English with no special characters or emojis.
- Format the output as follows:

<commit message>

<description or summary in bullet point format>

{{.Diff}}
`

// TemplateData is the value templates are executed against.
type TemplateData struct {
	Diff string
}

// File is the YAML layout accepted for custom template files.
type File struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

// Builder renders prompts from a parsed template.
type Builder struct {
	tmpl *template.Template
}

var defaultBuilder = mustBuilder(defaultTemplate)

func mustBuilder(content string) *Builder {
	b, err := NewBuilder(content)
	if err != nil {
		panic(err)
	}
	return b
}

// Default returns the builder for the built-in template.
func Default() *Builder {
	return defaultBuilder
}

// DefaultTemplate returns the built-in template source.
func DefaultTemplate() string {
	return defaultTemplate
}

// NewBuilder parses content as a text/template.
func NewBuilder(content string) (*Builder, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("prompt template is empty")
	}
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("template parsing error: %w", err)
	}
	return &Builder{tmpl: tmpl}, nil
}

// FromFile returns the built-in builder when path is empty, otherwise a
// builder for the template stored at path.
func FromFile(path string) (*Builder, error) {
	if path == "" {
		return Default(), nil
	}
	content, err := LoadTemplate(path)
	if err != nil {
		return nil, err
	}
	return NewBuilder(content)
}

// LoadTemplate reads a template file. YAML files with a "template" key are
// unwrapped; anything else is used verbatim.
func LoadTemplate(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to read template file %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(content, &file); err == nil && file.Template != "" {
		return file.Template, nil
	}
	return string(content), nil
}

// Build embeds diff, verbatim, into the prompt.
func (b *Builder) Build(diff string) (string, error) {
	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, TemplateData{Diff: diff}); err != nil {
		return "", fmt.Errorf("template rendering error: %w", err)
	}
	return buf.String(), nil
}

// Build renders the built-in prompt, which cannot fail.
func Build(diff string) string {
	prompt, err := defaultBuilder.Build(diff)
	if err != nil {
		panic(err)
	}
	return prompt
}
