// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt renders the instruction sent to a model for goal
// decomposition, optionally from a user-supplied template file.
package prompt

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"
)

// DefaultTemplate is the built-in decomposition instruction. The goal text is
// embedded verbatim.
const DefaultTemplate = `Break down the following goal into exactly 5 actionable, specific steps.
Also provide a complexity score from 1-10 where 1 is very simple and 10 is extremely complex.

Goal: "{{.Goal}}"

Return your response as a JSON object with this exact structure:
{
    "tasks": [
        {"task_text": "First actionable step", "order": 1},
        {"task_text": "Second actionable step", "order": 2},
        {"task_text": "Third actionable step", "order": 3},
        {"task_text": "Fourth actionable step", "order": 4},
        {"task_text": "Fifth actionable step", "order": 5}
    ],
    "complexity_score": 7.5
}

Make sure each task is:
- Specific and actionable
- Clear and measurable
- In logical order
- Directly related to achieving the goal

Return ONLY the JSON object, no additional text.`

// MaxTemplateSize bounds template files read from disk.
const MaxTemplateSize = 64 * 1024

// Data is the value a template is executed against.
type Data struct {
	Goal string
}

// Template is a reloadable decomposition prompt. It is safe for concurrent use.
type Template struct {
	mu   sync.RWMutex
	tmpl *template.Template
	path string
}

// Default returns the built-in template.
func Default() *Template {
	return &Template{tmpl: template.Must(parse(DefaultTemplate))}
}

// Load reads a template from path. The file must reference {{.Goal}}.
func Load(path string) (*Template, error) {
	t := &Template{path: path}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Path returns the file the template was loaded from, or "" for the default.
func (t *Template) Path() string {
	return t.path
}

// Reload re-reads the template file. On failure the previous template stays
// in effect.
func (t *Template) Reload() error {
	if t.path == "" {
		return nil
	}

	info, err := os.Stat(t.path)
	if err != nil {
		return fmt.Errorf("prompt template: %w", err)
	}
	if info.Size() > MaxTemplateSize {
		return fmt.Errorf("prompt template %s too large: %d bytes (max: %d)", t.path, info.Size(), MaxTemplateSize)
	}

	data, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("prompt template: %w", err)
	}
	if !strings.Contains(string(data), ".Goal") {
		return fmt.Errorf("prompt template %s does not reference {{.Goal}}", t.path)
	}

	tmpl, err := parse(string(data))
	if err != nil {
		return fmt.Errorf("prompt template %s: %w", t.path, err)
	}

	t.mu.Lock()
	t.tmpl = tmpl
	t.mu.Unlock()
	return nil
}

// Render returns the prompt for a goal.
func (t *Template) Render(goal string) (string, error) {
	t.mu.RLock()
	tmpl := t.tmpl
	t.mu.RUnlock()

	var b strings.Builder
	if err := tmpl.Execute(&b, Data{Goal: goal}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

func parse(text string) (*template.Template, error) {
	return template.New("decompose").Option("missingkey=error").Parse(text)
}
