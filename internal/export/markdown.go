// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/goalbreak/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports goals to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	return &MarkdownExporter{options: opts.withDefaults()}
}

// Export converts goals to a Markdown document, one section per goal.
func (e *MarkdownExporter) Export(goals []model.Goal) ([]byte, error) {
	if err := validate(goals); err != nil {
		return nil, err
	}

	var sb strings.Builder
	now := e.options.Now()

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(documentTitle(goals))))
		sb.WriteString(fmt.Sprintf("goals: %d\n", len(goals)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", now.Format(time.RFC3339)))
		sb.WriteString("generator: goalbreak\n")
		sb.WriteString("---\n\n")
	}

	if len(goals) > 1 {
		sb.WriteString("# Goals\n\n")
	}

	for i := range goals {
		e.writeGoal(&sb, &goals[i], len(goals) > 1)
		if i < len(goals)-1 {
			sb.WriteString("---\n\n")
		}
	}

	if e.options.IncludeMetadata {
		sb.WriteString("---\n\n")
		sb.WriteString(fmt.Sprintf("*Exported from goalbreak on %s*\n", now.Format("January 2, 2006 at 3:04 PM")))
	}

	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) writeGoal(sb *strings.Builder, g *model.Goal, nested bool) {
	heading := "#"
	if nested {
		heading = "##"
	}
	sb.WriteString(fmt.Sprintf("%s %s\n\n", heading, escapeMarkdown(g.Text)))

	sb.WriteString(fmt.Sprintf("- **Complexity**: %s/10\n", formatScore(g.ComplexityScore)))
	if e.options.IncludeMetadata {
		sb.WriteString(fmt.Sprintf("- **Created**: %s\n", formatTimestamp(g.CreatedAt)))
		sb.WriteString(fmt.Sprintf("- **ID**: `%s`\n", g.ID))
	}
	sb.WriteString("\n")

	for _, t := range g.Tasks {
		sb.WriteString(fmt.Sprintf("%d. %s\n", t.Order, escapeMarkdown(t.Text)))
	}
	sb.WriteString("\n")
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown; charset=utf-8"
}

// documentTitle is the goal text for a single goal, a count otherwise.
func documentTitle(goals []model.Goal) string {
	if len(goals) == 1 {
		return goals[0].Text
	}
	return fmt.Sprintf("%d goals", len(goals))
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	// Quote if contains special characters (including backslash)
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
