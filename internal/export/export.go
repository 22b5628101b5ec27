// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders stored goals as Markdown, JSON or HTML documents.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/goalbreak/internal/model"
	"github.com/jeranaias/goalbreak/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for goal exporters.
type Exporter interface {
	// Export converts goals to the target format and returns the content.
	Export(goals []model.Goal) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Format names an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

var (
	// ErrUnknownFormat is returned for an unrecognised format name.
	ErrUnknownFormat = errors.New("unknown export format")

	// ErrNoGoals is returned when there is nothing to export.
	ErrNoGoals = errors.New("no goals to export")
)

// ParseFormat accepts a format name or common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w %q (use markdown, json or html)", ErrUnknownFormat, s)
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// IncludeMetadata includes ids, timestamps and the export header.
	IncludeMetadata bool

	// Theme for HTML export ("light" or "dark").
	// Default: "dark"
	Theme string

	// Now stamps the export time. Default: time.Now
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata: true,
		Theme:           "dark",
		Now:             time.Now,
	}
}

func (o *Options) withDefaults() *Options {
	if o == nil {
		return DefaultOptions()
	}
	opts := *o
	if opts.Theme != "light" {
		opts.Theme = "dark"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &opts
}

// New returns the exporter for format.
func New(format Format, opts *Options) (Exporter, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(opts), nil
	case FormatHTML:
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports goals into dir under a generated name and returns
// the path written. The file is replaced atomically.
func ExportToFile(goals []model.Goal, exporter Exporter, dir string, opts *Options) (string, error) {
	opts = opts.withDefaults()

	content, err := exporter.Export(goals)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	name := "goals"
	if len(goals) == 1 {
		name = "goal_" + sanitizeFilename(goals[0].Text)
	}
	filename := fmt.Sprintf("%s_%s%s", name, opts.Now().Format("20060102_150405"), exporter.FileExtension())

	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// validate rejects input no exporter can render.
func validate(goals []model.Goal) error {
	if len(goals) == 0 {
		return ErrNoGoals
	}
	for i := range goals {
		if goals[i].CreatedAt.IsZero() {
			return fmt.Errorf("goal %s has invalid creation timestamp", goals[i].ID)
		}
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	if runes := []rune(s); len(runes) > 50 {
		s = string(runes[:50])
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return "goal"
	}
	return b.String()
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// formatScore renders a complexity score without trailing zeros.
func formatScore(score float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", score), "0"), ".")
}
