// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export provides goal export functionality for goalbreak.
//
// # Key Types
//
//   - Format: Export format enumeration (Markdown, JSON, HTML)
//   - Exporter: Renders a list of goals to bytes
//   - Options: Export configuration options
//
// # Supported Formats
//
//   - Markdown: Human-readable, with YAML frontmatter
//   - JSON: Machine-readable, goals in the API's shape
//   - HTML: Standalone page with light and dark themes
//
// # Usage
//
//	exporter, err := export.New(export.FormatMarkdown, nil)
//	data, err := exporter.Export(goals)
//
// Export to a generated file name:
//
//	path, err := export.ExportToFile(goals, exporter, "exports", nil)
package export
