// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/goalbreak/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// Document is the JSON export envelope. Goals use the same shape as the
// HTTP API so an export can be fed back to API clients.
type Document struct {
	Generator  string       `json:"generator"`
	ExportedAt time.Time    `json:"exported_at"`
	Count      int          `json:"count"`
	Goals      []model.Goal `json:"goals"`
}

// JSONExporter exports goals to JSON format. JSON always carries the full
// goal data; IncludeMetadata does not filter it.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	return &JSONExporter{options: opts.withDefaults()}
}

// Export converts goals to JSON format.
func (e *JSONExporter) Export(goals []model.Goal) ([]byte, error) {
	if err := validate(goals); err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(Document{
		Generator:  "goalbreak",
		ExportedAt: e.options.Now().UTC(),
		Count:      len(goals),
		Goals:      goals,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
