// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"strconv"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Options are the inference parameters sent with a generate call. Only the
// ones decomposition tunes are modelled.
type Options struct {
	// NumPredict caps generated tokens; 0 leaves the server default
	NumPredict int `json:"num_predict,omitempty"`

	// Temperature 0 is omitted, so the model default applies
	Temperature float64 `json:"temperature,omitempty"`
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`

	// Format "json" constrains the answer to a JSON document
	Format  string   `json:"format,omitempty"`
	Options *Options `json:"options,omitempty"`
}

// ShowModelRequest is the body of POST /api/show.
type ShowModelRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// GenerateResponse is the non-streaming answer of /api/generate.
type GenerateResponse struct {
	Model      string `json:"model"`
	Response   string `json:"response"`
	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason,omitempty"`
	EvalCount  int    `json:"eval_count,omitempty"`
}

// ModelInfo is one entry of /api/tags.
type ModelInfo struct {
	Name    string       `json:"name"`
	Size    int64        `json:"size"`
	Details ModelDetails `json:"details,omitempty"`
}

// ModelDetails is the subset of model metadata shown in model listings.
type ModelDetails struct {
	Family        string `json:"family"`
	ParameterSize string `json:"parameter_size"`
}

// ListModelsResponse is the answer of /api/tags.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ShowModelResponse is the answer of /api/show. Instantiation only needs
// the call to succeed.
type ShowModelResponse struct {
	Details ModelDetails `json:"details"`
}

// APIErrorBody is the {"error": "..."} body Ollama sends on failure.
type APIErrorBody struct {
	Error string `json:"error"`
}

// =============================================================================
// HELPERS
// =============================================================================

// FormatSize renders the model's on-disk size with a binary unit.
func (m *ModelInfo) FormatSize() string {
	const unit = 1024
	if m.Size < unit {
		return strconv.FormatInt(m.Size, 10) + " B"
	}

	value := float64(m.Size)
	suffix := ""
	for _, s := range []string{"KB", "MB", "GB"} {
		value /= unit
		suffix = s
		if value < unit || s == "GB" {
			break
		}
	}
	return formatFloat(value) + " " + suffix
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', 1, 64)
}
