// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package decomposer turns a free-text goal into five ordered tasks and a
// complexity score using a generative model.
package decomposer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/jeranaias/goalbreak/internal/model"
)

// MaxResponseSize bounds the model output accepted for parsing.
const MaxResponseSize = 1024 * 1024

// Result is a validated decomposition.
type Result struct {
	Tasks           []model.TaskDraft `json:"tasks"`
	ComplexityScore float64           `json:"complexity_score"`
	Model           string            `json:"model,omitempty"`
}

// StripFences removes surrounding whitespace and a Markdown code fence
// (```json or ```) around a model response.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseResponse validates raw model output. Checks run in a fixed order:
// JSON syntax, required keys, task count, score coercion, task shape.
// The score is clamped to [1, 10] and task orders are renumbered 1..5 from
// array position.
func ParseResponse(raw string) (*Result, error) {
	if len(raw) > MaxResponseSize {
		return nil, &Error{
			Kind:    KindResponseParse,
			Message: fmt.Sprintf("Failed to parse AI response as JSON: response too large (%d bytes, max %d)", len(raw), MaxResponseSize),
		}
	}

	payload, err := decodeJSON(StripFences(raw))
	if err != nil {
		return nil, &Error{Kind: KindResponseParse, Message: "Failed to parse AI response as JSON", Cause: err}
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, &Error{Kind: KindInvalidResponseStructure, Message: "Invalid response structure from AI"}
	}
	rawTasks, hasTasks := obj["tasks"]
	rawScore, hasScore := obj["complexity_score"]
	if !hasTasks || !hasScore {
		return nil, &Error{Kind: KindInvalidResponseStructure, Message: "Invalid response structure from AI"}
	}

	tasks, ok := rawTasks.([]any)
	if !ok {
		return nil, &Error{Kind: KindInvalidResponseStructure, Message: "Invalid response structure from AI: tasks is not a list"}
	}
	if len(tasks) != model.TasksPerGoal {
		return nil, &Error{
			Kind:    KindUnexpectedTaskCount,
			Message: fmt.Sprintf("Expected %d tasks, got %d", model.TasksPerGoal, len(tasks)),
		}
	}

	score, err := coerceScore(rawScore)
	if err != nil {
		return nil, &Error{Kind: KindInvalidResponseStructure, Message: "Invalid response structure from AI: complexity_score", Cause: err}
	}

	drafts := make([]model.TaskDraft, 0, len(tasks))
	for i, t := range tasks {
		entry, ok := t.(map[string]any)
		if !ok {
			return nil, &Error{Kind: KindInvalidResponseStructure, Message: fmt.Sprintf("Invalid response structure from AI: task %d is not an object", i+1)}
		}
		text, _ := entry["task_text"].(string)
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, &Error{Kind: KindInvalidResponseStructure, Message: fmt.Sprintf("Invalid response structure from AI: task %d has no task_text", i+1)}
		}

		order := i + 1
		if !orderMatches(entry["order"], order) {
			log.Printf("TASK_ORDER_RENUMBERED | position=%d given=%v", order, entry["order"])
		}
		drafts = append(drafts, model.TaskDraft{Text: text, Order: order})
	}

	return &Result{
		Tasks:           drafts,
		ComplexityScore: model.ClampComplexity(score),
	}, nil
}

// decodeJSON decodes exactly one JSON document, keeping numbers as
// json.Number so out-of-range literals reach coerceScore instead of failing
// the whole parse.
func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after JSON document")
		}
		return nil, err
	}
	return payload, nil
}

// coerceScore accepts JSON numbers and numeric strings. Values beyond the
// float64 range become +/-Inf and are left for clamping. Booleans are
// rejected.
func coerceScore(v any) (float64, error) {
	var text string
	switch s := v.(type) {
	case json.Number:
		text = s.String()
	case string:
		text = strings.TrimSpace(s)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("not a number: %q", text)
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("not a number: NaN")
	}
	return f, nil
}

func orderMatches(v any, want int) bool {
	n, ok := v.(json.Number)
	if !ok {
		return false
	}
	f, err := n.Float64()
	return err == nil && f == float64(want)
}
