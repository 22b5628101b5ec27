// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for goals and their tasks.
package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// TasksPerGoal is the exact number of tasks every goal is broken into.
	TasksPerGoal = 5

	// MinComplexity is the lowest complexity score a goal can carry.
	MinComplexity = 1.0

	// MaxComplexity is the highest complexity score a goal can carry.
	MaxComplexity = 10.0
)

// ErrInvalidGoal is returned when a goal or its tasks break a model invariant.
var ErrInvalidGoal = errors.New("invalid goal")

// =============================================================================
// GOAL
// =============================================================================

// Goal is a user-submitted objective together with its decomposition.
type Goal struct {
	// ID is an opaque identifier assigned at creation
	ID string `json:"id"`

	// Text is the goal as submitted by the user
	Text string `json:"goal_text"`

	// ComplexityScore is always within [MinComplexity, MaxComplexity]
	ComplexityScore float64 `json:"complexity_score"`

	// CreatedAt is set once when the goal is stored
	CreatedAt time.Time `json:"created_at"`

	// Tasks are ordered by Task.Order, 1 through TasksPerGoal
	Tasks []Task `json:"tasks"`
}

// Task is a single actionable step of a Goal.
type Task struct {
	ID     string `json:"id"`
	GoalID string `json:"-"`
	Text   string `json:"task_text"`
	Order  int    `json:"order"`
}

// TaskDraft is a decomposed task that has not been assigned an identity yet.
type TaskDraft struct {
	Text  string `json:"task_text"`
	Order int    `json:"order"`
}

// =============================================================================
// INVARIANTS
// =============================================================================

// ClampComplexity forces a raw score into [MinComplexity, MaxComplexity].
// NaN is treated as out of range low.
func ClampComplexity(score float64) float64 {
	switch {
	case math.IsNaN(score), score < MinComplexity:
		return MinComplexity
	case score > MaxComplexity:
		return MaxComplexity
	default:
		return score
	}
}

// ValidateDrafts checks that drafts form a complete decomposition: exactly
// TasksPerGoal non-blank tasks whose orders are 1..TasksPerGoal in sequence.
func ValidateDrafts(drafts []TaskDraft) error {
	if len(drafts) != TasksPerGoal {
		return fmt.Errorf("%w: expected %d tasks, got %d", ErrInvalidGoal, TasksPerGoal, len(drafts))
	}
	for i, d := range drafts {
		if strings.TrimSpace(d.Text) == "" {
			return fmt.Errorf("%w: task %d has empty text", ErrInvalidGoal, i+1)
		}
		if d.Order != i+1 {
			return fmt.Errorf("%w: task %d has order %d", ErrInvalidGoal, i+1, d.Order)
		}
	}
	return nil
}

// ValidateGoalText reports whether text is acceptable as a goal.
func ValidateGoalText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: goal text must not be empty", ErrInvalidGoal)
	}
	return nil
}
