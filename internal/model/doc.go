// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for goals and their tasks.
//
// This package defines the core domain types shared by the decomposer, the
// storage layer and the HTTP API.
//
// # Key Types
//
//   - Goal: A user-submitted goal with its complexity score and ordered tasks
//   - Task: One of exactly five ordered, actionable steps belonging to a Goal
//   - TaskDraft: A task produced by decomposition, before it is persisted
//
// # Usage
//
// Validate a decomposition before persisting it:
//
//	drafts := []model.TaskDraft{{Text: "Buy a guitar", Order: 1}, ...}
//	if err := model.ValidateDrafts(drafts); err != nil {
//	    return err
//	}
//	score := model.ClampComplexity(raw)
package model
