// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package decomposer turns a free-text goal into five ordered tasks and a
// complexity score using a generative model.
//
// # Model Discovery
//
// Every call lists the provider's models and keeps those supporting the
// required generation method. Candidates are then tried in three tiers:
//
//  1. Preferred: each configured identifier, matched as a case-insensitive
//     substring, skipping excluded names
//  2. Available: the first non-excluded model that instantiates
//  3. First: the first discovered model, regardless of exclusion
//
// Each candidate is instantiated by short name and then by full name. Every
// rejection is logged with its reason. With Config.CacheModel the selected
// handle is reused until a generation call fails.
//
// # Response Validation
//
// ParseResponse strips code fences, parses JSON, requires the tasks and
// complexity_score keys, requires exactly five tasks, coerces and clamps the
// score to [1, 10], and requires non-blank task text. Task orders are
// renumbered 1..5 from array position.
//
// # Key Types
//
//   - Decomposer: Discovery plus decomposition over a provider.Provider
//   - Result: Five task drafts, the complexity score and the model used
//   - Error: Single error type tagged with an ErrorKind
//
// # Usage
//
//	d := decomposer.New(p, nil)
//	res, err := d.Decompose(ctx, "Learn to play guitar")
//	switch {
//	case errors.Is(err, decomposer.ErrUnexpectedTaskCount):
//	    // model ignored the instructions
//	case err != nil:
//	    return err
//	}
package decomposer
