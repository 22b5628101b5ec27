// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package claude drives Anthropic's Claude models as a decomposition backend.
//
// Model discovery uses the Models API, so the same tiered selection that
// runs against Gemini works unchanged: preferred IDs are matched by
// substring against whatever the account can see.
//
// # Usage
//
//	p, err := claude.New(claude.Config{APIKey: key})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d := decomposer.New(p, decomposer.DefaultConfig())
package claude
