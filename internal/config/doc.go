// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and validation for goalbreak.
//
// There is no global configuration: the CLI loads one Config at startup and
// passes the pieces each component needs into its constructor.
//
// # Key Types
//
//   - Config: Root structure with Server, Database, Provider and Decomposer sections
//   - ValidateErrors: Every validation problem found, each naming its field
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (GOALBREAK_*, GEMINI_API_KEY, ANTHROPIC_API_KEY,
//     OPENROUTER_API_KEY)
//   - .env in the working directory (via LoadDotEnv, never overriding the environment)
//   - ~/.goalbreak/config.toml or an explicit path
//   - Built-in defaults
//
// # Usage
//
//	_ = config.LoadDotEnv()
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err) // e.g. provider.api_key: an API key is required for gemini
//	}
package config
