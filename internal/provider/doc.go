// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider defines the contract between the goal decomposer and the
// generative-model backends it can drive.
//
// A backend is able to enumerate its models, instantiate a handle for a named
// model, and generate text through that handle. Instantiation may fail per
// model; the decomposer uses that signal to fall back to other candidates.
//
// # Key Types
//
//   - Provider: Model enumeration and instantiation
//   - Handle: A usable model that turns a prompt into text
//   - ModelDescriptor: Name and supported generation methods of a model
//
// # Implementations
//
//   - internal/gemini: Google Generative Language REST API
//   - internal/ollama: Local Ollama server
//   - internal/claude: Anthropic Messages API
//   - internal/openrouter: OpenRouter chat completions API
//   - internal/provider/providertest: Scriptable in-memory provider for tests
package provider
