// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openrouter provides a client for the OpenRouter chat completions API.
//
// OpenRouter fronts many vendors' models behind one OpenAI-style endpoint.
// Model IDs carry the vendor as a prefix (e.g. "google/gemini-flash-1.5").
//
// # Key Types
//
//   - Client: /models and /chat/completions
//   - Provider: provider.Provider adapter over a Client
//   - APIError: Non-200 answers with the API's own error message
//
// # Error Handling
//
// Well-known statuses wrap a sentinel so callers can use errors.Is:
//
//   - 401: ErrAuthFailed
//   - 402: ErrInsufficientCredits
//   - 404: ErrModelNotFound
//   - 429: ErrRateLimited
//
// No call is retried; a failure fails the whole decomposition.
//
// # Usage
//
//	client, err := openrouter.NewClient(openrouter.Config{APIKey: key})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d := decomposer.New(openrouter.NewProvider(client), decomposer.DefaultConfig())
package openrouter
