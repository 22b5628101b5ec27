// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// This package lets a local Ollama server act as a decomposition backend.
// Only the non-streaming endpoints are used: a decomposition is a single
// prompt whose complete answer must be parsed as JSON.
//
// # Key Types
//
//   - Client: HTTP client for /api/tags, /api/show and /api/generate
//   - Provider: provider.Provider adapter over a Client
//   - ClientError: Typed error with sentinels for not-running and not-found
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL: "http://127.0.0.1:11434",
//	})
//	d := decomposer.New(ollama.NewProvider(client), decomposer.DefaultConfig())
package ollama
