// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini provides a REST client for the Google Generative Language API.
//
// Responses are read with gjson rather than decoded into full structs; the
// client only needs a handful of paths out of large, evolving payloads.
//
// # Key Types
//
//   - Client: models.list, models.get and models.generateContent
//   - Provider: provider.Provider adapter over a Client
//   - APIError: Non-2xx answers with the API's own error message
//
// # Usage
//
//	client, err := gemini.NewClient(gemini.Config{APIKey: key})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d := decomposer.New(gemini.NewProvider(client), decomposer.DefaultConfig())
package gemini
