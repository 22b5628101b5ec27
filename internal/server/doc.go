// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the Goal Breaker HTTP API.
//
// A goal posted to /api/goals is decomposed by the configured model provider
// and stored together with its five tasks. Failures are logged with the
// request id and reported as a 500 whose detail embeds the error message;
// nothing is stored for a failed request.
//
// # Endpoints
//
//   - GET    /                - Liveness message
//   - POST   /api/goals       - Decompose and store a goal (201)
//   - GET    /api/goals       - List goals, ?skip=0&limit=100
//   - GET    /api/goals/{id}  - Fetch one goal (404 if absent)
//   - DELETE /api/goals/{id}  - Delete a goal and its tasks (204)
//   - GET    /api/models      - Models reported by the provider
//   - GET    /health          - Storage and provider health
//   - GET    /stats           - Usage statistics
//
// # Middleware
//
// Every request passes through panic recovery, security headers, request
// ids (X-Request-Id), request logging, CORS, per-IP rate limiting and a body
// size limit. Bearer token authentication covers the /api routes when a
// token is configured.
//
// # Key Types
//
//   - Server: HTTP server with router and middleware
//   - Options: Listen address, CORS, auth, limits and timeouts
//   - GoalStore, Decomposer: the dependencies a Server drives
//
// # Usage
//
//	srv, err := server.New(store, decomposer.New(p, dcfg), server.OptionsFromConfig(cfg.Server))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
//		log.Fatal(err)
//	}
package server
