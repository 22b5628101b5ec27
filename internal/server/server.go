// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the Goal Breaker HTTP API.
//
// Endpoints:
//   - GET    /                - Liveness message
//   - POST   /api/goals       - Decompose and store a goal
//   - GET    /api/goals       - List goals (skip, limit)
//   - GET    /api/goals/{id}  - Fetch one goal
//   - DELETE /api/goals/{id}  - Delete a goal and its tasks
//   - GET    /api/models      - Models reported by the provider
//   - GET    /health          - Storage and provider health
//   - GET    /stats           - Usage statistics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/goalbreak/internal/config"
	"github.com/jeranaias/goalbreak/internal/decomposer"
	"github.com/jeranaias/goalbreak/internal/model"
	"github.com/jeranaias/goalbreak/internal/provider"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultListLimit is used when GET /api/goals has no limit parameter.
	DefaultListLimit = 100

	// DefaultRequestTimeout bounds one decomposition.
	DefaultRequestTimeout = 60 * time.Second

	// DefaultMaxBodyBytes caps request bodies.
	DefaultMaxBodyBytes = 64 * 1024

	// DefaultMaxGoalLength caps goal text, in characters.
	DefaultMaxGoalLength = 2000

	// Version is the server version.
	Version = "0.1.0"
)

// ============================================================================
// DEPENDENCIES
// ============================================================================

// GoalStore persists goals. *storage.Store implements it.
type GoalStore interface {
	Save(ctx context.Context, text string, score float64, drafts []model.TaskDraft) (*model.Goal, error)
	Get(ctx context.Context, id string) (*model.Goal, error)
	List(ctx context.Context, skip, limit int) ([]model.Goal, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Decomposer breaks goals into tasks. *decomposer.Decomposer implements it.
type Decomposer interface {
	Decompose(ctx context.Context, goal string) (*decomposer.Result, error)
	Catalog(ctx context.Context) ([]decomposer.ModelStatus, error)
	Provider() provider.Provider
}

// ============================================================================
// STATS
// ============================================================================

// ServerStats tracks server usage statistics.
type ServerStats struct {
	GoalsCreated          atomic.Int64
	DecompositionFailures atomic.Int64
	StorageFailures       atomic.Int64
	InvalidRequests       atomic.Int64
	StartTime             time.Time
}

// NewServerStats creates a new ServerStats instance.
func NewServerStats() *ServerStats {
	return &ServerStats{StartTime: time.Now()}
}

// Uptime returns the server uptime duration.
func (s *ServerStats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server.
type Options struct {
	// Addr is the listen address
	Addr string

	CORS *CORSConfig
	Auth *AuthConfig

	// RateLimit is requests per second per client IP; <= 0 disables it
	RateLimit float64
	RateBurst int

	RequestTimeout time.Duration
	MaxBodyBytes   int64
	MaxGoalLength  int

	// TrustedProxies may set forwarded headers (nil: DefaultTrustedProxies)
	TrustedProxies []string
}

// DefaultOptions returns options for a local server with rate limiting off.
func DefaultOptions() *Options {
	return &Options{
		Addr:           "127.0.0.1:8000",
		CORS:           DefaultCORSConfig(),
		RequestTimeout: DefaultRequestTimeout,
		MaxBodyBytes:   DefaultMaxBodyBytes,
		MaxGoalLength:  DefaultMaxGoalLength,
	}
}

// OptionsFromConfig maps the [server] config section onto Options.
func OptionsFromConfig(cfg config.ServerConfig) *Options {
	cors := DefaultCORSConfig()
	if len(cfg.AllowedOrigins) > 0 {
		cors.AllowedOrigins = cfg.AllowedOrigins
	}
	return &Options{
		Addr: cfg.Addr,
		CORS: cors,
		Auth: &AuthConfig{
			Enabled:     cfg.AuthToken != "",
			BearerToken: cfg.AuthToken,
		},
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		RequestTimeout: time.Duration(cfg.RequestTimeoutSecs) * time.Second,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		MaxGoalLength:  cfg.MaxGoalLength,
		TrustedProxies: cfg.TrustedProxies,
	}
}

// Server is the HTTP API server.
type Server struct {
	goals      GoalStore
	decomposer Decomposer
	opts       Options
	ips        *ClientIPResolver
	limiter    *RateLimiter
	router     *http.ServeMux
	handler    http.Handler
	stats      *ServerStats

	mu     sync.Mutex
	server *http.Server
}

// New creates a Server. A nil opts uses DefaultOptions.
func New(goals GoalStore, dec Decomposer, opts *Options) (*Server, error) {
	if goals == nil || dec == nil {
		return nil, errors.New("server requires a goal store and a decomposer")
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	// Fill in defaults for any zero values
	o := *opts
	if o.CORS == nil {
		o.CORS = DefaultCORSConfig()
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.MaxGoalLength <= 0 {
		o.MaxGoalLength = DefaultMaxGoalLength
	}

	ips, err := NewClientIPResolver(o.TrustedProxies)
	if err != nil {
		return nil, err
	}

	s := &Server{
		goals:      goals,
		decomposer: dec,
		opts:       o,
		ips:        ips,
		router:     http.NewServeMux(),
		stats:      NewServerStats(),
	}
	if o.RateLimit > 0 {
		s.limiter = NewRateLimiter(o.RateLimit, o.RateBurst)
	}

	s.setupRoutes()
	s.handler = Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		RequestIDMiddleware(),
		LoggingMiddleware(log.Default()),
		CORSMiddleware(o.CORS),
		RateLimitMiddleware(s.limiter, s.ips),
		BodyLimitMiddleware(o.MaxBodyBytes),
	)(s.router)

	return s, nil
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Stats returns the live counters.
func (s *Server) Stats() *ServerStats {
	return s.stats
}

// setupRoutes configures all HTTP routes. Authentication covers /api only.
func (s *Server) setupRoutes() {
	api := AuthMiddleware(s.opts.Auth, s.ips)

	s.router.HandleFunc("GET /{$}", s.handleRoot)
	s.router.Handle("POST /api/goals", api(http.HandlerFunc(s.handleCreateGoal)))
	s.router.Handle("GET /api/goals", api(http.HandlerFunc(s.handleListGoals)))
	s.router.Handle("GET /api/goals/{id}", api(http.HandlerFunc(s.handleGetGoal)))
	s.router.Handle("GET /api/goals/{id}/export", api(http.HandlerFunc(s.handleExportGoal)))
	s.router.Handle("DELETE /api/goals/{id}", api(http.HandlerFunc(s.handleDeleteGoal)))
	s.router.Handle("GET /api/models", api(http.HandlerFunc(s.handleModels)))
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /stats", s.handleStats)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address and serves until Shutdown.
// It returns http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.opts.RequestTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	log.Printf("SERVER_START | addr=%s version=%s provider=%s auth=%t rate_limit=%.1f",
		s.opts.Addr, Version, s.decomposer.Provider().Name(), s.opts.Auth != nil && s.opts.Auth.Enabled, s.opts.RateLimit)
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	log.Printf("SERVER_SHUTDOWN | goals_created=%d failures=%d uptime=%s",
		s.stats.GoalsCreated.Load(), s.stats.DecompositionFailures.Load(), s.stats.Uptime().Round(time.Second))
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("RESPONSE_ENCODE_FAILED | error=%v", err)
	}
}

// writeDetail writes a {"detail": message} error response.
func writeDetail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

// queryInt parses a non-negative integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative", name)
	}
	return n, nil
}
