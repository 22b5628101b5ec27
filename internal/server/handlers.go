// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jeranaias/goalbreak/internal/decomposer"
	"github.com/jeranaias/goalbreak/internal/export"
	"github.com/jeranaias/goalbreak/internal/model"
	"github.com/jeranaias/goalbreak/internal/provider"
	"github.com/jeranaias/goalbreak/internal/storage"
	"github.com/jeranaias/goalbreak/internal/util"
)

// ============================================================================
// REQUEST/RESPONSE TYPES
// ============================================================================

// CreateGoalRequest is the body of POST /api/goals.
type CreateGoalRequest struct {
	GoalText string `json:"goal_text"`
}

// RootResponse is the liveness message.
type RootResponse struct {
	Message string `json:"message"`
}

// ModelsResponse lists the provider's models.
type ModelsResponse struct {
	Provider string                   `json:"provider"`
	Models   []decomposer.ModelStatus `json:"models"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	StorageStatus  string `json:"storage_status"`
	Provider       string `json:"provider"`
	ProviderStatus string `json:"provider_status"`
}

// StatsResponse represents the usage statistics response.
type StatsResponse struct {
	GoalsCreated          int64 `json:"goals_created"`
	DecompositionFailures int64 `json:"decomposition_failures"`
	StorageFailures       int64 `json:"storage_failures"`
	InvalidRequests       int64 `json:"invalid_requests"`
	StoredGoals           int   `json:"stored_goals"`
	UptimeSeconds         int64 `json:"uptime_seconds"`
}

// ============================================================================
// ROOT
// ============================================================================

// handleRoot handles GET /.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{Message: "Goal Breaker API is running"})
}

// ============================================================================
// GOAL HANDLERS
// ============================================================================

// handleCreateGoal handles POST /api/goals.
//
// The goal is decomposed first and stored only when decomposition succeeds,
// so a failed request leaves nothing behind.
func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	reqID := RequestID(r.Context())

	var req CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.stats.InvalidRequests.Add(1)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	goalText := util.NormalizeText(req.GoalText)
	if goalText == "" {
		s.stats.InvalidRequests.Add(1)
		writeDetail(w, http.StatusBadRequest, "goal_text must not be empty")
		return
	}
	if n := util.RuneLen(goalText); n > s.opts.MaxGoalLength {
		s.stats.InvalidRequests.Add(1)
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("goal_text is too long (%d > %d characters)", n, s.opts.MaxGoalLength))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.decomposer.Decompose(ctx, goalText)
	if err != nil {
		s.stats.DecompositionFailures.Add(1)
		log.Printf("GOAL_CREATE_FAILED | id=%s stage=decompose kind=%s error=%v", reqID, decomposer.KindOf(err), err)
		writeDetail(w, http.StatusInternalServerError, "Error creating goal: "+err.Error())
		return
	}

	goal, err := s.goals.Save(ctx, goalText, res.ComplexityScore, res.Tasks)
	if err != nil {
		s.stats.StorageFailures.Add(1)
		log.Printf("GOAL_CREATE_FAILED | id=%s stage=store error=%v", reqID, err)
		writeDetail(w, http.StatusInternalServerError, "Error creating goal: "+err.Error())
		return
	}

	s.stats.GoalsCreated.Add(1)
	log.Printf("GOAL_CREATED | id=%s goal_id=%s model=%s complexity=%.1f duration=%.3fs",
		reqID, goal.ID, res.Model, goal.ComplexityScore, time.Since(start).Seconds())
	writeJSON(w, http.StatusCreated, goal)
}

// handleListGoals handles GET /api/goals.
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		s.stats.InvalidRequests.Add(1)
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", DefaultListLimit)
	if err != nil {
		s.stats.InvalidRequests.Add(1)
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	limit = min(limit, storage.MaxListLimit)

	goals, err := s.goals.List(r.Context(), skip, limit)
	if err != nil {
		log.Printf("GOAL_LIST_FAILED | id=%s error=%v", RequestID(r.Context()), err)
		writeDetail(w, http.StatusInternalServerError, "Error listing goals")
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// handleGetGoal handles GET /api/goals/{id}.
func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := s.goals.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Goal not found")
		return
	}
	if err != nil {
		log.Printf("GOAL_GET_FAILED | id=%s error=%v", RequestID(r.Context()), err)
		writeDetail(w, http.StatusInternalServerError, "Error reading goal")
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// handleExportGoal handles GET /api/goals/{id}/export?format=markdown|json|html.
func (s *Server) handleExportGoal(w http.ResponseWriter, r *http.Request) {
	format := export.FormatMarkdown
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := export.ParseFormat(q)
		if err != nil {
			s.stats.InvalidRequests.Add(1)
			writeDetail(w, http.StatusBadRequest, "format must be markdown, json or html")
			return
		}
		format = f
	}

	goal, err := s.goals.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Goal not found")
		return
	}
	if err != nil {
		log.Printf("GOAL_EXPORT_FAILED | id=%s error=%v", RequestID(r.Context()), err)
		writeDetail(w, http.StatusInternalServerError, "Error reading goal")
		return
	}

	opts := export.DefaultOptions()
	if r.URL.Query().Get("theme") == "light" {
		opts.Theme = "light"
	}
	exporter, err := export.New(format, opts)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := exporter.Export([]model.Goal{*goal})
	if err != nil {
		log.Printf("GOAL_EXPORT_FAILED | id=%s goal=%s error=%v", RequestID(r.Context()), goal.ID, err)
		writeDetail(w, http.StatusInternalServerError, "Error exporting goal")
		return
	}

	w.Header().Set("Content-Type", exporter.MimeType())
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="goal_%s%s"`, goal.ID, exporter.FileExtension()))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleDeleteGoal handles DELETE /api/goals/{id}.
func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.goals.Delete(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Goal not found")
		return
	}
	if err != nil {
		log.Printf("GOAL_DELETE_FAILED | id=%s error=%v", RequestID(r.Context()), err)
		writeDetail(w, http.StatusInternalServerError, "Error deleting goal")
		return
	}

	log.Printf("GOAL_DELETED | id=%s goal_id=%s", RequestID(r.Context()), id)
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// MODELS HANDLER
// ============================================================================

// handleModels handles GET /api/models. Nothing is instantiated.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	models, err := s.decomposer.Catalog(ctx)
	if err != nil {
		log.Printf("MODELS_FAILED | id=%s error=%v", RequestID(r.Context()), err)
		writeDetail(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ModelsResponse{
		Provider: s.decomposer.Provider().Name(),
		Models:   models,
	})
}

// ============================================================================
// HEALTH HANDLER
// ============================================================================

// handleHealth handles GET /health. Storage failure answers 503; an
// unreachable provider only degrades the status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	p := s.decomposer.Provider()
	health := HealthResponse{
		Status:         "ok",
		Version:        Version,
		StorageStatus:  "ok",
		Provider:       p.Name(),
		ProviderStatus: "unchecked",
	}
	status := http.StatusOK

	if err := s.goals.Ping(ctx); err != nil {
		log.Printf("HEALTH_STORAGE_FAILED | error=%v", err)
		health.StorageStatus = "unavailable"
		health.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if pinger, ok := p.(provider.Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			log.Printf("HEALTH_PROVIDER_FAILED | provider=%s error=%v", p.Name(), err)
			health.ProviderStatus = "unavailable"
			if health.Status == "ok" {
				health.Status = "degraded"
			}
		} else {
			health.ProviderStatus = "ok"
		}
	}

	writeJSON(w, status, health)
}

// ============================================================================
// STATS HANDLER
// ============================================================================

// handleStats handles GET /stats. StoredGoals is -1 when the store cannot
// be counted.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stored, err := s.goals.Count(r.Context())
	if err != nil {
		log.Printf("STATS_COUNT_FAILED | error=%v", err)
		stored = -1
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		GoalsCreated:          s.stats.GoalsCreated.Load(),
		DecompositionFailures: s.stats.DecompositionFailures.Load(),
		StorageFailures:       s.stats.StorageFailures.Load(),
		InvalidRequests:       s.stats.InvalidRequests.Load(),
		StoredGoals:           stored,
		UptimeSeconds:         int64(s.stats.Uptime().Seconds()),
	})
}
