// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jeranaias/goalbreak/internal/provider"
)

// fakeOllama serves the subset of the Ollama API the client uses.
func fakeOllama(t *testing.T, installed []string, reply string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	})
	mux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, r *http.Request) {
		var resp ListModelsResponse
		for _, name := range installed {
			resp.Models = append(resp.Models, ModelInfo{
				Name:    name,
				Size:    2 * 1024 * 1024 * 1024,
				Details: ModelDetails{ParameterSize: "3B"},
			})
		}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("POST /api/show", func(w http.ResponseWriter, r *http.Request) {
		var req ShowModelRequest
		json.NewDecoder(r.Body).Decode(&req)
		for _, name := range installed {
			if name == req.Name {
				json.NewEncoder(w).Encode(ShowModelResponse{Details: ModelDetails{Family: "llama"}})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(APIErrorBody{Error: "model '" + req.Name + "' not found"})
	})
	mux.HandleFunc("POST /api/generate", func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Stream {
			t.Errorf("generate request asked for streaming")
		}
		if req.Prompt == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(APIErrorBody{Error: "prompt is required"})
			return
		}
		json.NewEncoder(w).Encode(GenerateResponse{Model: req.Model, Response: reply, Done: true})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(url string) *Client {
	return NewClientWithConfig(&ClientConfig{BaseURL: url + "/"})
}

// =============================================================================
// CLIENT TESTS
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{})
	if c.BaseURL() != "http://127.0.0.1:11434" {
		t.Errorf("BaseURL = %q", c.BaseURL())
	}
	if c.config.Timeout == 0 {
		t.Error("Timeout was not defaulted")
	}

	c = NewClientWithConfig(&ClientConfig{BaseURL: "http://host:1/"})
	if c.BaseURL() != "http://host:1" {
		t.Errorf("trailing slash not trimmed: %q", c.BaseURL())
	}
}

func TestClient_CheckRunning(t *testing.T) {
	srv := fakeOllama(t, nil, "")
	if err := newTestClient(srv.URL).CheckRunning(context.Background()); err != nil {
		t.Fatalf("CheckRunning() error = %v", err)
	}

	srv.Close()
	err := newTestClient(srv.URL).CheckRunning(context.Background())
	if !errors.Is(err, ErrNotRunning) {
		t.Errorf("CheckRunning() on closed server = %v, want ErrNotRunning", err)
	}
}

func TestClient_ListModels(t *testing.T) {
	srv := fakeOllama(t, []string{"llama3.2:3b", "qwen2.5:7b"}, "")

	models, err := newTestClient(srv.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 2 || models[0].Name != "llama3.2:3b" {
		t.Errorf("ListModels() = %+v", models)
	}
}

func TestClient_GetModelNotFound(t *testing.T) {
	srv := fakeOllama(t, []string{"llama3.2:3b"}, "")

	_, err := newTestClient(srv.URL).GetModel(context.Background(), "missing")
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("GetModel(missing) = %v, want ErrModelNotFound", err)
	}
}

func TestClient_GenerateSurfacesServerError(t *testing.T) {
	srv := fakeOllama(t, []string{"llama3.2:3b"}, "")

	_, err := newTestClient(srv.URL).Generate(context.Background(), "llama3.2:3b", "")
	if err == nil || !strings.Contains(err.Error(), "prompt is required") {
		t.Errorf("Generate() error = %v, want server message", err)
	}
}

func TestClient_GenerateCancelled(t *testing.T) {
	srv := fakeOllama(t, []string{"llama3.2:3b"}, "ok")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL).Generate(ctx, "llama3.2:3b", "hi")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
}

// =============================================================================
// PROVIDER TESTS
// =============================================================================

func TestProvider_ListModelsReportsGenerateContent(t *testing.T) {
	srv := fakeOllama(t, []string{"llama3.2:3b"}, "")
	p := NewProvider(newTestClient(srv.URL))

	if p.Name() != "ollama" {
		t.Errorf("Name() = %q", p.Name())
	}

	models, err := p.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 1 {
		t.Fatalf("got %d models, want 1", len(models))
	}
	if !models[0].Supports(provider.MethodGenerateContent) {
		t.Error("ollama model should support generateContent")
	}
	if models[0].DisplayName != "llama3.2:3b (3B, 2 GB)" {
		t.Errorf("DisplayName = %q", models[0].DisplayName)
	}
}

func TestProvider_InstantiateAndGenerate(t *testing.T) {
	reply := `{"tasks": [], "complexity_score": 3}`
	srv := fakeOllama(t, []string{"llama3.2:3b"}, reply)
	p := NewProvider(newTestClient(srv.URL))

	if _, err := p.Instantiate(context.Background(), "missing"); err == nil {
		t.Error("Instantiate(missing) should fail")
	}

	h, err := p.Instantiate(context.Background(), "llama3.2:3b")
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}
	if h.Model() != "llama3.2:3b" {
		t.Errorf("Model() = %q", h.Model())
	}

	out, err := h.Generate(context.Background(), "Break down this goal")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != reply {
		t.Errorf("Generate() = %q, want %q", out, reply)
	}

	if err := p.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestClient_GenerateSendsJSONModeAndOptions(t *testing.T) {
	var got GenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(GenerateResponse{Model: got.Model, Response: "{}", Done: true})
	}))
	t.Cleanup(srv.Close)

	c := NewClientWithConfig(&ClientConfig{
		BaseURL:  srv.URL,
		JSONMode: true,
		Options:  &Options{NumPredict: 512},
	})
	if _, err := c.Generate(context.Background(), "llama3.2", "goal"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got.Format != "json" {
		t.Errorf("Format = %q, want json", got.Format)
	}
	if got.Options == nil || got.Options.NumPredict != 512 {
		t.Errorf("Options = %+v, want num_predict 512", got.Options)
	}

	got = GenerateRequest{}
	plain := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	if _, err := plain.Generate(context.Background(), "llama3.2", "goal"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got.Format != "" || got.Options != nil {
		t.Errorf("plain request sent format=%q options=%+v", got.Format, got.Options)
	}
}

// =============================================================================
// MODEL INFO TESTS
// =============================================================================

func TestModelInfo_FormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1 MB"},
		{2 * 1024 * 1024 * 1024, "2 GB"},
	}

	for _, tc := range tests {
		m := &ModelInfo{Size: tc.size}
		if got := m.FormatSize(); got != tc.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tc.size, got, tc.want)
		}
	}
}
