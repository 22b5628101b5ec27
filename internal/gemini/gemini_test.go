// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/jeranaias/goalbreak/internal/provider"
)

const testKey = "test-key"

// fakeAPI is a minimal Generative Language API. Models are served in pages
// of two to exercise pagination.
type fakeAPI struct {
	t      *testing.T
	models []string
	reply  string

	mu      sync.Mutex
	prompts []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("x-goog-api-key") != testKey {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1beta/")
	switch {
	case path == "models" && r.Method == http.MethodGet:
		start := 0
		if tok := r.URL.Query().Get("pageToken"); tok != "" {
			start = 2
		}
		end := min(start+2, len(f.models))
		items := make([]map[string]any, 0, 2)
		for _, name := range f.models[start:end] {
			items = append(items, f.modelJSON(name))
		}
		resp := map[string]any{"models": items}
		if end < len(f.models) {
			resp["nextPageToken"] = "page2"
		}
		json.NewEncoder(w).Encode(resp)

	case strings.HasSuffix(path, ":generateContent") && r.Method == http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.prompts = append(f.prompts, gjson.GetBytes(body, "contents.0.parts.0.text").String())
		f.mu.Unlock()
		io.WriteString(w, f.reply)

	case r.Method == http.MethodGet:
		for _, name := range f.models {
			if name == path {
				json.NewEncoder(w).Encode(f.modelJSON(name))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"code":404,"message":"model not found","status":"NOT_FOUND"}}`)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeAPI) modelJSON(name string) map[string]any {
	methods := []string{"generateContent", "countTokens"}
	if strings.Contains(name, "embedding") {
		methods = []string{"embedContent"}
	}
	return map[string]any{
		"name":                       name,
		"displayName":                strings.TrimPrefix(name, "models/"),
		"supportedGenerationMethods": methods,
	}
}

func newFake(t *testing.T, reply string, models ...string) (*fakeAPI, *Client) {
	t.Helper()
	f := &fakeAPI{t: t, models: models, reply: reply}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{APIKey: testKey, BaseURL: srv.URL})
	require.NoError(t, err)
	return f, c
}

func textReply(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
			"finishReason": "STOP",
		}},
	})
	return string(b)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(Config{APIKey: "  "})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestResourceName(t *testing.T) {
	assert.Equal(t, "models/gemini-1.5-flash", ResourceName("gemini-1.5-flash"))
	assert.Equal(t, "models/gemini-1.5-flash", ResourceName("models/gemini-1.5-flash"))
	assert.Equal(t, "tunedModels/mine", ResourceName("tunedModels/mine"))
}

func TestListModels_FollowsPagination(t *testing.T) {
	_, c := newFake(t, "", "models/gemini-1.5-flash", "models/gemini-1.5-pro", "models/text-embedding-004")

	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 3)
	assert.Equal(t, "models/text-embedding-004", models[2].Name)
	assert.Equal(t, []string{"embedContent"}, models[2].SupportedGenerationMethods)
	assert.Equal(t, "gemini-1.5-flash", models[0].DisplayName)
}

func TestGetModel_NotFound(t *testing.T) {
	_, c := newFake(t, "", "models/gemini-1.5-flash")

	m, err := c.GetModel(context.Background(), "gemini-1.5-flash")
	require.NoError(t, err)
	assert.Equal(t, "models/gemini-1.5-flash", m.Name)

	_, err = c.GetModel(context.Background(), "gemini-0.1-missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

func TestClient_BadKeySurfacesAPIMessage(t *testing.T) {
	f := &fakeAPI{t: t}
	srv := httptest.NewServer(f)
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "wrong", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.ListModels(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "API key not valid", apiErr.Message)
}

func TestGenerateContent(t *testing.T) {
	f, c := newFake(t, textReply(`{"tasks": []}`), "models/gemini-1.5-flash")

	out, err := c.GenerateContent(context.Background(), "gemini-1.5-flash", "Learn to play guitar")
	require.NoError(t, err)
	assert.Equal(t, `{"tasks": []}`, out)
	assert.Equal(t, []string{"Learn to play guitar"}, f.prompts)
}

func TestGenerateContent_JoinsParts(t *testing.T) {
	reply := `{"candidates":[{"content":{"parts":[{"text":"{\"a\":"},{"text":"1}"}]}}]}`
	_, c := newFake(t, reply, "models/gemini-1.5-flash")

	out, err := c.GenerateContent(context.Background(), "gemini-1.5-flash", "x")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
}

func TestGenerateContent_Failures(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"blocked", `{"promptFeedback":{"blockReason":"SAFETY"}}`, "prompt blocked: SAFETY"},
		{"no candidates", `{"candidates":[]}`, "no candidates"},
		{"empty text", `{"candidates":[{"content":{"parts":[]},"finishReason":"MAX_TOKENS"}]}`, "finishReason=MAX_TOKENS"},
		{"not json", `<html>`, "not valid JSON"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, c := newFake(t, tc.reply, "models/gemini-1.5-flash")
			_, err := c.GenerateContent(context.Background(), "gemini-1.5-flash", "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestProvider(t *testing.T) {
	_, c := newFake(t, textReply("done"), "models/gemini-1.5-flash", "models/text-embedding-004")
	p := NewProvider(c)
	ctx := context.Background()

	assert.Equal(t, "gemini", p.Name())
	require.NoError(t, p.Ping(ctx))

	models, err := p.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.True(t, models[0].Supports(provider.MethodGenerateContent))
	assert.False(t, models[1].Supports(provider.MethodGenerateContent))

	_, err = p.Instantiate(ctx, "gemini-9")
	assert.True(t, IsNotFound(err))

	h, err := p.Instantiate(ctx, "gemini-1.5-flash")
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-flash", h.Model())

	out, err := h.Generate(ctx, "prompt")
	require.NoError(t, err)
	assert.Equal(t, "done", out)
}
