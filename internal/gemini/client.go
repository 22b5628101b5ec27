// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini provides a REST client for the Google Generative Language API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// APIError is a non-2xx answer from the API or a response the client could
// not use.
type APIError struct {
	StatusCode int    // HTTP status, 0 when the failure is not an HTTP one
	Status     string // API status string such as "NOT_FOUND"
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return "gemini: " + e.Message
	}
	if e.Status != "" {
		return fmt.Sprintf("gemini: %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini: %d: %s", e.StatusCode, e.Message)
}

// ErrMissingAPIKey is returned by NewClient when no key is configured.
var ErrMissingAPIKey = errors.New("gemini: API key is required")

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	// DefaultBaseURL is the public Generative Language API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultAPIVersion is the API version path segment.
	DefaultAPIVersion = "v1beta"

	// maxResponseBody bounds how much of any response is read.
	maxResponseBody = 8 << 20
)

// Config holds configuration options for the Gemini client.
type Config struct {
	// APIKey is sent in the x-goog-api-key header (required)
	APIKey string

	// BaseURL defaults to DefaultBaseURL
	BaseURL string

	// APIVersion defaults to DefaultAPIVersion
	APIVersion string

	// Timeout for each HTTP request (default: 120s)
	Timeout time.Duration

	// PageSize for model listing (default: 100)
	PageSize int
}

// Client talks to the Generative Language REST API. It is safe for
// concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a client, filling zero config values with defaults.
func NewClient(config Config) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.APIVersion == "" {
		config.APIVersion = DefaultAPIVersion
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}
	if config.PageSize == 0 {
		config.PageSize = 100
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

// =============================================================================
// MODELS
// =============================================================================

// Model is a model resource as returned by the models endpoints.
type Model struct {
	Name                       string
	DisplayName                string
	SupportedGenerationMethods []string
}

func modelFromJSON(r gjson.Result) Model {
	m := Model{
		Name:        r.Get("name").String(),
		DisplayName: r.Get("displayName").String(),
	}
	for _, method := range r.Get("supportedGenerationMethods").Array() {
		m.SupportedGenerationMethods = append(m.SupportedGenerationMethods, method.String())
	}
	return m
}

// ResourceName returns name with the "models/" collection prefix, adding it
// when the caller passed a short name.
func ResourceName(name string) string {
	if strings.HasPrefix(name, "models/") || strings.HasPrefix(name, "tunedModels/") {
		return name
	}
	return "models/" + name
}

// ListModels returns every model visible to the API key, following
// pagination until the server stops returning a page token.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var models []Model
	pageToken := ""

	for {
		q := url.Values{}
		q.Set("pageSize", fmt.Sprint(c.config.PageSize))
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		body, err := c.do(ctx, http.MethodGet, "/models?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}

		gjson.GetBytes(body, "models").ForEach(func(_, item gjson.Result) bool {
			models = append(models, modelFromJSON(item))
			return true
		})

		next := gjson.GetBytes(body, "nextPageToken").String()
		if next == "" || next == pageToken {
			return models, nil
		}
		pageToken = next
	}
}

// GetModel fetches a single model resource. A 404 is reported as an
// APIError that satisfies IsNotFound.
func (c *Client) GetModel(ctx context.Context, name string) (*Model, error) {
	body, err := c.do(ctx, http.MethodGet, "/"+ResourceName(name), nil)
	if err != nil {
		return nil, err
	}
	m := modelFromJSON(gjson.ParseBytes(body))
	return &m, nil
}

// =============================================================================
// GENERATION
// =============================================================================

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// GenerateContent sends a single-turn user prompt and returns the text of
// the first candidate, with all of its text parts concatenated.
func (c *Client) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}

	body, err := c.do(ctx, http.MethodPost, "/"+ResourceName(model)+":generateContent", req)
	if err != nil {
		return "", err
	}

	if reason := gjson.GetBytes(body, "promptFeedback.blockReason").String(); reason != "" {
		return "", &APIError{Message: "prompt blocked: " + reason}
	}

	candidate := gjson.GetBytes(body, "candidates.0")
	if !candidate.Exists() {
		return "", &APIError{Message: "response contained no candidates"}
	}

	var sb strings.Builder
	for _, text := range candidate.Get("content.parts.#.text").Array() {
		sb.WriteString(text.String())
	}
	if sb.Len() == 0 {
		reason := candidate.Get("finishReason").String()
		return "", &APIError{Message: "candidate contained no text (finishReason=" + reason + ")"}
	}
	return sb.String(), nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs one API call and returns the raw body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("gemini: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	endpoint := c.config.BaseURL + "/" + c.config.APIVersion + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.config.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("gemini: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		if gjson.ValidBytes(body) {
			if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
				apiErr.Message = msg
			}
			apiErr.Status = gjson.GetBytes(body, "error.status").String()
		}
		return nil, apiErr
	}

	if !gjson.ValidBytes(body) {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "response is not valid JSON"}
	}
	return body, nil
}
