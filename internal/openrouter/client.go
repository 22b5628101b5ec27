// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openrouter provides a client for the OpenRouter chat completions API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for the OpenRouter API.
const (
	// DefaultBaseURL is the base URL for the OpenRouter API.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024
)

// Error variables for common OpenRouter errors.
var (
	// ErrMissingAPIKey indicates the API key is not set.
	ErrMissingAPIKey = errors.New("openrouter: API key is required")

	// ErrAuthFailed indicates authentication failed (invalid or expired API key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrInsufficientCredits indicates the account has insufficient credits.
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// APIError represents an error from the OpenRouter API.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("openrouter error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("openrouter error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is one message of a chat completion request or response.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the chat completions endpoint.
type ChatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

// ChatResponse represents a response from the chat completions endpoint.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Content returns the content of the first choice, or "" if there is none.
func (r *ChatResponse) Content() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// ModelInfo describes a model OpenRouter can route to.
type ModelInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length"`
}

type modelsResponse struct {
	Data []ModelInfo `json:"data"`
}

type apiErrorResponse struct {
	Error struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Config holds configuration options for the OpenRouter client.
type Config struct {
	// APIKey is sent as a bearer token (required)
	APIKey string

	// BaseURL defaults to DefaultBaseURL
	BaseURL string

	// Timeout for each HTTP request (default: 60s)
	Timeout time.Duration

	// MaxTokens bounds each completion; 0 leaves it to the model
	MaxTokens int

	// SiteURL and SiteName are sent as attribution headers when set
	SiteURL  string
	SiteName string
}

// Client communicates with the OpenRouter API. It is safe for concurrent use.
// Failed calls are returned to the caller as-is; nothing is retried.
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
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
			Timeout: config.Timeout,
		},
	}, nil
}

// APIKeyMasked returns a masked version of the API key for display.
func (c *Client) APIKeyMasked() string {
	key := c.config.APIKey
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setHeaders sets the required headers for OpenRouter API requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "goalbreak")

	if c.config.SiteURL != "" {
		req.Header.Set("HTTP-Referer", c.config.SiteURL)
	}
	if c.config.SiteName != "" {
		req.Header.Set("X-Title", c.config.SiteName)
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// ListModels retrieves the models OpenRouter can route to.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var resp modelsResponse
	if err := c.do(ctx, http.MethodGet, "/models", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Chat performs a non-streaming chat completion with the given model.
func (c *Client) Chat(ctx context.Context, model string, messages []ChatMessage) (*ChatResponse, error) {
	reqBody := ChatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: c.config.MaxTokens,
	}

	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat/completions", reqBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Generate performs a single-prompt completion and returns its text.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.Chat(ctx, model, []ChatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		return "", err
	}
	text := resp.Content()
	if text == "" {
		reason := ""
		if len(resp.Choices) > 0 {
			reason = resp.Choices[0].FinishReason
		}
		return "", fmt.Errorf("openrouter: response contained no text (finish_reason=%s)", reason)
	}
	return text, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs one API call and decodes a 200 answer into out.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("openrouter: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("openrouter: create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openrouter: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return handleErrorResponse(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("openrouter: parse response: %w", err)
	}
	return nil
}

// readResponse reads the response body, refusing bodies over MaxResponseSize.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("openrouter: read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("openrouter: response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to sentinel-wrapped errors
// where the status has a known meaning, and to an APIError otherwise.
func handleErrorResponse(statusCode int, body []byte) error {
	apiErr := &APIError{Status: statusCode, Message: strings.TrimSpace(string(body))}

	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Message = parsed.Error.Message
		if parsed.Error.Code != nil {
			apiErr.Code = fmt.Sprint(parsed.Error.Code)
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}

	var sentinel error
	switch statusCode {
	case http.StatusUnauthorized:
		sentinel = ErrAuthFailed
	case http.StatusPaymentRequired:
		sentinel = ErrInsufficientCredits
	case http.StatusNotFound:
		sentinel = ErrModelNotFound
	case http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	default:
		return apiErr
	}
	return fmt.Errorf("%w: %w", sentinel, apiErr)
}
