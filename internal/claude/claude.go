// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package claude drives Anthropic's Claude models as a decomposition backend.
package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jeranaias/goalbreak/internal/provider"
)

// ProviderName identifies the Claude backend in configuration and logs.
const ProviderName = "claude"

// DefaultMaxTokens bounds a single decomposition answer. Five short tasks
// and a score fit comfortably.
const DefaultMaxTokens = 2048

// ErrMissingAPIKey is returned by New when no key is configured.
var ErrMissingAPIKey = errors.New("claude: API key is required")

// Config holds configuration for the Claude provider.
type Config struct {
	APIKey    string
	BaseURL   string // optional, for proxies and tests
	MaxTokens int64
}

// Provider implements provider.Provider on top of the Anthropic SDK.
type Provider struct {
	inner     anthropic.Client
	maxTokens int64
}

// New creates a Claude provider.
func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	// The SDK retries 429 and 5xx by default; provider calls here fail the
	// request instead.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &Provider{
		inner:     anthropic.NewClient(opts...),
		maxTokens: maxTokens,
	}, nil
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return ProviderName }

// ListModels implements provider.Provider. Every Claude model accepts
// message generation, so each is reported as supporting generateContent.
func (p *Provider) ListModels(ctx context.Context) ([]provider.ModelDescriptor, error) {
	var out []provider.ModelDescriptor

	iter := p.inner.Models.ListAutoPaging(ctx, anthropic.ModelListParams{})
	for iter.Next() {
		m := iter.Current()
		out = append(out, provider.ModelDescriptor{
			Name:                       m.ID,
			DisplayName:                m.DisplayName,
			SupportedGenerationMethods: []string{provider.MethodGenerateContent},
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("claude: list models: %w", err)
	}
	return out, nil
}

// Instantiate implements provider.Provider by looking the model up, so
// retired or misspelled IDs are rejected before any tokens are spent.
func (p *Provider) Instantiate(ctx context.Context, name string) (provider.Handle, error) {
	info, err := p.inner.Models.Get(ctx, name, anthropic.ModelGetParams{})
	if err != nil {
		return nil, fmt.Errorf("claude: get model %s: %w", name, err)
	}
	return &handle{p: p, model: info.ID}, nil
}

// Ping fetches one page of models to confirm the key works.
func (p *Provider) Ping(ctx context.Context) error {
	_, err := p.inner.Models.List(ctx, anthropic.ModelListParams{Limit: anthropic.Int(1)})
	return err
}

type handle struct {
	p     *Provider
	model string
}

func (h *handle) Model() string { return h.model }

func (h *handle) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := h.p.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(h.model),
		MaxTokens: h.p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude API call: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("claude: response contained no text (stop_reason=%s)", resp.StopReason)
	}
	return text.String(), nil
}
