// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openrouter

import (
	"context"
	"fmt"

	"github.com/jeranaias/goalbreak/internal/provider"
)

// ProviderName identifies the OpenRouter backend in configuration and logs.
const ProviderName = "openrouter"

// Provider adapts a Client to provider.Provider.
type Provider struct {
	client *Client
}

// NewProvider wraps client as a decomposition backend.
func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return ProviderName }

// ListModels implements provider.Provider. OpenRouter only lists models it
// can chat with, so every entry supports generateContent.
func (p *Provider) ListModels(ctx context.Context) ([]provider.ModelDescriptor, error) {
	models, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]provider.ModelDescriptor, len(models))
	for i, m := range models {
		out[i] = provider.ModelDescriptor{
			Name:                       m.ID,
			DisplayName:                m.Name,
			SupportedGenerationMethods: []string{provider.MethodGenerateContent},
		}
	}
	return out, nil
}

// Instantiate implements provider.Provider. OpenRouter has no per-model
// lookup, so the name is checked against the listing.
func (p *Provider) Instantiate(ctx context.Context, name string) (provider.Handle, error) {
	models, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range models {
		if m.ID == name {
			return &handle{client: p.client, model: name}, nil
		}
	}
	return nil, fmt.Errorf("openrouter: %w: %s", ErrModelNotFound, name)
}

// Ping lists models to confirm the endpoint is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	_, err := p.client.ListModels(ctx)
	return err
}

type handle struct {
	client *Client
	model  string
}

func (h *handle) Model() string { return h.model }

func (h *handle) Generate(ctx context.Context, prompt string) (string, error) {
	return h.client.Generate(ctx, h.model, prompt)
}
