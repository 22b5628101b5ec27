// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini provides a REST client for the Google Generative Language API.
package gemini

import (
	"context"

	"github.com/jeranaias/goalbreak/internal/provider"
)

// ProviderName identifies the Gemini backend in configuration and logs.
const ProviderName = "gemini"

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

// ListModels implements provider.Provider.
func (p *Provider) ListModels(ctx context.Context) ([]provider.ModelDescriptor, error) {
	models, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]provider.ModelDescriptor, len(models))
	for i, m := range models {
		out[i] = provider.ModelDescriptor{
			Name:                       m.Name,
			DisplayName:                m.DisplayName,
			SupportedGenerationMethods: m.SupportedGenerationMethods,
		}
	}
	return out, nil
}

// Instantiate implements provider.Provider by fetching the model resource,
// so unknown or inaccessible names fail here rather than on first use.
func (p *Provider) Instantiate(ctx context.Context, name string) (provider.Handle, error) {
	if _, err := p.client.GetModel(ctx, name); err != nil {
		return nil, err
	}
	return &handle{client: p.client, model: name}, nil
}

// Ping lists one page of models to confirm the key and endpoint work.
func (p *Provider) Ping(ctx context.Context) error {
	_, err := p.client.do(ctx, "GET", "/models?pageSize=1", nil)
	return err
}

type handle struct {
	client *Client
	model  string
}

func (h *handle) Model() string { return h.model }

func (h *handle) Generate(ctx context.Context, prompt string) (string, error) {
	return h.client.GenerateContent(ctx, h.model, prompt)
}
