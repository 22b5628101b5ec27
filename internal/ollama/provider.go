// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
package ollama

import (
	"context"

	"github.com/jeranaias/goalbreak/internal/provider"
)

// ProviderName identifies the Ollama backend in configuration and logs.
const ProviderName = "ollama"

// Provider adapts a Client to provider.Provider.
//
// Ollama has no notion of generation methods; every installed model can
// complete text, so each is reported as supporting generateContent.
type Provider struct {
	client *Client
}

// NewProvider wraps client as a decomposition backend.
func NewProvider(client *Client) *Provider {
	if client == nil {
		client = NewClient()
	}
	return &Provider{client: client}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return ProviderName }

// Ping reports whether the Ollama server is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.CheckRunning(ctx)
}

// ListModels implements provider.Provider.
func (p *Provider) ListModels(ctx context.Context) ([]provider.ModelDescriptor, error) {
	models, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]provider.ModelDescriptor, 0, len(models))
	for _, m := range models {
		display := m.Name
		if m.Details.ParameterSize != "" {
			display += " (" + m.Details.ParameterSize + ", " + m.FormatSize() + ")"
		}
		out = append(out, provider.ModelDescriptor{
			Name:                       m.Name,
			DisplayName:                display,
			SupportedGenerationMethods: []string{provider.MethodGenerateContent},
		})
	}
	return out, nil
}

// Instantiate implements provider.Provider. The model must be installed
// locally; /api/show is used to confirm that without loading weights.
func (p *Provider) Instantiate(ctx context.Context, name string) (provider.Handle, error) {
	if _, err := p.client.GetModel(ctx, name); err != nil {
		return nil, err
	}
	return &handle{client: p.client, model: name}, nil
}

type handle struct {
	client *Client
	model  string
}

func (h *handle) Model() string { return h.model }

func (h *handle) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := h.client.Generate(ctx, h.model, prompt)
	if err != nil {
		return "", err
	}
	return resp.Response, nil
}
