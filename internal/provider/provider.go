// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider defines the contract between the goal decomposer and the
// generative-model backends it can drive.
package provider

import (
	"context"
	"slices"
	"strings"
)

// MethodGenerateContent is the generation method a model must support to be
// considered for decomposition.
const MethodGenerateContent = "generateContent"

// ModelDescriptor describes a model as reported by a backend.
type ModelDescriptor struct {
	// Name is the backend's full identifier (e.g. "models/gemini-1.5-flash")
	Name string `json:"name"`

	// DisplayName is an optional human-readable label
	DisplayName string `json:"display_name,omitempty"`

	// SupportedGenerationMethods lists what the model can do
	SupportedGenerationMethods []string `json:"supported_generation_methods"`
}

// ShortName returns the model name without its "models/" collection prefix.
func (d ModelDescriptor) ShortName() string {
	return strings.TrimPrefix(d.Name, "models/")
}

// Supports reports whether the model lists the given generation method.
func (d ModelDescriptor) Supports(method string) bool {
	return slices.Contains(d.SupportedGenerationMethods, method)
}

// Provider enumerates and instantiates models of one backend.
type Provider interface {
	// Name identifies the backend in logs (e.g. "gemini")
	Name() string

	// ListModels returns every model the backend reports.
	ListModels(ctx context.Context) ([]ModelDescriptor, error)

	// Instantiate returns a handle for the named model, or an error if the
	// model cannot be used.
	Instantiate(ctx context.Context, name string) (Handle, error)
}

// Handle is an instantiated model.
type Handle interface {
	// Model returns the name the handle was instantiated with.
	Model() string

	// Generate sends a single prompt and returns the model's text output.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Pinger is implemented by providers that can cheaply check reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
