// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package providertest provides a scriptable in-memory provider for tests.
package providertest

import (
	"context"
	"errors"
	"sync"

	"github.com/jeranaias/goalbreak/internal/provider"
)

// ErrUnknownModel is returned by Instantiate for names the fake does not list.
var ErrUnknownModel = errors.New("unknown model")

// GenerateFunc produces the text returned by a handle of the given model.
type GenerateFunc func(model, prompt string) (string, error)

// Fake is a provider.Provider whose behaviour is fully scripted.
//
// Instantiate succeeds for any name equal to a listed model's Name or
// ShortName unless FailInstantiate holds an error for that exact name.
type Fake struct {
	Models          []provider.ModelDescriptor
	ListErr         error
	FailInstantiate map[string]error
	Generate        GenerateFunc

	mu           sync.Mutex
	instantiated []string
	prompts      []string
	listCalls    int
}

// New returns a Fake listing the given generateContent-capable models and
// answering every prompt with response.
func New(response string, names ...string) *Fake {
	f := &Fake{
		FailInstantiate: make(map[string]error),
		Generate: func(string, string) (string, error) {
			return response, nil
		},
	}
	for _, n := range names {
		f.Models = append(f.Models, provider.ModelDescriptor{
			Name:                       n,
			SupportedGenerationMethods: []string{provider.MethodGenerateContent},
		})
	}
	return f
}

// Name implements provider.Provider.
func (f *Fake) Name() string { return "fake" }

// ListModels implements provider.Provider.
func (f *Fake) ListModels(ctx context.Context) ([]provider.ModelDescriptor, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()

	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]provider.ModelDescriptor(nil), f.Models...), nil
}

// Instantiate implements provider.Provider.
func (f *Fake) Instantiate(ctx context.Context, name string) (provider.Handle, error) {
	f.mu.Lock()
	f.instantiated = append(f.instantiated, name)
	f.mu.Unlock()

	if err, ok := f.FailInstantiate[name]; ok {
		return nil, err
	}
	for _, m := range f.Models {
		if m.Name == name || m.ShortName() == name {
			return &handle{fake: f, model: name}, nil
		}
	}
	return nil, ErrUnknownModel
}

// Instantiated returns every name passed to Instantiate, in call order.
func (f *Fake) Instantiated() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.instantiated...)
}

// Prompts returns every prompt sent through a handle, in call order.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// ListCalls returns how many times ListModels was invoked.
func (f *Fake) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type handle struct {
	fake  *Fake
	model string
}

func (h *handle) Model() string { return h.model }

func (h *handle) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h.fake.mu.Lock()
	h.fake.prompts = append(h.fake.prompts, prompt)
	gen := h.fake.Generate
	h.fake.mu.Unlock()

	if gen == nil {
		return "", errors.New("no response scripted")
	}
	return gen(h.model, prompt)
}
