// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package decomposer turns a free-text goal into five ordered tasks and a
// complexity score using a generative model.
package decomposer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jeranaias/goalbreak/internal/prompt"
	"github.com/jeranaias/goalbreak/internal/provider"
	"github.com/jeranaias/goalbreak/internal/util"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// DefaultPreferredModels is the Gemini preference order.
var DefaultPreferredModels = []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-pro"}

// Config holds decomposer options.
type Config struct {
	// PreferredModels are matched as case-insensitive substrings, in order
	PreferredModels []string

	// Exclude filters the preferred and available tiers (default: "exp", "2.5")
	Exclude ExclusionFunc

	// RequiredMethod a model must support (default: generateContent)
	RequiredMethod string

	// CacheModel keeps the selected handle between calls
	CacheModel bool

	// Prompt renders the instruction (default: built-in template)
	Prompt *prompt.Template
}

// DefaultConfig returns the default decomposer configuration.
func DefaultConfig() *Config {
	return &Config{
		PreferredModels: DefaultPreferredModels,
		Exclude:         ExcludeSubstrings(DefaultExcludePatterns...),
		RequiredMethod:  provider.MethodGenerateContent,
		Prompt:          prompt.Default(),
	}
}

// =============================================================================
// DECOMPOSER
// =============================================================================

// Decomposer breaks goals into tasks. It is safe for concurrent use.
//
// Example:
//
//	d := decomposer.New(gemini.NewProvider(client), nil)
//	res, err := d.Decompose(ctx, "Learn to play guitar")
//	if errors.Is(err, decomposer.ErrUnexpectedTaskCount) { ... }
type Decomposer struct {
	provider provider.Provider
	config   *Config

	mu     sync.Mutex
	cached *Selection
}

// New creates a Decomposer. A nil config uses DefaultConfig.
func New(p provider.Provider, config *Config) *Decomposer {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.Exclude == nil {
		config.Exclude = ExcludeSubstrings(DefaultExcludePatterns...)
	}
	if config.RequiredMethod == "" {
		config.RequiredMethod = provider.MethodGenerateContent
	}
	if config.Prompt == nil {
		config.Prompt = prompt.Default()
	}

	return &Decomposer{provider: p, config: config}
}

// Provider returns the backend the decomposer drives.
func (d *Decomposer) Provider() provider.Provider {
	return d.provider
}

// Decompose runs model discovery, sends the prompt and validates the reply.
// Every failure is an *Error.
func (d *Decomposer) Decompose(ctx context.Context, goal string) (*Result, error) {
	sel, err := d.selection(ctx)
	if err != nil {
		return nil, err
	}

	text, err := d.config.Prompt.Render(goal)
	if err != nil {
		return nil, &Error{Kind: KindProviderCall, Message: "could not build prompt", Cause: err}
	}

	log.Printf("DECOMPOSE_START | model=%s goal=%q", sel.Model, util.TruncateRunes(goal, 60))

	raw, err := sel.Handle.Generate(ctx, text)
	if err != nil {
		if d.config.CacheModel {
			d.invalidate()
		}
		return nil, &Error{Kind: KindProviderCall, Message: fmt.Sprintf("Error calling %s model %s", d.provider.Name(), sel.Model), Cause: err}
	}

	res, err := ParseResponse(raw)
	if err != nil {
		log.Printf("DECOMPOSE_INVALID | model=%s kind=%s error=%v", sel.Model, KindOf(err), err)
		return nil, err
	}
	res.Model = sel.Model

	log.Printf("DECOMPOSE_OK | model=%s tasks=%d complexity=%.1f", sel.Model, len(res.Tasks), res.ComplexityScore)
	return res, nil
}

// selection returns the cached selection when memoisation is enabled, or
// runs discovery.
func (d *Decomposer) selection(ctx context.Context) (*Selection, error) {
	if !d.config.CacheModel {
		return d.SelectModel(ctx)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cached != nil {
		return &Selection{Handle: d.cached.Handle, Model: d.cached.Model, Tier: TierCached}, nil
	}

	sel, err := d.SelectModel(ctx)
	if err != nil {
		return nil, err
	}
	d.cached = sel
	return sel, nil
}

// invalidate drops the cached handle so the next call rediscovers.
func (d *Decomposer) invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cached != nil {
		log.Printf("MODEL_CACHE_INVALIDATED | model=%s", d.cached.Model)
		d.cached = nil
	}
}
