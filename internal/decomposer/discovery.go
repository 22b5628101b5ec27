// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package decomposer turns a free-text goal into five ordered tasks and a
// complexity score using a generative model.
package decomposer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jeranaias/goalbreak/internal/provider"
)

// =============================================================================
// EXCLUSION
// =============================================================================

// ExclusionFunc reports whether a model must be skipped during preferred and
// available-model selection. It receives the short model name.
type ExclusionFunc func(name string) bool

// ExcludeSubstrings excludes any model whose name contains one of subs,
// compared case-insensitively. Empty substrings are ignored.
func ExcludeSubstrings(subs ...string) ExclusionFunc {
	lowered := make([]string, 0, len(subs))
	for _, s := range subs {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			lowered = append(lowered, s)
		}
	}
	return func(name string) bool {
		name = strings.ToLower(name)
		for _, s := range lowered {
			if strings.Contains(name, s) {
				return true
			}
		}
		return false
	}
}

// DefaultExcludePatterns keeps experimental and 2.5-series models out of the
// preferred and available tiers.
var DefaultExcludePatterns = []string{"exp", "2.5"}

// =============================================================================
// SELECTION
// =============================================================================

// Tier records which fallback level produced the selected model.
type Tier string

const (
	TierCached    Tier = "cached"
	TierPreferred Tier = "preferred"
	TierAvailable Tier = "available"
	TierFirst     Tier = "first"
)

// Attempt is one failed instantiation.
type Attempt struct {
	Model string
	Tier  Tier
	Err   error
}

// Selection is the outcome of model discovery.
type Selection struct {
	Handle provider.Handle
	// Model is the short name of the selected model
	Model    string
	Tier     Tier
	Attempts []Attempt
}

// Discover lists the provider's models that support the required generation
// method, in the order the provider reported them.
func (d *Decomposer) Discover(ctx context.Context) ([]provider.ModelDescriptor, error) {
	all, err := d.provider.ListModels(ctx)
	if err != nil {
		return nil, &Error{Kind: KindProviderCall, Message: "failed to list models from " + d.provider.Name(), Cause: err}
	}

	usable := make([]provider.ModelDescriptor, 0, len(all))
	for _, m := range all {
		if m.Supports(d.config.RequiredMethod) {
			usable = append(usable, m)
		}
	}
	log.Printf("MODELS_DISCOVERED | provider=%s total=%d usable=%d", d.provider.Name(), len(all), len(usable))

	if len(usable) == 0 {
		return nil, &Error{
			Kind:    KindNoModelAvailable,
			Message: fmt.Sprintf("no models with %s support found on %s; check the API key", d.config.RequiredMethod, d.provider.Name()),
		}
	}
	return usable, nil
}

// SelectModel runs discovery and returns the first model that instantiates,
// trying preferred models, then any non-excluded model, then the first
// discovered model regardless of exclusion.
func (d *Decomposer) SelectModel(ctx context.Context) (*Selection, error) {
	models, err := d.Discover(ctx)
	if err != nil {
		return nil, err
	}

	s := &selector{
		ctx:      ctx,
		provider: d.provider,
		failed:   make(map[string]bool),
	}
	exclude := d.config.Exclude

	for _, pref := range d.config.PreferredModels {
		pref = strings.ToLower(pref)
		if pref == "" {
			continue
		}
		for _, m := range models {
			short := m.ShortName()
			if !strings.Contains(strings.ToLower(short), pref) || exclude(short) {
				continue
			}
			if sel := s.try(m, TierPreferred); sel != nil {
				return sel, nil
			}
		}
	}

	for _, m := range models {
		if exclude(m.ShortName()) {
			continue
		}
		if sel := s.try(m, TierAvailable); sel != nil {
			return sel, nil
		}
	}

	if sel := s.try(models[0], TierFirst); sel != nil {
		return sel, nil
	}

	return nil, &Error{
		Kind:    KindModelInitialization,
		Message: fmt.Sprintf("could not initialize any model on %s (tried: %s)", d.provider.Name(), s.summary()),
	}
}

// ModelStatus describes how discovery treats one listed model.
type ModelStatus struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`

	// Usable is true when the model supports the required method
	Usable bool `json:"usable"`

	// Excluded is true when the exclusion predicate rejects the model
	Excluded bool `json:"excluded"`

	// PreferredRank is the 1-based position of the first preference the
	// model matches, or 0
	PreferredRank int `json:"preferred_rank,omitempty"`
}

// Catalog lists every model the provider reports, annotated with how
// selection would treat it. Nothing is instantiated.
func (d *Decomposer) Catalog(ctx context.Context) ([]ModelStatus, error) {
	all, err := d.provider.ListModels(ctx)
	if err != nil {
		return nil, &Error{Kind: KindProviderCall, Message: "failed to list models from " + d.provider.Name(), Cause: err}
	}

	out := make([]ModelStatus, 0, len(all))
	for _, m := range all {
		short := m.ShortName()
		st := ModelStatus{
			Name:        short,
			DisplayName: m.DisplayName,
			Usable:      m.Supports(d.config.RequiredMethod),
			Excluded:    d.config.Exclude(short),
		}
		lower := strings.ToLower(short)
		for i, pref := range d.config.PreferredModels {
			if pref = strings.ToLower(pref); pref != "" && strings.Contains(lower, pref) {
				st.PreferredRank = i + 1
				break
			}
		}
		out = append(out, st)
	}
	return out, nil
}

// selector tracks instantiation attempts during one discovery pass.
type selector struct {
	ctx      context.Context
	provider provider.Provider
	attempts []Attempt
	failed   map[string]bool
}

// try instantiates m by short name, then by full name when it differs.
// A model that already failed in an earlier tier is not retried.
func (s *selector) try(m provider.ModelDescriptor, tier Tier) *Selection {
	if s.failed[m.Name] {
		return nil
	}

	short := m.ShortName()
	names := []string{short}
	if m.Name != short {
		names = append(names, m.Name)
	}

	for _, name := range names {
		h, err := s.provider.Instantiate(s.ctx, name)
		if err == nil {
			log.Printf("MODEL_SELECTED | provider=%s model=%s tier=%s rejected=%d", s.provider.Name(), short, tier, len(s.attempts))
			return &Selection{Handle: h, Model: short, Tier: tier, Attempts: s.attempts}
		}
		log.Printf("MODEL_CANDIDATE_REJECTED | provider=%s model=%s tier=%s error=%v", s.provider.Name(), name, tier, err)
		s.attempts = append(s.attempts, Attempt{Model: name, Tier: tier, Err: err})
	}

	s.failed[m.Name] = true
	return nil
}

func (s *selector) summary() string {
	parts := make([]string, 0, len(s.attempts))
	for _, a := range s.attempts {
		parts = append(parts, fmt.Sprintf("%s (%v)", a.Model, a.Err))
	}
	return strings.Join(parts, "; ")
}
