// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Wiring from configuration to running components.

package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/jeranaias/goalbreak/internal/claude"
	"github.com/jeranaias/goalbreak/internal/config"
	"github.com/jeranaias/goalbreak/internal/decomposer"
	"github.com/jeranaias/goalbreak/internal/gemini"
	"github.com/jeranaias/goalbreak/internal/ollama"
	"github.com/jeranaias/goalbreak/internal/openrouter"
	"github.com/jeranaias/goalbreak/internal/prompt"
	"github.com/jeranaias/goalbreak/internal/provider"
	"github.com/jeranaias/goalbreak/internal/storage"
)

// ProviderFactory builds the model backend named in the configuration.
type ProviderFactory func(cfg *config.Config) (provider.Provider, error)

// NewProvider is the default ProviderFactory.
func NewProvider(cfg *config.Config) (provider.Provider, error) {
	pc := cfg.Provider
	switch pc.Name {
	case config.ProviderGemini:
		client, err := gemini.NewClient(gemini.Config{
			APIKey:  pc.APIKey,
			BaseURL: pc.BaseURL,
			Timeout: cfg.ProviderTimeout(),
		})
		if err != nil {
			return nil, err
		}
		return gemini.NewProvider(client), nil

	case config.ProviderOllama:
		client := ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:  pc.BaseURL,
			Timeout:  cfg.ProviderTimeout(),
			Options:  &ollama.Options{NumPredict: pc.MaxTokens},
			JSONMode: true,
		})
		return ollama.NewProvider(client), nil

	case config.ProviderClaude:
		p, err := claude.New(claude.Config{
			APIKey:    pc.APIKey,
			BaseURL:   pc.BaseURL,
			MaxTokens: int64(pc.MaxTokens),
		})
		if err != nil {
			return nil, err
		}
		return p, nil

	case config.ProviderOpenRouter:
		client, err := openrouter.NewClient(openrouter.Config{
			APIKey:    pc.APIKey,
			BaseURL:   pc.BaseURL,
			Timeout:   cfg.ProviderTimeout(),
			MaxTokens: pc.MaxTokens,
			SiteName:  "goalbreak",
		})
		if err != nil {
			return nil, err
		}
		return openrouter.NewProvider(client), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", pc.Name)
	}
}

// app is the set of components a command runs against.
type app struct {
	cfg        *config.Config
	store      *storage.Store
	provider   provider.Provider
	decomposer *decomposer.Decomposer
	prompt     *prompt.Template
}

// openStore connects to the configured database and applies the schema.
func openStore(ctx context.Context, cfg *config.Config) (*storage.Store, error) {
	sc := storage.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}
	if sc.Driver == config.DriverPostgres {
		sc.DSN = cfg.Database.URL
	}
	return storage.Open(ctx, sc)
}

// newApp builds the provider and decomposer, and opens the store when
// withStore is set.
func newApp(ctx context.Context, cfg *config.Config, factory ProviderFactory, withStore bool) (*app, error) {
	tmpl := prompt.Default()
	if cfg.Decomposer.PromptTemplate != "" {
		t, err := prompt.Load(cfg.Decomposer.PromptTemplate)
		if err != nil {
			return nil, &CommandError{Command: "startup", Reason: "could not load prompt template", Err: err}
		}
		tmpl = t
	}

	p, err := factory(cfg)
	if err != nil {
		return nil, &CommandError{Command: "startup", Reason: "could not create provider", Err: err}
	}

	a := &app{
		cfg:      cfg,
		provider: p,
		prompt:   tmpl,
		decomposer: decomposer.New(p, &decomposer.Config{
			PreferredModels: cfg.Decomposer.PreferredModels,
			Exclude:         decomposer.ExcludeSubstrings(cfg.Decomposer.Exclude...),
			RequiredMethod:  cfg.Decomposer.RequiredMethod,
			CacheModel:      cfg.Decomposer.CacheModel,
			Prompt:          tmpl,
		}),
	}

	if withStore {
		store, err := openStore(ctx, cfg)
		if err != nil {
			return nil, &CommandError{Command: "startup", Reason: "could not open database", Err: err}
		}
		a.store = store
	}

	log.Printf("APP_READY | provider=%s driver=%s prompt=%s", p.Name(), cfg.Database.Driver, promptSource(tmpl))
	return a, nil
}

// watchPrompt hot-reloads a file-backed prompt template until ctx ends.
func (a *app) watchPrompt(ctx context.Context) error {
	if !a.cfg.Decomposer.WatchPrompt || a.prompt.Path() == "" {
		return nil
	}

	w, err := prompt.NewWatcher(a.prompt, prompt.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("failed to watch prompt template: %w", err)
	}
	go w.Run(ctx)
	return nil
}

// Close releases the store, if one was opened.
func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func promptSource(t *prompt.Template) string {
	if t.Path() == "" {
		return "builtin"
	}
	return t.Path()
}
