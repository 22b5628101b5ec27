// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable ApplyEnvOverrides reads and points HOME at
// a temp dir so the developer's own config never leaks into a test.
func clearEnv(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		"GOALBREAK_PROVIDER", "GEMINI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "GOALBREAK_API_KEY",
		"GOALBREAK_PROVIDER_URL", "GOALBREAK_ADDR", "GOALBREAK_AUTH_TOKEN",
		"GOALBREAK_CORS_ORIGINS", "GOALBREAK_DB_DRIVER", "GOALBREAK_DATABASE_URL",
	} {
		t.Setenv(key, "")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	return home
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestDefault(t *testing.T) {
	clearEnv(t)
	cfg := Default()

	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 60, cfg.Server.RequestTimeoutSecs)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.True(t, strings.HasSuffix(cfg.Database.Path, filepath.Join(".goalbreak", "goals.db")))
	assert.Equal(t, ProviderGemini, cfg.Provider.Name)
	assert.Equal(t, []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-pro"}, cfg.Decomposer.PreferredModels)
	assert.Equal(t, []string{"exp", "2.5"}, cfg.Decomposer.Exclude)
	assert.Equal(t, "generateContent", cfg.Decomposer.RequiredMethod)
	assert.False(t, cfg.Decomposer.CacheModel)
}

func TestLoad_MissingAPIKeyIsFatal(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	require.Error(t, err)

	var verrs ValidateErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("provider.api_key"))
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestRead_SkipsValidation(t *testing.T) {
	clearEnv(t)

	cfg, err := Read("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Provider.APIKey)

	var verrs ValidateErrors
	require.ErrorAs(t, cfg.Validate(), &verrs)
	assert.True(t, verrs.Has("provider.api_key"))
	assert.Empty(t, verrs.Without("provider."))
}

func TestValidateErrors_Without(t *testing.T) {
	errs := ValidateErrors{
		{Field: "provider.api_key", Message: "required"},
		{Field: "database.url", Message: "required"},
		{Field: "provider.base_url", Message: "bad"},
	}

	rest := errs.Without("provider.")
	require.Len(t, rest, 1)
	assert.Equal(t, "database.url", rest[0].Field)
	assert.Len(t, errs, 3)
}

func TestLoad_DefaultsWithEnvKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.Provider.APIKey)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[server]
addr = ":9090"
allowed_origins = ["https://goals.example.com"]

[provider]
name = "ollama"

[decomposer]
preferred_models = ["mistral"]
exclude = []
cache_model = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://goals.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, ProviderOllama, cfg.Provider.Name)
	assert.Equal(t, "http://127.0.0.1:11434", cfg.Provider.BaseURL)
	assert.Equal(t, []string{"mistral"}, cfg.Decomposer.PreferredModels)
	assert.NotNil(t, cfg.Decomposer.Exclude)
	assert.Empty(t, cfg.Decomposer.Exclude, "explicit empty exclusion list must be kept")
	assert.True(t, cfg.Decomposer.CacheModel)
}

func TestLoad_ProviderDefaultsFollowName(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[provider]\nname = \"ollama\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferredModels(ProviderOllama), cfg.Decomposer.PreferredModels)
	assert.Equal(t, []string{"exp"}, cfg.Decomposer.Exclude)
}

func TestLoad_BadTOML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[server\naddr=")

	_, err := Load(path)
	assert.ErrorContains(t, err, "decode TOML")
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOALBREAK_PROVIDER", "Claude")
	t.Setenv("GEMINI_API_KEY", "ignored-for-claude")
	t.Setenv("ANTHROPIC_API_KEY", "a-key")
	t.Setenv("GOALBREAK_ADDR", ":7000")
	t.Setenv("GOALBREAK_CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("GOALBREAK_DATABASE_URL", "postgres://u:secret@db/goals")
	t.Setenv("GOALBREAK_AUTH_TOKEN", "tok")

	cfg := &Config{}
	cfg.ApplyEnvOverrides()

	assert.Equal(t, ProviderClaude, cfg.Provider.Name)
	assert.Equal(t, "a-key", cfg.Provider.APIKey)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://u:secret@db/goals", cfg.Database.URL)
	assert.Equal(t, "tok", cfg.Server.AuthToken)

	t.Setenv("GOALBREAK_API_KEY", "generic")
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "generic", cfg.Provider.APIKey)
}

func TestApplyEnvOverrides_SQLitePath(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOALBREAK_DATABASE_URL", "/var/lib/goalbreak/goals.db")

	cfg := &Config{}
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "/var/lib/goalbreak/goals.db", cfg.Database.Path)
	assert.Empty(t, cfg.Database.Driver)
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad provider", func(c *Config) { c.Provider.Name = "openai" }, "provider.name"},
		{"bad base url", func(c *Config) { c.Provider.BaseURL = "localhost:11434" }, "provider.base_url"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"postgres without url", func(c *Config) { c.Database.Driver = DriverPostgres }, "database.url"},
		{"bad origin", func(c *Config) { c.Server.AllowedOrigins = []string{"not a url"} }, "server.allowed_origins"},
		{"zero burst", func(c *Config) { c.Server.RateBurst = -1 }, "server.rate_burst"},
		{"blank preferred", func(c *Config) { c.Decomposer.PreferredModels = []string{"a", " "} }, "decomposer.preferred_models"},
		{"claude needs key", func(c *Config) { c.Provider.Name = ProviderClaude; c.Provider.APIKey = "" }, "provider.api_key"},
		{"openrouter needs key", func(c *Config) { c.Provider.Name = ProviderOpenRouter; c.Provider.APIKey = "" }, "provider.api_key"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Provider.APIKey = "k"
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var verrs ValidateErrors
			require.ErrorAs(t, err, &verrs)
			assert.True(t, verrs.Has(tc.field), "expected error on %s, got %v", tc.field, err)
		})
	}

	ok := Default()
	ok.Provider.APIKey = "k"
	assert.NoError(t, ok.Validate())

	ollama := &Config{Provider: ProviderConfig{Name: ProviderOllama}}
	ollama.SetDefaults()
	assert.NoError(t, ollama.Validate(), "ollama needs no API key")
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	cfg.Provider.APIKey = "k"
	cfg.Decomposer.CacheModel = true

	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server, loaded.Server)
	assert.Equal(t, cfg.Decomposer, loaded.Decomposer)
}

func TestString_RedactsSecrets(t *testing.T) {
	cfg := Default()
	cfg.Provider.APIKey = "super-secret-key"
	cfg.Server.AuthToken = "bearer-secret"
	cfg.Database.URL = "postgres://user:pw-secret@db/goals"

	out := cfg.String()
	assert.NotContains(t, out, "super-secret-key")
	assert.NotContains(t, out, "bearer-secret")
	assert.NotContains(t, out, "pw-secret")
	assert.Contains(t, out, "[REDACTED]")

	assert.Equal(t, "super-secret-key", cfg.Provider.APIKey, "String must not mutate the config")
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GOALBREAK_ADDR=:6060\nGEMINI_API_KEY=from-dotenv\n"), 0600))

	// Unset so godotenv may fill them; Setenv("") above would count as set.
	os.Unsetenv("GOALBREAK_ADDR")
	os.Unsetenv("GEMINI_API_KEY")
	t.Cleanup(func() {
		os.Unsetenv("GOALBREAK_ADDR")
		os.Unsetenv("GEMINI_API_KEY")
	})

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, ":6060", os.Getenv("GOALBREAK_ADDR"))
	assert.Equal(t, "from-dotenv", os.Getenv("GEMINI_API_KEY"))
}

func TestOpenRouterDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOALBREAK_PROVIDER", "openrouter")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenRouter, cfg.Provider.Name)
	assert.Equal(t, "sk-or-key", cfg.Provider.APIKey)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.Provider.BaseURL)
	assert.Equal(t, DefaultPreferredModels(ProviderOpenRouter), cfg.Decomposer.PreferredModels)
	assert.Equal(t, []string{"exp"}, cfg.Decomposer.Exclude)
}
