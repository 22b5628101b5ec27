// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and validation for goalbreak.
//
// Configuration sources (later wins):
//   - Built-in defaults
//   - ~/.goalbreak/config.toml (or an explicit --config path)
//   - Environment variables, including those loaded from .env
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/goalbreak/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete goalbreak configuration.
type Config struct {
	Server     ServerConfig     `toml:"server" json:"server"`
	Database   DatabaseConfig   `toml:"database" json:"database"`
	Provider   ProviderConfig   `toml:"provider" json:"provider"`
	Decomposer DecomposerConfig `toml:"decomposer" json:"decomposer"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address (default: 127.0.0.1:8000)
	Addr string `toml:"addr" json:"addr"`

	// AllowedOrigins for CORS (default: http://localhost:3000)
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`

	// AuthToken enables bearer authentication on /api routes when set
	AuthToken string `toml:"auth_token" json:"auth_token"`

	// RateLimit is requests per second per client IP; negative disables it
	RateLimit float64 `toml:"rate_limit" json:"rate_limit"`

	// RateBurst is the bucket size for RateLimit
	RateBurst int `toml:"rate_burst" json:"rate_burst"`

	// RequestTimeoutSecs bounds a single decomposition request
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`

	// MaxBodyBytes caps request bodies
	MaxBodyBytes int64 `toml:"max_body_bytes" json:"max_body_bytes"`

	// MaxGoalLength caps goal text, in characters
	MaxGoalLength int `toml:"max_goal_length" json:"max_goal_length"`

	// TrustedProxies may set X-Forwarded-For / X-Real-IP
	TrustedProxies []string `toml:"trusted_proxies" json:"trusted_proxies"`
}

// DatabaseConfig selects the goal store.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "postgres"
	Driver string `toml:"driver" json:"driver"`

	// Path is the SQLite database file (default: ~/.goalbreak/goals.db)
	Path string `toml:"path" json:"path"`

	// URL is the PostgreSQL connection string
	URL string `toml:"url" json:"url"`

	// MaxOpenConns for PostgreSQL
	MaxOpenConns int `toml:"max_open_conns" json:"max_open_conns"`
}

// ProviderConfig selects and authenticates the model backend.
type ProviderConfig struct {
	// Name is "gemini" (default), "ollama", "claude" or "openrouter"
	Name string `toml:"name" json:"name"`

	// APIKey for gemini, claude and openrouter
	APIKey string `toml:"api_key" json:"api_key"`

	// BaseURL overrides the backend endpoint
	BaseURL string `toml:"base_url" json:"base_url"`

	// TimeoutSecs bounds each HTTP call to the backend
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// MaxTokens bounds generated output where the backend requires it
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`
}

// DecomposerConfig tunes model selection and prompting.
type DecomposerConfig struct {
	// PreferredModels are matched in order by case-insensitive substring
	PreferredModels []string `toml:"preferred_models" json:"preferred_models"`

	// Exclude lists substrings that disqualify a model in the preferred and
	// available tiers. Omit for the provider default; set [] for none.
	Exclude []string `toml:"exclude" json:"exclude"`

	// RequiredMethod a model must support (default: generateContent)
	RequiredMethod string `toml:"required_method" json:"required_method"`

	// CacheModel keeps the selected model handle between requests
	CacheModel bool `toml:"cache_model" json:"cache_model"`

	// PromptTemplate is an optional text/template file receiving {{.Goal}}
	PromptTemplate string `toml:"prompt_template" json:"prompt_template"`

	// WatchPrompt hot-reloads PromptTemplate when it changes on disk
	WatchPrompt bool `toml:"watch_prompt" json:"watch_prompt"`
}

// Provider names.
const (
	ProviderGemini     = "gemini"
	ProviderOllama     = "ollama"
	ProviderClaude     = "claude"
	ProviderOpenRouter = "openrouter"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultPreferredModels returns the preference list for a provider.
func DefaultPreferredModels(provider string) []string {
	switch provider {
	case ProviderOllama:
		return []string{"llama3.2", "llama3.1", "mistral", "qwen2.5"}
	case ProviderClaude:
		return []string{"claude-sonnet-4", "claude-3-7-sonnet", "claude-3-5-haiku"}
	case ProviderOpenRouter:
		return []string{"google/gemini-flash-1.5", "anthropic/claude-3.5-haiku", "meta-llama/llama-3.1-8b-instruct"}
	default:
		return []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-pro"}
	}
}

// DefaultExclude returns the exclusion substrings for a provider. Gemini
// excludes experimental and 2.5-series models; the others exclude only
// experimental ones, since "2.5" is a legitimate local model version.
func DefaultExclude(provider string) []string {
	if provider == ProviderGemini || provider == "" {
		return []string{"exp", "2.5"}
	}
	return []string{"exp"}
}

// DefaultBaseURL returns the endpoint for a provider, or "" when its SDK
// supplies one.
func DefaultBaseURL(provider string) string {
	switch provider {
	case ProviderOllama:
		return "http://127.0.0.1:11434"
	case ProviderGemini:
		return "https://generativelanguage.googleapis.com"
	case ProviderOpenRouter:
		return "https://openrouter.ai/api/v1"
	default:
		return ""
	}
}

// Default returns the default configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every zero value with its default. Provider-dependent
// defaults follow Provider.Name, so call this after env overrides.
func (c *Config) SetDefaults() {
	// Server
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8000"
	}
	if c.Server.AllowedOrigins == nil {
		c.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 5
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = 20
	}
	if c.Server.RequestTimeoutSecs == 0 {
		c.Server.RequestTimeoutSecs = 60
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 64 * 1024
	}
	if c.Server.MaxGoalLength == 0 {
		c.Server.MaxGoalLength = 2000
	}

	// Database
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		if dir, err := Dir(); err == nil {
			c.Database.Path = filepath.Join(dir, "goals.db")
		} else {
			c.Database.Path = "goals.db"
		}
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}

	// Provider
	if c.Provider.Name == "" {
		c.Provider.Name = ProviderGemini
	}
	c.Provider.Name = strings.ToLower(c.Provider.Name)
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = DefaultBaseURL(c.Provider.Name)
	}
	if c.Provider.TimeoutSecs == 0 {
		c.Provider.TimeoutSecs = 120
	}
	if c.Provider.MaxTokens == 0 {
		c.Provider.MaxTokens = 2048
	}

	// Decomposer
	if len(c.Decomposer.PreferredModels) == 0 {
		c.Decomposer.PreferredModels = DefaultPreferredModels(c.Provider.Name)
	}
	if c.Decomposer.Exclude == nil {
		c.Decomposer.Exclude = DefaultExclude(c.Provider.Name)
	}
	if c.Decomposer.RequiredMethod == "" {
		c.Decomposer.RequiredMethod = "generateContent"
	}
}

// RequestTimeout returns Server.RequestTimeoutSecs as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSecs) * time.Second
}

// ProviderTimeout returns Provider.TimeoutSecs as a duration.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the goalbreak configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".goalbreak"), nil
}

// DefaultPath returns the path to the default TOML config file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// HistoryPath returns the path of the interactive shell history file.
func HistoryPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads KEY=VALUE pairs from the given files (default: .env in
// the working directory) into the process environment. Variables already
// set are not overwritten, and missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
		log.Printf("CONFIG_DOTENV | path=%s", p)
	}
	return nil
}

// Load reads configuration from path, or from DefaultPath when path is
// empty. A missing default file yields the defaults; a missing explicit
// file is an error. Environment overrides, defaults and validation are
// applied in that order.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Read is Load without validation.
func Read(path string) (*Config, error) {
	cfg := &Config{}

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg. Unknown keys are logged rather
// than rejected so older binaries tolerate newer files.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	for _, key := range md.Undecoded() {
		log.Printf("CONFIG_UNKNOWN_KEY | path=%s key=%s", path, key.String())
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes cfg to path atomically with 0600 permissions, since the
// file may hold an API key.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# goalbreak configuration file\n")
	buf.WriteString("# Environment variables override these values; see `goalbreak --help`.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - GOALBREAK_PROVIDER: overrides provider.name
//   - GEMINI_API_KEY / ANTHROPIC_API_KEY / OPENROUTER_API_KEY: provider.api_key
//     for that provider
//   - GOALBREAK_API_KEY: provider.api_key for any provider (wins)
//   - GOALBREAK_PROVIDER_URL: overrides provider.base_url
//   - GOALBREAK_ADDR: overrides server.addr
//   - GOALBREAK_AUTH_TOKEN: overrides server.auth_token
//   - GOALBREAK_CORS_ORIGINS: comma-separated server.allowed_origins
//   - GOALBREAK_DB_DRIVER: overrides database.driver
//   - GOALBREAK_DATABASE_URL: postgres:// URLs select PostgreSQL, anything
//     else is a SQLite path
func (c *Config) ApplyEnvOverrides() {
	if name := os.Getenv("GOALBREAK_PROVIDER"); name != "" {
		c.Provider.Name = strings.ToLower(name)
	}

	provider := c.Provider.Name
	if provider == "" {
		provider = ProviderGemini
	}
	switch provider {
	case ProviderGemini:
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			c.Provider.APIKey = key
		}
	case ProviderClaude:
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			c.Provider.APIKey = key
		}
	case ProviderOpenRouter:
		if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
			c.Provider.APIKey = key
		}
	}
	if key := os.Getenv("GOALBREAK_API_KEY"); key != "" {
		c.Provider.APIKey = key
	}

	if u := os.Getenv("GOALBREAK_PROVIDER_URL"); u != "" {
		c.Provider.BaseURL = u
	}
	if addr := os.Getenv("GOALBREAK_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if token := os.Getenv("GOALBREAK_AUTH_TOKEN"); token != "" {
		c.Server.AuthToken = token
	}
	if origins := os.Getenv("GOALBREAK_CORS_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}

	if driver := os.Getenv("GOALBREAK_DB_DRIVER"); driver != "" {
		c.Database.Driver = strings.ToLower(driver)
	}
	if dsn := os.Getenv("GOALBREAK_DATABASE_URL"); dsn != "" {
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			c.Database.Driver = DriverPostgres
			c.Database.URL = dsn
		} else {
			c.Database.Path = dsn
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether any error concerns field.
func (e ValidateErrors) Has(field string) bool {
	return slices.ContainsFunc(e, func(v ValidationError) bool { return v.Field == field })
}

// Without returns the errors whose field does not start with prefix.
func (e ValidateErrors) Without(prefix string) ValidateErrors {
	var rest ValidateErrors
	for _, v := range e {
		if !strings.HasPrefix(v.Field, prefix) {
			rest = append(rest, v)
		}
	}
	return rest
}

// Validate validates the configuration and returns ValidateErrors listing
// every problem, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Provider
	switch c.Provider.Name {
	case ProviderGemini, ProviderClaude, ProviderOpenRouter:
		if strings.TrimSpace(c.Provider.APIKey) == "" {
			env := "GEMINI_API_KEY"
			switch c.Provider.Name {
			case ProviderClaude:
				env = "ANTHROPIC_API_KEY"
			case ProviderOpenRouter:
				env = "OPENROUTER_API_KEY"
			}
			add("provider.api_key", "an API key is required for %s (set %s)", c.Provider.Name, env)
		}
	case ProviderOllama:
	default:
		add("provider.name", "invalid provider '%s', must be one of: gemini, ollama, claude, openrouter", c.Provider.Name)
	}
	if c.Provider.BaseURL != "" {
		if u, err := url.Parse(c.Provider.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("provider.base_url", "must be an http or https URL, got '%s'", c.Provider.BaseURL)
		}
	}
	if c.Provider.TimeoutSecs < 0 {
		add("provider.timeout_secs", "must not be negative")
	}
	if c.Provider.MaxTokens < 0 {
		add("provider.max_tokens", "must not be negative")
	}

	// Database
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			add("database.path", "is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			add("database.url", "is required for postgres (set GOALBREAK_DATABASE_URL)")
		}
	default:
		add("database.driver", "invalid driver '%s', must be one of: sqlite, postgres", c.Database.Driver)
	}

	// Server
	if c.Server.Addr == "" {
		add("server.addr", "must not be empty")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		add("server.rate_burst", "must be at least 1 when rate limiting is enabled")
	}
	if c.Server.RequestTimeoutSecs < 0 {
		add("server.request_timeout_secs", "must not be negative")
	}
	if c.Server.MaxBodyBytes < 0 {
		add("server.max_body_bytes", "must not be negative")
	}
	if c.Server.MaxGoalLength < 0 {
		add("server.max_goal_length", "must not be negative")
	}
	for _, origin := range c.Server.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			add("server.allowed_origins", "invalid origin '%s'", origin)
		}
	}

	// Decomposer
	if c.Decomposer.RequiredMethod == "" {
		add("decomposer.required_method", "must not be empty")
	}
	for _, m := range c.Decomposer.PreferredModels {
		if strings.TrimSpace(m) == "" {
			add("decomposer.preferred_models", "entries must not be blank")
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Server.AllowedOrigins = slices.Clone(c.Server.AllowedOrigins)
	clone.Server.TrustedProxies = slices.Clone(c.Server.TrustedProxies)
	clone.Decomposer.PreferredModels = slices.Clone(c.Decomposer.PreferredModels)
	clone.Decomposer.Exclude = slices.Clone(c.Decomposer.Exclude)
	return &clone
}

// String returns the configuration as JSON with secrets redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Provider.APIKey != "" {
		safe.Provider.APIKey = "[REDACTED]"
	}
	if safe.Server.AuthToken != "" {
		safe.Server.AuthToken = "[REDACTED]"
	}
	if safe.Database.URL != "" {
		if u, err := url.Parse(safe.Database.URL); err == nil && u.User != nil {
			u.User = url.UserPassword(u.User.Username(), "REDACTED")
			safe.Database.URL = u.String()
		}
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
