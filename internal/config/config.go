// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for loom.
//
// Configuration is TOML at ~/.loom/config.toml, with built-in defaults and
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete loom configuration.
type Config struct {
	// DefaultProvider selects the backend at startup: "ollama" or "responses".
	DefaultProvider string `toml:"default_provider"`

	// Options are the generation parameters sent with chat requests.
	Options OptionsConfig `toml:"options"`

	// Local configures the NDJSON (Ollama) backend.
	Local LocalConfig `toml:"local"`

	// Cloud configures the SSE (Responses) backend.
	Cloud CloudConfig `toml:"cloud"`

	// Telemetry configures the usage ledger.
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// OptionsConfig holds generation parameters.
type OptionsConfig struct {
	Temperature float64 `toml:"temperature"`
	TopP        float64 `toml:"top_p"`
	NumPredict  int     `toml:"num_predict"`
}

// LocalConfig configures the local backend.
type LocalConfig struct {
	// BaseURL is the server address.
	BaseURL string `toml:"base_url"`
	// Model is the default model id.
	Model string `toml:"model"`
	// ToolFormat overrides tool-format resolution: "chat" or "responses".
	ToolFormat string `toml:"tool_format"`
}

// CloudConfig configures the cloud backend.
type CloudConfig struct {
	// BaseURL is the API base address.
	BaseURL string `toml:"base_url"`
	// APIKey is the static bearer key, used directly or as the fallback
	// when TokenURL is set.
	APIKey string `toml:"api_key"`
	// TokenURL, when set, is fetched for a short-lived bearer token.
	TokenURL string `toml:"token_url"`
	// Model is the default model id.
	Model string `toml:"model"`
	// ToolFormat overrides tool-format resolution: "chat" or "responses".
	ToolFormat string `toml:"tool_format"`
}

// TelemetryConfig configures the usage ledger.
type TelemetryConfig struct {
	// Enabled turns usage recording on.
	Enabled bool `toml:"enabled"`
	// Path is the SQLite database file; empty selects ~/.loom/usage.db.
	Path string `toml:"path"`
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		DefaultProvider: "ollama",
		Options: OptionsConfig{
			Temperature: 0.7,
			TopP:        0.9,
		},
		Local: LocalConfig{
			BaseURL: "http://localhost:11434",
			Model:   "llama3.1:8b",
		},
		Cloud: CloudConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the loom configuration directory (~/.loom).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".loom"), nil
}

// ConfigPath returns the path of the TOML configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the configuration directory if needed.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// =============================================================================
// LOADING AND SAVING
// =============================================================================

// Load reads the configuration file, fills defaults, applies environment
// overrides, and validates. A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with owner-only
// permissions since it may contain an API key.
func SaveTOML(cfg *Config, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// fillDefaults replaces zero-value fields with built-in defaults so a
// partial file still yields a complete configuration.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.DefaultProvider == "" {
		c.DefaultProvider = defaults.DefaultProvider
	}
	if c.Local.BaseURL == "" {
		c.Local.BaseURL = defaults.Local.BaseURL
	}
	if c.Local.Model == "" {
		c.Local.Model = defaults.Local.Model
	}
	if c.Cloud.BaseURL == "" {
		c.Cloud.BaseURL = defaults.Cloud.BaseURL
	}
	if c.Cloud.Model == "" {
		c.Cloud.Model = defaults.Cloud.Model
	}
	if c.Options.Temperature == 0 {
		c.Options.Temperature = defaults.Options.Temperature
	}
	if c.Options.TopP == 0 {
		c.Options.TopP = defaults.Options.TopP
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variables on top of file values.
// Environment wins over the file; flags (applied by the caller) win over
// both.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LOOM_PROVIDER"); v != "" {
		c.DefaultProvider = v
	}
	if v := os.Getenv("LOOM_OLLAMA_URL"); v != "" {
		c.Local.BaseURL = v
	}
	if v := os.Getenv("LOOM_MODEL"); v != "" {
		c.Local.Model = v
	}
	if v := os.Getenv("LOOM_CLOUD_URL"); v != "" {
		c.Cloud.BaseURL = v
	}
	if v := os.Getenv("LOOM_API_KEY"); v != "" {
		c.Cloud.APIKey = v
	}
	if v := os.Getenv("LOOM_TOKEN_URL"); v != "" {
		c.Cloud.TokenURL = v
	}
	if v := os.Getenv("LOOM_CLOUD_MODEL"); v != "" {
		c.Cloud.Model = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.DefaultProvider {
	case "ollama", "responses":
	default:
		return ValidationError{Field: "default_provider", Message: fmt.Sprintf("unknown provider %q", c.DefaultProvider)}
	}

	if err := validateURL("local.base_url", c.Local.BaseURL); err != nil {
		return err
	}
	if err := validateURL("cloud.base_url", c.Cloud.BaseURL); err != nil {
		return err
	}
	if c.Cloud.TokenURL != "" {
		if err := validateURL("cloud.token_url", c.Cloud.TokenURL); err != nil {
			return err
		}
	}

	if err := validateToolFormat("local.tool_format", c.Local.ToolFormat); err != nil {
		return err
	}
	if err := validateToolFormat("cloud.tool_format", c.Cloud.ToolFormat); err != nil {
		return err
	}

	if c.Options.Temperature < 0 || c.Options.Temperature > 2 {
		return ValidationError{Field: "options.temperature", Message: "must be between 0 and 2"}
	}
	if c.Options.TopP < 0 || c.Options.TopP > 1 {
		return ValidationError{Field: "options.top_p", Message: "must be between 0 and 1"}
	}
	return nil
}

// validateURL checks that value is an absolute http(s) URL.
func validateURL(field, value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Host == "" {
		return ValidationError{Field: field, Message: fmt.Sprintf("invalid URL %q", value)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidationError{Field: field, Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	return nil
}

// validateToolFormat checks a tool-format override value. Empty means no
// override.
func validateToolFormat(field, value string) error {
	switch strings.ToLower(value) {
	case "", "chat", "responses":
		return nil
	default:
		return ValidationError{Field: field, Message: fmt.Sprintf("unknown tool format %q", value)}
	}
}
