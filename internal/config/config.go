// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/settlesmart/internal/cloud"
	"github.com/jeranaias/settlesmart/internal/prompt"
	"github.com/jeranaias/settlesmart/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete settlesmart configuration.
type Config struct {
	Server     ServerConfig     `toml:"server" json:"server"`
	Completion CompletionConfig `toml:"completion" json:"completion"`
	Logging    LoggingConfig    `toml:"logging" json:"logging"`
	Export     ExportConfig     `toml:"export" json:"export"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Addr             string   `toml:"addr" json:"addr"`
	AllowedOrigins   []string `toml:"allowed_origins" json:"allowed_origins"`
	TrustedProxies   []string `toml:"trusted_proxies" json:"trusted_proxies"`
	RateLimit        float64  `toml:"rate_limit" json:"rate_limit"` // requests per second per client, 0 disables
	RateBurst        int      `toml:"rate_burst" json:"rate_burst"`
	ReadTimeoutSecs  int      `toml:"read_timeout_secs" json:"read_timeout_secs"`
	WriteTimeoutSecs int      `toml:"write_timeout_secs" json:"write_timeout_secs"`
}

// CompletionConfig contains the text-generation service settings.
type CompletionConfig struct {
	APIKey      string  `toml:"api_key" json:"api_key"`
	BaseURL     string  `toml:"base_url" json:"base_url"`
	Model       string  `toml:"model" json:"model"`
	Endpoint    string  `toml:"endpoint" json:"endpoint"` // chat or responses
	Strategy    string  `toml:"strategy" json:"strategy"` // json_schema or json_object
	Temperature float64 `toml:"temperature" json:"temperature"`
	TimeoutSecs int     `toml:"timeout_secs" json:"timeout_secs"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level  string `toml:"level" json:"level"`   // debug, info, warn, error
	Format string `toml:"format" json:"format"` // json or console
}

// ExportConfig contains plan export settings.
type ExportConfig struct {
	Dir           string `toml:"dir" json:"dir"`
	DefaultFormat string `toml:"default_format" json:"default_format"`
}

// Timeout returns the completion timeout as a duration.
func (c CompletionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// HasAPIKey reports whether a completion API key is configured.
func (c CompletionConfig) HasAPIKey() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a configuration with the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:             "127.0.0.1:8080",
			AllowedOrigins:   []string{"http://localhost:3000"},
			RateLimit:        1,
			RateBurst:        5,
			ReadTimeoutSecs:  15,
			WriteTimeoutSecs: 90,
		},
		Completion: CompletionConfig{
			BaseURL:     cloud.DefaultBaseURL,
			Model:       cloud.DefaultModel,
			Endpoint:    string(cloud.EndpointChat),
			Strategy:    string(prompt.DefaultStrategy),
			Temperature: cloud.DefaultTemperature,
			TimeoutSecs: int(cloud.DefaultTimeout / time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Export: ExportConfig{
			Dir:           ".",
			DefaultFormat: "md",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the settlesmart configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".settlesmart"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ensureSecurePermissions tightens a config file to 0600.
// SECURITY: Config files may hold the completion API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load builds the process configuration. When path is empty, the TOML file
// in ConfigDir is tried first, then the JSON file, then built-in defaults.
// Environment overrides are applied last. A missing API key is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = discover()
	}
	if path != "" {
		var err error
		if strings.HasSuffix(path, ".json") {
			err = LoadJSON(cfg, path)
		} else {
			err = LoadTOML(cfg, path)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// discover returns the first existing default config file, or "".
func discover() string {
	for _, candidate := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		p, err := candidate()
		if err != nil {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadTOML decodes a TOML file over cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// SaveTOML writes cfg to path atomically with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf strings.Builder
	buf.WriteString("# settlesmart configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, []byte(buf.String()), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// DEFAULTS
// =============================================================================

// SetDefaults fills empty fields left by partial config files or overrides.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		c.Server.RateBurst = d.Server.RateBurst
	}
	if c.Server.ReadTimeoutSecs <= 0 {
		c.Server.ReadTimeoutSecs = d.Server.ReadTimeoutSecs
	}
	if c.Server.WriteTimeoutSecs <= 0 {
		c.Server.WriteTimeoutSecs = d.Server.WriteTimeoutSecs
	}

	c.Completion.APIKey = strings.TrimSpace(c.Completion.APIKey)
	if c.Completion.BaseURL == "" {
		c.Completion.BaseURL = d.Completion.BaseURL
	}
	c.Completion.BaseURL = strings.TrimSuffix(c.Completion.BaseURL, "/")
	if c.Completion.Model == "" {
		c.Completion.Model = d.Completion.Model
	}
	if c.Completion.Endpoint == "" {
		c.Completion.Endpoint = d.Completion.Endpoint
	}
	if c.Completion.Strategy == "" {
		c.Completion.Strategy = d.Completion.Strategy
	}
	if c.Completion.TimeoutSecs <= 0 {
		c.Completion.TimeoutSecs = d.Completion.TimeoutSecs
	}

	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}

	if c.Export.Dir == "" {
		c.Export.Dir = d.Export.Dir
	}
	if c.Export.DefaultFormat == "" {
		c.Export.DefaultFormat = d.Export.DefaultFormat
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - OPENAI_API_KEY: completion.api_key
//   - SETTLE_API_KEY: completion.api_key, wins over OPENAI_API_KEY
//   - SETTLE_BASE_URL: completion.base_url
//   - SETTLE_MODEL: completion.model
//   - SETTLE_ENDPOINT: completion.endpoint
//   - SETTLE_STRATEGY: completion.strategy
//   - SETTLE_TEMPERATURE: completion.temperature
//   - SETTLE_ADDR: server.addr
//   - SETTLE_LOG_LEVEL: logging.level
//   - SETTLE_LOG_FORMAT: logging.format
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Completion.APIKey = key
	}
	if key := os.Getenv("SETTLE_API_KEY"); key != "" {
		c.Completion.APIKey = key
	}
	if v := os.Getenv("SETTLE_BASE_URL"); v != "" {
		c.Completion.BaseURL = v
	}
	if v := os.Getenv("SETTLE_MODEL"); v != "" {
		c.Completion.Model = v
	}
	if v := os.Getenv("SETTLE_ENDPOINT"); v != "" {
		c.Completion.Endpoint = v
	}
	if v := os.Getenv("SETTLE_STRATEGY"); v != "" {
		c.Completion.Strategy = v
	}
	if v := os.Getenv("SETTLE_TEMPERATURE"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			c.Completion.Temperature = t
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignoring SETTLE_TEMPERATURE=%q: %v\n", v, err)
		}
	}
	if v := os.Getenv("SETTLE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SETTLE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SETTLE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// String returns the configuration as JSON with secrets redacted.
func (c *Config) String() string {
	safe := *c
	if safe.Completion.APIKey != "" {
		safe.Completion.APIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
