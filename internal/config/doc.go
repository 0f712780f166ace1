// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for settlesmart.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation. Configuration is loaded
// once at process start and passed explicitly to the components that need
// it; it is never mutated afterwards.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - CompletionConfig: completion service credentials and tuning
//   - ServerConfig: HTTP listener, CORS and rate limiting
//   - ValidateErrors: every problem found by Validate
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (OPENAI_API_KEY, SETTLE_*)
//   - --config FILE, or ~/.settlesmart/config.toml, or ~/.settlesmart/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	client := cloud.NewClient(cloud.Options{APIKey: cfg.Completion.APIKey})
package config
