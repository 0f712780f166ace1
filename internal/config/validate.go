// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jeranaias/settlesmart/internal/cloud"
	"github.com/jeranaias/settlesmart/internal/prompt"
)

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
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validLogLevels     = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats    = map[string]bool{"json": true, "console": true}
	validExportFormats = map[string]bool{"txt": true, "md": true, "json": true, "html": true}
)

// Validate checks the configuration and returns every problem found as
// ValidateErrors. An empty API key is allowed.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Server
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, ValidationError{Field: "server.addr", Message: "must not be empty"})
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "server.rate_limit", Message: "must be >= 0"})
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		errs = append(errs, ValidationError{Field: "server.rate_burst", Message: "must be >= 1 when rate limiting is enabled"})
	}
	for _, origin := range c.Server.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "server.allowed_origins",
				Message: fmt.Sprintf("invalid origin '%s'", origin),
			})
		}
	}

	// Completion
	if u, err := url.Parse(c.Completion.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "completion.base_url",
			Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[/path]", c.Completion.BaseURL),
		})
	}
	if strings.TrimSpace(c.Completion.Model) == "" {
		errs = append(errs, ValidationError{Field: "completion.model", Message: "must not be empty"})
	}
	if _, err := cloud.ParseEndpoint(c.Completion.Endpoint); err != nil {
		errs = append(errs, ValidationError{Field: "completion.endpoint", Message: err.Error()})
	}
	if _, err := prompt.ParseStrategy(c.Completion.Strategy); err != nil {
		errs = append(errs, ValidationError{Field: "completion.strategy", Message: err.Error()})
	}
	if c.Completion.Temperature < 0 || c.Completion.Temperature > 1 {
		errs = append(errs, ValidationError{
			Field:   "completion.temperature",
			Message: fmt.Sprintf("%.2f out of range [0, 1]", c.Completion.Temperature),
		})
	}
	if c.Completion.TimeoutSecs < 1 || c.Completion.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "completion.timeout_secs",
			Message: fmt.Sprintf("%d out of range [1, 600]", c.Completion.TimeoutSecs),
		})
	}

	// Logging
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format '%s', must be json or console", c.Logging.Format),
		})
	}

	// Export
	if !validExportFormats[strings.ToLower(c.Export.DefaultFormat)] {
		errs = append(errs, ValidationError{
			Field:   "export.default_format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: txt, md, json, html", c.Export.DefaultFormat),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
