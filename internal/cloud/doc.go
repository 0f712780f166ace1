// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the client for the external text-generation
// service that drafts relocation plans.
//
// The service is any OpenAI-compatible HTTPS JSON endpoint. Two endpoint
// styles are supported: chat completions (system and user messages) and
// responses (a single combined input).
//
// # Key Types
//
//   - Client: one-shot completion client with bearer auth
//   - Options: construction parameters, credentials injected once
//   - UpstreamError, TransportError: classified failures
//
// # Usage
//
//	client := cloud.NewClient(cloud.Options{APIKey: key, Model: "gpt-4o-mini"})
//	raw, err := client.Complete(ctx, prompt.Build(p, prompt.StrategyJSONSchema))
//
// # Security
//
// API keys are never logged; a short SHA-256 fingerprint is logged instead.
// Upstream error bodies are logged truncated and never returned to end users.
// Requests are sent exactly once. There is no retry.
package cloud
