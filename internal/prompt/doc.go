// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt builds the instructions sent to the completion service.
//
// # Key Types
//
//   - Request: system and user instructions plus the output contract
//   - Strategy: json_schema (formal schema) or json_object (prose shape)
//   - SchemaDescription: the named RelocationPlan schema
//
// # Usage
//
//	req := prompt.Build(p, prompt.StrategyJSONSchema)
//	raw, err := client.Complete(ctx, req)
//
// Building is deterministic and has no side effects, so requests can be
// compared directly in tests.
package prompt
