// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package plan holds the relocation plan model and the normalizer that turns
// raw completion text into a well-formed plan.
//
// # Key Types
//
//   - Plan: ordered weeks plus free-text country notes
//   - Week: a titled group of tasks
//   - Task: one atomic action with a synthetic ID and a day offset
//
// # Usage
//
//	p := plan.Normalize(raw)
//	if p.Degraded {
//	    log.Warn("completion output was unusable")
//	}
//
// # Normalization
//
// Normalize is total. Text that is not a JSON object with a "weeks" member
// produces an empty plan carrying DegradedNote. Everything else is coerced
// leniently: wrong-typed fields fall back to zero values and numeric strings
// are accepted for day offsets. Task IDs are derived from position
// ("w1-t2") so re-normalizing a plan yields the same IDs.
package plan
