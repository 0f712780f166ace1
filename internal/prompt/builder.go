// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"fmt"
	"strings"

	"github.com/jeranaias/settlesmart/internal/profile"
)

// =============================================================================
// OUTPUT CONTRACT STRATEGIES
// =============================================================================

// Strategy selects how the structured-output contract is expressed to the
// completion service.
type Strategy string

const (
	// StrategyJSONSchema attaches a formal JSON schema. Preferred.
	StrategyJSONSchema Strategy = "json_schema"

	// StrategyJSONObject asks for a bare JSON object and describes the shape
	// in prose.
	StrategyJSONObject Strategy = "json_object"
)

// DefaultStrategy is the strategy used when none is configured.
const DefaultStrategy = StrategyJSONSchema

// ParseStrategy parses a configured strategy name. Empty selects the default.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultStrategy, nil
	case StrategyJSONSchema:
		return StrategyJSONSchema, nil
	case StrategyJSONObject:
		return StrategyJSONObject, nil
	}
	return "", fmt.Errorf("unknown output strategy %q (want %s or %s)", s, StrategyJSONSchema, StrategyJSONObject)
}

// =============================================================================
// REQUEST
// =============================================================================

// Request is the fully built instruction for one plan generation.
// It is immutable once returned by Build.
type Request struct {
	Strategy Strategy
	System   string
	User     string

	// Schema is set only for StrategyJSONSchema.
	Schema *SchemaDescription
}

// Combined returns the system and user instructions as a single input, for
// endpoints that accept one instruction string.
func (r Request) Combined() string {
	return r.System + "\n\n" + r.User
}

// Build produces the instruction set for a validated profile. It is pure:
// identical inputs always yield identical requests.
func Build(p profile.Profile, s Strategy) Request {
	if s != StrategyJSONObject {
		s = StrategyJSONSchema
	}

	req := Request{
		Strategy: s,
		System:   systemPrompt(s),
		User:     userPrompt(p),
	}
	if s == StrategyJSONSchema {
		schema := RelocationPlanSchema()
		req.Schema = &schema
	}
	return req
}

func systemPrompt(s Strategy) string {
	var b strings.Builder
	b.WriteString("You are an immigration and relocation onboarding assistant.\n")
	b.WriteString("You create practical 4 week checklists for newcomers that cover:\n\n")
	for _, c := range Categories {
		fmt.Fprintf(&b, "- %s (category: %q)\n", c.Title, c.Key)
	}
	b.WriteString("\nReturn JSON only. No prose, no markdown, no extra text.\n")

	if s == StrategyJSONObject {
		b.WriteString(`JSON shape:
{
  "weeks": [
    { "title": "Week 1", "items": [ { "label": "...", "daysOffset": 0, "category": "phone" } ] }
  ],
  "countryNotes": "short practical tips for this corridor"
}`)
	} else {
		fmt.Fprintf(&b, "The response must match the %s schema.", SchemaName)
	}
	return b.String()
}

func userPrompt(p profile.Profile) string {
	return fmt.Sprintf(`Phase: %s
From: %s
To: %s
Visa type: %s
Anchor date: %s

Create a 4 week plan aligned to their first 30-60 days (%s depending on phase).
Use sensible daysOffset (0-30) relative to the anchor date. Tasks must be clear and atomic.
Add a short countryNotes paragraph with practical tips for the destination.`,
		p.Phase,
		orUnspecified(p.Origin),
		orUnspecified(p.Destination),
		p.VisaType,
		orUnspecified(p.AnchorDate),
		phaseHint(p.Phase),
	)
}

func phaseHint(ph profile.Phase) string {
	if ph == profile.PhaseBefore {
		return "leading up to arrival"
	}
	return "after arrival"
}

func orUnspecified(s string) string {
	if s == "" {
		return "unspecified"
	}
	return s
}
