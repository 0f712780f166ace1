// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

// Category is one of the onboarding areas every plan must cover.
type Category struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Categories lists the required onboarding areas in prompt order.
var Categories = []Category{
	{Key: "phone", Title: "Phone/SIM and 2FA"},
	{Key: "banking", Title: "Banking and payments"},
	{Key: "housing", Title: "Housing and address proof"},
	{Key: "id", Title: "Local IDs (SSN, SIN, national ID, etc.) where applicable"},
	{Key: "health", Title: "Health insurance and care"},
	{Key: "onboarding", Title: "School/university or employer onboarding if relevant"},
	{Key: "taxes", Title: "Taxes and basic legal registrations"},
}

// SchemaName is the name the schema is registered under with the service.
const SchemaName = "RelocationPlan"

// SchemaDescription is a named JSON schema as accepted by structured-output
// endpoints.
type SchemaDescription struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// RelocationPlanSchema returns a fresh copy of the plan schema. Callers may
// mutate the result.
func RelocationPlanSchema() SchemaDescription {
	task := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"label":      map[string]any{"type": "string"},
			"daysOffset": map[string]any{"type": "number"},
			"category":   map[string]any{"type": "string", "enum": categoryKeys()},
		},
		"required": []any{"label", "daysOffset"},
	}
	week := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"items": map[string]any{"type": "array", "items": task},
		},
		"required": []any{"title", "items"},
	}

	return SchemaDescription{
		Name: SchemaName,
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"weeks":        map[string]any{"type": "array", "items": week},
				"countryNotes": map[string]any{"type": "string"},
			},
			"required": []any{"weeks"},
		},
	}
}

func categoryKeys() []any {
	keys := make([]any, len(Categories))
	for i, c := range Categories {
		keys[i] = c.Key
	}
	return keys
}
