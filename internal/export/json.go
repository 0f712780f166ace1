// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/settlesmart/internal/checklist"
	"github.com/jeranaias/settlesmart/internal/plan"
	"github.com/jeranaias/settlesmart/internal/profile"
)

// JSONExporter exports plans to JSON. The weeks and countryNotes members
// match the API response, so the output can be posted back unchanged.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonDocument struct {
	Weeks        []plan.Week         `json:"weeks"`
	CountryNotes string              `json:"countryNotes"`
	Profile      *profile.Profile    `json:"profile,omitempty"`
	Completed    []string            `json:"completed,omitempty"`
	Progress     *checklist.Progress `json:"progress,omitempty"`
	GeneratedAt  string              `json:"generatedAt,omitempty"`
}

// Export converts a plan to JSON.
func (e *JSONExporter) Export(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, errNilDocument
	}

	out := jsonDocument{
		Weeks:        doc.Plan.Weeks,
		CountryNotes: doc.Plan.CountryNotes,
	}
	if out.Weeks == nil {
		out.Weeks = []plan.Week{}
	}
	if doc.Profile.Phase != "" {
		prof := doc.Profile
		out.Profile = &prof
	}
	if e.options.IncludeProgress {
		pr := doc.Progress()
		out.Progress = &pr
		out.Completed = doc.Completion.DoneIDs(doc.Plan)
	}
	if !doc.GeneratedAt.IsZero() {
		out.GeneratedAt = doc.GeneratedAt.UTC().Format(time.RFC3339)
	}

	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
