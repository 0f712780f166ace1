// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
)

// TextExporter exports plans as plain text. The full form lists day
// offsets under an anchor date line; the compact form is a bulleted list
// suited to pasting into a message.
type TextExporter struct {
	options *Options
}

// NewTextExporter creates a new text exporter.
func NewTextExporter(opts *Options) *TextExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &TextExporter{options: opts}
}

// Export renders the plan as text.
func (e *TextExporter) Export(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, errNilDocument
	}

	lines := []string{doc.Title()}
	if !e.options.Compact {
		lines = append(lines, "Anchor date: "+doc.Profile.AnchorDate)
	}
	lines = append(lines, "")

	for _, w := range doc.Plan.Weeks {
		lines = append(lines, w.Title)
		for _, t := range w.Items {
			if e.options.Compact {
				lines = append(lines, "• "+t.Label)
			} else {
				lines = append(lines, fmt.Sprintf("- %s (%s)", t.Label, offsetLabel(t.DaysOffset)))
			}
		}
		lines = append(lines, "")
	}

	if e.options.IncludeNotes && !e.options.Compact && doc.Plan.CountryNotes != "" {
		lines = append(lines, "Country notes:", doc.Plan.CountryNotes, "")
	}

	return []byte(strings.Join(lines, "\n")), nil
}

// FileExtension returns the file extension for text.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for text.
func (e *TextExporter) MimeType() string {
	return "text/plain; charset=utf-8"
}
