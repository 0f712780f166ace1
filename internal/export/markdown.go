// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports plans as a Markdown task list.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a plan to Markdown.
func (e *MarkdownExporter) Export(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, errNilDocument
	}

	var sb strings.Builder

	if !doc.GeneratedAt.IsZero() {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(doc.Title())))
		sb.WriteString(fmt.Sprintf("anchor_date: %s\n", escapeYAML(doc.Profile.AnchorDate)))
		sb.WriteString(fmt.Sprintf("generated: %s\n", doc.GeneratedAt.Format(time.RFC3339)))
		sb.WriteString("generator: settlesmart\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(doc.Title())))
	sb.WriteString(fmt.Sprintf("- **Visa**: %s\n", doc.Profile.VisaLabel()))
	sb.WriteString(fmt.Sprintf("- **Anchor date**: %s\n", escapeMarkdown(doc.Profile.AnchorDate)))
	if e.options.IncludeProgress {
		pr := doc.Progress()
		sb.WriteString(fmt.Sprintf("- **Progress**: %d/%d tasks (%d%%)\n", pr.Done, pr.Total, pr.Percent))
	}
	sb.WriteString("\n")

	if len(doc.Plan.Weeks) == 0 {
		sb.WriteString("_No tasks in this plan._\n\n")
	}

	for _, w := range doc.Plan.Weeks {
		title := w.Title
		if title == "" {
			title = "Untitled week"
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdown(title)))
		for _, t := range w.Items {
			box := " "
			if doc.Completion.Done(t.ID) {
				box = "x"
			}
			line := fmt.Sprintf("- [%s] %s <sub>%s</sub>", box, escapeMarkdown(t.Label), offsetLabel(t.DaysOffset))
			if t.Category != "" {
				line += fmt.Sprintf(" `%s`", strings.ReplaceAll(t.Category, "`", ""))
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}

	if e.options.IncludeNotes && doc.Plan.CountryNotes != "" {
		sb.WriteString("## Country notes\n\n")
		sb.WriteString(doc.Plan.CountryNotes)
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown; charset=utf-8"
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return s
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
