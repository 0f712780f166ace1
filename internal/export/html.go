// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/settlesmart/internal/plan"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports plans to a standalone HTML page with embedded CSS.
// Checkboxes are rendered read-only.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a plan to HTML.
func (e *HTMLExporter) Export(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, errNilDocument
	}

	theme := e.options.Theme
	if theme != "dark" {
		theme = "light"
	}

	var sb strings.Builder
	title := html.EscapeString(doc.Title())

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", title))
	sb.WriteString("    <meta name=\"generator\" content=\"settlesmart\">\n")
	if !doc.GeneratedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", doc.GeneratedAt.Format(time.RFC3339)))
	}
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString("    <div class=\"container\">\n")

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", title))
	sb.WriteString(fmt.Sprintf("            <p class=\"meta\">Anchor date: %s &middot; %s</p>\n",
		html.EscapeString(doc.Profile.AnchorDate), html.EscapeString(doc.Profile.VisaLabel())))
	if e.options.IncludeProgress {
		pr := doc.Progress()
		sb.WriteString(fmt.Sprintf("            <div class=\"progress\"><div class=\"bar\" style=\"width: %d%%\"></div></div>\n", pr.Percent))
		sb.WriteString(fmt.Sprintf("            <p class=\"meta\">%d of %d tasks done (%d%%)</p>\n", pr.Done, pr.Total, pr.Percent))
	}
	sb.WriteString("        </header>\n")

	sb.WriteString("        <main>\n")
	for _, w := range doc.Plan.Weeks {
		sb.WriteString(e.renderWeek(doc, w.Title, w.Items))
	}
	sb.WriteString("        </main>\n")

	if e.options.IncludeNotes && doc.Plan.CountryNotes != "" {
		sb.WriteString("        <section class=\"notes\">\n")
		sb.WriteString("            <h2>Country notes</h2>\n")
		sb.WriteString(fmt.Sprintf("            <p>%s</p>\n", html.EscapeString(doc.Plan.CountryNotes)))
		sb.WriteString("        </section>\n")
	}

	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

func (e *HTMLExporter) renderWeek(doc *Document, title string, items []plan.Task) string {
	var sb strings.Builder
	sb.WriteString("            <section class=\"week\">\n")
	sb.WriteString(fmt.Sprintf("                <h2>%s</h2>\n", html.EscapeString(title)))
	sb.WriteString("                <ul>\n")
	for _, t := range items {
		checked := ""
		if doc.Completion.Done(t.ID) {
			checked = " checked"
		}
		sb.WriteString(fmt.Sprintf(
			"                    <li><input type=\"checkbox\" id=\"%s\" disabled%s> <label for=\"%s\">%s</label> <span class=\"offset\">%s</span></li>\n",
			html.EscapeString(t.ID), checked, html.EscapeString(t.ID),
			html.EscapeString(t.Label), offsetLabel(t.DaysOffset)))
	}
	sb.WriteString("                </ul>\n")
	sb.WriteString("            </section>\n")
	return sb.String()
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html; charset=utf-8"
}

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        .light-theme {
            --bg-primary: #f0fdf4;
            --bg-secondary: #ffffff;
            --text-primary: #0f172a;
            --text-muted: #64748b;
            --border-color: #e2e8f0;
            --accent: #059669;
        }

        .dark-theme {
            --bg-primary: #0f172a;
            --bg-secondary: #1e293b;
            --text-primary: #e2e8f0;
            --text-muted: #94a3b8;
            --border-color: #334155;
            --accent: #34d399;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif;
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 800px;
            margin: 0 auto;
            background: var(--bg-secondary);
            border: 1px solid var(--border-color);
            border-radius: 12px;
            padding: 32px;
        }

        h1 { font-size: 24px; margin-bottom: 8px; }
        h2 { font-size: 18px; margin: 24px 0 8px; }
        .meta { color: var(--text-muted); font-size: 14px; }
        .progress { height: 8px; background: var(--border-color); border-radius: 4px; margin: 12px 0 4px; }
        .progress .bar { height: 100%; background: var(--accent); border-radius: 4px; }
        ul { list-style: none; }
        li { padding: 6px 0; border-bottom: 1px solid var(--border-color); }
        .offset { color: var(--text-muted); font-size: 12px; }
        .notes p { white-space: pre-wrap; }
    </style>
`
