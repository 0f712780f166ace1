// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/settlesmart/internal/checklist"
	"github.com/jeranaias/settlesmart/internal/plan"
	"github.com/jeranaias/settlesmart/internal/profile"
)

func testDocument() *Document {
	return &Document{
		Plan: plan.Normalize(`{"weeks":[
			{"title":"Week 1","items":[{"label":"Buy SIM","daysOffset":0},{"label":"Bank <account>","daysOffset":2}]},
			{"title":"Week 2","items":[{"label":"Register address","daysOffset":9}]}
		],"countryNotes":"Carry your passport & permit."}`),
		Profile: profile.Profile{
			Phase:       profile.PhaseBefore,
			Origin:      "Brazil",
			Destination: "Germany",
			VisaType:    profile.VisaWork,
			AnchorDate:  "2025-04-01",
		},
		Completion: checklist.NewCompletion("w2-t1"),
	}
}

func TestForFormat(t *testing.T) {
	tests := map[string]string{
		"txt":      ".txt",
		"text":     ".txt",
		"md":       ".md",
		"Markdown": ".md",
		"json":     ".json",
		"html":     ".html",
	}
	for format, ext := range tests {
		e, err := ForFormat(format, nil)
		require.NoError(t, err, format)
		assert.Equal(t, ext, e.FileExtension())
		assert.NotEmpty(t, e.MimeType())
	}

	_, err := ForFormat("pdf", nil)
	assert.Error(t, err)
}

func TestExporters_RejectNilDocument(t *testing.T) {
	for _, format := range Formats {
		e, err := ForFormat(format, nil)
		require.NoError(t, err)
		_, err = e.Export(nil)
		assert.Error(t, err, format)
	}
}

func TestExporters_HandleEmptyPlan(t *testing.T) {
	doc := &Document{Plan: plan.Degraded()}
	for _, format := range Formats {
		e, _ := ForFormat(format, nil)
		out, err := e.Export(doc)
		require.NoError(t, err, format)
		assert.NotEmpty(t, out, format)
	}
}

func TestTextExporter_IncludesNotes(t *testing.T) {
	out, err := NewTextExporter(nil).Export(testDocument())
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "SettleSmart Plan — BEFORE — Brazil → Germany (work)\nAnchor date: 2025-04-01\n"))
	assert.Contains(t, text, "- Register address (offset ~ 9 days)")
	assert.Contains(t, text, "Country notes:\nCarry your passport & permit.")
}

func TestMarkdownExporter_FrontmatterAndEscaping(t *testing.T) {
	doc := testDocument()
	doc.GeneratedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	out, err := NewMarkdownExporter(nil).Export(doc)
	require.NoError(t, err)

	md := string(out)
	assert.True(t, strings.HasPrefix(md, "---\n"))
	assert.Contains(t, md, "generated: 2025-03-01T12:00:00Z")
	assert.Contains(t, md, "- [ ] Bank &lt;account>")
	assert.Contains(t, md, "- [x] Register address")
	assert.Contains(t, md, "1/3 tasks (33%)")
	assert.Contains(t, md, "## Country notes")
}

func TestHTMLExporter_EscapesAndChecks(t *testing.T) {
	doc := testDocument()
	doc.Plan.Weeks[0].Items[0].Label = "<script>alert('x')</script>"

	out, err := NewHTMLExporter(&Options{Theme: "dark", IncludeProgress: true, IncludeNotes: true}).Export(doc)
	require.NoError(t, err)

	page := string(out)
	assert.NotContains(t, page, "<script>alert")
	assert.Contains(t, page, "&lt;script&gt;")
	assert.Contains(t, page, `class="dark-theme"`)
	assert.Contains(t, page, `id="w2-t1" disabled checked`)
	assert.Contains(t, page, "width: 33%")
	assert.Contains(t, page, "Carry your passport &amp; permit.")
}

func TestJSONExporter_RoundTripsThroughPlan(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(testDocument())
	require.NoError(t, err)

	var decoded struct {
		Progress  checklist.Progress `json:"progress"`
		Completed []string           `json:"completed"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, checklist.Progress{Done: 1, Total: 3, Percent: 33}, decoded.Progress)
	assert.Equal(t, []string{"w2-t1"}, decoded.Completed)

	reparsed := plan.Normalize(string(out))
	assert.False(t, reparsed.Degraded)
	assert.Equal(t, testDocument().Plan, reparsed)
}

func TestExportToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	opts := DefaultOptions()
	opts.OutputDir = dir

	path, err := ExportToFile(testDocument(), NewTextExporter(opts), opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "SettleSmart-Plan.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Buy SIM")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "my-plan_v2", sanitizeFilename("my/plan v2"))
	assert.Equal(t, DefaultFileName, sanitizeFilename("   "))
	assert.Equal(t, DefaultFileName, sanitizeFilename(".."))
	assert.LessOrEqual(t, len([]rune(sanitizeFilename(strings.Repeat("a", 80)))), 50)
}
