// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/settlesmart/internal/checklist"
	"github.com/jeranaias/settlesmart/internal/plan"
	"github.com/jeranaias/settlesmart/internal/profile"
	"github.com/jeranaias/settlesmart/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for plan exporters.
type Exporter interface {
	// Export renders a document in the target format.
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Document is everything an exporter renders.
type Document struct {
	Plan       plan.Plan
	Profile    profile.Profile
	Completion checklist.Completion

	// GeneratedAt is stamped into formats that carry metadata. Zero omits it.
	GeneratedAt time.Time
}

// Progress returns the completion summary for the document.
func (d *Document) Progress() checklist.Progress {
	return checklist.Project(d.Plan, d.Completion)
}

// Title returns the one-line plan heading:
// "SettleSmart Plan — PHASE — origin → destination (visa)".
func (d *Document) Title() string {
	return fmt.Sprintf("SettleSmart Plan — %s — %s → %s (%s)",
		strings.ToUpper(string(d.Profile.Phase)),
		d.Profile.Origin,
		d.Profile.Destination,
		d.Profile.VisaType)
}

var errNilDocument = errors.New("document is nil")

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// FileName is the base name without extension.
	// Default: "SettleSmart-Plan"
	FileName string

	// IncludeProgress adds a progress summary where the format supports it.
	IncludeProgress bool

	// IncludeNotes adds the country notes.
	IncludeNotes bool

	// Compact selects the short bulleted text variant.
	Compact bool

	// Theme for HTML export ("light" or "dark").
	// Default: "light"
	Theme string
}

// DefaultFileName is the base name used for exported files.
const DefaultFileName = "SettleSmart-Plan"

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		FileName:        DefaultFileName,
		IncludeProgress: true,
		IncludeNotes:    true,
		Theme:           "light",
	}
}

// Formats lists the accepted format names.
var Formats = []string{"txt", "md", "json", "html"}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "txt", "text":
		return NewTextExporter(opts), nil
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	}
	return nil, fmt.Errorf("unsupported export format: %s", format)
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile renders doc with exporter and writes it atomically under
// opts.OutputDir. Returns the output file path.
func ExportToFile(doc *Document, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	name := sanitizeFilename(opts.FileName)
	outputPath := filepath.Join(dir, name+exporter.FileExtension())

	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(strings.TrimSpace(s), 50)

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
	}

	result := []rune{}
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 || string(result) == "." || string(result) == ".." {
		return DefaultFileName
	}
	return string(result)
}

// offsetLabel formats a day offset for display.
func offsetLabel(days int) string {
	return fmt.Sprintf("offset ~ %d days", days)
}
