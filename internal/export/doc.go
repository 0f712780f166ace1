// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders relocation plans as downloadable documents.
//
// # Key Types
//
//   - Exporter: Interface for all export formats
//   - Document: a plan with its profile and completion state
//   - TextExporter: plain text download and the compact copy variant
//   - MarkdownExporter: checklist with [x] / [ ] boxes
//   - JSONExporter: machine-readable plan plus progress
//   - HTMLExporter: standalone page with embedded CSS
//
// # Usage
//
//	doc := &export.Document{Plan: p, Profile: prof, Completion: done}
//	exporter, err := export.ForFormat("md", nil)
//	path, err := export.ExportToFile(doc, exporter, nil)
package export
