// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the settlesmart packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateBytes: byte-limited truncation that never splits a rune
//   - TruncateWidth, StringWidth: terminal display width (CJK aware)
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
package util
