// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/settlesmart/internal/checklist"
	"github.com/jeranaias/settlesmart/internal/util"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	// SectionStyle is used for week headings
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")) // White

	// SuccessStyle marks completed tasks and full bars
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")). // Green
			Bold(true)

	// ErrorStyle is used for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	// WarningStyle is used for warnings and degraded plans
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Yellow/Orange

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim gray

	// BarFillStyle and BarEmptyStyle draw progress bars
	BarFillStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	BarEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// =============================================================================
// PROGRESS RENDERING
// =============================================================================

const barWidth = 20

// renderBar draws a fixed-width progress bar for percent (0-100).
func renderBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * barWidth / 100
	return BarFillStyle.Render(strings.Repeat("█", filled)) +
		BarEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
}

// renderProgressLine renders "label  [bar] done/total (pct%)" with label
// truncated so the line fits width columns.
func renderProgressLine(label string, pr checklist.Progress, width int) string {
	stats := fmt.Sprintf(" %s %d/%d (%d%%)", renderBar(pr.Percent), pr.Done, pr.Total, pr.Percent)
	room := width - lipgloss.Width(stats) - 1
	if room < 8 {
		room = 8
	}
	label = util.TruncateWidth(label, room)
	pad := room - util.StringWidth(label)
	if pad < 0 {
		pad = 0
	}
	return label + strings.Repeat(" ", pad) + stats
}
