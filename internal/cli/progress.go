// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/settlesmart/internal/checklist"
	"github.com/jeranaias/settlesmart/internal/plan"
	"github.com/jeranaias/settlesmart/internal/util"
)

type progressFlags struct {
	planPath string
	done     []string
	asJSON   bool
	tasks    bool
}

func newProgressCmd() *cobra.Command {
	var f progressFlags

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show checklist progress for a saved plan",
		Long: `Reads a plan saved as JSON (an /api/plan response or a json export) and
prints per-week progress. Completed task IDs come from the file's
"completed" list and from --done.`,
		Example: `  settle progress --plan SettleSmart-Plan.json --done w1-t1,w1-t2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgress(cmd.OutOrStdout(), f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.planPath, "plan", "p", "", "plan JSON file")
	flags.StringSliceVarP(&f.done, "done", "d", nil, "completed task IDs, comma separated")
	flags.BoolVar(&f.asJSON, "json", false, "print progress as JSON")
	flags.BoolVar(&f.tasks, "tasks", false, "list every task with its ID")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

// progressReport is the --json output.
type progressReport struct {
	checklist.Progress
	Weeks     []checklist.WeekProgress `json:"weeks"`
	Completed []string                 `json:"completed"`
}

func runProgress(out io.Writer, f progressFlags) error {
	data, err := os.ReadFile(f.planPath)
	if err != nil {
		return fmt.Errorf("read plan: %w", err)
	}
	p, err := plan.Parse(string(data))
	if err != nil {
		return fmt.Errorf("%s is not a plan: %w", f.planPath, err)
	}

	// A json export carries its own completion list.
	var saved struct {
		Completed []string `json:"completed"`
	}
	_ = json.Unmarshal(data, &saved)

	done := checklist.NewCompletion(saved.Completed...)
	for _, id := range f.done {
		if id = strings.TrimSpace(id); id != "" {
			done.Set(id, true)
		}
	}
	done.Prune(p)

	overall := checklist.Project(p, done)
	weeks := checklist.ProjectWeeks(p, done)

	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(progressReport{Progress: overall, Weeks: weeks, Completed: done.DoneIDs(p)})
	}

	width := terminalWidth(out)
	fmt.Fprintln(out, TitleStyle.Render("Plan progress"))
	if p.TaskCount() == 0 {
		fmt.Fprintln(out, DimStyle.Render("This plan has no tasks."))
	}
	for i, w := range weeks {
		title := w.Title
		if title == "" {
			title = fmt.Sprintf("Week %d", i+1)
		}
		fmt.Fprintln(out, renderProgressLine(title, w.Progress, width))
		if f.tasks {
			for _, t := range p.Weeks[i].Items {
				fmt.Fprintln(out, renderTaskLine(t, done.Done(t.ID), width))
			}
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderProgressLine("Overall", overall, width))
	return nil
}

// renderTaskLine renders "  [x] w1-t2  label" truncated to width.
func renderTaskLine(t plan.Task, done bool, width int) string {
	box := "[ ]"
	if done {
		box = SuccessStyle.Render("[x]")
	}
	prefix := fmt.Sprintf("  %s %-7s ", box, t.ID)
	room := width - util.StringWidth(fmt.Sprintf("  [ ] %-7s ", t.ID))
	return prefix + util.TruncateWidth(t.Label, room)
}
