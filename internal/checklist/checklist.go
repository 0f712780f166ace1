// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package checklist projects completion progress over a plan.
//
// The completion set belongs to the caller. A new plan starts with an empty
// set; nothing here persists state.
package checklist

import (
	"math"

	"github.com/jeranaias/settlesmart/internal/plan"
)

// Completion maps task IDs to their done state.
type Completion map[string]bool

// NewCompletion returns a completion set with the given IDs marked done.
func NewCompletion(doneIDs ...string) Completion {
	c := make(Completion, len(doneIDs))
	for _, id := range doneIDs {
		c[id] = true
	}
	return c
}

// Toggle flips the done state of id and returns the new state.
func (c Completion) Toggle(id string) bool {
	c[id] = !c[id]
	return c[id]
}

// Set marks id done or not done.
func (c Completion) Set(id string, done bool) {
	if done {
		c[id] = true
		return
	}
	delete(c, id)
}

// Done reports whether id is marked done.
func (c Completion) Done(id string) bool {
	return c[id]
}

// Reset clears every entry. Used when a plan is regenerated.
func (c Completion) Reset() {
	for id := range c {
		delete(c, id)
	}
}

// Prune drops entries for IDs that are not tasks in p.
func (c Completion) Prune(p plan.Plan) {
	known := make(map[string]struct{}, p.TaskCount())
	for _, t := range p.Tasks() {
		known[t.ID] = struct{}{}
	}
	for id := range c {
		if _, ok := known[id]; !ok {
			delete(c, id)
		}
	}
}

// DoneIDs returns the IDs of done tasks in plan order.
func (c Completion) DoneIDs(p plan.Plan) []string {
	ids := []string{}
	for _, t := range p.Tasks() {
		if c[t.ID] {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Progress is a completion summary.
type Progress struct {
	Done    int `json:"doneCount"`
	Total   int `json:"totalCount"`
	Percent int `json:"percent"`
}

// Project computes progress for p. IDs in done that are not tasks of p are
// ignored.
func Project(p plan.Plan, done Completion) Progress {
	var pr Progress
	for _, t := range p.Tasks() {
		pr.Total++
		if done[t.ID] {
			pr.Done++
		}
	}
	pr.Percent = percent(pr.Done, pr.Total)
	return pr
}

// WeekProgress is the progress of one week.
type WeekProgress struct {
	Title string `json:"title"`
	Progress
}

// ProjectWeeks computes progress for each week of p in order.
func ProjectWeeks(p plan.Plan, done Completion) []WeekProgress {
	out := make([]WeekProgress, 0, len(p.Weeks))
	for _, w := range p.Weeks {
		wp := WeekProgress{Title: w.Title}
		for _, t := range w.Items {
			wp.Total++
			if done[t.ID] {
				wp.Done++
			}
		}
		wp.Percent = percent(wp.Done, wp.Total)
		out = append(out, wp)
	}
	return out
}

// percent rounds half away from zero; 0 when total is 0.
func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}
