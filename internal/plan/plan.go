// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import "fmt"

// Task is a single checklist item.
type Task struct {
	// ID is the synthetic identity key, "w<week>-t<item>", 1-based.
	ID string `json:"id"`

	// Label is display text only. It is not unique.
	Label string `json:"label"`

	// DaysOffset is relative to the profile's anchor date. Not range checked.
	DaysOffset int `json:"daysOffset"`

	Category string `json:"category,omitempty"`
}

// Week is a titled group of tasks.
type Week struct {
	Title string `json:"title"`
	Items []Task `json:"items"`
}

// Plan is a normalized relocation plan.
type Plan struct {
	Weeks        []Week `json:"weeks"`
	CountryNotes string `json:"countryNotes"`

	// Degraded is true when the plan is the fallback for unusable output.
	Degraded bool `json:"-"`
}

// Empty returns a plan with no weeks and no notes.
func Empty() Plan {
	return Plan{Weeks: []Week{}}
}

// TaskID returns the synthetic ID for the item at the given 0-based
// position.
func TaskID(week, item int) string {
	return fmt.Sprintf("w%d-t%d", week+1, item+1)
}

// TaskCount returns the number of tasks across all weeks.
func (p Plan) TaskCount() int {
	n := 0
	for _, w := range p.Weeks {
		n += len(w.Items)
	}
	return n
}

// Tasks returns every task in week order.
func (p Plan) Tasks() []Task {
	tasks := make([]Task, 0, p.TaskCount())
	for _, w := range p.Weeks {
		tasks = append(tasks, w.Items...)
	}
	return tasks
}

// Task looks up a task by ID.
func (p Plan) Task(id string) (Task, bool) {
	for _, w := range p.Weeks {
		for _, t := range w.Items {
			if t.ID == id {
				return t, true
			}
		}
	}
	return Task{}, false
}

// UnmarshalJSON decodes a plan with the same lenient coercion as Parse, so
// plans posted back by clients get canonical task IDs.
func (p *Plan) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
