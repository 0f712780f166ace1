// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DegradedNote is the countryNotes text of a fallback plan.
const DegradedNote = "We could not parse the AI response. Please try again or contact support."

// MaxRawSize bounds the completion text accepted for parsing. It matches
// the completion client's response body limit, so any text the client
// returns is parsed.
const MaxRawSize = 10 * 1024 * 1024 // 10MB

var (
	// ErrNotObject indicates the text parsed but was not a JSON object.
	ErrNotObject = errors.New("plan is not a JSON object")

	// ErrMissingWeeks indicates the object has no "weeks" member.
	ErrMissingWeeks = errors.New(`plan has no "weeks" member`)

	// ErrTooLarge indicates the text exceeds MaxRawSize.
	ErrTooLarge = errors.New("plan text too large")
)

// Degraded returns the fallback plan for unusable completion output.
func Degraded() Plan {
	return Plan{Weeks: []Week{}, CountryNotes: DegradedNote, Degraded: true}
}

// Normalize converts raw completion text into a Plan. It never fails: any
// text Parse rejects yields Degraded().
func Normalize(raw string) Plan {
	p, err := Parse(raw)
	if err != nil {
		return Degraded()
	}
	return p
}

// Parse converts raw text into a Plan, reporting why the text is unusable.
// Only structural problems are errors; field-level problems are coerced.
func Parse(raw string) (Plan, error) {
	if len(raw) > MaxRawSize {
		return Plan{}, fmt.Errorf("%w: %d bytes (max: %d)", ErrTooLarge, len(raw), MaxRawSize)
	}

	var doc any
	if err := json.Unmarshal([]byte(stripFence(raw)), &doc); err != nil {
		return Plan{}, fmt.Errorf("failed to parse plan JSON: %w", err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return Plan{}, ErrNotObject
	}
	rawWeeks, ok := obj["weeks"]
	if !ok {
		return Plan{}, ErrMissingWeeks
	}

	p := Plan{
		Weeks:        []Week{},
		CountryNotes: asString(obj["countryNotes"]),
	}
	weeks, _ := rawWeeks.([]any)
	for i, w := range weeks {
		p.Weeks = append(p.Weeks, coerceWeek(i, w))
	}
	return p, nil
}

// stripFence removes a surrounding markdown code fence such as ```json.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func coerceWeek(index int, v any) Week {
	week := Week{Items: []Task{}}
	obj, ok := v.(map[string]any)
	if !ok {
		return week
	}
	week.Title = asString(obj["title"])

	items, _ := obj["items"].([]any)
	for j, item := range items {
		week.Items = append(week.Items, coerceTask(index, j, item))
	}
	return week
}

func coerceTask(week, item int, v any) Task {
	t := Task{ID: TaskID(week, item)}
	switch val := v.(type) {
	case map[string]any:
		t.Label = asString(val["label"])
		t.DaysOffset = asInt(val["daysOffset"])
		t.Category = asString(val["category"])
	case string:
		// A bare string is taken as the label.
		t.Label = val
	}
	return t
}

func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func asInt(v any) int {
	switch val := v.(type) {
	case float64:
		return clampInt(val)
	case string:
		s := strings.TrimSpace(val)
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
			return clampInt(f)
		}
	}
	return 0
}

func clampInt(f float64) int {
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}
