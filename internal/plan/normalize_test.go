// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// FALLBACK TESTS
// =============================================================================

func TestNormalize_FallsBackOnUnusableText(t *testing.T) {
	inputs := map[string]string{
		"not json":      "not json at all",
		"empty":         "",
		"array":         `[{"weeks":[]}]`,
		"string":        `"weeks"`,
		"number":        `42`,
		"null":          `null`,
		"missing weeks": `{"countryNotes":"tips"}`,
		"truncated":     `{"weeks":[{"title":"Week 1"`,
		"oversized":     `{"weeks":[],"countryNotes":"` + strings.Repeat("a", MaxRawSize) + `"}`,
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			p := Normalize(raw)
			assert.True(t, p.Degraded)
			assert.Equal(t, DegradedNote, p.CountryNotes)
			assert.NotNil(t, p.Weeks)
			assert.Empty(t, p.Weeks)
		})
	}
}

func TestParse_ReportsReason(t *testing.T) {
	_, err := Parse(`[1,2]`)
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = Parse(`{}`)
	assert.ErrorIs(t, err, ErrMissingWeeks)

	_, err = Parse(`{`)
	assert.Error(t, err)

	_, err = Parse(`{"weeks":[],"countryNotes":"` + strings.Repeat("a", MaxRawSize) + `"}`)
	assert.ErrorIs(t, err, ErrTooLarge)
}

// =============================================================================
// COERCION TESTS
// =============================================================================

func TestNormalize_WellFormedPlan(t *testing.T) {
	raw := `{
		"weeks": [
			{"title": "Week 1", "items": [
				{"label": "Get a SIM card", "daysOffset": 0, "category": "phone"},
				{"label": "Open a bank account", "daysOffset": 2, "category": "banking"}
			]},
			{"title": "Week 2", "items": [
				{"label": "Register address", "daysOffset": 8}
			]}
		],
		"countryNotes": "Bring your passport everywhere."
	}`

	want := Plan{
		Weeks: []Week{
			{Title: "Week 1", Items: []Task{
				{ID: "w1-t1", Label: "Get a SIM card", DaysOffset: 0, Category: "phone"},
				{ID: "w1-t2", Label: "Open a bank account", DaysOffset: 2, Category: "banking"},
			}},
			{Title: "Week 2", Items: []Task{
				{ID: "w2-t1", Label: "Register address", DaysOffset: 8},
			}},
		},
		CountryNotes: "Bring your passport everywhere.",
	}

	got := Normalize(raw)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, got.TaskCount())
}

func TestNormalize_Defaults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Plan
	}{
		{
			name: "empty weeks",
			raw:  `{"weeks":[]}`,
			want: Plan{Weeks: []Week{}},
		},
		{
			name: "null weeks",
			raw:  `{"weeks":null,"countryNotes":"x"}`,
			want: Plan{Weeks: []Week{}, CountryNotes: "x"},
		},
		{
			name: "weeks not an array",
			raw:  `{"weeks":"soon"}`,
			want: Plan{Weeks: []Week{}},
		},
		{
			name: "numeric notes",
			raw:  `{"weeks":[],"countryNotes":12.5}`,
			want: Plan{Weeks: []Week{}, CountryNotes: "12.5"},
		},
		{
			name: "week without items",
			raw:  `{"weeks":[{"title":"Week 1"}]}`,
			want: Plan{Weeks: []Week{{Title: "Week 1", Items: []Task{}}}},
		},
		{
			name: "non-object week",
			raw:  `{"weeks":[7,{"title":"Week 2","items":[]}]}`,
			want: Plan{Weeks: []Week{{Items: []Task{}}, {Title: "Week 2", Items: []Task{}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			assert.False(t, got.Degraded)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalize_LenientTasks(t *testing.T) {
	raw := `{"weeks":[{"title":"W","items":[
		{"label":"string offset","daysOffset":"5"},
		{"label":"float offset","daysOffset":3.9},
		{"label":"junk offset","daysOffset":"soon"},
		{"label":"negative","daysOffset":-2},
		{"label":"huge","daysOffset":1e40},
		{"daysOffset":1},
		"Buy a transit card",
		null
	]}]}`

	got := Normalize(raw)
	require.Len(t, got.Weeks, 1)

	want := []Task{
		{ID: "w1-t1", Label: "string offset", DaysOffset: 5},
		{ID: "w1-t2", Label: "float offset", DaysOffset: 3},
		{ID: "w1-t3", Label: "junk offset", DaysOffset: 0},
		{ID: "w1-t4", Label: "negative", DaysOffset: -2},
		{ID: "w1-t5", Label: "huge", DaysOffset: 2147483647},
		{ID: "w1-t6", Label: "", DaysOffset: 1},
		{ID: "w1-t7", Label: "Buy a transit card"},
		{ID: "w1-t8"},
	}
	if diff := cmp.Diff(want, got.Weeks[0].Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_StripsCodeFence(t *testing.T) {
	raw := "```json\n{\"weeks\":[{\"title\":\"Week 1\",\"items\":[{\"label\":\"SIM\",\"daysOffset\":0}]}]}\n```"

	got := Normalize(raw)
	assert.False(t, got.Degraded)
	assert.Equal(t, 1, got.TaskCount())
}

func TestNormalize_DuplicateLabelsGetDistinctIDs(t *testing.T) {
	got := Normalize(`{"weeks":[{"items":[{"label":"Call bank"},{"label":"Call bank"}]}]}`)

	tasks := got.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, tasks[0].Label, tasks[1].Label)
	assert.NotEqual(t, tasks[0].ID, tasks[1].ID)
}

func TestNormalize_Idempotent(t *testing.T) {
	first := Normalize(`{"weeks":[{"title":"Week 1","items":[{"label":"SIM","daysOffset":"1","category":"phone"}]}],"countryNotes":"n"}`)

	encoded, err := json.Marshal(first)
	require.NoError(t, err)

	second := Normalize(string(encoded))
	if diff := cmp.Diff(first, second, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("re-normalized plan differs (-first +second):\n%s", diff)
	}
}

// =============================================================================
// MODEL TESTS
// =============================================================================

func TestPlan_UnmarshalJSON(t *testing.T) {
	var p Plan
	require.NoError(t, json.Unmarshal([]byte(`{"weeks":[{"items":[{"label":"a","daysOffset":"2"}]}]}`), &p))

	task, ok := p.Task("w1-t1")
	require.True(t, ok)
	assert.Equal(t, 2, task.DaysOffset)

	assert.Error(t, json.Unmarshal([]byte(`{"notes":"x"}`), &p))
}

func TestPlan_EmptyMarshalsWeeksAsArray(t *testing.T) {
	b, err := json.Marshal(Empty())
	require.NoError(t, err)
	assert.JSONEq(t, `{"weeks":[],"countryNotes":""}`, string(b))

	b, err = json.Marshal(Degraded())
	require.NoError(t, err)
	assert.NotContains(t, string(b), "Degraded")
}

func TestTaskID(t *testing.T) {
	assert.Equal(t, "w1-t1", TaskID(0, 0))
	assert.Equal(t, "w4-t12", TaskID(3, 11))
}
