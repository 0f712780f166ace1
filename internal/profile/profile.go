// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package profile normalizes the relocation profile submitted by a caller.
//
// Validation never fails. Unknown enumerated values are coerced to safe
// defaults so that downstream prompt building always sees a well-formed
// profile.
package profile

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Phase is the relocation phase the plan targets.
type Phase string

const (
	PhaseBefore Phase = "before"
	PhaseAfter  Phase = "after"
)

// DefaultPhase is used when the submitted phase is not recognized.
const DefaultPhase = PhaseAfter

// VisaType is the immigration category of the relocating individual.
type VisaType string

const (
	VisaStudent VisaType = "student"
	VisaWork    VisaType = "work"
	VisaFamily  VisaType = "family"
	VisaStartup VisaType = "startup"
)

// DefaultVisaType is used when the submitted visa type is not recognized.
const DefaultVisaType = VisaWork

// DateLayout is the canonical anchor date layout.
const DateLayout = "2006-01-02"

// Raw is a profile exactly as submitted. All fields are untrusted.
type Raw struct {
	Phase       string `json:"phase"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	VisaType    string `json:"visaType"`
	AnchorDate  string `json:"anchorDate"`
}

// Profile is a validated relocation profile.
type Profile struct {
	Phase       Phase    `json:"phase"`
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	VisaType    VisaType `json:"visaType"`
	AnchorDate  string   `json:"anchorDate"`

	// Coerced names the fields that were replaced by a default.
	Coerced []string `json:"-"`
}

// VisaLabel returns the human-readable label for the profile's visa type.
func (p Profile) VisaLabel() string {
	return p.VisaType.Label()
}

// Validator normalizes raw profiles. The zero value uses the wall clock.
type Validator struct {
	// Now supplies the date used when no anchor date is submitted.
	Now func() time.Time
}

// Validate normalizes raw using the wall clock.
func Validate(raw Raw) Profile {
	return Validator{}.Validate(raw)
}

// Validate normalizes raw into a Profile. It never fails.
func (v Validator) Validate(raw Raw) Profile {
	p := Profile{
		Origin:      normalizePlace(raw.Origin),
		Destination: normalizePlace(raw.Destination),
	}

	phase, ok := ParsePhase(raw.Phase)
	if !ok {
		p.Coerced = append(p.Coerced, "phase")
	}
	p.Phase = phase

	visa, ok := ParseVisaType(raw.VisaType)
	if !ok {
		p.Coerced = append(p.Coerced, "visaType")
	}
	p.VisaType = visa

	anchor, defaulted := v.anchorDate(raw.AnchorDate)
	if defaulted {
		p.Coerced = append(p.Coerced, "anchorDate")
	}
	p.AnchorDate = anchor

	return p
}

// ParsePhase matches s case-insensitively against the known phases.
// The second result is false when DefaultPhase was substituted.
func ParsePhase(s string) (Phase, bool) {
	switch Phase(strings.ToLower(strings.TrimSpace(s))) {
	case PhaseBefore:
		return PhaseBefore, true
	case PhaseAfter:
		return PhaseAfter, true
	}
	return DefaultPhase, false
}

// ParseVisaType matches s case-insensitively against the known visa types.
// The second result is false when DefaultVisaType was substituted.
func ParseVisaType(s string) (VisaType, bool) {
	vt := VisaType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := visaLabels[vt]; ok {
		return vt, true
	}
	return DefaultVisaType, false
}

// anchorLayouts are the date forms recognized for canonicalization.
var anchorLayouts = []string{
	DateLayout,
	"2006/01/02",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// anchorDate canonicalizes recognizable dates and passes anything else
// through untouched. An empty token is replaced with today's date.
func (v Validator) anchorDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		now := time.Now
		if v.Now != nil {
			now = v.Now
		}
		return now().Format(DateLayout), true
	}
	for _, layout := range anchorLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), false
		}
	}
	return s, false
}

// normalizePlace trims, collapses interior whitespace, and applies NFC so
// that visually identical country names compare equal.
func normalizePlace(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return norm.NFC.String(strings.Join(fields, " "))
}
