// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package profile

import "strings"

// visaLabels maps each visa type to its display label.
var visaLabels = map[VisaType]string{
	VisaStudent: "Student",
	VisaWork:    "Work (H-1B / Skilled)",
	VisaFamily:  "Family / Spouse",
	VisaStartup: "Startup / Nomad",
}

// VisaTypes lists the supported visa types in display order.
var VisaTypes = []VisaType{VisaStudent, VisaWork, VisaFamily, VisaStartup}

// Label returns the display label, or the raw value for unknown types.
func (v VisaType) Label() string {
	if l, ok := visaLabels[v]; ok {
		return l
	}
	return string(v)
}

// Countries is the list of origin and destination countries offered by
// the web form. Any other value is still accepted.
var Countries = []string{
	"India",
	"Brazil",
	"United Arab Emirates",
	"United Kingdom",
	"Canada",
	"United States",
	"Germany",
	"France",
	"Saudi Arabia",
	"Mexico",
}

// IsKnownCountry reports whether name matches an entry in Countries,
// ignoring case.
func IsKnownCountry(name string) bool {
	name = normalizePlace(name)
	for _, c := range Countries {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}
