// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"errors"
	"fmt"

	"github.com/jeranaias/settlesmart/internal/cloud"
)

// Error classes. Match with errors.Is.
var (
	// ErrConfiguration means the service cannot be called as configured,
	// typically a missing API key.
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstream means the completion service answered with a failure.
	ErrUpstream = errors.New("upstream error")

	// ErrTransport means the completion service could not be reached or the
	// call was abandoned.
	ErrTransport = errors.New("transport error")
)

// Error is a classified generation failure. It matches its class sentinel
// and the underlying cause.
type Error struct {
	Class error
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Class, e.Err)
}

// Unwrap exposes both the class sentinel and the cause.
func (e *Error) Unwrap() []error {
	return []error{e.Class, e.Err}
}

// classify maps a completion error onto the pipeline taxonomy. Unknown
// errors are treated as transport failures.
func classify(err error) error {
	switch {
	case errors.Is(err, cloud.ErrMissingCredentials):
		return &Error{Class: ErrConfiguration, Err: err}
	case cloud.IsUpstream(err):
		return &Error{Class: ErrUpstream, Err: err}
	default:
		return &Error{Class: ErrTransport, Err: err}
	}
}
