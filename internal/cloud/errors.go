// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials indicates no API key was configured. It is returned
// before any network activity.
var ErrMissingCredentials = errors.New("completion API key not configured")

// UpstreamError is returned when the service answers with a non-2xx status.
// Body holds the (truncated) response for diagnostics only.
type UpstreamError struct {
	Status int
	Body   string
}

// Error implements the error interface. The body is deliberately left out so
// the message is safe to surface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion service returned HTTP %d", e.Status)
}

// TransportError wraps connection failures, timeouts, cancellation, and
// unreadable response bodies.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("completion transport: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsUpstream reports whether err is, or wraps, an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// IsTransport reports whether err is, or wraps, a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
