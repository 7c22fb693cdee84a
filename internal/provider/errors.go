// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// Error variables for common provider errors.
var (
	// ErrNotConfigured indicates the adapter has no usable base URL or
	// credentials.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrAuthFailed indicates the backend rejected the credentials.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNoToken indicates no bearer token could be resolved: the fetch
	// failed and no static key is configured.
	ErrNoToken = errors.New("no bearer token available")
)

// TransportError is a non-success HTTP response from a backend. The chat
// streaming path surfaces it to the caller unmodified; it is never retried
// here.
type TransportError struct {
	Status int    // HTTP status code
	Reason string // status text, e.g. "Service Unavailable"
	Body   string // response body text
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("backend request failed: %d %s: %s", e.Status, e.Reason, e.Body)
	}
	return fmt.Sprintf("backend request failed: %d %s", e.Status, e.Reason)
}

// Unwrap maps authentication statuses onto ErrAuthFailed so callers can
// branch with errors.Is without inspecting status codes.
func (e *TransportError) Unwrap() error {
	if e.Status == 401 || e.Status == 403 {
		return ErrAuthFailed
	}
	return nil
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsAuthFailure reports whether err indicates rejected credentials.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAuthFailed)
}
