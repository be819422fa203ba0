// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package models

import (
	"errors"
	"fmt"
)

// Sentinel domain errors. The HTTP adapter maps these to status codes;
// the core packages only ever wrap them with context.
var (
	// ErrNotFound indicates the targeted entity is missing or not owned by
	// the requesting tenant. Ownership mismatches deliberately present as
	// not-found so tenants cannot probe each other's IDs.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique-name violation within a tenant.
	ErrConflict = errors.New("already exists")

	// ErrUnauthorized indicates the tenant header was absent where required.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStoreTimeout indicates a store operation exceeded its deadline.
	ErrStoreTimeout = errors.New("store timeout")
)

// ValidationError reports an input constraint violation (empty name,
// threshold above capacity, unknown enum value). Surfaced as HTTP 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
