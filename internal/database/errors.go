// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/venuepulse/venuepulse/internal/models"
)

// storeErr translates driver-level failures into the domain sentinels the
// HTTP layer maps to status codes. Anything unrecognized is wrapped as-is.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, models.ErrStoreTimeout)
	case isUniqueConstraintError(err):
		return fmt.Errorf("%s: %w", op, models.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// isUniqueConstraintError checks if an error is a DuckDB unique constraint
// violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Duplicate key") ||
		strings.Contains(errStr, "violates unique constraint") ||
		strings.Contains(errStr, "PRIMARY KEY or UNIQUE constraint violated")
}

// isTransactionConflict checks if an error is a DuckDB transaction conflict.
// Conflicting transactions are retried by WithTx.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on update")
}
