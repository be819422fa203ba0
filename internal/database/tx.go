// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/venuepulse/venuepulse/internal/logging"
)

// querier is the common surface of *sql.DB and *sql.Tx. Row helpers are
// written against it once and shared by direct and transactional paths.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is a store handle bound to an open transaction. Its methods mirror the
// DB ones but run inside the transaction and inherit its deadline.
type Tx struct {
	tx *sql.Tx
}

// txMaxRetries bounds optimistic-concurrency retries. DuckDB aborts one of
// two transactions that touch the same row; the loser is safe to re-run
// because scan processing re-reads all state inside the transaction.
const txMaxRetries = 3

// WithTx runs fn inside a transaction bounded by the query timeout,
// committing on success and rolling back on error. The context passed to fn
// carries the deadline. Transaction conflicts are retried up to
// txMaxRetries times with a short backoff.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < txMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
			case <-opCtx.Done():
				return storeErr("transaction", opCtx.Err())
			}
			logging.Debug().Int("attempt", attempt+1).Msg("Retrying conflicting transaction")
		}

		err := db.runTx(opCtx, fn)
		if err == nil {
			return nil
		}
		if !isTransactionConflict(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("transaction failed after %d attempts: %w", txMaxRetries, lastErr)
}

func (db *DB) runTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	sqlTx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin transaction", err)
	}

	if err := fn(ctx, &Tx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			logging.Warn().Err(rbErr).Msg("Failed to roll back transaction")
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}
