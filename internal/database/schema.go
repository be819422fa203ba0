// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables.
//
// All columns are defined in the initial CREATE TABLE statements; there is
// no migration machinery yet. Alert rows denormalise area_name and
// owner_email so alert listings never join, and the counter columns on
// alerts are a snapshot taken when the alert opened, never rewritten.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			email TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			auth_provider TEXT NOT NULL DEFAULT 'LOCAL',
			password_hash TEXT,
			created_at TIMESTAMP NOT NULL,
			last_login_at TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			venue TEXT NOT NULL DEFAULT '',
			owner_email TEXT NOT NULL,
			start_at TIMESTAMP NOT NULL,
			end_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (name, owner_email)
		)`,

		// UNIQUE (name, event_id) does not catch duplicate standalone areas
		// because NULLs never compare equal; CreateArea pre-checks those.
		`CREATE TABLE IF NOT EXISTS areas (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			owner_email TEXT NOT NULL,
			event_id UUID,
			capacity INTEGER NOT NULL,
			threshold INTEGER NOT NULL,
			current_count INTEGER NOT NULL DEFAULT 0,
			generate_qr BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (name, event_id)
		)`,

		// Append-only. Rows survive area deletion so historical trends keep
		// their denominators.
		`CREATE TABLE IF NOT EXISTS scan_logs (
			id UUID PRIMARY KEY,
			area_id UUID NOT NULL,
			kind TEXT NOT NULL,
			ts TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id UUID PRIMARY KEY,
			area_id UUID NOT NULL,
			area_name TEXT NOT NULL,
			owner_email TEXT NOT NULL,
			kind TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'UNREAD',
			message TEXT NOT NULL DEFAULT '',
			current_count INTEGER NOT NULL,
			threshold INTEGER NOT NULL,
			capacity INTEGER NOT NULL,
			occupancy_pct DOUBLE NOT NULL,
			created_at TIMESTAMP NOT NULL,
			resolved_at TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// createIndexes creates indexes for the common query patterns: tenant-scoped
// listings, per-area scan history, and the open-alert lookup on every scan.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_events_owner ON events (owner_email)`,
		`CREATE INDEX IF NOT EXISTS idx_areas_owner ON areas (owner_email)`,
		`CREATE INDEX IF NOT EXISTS idx_areas_event ON areas (event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_logs_area_ts ON scan_logs (area_id, ts)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_logs_ts ON scan_logs (ts)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_owner_created ON alerts (owner_email, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_area_kind_status ON alerts (area_id, kind, status)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}
