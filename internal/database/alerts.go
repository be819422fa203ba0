// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/venuepulse/venuepulse/internal/models"
)

const alertColumns = `id, area_id, area_name, owner_email, kind, status, message, current_count, threshold, capacity, occupancy_pct, created_at, resolved_at`

func scanAlert(row rowScanner) (*models.Alert, error) {
	var (
		a        models.Alert
		resolved sql.NullTime
	)
	err := row.Scan(&a.ID, &a.AreaID, &a.AreaName, &a.OwnerEmail, &a.Kind,
		&a.Status, &a.Message, &a.CurrentCount, &a.Threshold, &a.Capacity,
		&a.OccupancyPct, &a.CreatedAt, &resolved)
	if err != nil {
		return nil, err
	}
	if resolved.Valid {
		t := resolved.Time
		a.ResolvedAt = &t
	}
	return &a, nil
}

// AlertRange filters alert listings by creation time.
type AlertRange string

const (
	RangeAll    AlertRange = ""
	RangeToday  AlertRange = "today"
	Range24h    AlertRange = "24h"
	Range7d     AlertRange = "7d"
	Range30d    AlertRange = "30d"
)

// Cutoff translates the range to a creation-time lower bound. The second
// return is false for RangeAll.
func (r AlertRange) Cutoff(now time.Time) (time.Time, bool) {
	now = now.UTC()
	switch r {
	case RangeToday:
		return now.Truncate(24 * time.Hour), true
	case Range24h:
		return now.Add(-24 * time.Hour), true
	case Range7d:
		return now.Add(-7 * 24 * time.Hour), true
	case Range30d:
		return now.Add(-30 * 24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}

// Valid reports whether the range is one of the known filter values.
func (r AlertRange) Valid() bool {
	switch r {
	case RangeAll, RangeToday, Range24h, Range7d, Range30d:
		return true
	}
	return false
}

// AlertFilter narrows ListAlerts. Zero values mean "any".
type AlertFilter struct {
	Status models.AlertStatus
	Kind   models.AlertKind
	Range  AlertRange
}

// OpenAlert returns the area's non-RESOLVED alert of the given kind, or
// models.ErrNotFound. At most one such alert exists per (area, kind); the
// engine checks here before opening a new one.
func (tx *Tx) OpenAlert(ctx context.Context, areaID uuid.UUID, kind models.AlertKind) (*models.Alert, error) {
	row := tx.tx.QueryRowContext(ctx,
		`SELECT `+alertColumns+` FROM alerts
		 WHERE area_id = ? AND kind = ? AND status != ?
		 ORDER BY created_at DESC LIMIT 1`,
		areaID, kind, models.AlertResolved)
	a, err := scanAlert(row)
	if err != nil {
		return nil, storeErr("get open alert", err)
	}
	return a, nil
}

// HasOpenAlert reports whether the area has a non-RESOLVED alert of the
// given kind.
func (tx *Tx) HasOpenAlert(ctx context.Context, areaID uuid.UUID, kind models.AlertKind) (bool, error) {
	_, err := tx.OpenAlert(ctx, areaID, kind)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// InsertAlert persists a freshly opened alert inside the scan transaction.
func (tx *Tx) InsertAlert(ctx context.Context, a *models.Alert) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = models.AlertUnread
	}
	_, err := tx.tx.ExecContext(ctx,
		`INSERT INTO alerts (`+alertColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.AreaID, a.AreaName, a.OwnerEmail, a.Kind, a.Status, a.Message,
		a.CurrentCount, a.Threshold, a.Capacity, a.OccupancyPct,
		a.CreatedAt.UTC(), nullableTime(a.ResolvedAt))
	return storeErr("insert alert", err)
}

// ResolveOpenAlerts resolves the area's non-RESOLVED alerts of the given
// kind and returns their IDs. Only the status and resolved_at change; the
// snapshot columns stay as written at creation.
func (tx *Tx) ResolveOpenAlerts(ctx context.Context, areaID uuid.UUID, kind models.AlertKind, now time.Time) ([]uuid.UUID, error) {
	rows, err := tx.tx.QueryContext(ctx,
		`UPDATE alerts SET status = ?, resolved_at = ?
		 WHERE area_id = ? AND kind = ? AND status != ?
		 RETURNING id`,
		models.AlertResolved, now.UTC(), areaID, kind, models.AlertResolved)
	if err != nil {
		return nil, storeErr("resolve open alerts", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("resolve open alerts", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListAlerts returns the owner's alerts, newest first, narrowed by the
// filter.
func (db *DB) ListAlerts(ctx context.Context, ownerEmail string, filter AlertFilter) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE owner_email = ?`
	args := []any{ownerEmail}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, filter.Kind)
	}
	if cutoff, ok := filter.Range.Cutoff(time.Now()); ok {
		query += ` AND created_at >= ?`
		args = append(args, cutoff)
	}
	query += ` ORDER BY created_at DESC`

	return db.collectAlerts(ctx, query, args...)
}

// ActiveAlerts returns the owner's non-RESOLVED alerts, newest first.
func (db *DB) ActiveAlerts(ctx context.Context, ownerEmail string) ([]*models.Alert, error) {
	return db.collectAlerts(ctx,
		`SELECT `+alertColumns+` FROM alerts
		 WHERE owner_email = ? AND status != ?
		 ORDER BY created_at DESC`,
		ownerEmail, models.AlertResolved)
}

// AlertsByArea returns one area's alerts, owner scoped, newest first.
func (db *DB) AlertsByArea(ctx context.Context, areaID uuid.UUID, ownerEmail string) ([]*models.Alert, error) {
	return db.collectAlerts(ctx,
		`SELECT `+alertColumns+` FROM alerts
		 WHERE area_id = ? AND owner_email = ?
		 ORDER BY created_at DESC`,
		areaID, ownerEmail)
}

func (db *DB) collectAlerts(ctx context.Context, query string, args ...any) ([]*models.Alert, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(opCtx, query, args...)
	if err != nil {
		return nil, storeErr("list alerts", err)
	}
	defer rows.Close()

	alerts := make([]*models.Alert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, storeErr("list alerts", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list alerts", err)
	}
	return alerts, nil
}

// AlertByID fetches one alert scoped to its owner.
func (db *DB) AlertByID(ctx context.Context, id uuid.UUID, ownerEmail string) (*models.Alert, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(opCtx,
		`SELECT `+alertColumns+` FROM alerts WHERE id = ? AND owner_email = ?`, id, ownerEmail)
	a, err := scanAlert(row)
	if err != nil {
		return nil, storeErr("get alert", err)
	}
	return a, nil
}

// MarkAlertRead moves an UNREAD alert to READ. READ and RESOLVED alerts are
// left untouched; re-marking is a no-op, not an error.
func (db *DB) MarkAlertRead(ctx context.Context, id uuid.UUID, ownerEmail string) (*models.Alert, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(opCtx,
		`UPDATE alerts SET status = ? WHERE id = ? AND owner_email = ? AND status = ?`,
		models.AlertRead, id, ownerEmail, models.AlertUnread)
	if err != nil {
		return nil, storeErr("mark alert read", err)
	}
	return db.AlertByID(ctx, id, ownerEmail)
}

// ResolveAlert force-resolves one alert regardless of live occupancy. This
// is the only way a RAPID_INFLOW alert resolves.
func (db *DB) ResolveAlert(ctx context.Context, id uuid.UUID, ownerEmail string, now time.Time) (*models.Alert, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(opCtx,
		`UPDATE alerts SET status = ?, resolved_at = ?
		 WHERE id = ? AND owner_email = ? AND status != ?`,
		models.AlertResolved, now.UTC(), id, ownerEmail, models.AlertResolved)
	if err != nil {
		return nil, storeErr("resolve alert", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, storeErr("resolve alert", err)
	}
	if n == 0 {
		// Either missing, foreign, or already resolved; disambiguate so an
		// idempotent re-resolve returns the alert instead of 404.
		a, getErr := db.AlertByID(ctx, id, ownerEmail)
		if getErr != nil {
			return nil, getErr
		}
		return a, nil
	}
	return db.AlertByID(ctx, id, ownerEmail)
}

// MarkAllAlertsRead moves all of the owner's UNREAD alerts to READ and
// returns how many changed.
func (db *DB) MarkAllAlertsRead(ctx context.Context, ownerEmail string) (int, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(opCtx,
		`UPDATE alerts SET status = ? WHERE owner_email = ? AND status = ?`,
		models.AlertRead, ownerEmail, models.AlertUnread)
	if err != nil {
		return 0, storeErr("mark all alerts read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("mark all alerts read", err)
	}
	return int(n), nil
}

// UnreadAlertCount returns the owner's UNREAD alert count for the badge.
func (db *DB) UnreadAlertCount(ctx context.Context, ownerEmail string) (int, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(opCtx,
		`SELECT count(*) FROM alerts WHERE owner_email = ? AND status = ?`,
		ownerEmail, models.AlertUnread).Scan(&count)
	if err != nil {
		return 0, storeErr("count unread alerts", err)
	}
	return count, nil
}
