// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/venuepulse/venuepulse/internal/models"
)

const areaColumns = `id, name, owner_email, event_id, capacity, threshold, current_count, generate_qr, created_at, updated_at`

// rowScanner abstracts *sql.Row and *sql.Rows for the shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanArea(row rowScanner) (*models.Area, error) {
	var (
		a       models.Area
		eventID uuid.NullUUID
	)
	err := row.Scan(&a.ID, &a.Name, &a.OwnerEmail, &eventID, &a.Capacity,
		&a.Threshold, &a.CurrentCount, &a.GenerateQR, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if eventID.Valid {
		id := eventID.UUID
		a.EventID = &id
	}
	return &a, nil
}

func collectAreas(ctx context.Context, q querier, query string, args ...any) ([]*models.Area, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	areas := make([]*models.Area, 0)
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

func nullableEventID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

// CreateArea inserts a new area. The ID and timestamps are assigned here
// when unset. A duplicate name within the same event, or among the owner's
// standalone areas, returns models.ErrConflict.
func (db *DB) CreateArea(ctx context.Context, a *models.Area) error {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()
	return createArea(opCtx, db.conn, a)
}

func createArea(ctx context.Context, q querier, a *models.Area) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = a.CreatedAt

	// The UNIQUE (name, event_id) constraint never fires for standalone
	// areas because NULL event IDs do not compare equal.
	if a.EventID == nil {
		var count int
		err := q.QueryRowContext(ctx,
			`SELECT count(*) FROM areas WHERE owner_email = ? AND name = ? AND event_id IS NULL`,
			a.OwnerEmail, a.Name).Scan(&count)
		if err != nil {
			return storeErr("check area name", err)
		}
		if count > 0 {
			return fmt.Errorf("area %q: %w", a.Name, models.ErrConflict)
		}
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO areas (`+areaColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.OwnerEmail, nullableEventID(a.EventID), a.Capacity,
		a.Threshold, a.CurrentCount, a.GenerateQR, a.CreatedAt, a.UpdatedAt)
	return storeErr("create area", err)
}

// AreaByID fetches an area scoped to its owner. A foreign or unknown ID
// returns models.ErrNotFound either way.
func (db *DB) AreaByID(ctx context.Context, id uuid.UUID, ownerEmail string) (*models.Area, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(opCtx,
		`SELECT `+areaColumns+` FROM areas WHERE id = ? AND owner_email = ?`, id, ownerEmail)
	a, err := scanArea(row)
	if err != nil {
		return nil, storeErr("get area", err)
	}
	return a, nil
}

// PublicAreaByID fetches an area without tenant scoping. Scanner devices
// only hold the area ID from the QR code, not an owner identity.
func (db *DB) PublicAreaByID(ctx context.Context, id uuid.UUID) (*models.Area, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(opCtx,
		`SELECT `+areaColumns+` FROM areas WHERE id = ?`, id)
	a, err := scanArea(row)
	if err != nil {
		return nil, storeErr("get area", err)
	}
	return a, nil
}

// ListAreas returns all areas owned by the tenant, oldest first.
func (db *DB) ListAreas(ctx context.Context, ownerEmail string) ([]*models.Area, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	areas, err := collectAreas(opCtx, db.conn,
		`SELECT `+areaColumns+` FROM areas WHERE owner_email = ? ORDER BY created_at, name`, ownerEmail)
	if err != nil {
		return nil, storeErr("list areas", err)
	}
	return areas, nil
}

// ListAreasByEvent returns the areas attached to one event, scoped to the
// owner.
func (db *DB) ListAreasByEvent(ctx context.Context, eventID uuid.UUID, ownerEmail string) ([]*models.Area, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	areas, err := collectAreas(opCtx, db.conn,
		`SELECT `+areaColumns+` FROM areas WHERE event_id = ? AND owner_email = ? ORDER BY created_at, name`,
		eventID, ownerEmail)
	if err != nil {
		return nil, storeErr("list event areas", err)
	}
	return areas, nil
}

// AreasNeedingAttention returns the owner's areas at or above threshold,
// most occupied first.
func (db *DB) AreasNeedingAttention(ctx context.Context, ownerEmail string) ([]*models.Area, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	areas, err := collectAreas(opCtx, db.conn,
		`SELECT `+areaColumns+` FROM areas
		 WHERE owner_email = ? AND current_count >= threshold
		 ORDER BY CAST(current_count AS DOUBLE) / capacity DESC`, ownerEmail)
	if err != nil {
		return nil, storeErr("list areas needing attention", err)
	}
	return areas, nil
}

// UpdateArea rewrites the mutable fields of an area: name, capacity,
// threshold, and QR generation. Counters are never touched here.
func (db *DB) UpdateArea(ctx context.Context, a *models.Area) error {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	a.UpdatedAt = time.Now().UTC()
	res, err := db.conn.ExecContext(opCtx,
		`UPDATE areas SET name = ?, capacity = ?, threshold = ?, generate_qr = ?, updated_at = ?
		 WHERE id = ? AND owner_email = ?`,
		a.Name, a.Capacity, a.Threshold, a.GenerateQR, a.UpdatedAt, a.ID, a.OwnerEmail)
	if err != nil {
		return storeErr("update area", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("update area", err)
	}
	if n == 0 {
		return fmt.Errorf("update area: %w", models.ErrNotFound)
	}
	return nil
}

// DeleteArea removes an area and its alerts. Scan logs are kept; they are
// historical fact regardless of whether the area still exists.
func (db *DB) DeleteArea(ctx context.Context, id uuid.UUID, ownerEmail string) error {
	return db.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		res, err := tx.tx.ExecContext(ctx,
			`DELETE FROM areas WHERE id = ? AND owner_email = ?`, id, ownerEmail)
		if err != nil {
			return storeErr("delete area", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storeErr("delete area", err)
		}
		if n == 0 {
			return fmt.Errorf("delete area: %w", models.ErrNotFound)
		}
		_, err = tx.tx.ExecContext(ctx, `DELETE FROM alerts WHERE area_id = ?`, id)
		return storeErr("delete area alerts", err)
	})
}

// ResetAreaCount zeroes the counter and returns the previous value.
func (db *DB) ResetAreaCount(ctx context.Context, id uuid.UUID, ownerEmail string) (int, error) {
	var previous int
	err := db.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		err := tx.tx.QueryRowContext(ctx,
			`SELECT current_count FROM areas WHERE id = ? AND owner_email = ?`,
			id, ownerEmail).Scan(&previous)
		if err != nil {
			return storeErr("get area count", err)
		}
		_, err = tx.tx.ExecContext(ctx,
			`UPDATE areas SET current_count = 0, updated_at = ? WHERE id = ?`,
			time.Now().UTC(), id)
		return storeErr("reset area count", err)
	})
	if err != nil {
		return 0, err
	}
	return previous, nil
}

// AreaForScan fetches an area inside the transaction, unscoped.
func (tx *Tx) AreaForScan(ctx context.Context, id uuid.UUID) (*models.Area, error) {
	row := tx.tx.QueryRowContext(ctx,
		`SELECT `+areaColumns+` FROM areas WHERE id = ?`, id)
	a, err := scanArea(row)
	if err != nil {
		return nil, storeErr("get area", err)
	}
	return a, nil
}

// IncrementCount bumps the area counter by one and returns the new value.
// Single statement so concurrent scanners serialize in the storage engine.
func (tx *Tx) IncrementCount(ctx context.Context, id uuid.UUID, now time.Time) (int, error) {
	var count int
	err := tx.tx.QueryRowContext(ctx,
		`UPDATE areas SET current_count = current_count + 1, updated_at = ?
		 WHERE id = ? RETURNING current_count`, now.UTC(), id).Scan(&count)
	if err != nil {
		return 0, storeErr("increment count", err)
	}
	return count, nil
}

// DecrementCount lowers the area counter by one, clamped at zero, and
// returns the new value.
func (tx *Tx) DecrementCount(ctx context.Context, id uuid.UUID, now time.Time) (int, error) {
	var count int
	err := tx.tx.QueryRowContext(ctx,
		`UPDATE areas SET current_count = greatest(current_count - 1, 0), updated_at = ?
		 WHERE id = ? RETURNING current_count`, now.UTC(), id).Scan(&count)
	if err != nil {
		return 0, storeErr("decrement count", err)
	}
	return count, nil
}
