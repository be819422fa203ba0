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

	"github.com/google/uuid"

	"github.com/venuepulse/venuepulse/internal/logging"
	"github.com/venuepulse/venuepulse/internal/models"
)

const eventColumns = `id, name, description, venue, owner_email, start_at, end_at, created_at, updated_at`

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		e     models.Event
		endAt sql.NullTime
	)
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Venue, &e.OwnerEmail,
		&e.StartAt, &endAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if endAt.Valid {
		t := endAt.Time
		e.EndAt = &t
	}
	return &e, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// CreateEvent inserts an event and its initial areas in one transaction.
// A duplicate event name for the same owner returns models.ErrConflict.
func (db *DB) CreateEvent(ctx context.Context, e *models.Event, areas []*models.Area) error {
	return db.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		now := time.Now().UTC()
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.UpdatedAt = e.CreatedAt

		_, err := tx.tx.ExecContext(ctx,
			`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Name, e.Description, e.Venue, e.OwnerEmail,
			e.StartAt.UTC(), nullableTime(e.EndAt), e.CreatedAt, e.UpdatedAt)
		if err != nil {
			return storeErr("create event", err)
		}

		for _, a := range areas {
			a.OwnerEmail = e.OwnerEmail
			eventID := e.ID
			a.EventID = &eventID
			if err := createArea(ctx, tx.tx, a); err != nil {
				return err
			}
		}
		return nil
	})
}

// EventByID fetches an event scoped to its owner.
func (db *DB) EventByID(ctx context.Context, id uuid.UUID, ownerEmail string) (*models.Event, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(opCtx,
		`SELECT `+eventColumns+` FROM events WHERE id = ? AND owner_email = ?`, id, ownerEmail)
	e, err := scanEvent(row)
	if err != nil {
		return nil, storeErr("get event", err)
	}
	return e, nil
}

// PublicEventByID fetches an event without tenant scoping, for attendee
// dashboards reached from a shared link.
func (db *DB) PublicEventByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(opCtx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err != nil {
		return nil, storeErr("get event", err)
	}
	return e, nil
}

// PublicAreasByEvent returns an event's areas without tenant scoping.
func (db *DB) PublicAreasByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Area, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	areas, err := collectAreas(opCtx, db.conn,
		`SELECT `+areaColumns+` FROM areas WHERE event_id = ? ORDER BY created_at, name`, eventID)
	if err != nil {
		return nil, storeErr("list event areas", err)
	}
	return areas, nil
}

// ListEvents returns all events owned by the tenant, soonest start first.
func (db *DB) ListEvents(ctx context.Context, ownerEmail string) ([]*models.Event, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(opCtx,
		`SELECT `+eventColumns+` FROM events WHERE owner_email = ? ORDER BY start_at, name`, ownerEmail)
	if err != nil {
		return nil, storeErr("list events", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, storeErr("list events", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list events", err)
	}
	return events, nil
}

// UpdateEvent rewrites the event fields and, when areas is non-nil,
// replaces the event's area set wholesale: existing areas and their alerts
// are dropped and the new definitions inserted with zeroed counters.
//
// Replacing live areas discards their current counts. That matches the
// dashboard's "edit event layout" semantics but is destructive, so it is
// logged at warn level with the area count.
func (db *DB) UpdateEvent(ctx context.Context, e *models.Event, areas []*models.Area) error {
	return db.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		e.UpdatedAt = time.Now().UTC()
		res, err := tx.tx.ExecContext(ctx,
			`UPDATE events SET name = ?, description = ?, venue = ?, start_at = ?, end_at = ?, updated_at = ?
			 WHERE id = ? AND owner_email = ?`,
			e.Name, e.Description, e.Venue, e.StartAt.UTC(), nullableTime(e.EndAt),
			e.UpdatedAt, e.ID, e.OwnerEmail)
		if err != nil {
			return storeErr("update event", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storeErr("update event", err)
		}
		if n == 0 {
			return fmt.Errorf("update event: %w", models.ErrNotFound)
		}

		if areas == nil {
			return nil
		}

		logging.Warn().
			Str("event_id", e.ID.String()).
			Int("new_areas", len(areas)).
			Msg("Replacing event areas; live occupancy counts are discarded")

		if err := deleteEventAreas(ctx, tx.tx, e.ID); err != nil {
			return err
		}
		for _, a := range areas {
			a.OwnerEmail = e.OwnerEmail
			eventID := e.ID
			a.EventID = &eventID
			a.CurrentCount = 0
			if err := createArea(ctx, tx.tx, a); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteEvent removes an event, its areas, and the alerts of those areas.
// Scan logs are kept for historical reporting.
func (db *DB) DeleteEvent(ctx context.Context, id uuid.UUID, ownerEmail string) error {
	return db.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		res, err := tx.tx.ExecContext(ctx,
			`DELETE FROM events WHERE id = ? AND owner_email = ?`, id, ownerEmail)
		if err != nil {
			return storeErr("delete event", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storeErr("delete event", err)
		}
		if n == 0 {
			return fmt.Errorf("delete event: %w", models.ErrNotFound)
		}
		return deleteEventAreas(ctx, tx.tx, id)
	})
}

func deleteEventAreas(ctx context.Context, q querier, eventID uuid.UUID) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM alerts WHERE area_id IN (SELECT id FROM areas WHERE event_id = ?)`, eventID)
	if err != nil {
		return storeErr("delete event alerts", err)
	}
	_, err = q.ExecContext(ctx, `DELETE FROM areas WHERE event_id = ?`, eventID)
	return storeErr("delete event areas", err)
}
