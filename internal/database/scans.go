// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/venuepulse/venuepulse/internal/models"
)

// InsertScanLog appends one observation inside the scan transaction.
func (tx *Tx) InsertScanLog(ctx context.Context, log *models.ScanLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	_, err := tx.tx.ExecContext(ctx,
		`INSERT INTO scan_logs (id, area_id, kind, ts) VALUES (?, ?, ?, ?)`,
		log.ID, log.AreaID, log.Kind, log.Timestamp.UTC())
	return storeErr("insert scan log", err)
}

const scanListQuery = `
	SELECT s.id, s.area_id, a.name, s.kind, s.ts, a.current_count
	FROM scan_logs s
	JOIN areas a ON a.id = s.area_id`

func (db *DB) collectScans(ctx context.Context, query string, args ...any) ([]models.ScanResponse, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(opCtx, query, args...)
	if err != nil {
		return nil, storeErr("list scans", err)
	}
	defer rows.Close()

	scans := make([]models.ScanResponse, 0)
	for rows.Next() {
		var s models.ScanResponse
		if err := rows.Scan(&s.ID, &s.AreaID, &s.AreaName, &s.Kind, &s.Timestamp, &s.NewCount); err != nil {
			return nil, storeErr("list scans", err)
		}
		scans = append(scans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list scans", err)
	}
	return scans, nil
}

// RecentScans returns the owner's newest scan logs, joined with the area's
// name and live count. Logs whose area was deleted are omitted here; they
// still count in trend aggregates.
func (db *DB) RecentScans(ctx context.Context, ownerEmail string, limit int) ([]models.ScanResponse, error) {
	return db.collectScans(ctx,
		scanListQuery+` WHERE a.owner_email = ? ORDER BY s.ts DESC LIMIT ?`,
		ownerEmail, limit)
}

// ScansToday returns the owner's scans since midnight UTC, newest first.
func (db *DB) ScansToday(ctx context.Context, ownerEmail string, now time.Time) ([]models.ScanResponse, error) {
	midnight := now.UTC().Truncate(24 * time.Hour)
	return db.collectScans(ctx,
		scanListQuery+` WHERE a.owner_email = ? AND s.ts >= ? ORDER BY s.ts DESC`,
		ownerEmail, midnight)
}

// ScansByArea returns the newest scan logs for one area, owner scoped.
func (db *DB) ScansByArea(ctx context.Context, areaID uuid.UUID, ownerEmail string, limit int) ([]models.ScanResponse, error) {
	return db.collectScans(ctx,
		scanListQuery+` WHERE s.area_id = ? AND a.owner_email = ? ORDER BY s.ts DESC LIMIT ?`,
		areaID, ownerEmail, limit)
}

// HourlyTrend aggregates one area's entries and exits into hour-of-day
// buckets ("14:00") since the given time. Callers pass a window of at most
// one day so buckets never merge across days. Hours without scans are
// absent from the result; the dashboard fills the gaps.
func (db *DB) HourlyTrend(ctx context.Context, areaID uuid.UUID, since time.Time) ([]models.HourlyTrend, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(opCtx,
		`SELECT strftime(ts, '%H:00') AS hour,
		        count(*) FILTER (WHERE kind = 'ENTRY') AS entries,
		        count(*) FILTER (WHERE kind = 'EXIT') AS exits
		 FROM scan_logs
		 WHERE area_id = ? AND ts >= ?
		 GROUP BY hour
		 ORDER BY hour`,
		areaID, since.UTC())
	if err != nil {
		return nil, storeErr("hourly trend", err)
	}
	defer rows.Close()

	trend := make([]models.HourlyTrend, 0)
	for rows.Next() {
		var t models.HourlyTrend
		if err := rows.Scan(&t.Hour, &t.Entries, &t.Exits); err != nil {
			return nil, storeErr("hourly trend", err)
		}
		t.Net = t.Entries - t.Exits
		trend = append(trend, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("hourly trend", err)
	}
	return trend, nil
}
