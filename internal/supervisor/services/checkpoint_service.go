// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package services

import (
	"context"
	"time"

	"github.com/venuepulse/venuepulse/internal/logging"
)

// Checkpointer matches *database.DB's Checkpoint method.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// CheckpointService periodically flushes the store's write-ahead log to
// the main database file, bounding replay time after a crash. Scan
// ingest is write-heavy, so without this the WAL only shrinks on clean
// shutdown.
type CheckpointService struct {
	db       Checkpointer
	interval time.Duration
}

// NewCheckpointService creates a periodic checkpoint service.
func NewCheckpointService(db Checkpointer, interval time.Duration) *CheckpointService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CheckpointService{db: db, interval: interval}
}

// Serve implements suture.Service. Checkpoint failures are logged and
// retried next tick rather than crashing the service.
func (c *CheckpointService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.db.Checkpoint(ctx); err != nil {
				logging.Warn().Err(err).Msg("Periodic checkpoint failed")
			} else {
				logging.Debug().Msg("Periodic checkpoint complete")
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (c *CheckpointService) String() string {
	return "db-checkpoint"
}
