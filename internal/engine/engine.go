// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

// Package engine processes scans: it mutates occupancy counters, appends
// the scan log, runs the alert rules, and fans results out to websocket
// subscribers after commit.
//
// All state reads and writes for one scan happen inside a single store
// transaction, so two concurrent scans of the same area cannot both open
// an alert for the same condition. Broadcasts happen only after the
// transaction commits; subscribers never observe rolled-back state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/venuepulse/venuepulse/internal/database"
	"github.com/venuepulse/venuepulse/internal/detection"
	"github.com/venuepulse/venuepulse/internal/logging"
	"github.com/venuepulse/venuepulse/internal/metrics"
	"github.com/venuepulse/venuepulse/internal/models"
)

// Broadcaster pushes state changes to live subscribers. The websocket hub
// implements it; tests substitute a recorder.
type Broadcaster interface {
	PublishAreaUpdate(area models.AreaResponse)
	PublishScan(scan models.ScanEventMessage)
	PublishAlert(alert models.AlertResponse)
}

// Processor owns the scan pipeline.
type Processor struct {
	db          *database.DB
	detector    *detection.InflowDetector
	broadcaster Broadcaster

	// now is the injected time source, time.Now in production.
	now func() time.Time
}

// NewProcessor wires the scan pipeline.
func NewProcessor(db *database.DB, detector *detection.InflowDetector, broadcaster Broadcaster) *Processor {
	return &Processor{
		db:          db,
		detector:    detector,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// SetTimeSource overrides the clock, for tests.
func (p *Processor) SetTimeSource(now func() time.Time) {
	p.now = now
}

// ScanResult is what one processed scan produced.
type ScanResult struct {
	Scan   models.ScanResponse
	Area   *models.Area
	Opened []*models.Alert
}

// ProcessScan registers one ENTRY or EXIT observation for an area.
//
// The rapid-inflow window is fed on every ENTRY before the transaction, so
// entries count toward the window even when the same scan also trips an
// occupancy alert. A scan that later fails to commit leaves its entry in
// the window; the detector tolerates that overcount rather than trying to
// unwind in-memory state. Scans against areas that do not exist are the
// exception: their window is dropped entirely.
func (p *Processor) ProcessScan(ctx context.Context, areaID uuid.UUID, kind models.ScanKind) (*ScanResult, error) {
	now := p.now().UTC()

	inflowTripped := false
	if kind == models.ScanEntry {
		inflowTripped = p.detector.RecordEntry(areaID, now)
	}

	var result ScanResult
	err := p.db.WithTx(ctx, func(ctx context.Context, tx *database.Tx) error {
		area, err := tx.AreaForScan(ctx, areaID)
		if err != nil {
			return err
		}

		var newCount int
		switch kind {
		case models.ScanEntry:
			newCount, err = tx.IncrementCount(ctx, areaID, now)
		case models.ScanExit:
			newCount, err = tx.DecrementCount(ctx, areaID, now)
		default:
			return models.Validationf("unknown scan kind %q", kind)
		}
		if err != nil {
			return err
		}
		area.CurrentCount = newCount

		log := &models.ScanLog{AreaID: areaID, Kind: kind, Timestamp: now}
		if err := tx.InsertScanLog(ctx, log); err != nil {
			return err
		}

		var opened []*models.Alert
		switch kind {
		case models.ScanEntry:
			opened, err = p.evaluateEntry(ctx, tx, area, now, inflowTripped)
		case models.ScanExit:
			err = p.evaluateExit(ctx, tx, area, now)
		}
		if err != nil {
			return err
		}

		result = ScanResult{
			Scan:   models.NewScanResponse(log, area.Name, newCount),
			Area:   area,
			Opened: opened,
		}
		return nil
	})
	if err != nil {
		// The endpoint is anonymous, so arbitrary UUIDs arrive here.
		// Drop the pre-fed window when the area does not exist; otherwise
		// bogus IDs grow the detector's area map without bound.
		if kind == models.ScanEntry && errors.Is(err, models.ErrNotFound) {
			p.detector.Forget(areaID)
		}
		return nil, err
	}

	p.publish(&result, kind)
	metrics.RecordScan(string(kind))

	logging.Debug().
		Str("area_id", areaID.String()).
		Str("kind", string(kind)).
		Int("new_count", result.Area.CurrentCount).
		Int("alerts_opened", len(result.Opened)).
		Msg("Scan processed")

	return &result, nil
}

// evaluateEntry applies the entry rules: overcrowding beats threshold
// breach, and a tripped inflow window opens its alert independently of
// either.
func (p *Processor) evaluateEntry(ctx context.Context, tx *database.Tx, area *models.Area, now time.Time, inflowTripped bool) ([]*models.Alert, error) {
	var opened []*models.Alert

	switch {
	case area.CurrentCount >= area.Capacity:
		a, err := p.openAlert(ctx, tx, area, models.AlertOvercrowding, now)
		if err != nil {
			return nil, err
		}
		if a != nil {
			opened = append(opened, a)
		}
	case area.CurrentCount >= area.Threshold:
		a, err := p.openAlert(ctx, tx, area, models.AlertThresholdBreach, now)
		if err != nil {
			return nil, err
		}
		if a != nil {
			opened = append(opened, a)
		}
	}

	if inflowTripped {
		a, err := p.openAlert(ctx, tx, area, models.AlertRapidInflow, now)
		if err != nil {
			return nil, err
		}
		if a != nil {
			opened = append(opened, a)
		}
	}

	return opened, nil
}

// evaluateExit resolves occupancy alerts once the count drops below their
// trigger lines. RAPID_INFLOW never auto-resolves; operators close it by
// hand once the crowd is under control.
func (p *Processor) evaluateExit(ctx context.Context, tx *database.Tx, area *models.Area, now time.Time) error {
	if area.CurrentCount < area.Threshold {
		if err := p.resolveAlerts(ctx, tx, area, models.AlertThresholdBreach, now); err != nil {
			return err
		}
	}
	if area.CurrentCount < area.Capacity {
		if err := p.resolveAlerts(ctx, tx, area, models.AlertOvercrowding, now); err != nil {
			return err
		}
	}
	return nil
}

// openAlert opens an alert of the given kind unless one is already open
// for the area. Returns nil without error when suppressed by the
// one-open-alert-per-kind rule.
func (p *Processor) openAlert(ctx context.Context, tx *database.Tx, area *models.Area, kind models.AlertKind, now time.Time) (*models.Alert, error) {
	open, err := tx.HasOpenAlert(ctx, area.ID, kind)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, nil
	}

	alert := &models.Alert{
		AreaID:       area.ID,
		AreaName:     area.Name,
		OwnerEmail:   area.OwnerEmail,
		Kind:         kind,
		Status:       models.AlertUnread,
		Message:      p.alertMessage(area, kind),
		CurrentCount: area.CurrentCount,
		Threshold:    area.Threshold,
		Capacity:     area.Capacity,
		OccupancyPct: area.OccupancyPct(),
		CreatedAt:    now,
	}
	if err := tx.InsertAlert(ctx, alert); err != nil {
		return nil, err
	}

	metrics.RecordAlertOpened(string(kind))
	logging.Info().
		Str("area_id", area.ID.String()).
		Str("kind", string(kind)).
		Int("count", area.CurrentCount).
		Int("capacity", area.Capacity).
		Msg("Alert opened")

	return alert, nil
}

func (p *Processor) resolveAlerts(ctx context.Context, tx *database.Tx, area *models.Area, kind models.AlertKind, now time.Time) error {
	ids, err := tx.ResolveOpenAlerts(ctx, area.ID, kind, now)
	if err != nil {
		return err
	}
	for range ids {
		metrics.RecordAlertResolved(string(kind))
	}
	if len(ids) > 0 {
		logging.Info().
			Str("area_id", area.ID.String()).
			Str("kind", string(kind)).
			Int("count", area.CurrentCount).
			Msg("Alert resolved by falling occupancy")
	}
	return nil
}

// alertMessage renders the operator-facing summary line. Dashboards render
// from the structured fields; the message is for notification surfaces.
func (p *Processor) alertMessage(area *models.Area, kind models.AlertKind) string {
	pct := 0
	if area.Capacity > 0 {
		pct = area.CurrentCount * 100 / area.Capacity
	}
	switch kind {
	case models.AlertOvercrowding:
		return fmt.Sprintf("%s is overcrowded at %d%% capacity (%d/%d)",
			area.Name, pct, area.CurrentCount, area.Capacity)
	case models.AlertThresholdBreach:
		return fmt.Sprintf("%s has breached threshold at %d%% capacity (%d/%d)",
			area.Name, pct, area.CurrentCount, area.Capacity)
	case models.AlertRapidInflow:
		return fmt.Sprintf("Rapid inflow detected at %s - %d entries in %d seconds",
			area.Name, p.detector.Count(), p.detector.WindowSeconds())
	default:
		return string(kind)
	}
}

func (p *Processor) publish(result *ScanResult, kind models.ScanKind) {
	p.broadcaster.PublishAreaUpdate(models.NewAreaResponse(result.Area))
	p.broadcaster.PublishScan(models.ScanEventMessage{
		AreaID:   result.Area.ID,
		Kind:     kind,
		NewCount: result.Area.CurrentCount,
	})
	for _, a := range result.Opened {
		p.broadcaster.PublishAlert(models.NewAlertResponse(a))
	}
}

// DeleteArea removes an area and drops its inflow window so a reused UUID
// can never inherit stale entries.
func (p *Processor) DeleteArea(ctx context.Context, areaID uuid.UUID, ownerEmail string) error {
	if err := p.db.DeleteArea(ctx, areaID, ownerEmail); err != nil {
		return err
	}
	p.detector.Forget(areaID)
	return nil
}

// ResetArea zeroes an area's counter, clears its inflow window, and
// notifies subscribers. Open alerts stay open for manual review.
func (p *Processor) ResetArea(ctx context.Context, areaID uuid.UUID, ownerEmail string) (*models.Area, error) {
	previous, err := p.db.ResetAreaCount(ctx, areaID, ownerEmail)
	if err != nil {
		return nil, err
	}
	p.detector.Forget(areaID)

	area, err := p.db.AreaByID(ctx, areaID, ownerEmail)
	if err != nil {
		return nil, err
	}
	p.broadcaster.PublishAreaUpdate(models.NewAreaResponse(area))

	logging.Info().
		Str("area_id", areaID.String()).
		Int("previous_count", previous).
		Msg("Area count reset")

	return area, nil
}
