// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

// Package detection implements the rapid-inflow detector: a per-area
// sliding window of recent entry timestamps.
//
// The window is process-local and lost on restart; it is not synchronised
// across processes. Horizontal scaling therefore requires sticky routing
// by area ID or moving the window into a shared low-latency store. False
// negatives on failover are an accepted trade-off for cheap detection.
package detection

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// InflowDetector tracks entry timestamps per area and reports when an
// area receives Count or more entries within Window.
//
// Eviction happens on every insert, so memory stays O(Count) per area.
type InflowDetector struct {
	count  int
	window time.Duration

	mu    sync.Mutex
	areas map[uuid.UUID]*areaWindow
}

// areaWindow holds one area's recent entry timestamps. Each window has its
// own mutex so areas never contend with each other.
type areaWindow struct {
	mu      sync.Mutex
	entries []time.Time
}

// NewInflowDetector creates a detector that trips at count entries within
// the given window.
func NewInflowDetector(count int, window time.Duration) *InflowDetector {
	return &InflowDetector{
		count:  count,
		window: window,
		areas:  make(map[uuid.UUID]*areaWindow),
	}
}

// Count returns the configured entry count threshold.
func (d *InflowDetector) Count() int {
	return d.count
}

// WindowSeconds returns the configured window width in whole seconds.
func (d *InflowDetector) WindowSeconds() int {
	return int(d.window / time.Second)
}

// RecordEntry appends an entry observation for the area at time now,
// evicts observations older than the window, and reports whether the
// detector tripped.
func (d *InflowDetector) RecordEntry(areaID uuid.UUID, now time.Time) bool {
	w := d.areaWindow(areaID)

	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-d.window)
	kept := w.entries[:0]
	for _, t := range w.entries {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.entries = append(kept, now)

	return len(w.entries) >= d.count
}

// Forget drops the window for an area, typically after the area or its
// count is reset.
func (d *InflowDetector) Forget(areaID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.areas, areaID)
}

func (d *InflowDetector) areaWindow(areaID uuid.UUID) *areaWindow {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.areas[areaID]
	if !ok {
		w = &areaWindow{}
		d.areas[areaID] = w
	}
	return w
}
