// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/venuepulse/venuepulse/internal/metrics"
	"github.com/venuepulse/venuepulse/internal/models"
)

// CreateScan registers one ENTRY or EXIT observation. Unauthenticated:
// gate scanners only hold the area ID decoded from the QR code.
func (h *Handler) CreateScan(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	start := time.Now()
	result, err := h.processor.ProcessScan(r.Context(), req.AreaID, req.Kind)
	metrics.RecordScanDuration(time.Since(start))
	if err != nil {
		metrics.RecordScanFailure(scanFailureReason(err))
		// An unknown area means a stale or mistyped QR code, a client
		// error rather than a missing resource.
		if errors.Is(err, models.ErrNotFound) {
			respondErrorMsg(w, http.StatusBadRequest, "area not found")
			return
		}
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result.Scan)
}

func scanFailureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrStoreTimeout):
		return "timeout"
	case models.IsValidation(err):
		return "validation"
	default:
		return "other"
	}
}

// RecentScans returns the tenant's newest scans.
func (h *Handler) RecentScans(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	limit, err := limitParam(r, 20, 200)
	if err != nil {
		respondError(w, r, err)
		return
	}

	scans, err := h.db.RecentScans(r.Context(), email, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, scans)
}

// ScansToday returns the tenant's scans since midnight UTC.
func (h *Handler) ScansToday(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	scans, err := h.db.ScansToday(r.Context(), email, h.now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, scans)
}

// ScansByArea returns one area's newest scans. The ownership check runs
// first so a foreign area ID reads as 404 rather than an empty list.
func (h *Handler) ScansByArea(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	areaID, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	limit, err := limitParam(r, 50, 500)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if _, err := h.db.AreaByID(r.Context(), areaID, email); err != nil {
		respondError(w, r, err)
		return
	}

	scans, err := h.db.ScansByArea(r.Context(), areaID, email, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, scans)
}

// AreaTrend returns the hourly entry/exit aggregation for one area since
// midnight UTC.
func (h *Handler) AreaTrend(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	areaID, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if _, err := h.db.AreaByID(r.Context(), areaID, email); err != nil {
		respondError(w, r, err)
		return
	}

	midnight := h.now().UTC().Truncate(24 * time.Hour)
	trend, err := h.db.HourlyTrend(r.Context(), areaID, midnight)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, trend)
}
