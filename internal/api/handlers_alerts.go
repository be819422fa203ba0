// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package api

import (
	"net/http"

	"github.com/venuepulse/venuepulse/internal/database"
	"github.com/venuepulse/venuepulse/internal/models"
)

func alertResponses(alerts []*models.Alert) []models.AlertResponse {
	out := make([]models.AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, models.NewAlertResponse(a))
	}
	return out
}

// parseAlertFilter reads the status/type/range query parameters.
func parseAlertFilter(r *http.Request) (database.AlertFilter, error) {
	var filter database.AlertFilter

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.AlertStatus(raw)
		if !status.Valid() {
			return filter, models.Validationf("invalid status %q", raw)
		}
		filter.Status = status
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		kind := models.AlertKind(raw)
		if !kind.Valid() {
			return filter, models.Validationf("invalid type %q", raw)
		}
		filter.Kind = kind
	}
	rng := database.AlertRange(r.URL.Query().Get("range"))
	if !rng.Valid() {
		return filter, models.Validationf("invalid range %q, want today, 24h, 7d or 30d", string(rng))
	}
	filter.Range = rng

	return filter, nil
}

// ListAlerts returns the tenant's alerts, optionally filtered by status,
// type, and creation-time range.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	filter, err := parseAlertFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	alerts, err := h.db.ListAlerts(r.Context(), email, filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, alertResponses(alerts))
}

// ActiveAlerts returns the tenant's non-RESOLVED alerts.
func (h *Handler) ActiveAlerts(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	alerts, err := h.db.ActiveAlerts(r.Context(), email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, alertResponses(alerts))
}

// AlertsByArea returns one area's alert history.
func (h *Handler) AlertsByArea(w http.ResponseWriter, r *http.Request) {
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

	alerts, err := h.db.AlertsByArea(r.Context(), areaID, email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, alertResponses(alerts))
}

// UnreadAlertCount returns the badge count.
func (h *Handler) UnreadAlertCount(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	count, err := h.db.UnreadAlertCount(r.Context(), email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": count})
}

// MarkAlertRead moves one alert from UNREAD to READ.
func (h *Handler) MarkAlertRead(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	alert, err := h.db.MarkAlertRead(r.Context(), id, email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.NewAlertResponse(alert))
}

// ResolveAlert force-resolves one alert. This is the only resolution path
// for RAPID_INFLOW alerts.
func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	alert, err := h.db.ResolveAlert(r.Context(), id, email, h.now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.NewAlertResponse(alert))
}

// MarkAllAlertsRead moves all of the tenant's UNREAD alerts to READ.
func (h *Handler) MarkAllAlertsRead(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := h.db.MarkAllAlertsRead(r.Context(), email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"updated": updated})
}
