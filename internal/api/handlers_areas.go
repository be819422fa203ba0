// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package api

import (
	"net/http"

	"github.com/venuepulse/venuepulse/internal/models"
)

// validateAreaBounds enforces the cross-field rule the struct tags cannot:
// the soft threshold must not exceed the hard capacity.
func validateAreaBounds(name string, capacity, threshold int) error {
	if threshold > capacity {
		return models.Validationf("threshold (%d) cannot exceed capacity (%d) for area %q", threshold, capacity, name)
	}
	return nil
}

// ListAreas returns all of the tenant's areas.
func (h *Handler) ListAreas(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	areas, err := h.db.ListAreas(r.Context(), email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, areaResponses(areas))
}

// AreasNeedingAttention returns the tenant's areas at or above threshold.
func (h *Handler) AreasNeedingAttention(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	areas, err := h.db.AreasNeedingAttention(r.Context(), email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, areaResponses(areas))
}

// GetArea returns one of the tenant's areas.
func (h *Handler) GetArea(w http.ResponseWriter, r *http.Request) {
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

	area, err := h.db.AreaByID(r.Context(), id, email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.NewAreaResponse(area))
}

// GetPublicArea returns an area without tenant scoping, for the scan page
// a QR code opens.
func (h *Handler) GetPublicArea(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	area, err := h.db.PublicAreaByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.NewAreaResponse(area))
}

// CreateArea creates a standalone area for the tenant.
func (h *Handler) CreateArea(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req models.AreaRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validateAreaBounds(req.Name, req.Capacity, req.Threshold); err != nil {
		respondError(w, r, err)
		return
	}

	area := &models.Area{
		Name:       req.Name,
		OwnerEmail: email,
		Capacity:   req.Capacity,
		Threshold:  req.Threshold,
		GenerateQR: req.GenerateQR == nil || *req.GenerateQR,
	}
	if err := h.db.CreateArea(r.Context(), area); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, models.NewAreaResponse(area))
}

// UpdateArea rewrites an area's name, capacity, threshold, and QR flag.
// Counter changes go through scans or reset, never through here.
func (h *Handler) UpdateArea(w http.ResponseWriter, r *http.Request) {
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

	var req models.AreaRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validateAreaBounds(req.Name, req.Capacity, req.Threshold); err != nil {
		respondError(w, r, err)
		return
	}

	area, err := h.db.AreaByID(r.Context(), id, email)
	if err != nil {
		respondError(w, r, err)
		return
	}

	area.Name = req.Name
	area.Capacity = req.Capacity
	area.Threshold = req.Threshold
	if req.GenerateQR != nil {
		area.GenerateQR = *req.GenerateQR
	}
	if err := h.db.UpdateArea(r.Context(), area); err != nil {
		respondError(w, r, err)
		return
	}

	// New limits may change the traffic-light state without any scan.
	h.hub.PublishAreaUpdate(models.NewAreaResponse(area))

	respondJSON(w, http.StatusOK, models.NewAreaResponse(area))
}

// DeleteArea removes an area and its alerts.
func (h *Handler) DeleteArea(w http.ResponseWriter, r *http.Request) {
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

	if err := h.processor.DeleteArea(r.Context(), id, email); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// ResetAreaCount zeroes an area's live counter.
func (h *Handler) ResetAreaCount(w http.ResponseWriter, r *http.Request) {
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

	area, err := h.processor.ResetArea(r.Context(), id, email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.NewAreaResponse(area))
}

func areaResponses(areas []*models.Area) []models.AreaResponse {
	out := make([]models.AreaResponse, 0, len(areas))
	for _, a := range areas {
		out = append(out, models.NewAreaResponse(a))
	}
	return out
}
