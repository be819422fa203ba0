// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package api

import (
	"context"
	"net/http"

	"github.com/venuepulse/venuepulse/internal/models"
)

// validateEventWindow rejects an end time before the start time. The
// validator tags cannot express this cross-field constraint.
func validateEventWindow(req *models.EventRequest) error {
	if req.EndAt != nil && req.EndAt.Before(req.StartAt) {
		return models.Validationf("end time cannot be before start time")
	}
	return nil
}

// eventAreasFromInputs converts nested area definitions to entities.
func eventAreasFromInputs(inputs []models.AreaInput) ([]*models.Area, error) {
	areas := make([]*models.Area, 0, len(inputs))
	for _, in := range inputs {
		if err := validateAreaBounds(in.Name, in.Capacity, in.Threshold); err != nil {
			return nil, err
		}
		areas = append(areas, &models.Area{
			Name:       in.Name,
			Capacity:   in.Capacity,
			Threshold:  in.Threshold,
			GenerateQR: in.GenerateQR == nil || *in.GenerateQR,
		})
	}
	return areas, nil
}

// eventResponses builds wire events with their areas. Areas are fetched
// once and grouped so listing N events costs two queries, not N+1.
func (h *Handler) eventResponses(ctx context.Context, email string, events []*models.Event) ([]models.EventResponse, error) {
	areas, err := h.db.ListAreas(ctx, email)
	if err != nil {
		return nil, err
	}

	byEvent := make(map[string][]*models.Area)
	for _, a := range areas {
		if a.EventID == nil {
			continue
		}
		key := a.EventID.String()
		byEvent[key] = append(byEvent[key], a)
	}

	now := h.now()
	out := make([]models.EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, models.NewEventResponse(e, byEvent[e.ID.String()], now, h.defaultEventDuration))
	}
	return out, nil
}

// ListEvents returns all of the tenant's events with nested areas.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	h.listEventsFiltered(w, r, "")
}

// ListLiveEvents returns the tenant's currently running events.
func (h *Handler) ListLiveEvents(w http.ResponseWriter, r *http.Request) {
	h.listEventsFiltered(w, r, models.EventLive)
}

// ListUpcomingEvents returns the tenant's not-yet-started events.
func (h *Handler) ListUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	h.listEventsFiltered(w, r, models.EventUpcoming)
}

// ListCompletedEvents returns the tenant's finished events.
func (h *Handler) ListCompletedEvents(w http.ResponseWriter, r *http.Request) {
	h.listEventsFiltered(w, r, models.EventCompleted)
}

func (h *Handler) listEventsFiltered(w http.ResponseWriter, r *http.Request, status models.EventStatus) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	events, err := h.db.ListEvents(r.Context(), email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	responses, err := h.eventResponses(r.Context(), email, events)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if status != "" {
		filtered := make([]models.EventResponse, 0, len(responses))
		for _, resp := range responses {
			if resp.Status == status {
				filtered = append(filtered, resp)
			}
		}
		responses = filtered
	}
	respondJSON(w, http.StatusOK, responses)
}

// GroupedEvents returns the tenant's events bucketed by lifecycle status.
func (h *Handler) GroupedEvents(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	events, err := h.db.ListEvents(r.Context(), email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	responses, err := h.eventResponses(r.Context(), email, events)
	if err != nil {
		respondError(w, r, err)
		return
	}

	grouped := map[models.EventStatus][]models.EventResponse{
		models.EventLive:      {},
		models.EventUpcoming:  {},
		models.EventCompleted: {},
	}
	for _, resp := range responses {
		grouped[resp.Status] = append(grouped[resp.Status], resp)
	}
	respondJSON(w, http.StatusOK, grouped)
}

// GetEvent returns one of the tenant's events with nested areas.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
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

	event, err := h.db.EventByID(r.Context(), id, email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	areas, err := h.db.ListAreasByEvent(r.Context(), id, email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.NewEventResponse(event, areas, h.now(), h.defaultEventDuration))
}

// GetPublicEvent returns an event without tenant scoping, for attendee
// dashboards reached from a shared link.
func (h *Handler) GetPublicEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	event, err := h.db.PublicEventByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	areas, err := h.db.PublicAreasByEvent(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.NewEventResponse(event, areas, h.now(), h.defaultEventDuration))
}

// CreateEvent creates an event with its nested areas in one transaction.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req models.EventRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validateEventWindow(&req); err != nil {
		respondError(w, r, err)
		return
	}
	areas, err := eventAreasFromInputs(req.Areas)
	if err != nil {
		respondError(w, r, err)
		return
	}

	event := &models.Event{
		Name:        req.Name,
		Description: req.Description,
		Venue:       req.Venue,
		OwnerEmail:  email,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	}
	if err := h.db.CreateEvent(r.Context(), event, areas); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, models.NewEventResponse(event, areas, h.now(), h.defaultEventDuration))
}

// UpdateEvent rewrites an event. When the body carries an areas array the
// event's area set is replaced and counters restart at zero; omitting the
// array keeps the existing areas untouched.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
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

	var req models.EventRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validateEventWindow(&req); err != nil {
		respondError(w, r, err)
		return
	}

	event, err := h.db.EventByID(r.Context(), id, email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	event.Name = req.Name
	event.Description = req.Description
	event.Venue = req.Venue
	event.StartAt = req.StartAt
	event.EndAt = req.EndAt

	var areas []*models.Area
	if req.Areas != nil {
		areas, err = eventAreasFromInputs(req.Areas)
		if err != nil {
			respondError(w, r, err)
			return
		}
	}
	if err := h.db.UpdateEvent(r.Context(), event, areas); err != nil {
		respondError(w, r, err)
		return
	}

	current, err := h.db.ListAreasByEvent(r.Context(), id, email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.NewEventResponse(event, current, h.now(), h.defaultEventDuration))
}

// DeleteEvent removes an event, cascading to its areas and their alerts.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
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

	if err := h.db.DeleteEvent(r.Context(), id, email); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
