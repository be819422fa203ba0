// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/venuepulse/venuepulse/internal/auth"
	"github.com/venuepulse/venuepulse/internal/logging"
	"github.com/venuepulse/venuepulse/internal/models"
	"github.com/venuepulse/venuepulse/internal/validation"
)

const maxBodyBytes = 1 << 20 // 1 MB

// errorBody is the uniform error envelope.
type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondErrorMsg(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorBody{Error: msg})
}

// respondError maps domain errors to status codes. Anything unrecognized is
// a 500 with a generic body; the detail goes to the log, not the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *validation.RequestValidationError
	switch {
	case models.IsValidation(err), errors.As(err, &ve):
		respondErrorMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		respondErrorMsg(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, models.ErrNotFound):
		respondErrorMsg(w, http.StatusNotFound, "not found")
	// Conflicts answer 400, not 409: scanner firmware and the dashboard
	// only distinguish 2xx/4xx/5xx.
	case errors.Is(err, models.ErrConflict):
		respondErrorMsg(w, http.StatusBadRequest, "already exists")
	case errors.Is(err, models.ErrStoreTimeout):
		respondErrorMsg(w, http.StatusServiceUnavailable, "store timeout, try again")
	default:
		logger := logging.FromContext(r.Context())
		logger.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Unhandled request error")
		respondErrorMsg(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON decodes and validates a request body into v.
func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.Validationf("invalid request body: %v", err)
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		return verr
	}
	return nil
}

// uuidParam parses a UUID route parameter.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, models.Validationf("invalid %s %q", name, raw)
	}
	return id, nil
}

// limitParam parses a ?limit= query parameter with a default and cap.
func limitParam(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, models.Validationf("invalid limit %q", raw)
	}
	if limit > max {
		limit = max
	}
	return limit, nil
}

// tenantFrom pulls the tenant email that auth.RequireTenant injected.
// Reaching a tenant-scoped handler without it is a routing bug.
func tenantFrom(r *http.Request) (string, error) {
	email, ok := auth.TenantFrom(r.Context())
	if !ok {
		return "", fmt.Errorf("tenant missing from context: %w", models.ErrUnauthorized)
	}
	return email, nil
}
