// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package api

import (
	"errors"
	"net/http"

	"github.com/venuepulse/venuepulse/internal/logging"
	"github.com/venuepulse/venuepulse/internal/models"
)

// Login verifies a LOCAL tenant's credentials. Every failure mode answers
// the same 401 so the endpoint never reveals whether an email exists.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	tenant, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			respondJSON(w, http.StatusUnauthorized, models.LoginResponse{
				Success: false,
				Message: "Invalid email or password",
			})
			return
		}
		respondError(w, r, err)
		return
	}

	logger := logging.FromContext(r.Context())
	logger.Info().Str("email", tenant.Email).Msg("Tenant logged in")
	respondJSON(w, http.StatusOK, models.LoginResponse{
		Success:     true,
		Message:     "Login successful",
		Email:       tenant.Email,
		DisplayName: tenant.DisplayName,
	})
}

// CurrentUser echoes the resolved tenant. Header-identified tenants are
// recorded on first sight so they get a tenant row and display name.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	email, err := tenantFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	tenant, err := h.db.TenantByEmail(r.Context(), email)
	if errors.Is(err, models.ErrNotFound) {
		if err := h.db.EnsureTenant(r.Context(), email, displayNameFor(email)); err != nil {
			respondError(w, r, err)
			return
		}
		tenant, err = h.db.TenantByEmail(r.Context(), email)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tenant)
}

func displayNameFor(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return email
}
