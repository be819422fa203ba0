// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

// Package api provides the HTTP surface: chi routing, middleware factories,
// and the JSON handlers over the store, scan processor, and websocket hub.
package api

import (
	"net/http"
	"time"

	"github.com/venuepulse/venuepulse/internal/auth"
	"github.com/venuepulse/venuepulse/internal/database"
	"github.com/venuepulse/venuepulse/internal/engine"
	"github.com/venuepulse/venuepulse/internal/websocket"
)

// Handler carries the dependencies of all HTTP handlers.
type Handler struct {
	db        *database.DB
	processor *engine.Processor
	hub       *websocket.Hub
	auth      *auth.Service

	// defaultEventDuration is assumed for events without an end time when
	// deriving their lifecycle status.
	defaultEventDuration time.Duration

	allowedOrigins []string

	// now is the injected time source, time.Now in production.
	now func() time.Time
}

// NewHandler creates the handler set.
func NewHandler(db *database.DB, processor *engine.Processor, hub *websocket.Hub, authSvc *auth.Service, defaultEventDuration time.Duration, allowedOrigins []string) *Handler {
	return &Handler{
		db:                   db,
		processor:            processor,
		hub:                  hub,
		auth:                 authSvc,
		defaultEventDuration: defaultEventDuration,
		allowedOrigins:       allowedOrigins,
		now:                  time.Now,
	}
}

// SetTimeSource overrides the clock, for tests.
func (h *Handler) SetTimeSource(now func() time.Time) {
	h.now = now
}

// healthResponse is the body of GET /api/health.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health reports liveness and store reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "up"}
	status := http.StatusOK

	if err := h.db.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = "down"
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}
