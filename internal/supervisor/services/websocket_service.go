// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package services

import (
	"context"
)

// ContextHub matches *websocket.Hub's RunWithContext method without
// importing the websocket package.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// WebSocketHubService wraps the broadcast hub as a supervised service.
// The hub's RunWithContext already follows the suture.Service contract,
// so the wrapper only delegates and names it for logging.
type WebSocketHubService struct {
	hub ContextHub
}

// NewWebSocketHubService wraps a hub as a supervised service.
func NewWebSocketHubService(hub ContextHub) *WebSocketHubService {
	return &WebSocketHubService{hub: hub}
}

// Serve implements suture.Service.
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	return w.hub.RunWithContext(ctx)
}

// String identifies the service in supervisor logs.
func (w *WebSocketHubService) String() string {
	return "websocket-hub"
}
