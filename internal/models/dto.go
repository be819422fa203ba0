// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanRequest is the body of POST /api/scans. The area ID is typically
// decoded from a QR code by the handheld scanner.
type ScanRequest struct {
	AreaID uuid.UUID `json:"areaId" validate:"required"`
	Kind   ScanKind  `json:"kind" validate:"required,oneof=ENTRY EXIT"`
}

// AreaRequest is the body of area create/update calls.
type AreaRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Capacity   int    `json:"capacity" validate:"required,min=1"`
	Threshold  int    `json:"threshold" validate:"required,min=1"`
	GenerateQR *bool  `json:"generateQr" validate:"omitempty"`
}

// AreaInput is a nested area definition inside an event request.
type AreaInput struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Capacity   int    `json:"capacity" validate:"required,min=1"`
	Threshold  int    `json:"threshold" validate:"required,min=1"`
	GenerateQR *bool  `json:"generateQr" validate:"omitempty"`
}

// EventRequest is the body of event create/update calls.
type EventRequest struct {
	Name        string      `json:"name" validate:"required,min=2,max=200"`
	Description string      `json:"description" validate:"omitempty,max=1000"`
	Venue       string      `json:"venue" validate:"omitempty,max=300"`
	StartAt     time.Time   `json:"startAt" validate:"required"`
	EndAt       *time.Time  `json:"endAt" validate:"omitempty"`
	Areas       []AreaInput `json:"areas" validate:"omitempty,dive"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse reports the outcome of a login attempt.
type LoginResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// AreaResponse is the wire form of an area, including derived status.
type AreaResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	EventID             *uuid.UUID `json:"eventId,omitempty"`
	Capacity            int        `json:"capacity"`
	Threshold           int        `json:"threshold"`
	CurrentCount        int        `json:"currentCount"`
	Status              AreaStatus `json:"status"`
	OccupancyPercentage float64    `json:"occupancyPercentage"`
	GenerateQR          bool       `json:"generateQr"`
}

// NewAreaResponse converts an area to its wire form.
func NewAreaResponse(a *Area) AreaResponse {
	return AreaResponse{
		ID:                  a.ID,
		Name:                a.Name,
		EventID:             a.EventID,
		Capacity:            a.Capacity,
		Threshold:           a.Threshold,
		CurrentCount:        a.CurrentCount,
		Status:              a.Status(),
		OccupancyPercentage: a.OccupancyPct(),
		GenerateQR:          a.GenerateQR,
	}
}

// ScanResponse is returned after a scan is registered, and reused for
// scan-log listings where NewCount carries the area's count at read time.
type ScanResponse struct {
	ID        uuid.UUID `json:"id"`
	AreaID    uuid.UUID `json:"areaId"`
	AreaName  string    `json:"areaName"`
	Kind      ScanKind  `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	NewCount  int       `json:"newCount"`
}

// NewScanResponse converts a scan log plus its area context to wire form.
func NewScanResponse(log *ScanLog, areaName string, newCount int) ScanResponse {
	return ScanResponse{
		ID:        log.ID,
		AreaID:    log.AreaID,
		AreaName:  areaName,
		Kind:      log.Kind,
		Timestamp: log.Timestamp,
		NewCount:  newCount,
	}
}

// EventResponse is the wire form of an event with nested areas and
// aggregate occupancy figures.
type EventResponse struct {
	ID                  uuid.UUID      `json:"id"`
	Name                string         `json:"name"`
	Description         string         `json:"description,omitempty"`
	Venue               string         `json:"venue,omitempty"`
	StartAt             time.Time      `json:"startAt"`
	EndAt               *time.Time     `json:"endAt,omitempty"`
	Status              EventStatus    `json:"status"`
	TotalAreas          int            `json:"totalAreas"`
	TotalCapacity       int            `json:"totalCapacity"`
	TotalCurrentCount   int            `json:"totalCurrentCount"`
	OccupancyPercentage float64        `json:"occupancyPercentage"`
	Areas               []AreaResponse `json:"areas"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// NewEventResponse converts an event and its areas to wire form. The status
// is derived from now so callers control the time source.
func NewEventResponse(e *Event, areas []*Area, now time.Time, defaultDuration time.Duration) EventResponse {
	resp := EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Venue:       e.Venue,
		StartAt:     e.StartAt,
		EndAt:       e.EndAt,
		Status:      DeriveEventStatus(now, e.StartAt, e.EndAt, defaultDuration),
		TotalAreas:  len(areas),
		Areas:       make([]AreaResponse, 0, len(areas)),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	for _, a := range areas {
		resp.TotalCapacity += a.Capacity
		resp.TotalCurrentCount += a.CurrentCount
		resp.Areas = append(resp.Areas, NewAreaResponse(a))
	}
	resp.OccupancyPercentage = OccupancyPct(resp.TotalCurrentCount, resp.TotalCapacity)
	return resp
}

// AlertResponse is the wire form of an alert, used both on REST reads and
// on the alerts websocket topic. Consumers should render from the kind and
// snapshot fields, not parse the message.
type AlertResponse struct {
	ID                  uuid.UUID   `json:"id"`
	AreaID              uuid.UUID   `json:"areaId"`
	AreaName            string      `json:"areaName"`
	Kind                AlertKind   `json:"alertType"`
	KindDisplay         string      `json:"alertTypeDisplay"`
	Status              AlertStatus `json:"status"`
	Severity            string      `json:"severity"`
	Critical            bool        `json:"critical"`
	Message             string      `json:"message"`
	OccupancyPercentage float64     `json:"occupancyPercentage"`
	CurrentCount        int         `json:"currentCount"`
	Threshold           int         `json:"threshold"`
	Capacity            int         `json:"capacity"`
	CreatedAt           time.Time   `json:"createdAt"`
	ResolvedAt          *time.Time  `json:"resolvedAt,omitempty"`
}

// NewAlertResponse converts an alert to its wire form.
func NewAlertResponse(a *Alert) AlertResponse {
	return AlertResponse{
		ID:                  a.ID,
		AreaID:              a.AreaID,
		AreaName:            a.AreaName,
		Kind:                a.Kind,
		KindDisplay:         a.Kind.Display(),
		Status:              a.Status,
		Severity:            a.Severity(),
		Critical:            a.Critical(),
		Message:             a.Message,
		OccupancyPercentage: a.OccupancyPct,
		CurrentCount:        a.CurrentCount,
		Threshold:           a.Threshold,
		Capacity:            a.Capacity,
		CreatedAt:           a.CreatedAt,
		ResolvedAt:          a.ResolvedAt,
	}
}

// ScanEventMessage is the payload of the scans websocket topic.
type ScanEventMessage struct {
	AreaID   uuid.UUID `json:"areaId"`
	Kind     ScanKind  `json:"kind"`
	NewCount int       `json:"newCount"`
}

// HourlyTrend is one bucket of the per-area hourly trend aggregation.
type HourlyTrend struct {
	Hour    string `json:"hour"`
	Entries int    `json:"entries"`
	Exits   int    `json:"exits"`
	Net     int    `json:"net"`
}
