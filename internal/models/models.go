// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

// Package models defines the domain entities of VenuePulse and the pure
// functions that derive presentation state from them.
//
// Entities follow the tenant > event > area > scan/alert ownership chain.
// The tenant identity is the owner email; it is treated as an opaque string
// supplied by the HTTP layer.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanKind classifies a scan observation.
type ScanKind string

const (
	ScanEntry ScanKind = "ENTRY"
	ScanExit  ScanKind = "EXIT"
)

// Valid reports whether the kind is one of the known scan kinds.
func (k ScanKind) Valid() bool {
	return k == ScanEntry || k == ScanExit
}

// AlertKind classifies an alert condition.
type AlertKind string

const (
	AlertOvercrowding    AlertKind = "OVERCROWDING"
	AlertThresholdBreach AlertKind = "THRESHOLD_BREACH"
	AlertRapidInflow     AlertKind = "RAPID_INFLOW"
)

// Valid reports whether the kind is one of the known alert kinds.
func (k AlertKind) Valid() bool {
	switch k {
	case AlertOvercrowding, AlertThresholdBreach, AlertRapidInflow:
		return true
	}
	return false
}

// Display returns the human-readable form used by dashboards.
func (k AlertKind) Display() string {
	switch k {
	case AlertOvercrowding:
		return "Overcrowding"
	case AlertThresholdBreach:
		return "Threshold Breach"
	case AlertRapidInflow:
		return "Rapid Inflow"
	default:
		return string(k)
	}
}

// AlertStatus is the lifecycle state of an alert: UNREAD -> READ -> RESOLVED.
type AlertStatus string

const (
	AlertUnread   AlertStatus = "UNREAD"
	AlertRead     AlertStatus = "READ"
	AlertResolved AlertStatus = "RESOLVED"
)

// Valid reports whether the status is one of the known alert statuses.
func (s AlertStatus) Valid() bool {
	switch s {
	case AlertUnread, AlertRead, AlertResolved:
		return true
	}
	return false
}

// AreaStatus is the traffic-light classification of an area.
type AreaStatus string

const (
	AreaGreen  AreaStatus = "GREEN"
	AreaYellow AreaStatus = "YELLOW"
	AreaRed    AreaStatus = "RED"
)

// EventStatus is derived from wall-clock time, never stored.
type EventStatus string

const (
	EventUpcoming  EventStatus = "UPCOMING"
	EventLive      EventStatus = "LIVE"
	EventCompleted EventStatus = "COMPLETED"
)

// AuthProvider identifies how a tenant authenticates.
type AuthProvider string

const (
	AuthLocal    AuthProvider = "LOCAL"
	AuthExternal AuthProvider = "EXTERNAL"
)

// Tenant is an isolated owner namespace keyed by email.
type Tenant struct {
	Email        string       `json:"email"`
	DisplayName  string       `json:"displayName"`
	AuthProvider AuthProvider `json:"authProvider"`
	PasswordHash string       `json:"-"`
	CreatedAt    time.Time    `json:"createdAt"`
	LastLoginAt  *time.Time   `json:"lastLoginAt,omitempty"`
}

// Event is a time-bounded container of areas, owned by one tenant.
// (Name, OwnerEmail) is unique.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Venue       string     `json:"venue,omitempty"`
	OwnerEmail  string     `json:"ownerEmail"`
	StartAt     time.Time  `json:"startAt"`
	EndAt       *time.Time `json:"endAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Area is a counted zone with a hard capacity and a soft threshold.
// CurrentCount may legally exceed Capacity; overflow is what trips the
// OVERCROWDING alert. (Name, EventID) is unique.
type Area struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	OwnerEmail   string     `json:"ownerEmail"`
	EventID      *uuid.UUID `json:"eventId,omitempty"`
	Capacity     int        `json:"capacity"`
	Threshold    int        `json:"threshold"`
	CurrentCount int        `json:"currentCount"`
	GenerateQR   bool       `json:"generateQr"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Status derives the traffic-light state from the counters.
func (a *Area) Status() AreaStatus {
	return DeriveAreaStatus(a.CurrentCount, a.Threshold, a.Capacity)
}

// OccupancyPct derives occupancy as a percentage of capacity.
func (a *Area) OccupancyPct() float64 {
	return OccupancyPct(a.CurrentCount, a.Capacity)
}

// ScanLog is an immutable, append-only record of one observation.
type ScanLog struct {
	ID        uuid.UUID `json:"id"`
	AreaID    uuid.UUID `json:"areaId"`
	Kind      ScanKind  `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// Alert is a persistent notification of an occupancy condition. Owner email
// and area name are denormalised so alert queries need no join. The counter
// fields are a snapshot taken at creation time and never rewritten.
type Alert struct {
	ID           uuid.UUID   `json:"id"`
	AreaID       uuid.UUID   `json:"areaId"`
	AreaName     string      `json:"areaName"`
	OwnerEmail   string      `json:"ownerEmail"`
	Kind         AlertKind   `json:"kind"`
	Status       AlertStatus `json:"status"`
	Message      string      `json:"message"`
	CurrentCount int         `json:"currentCount"`
	Threshold    int         `json:"threshold"`
	Capacity     int         `json:"capacity"`
	OccupancyPct float64     `json:"occupancyPercentage"`
	CreatedAt    time.Time   `json:"createdAt"`
	ResolvedAt   *time.Time  `json:"resolvedAt,omitempty"`
}

// Critical reports whether the alert kind is rendered as critical.
func (a *Alert) Critical() bool {
	return a.Kind == AlertOvercrowding || a.Kind == AlertRapidInflow
}

// Severity returns the severity label for dashboards.
func (a *Alert) Severity() string {
	if a.Critical() {
		return "Critical"
	}
	return "Warning"
}

// DeriveAreaStatus maps counters to the traffic-light state:
// RED at or above capacity, YELLOW at or above threshold, GREEN otherwise.
func DeriveAreaStatus(count, threshold, capacity int) AreaStatus {
	switch {
	case count >= capacity:
		return AreaRed
	case count >= threshold:
		return AreaYellow
	default:
		return AreaGreen
	}
}

// OccupancyPct computes count/capacity as a percentage, 0 for zero capacity.
func OccupancyPct(count, capacity int) float64 {
	if capacity == 0 {
		return 0
	}
	return float64(count) / float64(capacity) * 100
}

// DeriveEventStatus maps wall-clock time to the event lifecycle state.
// When endAt is nil the event is considered completed defaultDuration after
// its start. The time source is injected for testability.
func DeriveEventStatus(now, startAt time.Time, endAt *time.Time, defaultDuration time.Duration) EventStatus {
	if now.Before(startAt) {
		return EventUpcoming
	}
	if endAt != nil {
		if now.After(*endAt) {
			return EventCompleted
		}
		return EventLive
	}
	if now.After(startAt.Add(defaultDuration)) {
		return EventCompleted
	}
	return EventLive
}
