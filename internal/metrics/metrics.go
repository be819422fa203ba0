// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

// Package metrics exposes Prometheus instrumentation for the scan
// pipeline, the HTTP API, the store, and the websocket hub.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scan Pipeline Metrics
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scans_total",
			Help: "Total number of processed scans",
		},
		[]string{"kind"}, // "ENTRY", "EXIT"
	)

	ScanProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scan_processing_duration_seconds",
			Help:    "Duration of scan processing including the store transaction",
			Buckets: prometheus.DefBuckets,
		},
	)

	ScanFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_failures_total",
			Help: "Total number of scans that failed to process",
		},
		[]string{"reason"}, // "not_found", "timeout", "conflict", "other"
	)

	// Alert Metrics
	AlertsOpenedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_opened_total",
			Help: "Total number of alerts opened",
		},
		[]string{"kind"}, // "OVERCROWDING", "THRESHOLD_BREACH", "RAPID_INFLOW"
	)

	AlertsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_resolved_total",
			Help: "Total number of alerts resolved",
		},
		[]string{"kind"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Store Metrics
	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	DBTransactionRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duckdb_transaction_retries_total",
			Help: "Total number of transaction conflict retries",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSSubscriptions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_topic_subscriptions",
			Help: "Current number of subscriptions per topic class",
		},
		[]string{"topic"}, // "areas", "area", "scans", "alerts"
	)

	WSClientsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_clients_dropped_total",
			Help: "Total number of clients dropped for falling behind",
		},
	)
)

// RecordScan records one processed scan.
func RecordScan(kind string) {
	ScansTotal.WithLabelValues(kind).Inc()
}

// RecordScanDuration records how long scan processing took.
func RecordScanDuration(d time.Duration) {
	ScanProcessingDuration.Observe(d.Seconds())
}

// RecordScanFailure records a scan that failed to process.
func RecordScanFailure(reason string) {
	ScanFailures.WithLabelValues(reason).Inc()
}

// RecordAlertOpened records a newly opened alert.
func RecordAlertOpened(kind string) {
	AlertsOpenedTotal.WithLabelValues(kind).Inc()
}

// RecordAlertResolved records a resolved alert.
func RecordAlertResolved(kind string) {
	AlertsResolvedTotal.WithLabelValues(kind).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
