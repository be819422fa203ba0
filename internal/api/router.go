// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/venuepulse/venuepulse/internal/auth"
	"github.com/venuepulse/venuepulse/internal/middleware"
)

// Router assembles the HTTP surface from the handler set and the
// middleware factories.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router over the given handler set.
func NewRouter(handler *Handler, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: chiMW}
}

// Setup configures all routes and returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order. CORS must be
	// global so OPTIONS preflight requests are answered before routing.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// Scan ingest is anonymous: gate scanners carry no tenant header, only
	// an area UUID. Reads are tenant-scoped.
	r.Route("/api/scans", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)

		r.With(router.chiMiddleware.RateLimitScans()).Post("/", router.handler.CreateScan)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(auth.RequireTenant)
			r.Get("/recent", router.handler.RecentScans)
			r.Get("/today", router.handler.ScansToday)
			r.Get("/area/{id}", router.handler.ScansByArea)
			r.Get("/area/{id}/trend", router.handler.AreaTrend)
		})
	})

	r.Route("/api/areas", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		// The scan page a QR code opens has no tenant context.
		r.Get("/public/{id}", router.handler.GetPublicArea)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireTenant)
			r.Get("/", router.handler.ListAreas)
			r.Get("/attention", router.handler.AreasNeedingAttention)
			r.Get("/{id}", router.handler.GetArea)
			r.Post("/", router.handler.CreateArea)
			r.Put("/{id}", router.handler.UpdateArea)
			r.Delete("/{id}", router.handler.DeleteArea)
			r.Post("/{id}/reset", router.handler.ResetAreaCount)
		})
	})

	r.Route("/api/events", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		// Attendee dashboards reached from a shared link.
		r.Get("/public/{id}", router.handler.GetPublicEvent)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireTenant)
			r.Get("/", router.handler.ListEvents)
			r.Get("/live", router.handler.ListLiveEvents)
			r.Get("/upcoming", router.handler.ListUpcomingEvents)
			r.Get("/completed", router.handler.ListCompletedEvents)
			r.Get("/grouped", router.handler.GroupedEvents)
			r.Get("/{id}", router.handler.GetEvent)
			r.Post("/", router.handler.CreateEvent)
			r.Put("/{id}", router.handler.UpdateEvent)
			r.Delete("/{id}", router.handler.DeleteEvent)
		})
	})

	r.Route("/api/alerts", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(auth.RequireTenant)

		r.Get("/", router.handler.ListAlerts)
		r.Get("/active", router.handler.ActiveAlerts)
		r.Get("/area/{id}", router.handler.AlertsByArea)
		r.Get("/unread-count", router.handler.UnreadAlertCount)
		r.Put("/{id}/read", router.handler.MarkAlertRead)
		r.Put("/{id}/resolve", router.handler.ResolveAlert)
		r.Put("/mark-all-read", router.handler.MarkAllAlertsRead)
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)

		r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", router.handler.Login)
		r.With(router.chiMiddleware.RateLimit()).Get("/user", router.handler.CurrentUser)
	})

	r.Get("/api/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", router.handler.WebSocket)

	return r
}
