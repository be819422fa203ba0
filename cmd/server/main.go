// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

// Package main is the entry point for the VenuePulse server.
//
// VenuePulse is a multi-tenant crowd-monitoring service for event venues.
// Gate scanners POST entry/exit scans against monitored areas; the server
// keeps live occupancy counters, derives traffic-light states, raises
// threshold, overcrowding, and rapid-inflow alerts, and pushes every
// change to websocket subscribers.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered defaults, YAML file, environment
//  2. Database: DuckDB store with schema migration and checkpointing
//  3. Tenant seeding: optional LOCAL admin tenant from configuration
//  4. Inflow detector and scan processor
//  5. WebSocket hub for real-time fan-out
//  6. HTTP server: chi REST API plus /metrics and /ws
//
// All long-running components run under a suture supervisor tree, so a
// crash in one layer restarts that layer without taking down the rest.
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting connections, waits for in-flight requests (10s timeout),
// checkpoints, and closes the database.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/venuepulse/venuepulse/internal/api"
	"github.com/venuepulse/venuepulse/internal/auth"
	"github.com/venuepulse/venuepulse/internal/config"
	"github.com/venuepulse/venuepulse/internal/database"
	"github.com/venuepulse/venuepulse/internal/detection"
	"github.com/venuepulse/venuepulse/internal/engine"
	"github.com/venuepulse/venuepulse/internal/logging"
	"github.com/venuepulse/venuepulse/internal/supervisor"
	"github.com/venuepulse/venuepulse/internal/supervisor/services"
	ws "github.com/venuepulse/venuepulse/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config not available yet; the default logger handles this.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting VenuePulse")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	authSvc := auth.NewService(db)
	if err := authSvc.SeedDefaultTenant(context.Background(), cfg.Security.AdminEmail, cfg.Security.AdminPassword); err != nil {
		logging.Fatal().Err(err).Msg("Failed to seed default tenant")
	}

	// Shutdown context, canceled by SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	hub := ws.NewHub()
	detector := detection.NewInflowDetector(cfg.Inflow.Count, cfg.Inflow.Window())
	processor := engine.NewProcessor(db, detector, hub)

	handler := api.NewHandler(db, processor, hub, authSvc, cfg.Events.DefaultDuration, cfg.Security.CORSOrigins)
	chiMW := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins:   cfg.Security.CORSOrigins,
		CORSAllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "X-User-Email"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,
		RateLimitRequests:    cfg.Security.RateLimitReqs,
		RateLimitWindow:      cfg.Security.RateLimitWindow,
		RateLimitDisabled:    cfg.Security.RateLimitDisabled,
	})
	router := api.NewRouter(handler, chiMW)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree.AddDataService(services.NewCheckpointService(db, 5*time.Minute))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}
