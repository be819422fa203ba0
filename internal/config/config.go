// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

// Package config loads layered configuration with Koanf v2:
// built-in defaults, then an optional YAML file, then environment
// variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Inflow   InflowConfig   `koanf:"inflow"`
	Events   EventsConfig   `koanf:"events"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file path. ":memory:" opens an in-memory store.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads is the DuckDB thread count; 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`
	// QueryTimeout bounds every store operation. Exceeding it surfaces
	// as a store-timeout error to the caller.
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// SecurityConfig holds CORS, rate limiting, and default-tenant seeding.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// AdminEmail/AdminPassword seed a LOCAL tenant at startup when the
	// tenant table is empty. Empty values disable seeding.
	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"`
}

// InflowConfig parameterises the rapid-inflow detector: Count entries
// within Seconds trips a RAPID_INFLOW alert.
type InflowConfig struct {
	Count   int `koanf:"count"`
	Seconds int `koanf:"seconds"`
}

// Window returns the detector window as a duration.
func (c *InflowConfig) Window() time.Duration {
	return time.Duration(c.Seconds) * time.Second
}

// EventsConfig holds event-derivation settings.
type EventsConfig struct {
	// DefaultDuration is assumed for events without an end time when
	// deriving COMPLETED status.
	DefaultDuration time.Duration `koanf:"default_duration"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, applied before file and
// environment layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:         "/data/venuepulse.duckdb",
			MaxMemory:    "1GB",
			Threads:      0,
			QueryTimeout: 5 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"http://localhost:5173"},
			RateLimitReqs:     300,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			AdminEmail:        "admin@venuepulse.local",
			AdminPassword:     "",
		},
		Inflow: InflowConfig{
			Count:   10,
			Seconds: 30,
		},
		Events: EventsConfig{
			DefaultDuration: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks cross-field constraints after all layers are applied.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database.query_timeout must be positive")
	}
	if c.Inflow.Count < 1 {
		return fmt.Errorf("inflow.count must be at least 1")
	}
	if c.Inflow.Seconds < 1 {
		return fmt.Errorf("inflow.seconds must be at least 1")
	}
	if c.Events.DefaultDuration <= 0 {
		return fmt.Errorf("events.default_duration must be positive")
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
