// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/venuepulse/venuepulse/internal/logging"
	"github.com/venuepulse/venuepulse/internal/models"
)

const tenantColumns = `email, display_name, auth_provider, password_hash, created_at, last_login_at`

func scanTenant(row rowScanner) (*models.Tenant, error) {
	var (
		t            models.Tenant
		passwordHash sql.NullString
		lastLogin    sql.NullTime
	)
	err := row.Scan(&t.Email, &t.DisplayName, &t.AuthProvider, &passwordHash,
		&t.CreatedAt, &lastLogin)
	if err != nil {
		return nil, err
	}
	t.PasswordHash = passwordHash.String
	if lastLogin.Valid {
		lt := lastLogin.Time
		t.LastLoginAt = &lt
	}
	return &t, nil
}

// CreateTenant inserts a tenant row. A duplicate email returns
// models.ErrConflict.
func (db *DB) CreateTenant(ctx context.Context, t *models.Tenant) error {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(opCtx,
		`INSERT INTO tenants (`+tenantColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		t.Email, t.DisplayName, t.AuthProvider, t.PasswordHash, t.CreatedAt,
		nullableTime(t.LastLoginAt))
	return storeErr("create tenant", err)
}

// TenantByEmail fetches one tenant.
func (db *DB) TenantByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(opCtx,
		`SELECT `+tenantColumns+` FROM tenants WHERE email = ?`, email)
	t, err := scanTenant(row)
	if err != nil {
		return nil, storeErr("get tenant", err)
	}
	return t, nil
}

// EnsureTenant records an externally-identified tenant on first sight so
// dashboards can show a display name. Existing rows are left alone.
func (db *DB) EnsureTenant(ctx context.Context, email, displayName string) error {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(opCtx,
		`INSERT INTO tenants (email, display_name, auth_provider, password_hash, created_at, last_login_at)
		 VALUES (?, ?, ?, NULL, ?, NULL)
		 ON CONFLICT (email) DO NOTHING`,
		email, displayName, models.AuthExternal, time.Now().UTC())
	return storeErr("ensure tenant", err)
}

// TouchLastLogin stamps a successful login.
func (db *DB) TouchLastLogin(ctx context.Context, email string, at time.Time) error {
	opCtx, cancel := db.opCtx(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(opCtx,
		`UPDATE tenants SET last_login_at = ? WHERE email = ?`, at.UTC(), email)
	return storeErr("touch last login", err)
}

// SeedAdminTenant creates a LOCAL tenant with the given bcrypt hash when no
// tenant with that email exists yet. Called once at startup from config.
func (db *DB) SeedAdminTenant(ctx context.Context, email, displayName, passwordHash string) error {
	_, err := db.TenantByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	t := &models.Tenant{
		Email:        email,
		DisplayName:  displayName,
		AuthProvider: models.AuthLocal,
		PasswordHash: passwordHash,
	}
	if err := db.CreateTenant(ctx, t); err != nil {
		return err
	}
	logging.Info().Str("email", email).Msg("Seeded admin tenant")
	return nil
}
