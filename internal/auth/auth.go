// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

// Package auth resolves the requesting tenant and handles local logins.
//
// Tenancy is header-based: the frontend (or an identity-aware proxy) sends
// the authenticated email in X-User-Email and this service treats it as an
// opaque namespace key. The only credential check done here is the bcrypt
// login for seeded LOCAL tenants; everything else trusts the perimeter.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/venuepulse/venuepulse/internal/database"
	"github.com/venuepulse/venuepulse/internal/logging"
	"github.com/venuepulse/venuepulse/internal/models"
)

// TenantHeader carries the authenticated tenant email.
const TenantHeader = "X-User-Email"

type contextKey string

const tenantKey contextKey = "tenant_email"

// WithTenant returns a context carrying the tenant email. Exposed for tests.
func WithTenant(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, tenantKey, email)
}

// TenantFrom extracts the tenant email injected by RequireTenant.
func TenantFrom(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(tenantKey).(string)
	return email, ok && email != ""
}

// RequireTenant rejects requests without a tenant header (401) and injects
// the email into the request context for handlers.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.Header.Get(TenantHeader))
		if email == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"missing ` + TenantHeader + ` header"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), email)))
	})
}

// Service handles local logins and tenant seeding.
type Service struct {
	db *database.DB
}

// NewService creates the auth service.
func NewService(db *database.DB) *Service {
	return &Service{db: db}
}

// Login verifies a LOCAL tenant's password. Unknown emails, EXTERNAL
// tenants, and wrong passwords all return models.ErrUnauthorized so the
// response never reveals which part failed.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Tenant, error) {
	tenant, err := s.db.TenantByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		return nil, err
	}
	if tenant.AuthProvider != models.AuthLocal || tenant.PasswordHash == "" {
		return nil, models.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(tenant.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrUnauthorized
	}

	now := time.Now().UTC()
	if err := s.db.TouchLastLogin(ctx, email, now); err != nil {
		logging.Warn().Err(err).Str("email", email).Msg("Failed to record login time")
	}
	tenant.LastLoginAt = &now
	return tenant, nil
}

// SeedDefaultTenant creates the configured admin tenant at startup when it
// does not exist yet. An empty password disables seeding; header-identified
// tenants work without any local account.
func (s *Service) SeedDefaultTenant(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		logging.Debug().Msg("Admin tenant seeding disabled")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	displayName := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		displayName = email[:at]
	}
	return s.db.SeedAdminTenant(ctx, email, displayName, string(hash))
}
