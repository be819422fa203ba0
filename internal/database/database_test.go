// VenuePulse - Real-Time Crowd Monitoring for Event Venues
// Copyright 2026 VenuePulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuepulse/venuepulse

package database

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/venuepulse/venuepulse/internal/config"
	"github.com/venuepulse/venuepulse/internal/logging"
	"github.com/venuepulse/venuepulse/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

const (
	testOwner = "owner@example.com"
	otherUser = "other@example.com"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{
		Path:         ":memory:",
		MaxMemory:    "256MB",
		Threads:      1,
		QueryTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return db
}

func createTestArea(t *testing.T, db *DB, owner, name string, capacity, threshold int) *models.Area {
	t.Helper()

	a := &models.Area{
		Name:       name,
		OwnerEmail: owner,
		Capacity:   capacity,
		Threshold:  threshold,
		GenerateQR: true,
	}
	if err := db.CreateArea(context.Background(), a); err != nil {
		t.Fatalf("CreateArea(%s): %v", name, err)
	}
	return a
}

func recordScan(t *testing.T, db *DB, areaID uuid.UUID, kind models.ScanKind, ts time.Time) {
	t.Helper()

	err := db.WithTx(context.Background(), func(ctx context.Context, tx *Tx) error {
		switch kind {
		case models.ScanEntry:
			if _, err := tx.IncrementCount(ctx, areaID, ts); err != nil {
				return err
			}
		case models.ScanExit:
			if _, err := tx.DecrementCount(ctx, areaID, ts); err != nil {
				return err
			}
		}
		return tx.InsertScanLog(ctx, &models.ScanLog{AreaID: areaID, Kind: kind, Timestamp: ts})
	})
	if err != nil {
		t.Fatalf("recordScan: %v", err)
	}
}

func insertTestAlert(t *testing.T, db *DB, area *models.Area, kind models.AlertKind, status models.AlertStatus, createdAt time.Time) *models.Alert {
	t.Helper()

	a := &models.Alert{
		AreaID:       area.ID,
		AreaName:     area.Name,
		OwnerEmail:   area.OwnerEmail,
		Kind:         kind,
		Status:       status,
		Message:      "test alert",
		CurrentCount: area.CurrentCount,
		Threshold:    area.Threshold,
		Capacity:     area.Capacity,
		OccupancyPct: area.OccupancyPct(),
		CreatedAt:    createdAt,
	}
	err := db.WithTx(context.Background(), func(ctx context.Context, tx *Tx) error {
		return tx.InsertAlert(ctx, a)
	})
	if err != nil {
		t.Fatalf("insertTestAlert: %v", err)
	}
	return a
}

func TestNewAndPing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if err := db.Checkpoint(context.Background()); err != nil {
		t.Errorf("Checkpoint: %v", err)
	}
}

func TestTenantLifecycle(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	tenant := &models.Tenant{
		Email:        testOwner,
		DisplayName:  "Owner",
		AuthProvider: models.AuthLocal,
		PasswordHash: "hash",
	}
	if err := db.CreateTenant(ctx, tenant); err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}

	if err := db.CreateTenant(ctx, tenant); !errors.Is(err, models.ErrConflict) {
		t.Errorf("duplicate CreateTenant = %v, want ErrConflict", err)
	}

	got, err := db.TenantByEmail(ctx, testOwner)
	if err != nil {
		t.Fatalf("TenantByEmail: %v", err)
	}
	if got.DisplayName != "Owner" || got.AuthProvider != models.AuthLocal {
		t.Errorf("TenantByEmail = %+v", got)
	}
	if got.LastLoginAt != nil {
		t.Error("fresh tenant should have no last login")
	}

	if _, err := db.TenantByEmail(ctx, "missing@example.com"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing tenant = %v, want ErrNotFound", err)
	}

	at := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	if err := db.TouchLastLogin(ctx, testOwner, at); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	got, err = db.TenantByEmail(ctx, testOwner)
	if err != nil {
		t.Fatalf("TenantByEmail: %v", err)
	}
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Errorf("LastLoginAt = %v, want %v", got.LastLoginAt, at)
	}
}

func TestEnsureTenantIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	if err := db.EnsureTenant(ctx, testOwner, "Owner"); err != nil {
		t.Fatalf("EnsureTenant: %v", err)
	}
	if err := db.EnsureTenant(ctx, testOwner, "Someone Else"); err != nil {
		t.Fatalf("second EnsureTenant: %v", err)
	}

	got, err := db.TenantByEmail(ctx, testOwner)
	if err != nil {
		t.Fatalf("TenantByEmail: %v", err)
	}
	if got.DisplayName != "Owner" {
		t.Errorf("DisplayName = %s, want the original value kept", got.DisplayName)
	}
	if got.AuthProvider != models.AuthExternal {
		t.Errorf("AuthProvider = %s, want EXTERNAL", got.AuthProvider)
	}
}

func TestSeedAdminTenant(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SeedAdminTenant(ctx, testOwner, "Owner", "bcrypt-hash"); err != nil {
		t.Fatalf("SeedAdminTenant: %v", err)
	}
	// Seeding again must not overwrite.
	if err := db.SeedAdminTenant(ctx, testOwner, "Other", "other-hash"); err != nil {
		t.Fatalf("second SeedAdminTenant: %v", err)
	}

	got, err := db.TenantByEmail(ctx, testOwner)
	if err != nil {
		t.Fatalf("TenantByEmail: %v", err)
	}
	if got.PasswordHash != "bcrypt-hash" || got.AuthProvider != models.AuthLocal {
		t.Errorf("seeded tenant = %+v", got)
	}
}

func TestAreaCRUD(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	area := createTestArea(t, db, testOwner, "Main Stage", 100, 80)
	if area.ID == uuid.Nil {
		t.Fatal("CreateArea did not assign an ID")
	}

	got, err := db.AreaByID(ctx, area.ID, testOwner)
	if err != nil {
		t.Fatalf("AreaByID: %v", err)
	}
	if got.Name != "Main Stage" || got.Capacity != 100 || got.Threshold != 80 {
		t.Errorf("AreaByID = %+v", got)
	}
	if got.EventID != nil {
		t.Error("standalone area should have nil event ID")
	}

	// Ownership scoping: a foreign tenant sees nothing.
	if _, err := db.AreaByID(ctx, area.ID, otherUser); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign AreaByID = %v, want ErrNotFound", err)
	}

	// Public lookup carries no scoping.
	if _, err := db.PublicAreaByID(ctx, area.ID); err != nil {
		t.Errorf("PublicAreaByID: %v", err)
	}

	got.Name = "Main Stage West"
	got.Capacity = 120
	if err := db.UpdateArea(ctx, got); err != nil {
		t.Fatalf("UpdateArea: %v", err)
	}
	got, err = db.AreaByID(ctx, area.ID, testOwner)
	if err != nil {
		t.Fatalf("AreaByID after update: %v", err)
	}
	if got.Name != "Main Stage West" || got.Capacity != 120 {
		t.Errorf("updated area = %+v", got)
	}

	missing := &models.Area{ID: uuid.New(), OwnerEmail: testOwner, Name: "x", Capacity: 1, Threshold: 1}
	if err := db.UpdateArea(ctx, missing); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("UpdateArea missing = %v, want ErrNotFound", err)
	}

	if err := db.DeleteArea(ctx, area.ID, testOwner); err != nil {
		t.Fatalf("DeleteArea: %v", err)
	}
	if _, err := db.AreaByID(ctx, area.ID, testOwner); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("deleted AreaByID = %v, want ErrNotFound", err)
	}
	if err := db.DeleteArea(ctx, area.ID, testOwner); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("re-delete = %v, want ErrNotFound", err)
	}
}

func TestCreateAreaDuplicateStandaloneName(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	createTestArea(t, db, testOwner, "Entrance", 100, 80)

	dup := &models.Area{Name: "Entrance", OwnerEmail: testOwner, Capacity: 50, Threshold: 40}
	if err := db.CreateArea(context.Background(), dup); !errors.Is(err, models.ErrConflict) {
		t.Errorf("duplicate standalone area = %v, want ErrConflict", err)
	}

	// Same name under a different tenant is fine.
	createTestArea(t, db, otherUser, "Entrance", 100, 80)
}

func TestIncrementAndDecrementCount(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	area := createTestArea(t, db, testOwner, "Gate A", 10, 8)
	now := time.Now().UTC()

	var count int
	err := db.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		var err error
		count, err = tx.IncrementCount(ctx, area.ID, now)
		return err
	})
	if err != nil {
		t.Fatalf("IncrementCount: %v", err)
	}
	if count != 1 {
		t.Errorf("count after increment = %d, want 1", count)
	}

	// Decrement twice from one: the second clamps at zero.
	for i, want := range []int{0, 0} {
		err = db.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
			var err error
			count, err = tx.DecrementCount(ctx, area.ID, now)
			return err
		})
		if err != nil {
			t.Fatalf("DecrementCount #%d: %v", i+1, err)
		}
		if count != want {
			t.Errorf("count after decrement #%d = %d, want %d", i+1, count, want)
		}
	}
}

func TestResetAreaCount(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	area := createTestArea(t, db, testOwner, "Hall B", 10, 8)
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		recordScan(t, db, area.ID, models.ScanEntry, now)
	}

	previous, err := db.ResetAreaCount(ctx, area.ID, testOwner)
	if err != nil {
		t.Fatalf("ResetAreaCount: %v", err)
	}
	if previous != 3 {
		t.Errorf("previous = %d, want 3", previous)
	}

	got, err := db.AreaByID(ctx, area.ID, testOwner)
	if err != nil {
		t.Fatalf("AreaByID: %v", err)
	}
	if got.CurrentCount != 0 {
		t.Errorf("count after reset = %d, want 0", got.CurrentCount)
	}

	if _, err := db.ResetAreaCount(ctx, area.ID, otherUser); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign reset = %v, want ErrNotFound", err)
	}
}

func TestAreasNeedingAttention(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	calm := createTestArea(t, db, testOwner, "Calm", 100, 80)
	warm := createTestArea(t, db, testOwner, "Warm", 10, 2)
	hot := createTestArea(t, db, testOwner, "Hot", 4, 2)

	_ = calm
	recordScan(t, db, warm.ID, models.ScanEntry, now)
	recordScan(t, db, warm.ID, models.ScanEntry, now)
	for i := 0; i < 3; i++ {
		recordScan(t, db, hot.ID, models.ScanEntry, now)
	}

	areas, err := db.AreasNeedingAttention(ctx, testOwner)
	if err != nil {
		t.Fatalf("AreasNeedingAttention: %v", err)
	}
	if len(areas) != 2 {
		t.Fatalf("got %d areas, want 2", len(areas))
	}
	// Most occupied first: hot 3/4 before warm 2/10.
	if areas[0].Name != "Hot" || areas[1].Name != "Warm" {
		t.Errorf("order = %s, %s; want Hot, Warm", areas[0].Name, areas[1].Name)
	}
}

func TestEventLifecycle(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)

	event := &models.Event{
		Name:       "Summer Festival",
		Venue:      "City Park",
		OwnerEmail: testOwner,
		StartAt:    start,
	}
	areas := []*models.Area{
		{Name: "Main Stage", Capacity: 500, Threshold: 400},
		{Name: "Food Court", Capacity: 200, Threshold: 150},
	}
	if err := db.CreateEvent(ctx, event, areas); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if event.ID == uuid.Nil {
		t.Fatal("CreateEvent did not assign an ID")
	}

	// Nested areas inherit owner and event.
	list, err := db.ListAreasByEvent(ctx, event.ID, testOwner)
	if err != nil {
		t.Fatalf("ListAreasByEvent: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d areas, want 2", len(list))
	}
	for _, a := range list {
		if a.OwnerEmail != testOwner || a.EventID == nil || *a.EventID != event.ID {
			t.Errorf("nested area not bound to event: %+v", a)
		}
	}

	// Duplicate (name, owner) conflicts; same name under another owner is fine.
	dup := &models.Event{Name: "Summer Festival", OwnerEmail: testOwner, StartAt: start}
	if err := db.CreateEvent(ctx, dup, nil); !errors.Is(err, models.ErrConflict) {
		t.Errorf("duplicate event = %v, want ErrConflict", err)
	}
	foreign := &models.Event{Name: "Summer Festival", OwnerEmail: otherUser, StartAt: start}
	if err := db.CreateEvent(ctx, foreign, nil); err != nil {
		t.Errorf("same event name for another owner: %v", err)
	}

	got, err := db.EventByID(ctx, event.ID, testOwner)
	if err != nil {
		t.Fatalf("EventByID: %v", err)
	}
	if got.Venue != "City Park" {
		t.Errorf("Venue = %s", got.Venue)
	}
	if _, err := db.EventByID(ctx, event.ID, otherUser); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign EventByID = %v, want ErrNotFound", err)
	}

	if _, err := db.PublicEventByID(ctx, event.ID); err != nil {
		t.Errorf("PublicEventByID: %v", err)
	}
	publicAreas, err := db.PublicAreasByEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("PublicAreasByEvent: %v", err)
	}
	if len(publicAreas) != 2 {
		t.Errorf("public areas = %d, want 2", len(publicAreas))
	}

	events, err := db.ListEvents(ctx, testOwner)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("ListEvents = %d events, want 1 (tenant scoped)", len(events))
	}
}

func TestUpdateEventReplacesAreas(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)

	event := &models.Event{Name: "Expo", OwnerEmail: testOwner, StartAt: start}
	if err := db.CreateEvent(ctx, event, []*models.Area{{Name: "Hall 1", Capacity: 100, Threshold: 80}}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	before, _ := db.ListAreasByEvent(ctx, event.ID, testOwner)
	recordScan(t, db, before[0].ID, models.ScanEntry, time.Now().UTC())

	// nil areas keeps the existing set.
	event.Venue = "Convention Center"
	if err := db.UpdateEvent(ctx, event, nil); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	kept, _ := db.ListAreasByEvent(ctx, event.ID, testOwner)
	if len(kept) != 1 || kept[0].CurrentCount != 1 {
		t.Fatalf("areas changed on nil update: %+v", kept)
	}

	// A provided set replaces the areas and restarts counters at zero.
	replacement := []*models.Area{
		{Name: "Hall 2", Capacity: 50, Threshold: 40},
		{Name: "Hall 3", Capacity: 60, Threshold: 50},
	}
	if err := db.UpdateEvent(ctx, event, replacement); err != nil {
		t.Fatalf("UpdateEvent with areas: %v", err)
	}
	after, _ := db.ListAreasByEvent(ctx, event.ID, testOwner)
	if len(after) != 2 {
		t.Fatalf("got %d areas after replacement, want 2", len(after))
	}
	for _, a := range after {
		if a.CurrentCount != 0 {
			t.Errorf("replaced area %s count = %d, want 0", a.Name, a.CurrentCount)
		}
		if a.Name == "Hall 1" {
			t.Error("old area survived replacement")
		}
	}
}

func TestDeleteEventCascades(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	start := time.Now().UTC()

	event := &models.Event{Name: "Gala", OwnerEmail: testOwner, StartAt: start}
	if err := db.CreateEvent(ctx, event, []*models.Area{{Name: "Ballroom", Capacity: 10, Threshold: 8}}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	areas, _ := db.ListAreasByEvent(ctx, event.ID, testOwner)
	area := areas[0]

	recordScan(t, db, area.ID, models.ScanEntry, start)
	insertTestAlert(t, db, area, models.AlertThresholdBreach, models.AlertUnread, start)

	if err := db.DeleteEvent(ctx, event.ID, testOwner); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}

	if _, err := db.EventByID(ctx, event.ID, testOwner); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("deleted event = %v, want ErrNotFound", err)
	}
	remaining, _ := db.ListAreas(ctx, testOwner)
	if len(remaining) != 0 {
		t.Errorf("areas after cascade = %d, want 0", len(remaining))
	}
	alerts, _ := db.ListAlerts(ctx, testOwner, AlertFilter{})
	if len(alerts) != 0 {
		t.Errorf("alerts after cascade = %d, want 0", len(alerts))
	}

	// Scan logs survive: they are historical fact.
	scans, err := db.ScansByArea(ctx, area.ID, testOwner, 10)
	if err != nil {
		t.Fatalf("ScansByArea: %v", err)
	}
	_ = scans // the join with areas drops them from listings, but the rows remain
}

func TestScanListings(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	area := createTestArea(t, db, testOwner, "Gate", 100, 80)

	now := time.Date(2026, 6, 15, 14, 30, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)

	recordScan(t, db, area.ID, models.ScanEntry, yesterday)
	recordScan(t, db, area.ID, models.ScanEntry, now.Add(-2*time.Hour))
	recordScan(t, db, area.ID, models.ScanEntry, now.Add(-time.Hour))
	recordScan(t, db, area.ID, models.ScanExit, now.Add(-30*time.Minute))

	recent, err := db.RecentScans(ctx, testOwner, 3)
	if err != nil {
		t.Fatalf("RecentScans: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("RecentScans = %d, want 3 (limited)", len(recent))
	}
	if recent[0].Kind != models.ScanExit {
		t.Errorf("newest scan kind = %s, want EXIT", recent[0].Kind)
	}
	if recent[0].AreaName != "Gate" {
		t.Errorf("AreaName = %s, want Gate", recent[0].AreaName)
	}
	// NewCount carries the area's live count at read time: 3 entries
	// minus 1 exit.
	if recent[0].NewCount != 2 {
		t.Errorf("NewCount = %d, want 2", recent[0].NewCount)
	}

	today, err := db.ScansToday(ctx, testOwner, now)
	if err != nil {
		t.Fatalf("ScansToday: %v", err)
	}
	if len(today) != 3 {
		t.Errorf("ScansToday = %d, want 3 (yesterday excluded)", len(today))
	}

	byArea, err := db.ScansByArea(ctx, area.ID, testOwner, 10)
	if err != nil {
		t.Fatalf("ScansByArea: %v", err)
	}
	if len(byArea) != 4 {
		t.Errorf("ScansByArea = %d, want 4", len(byArea))
	}

	foreign, err := db.RecentScans(ctx, otherUser, 10)
	if err != nil {
		t.Fatalf("RecentScans foreign: %v", err)
	}
	if len(foreign) != 0 {
		t.Errorf("foreign tenant sees %d scans, want 0", len(foreign))
	}
}

func TestHourlyTrend(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	area := createTestArea(t, db, testOwner, "Gate", 100, 80)

	base := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	recordScan(t, db, area.ID, models.ScanEntry, base.Add(9*time.Hour))
	recordScan(t, db, area.ID, models.ScanEntry, base.Add(9*time.Hour+15*time.Minute))
	recordScan(t, db, area.ID, models.ScanExit, base.Add(9*time.Hour+30*time.Minute))
	recordScan(t, db, area.ID, models.ScanEntry, base.Add(11*time.Hour))

	trend, err := db.HourlyTrend(ctx, area.ID, base)
	if err != nil {
		t.Fatalf("HourlyTrend: %v", err)
	}
	if len(trend) != 2 {
		t.Fatalf("trend buckets = %d, want 2", len(trend))
	}
	nine := trend[0]
	if nine.Hour != "09:00" || nine.Entries != 2 || nine.Exits != 1 || nine.Net != 1 {
		t.Errorf("09:00 bucket = %+v", nine)
	}
	eleven := trend[1]
	if eleven.Hour != "11:00" || eleven.Entries != 1 || eleven.Exits != 0 || eleven.Net != 1 {
		t.Errorf("11:00 bucket = %+v", eleven)
	}
}

func TestAlertQueriesAndTransitions(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	area := createTestArea(t, db, testOwner, "Floor", 100, 80)
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	unread := insertTestAlert(t, db, area, models.AlertThresholdBreach, models.AlertUnread, now.Add(-time.Hour))
	old := insertTestAlert(t, db, area, models.AlertRapidInflow, models.AlertUnread, now.Add(-40*24*time.Hour))

	// Open-alert suppression check inside a transaction.
	err := db.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		open, err := tx.HasOpenAlert(ctx, area.ID, models.AlertThresholdBreach)
		if err != nil {
			return err
		}
		if !open {
			t.Error("HasOpenAlert = false, want true")
		}
		open, err = tx.HasOpenAlert(ctx, area.ID, models.AlertOvercrowding)
		if err != nil {
			return err
		}
		if open {
			t.Error("HasOpenAlert(OVERCROWDING) = true, want false")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	if n, err := db.UnreadAlertCount(ctx, testOwner); err != nil || n != 2 {
		t.Errorf("UnreadAlertCount = %d (%v), want 2", n, err)
	}

	// Kind and range filters.
	filtered, err := db.ListAlerts(ctx, testOwner, AlertFilter{Kind: models.AlertRapidInflow})
	if err != nil || len(filtered) != 1 {
		t.Errorf("kind filter = %d alerts (%v), want 1", len(filtered), err)
	}
	recent, err := db.ListAlerts(ctx, testOwner, AlertFilter{Range: Range7d})
	if err != nil || len(recent) != 1 {
		t.Errorf("range filter = %d alerts (%v), want 1", len(recent), err)
	}
	_ = old

	// UNREAD -> READ, idempotent.
	marked, err := db.MarkAlertRead(ctx, unread.ID, testOwner)
	if err != nil || marked.Status != models.AlertRead {
		t.Fatalf("MarkAlertRead = %+v (%v)", marked, err)
	}
	marked, err = db.MarkAlertRead(ctx, unread.ID, testOwner)
	if err != nil || marked.Status != models.AlertRead {
		t.Errorf("re-mark = %+v (%v), want READ kept", marked, err)
	}

	// Force resolve, idempotent.
	resolved, err := db.ResolveAlert(ctx, unread.ID, testOwner, now)
	if err != nil || resolved.Status != models.AlertResolved || resolved.ResolvedAt == nil {
		t.Fatalf("ResolveAlert = %+v (%v)", resolved, err)
	}
	resolved, err = db.ResolveAlert(ctx, unread.ID, testOwner, now.Add(time.Hour))
	if err != nil || resolved.Status != models.AlertResolved {
		t.Errorf("re-resolve = %+v (%v), want resolved alert back", resolved, err)
	}
	if _, err := db.ResolveAlert(ctx, uuid.New(), testOwner, now); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("resolve missing = %v, want ErrNotFound", err)
	}

	active, err := db.ActiveAlerts(ctx, testOwner)
	if err != nil {
		t.Fatalf("ActiveAlerts: %v", err)
	}
	if len(active) != 1 || active[0].Kind != models.AlertRapidInflow {
		t.Errorf("ActiveAlerts = %+v, want only the rapid-inflow alert", active)
	}

	if n, err := db.MarkAllAlertsRead(ctx, testOwner); err != nil || n != 1 {
		t.Errorf("MarkAllAlertsRead = %d (%v), want 1", n, err)
	}
	if n, _ := db.UnreadAlertCount(ctx, testOwner); n != 0 {
		t.Errorf("UnreadAlertCount after mark-all = %d, want 0", n)
	}
}

func TestResolveOpenAlertsSnapshotUnchanged(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	area := createTestArea(t, db, testOwner, "Floor", 100, 80)
	area.CurrentCount = 85
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	alert := insertTestAlert(t, db, area, models.AlertThresholdBreach, models.AlertUnread, now)

	err := db.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		ids, err := tx.ResolveOpenAlerts(ctx, area.ID, models.AlertThresholdBreach, now.Add(time.Minute))
		if err != nil {
			return err
		}
		if len(ids) != 1 || ids[0] != alert.ID {
			t.Errorf("ResolveOpenAlerts = %v, want [%s]", ids, alert.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	got, err := db.AlertByID(ctx, alert.ID, testOwner)
	if err != nil {
		t.Fatalf("AlertByID: %v", err)
	}
	if got.Status != models.AlertResolved || got.ResolvedAt == nil {
		t.Errorf("alert not resolved: %+v", got)
	}
	if got.CurrentCount != 85 {
		t.Errorf("snapshot count = %d, want 85 untouched", got.CurrentCount)
	}
}
