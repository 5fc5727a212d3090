package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eleven-am/classwatch/internal/shared"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestAlertStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	store := NewStore(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	return store
}

func newTestAlert(sessionID string, typ Type) *Alert {
	return &Alert{
		SessionID: sessionID,
		TeacherID: "teacher_1",
		Type:      typ,
		Severity:  SeverityWarning,
		Message:   "test",
		Timestamp: time.Now().UTC(),
	}
}

func TestStore_CreateAndFindOpen(t *testing.T) {
	store := setupTestAlertStore(t)
	ctx := context.Background()

	a := newTestAlert("sess_1", TypeTTTHigh)
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if a.ID == "" {
		t.Error("create should assign an id")
	}

	found, err := store.FindOpen(ctx, "sess_1", TypeTTTHigh)
	if err != nil {
		t.Fatalf("find open failed: %v", err)
	}
	if found.ID != a.ID {
		t.Errorf("expected alert %s, got %s", a.ID, found.ID)
	}
}

func TestStore_FindOpen_NotFound(t *testing.T) {
	store := setupTestAlertStore(t)

	_, err := store.FindOpen(context.Background(), "sess_missing", TypeTTTHigh)
	if !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_FindOpen_IgnoresResolved(t *testing.T) {
	store := setupTestAlertStore(t)
	ctx := context.Background()

	a := newTestAlert("sess_1", TypeTTTHigh)
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := store.Resolve(ctx, "sess_1", TypeTTTHigh, time.Now().UTC()); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if _, err := store.FindOpen(ctx, "sess_1", TypeTTTHigh); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("resolved alert should not be found open, got %v", err)
	}
}

func TestStore_Resolve_IsStatusFlipNotDeletion(t *testing.T) {
	store := setupTestAlertStore(t)
	ctx := context.Background()

	a := newTestAlert("sess_1", TypeLowEngagement)
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	n, err := store.Resolve(ctx, "sess_1", TypeLowEngagement, time.Now().UTC())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row resolved, got %d", n)
	}

	got, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !got.Resolved {
		t.Error("alert should be resolved")
	}
	if got.ResolvedAt == nil {
		t.Error("resolved_at should be set")
	}
}

func TestStore_ResolveSession(t *testing.T) {
	store := setupTestAlertStore(t)
	ctx := context.Background()

	for _, typ := range []Type{TypeTTTHigh, TypeLowEngagement, TypeTechnicalIssue} {
		if err := store.Create(ctx, newTestAlert("sess_1", typ)); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if err := store.Create(ctx, newTestAlert("sess_2", TypeTTTHigh)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	n, err := store.ResolveSession(ctx, "sess_1", time.Now().UTC())
	if err != nil {
		t.Fatalf("resolve session failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 rows resolved, got %d", n)
	}

	if _, err := store.FindOpen(ctx, "sess_2", TypeTTTHigh); err != nil {
		t.Errorf("sess_2 alert should remain open, got %v", err)
	}
}

func TestStore_ResolveByID_NotFound(t *testing.T) {
	store := setupTestAlertStore(t)

	err := store.ResolveByID(context.Background(), "alert_missing", time.Now().UTC())
	if !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_List_Filters(t *testing.T) {
	store := setupTestAlertStore(t)
	ctx := context.Background()

	open := newTestAlert("sess_1", TypeTTTHigh)
	if err := store.Create(ctx, open); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	critical := newTestAlert("sess_2", TypeLowEngagement)
	critical.TeacherID = "teacher_2"
	critical.Severity = SeverityCritical
	if err := store.Create(ctx, critical); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := store.Resolve(ctx, "sess_2", TypeLowEngagement, time.Now().UTC()); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	all, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 alerts, got %d", len(all))
	}

	unresolved := false
	onlyOpen, err := store.List(ctx, Filter{Resolved: &unresolved})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(onlyOpen) != 1 || onlyOpen[0].SessionID != "sess_1" {
		t.Errorf("expected only the open sess_1 alert, got %+v", onlyOpen)
	}

	bySeverity, err := store.List(ctx, Filter{Severity: SeverityCritical})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(bySeverity) != 1 || bySeverity[0].TeacherID != "teacher_2" {
		t.Errorf("expected the critical teacher_2 alert, got %+v", bySeverity)
	}
}

func TestStore_CountForTeacherSince(t *testing.T) {
	store := setupTestAlertStore(t)
	ctx := context.Background()
	since := time.Now().UTC().Add(-time.Hour)

	warning := newTestAlert("sess_1", TypeTTTHigh)
	if err := store.Create(ctx, warning); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	critical := newTestAlert("sess_1", TypeLowEngagement)
	critical.Severity = SeverityCritical
	if err := store.Create(ctx, critical); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Resolved rows still count; the rollup reads the whole log.
	if _, err := store.Resolve(ctx, "sess_1", TypeTTTHigh, time.Now().UTC()); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	warnings, err := store.CountForTeacherSince(ctx, "teacher_1", SeverityWarning, since)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if warnings != 1 {
		t.Errorf("expected 1 warning, got %d", warnings)
	}

	total, err := store.CountForTeacherSince(ctx, "teacher_1", "", since)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 total, got %d", total)
	}
}
