package session

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func testClock(start time.Time) (*time.Time, func() time.Time) {
	now := start
	return &now, func() time.Time { return now }
}

func newTestRegistry(t *testing.T, now func() time.Time) *Registry {
	t.Helper()
	return NewRegistry(RegistryConfig{
		StaleAfter: 2 * time.Minute,
		Grace:      time.Minute,
		Log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:        now,
	})
}

func testMeta() Meta {
	return Meta{
		TeacherID:       "teacher_1",
		StudentID:       "student_1",
		CourseTitle:     "IELTS Speaking",
		DurationMinutes: 60,
	}
}

func TestRegistry_Upsert_CreatesOnFirstSight(t *testing.T) {
	reg := newTestRegistry(t, time.Now)

	s, created := reg.Upsert("sess_1", testMeta(), MetricsSnapshot{Engagement: 80})
	if !created {
		t.Error("first upsert should create")
	}
	if s.Status != StatusActive {
		t.Errorf("new session should be active, got %s", s.Status)
	}
	if s.TeacherID != "teacher_1" {
		t.Errorf("meta not applied: %+v", s)
	}

	_, created = reg.Upsert("sess_1", testMeta(), MetricsSnapshot{Engagement: 70})
	if created {
		t.Error("second upsert should not create")
	}
}

func TestRegistry_Upsert_ReplacesSnapshotWholesale(t *testing.T) {
	reg := newTestRegistry(t, time.Now)

	reg.Upsert("sess_1", testMeta(), MetricsSnapshot{TTTRatio: 80, SpeakingSeconds: 100})
	reg.Upsert("sess_1", testMeta(), MetricsSnapshot{Engagement: 40})

	s, ok := reg.Get("sess_1")
	if !ok {
		t.Fatal("session should exist")
	}
	if s.Metrics.TTTRatio != 0 || s.Metrics.SpeakingSeconds != 0 {
		t.Errorf("old snapshot fields leaked through: %+v", s.Metrics)
	}
	if s.Metrics.Engagement != 40 {
		t.Errorf("new snapshot not applied: %+v", s.Metrics)
	}
}

func TestRegistry_ListActive_ExcludesStaleBeyondGrace(t *testing.T) {
	now, clock := testClock(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	reg := newTestRegistry(t, clock)

	reg.Upsert("sess_fresh", testMeta(), MetricsSnapshot{})
	reg.Upsert("sess_stale", testMeta(), MetricsSnapshot{})

	// Keep one session fresh while the other ages past stale + grace.
	*now = now.Add(2 * time.Minute)
	reg.Upsert("sess_fresh", testMeta(), MetricsSnapshot{})
	*now = now.Add(90 * time.Second)

	active := reg.ListActive()
	if len(active) != 1 {
		t.Fatalf("expected 1 active session, got %d", len(active))
	}
	if active[0].ID != "sess_fresh" {
		t.Errorf("wrong session survived: %s", active[0].ID)
	}
	if reg.ActiveCount() != 1 {
		t.Errorf("active count should be 1, got %d", reg.ActiveCount())
	}
}

func TestRegistry_MarkStale_FlipsToCritical(t *testing.T) {
	now, clock := testClock(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	reg := newTestRegistry(t, clock)

	reg.Upsert("sess_1", testMeta(), MetricsSnapshot{})
	*now = now.Add(3 * time.Minute)

	stale := reg.MarkStale()
	if len(stale) != 1 || stale[0].ID != "sess_1" {
		t.Fatalf("expected sess_1 flagged stale, got %+v", stale)
	}
	if stale[0].Status != StatusCritical {
		t.Errorf("stale session should be critical, got %s", stale[0].Status)
	}

	// Each silence is reported once.
	if again := reg.MarkStale(); len(again) != 0 {
		t.Errorf("second pass should flag nothing, got %d", len(again))
	}
}

func TestRegistry_MarkStale_FlagsCriticalSessions(t *testing.T) {
	now, clock := testClock(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	reg := newTestRegistry(t, clock)

	// A session already critical for metric reasons still gets flagged when
	// it goes silent.
	reg.Upsert("sess_1", testMeta(), MetricsSnapshot{Engagement: 5})
	reg.SetStatus("sess_1", StatusCritical)
	*now = now.Add(3 * time.Minute)

	stale := reg.MarkStale()
	if len(stale) != 1 || stale[0].ID != "sess_1" {
		t.Fatalf("expected critical session flagged stale, got %+v", stale)
	}
}

func TestRegistry_MarkStale_RearmsAfterResume(t *testing.T) {
	now, clock := testClock(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	reg := newTestRegistry(t, clock)

	reg.Upsert("sess_1", testMeta(), MetricsSnapshot{})
	*now = now.Add(3 * time.Minute)
	if stale := reg.MarkStale(); len(stale) != 1 {
		t.Fatalf("expected one stale session, got %d", len(stale))
	}

	// Telemetry resumes, then the session goes silent a second time.
	reg.Upsert("sess_1", testMeta(), MetricsSnapshot{})
	if !reg.Fresh(mustGet(t, reg, "sess_1")) {
		t.Fatal("resumed session should be fresh")
	}
	*now = now.Add(3 * time.Minute)

	if stale := reg.MarkStale(); len(stale) != 1 {
		t.Errorf("second silence should be flagged again, got %d", len(stale))
	}
}

func TestRegistry_Evict_DropsAbandonedSessions(t *testing.T) {
	now, clock := testClock(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	reg := newTestRegistry(t, clock)

	reg.Upsert("sess_fresh", testMeta(), MetricsSnapshot{})
	reg.Upsert("sess_gone", testMeta(), MetricsSnapshot{})

	*now = now.Add(2 * time.Minute)
	reg.Upsert("sess_fresh", testMeta(), MetricsSnapshot{})
	*now = now.Add(90 * time.Second)

	evicted := reg.Evict()
	if len(evicted) != 1 || evicted[0].ID != "sess_gone" {
		t.Fatalf("expected sess_gone evicted, got %+v", evicted)
	}
	if _, ok := reg.Get("sess_gone"); ok {
		t.Error("evicted session should be gone from the registry")
	}
	if _, ok := reg.Get("sess_fresh"); !ok {
		t.Error("fresh session should survive eviction")
	}

	if again := reg.Evict(); len(again) != 0 {
		t.Errorf("second eviction pass should drop nothing, got %d", len(again))
	}
}

func mustGet(t *testing.T, reg *Registry, id string) Session {
	t.Helper()
	s, ok := reg.Get(id)
	if !ok {
		t.Fatalf("session %s should exist", id)
	}
	return s
}

func TestRegistry_SetStatus_UnknownIDIgnored(t *testing.T) {
	reg := newTestRegistry(t, time.Now)
	reg.SetStatus("sess_missing", StatusWarning)
}

func TestRegistry_End(t *testing.T) {
	reg := newTestRegistry(t, time.Now)

	reg.Upsert("sess_1", testMeta(), MetricsSnapshot{})
	s, ok := reg.End("sess_1")
	if !ok {
		t.Fatal("end should report the session was tracked")
	}
	if s.ID != "sess_1" {
		t.Errorf("wrong session returned: %s", s.ID)
	}

	if _, ok := reg.Get("sess_1"); ok {
		t.Error("ended session should be gone")
	}
	if _, ok := reg.End("sess_1"); ok {
		t.Error("ending twice should report not tracked")
	}
}
