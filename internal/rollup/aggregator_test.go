package rollup

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/eleven-am/classwatch/internal/alert"
	"github.com/eleven-am/classwatch/internal/notify"
	"github.com/eleven-am/classwatch/internal/roster"
	"github.com/eleven-am/classwatch/internal/session"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	agg      *Aggregator
	sessions *session.Store
	alerts   *alert.Store
	roster   *roster.Store
	bus      *notify.LocalBus
	now      time.Time
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sessions := session.NewStore(db)
	alerts := alert.NewStore(db)
	rosterStore := roster.NewStore(db)
	for _, m := range []interface{ Migrate() error }{sessions, alerts, rosterStore} {
		if err := m.Migrate(); err != nil {
			t.Fatalf("migration failed: %v", err)
		}
	}

	bus := notify.NewLocalBus(testLogger())
	now := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)

	agg := NewAggregator(AggregatorConfig{
		Sessions: sessions,
		Alerts:   alerts,
		Roster:   rosterStore,
		Bus:      bus,
		Log:      testLogger(),
		Now:      func() time.Time { return now },
	})

	return &fixture{agg: agg, sessions: sessions, alerts: alerts, roster: rosterStore, bus: bus, now: now}
}

func (f *fixture) addTeacher(t *testing.T, id, name string) {
	t.Helper()
	err := f.roster.SyncTeachers(context.Background(), []*roster.Teacher{
		{ID: id, Name: name, Email: id + "@classwatch.example.com"},
	})
	if err != nil {
		t.Fatalf("sync teachers failed: %v", err)
	}
}

func (f *fixture) addSession(t *testing.T, id, teacherID string, ttt, engagement float64, startedAgo time.Duration) {
	t.Helper()
	s := &session.Session{
		ID:        id,
		TeacherID: teacherID,
		StartedAt: f.now.Add(-startedAgo),
		Status:    session.StatusActive,
		Metrics:   session.MetricsSnapshot{TTTRatio: ttt, Engagement: engagement},
	}
	if err := f.sessions.Save(context.Background(), s); err != nil {
		t.Fatalf("save session failed: %v", err)
	}
}

func (f *fixture) addAlert(t *testing.T, sessionID, teacherID string, severity alert.Severity) {
	t.Helper()
	a := &alert.Alert{
		SessionID: sessionID,
		TeacherID: teacherID,
		Type:      alert.TypeTTTHigh,
		Severity:  severity,
		Timestamp: f.now.Add(-time.Hour),
	}
	if err := f.alerts.Create(context.Background(), a); err != nil {
		t.Fatalf("create alert failed: %v", err)
	}
}

func TestAggregator_Recompute_Averages(t *testing.T) {
	f := setupFixture(t)
	f.addTeacher(t, "teacher_1", "Alicia Moreau")
	f.addSession(t, "sess_1", "teacher_1", 20, 80, 2*time.Hour)
	f.addSession(t, "sess_2", "teacher_1", 40, 60, time.Hour)

	rollups, err := f.agg.Recompute(context.Background())
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if len(rollups) != 1 {
		t.Fatalf("expected 1 rollup, got %d", len(rollups))
	}

	r := rollups[0]
	if r.AverageTTT != 30 {
		t.Errorf("average ttt = %.1f, want 30", r.AverageTTT)
	}
	if r.AverageEngagement != 70 {
		t.Errorf("average engagement = %.1f, want 70", r.AverageEngagement)
	}
	if r.SessionsToday != 2 {
		t.Errorf("sessions today = %d, want 2", r.SessionsToday)
	}
	if r.TotalSessionMinutes != 180 {
		t.Errorf("total minutes = %d, want 180", r.TotalSessionMinutes)
	}
	if r.TeacherName != "Alicia Moreau" {
		t.Errorf("teacher name = %q", r.TeacherName)
	}
}

func TestAggregator_Recompute_ExcludesOlderPeriods(t *testing.T) {
	f := setupFixture(t)
	f.addTeacher(t, "teacher_1", "Alicia Moreau")
	f.addSession(t, "sess_today", "teacher_1", 30, 70, time.Hour)
	f.addSession(t, "sess_yesterday", "teacher_1", 90, 10, 30*time.Hour)

	rollups, err := f.agg.Recompute(context.Background())
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if len(rollups) != 1 || rollups[0].SessionsToday != 1 {
		t.Fatalf("expected one rollup over today's single session, got %+v", rollups)
	}
}

func TestAggregator_Recompute_Idempotent(t *testing.T) {
	f := setupFixture(t)
	f.addTeacher(t, "teacher_1", "Alicia Moreau")
	f.addTeacher(t, "teacher_2", "Daniel Okafor")
	f.addSession(t, "sess_1", "teacher_1", 75, 25, 2*time.Hour)
	f.addSession(t, "sess_2", "teacher_2", 30, 80, time.Hour)
	f.addAlert(t, "sess_1", "teacher_1", alert.SeverityWarning)
	f.addAlert(t, "sess_1", "teacher_1", alert.SeverityCritical)

	first, err := f.agg.Recompute(context.Background())
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	second, err := f.agg.Recompute(context.Background())
	if err != nil {
		t.Fatalf("second recompute failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("recompute is not idempotent:\nfirst:  %+v\nsecond: %+v", first[0], second[0])
	}
}

func TestAggregator_Recompute_CountsAlerts(t *testing.T) {
	f := setupFixture(t)
	f.addTeacher(t, "teacher_1", "Alicia Moreau")
	f.addSession(t, "sess_1", "teacher_1", 50, 60, time.Hour)
	f.addAlert(t, "sess_1", "teacher_1", alert.SeverityWarning)
	f.addAlert(t, "sess_1", "teacher_1", alert.SeverityWarning)
	f.addAlert(t, "sess_1", "teacher_1", alert.SeverityCritical)

	rollups, err := f.agg.Recompute(context.Background())
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}

	r := rollups[0]
	if r.WarningsCount != 2 {
		t.Errorf("warnings = %d, want 2", r.WarningsCount)
	}
	if r.AlertsCount != 3 {
		t.Errorf("alerts = %d, want 3", r.AlertsCount)
	}
}

func TestAggregator_Recompute_SkipsMissingTeacher(t *testing.T) {
	f := setupFixture(t)
	f.addTeacher(t, "teacher_known", "Alicia Moreau")
	f.addSession(t, "sess_1", "teacher_known", 30, 80, time.Hour)
	f.addSession(t, "sess_2", "teacher_ghost", 90, 5, time.Hour)

	rollups, err := f.agg.Recompute(context.Background())
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if len(rollups) != 1 || rollups[0].TeacherID != "teacher_known" {
		t.Fatalf("expected only the known teacher, got %+v", rollups)
	}
}

func TestAggregator_Recompute_PublishesMetricsUpdate(t *testing.T) {
	f := setupFixture(t)
	f.addTeacher(t, "teacher_1", "Alicia Moreau")
	f.addSession(t, "sess_1", "teacher_1", 30, 80, time.Hour)

	events, cancel := f.bus.Subscribe(8)
	defer cancel()

	if _, err := f.agg.Recompute(context.Background()); err != nil {
		t.Fatalf("recompute failed: %v", err)
	}

	select {
	case evt := <-events:
		if evt.Kind != notify.KindMetricsUpdate {
			t.Errorf("expected metrics-update, got %s", evt.Kind)
		}
	default:
		t.Fatal("expected a published event")
	}
}

func TestClassifier_Buckets(t *testing.T) {
	c := DefaultClassifier()

	tests := []struct {
		name       string
		ttt        float64
		engagement float64
		warnings   int64
		sessions   int
		want       Performance
	}{
		{"no sessions", 0, 0, 0, 0, PerformanceGood},
		{"excellent", 25, 80, 0, 3, PerformanceExcellent},
		{"good", 45, 60, 1, 3, PerformanceGood},
		{"high ttt", 65, 60, 0, 3, PerformanceNeedsImprovement},
		{"many warnings", 25, 80, 6, 3, PerformanceNeedsImprovement},
		{"critical warnings", 25, 80, 11, 3, PerformanceCritical},
		{"critical engagement", 25, 15, 0, 3, PerformanceCritical},
		// Ties favor the stricter bucket: exactly at the excellent edge.
		{"excellent edge", 30, 70, 0, 3, PerformanceExcellent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.ttt, tt.engagement, tt.warnings, tt.sessions); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt, got, tt.want)
			}
		})
	}
}
