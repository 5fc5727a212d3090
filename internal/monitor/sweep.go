package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/eleven-am/classwatch/internal/alert"
	"github.com/eleven-am/classwatch/internal/notify"
	"github.com/eleven-am/classwatch/internal/reminder"
	"github.com/eleven-am/classwatch/internal/session"
	"github.com/eleven-am/classwatch/internal/shared"
)

// Monitor owns the periodic supervision sweep: evaluate every active
// session, raise and resolve alerts, and dispatch automatic coaching
// reminders while auto-monitoring is on. A failure on one session never
// stops the sweep for the rest.
type Monitor struct {
	registry   *session.Registry
	sessions   *session.Store
	alerts     *alert.Manager
	dispatcher *reminder.Dispatcher
	bus        notify.Bus

	thresholds Thresholds
	interval   time.Duration
	auto       atomic.Bool
	log        *slog.Logger
	now        func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

type Config struct {
	Registry   *session.Registry
	Sessions   *session.Store
	Alerts     *alert.Manager
	Dispatcher *reminder.Dispatcher
	Bus        notify.Bus
	Thresholds Thresholds
	Interval   time.Duration
	Auto       bool
	Log        *slog.Logger
	Now        func() time.Time
}

func New(cfg Config) *Monitor {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}

	m := &Monitor{
		registry:   cfg.Registry,
		sessions:   cfg.Sessions,
		alerts:     cfg.Alerts,
		dispatcher: cfg.Dispatcher,
		bus:        cfg.Bus,
		thresholds: cfg.Thresholds,
		interval:   cfg.Interval,
		log:        cfg.Log.With("component", "monitor"),
		now:        cfg.Now,
	}
	m.auto.Store(cfg.Auto)
	return m
}

func (m *Monitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(ctx)
}

func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// AutoMonitoring reports whether automatic reminders are being sent.
func (m *Monitor) AutoMonitoring() bool {
	return m.auto.Load()
}

// SetAutoMonitoring flips the automatic reminder path. Turning it off takes
// effect from the next tick; records already sent are unaffected.
func (m *Monitor) SetAutoMonitoring(enabled bool) {
	m.auto.Store(enabled)
	m.log.Info("auto-monitoring toggled", "enabled", enabled)
}

func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Sweep runs one evaluation pass over every active session. Sessions with
// no fresh telemetry are skipped: their last snapshot says nothing about
// the class right now, and flagStaleSessions handles them instead.
func (m *Monitor) Sweep(ctx context.Context) {
	for _, s := range m.registry.ListActive() {
		if !m.registry.Fresh(s) {
			continue
		}
		m.evaluateSession(ctx, s)
	}
	m.flagStaleSessions(ctx)
	m.registry.Evict()
}

func (m *Monitor) evaluateSession(ctx context.Context, s session.Session) {
	ev := Evaluate(s.Metrics, s.Elapsed(m.now()), m.thresholds)

	present := make(map[alert.Type]bool, len(ev.Breaches))
	for _, b := range ev.Breaches {
		present[b.Type] = true
		if _, _, err := m.alerts.Raise(ctx, s.ID, s.TeacherID, b.Type, b.Severity, b.Message); err != nil {
			m.log.Error("failed to raise alert", "error", err, "session_id", s.ID, "type", b.Type)
		}
	}

	for _, typ := range BreachTypes {
		if present[typ] {
			continue
		}
		if err := m.alerts.Resolve(ctx, s.ID, typ); err != nil {
			m.log.Error("failed to resolve alert", "error", err, "session_id", s.ID, "type", typ)
		}
	}

	// Being evaluated means a fresh snapshot arrived, so any staleness
	// alert has cleared.
	if err := m.alerts.Resolve(ctx, s.ID, alert.TypeStaleTelemetry); err != nil {
		m.log.Error("failed to resolve alert", "error", err, "session_id", s.ID, "type", alert.TypeStaleTelemetry)
	}

	if s.Status != ev.Status {
		m.registry.SetStatus(s.ID, ev.Status)
		s.Status = ev.Status

		if err := m.sessions.Save(ctx, &s); err != nil {
			m.log.Warn("failed to persist session status", "error", err, "session_id", s.ID)
		}
		if err := m.bus.Publish(ctx, notify.NewEvent(notify.KindSessionUpdate, s)); err != nil {
			m.log.Warn("failed to publish session update", "error", err, "session_id", s.ID)
		}
	}

	if m.auto.Load() {
		// Faithful to observed behavior: one reminder per breaching
		// session per tick, no cooldown (see DESIGN.md).
		for _, b := range ev.Breaches {
			if _, err := m.dispatcher.Send(ctx, s.TeacherID, s.ID, b.Type, "", reminder.SentByAuto); err != nil {
				m.log.Warn("automatic reminder failed", "error", err,
					"session_id", s.ID, "teacher_id", s.TeacherID, "type", b.Type)
			}
		}
	}
}

func (m *Monitor) flagStaleSessions(ctx context.Context) {
	for _, s := range m.registry.MarkStale() {
		if _, _, err := m.alerts.Raise(ctx, s.ID, s.TeacherID, alert.TypeStaleTelemetry,
			alert.SeverityCritical, "no telemetry received from session"); err != nil {
			m.log.Error("failed to raise staleness alert", "error", err, "session_id", s.ID)
		}

		if err := m.sessions.Save(ctx, &s); err != nil {
			m.log.Warn("failed to persist stale session", "error", err, "session_id", s.ID)
		}
		if err := m.bus.Publish(ctx, notify.NewEvent(notify.KindSessionUpdate, s)); err != nil {
			m.log.Warn("failed to publish session update", "error", err, "session_id", s.ID)
		}
	}
}

// EndSession removes the session from the active set, stamps the log and
// resolves every alert still open for it.
func (m *Monitor) EndSession(ctx context.Context, id string) error {
	s, tracked := m.registry.End(id)

	if err := m.alerts.ResolveSession(ctx, id); err != nil {
		m.log.Error("failed to resolve alerts on session end", "error", err, "session_id", id)
	}

	err := m.sessions.End(ctx, id, m.now().UTC())
	if errors.Is(err, shared.ErrNotFound) {
		if !tracked {
			return shared.ErrNotFound
		}
		err = nil
	}
	if err != nil {
		return err
	}

	if tracked {
		if pubErr := m.bus.Publish(ctx, notify.NewEvent(notify.KindSessionUpdate, s)); pubErr != nil {
			m.log.Warn("failed to publish session end", "error", pubErr, "session_id", id)
		}
	}
	return nil
}
