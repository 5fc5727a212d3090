package alert

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/classwatch/internal/notify"
	"github.com/eleven-am/classwatch/internal/shared"
)

const keyStripes = 64

// Manager enforces the dedup contract: at most one unresolved alert per
// (sessionID, type). Raise serializes per key on a striped mutex, so
// concurrent sweeps over many sessions can never double-create.
type Manager struct {
	store *Store
	bus   notify.Bus
	log   *slog.Logger
	now   func() time.Time

	stripes [keyStripes]sync.Mutex
}

func NewManager(store *Store, bus notify.Bus, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store: store,
		bus:   bus,
		log:   logger.With("component", "alert_manager"),
		now:   time.Now,
	}
}

func (m *Manager) stripe(sessionID string, typ Type) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(typ))
	return &m.stripes[h.Sum32()%keyStripes]
}

// Raise creates the alert unless an unresolved one already exists for the
// same (sessionID, type), in which case the existing alert is returned and
// created is false. New alerts are persisted before they are published.
func (m *Manager) Raise(ctx context.Context, sessionID, teacherID string, typ Type, severity Severity, message string) (*Alert, bool, error) {
	mu := m.stripe(sessionID, typ)
	mu.Lock()
	defer mu.Unlock()

	existing, err := m.store.FindOpen(ctx, sessionID, typ)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, fmt.Errorf("looking up open alert: %w", err)
	}

	a := &Alert{
		SessionID: sessionID,
		TeacherID: teacherID,
		Type:      typ,
		Severity:  severity,
		Message:   message,
		Timestamp: m.now().UTC(),
	}
	if err := m.store.Create(ctx, a); err != nil {
		return nil, false, fmt.Errorf("creating alert: %w", err)
	}

	m.log.Info("alert raised",
		"alert_id", a.ID, "session_id", sessionID, "teacher_id", teacherID,
		"type", typ, "severity", severity)

	if err := m.bus.Publish(ctx, notify.NewEvent(notify.KindAlertRaised, a)); err != nil {
		m.log.Warn("failed to publish alert", "error", err, "alert_id", a.ID)
	}
	return a, true, nil
}

// Resolve closes the open alert for (sessionID, type) once the breach has
// cleared. Resolving an already-clear key is a no-op.
func (m *Manager) Resolve(ctx context.Context, sessionID string, typ Type) error {
	mu := m.stripe(sessionID, typ)
	mu.Lock()
	defer mu.Unlock()

	n, err := m.store.Resolve(ctx, sessionID, typ, m.now().UTC())
	if err != nil {
		return fmt.Errorf("resolving alert: %w", err)
	}
	if n > 0 {
		m.log.Info("alert resolved", "session_id", sessionID, "type", typ)
	}
	return nil
}

// ResolveSession closes every open alert for a session when it ends.
func (m *Manager) ResolveSession(ctx context.Context, sessionID string) error {
	n, err := m.store.ResolveSession(ctx, sessionID, m.now().UTC())
	if err != nil {
		return fmt.Errorf("resolving session alerts: %w", err)
	}
	if n > 0 {
		m.log.Info("session alerts resolved", "session_id", sessionID, "count", n)
	}
	return nil
}
