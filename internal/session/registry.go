package session

import (
	"log/slog"
	"sync"
	"time"
)

// Meta carries the descriptive fields of a session that arrive with every
// telemetry snapshot but only matter on first sight.
type Meta struct {
	TeacherID       string
	StudentID       string
	CourseTitle     string
	StartedAt       time.Time
	DurationMinutes int
}

// Registry tracks the currently active sessions and their latest snapshot.
// It is the hot-path view the sweep iterates; the durable session log lives
// in Store.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	flagged  map[string]bool
	log      *slog.Logger

	staleAfter time.Duration
	grace      time.Duration
	now        func() time.Time
}

type RegistryConfig struct {
	StaleAfter time.Duration
	Grace      time.Duration
	Log        *slog.Logger
	Now        func() time.Time
}

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 2 * time.Minute
	}
	if cfg.Grace <= 0 {
		cfg.Grace = time.Minute
	}
	return &Registry{
		sessions:   make(map[string]*Session),
		flagged:    make(map[string]bool),
		log:        cfg.Log.With("component", "session_registry"),
		staleAfter: cfg.StaleAfter,
		grace:      cfg.Grace,
		now:        cfg.Now,
	}
}

// Upsert replaces the session's metrics with the given snapshot and touches
// its last-seen timestamp. It returns the updated session and whether the
// session was newly created.
func (r *Registry) Upsert(id string, meta Meta, m MetricsSnapshot) (Session, bool) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		startedAt := meta.StartedAt
		if startedAt.IsZero() {
			startedAt = now
		}
		s = &Session{
			ID:              id,
			TeacherID:       meta.TeacherID,
			StudentID:       meta.StudentID,
			CourseTitle:     meta.CourseTitle,
			StartedAt:       startedAt,
			DurationMinutes: meta.DurationMinutes,
			Status:          StatusActive,
		}
		r.sessions[id] = s
		r.log.Info("session registered", "session_id", id, "teacher_id", meta.TeacherID)
	}

	s.Metrics = m
	s.LastSeenAt = now
	delete(r.flagged, id)
	return *s, !ok
}

// Fresh reports whether the session has reported within the staleness
// window.
func (r *Registry) Fresh(s Session) bool {
	return r.now().Sub(s.LastSeenAt) <= r.staleAfter
}

func (r *Registry) Get(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// ListActive returns every tracked session that is still within the
// staleness grace period, ordered arbitrarily.
func (r *Registry) ListActive() []Session {
	now := r.now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if now.Sub(s.LastSeenAt) > r.staleAfter+r.grace {
			continue
		}
		out = append(out, *s)
	}
	return out
}

// ActiveCount counts sessions within the grace period.
func (r *Registry) ActiveCount() int {
	return len(r.ListActive())
}

// SetStatus records the evaluated status for a session. Unknown ids are
// ignored; the session may have ended between evaluation and write-back.
func (r *Registry) SetStatus(id string, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.Status = status
	}
}

// MarkStale flips sessions that have not reported within the staleness
// window to critical and returns them, so the caller can raise alerts. Each
// silence is reported once; receiving telemetry again re-arms the flag.
func (r *Registry) MarkStale() []Session {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var stale []Session
	for id, s := range r.sessions {
		if now.Sub(s.LastSeenAt) > r.staleAfter && !r.flagged[id] {
			r.flagged[id] = true
			s.Status = StatusCritical
			stale = append(stale, *s)
		}
	}
	return stale
}

// Evict drops sessions silent past the staleness window plus the grace
// period. The durable record and any open alerts are untouched; they stay
// for the supervisor to act on.
func (r *Registry) Evict() []Session {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []Session
	for id, s := range r.sessions {
		if now.Sub(s.LastSeenAt) > r.staleAfter+r.grace {
			delete(r.sessions, id)
			delete(r.flagged, id)
			evicted = append(evicted, *s)
			r.log.Info("evicting abandoned session", "session_id", id, "teacher_id", s.TeacherID)
		}
	}
	return evicted
}

// End removes the session from the active set. The returned session is the
// final state observed; ok is false when the id was not tracked.
func (r *Registry) End(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	delete(r.sessions, id)
	delete(r.flagged, id)
	r.log.Info("session ended", "session_id", id, "teacher_id", s.TeacherID)
	return *s, true
}
