package alert

import (
	"context"
	"errors"
	"time"

	"github.com/eleven-am/classwatch/internal/shared"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Alert{})
}

func (s *Store) Create(ctx context.Context, a *Alert) error {
	if a.ID == "" {
		a.ID = shared.NewID("alert_")
	}
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *Store) GetByID(ctx context.Context, id string) (*Alert, error) {
	var a Alert
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &a, err
}

// FindOpen returns the unresolved alert for (sessionID, type), or
// shared.ErrNotFound. The dedup contract guarantees at most one exists.
func (s *Store) FindOpen(ctx context.Context, sessionID string, typ Type) (*Alert, error) {
	var a Alert
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND type = ? AND resolved = ?", sessionID, typ, false).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &a, err
}

func (s *Store) resolveWhere(ctx context.Context, at time.Time, query string, args ...any) (int64, error) {
	res := s.db.WithContext(ctx).Model(&Alert{}).
		Where("resolved = ?", false).
		Where(query, args...).
		Updates(map[string]any{"resolved": true, "resolved_at": at})
	return res.RowsAffected, res.Error
}

// Resolve flips the open alert for (sessionID, type), if any.
func (s *Store) Resolve(ctx context.Context, sessionID string, typ Type, at time.Time) (int64, error) {
	return s.resolveWhere(ctx, at, "session_id = ? AND type = ?", sessionID, typ)
}

// ResolveSession flips every open alert for the session.
func (s *Store) ResolveSession(ctx context.Context, sessionID string, at time.Time) (int64, error) {
	return s.resolveWhere(ctx, at, "session_id = ?", sessionID)
}

// ResolveByID flips a single alert, the supervisor-action path.
func (s *Store) ResolveByID(ctx context.Context, id string, at time.Time) error {
	n, err := s.resolveWhere(ctx, at, "id = ?", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Filter narrows List. Nil / zero fields are ignored.
type Filter struct {
	SessionID string
	TeacherID string
	Severity  Severity
	Resolved  *bool
	Since     time.Time
	Limit     int
}

func (s *Store) List(ctx context.Context, f Filter) ([]*Alert, error) {
	q := s.db.WithContext(ctx).Model(&Alert{})
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if f.TeacherID != "" {
		q = q.Where("teacher_id = ?", f.TeacherID)
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	if f.Resolved != nil {
		q = q.Where("resolved = ?", *f.Resolved)
	}
	if !f.Since.IsZero() {
		q = q.Where("timestamp >= ?", f.Since)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var alerts []*Alert
	err := q.Order("timestamp DESC").Find(&alerts).Error
	return alerts, err
}

// CountForTeacherSince counts log rows, resolved or not, for the rollup.
func (s *Store) CountForTeacherSince(ctx context.Context, teacherID string, severity Severity, since time.Time) (int64, error) {
	var n int64
	q := s.db.WithContext(ctx).Model(&Alert{}).
		Where("teacher_id = ? AND timestamp >= ?", teacherID, since)
	if severity != "" {
		q = q.Where("severity = ?", severity)
	}
	err := q.Count(&n).Error
	return n, err
}
