package session

import (
	"context"
	"errors"
	"time"

	"github.com/eleven-am/classwatch/internal/shared"
	"gorm.io/gorm"
)

// Record is the durable row behind a session, appended when the session is
// first seen and updated on every telemetry tick. The aggregator reads this
// log; the live Registry never does.
type Record struct {
	ID              string `gorm:"primaryKey"`
	TeacherID       string `gorm:"index"`
	StudentID       string
	CourseTitle     string
	StartedAt       time.Time `gorm:"index"`
	EndedAt         *time.Time
	DurationMinutes int
	Status          string
	TTTRatio        float64
	Engagement      float64
	SpeakingSeconds int
	SilenceSeconds  int
	Interruptions   int
	UpdatedAt       time.Time
}

func (Record) TableName() string {
	return "session_records"
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Record{})
}

// Save upserts the record for a session from its live state.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	rec := Record{
		ID:              sess.ID,
		TeacherID:       sess.TeacherID,
		StudentID:       sess.StudentID,
		CourseTitle:     sess.CourseTitle,
		StartedAt:       sess.StartedAt,
		DurationMinutes: sess.DurationMinutes,
		Status:          string(sess.Status),
		TTTRatio:        sess.Metrics.TTTRatio,
		Engagement:      sess.Metrics.Engagement,
		SpeakingSeconds: sess.Metrics.SpeakingSeconds,
		SilenceSeconds:  sess.Metrics.SilenceSeconds,
		Interruptions:   sess.Metrics.Interruptions,
	}
	return s.db.WithContext(ctx).Save(&rec).Error
}

func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &rec, err
}

// End stamps the record so it no longer counts as live in the log.
func (s *Store) End(ctx context.Context, id string, endedAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&Record{}).
		Where("id = ? AND ended_at IS NULL", id).
		Update("ended_at", endedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListSince returns all records whose session started at or after the given
// time, ended or not. The aggregator groups them per teacher.
func (s *Store) ListSince(ctx context.Context, since time.Time) ([]*Record, error) {
	var recs []*Record
	err := s.db.WithContext(ctx).
		Where("started_at >= ?", since).
		Order("started_at ASC").
		Find(&recs).Error
	return recs, err
}

func (s *Store) ListForTeacherSince(ctx context.Context, teacherID string, since time.Time) ([]*Record, error) {
	var recs []*Record
	err := s.db.WithContext(ctx).
		Where("teacher_id = ? AND started_at >= ?", teacherID, since).
		Order("started_at ASC").
		Find(&recs).Error
	return recs, err
}
