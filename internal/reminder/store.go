package reminder

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Record{})
}

func (s *Store) Create(ctx context.Context, rec *Record) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *Store) ListForTeacher(ctx context.Context, teacherID string, limit int) ([]*Record, error) {
	q := s.db.WithContext(ctx).Where("teacher_id = ?", teacherID).Order("sent_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []*Record
	err := q.Find(&recs).Error
	return recs, err
}

func (s *Store) ListSince(ctx context.Context, since time.Time) ([]*Record, error) {
	var recs []*Record
	err := s.db.WithContext(ctx).
		Where("sent_at >= ?", since).
		Order("sent_at DESC").
		Find(&recs).Error
	return recs, err
}
