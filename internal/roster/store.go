package roster

import (
	"context"
	"errors"
	"fmt"

	"github.com/eleven-am/classwatch/internal/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Teacher{}, &Course{})
}

func (s *Store) GetTeacher(ctx context.Context, id string) (*Teacher, error) {
	var t Teacher
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &t, err
}

func (s *Store) ListTeachers(ctx context.Context) ([]*Teacher, error) {
	var teachers []*Teacher
	err := s.db.WithContext(ctx).Order("name ASC").Find(&teachers).Error
	return teachers, err
}

// SyncTeachers upserts the roster rows pushed by the owning backend.
func (s *Store) SyncTeachers(ctx context.Context, teachers []*Teacher) error {
	if len(teachers) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&teachers).Error
}

// TeacherContact implements reminder.AddressBook.
func (s *Store) TeacherContact(ctx context.Context, teacherID string) (string, string, error) {
	t, err := s.GetTeacher(ctx, teacherID)
	if err != nil {
		return "", "", fmt.Errorf("teacher %s: %w", teacherID, err)
	}
	return t.Name, t.Email, nil
}
