package roster

import (
	"time"
)

// Teacher is the read-only shadow of the externally owned roster, kept for
// display names and reminder addressing only.
type Teacher struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Teacher) TableName() string {
	return "teachers"
}

// Course metadata is display-only as well.
type Course struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Title     string    `json:"title"`
	TeacherID string    `gorm:"index" json:"teacher_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}
