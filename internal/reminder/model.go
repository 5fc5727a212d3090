package reminder

import (
	"time"
)

type SentBy string

const (
	SentByAuto       SentBy = "auto"
	SentBySupervisor SentBy = "supervisor"
)

// Record is one coaching message sent to an instructor. Immutable once
// created.
type Record struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	TeacherID string    `gorm:"index" json:"teacher_id"`
	SessionID string    `gorm:"index" json:"session_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	SentAt    time.Time `gorm:"index" json:"sent_at"`
	SentBy    SentBy    `json:"sent_by"`
}

func (Record) TableName() string {
	return "reminder_records"
}
