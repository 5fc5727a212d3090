package session

import (
	"time"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// MetricsSnapshot is the latest quality telemetry for one session. It is
// replaced wholesale on every telemetry tick, never merged field by field.
type MetricsSnapshot struct {
	TTTRatio        float64 `json:"ttt_ratio"`
	Engagement      float64 `json:"engagement"`
	CameraOn        bool    `json:"camera_on"`
	MicOn           bool    `json:"mic_on"`
	SpeakingSeconds int     `json:"speaking_seconds"`
	SilenceSeconds  int     `json:"silence_seconds"`
	Interruptions   int     `json:"interruptions"`
}

type Session struct {
	ID              string          `json:"id"`
	TeacherID       string          `json:"teacher_id"`
	StudentID       string          `json:"student_id"`
	CourseTitle     string          `json:"course_title"`
	StartedAt       time.Time       `json:"started_at"`
	DurationMinutes int             `json:"duration_minutes"`
	Status          Status          `json:"status"`
	Metrics         MetricsSnapshot `json:"metrics"`
	LastSeenAt      time.Time       `json:"last_seen_at"`
}

// Elapsed reports how long the session has been running as of now.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if now.Before(s.StartedAt) {
		return 0
	}
	return now.Sub(s.StartedAt)
}
