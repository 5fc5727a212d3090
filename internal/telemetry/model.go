package telemetry

import (
	"time"

	"github.com/eleven-am/classwatch/internal/session"
	"github.com/go-playground/validator/v10"
)

// Snapshot is one inbound telemetry reading for one session. The metric
// block replaces the session's previous snapshot wholesale.
type Snapshot struct {
	SessionID       string    `json:"session_id" validate:"required"`
	TeacherID       string    `json:"teacher_id" validate:"required"`
	StudentID       string    `json:"student_id"`
	CourseTitle     string    `json:"course_title"`
	StartedAt       time.Time `json:"started_at"`
	DurationMinutes int       `json:"duration_minutes" validate:"gte=0"`

	TTTRatio        float64 `json:"ttt_ratio" validate:"gte=0,lte=100"`
	Engagement      float64 `json:"engagement" validate:"gte=0,lte=100"`
	CameraOn        bool    `json:"camera_on"`
	MicOn           bool    `json:"mic_on"`
	SpeakingSeconds int     `json:"speaking_seconds" validate:"gte=0"`
	SilenceSeconds  int     `json:"silence_seconds" validate:"gte=0"`
	Interruptions   int     `json:"interruptions" validate:"gte=0"`
}

var validate = validator.New()

func (s *Snapshot) Validate() error {
	return validate.Struct(s)
}

func (s *Snapshot) Meta() session.Meta {
	return session.Meta{
		TeacherID:       s.TeacherID,
		StudentID:       s.StudentID,
		CourseTitle:     s.CourseTitle,
		StartedAt:       s.StartedAt,
		DurationMinutes: s.DurationMinutes,
	}
}

func (s *Snapshot) Metrics() session.MetricsSnapshot {
	return session.MetricsSnapshot{
		TTTRatio:        s.TTTRatio,
		Engagement:      s.Engagement,
		CameraOn:        s.CameraOn,
		MicOn:           s.MicOn,
		SpeakingSeconds: s.SpeakingSeconds,
		SilenceSeconds:  s.SilenceSeconds,
		Interruptions:   s.Interruptions,
	}
}
