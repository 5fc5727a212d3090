package alert

import (
	"time"
)

type Type string

const (
	TypeTTTHigh        Type = "ttt_high"
	TypeLowEngagement  Type = "low_engagement"
	TypeTechnicalIssue Type = "technical_issue"
	TypeLongSilence    Type = "long_silence"
	TypeNoCamera       Type = "no_camera"
	TypeStaleTelemetry Type = "stale_telemetry"
)

type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank orders severities so the max across breaches picks the session
// status.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Alert is one row of the append-only alert log. Resolution flips Resolved,
// it never deletes.
type Alert struct {
	ID         string     `gorm:"primaryKey" json:"id"`
	SessionID  string     `gorm:"index:idx_alerts_session_type" json:"session_id"`
	TeacherID  string     `gorm:"index" json:"teacher_id"`
	Type       Type       `gorm:"index:idx_alerts_session_type" json:"type"`
	Severity   Severity   `json:"severity"`
	Message    string     `json:"message"`
	Timestamp  time.Time  `gorm:"index" json:"timestamp"`
	Resolved   bool       `gorm:"index" json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func (Alert) TableName() string {
	return "alerts"
}
