package rollup

import (
	"time"
)

type Performance string

const (
	PerformanceExcellent        Performance = "excellent"
	PerformanceGood             Performance = "good"
	PerformanceNeedsImprovement Performance = "needs_improvement"
	PerformanceCritical         Performance = "critical"
)

// TeacherRollup is a fully derived projection over the session and alert
// logs for the current period. It is recomputed, never hand-mutated;
// recomputing from an unchanged log yields an identical result.
type TeacherRollup struct {
	TeacherID           string      `json:"teacher_id"`
	TeacherName         string      `json:"teacher_name"`
	AverageTTT          float64     `json:"average_ttt"`
	AverageEngagement   float64     `json:"average_engagement"`
	SessionsToday       int         `json:"sessions_today"`
	TotalSessionMinutes int         `json:"total_session_minutes"`
	WarningsCount       int64       `json:"warnings_count"`
	AlertsCount         int64       `json:"alerts_count"`
	Performance         Performance `json:"performance"`
	ComputedAt          time.Time   `json:"computed_at"`
}
