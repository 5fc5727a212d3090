package monitor

import (
	"fmt"
	"time"

	"github.com/eleven-am/classwatch/internal/alert"
	"github.com/eleven-am/classwatch/internal/session"
)

// Thresholds are the static policy knobs the evaluator applies. They come
// from config and never change mid-run.
type Thresholds struct {
	TTTWarning         float64
	TTTCritical        float64
	EngagementWarning  float64
	EngagementCritical float64

	// A session is long-silent when silence exceeds this fraction of the
	// elapsed time, once at least SilenceMinElapsed has passed.
	SilenceFraction   float64
	SilenceMinElapsed time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		TTTWarning:         70,
		TTTCritical:        85,
		EngagementWarning:  30,
		EngagementCritical: 15,
		SilenceFraction:    0.4,
		SilenceMinElapsed:  2 * time.Minute,
	}
}

type Breach struct {
	Type     alert.Type
	Severity alert.Severity
	Message  string
}

type Evaluation struct {
	Status   session.Status
	Breaches []Breach
}

// BreachTypes are the types Evaluate can emit, in emission order. The sweep
// resolves open alerts of these types when their condition clears.
var BreachTypes = []alert.Type{
	alert.TypeTTTHigh,
	alert.TypeLowEngagement,
	alert.TypeTechnicalIssue,
	alert.TypeLongSilence,
}

// Evaluate derives the session status and breach set from one snapshot. It
// is a pure function of the snapshot, the elapsed time and the thresholds:
// the same inputs always produce the same breaches in the same order.
func Evaluate(m session.MetricsSnapshot, elapsed time.Duration, th Thresholds) Evaluation {
	var breaches []Breach

	if m.TTTRatio > th.TTTWarning {
		sev := alert.SeverityWarning
		if m.TTTRatio > th.TTTCritical {
			sev = alert.SeverityCritical
		}
		breaches = append(breaches, Breach{
			Type:     alert.TypeTTTHigh,
			Severity: sev,
			Message:  fmt.Sprintf("teacher talk time at %.0f%%", m.TTTRatio),
		})
	}

	if m.Engagement < th.EngagementWarning {
		sev := alert.SeverityWarning
		if m.Engagement < th.EngagementCritical {
			sev = alert.SeverityCritical
		}
		breaches = append(breaches, Breach{
			Type:     alert.TypeLowEngagement,
			Severity: sev,
			Message:  fmt.Sprintf("student engagement at %.0f", m.Engagement),
		})
	}

	if !m.CameraOn || !m.MicOn {
		breaches = append(breaches, Breach{
			Type:     alert.TypeTechnicalIssue,
			Severity: alert.SeverityWarning,
			Message:  technicalMessage(m),
		})
	}

	if elapsed >= th.SilenceMinElapsed && elapsed > 0 {
		limit := th.SilenceFraction * elapsed.Seconds()
		if float64(m.SilenceSeconds) > limit {
			breaches = append(breaches, Breach{
				Type:     alert.TypeLongSilence,
				Severity: alert.SeverityWarning,
				Message:  fmt.Sprintf("%ds of silence in a %.0fs session", m.SilenceSeconds, elapsed.Seconds()),
			})
		}
	}

	return Evaluation{
		Status:   statusFor(breaches),
		Breaches: breaches,
	}
}

func technicalMessage(m session.MetricsSnapshot) string {
	switch {
	case !m.CameraOn && !m.MicOn:
		return "camera and microphone are off"
	case !m.CameraOn:
		return "camera is off"
	default:
		return "microphone is off"
	}
}

func statusFor(breaches []Breach) session.Status {
	max := 0
	for _, b := range breaches {
		if r := b.Severity.Rank(); r > max {
			max = r
		}
	}
	switch max {
	case 2:
		return session.StatusCritical
	case 1:
		return session.StatusWarning
	default:
		return session.StatusActive
	}
}
