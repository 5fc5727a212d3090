package notify

import (
	"time"
)

type Kind string

const (
	KindSessionUpdate Kind = "session-update"
	KindAlertRaised   Kind = "alert-raised"
	KindMetricsUpdate Kind = "metrics-update"
	KindReminderSent  Kind = "reminder-sent"
)

// Event is one notification fanned out to observing dashboards. Payload is
// the affected aggregate (session, alert, rollup, reminder) as published by
// the producing component.
type Event struct {
	Kind    Kind      `json:"kind"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

func NewEvent(kind Kind, payload any) Event {
	return Event{
		Kind:    kind,
		At:      time.Now().UTC(),
		Payload: payload,
	}
}
