package dto

// SendReminderRequest is the manual coaching-message path. An empty Message
// draws a template for the breach type.
type SendReminderRequest struct {
	TeacherID string `json:"teacher_id"`
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
}

type SetAutoMonitoringRequest struct {
	Enabled *bool `json:"enabled"`
}

type MonitorStatusResponse struct {
	AutoMonitoring  bool `json:"auto_monitoring"`
	IntervalSeconds int  `json:"interval_seconds"`
}
