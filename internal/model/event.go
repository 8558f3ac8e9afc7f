package model

import "time"

// Event describes a change to a property or report, broadcast to other
// sessions after it has been persisted.
type Event struct {
	Type       string    `json:"type"`
	PropertyID string    `json:"property_id,omitempty"`
	ReportID   string    `json:"report_id,omitempty"`
	UserID     int64     `json:"user_id,omitempty"`
	Progress   float64   `json:"progress,omitempty"`
	Status     string    `json:"status,omitempty"`
	At         time.Time `json:"at"`
}

// Event types.
const (
	EventInspectionSubmitted = "inspection.submitted"
	EventInspectionCompleted = "inspection.completed"
	EventReportSigned        = "report.signed"
	EventNotificationCreated = "notification.created"
)
