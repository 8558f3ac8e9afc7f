package model

import "time"

// Notification is a message shown to a single user.
type Notification struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"user_id"`
	Type              string    `json:"type"`
	Title             string    `json:"title"`
	Message           string    `json:"message"`
	RelatedPropertyID string    `json:"related_property_id,omitempty"`
	IsRead            bool      `json:"is_read"`
	CreatedAt         time.Time `json:"created_at"`
	ScheduledAt       time.Time `json:"scheduled_at"`
}

// Notification types.
const (
	NotificationInspectionDue = "inspection_due"
)
