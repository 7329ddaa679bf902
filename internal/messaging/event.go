package messaging

import "time"

// Event types published to the audit stream.
const (
	EventLogin              = "auth.login"
	EventLogout             = "auth.logout"
	EventAccessDenied       = "authz.denied"
	EventStudentCreated     = "student.created"
	EventStudentDeactivated = "student.deactivated"
)

// Event is the audit record published on security-relevant actions.
// It never carries tokens or password material.
type Event struct {
	Type      string    `json:"type"`
	UserID    int       `json:"userId,omitempty"`
	Email     string    `json:"email,omitempty"`
	StudentID int       `json:"studentId,omitempty"`
	At        time.Time `json:"at"`
}

// Producer publishes audit events to a broker.
type Producer interface {
	Publish(event Event) error
	Close() error
}
