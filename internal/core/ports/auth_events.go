package ports

import (
	"context"
	"time"
)

// AuthEventType names an audit event.
type AuthEventType string

const (
	EventLogin        AuthEventType = "login"
	EventAdminLogin   AuthEventType = "admin_login"
	EventLoginFailed  AuthEventType = "login_failed"
	EventRefresh      AuthEventType = "refresh"
	EventLogout       AuthEventType = "logout"
	EventLogoutAll    AuthEventType = "logout_all"
	EventRegistration AuthEventType = "registration"
)

// AuthEvent is an audit record of a session lifecycle change.
type AuthEvent struct {
	Type       AuthEventType `json:"type"`
	UserID     string        `json:"user_id,omitempty"`
	JTI        string        `json:"jti,omitempty"`
	DeviceInfo string        `json:"device_info,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// AuthEventSink accepts audit events without blocking the caller.
type AuthEventSink interface {
	Enqueue(event AuthEvent)
}

// EventPublisher delivers a single audit event to its destination.
type EventPublisher interface {
	Publish(ctx context.Context, event AuthEvent) error
}
