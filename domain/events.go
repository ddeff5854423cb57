package domain

import (
	"context"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Account lifecycle events
	SignupRequestedEvent      AuditEventType = "SIGNUP_REQUESTED"
	SignupFailedEvent         AuditEventType = "SIGNUP_FAILED"
	EmailVerifiedEvent        AuditEventType = "EMAIL_VERIFIED"
	EmailVerifyFailedEvent    AuditEventType = "EMAIL_VERIFICATION_FAILED"
	UserLoginEvent            AuditEventType = "USER_LOGIN"
	UserLoginFailureEvent     AuditEventType = "USER_LOGIN_FAILED"
	PasswordResetRequestEvent AuditEventType = "PASSWORD_RESET_REQUESTED"
	PasswordResetEvent        AuditEventType = "PASSWORD_RESET"
	PasswordResetFailureEvent AuditEventType = "PASSWORD_RESET_FAILED"

	// Catalog and chat events
	BotCreatedEvent      AuditEventType = "BOT_CREATED"
	BotUpdatedEvent      AuditEventType = "BOT_UPDATED"
	BotUpdateDeniedEvent AuditEventType = "BOT_UPDATE_DENIED"
	ChatRestartedEvent   AuditEventType = "CHAT_RESTARTED"
)

// AuditEvent represents a business event that occurred in the system
type AuditEvent struct {
	EventType AuditEventType         `json:"event_type"`
	UserID    string                 `json:"user_id,omitempty"`
	Email     string                 `json:"email,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	ErrorMsg  string                 `json:"error_msg,omitempty"`
	Success   bool                   `json:"success"`
}

// AuditLogger records audit events
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent) error
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType, userID string) *AuditEvent {
	return &AuditEvent{
		EventType: eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]interface{}),
		Success:   true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithEmail sets the email field
func (e *AuditEvent) WithEmail(email string) *AuditEvent {
	e.Email = email
	return e
}

// WithMetadata adds metadata to the event
func (e *AuditEvent) WithMetadata(key string, value interface{}) *AuditEvent {
	e.Metadata[key] = value
	return e
}

// NopAuditLogger discards events
type NopAuditLogger struct{}

// LogEvent implements AuditLogger
func (NopAuditLogger) LogEvent(context.Context, *AuditEvent) error { return nil }
