package audit

import (
	"context"

	"github.com/you/companionsvc/domain"
	"github.com/you/companionsvc/internal/logging"
	"go.uber.org/zap"
)

// EventCounter receives one tick per audit event
type EventCounter interface {
	CountAuditEvent(eventType string, success bool)
}

// ZapAuditLogger implements domain.AuditLogger as structured log lines
type ZapAuditLogger struct {
	logger  *zap.Logger
	counter EventCounter
}

// NewZapAuditLogger creates an audit logger. counter may be nil.
func NewZapAuditLogger(logger *zap.Logger, counter EventCounter) *ZapAuditLogger {
	return &ZapAuditLogger{logger: logger.Named("audit"), counter: counter}
}

// LogEvent implements domain.AuditLogger
func (l *ZapAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	fields := []zap.Field{
		zap.String("event_type", string(event.EventType)),
		zap.Bool("success", event.Success),
		zap.Time("event_time", event.Timestamp),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", logging.MaskEmail(event.Email)))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}

	if event.Success {
		l.logger.Info("audit event", fields...)
	} else {
		fields = append(fields, zap.String("error", event.ErrorMsg))
		l.logger.Warn("audit event", fields...)
	}

	if l.counter != nil {
		l.counter.CountAuditEvent(string(event.EventType), event.Success)
	}
	return nil
}

var _ domain.AuditLogger = (*ZapAuditLogger)(nil)
