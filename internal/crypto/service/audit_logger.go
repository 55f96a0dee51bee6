package service

import (
	"log/slog"

	cryptoDomain "github.com/allisson/ledger/internal/crypto/domain"
)

// SlogAuditLogger writes audit entries as structured log records.
type SlogAuditLogger struct {
	logger *slog.Logger
}

// NewSlogAuditLogger creates an audit logger backed by the given slog logger.
func NewSlogAuditLogger(logger *slog.Logger) *SlogAuditLogger {
	return &SlogAuditLogger{logger: logger}
}

// Log emits the audit entry. Panics from the underlying handler are swallowed
// so a broken sink can never fail the cryptographic operation being audited.
func (l *SlogAuditLogger) Log(entry cryptoDomain.AuditEntry) {
	defer func() {
		_ = recover()
	}()

	attrs := []any{
		slog.Time("timestamp", entry.Timestamp),
		slog.String("operation", string(entry.Operation)),
		slog.Bool("success", entry.Success),
	}
	if entry.ModelName != "" {
		attrs = append(attrs, slog.String("model", entry.ModelName))
	}
	if entry.FieldName != "" {
		attrs = append(attrs, slog.String("field", entry.FieldName))
	}
	if entry.CorrelationID != "" {
		attrs = append(attrs, slog.String("correlation_id", entry.CorrelationID))
	}
	if entry.ErrorType != "" {
		attrs = append(attrs, slog.String("error_type", entry.ErrorType))
	}

	if entry.Success {
		l.logger.Info("crypto audit", attrs...)
		return
	}
	l.logger.Warn("crypto audit", attrs...)
}

// NoOpAuditLogger discards all audit entries. Intended for tests and for
// deployments that disable crypto audit logging.
type NoOpAuditLogger struct{}

// NewNoOpAuditLogger creates a no-op audit logger.
func NewNoOpAuditLogger() *NoOpAuditLogger {
	return &NoOpAuditLogger{}
}

// Log does nothing.
func (l *NoOpAuditLogger) Log(entry cryptoDomain.AuditEntry) {}
