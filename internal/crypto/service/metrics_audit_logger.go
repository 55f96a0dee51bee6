package service

import (
	"context"

	cryptoDomain "github.com/allisson/ledger/internal/crypto/domain"
	"github.com/allisson/ledger/internal/metrics"
)

// MetricsAuditLogger decorates an AuditLogger, counting every audited
// cryptographic operation as a business metric before forwarding the entry.
type MetricsAuditLogger struct {
	next            AuditLogger
	businessMetrics metrics.BusinessMetrics
}

// NewMetricsAuditLogger creates a MetricsAuditLogger around the given logger.
func NewMetricsAuditLogger(next AuditLogger, businessMetrics metrics.BusinessMetrics) *MetricsAuditLogger {
	return &MetricsAuditLogger{
		next:            next,
		businessMetrics: businessMetrics,
	}
}

// Log records the operation metric and forwards the entry.
func (l *MetricsAuditLogger) Log(entry cryptoDomain.AuditEntry) {
	status := "success"
	if !entry.Success {
		status = "error"
	}
	l.businessMetrics.RecordOperation(context.Background(), "crypto", string(entry.Operation), status)

	l.next.Log(entry)
}
