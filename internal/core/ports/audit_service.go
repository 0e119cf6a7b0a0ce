package ports

import (
	"context"

	"github.com/courtside/academy-platform/internal/core/domain"
)

// AuditService validates and persists security events. LogEvent is
// best-effort for callers that go through Record on an AuditSink; a
// synchronous LogEvent reports the underlying failure after its retry.
type AuditService interface {
	LogEvent(ctx context.Context, event *domain.SecurityEvent) error
	QueryRecent(ctx context.Context, tenantID string, limit int, filter domain.AuditFilter) ([]domain.SecurityEvent, error)
}

// AuditSink accepts events without blocking or failing the caller. The
// dispatcher implementation buffers and writes asynchronously.
type AuditSink interface {
	Record(event *domain.SecurityEvent)
}
