package ports

import (
	"context"

	"github.com/courtside/academy-platform/internal/core/domain"
)

// AuditRepository appends SecurityEvent records to the backing store and
// reads them back in reverse chronological order. Records are never
// updated or deleted.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.SecurityEvent) error
	QueryRecent(ctx context.Context, tenantID string, limit int, filter domain.AuditFilter) ([]domain.SecurityEvent, error)
}
