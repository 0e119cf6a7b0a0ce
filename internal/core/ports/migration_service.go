package ports

import (
	"context"

	"github.com/courtside/academy-platform/internal/core/domain"
)

// MigrationService gates session bootstrap until the principal has an
// explicit server-persisted role, with a session-scoped temporary bypass.
type MigrationService interface {
	CheckStatus(ctx context.Context, principalID, tenantID string) domain.MigrationStatus
	SkipTemporarily(principalID, tenantID string)
}
