package ports

import (
	"context"

	"github.com/courtside/academy-platform/internal/core/domain"
)

// AssignmentRepository persists RoleAssignment records keyed by
// (principal, tenant). It performs no hierarchy checks; callers own those.
type AssignmentRepository interface {
	// GetActiveRole returns the principal's active role in the tenant, or
	// RoleNone when no record exists or the record is inactive. It errors
	// only on backing-store failure, never for "not found".
	GetActiveRole(ctx context.Context, principalID, tenantID string) (domain.Role, error)

	// Upsert creates or replaces the assignment for (PrincipalID, TenantID),
	// reactivating it and bumping LastUpdated and Version.
	Upsert(ctx context.Context, a *domain.RoleAssignment) (*domain.RoleAssignment, error)

	// Revoke deactivates the assignment, recording who revoked it and when.
	// Revoking an absent or already-inactive assignment is a no-op.
	Revoke(ctx context.Context, principalID, tenantID, revokedBy string) error

	// ListActive returns every active assignment in the tenant. Each call
	// re-runs the backing query.
	ListActive(ctx context.Context, tenantID string) ([]domain.RoleAssignment, error)
}
