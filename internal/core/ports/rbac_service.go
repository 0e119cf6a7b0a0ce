package ports

import (
	"context"

	"github.com/courtside/academy-platform/internal/core/domain"
)

// RBACService is the authorization decision point. The Check* family never
// errors for negative outcomes; only the Require* wrappers and the
// mutating operations raise.
type RBACService interface {
	Check(ctx context.Context, principalID, tenantID string, perm domain.Permission) (domain.Decision, error)
	CheckMinimumRole(ctx context.Context, principalID, tenantID string, minRole domain.Role) (domain.Decision, error)
	RequirePermission(ctx context.Context, principalID, tenantID string, perm domain.Permission) error
	RequireMinimumRole(ctx context.Context, principalID, tenantID string, minRole domain.Role) error

	AssignRole(ctx context.Context, actorID, targetID, tenantID string, newRole domain.Role) (*domain.RoleAssignment, error)
	RevokeRole(ctx context.Context, actorID, targetID, tenantID string) error
	ListMembers(ctx context.Context, actorID, tenantID string) ([]domain.RoleAssignment, error)
}
