package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtside/academy-platform/internal/core/domain"
	"github.com/courtside/academy-platform/internal/core/ports"
	"github.com/courtside/academy-platform/internal/ratelimit"
)

type rbacService struct {
	repo    ports.AssignmentRepository
	audit   ports.AuditSink
	limiter ratelimit.Limiter
	log     zerolog.Logger
}

// NewRBACService returns the authorization decision point. The limiter
// guards role changes per tenant and may be nil to disable that guard.
func NewRBACService(
	repo ports.AssignmentRepository,
	audit ports.AuditSink,
	limiter ratelimit.Limiter,
	log zerolog.Logger,
) ports.RBACService {
	return &rbacService{repo: repo, audit: audit, limiter: limiter, log: log}
}

// Check resolves the principal's active role and evaluates perm against the
// permission matrix. A missing role or absent permission is a denial, not
// an error; a store failure is a denial with the error attached (fail closed).
func (s *rbacService) Check(ctx context.Context, principalID, tenantID string, perm domain.Permission) (domain.Decision, error) {
	role, err := s.repo.GetActiveRole(ctx, principalID, tenantID)
	if err != nil {
		s.emitDenial(principalID, tenantID, string(perm), domain.RoleNone, "store unavailable")
		return domain.Decision{}, fmt.Errorf("check permission: %w", err)
	}
	if role == domain.RoleNone {
		s.emitDenial(principalID, tenantID, string(perm), role, "no active role")
		return domain.Decision{}, nil
	}
	if !domain.HasPermission(role, perm) {
		s.emitDenial(principalID, tenantID, string(perm), role, "permission not granted to role")
		return domain.Decision{Role: role}, nil
	}
	return domain.Decision{Granted: true, Role: role}, nil
}

// CheckMinimumRole grants iff the active role is at or above minRole in the
// hierarchy. An unregistered minRole is a configuration error.
func (s *rbacService) CheckMinimumRole(ctx context.Context, principalID, tenantID string, minRole domain.Role) (domain.Decision, error) {
	minLevel, err := domain.LevelOf(minRole)
	if err != nil {
		return domain.Decision{}, err
	}

	role, err := s.repo.GetActiveRole(ctx, principalID, tenantID)
	if err != nil {
		s.emitDenial(principalID, tenantID, "min_role:"+string(minRole), domain.RoleNone, "store unavailable")
		return domain.Decision{}, fmt.Errorf("check minimum role: %w", err)
	}
	if role == domain.RoleNone {
		s.emitDenial(principalID, tenantID, "min_role:"+string(minRole), role, "no active role")
		return domain.Decision{}, nil
	}

	level, err := domain.LevelOf(role)
	if err != nil {
		s.emitDenial(principalID, tenantID, "min_role:"+string(minRole), role, "unregistered stored role")
		return domain.Decision{Role: role}, nil
	}
	if level < minLevel {
		s.emitDenial(principalID, tenantID, "min_role:"+string(minRole), role, "role below required level")
		return domain.Decision{Role: role}, nil
	}
	return domain.Decision{Granted: true, Role: role}, nil
}

// RequirePermission converts a negative Check into a PermissionDeniedError.
func (s *rbacService) RequirePermission(ctx context.Context, principalID, tenantID string, perm domain.Permission) error {
	decision, err := s.Check(ctx, principalID, tenantID, perm)
	if err != nil {
		return err
	}
	if !decision.Granted {
		return &domain.PermissionDeniedError{
			Reason:     fmt.Sprintf("requires permission %s", perm),
			ActualRole: decision.Role,
		}
	}
	return nil
}

// RequireMinimumRole converts a negative CheckMinimumRole into a
// PermissionDeniedError.
func (s *rbacService) RequireMinimumRole(ctx context.Context, principalID, tenantID string, minRole domain.Role) error {
	decision, err := s.CheckMinimumRole(ctx, principalID, tenantID, minRole)
	if err != nil {
		return err
	}
	if !decision.Granted {
		return &domain.PermissionDeniedError{
			Reason:     fmt.Sprintf("requires role %s or above", minRole),
			ActualRole: decision.Role,
		}
	}
	return nil
}

// AssignRole grants newRole to targetID in tenantID on behalf of actorID.
// The actor needs manage_users and a role strictly above newRole; the
// strict check also blocks self-promotion to an equal or higher level.
func (s *rbacService) AssignRole(ctx context.Context, actorID, targetID, tenantID string, newRole domain.Role) (*domain.RoleAssignment, error) {
	if !domain.ValidRole(newRole) {
		return nil, &domain.UnknownRoleError{Role: newRole}
	}

	// Role changes are tenant-sensitive; bound their frequency.
	if s.limiter != nil {
		limited, err := s.limiter.IsRateLimited(ctx, "role_change:"+tenantID)
		if err != nil {
			s.log.Warn().Err(err).Str("tenant_id", tenantID).Msg("rate limiter unavailable, proceeding")
		} else if limited {
			s.audit.Record(&domain.SecurityEvent{
				EventType: domain.EventRateLimitExceeded,
				Severity:  domain.SeverityHigh,
				ActorID:   actorID,
				TenantID:  tenantID,
				Success:   false,
				Details:   map[string]any{"action": "role_change"},
			})
			return nil, domain.ErrRateLimited
		}
	}

	// 1. Resolve the actor's own role.
	actorRole, err := s.repo.GetActiveRole(ctx, actorID, tenantID)
	if err != nil {
		err = fmt.Errorf("assign role: %w", err)
		s.emitRoleChangeFailure(actorID, targetID, tenantID, newRole, "store unavailable")
		return nil, err
	}
	if actorRole == domain.RoleNone {
		s.emitRoleChangeFailure(actorID, targetID, tenantID, newRole, "actor has no active role")
		return nil, domain.ErrUnauthenticated
	}

	// 2. The actor must hold manage_users.
	if !domain.HasPermission(actorRole, domain.PermManageUsers) {
		s.emitRoleChangeFailure(actorID, targetID, tenantID, newRole, "actor lacks manage_users")
		return nil, &domain.PermissionDeniedError{
			Reason:     "requires permission manage_users",
			ActualRole: actorRole,
		}
	}

	// 3. Strict dominance: only roles below the actor's own level may be
	// granted, to anyone, including the actor itself.
	if !domain.Outranks(actorRole, newRole) {
		s.emitRoleChangeFailure(actorID, targetID, tenantID, newRole, "actor does not outrank requested role")
		return nil, &domain.HierarchyViolationError{ActorRole: actorRole, AttemptedRole: newRole}
	}

	// Previous role is recorded best-effort for the audit trail.
	oldRole, roleErr := s.repo.GetActiveRole(ctx, targetID, tenantID)
	if roleErr != nil {
		s.log.Warn().Err(roleErr).Str("target_id", targetID).Msg("could not resolve previous role for audit")
		oldRole = domain.RoleNone
	}

	// 4. Persist. Concurrent assignments resolve last-write-wins.
	now := time.Now().UTC()
	assignment, err := s.repo.Upsert(ctx, &domain.RoleAssignment{
		PrincipalID: targetID,
		TenantID:    tenantID,
		Role:        newRole,
		AssignedBy:  actorID,
		AssignedAt:  now,
		LastUpdated: now,
		IsActive:    true,
	})
	if err != nil {
		err = fmt.Errorf("assign role: %w", err)
		s.emitRoleChangeFailure(actorID, targetID, tenantID, newRole, "upsert failed")
		return nil, err
	}

	// 5. Record the change.
	s.audit.Record(&domain.SecurityEvent{
		EventType: domain.EventRoleChange,
		Severity:  domain.SeverityHigh,
		ActorID:   actorID,
		TenantID:  tenantID,
		Success:   true,
		Details: map[string]any{
			"target_id": targetID,
			"old_role":  string(oldRole),
			"new_role":  string(newRole),
		},
	})

	s.log.Info().
		Str("actor_id", actorID).
		Str("target_id", targetID).
		Str("tenant_id", tenantID).
		Str("role", string(newRole)).
		Msg("role assigned")

	return assignment, nil
}

// RevokeRole deactivates the target's assignment. The actor needs
// manage_users and must strictly outrank the target's current role.
func (s *rbacService) RevokeRole(ctx context.Context, actorID, targetID, tenantID string) error {
	actorRole, err := s.repo.GetActiveRole(ctx, actorID, tenantID)
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	if actorRole == domain.RoleNone {
		return domain.ErrUnauthenticated
	}
	if !domain.HasPermission(actorRole, domain.PermManageUsers) {
		return &domain.PermissionDeniedError{
			Reason:     "requires permission manage_users",
			ActualRole: actorRole,
		}
	}

	targetRole, err := s.repo.GetActiveRole(ctx, targetID, tenantID)
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	if targetRole != domain.RoleNone && !domain.Outranks(actorRole, targetRole) {
		s.emitRoleChangeFailure(actorID, targetID, tenantID, targetRole, "actor does not outrank target")
		return &domain.HierarchyViolationError{ActorRole: actorRole, AttemptedRole: targetRole}
	}

	if err := s.repo.Revoke(ctx, targetID, tenantID, actorID); err != nil {
		err = fmt.Errorf("revoke role: %w", err)
		s.emitRoleChangeFailure(actorID, targetID, tenantID, targetRole, "revoke failed")
		return err
	}

	s.audit.Record(&domain.SecurityEvent{
		EventType: domain.EventRoleChange,
		Severity:  domain.SeverityHigh,
		ActorID:   actorID,
		TenantID:  tenantID,
		Success:   true,
		Details: map[string]any{
			"target_id": targetID,
			"old_role":  string(targetRole),
			"revoked":   true,
		},
	})

	s.log.Info().
		Str("actor_id", actorID).
		Str("target_id", targetID).
		Str("tenant_id", tenantID).
		Msg("role revoked")

	return nil
}

// ListMembers returns all active assignments in the tenant. Requires
// manage_users.
func (s *rbacService) ListMembers(ctx context.Context, actorID, tenantID string) ([]domain.RoleAssignment, error) {
	if err := s.RequirePermission(ctx, actorID, tenantID, domain.PermManageUsers); err != nil {
		return nil, err
	}
	members, err := s.repo.ListActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// emitDenial records a permission_denied event. Fire-and-forget: the sink
// never blocks or fails the authorization call.
func (s *rbacService) emitDenial(principalID, tenantID, requested string, actualRole domain.Role, reason string) {
	s.audit.Record(&domain.SecurityEvent{
		EventType: domain.EventPermissionDenied,
		Severity:  domain.SeverityMedium,
		ActorID:   principalID,
		TenantID:  tenantID,
		Success:   false,
		Details: map[string]any{
			"requested": requested,
			"role":      string(actualRole),
			"reason":    reason,
		},
	})
}

// emitRoleChangeFailure records a failed role_change before the error
// propagates. Best-effort; logging never masks the original failure.
func (s *rbacService) emitRoleChangeFailure(actorID, targetID, tenantID string, role domain.Role, reason string) {
	s.audit.Record(&domain.SecurityEvent{
		EventType: domain.EventRoleChange,
		Severity:  domain.SeverityHigh,
		ActorID:   actorID,
		TenantID:  tenantID,
		Success:   false,
		Details: map[string]any{
			"target_id": targetID,
			"role":      string(role),
			"reason":    reason,
		},
	})
}
