package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the authorization core. Typed errors below wrap these
// so call sites can branch with errors.Is while still receiving detail.
var (
	ErrUnknownRole        = errors.New("unknown role")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrHierarchyViolation = errors.New("hierarchy violation")
	ErrUnauthenticated    = errors.New("no active role for principal")
	ErrRateLimited        = errors.New("rate limit exceeded")
)

// UnknownRoleError reports a registry lookup with a role that does not
// exist. This is a configuration or programming error, not a user outcome.
type UnknownRoleError struct {
	Role Role
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown role %q", string(e.Role))
}

func (e *UnknownRoleError) Unwrap() error { return ErrUnknownRole }

// PermissionDeniedError is the fail-fast form of a negative authorization
// decision, raised only by the Require* wrappers.
type PermissionDeniedError struct {
	Reason     string
	ActualRole Role
}

func (e *PermissionDeniedError) Error() string {
	if e.ActualRole == RoleNone {
		return fmt.Sprintf("permission denied: %s", e.Reason)
	}
	return fmt.Sprintf("permission denied: %s (current role %s)", e.Reason, e.ActualRole)
}

func (e *PermissionDeniedError) Unwrap() error { return ErrPermissionDenied }

// HierarchyViolationError reports an attempted lateral assignment or
// privilege escalation. It names only the actor's own role and the role it
// tried to grant, never other principals' roles.
type HierarchyViolationError struct {
	ActorRole     Role
	AttemptedRole Role
}

func (e *HierarchyViolationError) Error() string {
	return fmt.Sprintf("role %s may only manage roles strictly below its level, not %s",
		e.ActorRole, e.AttemptedRole)
}

func (e *HierarchyViolationError) Unwrap() error { return ErrHierarchyViolation }
