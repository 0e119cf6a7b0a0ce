package domain

import "time"

// RoleAssignment is a principal's role within one tenant. At most one
// assignment exists per (principal, tenant) pair; revocation deactivates
// the record in place, it is never deleted.
type RoleAssignment struct {
	ID          string     `json:"id"`
	PrincipalID string     `json:"principal_id"`
	TenantID    string     `json:"tenant_id"`
	Role        Role       `json:"role"`
	AssignedBy  string     `json:"assigned_by"`
	AssignedAt  time.Time  `json:"assigned_at"`
	LastUpdated time.Time  `json:"last_updated"`
	IsActive    bool       `json:"is_active"`
	RevokedBy   string     `json:"revoked_by,omitempty"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	Version     int64      `json:"version"`
}

// Decision is the outcome of a permission or minimum-role check. A false
// Granted is a valid result, not an error condition.
type Decision struct {
	Granted bool `json:"granted"`
	Role    Role `json:"role,omitempty"`
}

// MigrationStatus is the session-scoped view of whether a principal has a
// securely assigned role in the current tenant. It is derived, never stored.
type MigrationStatus struct {
	IsComplete        bool   `json:"is_complete"`
	NeedsInitialSetup bool   `json:"needs_initial_setup"`
	Role              Role   `json:"role,omitempty"`
	Error             string `json:"error,omitempty"`
}
