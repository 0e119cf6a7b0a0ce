package domain

import "time"

// EventType classifies a security-relevant occurrence.
type EventType string

const (
	EventLogin              EventType = "login"
	EventLogout             EventType = "logout"
	EventRoleChange         EventType = "role_change"
	EventPermissionDenied   EventType = "permission_denied"
	EventRateLimitExceeded  EventType = "rate_limit_exceeded"
	EventSuspiciousActivity EventType = "suspicious_activity"
	EventMigrationBypass    EventType = "migration_bypass"
)

// Severity ranks how alarming an event is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// TenantSystem marks events that are not scoped to any tenant.
const TenantSystem = "SYSTEM"

// MaxDetailKeys bounds the size of a SecurityEvent details map.
const MaxDetailKeys = 32

// SecurityEvent is an immutable audit record. Events are appended exactly
// once and never mutated or deleted.
type SecurityEvent struct {
	ID        string         `json:"id,omitempty"`
	EventType EventType      `json:"event_type"`
	Severity  Severity       `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	ActorID   string         `json:"actor_id,omitempty"`
	TenantID  string         `json:"tenant_id,omitempty"`
	Success   bool           `json:"success"`
	Details   map[string]any `json:"details,omitempty"`
}

var validEventTypes = map[EventType]struct{}{
	EventLogin:              {},
	EventLogout:             {},
	EventRoleChange:         {},
	EventPermissionDenied:   {},
	EventRateLimitExceeded:  {},
	EventSuspiciousActivity: {},
	EventMigrationBypass:    {},
}

var validSeverities = map[Severity]struct{}{
	SeverityLow:      {},
	SeverityMedium:   {},
	SeverityHigh:     {},
	SeverityCritical: {},
}

// ValidEventType reports whether t is a registered event type.
func ValidEventType(t EventType) bool {
	_, ok := validEventTypes[t]
	return ok
}

// ValidSeverity reports whether s is a registered severity.
func ValidSeverity(s Severity) bool {
	_, ok := validSeverities[s]
	return ok
}

// AuditFilter narrows a QueryRecent call. Zero values mean "no filter".
type AuditFilter struct {
	EventType EventType
	Severity  Severity
}
