// Package metrics defines and registers all custom Prometheus metrics for
// the academy RBAC service. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rbac"

// ── Authorization metrics ─────────────────────────────────────────────────────

// PermissionChecksTotal counts permission and minimum-role checks.
// Labels:
//   - decision: "granted" or "denied"
var PermissionChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_checks_total",
		Help:      "Total number of authorization checks, by decision.",
	},
	[]string{"decision"},
)

// RoleChangesTotal counts role assignments and revocations.
// Labels:
//   - action: "assign" or "revoke"
//   - result: "success" or "failure"
var RoleChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_changes_total",
		Help:      "Total number of role assignment operations, by action and result.",
	},
	[]string{"action", "result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts security events successfully appended to the log.
// Labels:
//   - event_type: e.g. "role_change", "permission_denied"
//   - severity: LOW/MEDIUM/HIGH/CRITICAL
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of security events written to the audit log.",
	},
	[]string{"event_type", "severity"},
)

// AuditEventsDroppedTotal counts security events lost to the best-effort
// policy.
// Label:
//   - reason: "queue_full" or "write_failed"
var AuditEventsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of security events dropped instead of written.",
	},
	[]string{"reason"},
)

// ── Rate-limit metrics ────────────────────────────────────────────────────────

// RateLimitedTotal counts requests refused by the rate limiter.
// Label:
//   - action: the guarded action, e.g. "role_change"
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
	[]string{"action"},
)

// ── Migration metrics ─────────────────────────────────────────────────────────

// MigrationBypassesTotal counts session-scoped migration bypasses.
var MigrationBypassesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "migration_bypasses_total",
		Help:      "Total number of temporary migration bypasses invoked.",
	},
)
