package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtside/academy-platform/internal/core/domain"
	"github.com/courtside/academy-platform/internal/core/ports"
)

const defaultBypassTTL = 24 * time.Hour

type migrationService struct {
	repo      ports.AssignmentRepository
	audit     ports.AuditSink
	log       zerolog.Logger
	bypassTTL time.Duration
	now       func() time.Time

	mu       sync.Mutex
	bypasses map[string]time.Time // (principal, tenant) -> expiry
}

// NewMigrationService returns the session-bootstrap gate. Principals
// without a server-persisted role are held at NeedsInitialSetup until an
// administrator assigns one or they invoke the temporary bypass.
func NewMigrationService(repo ports.AssignmentRepository, audit ports.AuditSink, log zerolog.Logger) ports.MigrationService {
	return &migrationService{
		repo:      repo,
		audit:     audit,
		log:       log,
		bypassTTL: defaultBypassTTL,
		now:       time.Now,
		bypasses:  make(map[string]time.Time),
	}
}

// CheckStatus resolves whether the principal has an active role in the
// tenant. A store failure reads as NeedsInitialSetup (fail closed), never
// as access granted.
func (s *migrationService) CheckStatus(ctx context.Context, principalID, tenantID string) domain.MigrationStatus {
	if s.bypassed(principalID, tenantID) {
		return domain.MigrationStatus{IsComplete: true}
	}

	role, err := s.repo.GetActiveRole(ctx, principalID, tenantID)
	if err != nil {
		s.log.Error().Err(err).
			Str("principal_id", principalID).
			Str("tenant_id", tenantID).
			Msg("migration status lookup failed")
		return domain.MigrationStatus{NeedsInitialSetup: true, Error: "role lookup failed"}
	}
	if role == domain.RoleNone {
		return domain.MigrationStatus{NeedsInitialSetup: true}
	}
	return domain.MigrationStatus{IsComplete: true, Role: role}
}

// SkipTemporarily marks the session as complete for this process only. No
// RoleAssignment is created; server-side permission checks are unaffected.
func (s *migrationService) SkipTemporarily(principalID, tenantID string) {
	s.mu.Lock()
	s.bypasses[bypassKey(principalID, tenantID)] = s.now().Add(s.bypassTTL)
	s.mu.Unlock()

	s.audit.Record(&domain.SecurityEvent{
		EventType: domain.EventMigrationBypass,
		Severity:  domain.SeverityMedium,
		ActorID:   principalID,
		TenantID:  tenantID,
		Success:   true,
		Details:   map[string]any{"ttl": s.bypassTTL.String()},
	})

	s.log.Warn().
		Str("principal_id", principalID).
		Str("tenant_id", tenantID).
		Msg("migration temporarily bypassed for session")
}

func (s *migrationService) bypassed(principalID, tenantID string) bool {
	key := bypassKey(principalID, tenantID)

	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.bypasses[key]
	if !ok {
		return false
	}
	if s.now().After(expiry) {
		delete(s.bypasses, key)
		return false
	}
	return true
}

func bypassKey(principalID, tenantID string) string {
	return principalID + ":" + tenantID
}
