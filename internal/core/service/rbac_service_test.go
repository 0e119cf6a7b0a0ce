package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtside/academy-platform/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubAssignmentRepo struct {
	assignments map[string]*domain.RoleAssignment
	getErr      error
	upsertErr   error
	revokeErr   error
	listErr     error
	upserts     int
}

func newStubAssignmentRepo() *stubAssignmentRepo {
	return &stubAssignmentRepo{assignments: make(map[string]*domain.RoleAssignment)}
}

func pairKey(principalID, tenantID string) string { return principalID + ":" + tenantID }

func (r *stubAssignmentRepo) seed(principalID, tenantID string, role domain.Role) {
	r.assignments[pairKey(principalID, tenantID)] = &domain.RoleAssignment{
		PrincipalID: principalID,
		TenantID:    tenantID,
		Role:        role,
		IsActive:    true,
	}
}

func (r *stubAssignmentRepo) GetActiveRole(_ context.Context, principalID, tenantID string) (domain.Role, error) {
	if r.getErr != nil {
		return domain.RoleNone, r.getErr
	}
	a, ok := r.assignments[pairKey(principalID, tenantID)]
	if !ok || !a.IsActive {
		return domain.RoleNone, nil
	}
	return a.Role, nil
}

func (r *stubAssignmentRepo) Upsert(_ context.Context, a *domain.RoleAssignment) (*domain.RoleAssignment, error) {
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	r.upserts++
	stored := *a
	stored.IsActive = true
	stored.Version++
	r.assignments[pairKey(a.PrincipalID, a.TenantID)] = &stored
	out := stored
	return &out, nil
}

func (r *stubAssignmentRepo) Revoke(_ context.Context, principalID, tenantID, revokedBy string) error {
	if r.revokeErr != nil {
		return r.revokeErr
	}
	a, ok := r.assignments[pairKey(principalID, tenantID)]
	if !ok || !a.IsActive {
		return nil
	}
	now := time.Now().UTC()
	a.IsActive = false
	a.RevokedBy = revokedBy
	a.RevokedAt = &now
	return nil
}

func (r *stubAssignmentRepo) ListActive(_ context.Context, tenantID string) ([]domain.RoleAssignment, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.RoleAssignment
	for _, a := range r.assignments {
		if a.TenantID == tenantID && a.IsActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

type stubSink struct {
	events []*domain.SecurityEvent
}

func (s *stubSink) Record(event *domain.SecurityEvent) {
	s.events = append(s.events, event)
}

func (s *stubSink) lastOfType(t domain.EventType) *domain.SecurityEvent {
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].EventType == t {
			return s.events[i]
		}
	}
	return nil
}

type stubLimiter struct {
	limited bool
	err     error
	resets  []string
}

func (l *stubLimiter) IsRateLimited(_ context.Context, _ string) (bool, error) {
	return l.limited, l.err
}

func (l *stubLimiter) RemainingAttempts(_ context.Context, _ string) (int, error) {
	return 0, nil
}

func (l *stubLimiter) Reset(_ context.Context, id string) error {
	l.resets = append(l.resets, id)
	return nil
}

func newTestRBAC(repo *stubAssignmentRepo, sink *stubSink) *rbacService {
	return &rbacService{repo: repo, audit: sink, limiter: &stubLimiter{}, log: zerolog.Nop()}
}

// ---------------------------------------------------------------------------
// Check / CheckMinimumRole
// ---------------------------------------------------------------------------

func TestCheck_Granted(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("u1", "A1", domain.RoleCoach)
	sink := &stubSink{}
	svc := newTestRBAC(repo, sink)

	decision, err := svc.Check(context.Background(), "u1", "A1", domain.PermManageTrainings)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !decision.Granted || decision.Role != domain.RoleCoach {
		t.Fatalf("unexpected decision: %+v", decision)
	}
	if len(sink.events) != 0 {
		t.Fatalf("grant must not emit events, got %d", len(sink.events))
	}
}

func TestCheck_DeniedPermissionAbsent(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("u1", "A1", domain.RolePlayer)
	sink := &stubSink{}
	svc := newTestRBAC(repo, sink)

	decision, err := svc.Check(context.Background(), "u1", "A1", domain.PermManageUsers)
	if err != nil {
		t.Fatalf("denial must not be an error: %v", err)
	}
	if decision.Granted {
		t.Fatalf("expected denial")
	}
	if decision.Role != domain.RolePlayer {
		t.Fatalf("decision should carry the actual role, got %q", decision.Role)
	}

	event := sink.lastOfType(domain.EventPermissionDenied)
	if event == nil {
		t.Fatalf("expected permission_denied event")
	}
	if event.Severity != domain.SeverityMedium || event.Success {
		t.Fatalf("unexpected denial event: %+v", event)
	}
}

func TestCheck_NoRoleIsDenialNotError(t *testing.T) {
	repo := newStubAssignmentRepo()
	sink := &stubSink{}
	svc := newTestRBAC(repo, sink)

	decision, err := svc.Check(context.Background(), "ghost", "A1", domain.PermViewTrainings)
	if err != nil {
		t.Fatalf("missing role must not be an error: %v", err)
	}
	if decision.Granted || decision.Role != domain.RoleNone {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}

func TestCheck_StoreFailureFailsClosed(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.getErr = domain.ErrStoreUnavailable
	sink := &stubSink{}
	svc := newTestRBAC(repo, sink)

	decision, err := svc.Check(context.Background(), "u1", "A1", domain.PermViewTrainings)
	if err == nil {
		t.Fatalf("expected store error to surface")
	}
	if decision.Granted {
		t.Fatalf("store failure must never grant")
	}
	if sink.lastOfType(domain.EventPermissionDenied) == nil {
		t.Fatalf("fail-closed denial should be audited")
	}
}

func TestCheckMinimumRole_EqualAndAbove(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("sub", "A1", domain.RoleSubdirector)
	repo.seed("coach", "A1", domain.RoleCoach)
	svc := newTestRBAC(repo, &stubSink{})

	decision, err := svc.CheckMinimumRole(context.Background(), "sub", "A1", domain.RoleSubdirector)
	if err != nil || !decision.Granted {
		t.Fatalf("equal level must grant: %+v err=%v", decision, err)
	}

	decision, err = svc.CheckMinimumRole(context.Background(), "coach", "A1", domain.RoleSubdirector)
	if err != nil {
		t.Fatalf("below-minimum is a denial, not an error: %v", err)
	}
	if decision.Granted {
		t.Fatalf("coach must not satisfy a subdirector minimum")
	}
}

func TestCheckMinimumRole_UnknownMinimum(t *testing.T) {
	svc := newTestRBAC(newStubAssignmentRepo(), &stubSink{})

	_, err := svc.CheckMinimumRole(context.Background(), "u1", "A1", "superadmin")
	if !errors.Is(err, domain.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestRequirePermission_DeniedRaisesTypedError(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("u1", "A1", domain.RolePlayer)
	svc := newTestRBAC(repo, &stubSink{})

	err := svc.RequirePermission(context.Background(), "u1", "A1", domain.PermManageUsers)
	var denied *domain.PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected PermissionDeniedError, got %v", err)
	}
	if denied.ActualRole != domain.RolePlayer {
		t.Fatalf("error should carry the actual role, got %q", denied.ActualRole)
	}
}

// ---------------------------------------------------------------------------
// AssignRole
// ---------------------------------------------------------------------------

func TestAssignRole_LegitimatePromotion(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("director", "A1", domain.RoleDirector)
	sink := &stubSink{}
	svc := newTestRBAC(repo, sink)

	assignment, err := svc.AssignRole(context.Background(), "director", "target", "A1", domain.RoleCoach)
	if err != nil {
		t.Fatalf("AssignRole returned error: %v", err)
	}
	if assignment.Role != domain.RoleCoach || !assignment.IsActive {
		t.Fatalf("unexpected assignment: %+v", assignment)
	}

	role, _ := repo.GetActiveRole(context.Background(), "target", "A1")
	if role != domain.RoleCoach {
		t.Fatalf("target role = %q, want %q", role, domain.RoleCoach)
	}

	event := sink.lastOfType(domain.EventRoleChange)
	if event == nil || !event.Success {
		t.Fatalf("expected successful role_change event, got %+v", event)
	}
	if event.Severity != domain.SeverityHigh {
		t.Fatalf("role_change severity = %s, want HIGH", event.Severity)
	}
	if event.Details["new_role"] != string(domain.RoleCoach) {
		t.Fatalf("event missing new role: %+v", event.Details)
	}
}

func TestAssignRole_LateralAssignmentBlocked(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("sub", "A1", domain.RoleSubdirector)
	sink := &stubSink{}
	svc := newTestRBAC(repo, sink)

	_, err := svc.AssignRole(context.Background(), "sub", "target", "A1", domain.RoleSubdirector)
	if !errors.Is(err, domain.ErrHierarchyViolation) {
		t.Fatalf("expected hierarchy violation, got %v", err)
	}
	if repo.upserts != 0 {
		t.Fatalf("store must be unchanged after a blocked assignment")
	}

	event := sink.lastOfType(domain.EventRoleChange)
	if event == nil || event.Success {
		t.Fatalf("expected failed role_change event, got %+v", event)
	}
}

func TestAssignRole_SelfEscalationBlocked(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("sub", "A1", domain.RoleSubdirector)
	svc := newTestRBAC(repo, &stubSink{})

	// Equal level to self.
	if _, err := svc.AssignRole(context.Background(), "sub", "sub", "A1", domain.RoleSubdirector); !errors.Is(err, domain.ErrHierarchyViolation) {
		t.Fatalf("self-reassignment to own level must fail, got %v", err)
	}
	// Above own level.
	if _, err := svc.AssignRole(context.Background(), "sub", "sub", "A1", domain.RoleDirector); !errors.Is(err, domain.ErrHierarchyViolation) {
		t.Fatalf("self-promotion must fail, got %v", err)
	}
}

func TestAssignRole_SelfDemotionPermitted(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("sub", "A1", domain.RoleSubdirector)
	svc := newTestRBAC(repo, &stubSink{})

	assignment, err := svc.AssignRole(context.Background(), "sub", "sub", "A1", domain.RoleCoach)
	if err != nil {
		t.Fatalf("self-demotion to a strictly lower role is allowed: %v", err)
	}
	if assignment.Role != domain.RoleCoach {
		t.Fatalf("unexpected role %q", assignment.Role)
	}
}

func TestAssignRole_ActorWithoutRole(t *testing.T) {
	repo := newStubAssignmentRepo()
	svc := newTestRBAC(repo, &stubSink{})

	_, err := svc.AssignRole(context.Background(), "nobody", "target", "A1", domain.RolePlayer)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAssignRole_ActorLacksManageUsers(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("coach", "A1", domain.RoleCoach)
	svc := newTestRBAC(repo, &stubSink{})

	_, err := svc.AssignRole(context.Background(), "coach", "target", "A1", domain.RolePlayer)
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denial, got %v", err)
	}
}

func TestAssignRole_UnknownRole(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("director", "A1", domain.RoleDirector)
	svc := newTestRBAC(repo, &stubSink{})

	_, err := svc.AssignRole(context.Background(), "director", "target", "A1", "galactic_overlord")
	if !errors.Is(err, domain.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestAssignRole_RateLimited(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("director", "A1", domain.RoleDirector)
	sink := &stubSink{}
	svc := &rbacService{repo: repo, audit: sink, limiter: &stubLimiter{limited: true}, log: zerolog.Nop()}

	_, err := svc.AssignRole(context.Background(), "director", "target", "A1", domain.RoleCoach)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if sink.lastOfType(domain.EventRateLimitExceeded) == nil {
		t.Fatalf("expected rate_limit_exceeded event")
	}
}

func TestAssignRole_StoreFailureEmitsFailureEvent(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("director", "A1", domain.RoleDirector)
	repo.upsertErr = domain.ErrStoreUnavailable
	sink := &stubSink{}
	svc := newTestRBAC(repo, sink)

	_, err := svc.AssignRole(context.Background(), "director", "target", "A1", domain.RoleCoach)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store error, got %v", err)
	}
	event := sink.lastOfType(domain.EventRoleChange)
	if event == nil || event.Success {
		t.Fatalf("expected failed role_change event before propagation")
	}
}

// ---------------------------------------------------------------------------
// RevokeRole / ListMembers
// ---------------------------------------------------------------------------

func TestRevokeRole_Succeeds(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("director", "A1", domain.RoleDirector)
	repo.seed("coach", "A1", domain.RoleCoach)
	sink := &stubSink{}
	svc := newTestRBAC(repo, sink)

	if err := svc.RevokeRole(context.Background(), "director", "coach", "A1"); err != nil {
		t.Fatalf("RevokeRole returned error: %v", err)
	}
	role, _ := repo.GetActiveRole(context.Background(), "coach", "A1")
	if role != domain.RoleNone {
		t.Fatalf("expected no active role after revocation, got %q", role)
	}
	event := sink.lastOfType(domain.EventRoleChange)
	if event == nil || !event.Success || event.Details["revoked"] != true {
		t.Fatalf("expected revocation event, got %+v", event)
	}
}

func TestRevokeRole_Idempotent(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("director", "A1", domain.RoleDirector)
	repo.seed("coach", "A1", domain.RoleCoach)
	svc := newTestRBAC(repo, &stubSink{})

	if err := svc.RevokeRole(context.Background(), "director", "coach", "A1"); err != nil {
		t.Fatalf("first revoke failed: %v", err)
	}
	if err := svc.RevokeRole(context.Background(), "director", "coach", "A1"); err != nil {
		t.Fatalf("second revoke must be a no-op, got %v", err)
	}
}

func TestRevokeRole_TargetOutranksActor(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("sub", "A1", domain.RoleSubdirector)
	repo.seed("director", "A1", domain.RoleDirector)
	svc := newTestRBAC(repo, &stubSink{})

	err := svc.RevokeRole(context.Background(), "sub", "director", "A1")
	if !errors.Is(err, domain.ErrHierarchyViolation) {
		t.Fatalf("expected hierarchy violation, got %v", err)
	}
	role, _ := repo.GetActiveRole(context.Background(), "director", "A1")
	if role != domain.RoleDirector {
		t.Fatalf("director role must be untouched")
	}
}

func TestListMembers_RequiresManageUsers(t *testing.T) {
	repo := newStubAssignmentRepo()
	repo.seed("sub", "A1", domain.RoleSubdirector)
	repo.seed("player", "A1", domain.RolePlayer)
	svc := newTestRBAC(repo, &stubSink{})

	members, err := svc.ListMembers(context.Background(), "sub", "A1")
	if err != nil {
		t.Fatalf("ListMembers returned error: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	if _, err := svc.ListMembers(context.Background(), "player", "A1"); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("player must not list members, got %v", err)
	}
}
