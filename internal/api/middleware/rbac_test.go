package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/courtside/academy-platform/internal/core/domain"
)

// stubRBAC grants or denies everything according to its fields.
type stubRBAC struct {
	requireErr error
	lastTenant string
}

func (s *stubRBAC) Check(context.Context, string, string, domain.Permission) (domain.Decision, error) {
	return domain.Decision{}, nil
}

func (s *stubRBAC) CheckMinimumRole(context.Context, string, string, domain.Role) (domain.Decision, error) {
	return domain.Decision{}, nil
}

func (s *stubRBAC) RequirePermission(_ context.Context, _, tenantID string, _ domain.Permission) error {
	s.lastTenant = tenantID
	return s.requireErr
}

func (s *stubRBAC) RequireMinimumRole(_ context.Context, _, tenantID string, _ domain.Role) error {
	s.lastTenant = tenantID
	return s.requireErr
}

func (s *stubRBAC) AssignRole(context.Context, string, string, string, domain.Role) (*domain.RoleAssignment, error) {
	return nil, nil
}

func (s *stubRBAC) RevokeRole(context.Context, string, string, string) error { return nil }

func (s *stubRBAC) ListMembers(context.Context, string, string) ([]domain.RoleAssignment, error) {
	return nil, nil
}

func newTenantContext(e *echo.Echo, principalID string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("tenant_id")
	c.SetParamValues("A1")
	if principalID != "" {
		c.Set("principal_id", principalID)
	}
	return c
}

func TestRequirePermission_Allows(t *testing.T) {
	e := echo.New()
	c := newTenantContext(e, "u1")
	rbac := &stubRBAC{}

	called := false
	handler := RequirePermission(rbac, domain.PermManageUsers)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rbac.lastTenant != "A1" {
		t.Fatalf("tenant not taken from route, got %q", rbac.lastTenant)
	}
}

func TestRequirePermission_DenialPropagates(t *testing.T) {
	e := echo.New()
	c := newTenantContext(e, "u1")
	rbac := &stubRBAC{requireErr: &domain.PermissionDeniedError{Reason: "requires permission manage_users"}}

	handler := RequirePermission(rbac, domain.PermManageUsers)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	err := handler(c)
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denial, got %v", err)
	}
}

func TestRequirePermission_MissingPrincipal(t *testing.T) {
	e := echo.New()
	c := newTenantContext(e, "")

	handler := RequirePermission(&stubRBAC{}, domain.PermManageUsers)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRequireMinimumRole_DenialPropagates(t *testing.T) {
	e := echo.New()
	c := newTenantContext(e, "u1")
	rbac := &stubRBAC{requireErr: &domain.PermissionDeniedError{
		Reason:     "requires role academySubdirector or above",
		ActualRole: domain.RoleCoach,
	}}

	handler := RequireMinimumRole(rbac, domain.RoleSubdirector)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denial, got %v", err)
	}
}
