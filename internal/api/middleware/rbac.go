package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/courtside/academy-platform/internal/core/domain"
	"github.com/courtside/academy-platform/internal/core/ports"
)

// RequirePermission gates a route on a server-validated permission check.
// The tenant comes from the :tenant_id path parameter and the principal
// from the Auth middleware. Denials surface through the central error
// handler as 403 with the reason.
func RequirePermission(rbac ports.RBACService, perm domain.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principalID, _ := c.Get("principal_id").(string)
			if principalID == "" {
				return domain.ErrUnauthenticated
			}
			tenantID := c.Param("tenant_id")

			if err := rbac.RequirePermission(c.Request().Context(), principalID, tenantID, perm); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// RequireMinimumRole gates a route on hierarchy level, for
// "subdirector-or-above" style routes.
func RequireMinimumRole(rbac ports.RBACService, minRole domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principalID, _ := c.Get("principal_id").(string)
			if principalID == "" {
				return domain.ErrUnauthenticated
			}
			tenantID := c.Param("tenant_id")

			if err := rbac.RequireMinimumRole(c.Request().Context(), principalID, tenantID, minRole); err != nil {
				return err
			}
			return next(c)
		}
	}
}
