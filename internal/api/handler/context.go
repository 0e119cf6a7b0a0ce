package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxPrincipal extracts the principal injected by the Auth middleware and
// the tenant from the route, failing fast before any service call:
//   - principal_id must be non-empty (presence proves the middleware ran).
//   - tenant_id must be present on every tenant-scoped route.
func ctxPrincipal(c echo.Context) (principalID, tenantID string, err error) {
	principalID, _ = c.Get("principal_id").(string)
	if principalID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	tenantID = c.Param("tenant_id")
	if tenantID == "" {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, "missing tenant id")
	}

	return principalID, tenantID, nil
}
