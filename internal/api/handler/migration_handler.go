package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/courtside/academy-platform/internal/api/metrics"
	"github.com/courtside/academy-platform/internal/core/ports"
)

// MigrationHandler exposes the session-bootstrap gate.
type MigrationHandler struct {
	migration ports.MigrationService
}

func NewMigrationHandler(migration ports.MigrationService) *MigrationHandler {
	return &MigrationHandler{migration: migration}
}

// Status reports whether the calling principal has an explicit role in the
// tenant. New principals see needs_initial_setup until an administrator
// assigns one.
//
// @Summary      Migration status
// @Tags         migration
// @Produce      json
// @Param        tenant_id  path      string  true  "Tenant ID"
// @Success      200        {object}  domain.MigrationStatus
// @Router       /api/v1/tenants/{tenant_id}/migration/status [get]
func (h *MigrationHandler) Status(c echo.Context) error {
	principalID, tenantID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.migration.CheckStatus(c.Request().Context(), principalID, tenantID))
}

// Skip marks the caller's session complete without creating any role
// assignment. Server-side permission checks are unaffected; the principal
// remains unprivileged until a real role is assigned.
//
// @Summary      Temporarily bypass migration
// @Tags         migration
// @Produce      json
// @Param        tenant_id  path      string  true  "Tenant ID"
// @Success      200        {object}  domain.MigrationStatus
// @Router       /api/v1/tenants/{tenant_id}/migration/skip [post]
func (h *MigrationHandler) Skip(c echo.Context) error {
	principalID, tenantID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	h.migration.SkipTemporarily(principalID, tenantID)
	metrics.MigrationBypassesTotal.Inc()

	return c.JSON(http.StatusOK, h.migration.CheckStatus(c.Request().Context(), principalID, tenantID))
}
