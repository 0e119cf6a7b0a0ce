package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/courtside/academy-platform/internal/api/metrics"
	"github.com/courtside/academy-platform/internal/core/domain"
	"github.com/courtside/academy-platform/internal/core/ports"
)

const timeFormat = time.RFC3339

// RoleHandler handles HTTP requests for role assignment operations.
type RoleHandler struct {
	rbac ports.RBACService
}

func NewRoleHandler(rbac ports.RBACService) *RoleHandler {
	return &RoleHandler{rbac: rbac}
}

// --- Request / Response types ---

type assignRoleRequest struct {
	TargetID string `json:"target_id" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type decisionResponse struct {
	Granted bool   `json:"granted"`
	Role    string `json:"role,omitempty"`
}

type memberResponse struct {
	PrincipalID string `json:"principal_id"`
	Role        string `json:"role"`
	AssignedBy  string `json:"assigned_by"`
	AssignedAt  string `json:"assigned_at"`
	LastUpdated string `json:"last_updated"`
}

// Assign grants a role to a target principal within the tenant.
//
// @Summary      Assign a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        tenant_id  path      string             true  "Tenant ID"
// @Param        body       body      assignRoleRequest  true  "Assignment details"
// @Success      200        {object}  memberResponse
// @Failure      400        {object}  map[string]string
// @Failure      403        {object}  map[string]string
// @Failure      429        {object}  map[string]string
// @Router       /api/v1/tenants/{tenant_id}/roles [post]
func (h *RoleHandler) Assign(c echo.Context) error {
	actorID, tenantID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req assignRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	assignment, err := h.rbac.AssignRole(c.Request().Context(), actorID, req.TargetID, tenantID, domain.Role(req.Role))
	if err != nil {
		metrics.RoleChangesTotal.WithLabelValues("assign", "failure").Inc()
		return err
	}
	metrics.RoleChangesTotal.WithLabelValues("assign", "success").Inc()

	return c.JSON(http.StatusOK, toMemberResponse(assignment))
}

// Revoke deactivates a target principal's role within the tenant.
//
// @Summary      Revoke a role
// @Tags         roles
// @Produce      json
// @Param        tenant_id     path  string  true  "Tenant ID"
// @Param        principal_id  path  string  true  "Target principal ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /api/v1/tenants/{tenant_id}/roles/{principal_id} [delete]
func (h *RoleHandler) Revoke(c echo.Context) error {
	actorID, tenantID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	targetID := c.Param("principal_id")
	if targetID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing principal id")
	}

	if err := h.rbac.RevokeRole(c.Request().Context(), actorID, targetID, tenantID); err != nil {
		metrics.RoleChangesTotal.WithLabelValues("revoke", "failure").Inc()
		return err
	}
	metrics.RoleChangesTotal.WithLabelValues("revoke", "success").Inc()

	return c.NoContent(http.StatusNoContent)
}

// List returns every active member of the tenant.
//
// @Summary      List tenant members
// @Tags         roles
// @Produce      json
// @Param        tenant_id  path      string  true  "Tenant ID"
// @Success      200        {array}   memberResponse
// @Failure      403        {object}  map[string]string
// @Router       /api/v1/tenants/{tenant_id}/roles [get]
func (h *RoleHandler) List(c echo.Context) error {
	actorID, tenantID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	members, err := h.rbac.ListMembers(c.Request().Context(), actorID, tenantID)
	if err != nil {
		return err
	}

	out := make([]memberResponse, 0, len(members))
	for i := range members {
		out = append(out, toMemberResponse(&members[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// CheckPermission evaluates one permission for the calling principal.
//
// @Summary      Check a permission
// @Tags         permissions
// @Produce      json
// @Param        tenant_id   path      string  true  "Tenant ID"
// @Param        permission  query     string  true  "Permission identifier"
// @Success      200         {object}  decisionResponse
// @Router       /api/v1/tenants/{tenant_id}/permissions/check [get]
func (h *RoleHandler) CheckPermission(c echo.Context) error {
	principalID, tenantID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	perm := c.QueryParam("permission")
	if perm == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing permission parameter")
	}

	decision, err := h.rbac.Check(c.Request().Context(), principalID, tenantID, domain.Permission(perm))
	if err != nil {
		return err
	}
	if decision.Granted {
		metrics.PermissionChecksTotal.WithLabelValues("granted").Inc()
	} else {
		metrics.PermissionChecksTotal.WithLabelValues("denied").Inc()
	}

	return c.JSON(http.StatusOK, decisionResponse{Granted: decision.Granted, Role: string(decision.Role)})
}

// Me returns the calling principal's own role in the tenant.
//
// @Summary      Own role
// @Tags         roles
// @Produce      json
// @Param        tenant_id  path      string  true  "Tenant ID"
// @Success      200        {object}  decisionResponse
// @Router       /api/v1/tenants/{tenant_id}/roles/me [get]
func (h *RoleHandler) Me(c echo.Context) error {
	principalID, tenantID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	// The lowest registered role doubles as an "am I a member at all" probe.
	decision, err := h.rbac.CheckMinimumRole(c.Request().Context(), principalID, tenantID, domain.RolePlayer)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, decisionResponse{Granted: decision.Granted, Role: string(decision.Role)})
}

func toMemberResponse(a *domain.RoleAssignment) memberResponse {
	return memberResponse{
		PrincipalID: a.PrincipalID,
		Role:        string(a.Role),
		AssignedBy:  a.AssignedBy,
		AssignedAt:  a.AssignedAt.Format(timeFormat),
		LastUpdated: a.LastUpdated.Format(timeFormat),
	}
}
