package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/courtside/academy-platform/internal/core/domain"
	"github.com/courtside/academy-platform/internal/core/ports"
)

// AuditHandler exposes the security-event log to monitoring consumers.
type AuditHandler struct {
	audit ports.AuditService
}

func NewAuditHandler(audit ports.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

type auditEventResponse struct {
	ID        string         `json:"id"`
	EventType string         `json:"event_type"`
	Severity  string         `json:"severity"`
	Timestamp string         `json:"timestamp"`
	ActorID   string         `json:"actor_id,omitempty"`
	TenantID  string         `json:"tenant_id"`
	Success   bool           `json:"success"`
	Details   map[string]any `json:"details,omitempty"`
}

// Recent returns the latest security events for the tenant, newest first.
// The route is gated on view_audit_log by middleware.
//
// @Summary      Recent security events
// @Tags         audit
// @Produce      json
// @Param        tenant_id  path      string  true   "Tenant ID"
// @Param        limit      query     int     false  "Maximum events to return"
// @Param        event_type query     string  false  "Filter by event type"
// @Param        severity   query     string  false  "Filter by severity"
// @Success      200        {array}   auditEventResponse
// @Failure      403        {object}  map[string]string
// @Router       /api/v1/tenants/{tenant_id}/audit [get]
func (h *AuditHandler) Recent(c echo.Context) error {
	_, tenantID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
	}

	filter := domain.AuditFilter{
		EventType: domain.EventType(c.QueryParam("event_type")),
		Severity:  domain.Severity(c.QueryParam("severity")),
	}
	if filter.EventType != "" && !domain.ValidEventType(filter.EventType) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown event type")
	}
	if filter.Severity != "" && !domain.ValidSeverity(filter.Severity) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown severity")
	}

	events, err := h.audit.QueryRecent(c.Request().Context(), tenantID, limit, filter)
	if err != nil {
		return err
	}

	out := make([]auditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, auditEventResponse{
			ID:        e.ID,
			EventType: string(e.EventType),
			Severity:  string(e.Severity),
			Timestamp: e.Timestamp.Format(timeFormat),
			ActorID:   e.ActorID,
			TenantID:  e.TenantID,
			Success:   e.Success,
			Details:   e.Details,
		})
	}
	return c.JSON(http.StatusOK, out)
}
