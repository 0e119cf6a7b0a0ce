package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtside/academy-platform/internal/core/domain"
	"github.com/courtside/academy-platform/internal/core/ports"
)

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 500
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns the append-only security-event log.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// LogEvent validates and appends one event. A failed insert is retried
// once with no backoff; the second failure is returned to the caller, who
// decides whether to swallow it (the async sink always does).
func (s *auditService) LogEvent(ctx context.Context, event *domain.SecurityEvent) error {
	if event == nil {
		return fmt.Errorf("log event: nil event")
	}
	if !domain.ValidEventType(event.EventType) {
		return fmt.Errorf("log event: invalid event type %q", event.EventType)
	}
	if !domain.ValidSeverity(event.Severity) {
		return fmt.Errorf("log event: invalid severity %q", event.Severity)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.TenantID == "" {
		event.TenantID = domain.TenantSystem
	}
	event.Details = truncateDetails(event.Details)

	if err := s.repo.Insert(ctx, event); err != nil {
		s.log.Warn().Err(err).
			Str("event_type", string(event.EventType)).
			Msg("audit insert failed, retrying once")
		if err := s.repo.Insert(ctx, event); err != nil {
			return fmt.Errorf("log event: %w", err)
		}
	}
	return nil
}

// QueryRecent returns up to limit events for the tenant, newest first.
func (s *auditService) QueryRecent(ctx context.Context, tenantID string, limit int, filter domain.AuditFilter) ([]domain.SecurityEvent, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}
	events, err := s.repo.QueryRecent(ctx, tenantID, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	return events, nil
}

// truncateDetails bounds the details map so a caller cannot bloat the log.
func truncateDetails(details map[string]any) map[string]any {
	if len(details) <= domain.MaxDetailKeys {
		return details
	}
	out := make(map[string]any, domain.MaxDetailKeys)
	for k, v := range details {
		out[k] = v
		if len(out) == domain.MaxDetailKeys-1 {
			break
		}
	}
	out["truncated"] = true
	return out
}
