package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtside/academy-platform/internal/core/domain"
)

type captureAuditService struct {
	mu     sync.Mutex
	events []*domain.SecurityEvent
}

func (s *captureAuditService) LogEvent(_ context.Context, event *domain.SecurityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureAuditService) QueryRecent(context.Context, string, int, domain.AuditFilter) ([]domain.SecurityEvent, error) {
	return nil, nil
}

func (s *captureAuditService) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestDispatcher_DeliversEvents(t *testing.T) {
	svc := &captureAuditService{}
	d := NewAuditDispatcher(2, svc, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < 10; i++ {
		d.Record(&domain.SecurityEvent{
			EventType: domain.EventLogin,
			Severity:  domain.SeverityLow,
			TenantID:  "A1",
		})
	}

	deadline := time.Now().Add(2 * time.Second)
	for svc.count() < 10 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 10 events delivered, got %d", svc.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDispatcher_NilEventIgnored(t *testing.T) {
	d := NewAuditDispatcher(1, &captureAuditService{}, zerolog.Nop())
	d.Record(nil) // must not panic or enqueue
}

func TestDispatcher_SameTenantSameShard(t *testing.T) {
	d := NewAuditDispatcher(4, &captureAuditService{}, zerolog.Nop())
	first := d.shardIndex("A1")
	for i := 0; i < 10; i++ {
		if d.shardIndex("A1") != first {
			t.Fatalf("shard index must be deterministic per tenant")
		}
	}
}
