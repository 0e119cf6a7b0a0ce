package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/courtside/academy-platform/internal/api/metrics"
	"github.com/courtside/academy-platform/internal/core/domain"
	"github.com/courtside/academy-platform/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// AuditDispatcher fans security events out to a fixed set of workers using
// consistent hashing on the tenant id, so events within one tenant append
// in the order they were recorded. Writes are best-effort: a full buffer
// drops the event rather than blocking the audited operation.
type AuditDispatcher struct {
	workers []chan *domain.SecurityEvent
	service ports.AuditService
	log     zerolog.Logger
}

// NewAuditDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewAuditDispatcher(numWorkers int, service ports.AuditService, log zerolog.Logger) *AuditDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &AuditDispatcher{
		workers: make([]chan *domain.SecurityEvent, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan *domain.SecurityEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *AuditDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Record enqueues an event without blocking. It never fails the caller:
// when the shard buffer is full the event is dropped and counted.
func (d *AuditDispatcher) Record(event *domain.SecurityEvent) {
	if event == nil {
		return
	}
	select {
	case d.workers[d.shardIndex(event.TenantID)] <- event:
	default:
		metrics.AuditEventsDroppedTotal.WithLabelValues("queue_full").Inc()
		d.log.Warn().
			Str("event_type", string(event.EventType)).
			Str("tenant_id", event.TenantID).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps a tenant deterministically to a worker index.
func (d *AuditDispatcher) shardIndex(tenantID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tenantID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *AuditDispatcher) runWorker(ctx context.Context, id int, ch <-chan *domain.SecurityEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			// LogEvent already retries once; a second failure is final.
			if err := d.service.LogEvent(ctx, event); err != nil {
				metrics.AuditEventsDroppedTotal.WithLabelValues("write_failed").Inc()
				d.log.Error().Err(err).
					Str("event_type", string(event.EventType)).
					Str("tenant_id", event.TenantID).
					Int("worker_id", id).
					Msg("audit event dropped after retry")
			} else {
				metrics.AuditEventsTotal.WithLabelValues(string(event.EventType), string(event.Severity)).Inc()
			}
		}
	}
}
