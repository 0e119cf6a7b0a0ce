package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/courtside/academy-platform/internal/core/domain"
)

const auditCollection = "security_events"

// AuditRepository implements ports.AuditRepository over MongoDB. The
// collection is insert-only; nothing here updates or deletes documents.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type mongoEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	EventType string             `bson:"event_type"`
	Severity  string             `bson:"severity"`
	Timestamp time.Time          `bson:"timestamp"`
	ActorID   string             `bson:"actor_id,omitempty"`
	TenantID  string             `bson:"tenant_id"`
	Success   bool               `bson:"success"`
	Details   bson.M             `bson:"details,omitempty"`
}

// Insert appends one event.
func (r *AuditRepository) Insert(ctx context.Context, event *domain.SecurityEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoEvent{
		EventType: string(event.EventType),
		Severity:  string(event.Severity),
		Timestamp: event.Timestamp.UTC(),
		ActorID:   event.ActorID,
		TenantID:  event.TenantID,
		Success:   event.Success,
	}
	if len(event.Details) > 0 {
		doc.Details = bson.M(event.Details)
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert security event: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// QueryRecent returns up to limit events for the tenant, newest first.
// Insertion order breaks timestamp ties via the _id sort component.
func (r *AuditRepository) QueryRecent(ctx context.Context, tenantID string, limit int, filter domain.AuditFilter) ([]domain.SecurityEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{"tenant_id": tenantID}
	if filter.EventType != "" {
		query["event_type"] = string(filter.EventType)
	}
	if filter.Severity != "" {
		query["severity"] = string(filter.Severity)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("query security events: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var events []domain.SecurityEvent
	for cursor.Next(ctx) {
		var me mongoEvent
		if err := cursor.Decode(&me); err != nil {
			return nil, fmt.Errorf("decode security event: %w", err)
		}
		events = append(events, me.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("query security events: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return events, nil
}

// EnsureIndexes creates the tenant/timestamp index used by QueryRecent.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "event_type", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (me *mongoEvent) toDomain() domain.SecurityEvent {
	event := domain.SecurityEvent{
		ID:        me.ID.Hex(),
		EventType: domain.EventType(me.EventType),
		Severity:  domain.Severity(me.Severity),
		Timestamp: me.Timestamp.UTC(),
		ActorID:   me.ActorID,
		TenantID:  me.TenantID,
		Success:   me.Success,
	}
	if len(me.Details) > 0 {
		event.Details = map[string]any(me.Details)
	}
	return event
}
