package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/courtside/academy-platform/internal/core/domain"
)

const assignmentCollection = "role_assignments"

// AssignmentRepository implements ports.AssignmentRepository over MongoDB.
// One document per (principal_id, tenant_id); revocation flips is_active
// instead of deleting, preserving audit continuity.
type AssignmentRepository struct {
	coll *mongo.Collection
}

func NewAssignmentRepository(db *mongo.Database) *AssignmentRepository {
	return &AssignmentRepository{coll: db.Collection(assignmentCollection)}
}

type mongoAssignment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	PrincipalID string             `bson:"principal_id"`
	TenantID    string             `bson:"tenant_id"`
	Role        string             `bson:"role"`
	AssignedBy  string             `bson:"assigned_by"`
	AssignedAt  time.Time          `bson:"assigned_at"`
	LastUpdated time.Time          `bson:"last_updated"`
	IsActive    bool               `bson:"is_active"`
	RevokedBy   string             `bson:"revoked_by,omitempty"`
	RevokedAt   *time.Time         `bson:"revoked_at,omitempty"`
	Version     int64              `bson:"version"`
}

// GetActiveRole returns the active role for the pair, or RoleNone when no
// document exists or the assignment is inactive.
func (r *AssignmentRepository) GetActiveRole(ctx context.Context, principalID, tenantID string) (domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ma mongoAssignment
	err := r.coll.FindOne(ctx, bson.M{
		"principal_id": principalID,
		"tenant_id":    tenantID,
		"is_active":    true,
	}).Decode(&ma)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.RoleNone, nil
		}
		return domain.RoleNone, fmt.Errorf("get active role: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return domain.Role(ma.Role), nil
}

// Upsert creates or replaces the assignment for the pair, reactivating it
// and bumping the version counter. Races between concurrent upserts
// resolve last-write-wins.
func (r *AssignmentRepository) Upsert(ctx context.Context, a *domain.RoleAssignment) (*domain.RoleAssignment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"principal_id": a.PrincipalID, "tenant_id": a.TenantID}
	update := bson.M{
		"$set": bson.M{
			"role":         string(a.Role),
			"assigned_by":  a.AssignedBy,
			"last_updated": a.LastUpdated.UTC(),
			"is_active":    true,
			"revoked_by":   "",
			"revoked_at":   nil,
		},
		"$setOnInsert": bson.M{"assigned_at": a.AssignedAt.UTC()},
		"$inc":         bson.M{"version": int64(1)},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var ma mongoAssignment
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ma); err != nil {
		return nil, fmt.Errorf("upsert assignment: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return ma.toDomain(), nil
}

// Revoke deactivates the assignment in place. A missing or already
// inactive document matches nothing and the call is a no-op.
func (r *AssignmentRepository) Revoke(ctx context.Context, principalID, tenantID, revokedBy string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{"principal_id": principalID, "tenant_id": tenantID, "is_active": true}
	update := bson.M{
		"$set": bson.M{
			"is_active":    false,
			"revoked_by":   revokedBy,
			"revoked_at":   now,
			"last_updated": now,
		},
		"$inc": bson.M{"version": int64(1)},
	}

	if _, err := r.coll.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("revoke assignment: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// ListActive returns all active assignments in the tenant, oldest first.
func (r *AssignmentRepository) ListActive(ctx context.Context, tenantID string) ([]domain.RoleAssignment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "assigned_at", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"tenant_id": tenantID, "is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("list active assignments: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var assignments []domain.RoleAssignment
	for cursor.Next(ctx) {
		var ma mongoAssignment
		if err := cursor.Decode(&ma); err != nil {
			return nil, fmt.Errorf("decode assignment: %w", err)
		}
		assignments = append(assignments, *ma.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list active assignments: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return assignments, nil
}

// EnsureIndexes creates the unique pair index and the tenant listing index.
func (r *AssignmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "principal_id", Value: 1}, {Key: "tenant_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "is_active", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (ma *mongoAssignment) toDomain() *domain.RoleAssignment {
	return &domain.RoleAssignment{
		ID:          ma.ID.Hex(),
		PrincipalID: ma.PrincipalID,
		TenantID:    ma.TenantID,
		Role:        domain.Role(ma.Role),
		AssignedBy:  ma.AssignedBy,
		AssignedAt:  ma.AssignedAt.UTC(),
		LastUpdated: ma.LastUpdated.UTC(),
		IsActive:    ma.IsActive,
		RevokedBy:   ma.RevokedBy,
		RevokedAt:   ma.RevokedAt,
		Version:     ma.Version,
	}
}
