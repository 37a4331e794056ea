package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

const collectionAudit = "moderation_audit"

// AuditRepository persists moderation audit records. Records are append-only.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit)}
}

func (r *AuditRepository) Record(ctx context.Context, entry domain.ModerationAudit) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

// EnsureIndexes creates the lookup index for per-item audit history.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "content_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}
