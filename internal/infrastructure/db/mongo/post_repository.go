package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

const collectionPosts = "posts"

type PostRepository struct {
	col *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{col: db.Collection(collectionPosts)}
}

func (r *PostRepository) Create(ctx context.Context, p *domain.BlogPost) (*domain.BlogPost, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := *p
	doc.ID = primitive.NewObjectID().Hex()
	if _, err := r.col.InsertOne(ctx, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*domain.BlogPost, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.BlogPost
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPostNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostRepository) List(ctx context.Context, f ports.ListPostsFilter) ([]*domain.BlogPost, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.VisibleOnly {
		filter["moderation_status"] = domain.ModerationApproved
		filter["status"] = domain.PostPublished
	}
	if f.OwnerID != "" {
		filter["owner_id"] = f.OwnerID
	}
	if f.Moderation != "" {
		filter["moderation_status"] = f.Moderation
	}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
		if f.Page > 1 {
			opts.SetSkip(int64((f.Page - 1) * f.Limit))
		}
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var items []*domain.BlogPost
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostRepository) Update(ctx context.Context, p *domain.BlogPost) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"title":             p.Title,
		"body":              p.Body,
		"tags":              p.Tags,
		"status":            p.Status,
		"moderation_status": p.ModerationStatus,
		"updated_at":        p.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

// UpdateModeration is the compare-and-swap moderation write; see the listing
// repository for the race semantics.
func (r *PostRepository) UpdateModeration(ctx context.Context, id string, from, to domain.ModerationStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "moderation_status": from},
		bson.M{"$set": bson.M{
			"moderation_status": to,
			"updated_at":        time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if n, err := r.col.CountDocuments(ctx, bson.M{"_id": id}); err == nil && n == 0 {
			return domain.ErrPostNotFound
		}
		return domain.ErrModerationConflict
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the posts collection.
func (r *PostRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "moderation_status", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
