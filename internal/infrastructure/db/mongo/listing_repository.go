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

const collectionListings = "listings"

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(collectionListings)}
}

// publicVisibilityFilter is the store-side rendering of
// domain.Listing.IsPubliclyVisible. Both conditions compose with AND; no
// query may widen it.
func publicVisibilityFilter() bson.M {
	return bson.M{
		"moderation_status": domain.ModerationApproved,
		"publication_status": bson.M{"$in": []domain.PublicationStatus{
			domain.PublicationForSale,
			domain.PublicationForRent,
			domain.PublicationSold,
		}},
	}
}

// Create inserts a new listing document and returns it with the generated id.
func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := *l
	doc.ID = primitive.NewObjectID().Hex()
	if _, err := r.col.InsertOne(ctx, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByID retrieves a listing by id. Absence maps to domain.ErrListingNotFound.
func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var l domain.Listing
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

// List returns a page of listings matching filter and the total count.
func (r *ListingRepository) List(ctx context.Context, f ports.ListListingsFilter) ([]*domain.Listing, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.VisibleOnly {
		for k, v := range publicVisibilityFilter() {
			filter[k] = v
		}
	}
	if f.OwnerID != "" {
		filter["owner_id"] = f.OwnerID
	}
	if f.Moderation != "" {
		filter["moderation_status"] = f.Moderation
	}
	if f.Publication != "" {
		// Narrow only: an explicit publication filter must stay inside
		// the visible set when VisibleOnly is on.
		if !f.VisibleOnly || f.Publication.Public() {
			filter["publication_status"] = f.Publication
		}
	}
	if f.Kind != "" {
		filter["kind"] = f.Kind
	}
	if f.City != "" {
		filter["city"] = f.City
	}
	price := bson.M{}
	if f.PriceMin > 0 {
		price["$gte"] = f.PriceMin
	}
	if f.PriceMax > 0 {
		price["$lte"] = f.PriceMax
	}
	if len(price) > 0 {
		filter["price"] = price
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

	var items []*domain.Listing
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update replaces the mutable fields of a listing document.
func (r *ListingRepository) Update(ctx context.Context, l *domain.Listing) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": l.ID}, bson.M{"$set": bson.M{
		"title":              l.Title,
		"description":        l.Description,
		"price":              l.Price,
		"currency":           l.Currency,
		"city":               l.City,
		"publication_status": l.PublicationStatus,
		"moderation_status":  l.ModerationStatus,
		"updated_at":         l.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

// Delete removes a listing document.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

// UpdateModeration performs the compare-and-swap moderation write: the
// filter pins the expected current status, so of two concurrent decisions
// exactly one matches and the other surfaces domain.ErrModerationConflict.
func (r *ListingRepository) UpdateModeration(ctx context.Context, id string, from, to domain.ModerationStatus) error {
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
		// Distinguish a lost race from a vanished document.
		if n, err := r.col.CountDocuments(ctx, bson.M{"_id": id}); err == nil && n == 0 {
			return domain.ErrListingNotFound
		}
		return domain.ErrModerationConflict
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the listings collection.
func (r *ListingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "moderation_status", Value: 1}, {Key: "publication_status", Value: 1}}},
		{Keys: bson.D{{Key: "city", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
