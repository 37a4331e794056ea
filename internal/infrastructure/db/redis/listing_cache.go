package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

const cacheTTL = 5 * time.Minute

// ListingCache caches publicly visible listing documents for anonymous
// detail reads. A miss or a Redis failure is never fatal: the caller falls
// through to the store. Keys are invalidated on every content or moderation
// change so a listing pulled from moderation disappears within one write.
// Key format: listing:<id>
type ListingCache struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewListingCache creates a ListingCache wrapping the given Redis client.
func NewListingCache(client *redis.Client, log zerolog.Logger) *ListingCache {
	return &ListingCache{client: client, log: log}
}

// Get returns the cached listing, if present.
func (c *ListingCache) Get(ctx context.Context, id string) (*domain.Listing, bool) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var l domain.Listing
	if err := json.Unmarshal(raw, &l); err != nil {
		c.log.Warn().Err(err).Str("listing_id", id).Msg("corrupt cache entry dropped")
		_ = c.client.Del(ctx, c.key(id)).Err()
		return nil, false
	}
	return &l, true
}

// Set stores a listing. Only publicly visible listings belong here; the
// service enforces that before calling.
func (c *ListingCache) Set(ctx context.Context, l *domain.Listing) {
	raw, err := json.Marshal(l)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(l.ID), raw, cacheTTL).Err(); err != nil {
		c.log.Warn().Err(err).Str("listing_id", l.ID).Msg("cache write failed")
	}
}

// Invalidate drops the cached entry for id.
func (c *ListingCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		c.log.Warn().Err(err).Str("listing_id", id).Msg("cache invalidation failed")
	}
}

func (c *ListingCache) key(id string) string {
	return "listing:" + id
}
