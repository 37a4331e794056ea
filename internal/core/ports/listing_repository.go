package ports

import (
	"context"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

// ListListingsFilter carries all query parameters for listing queries.
// VisibleOnly is set by the service for anonymous/third-party listings and
// applies the public-visibility predicate inside the store query.
type ListListingsFilter struct {
	VisibleOnly bool
	OwnerID     string                  // non-empty = scoped to one owner
	Moderation  domain.ModerationStatus // optional: filter by moderation state (admin queue)
	Publication domain.PublicationStatus
	Kind        domain.ListingKind
	City        string
	PriceMin    float64
	PriceMax    float64
	Page        int // 1-based
	Limit       int // capped by the service
}

// ListingRepository defines persistence operations for property listings.
type ListingRepository interface {
	Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error)
	FindByID(ctx context.Context, id string) (*domain.Listing, error)
	// List returns a page of listings matching filter and the total count.
	List(ctx context.Context, filter ListListingsFilter) ([]*domain.Listing, int64, error)
	Update(ctx context.Context, l *domain.Listing) error
	Delete(ctx context.Context, id string) error
	// UpdateModeration sets the moderation status iff the persisted status
	// still equals from (compare-and-swap). A lost race returns
	// domain.ErrModerationConflict; a missing document returns
	// domain.ErrListingNotFound.
	UpdateModeration(ctx context.Context, id string, from, to domain.ModerationStatus) error
}
