package ports

import (
	"context"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

// CreateListingInput carries all data needed to submit a new listing.
type CreateListingInput struct {
	Title       string
	Description string
	Kind        domain.ListingKind
	Price       float64
	Currency    string
	City        string
	Publication domain.PublicationStatus
}

// UpdateListingInput carries owner-editable content fields. Ownership and
// moderation are never taken from the client.
type UpdateListingInput struct {
	Title       string
	Description string
	Price       float64
	Currency    string
	City        string
	Publication domain.PublicationStatus
}

// ListListingsInput carries parameters for the public and owner list endpoints.
type ListListingsInput struct {
	Publication domain.PublicationStatus
	Kind        domain.ListingKind
	City        string
	PriceMin    float64
	PriceMax    float64
	Page        int
	Limit       int
}

// ListingPage is one page of listings plus pagination metadata.
type ListingPage struct {
	Items      []*domain.Listing
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ListingService defines use-case operations for property listings. Every
// method authorizes against the caller identity before touching state; read
// denials surface as domain.ErrListingNotFound so forbidden and absent are
// indistinguishable to the caller.
type ListingService interface {
	Create(ctx context.Context, caller domain.Identity, input CreateListingInput) (*domain.Listing, error)
	Get(ctx context.Context, caller domain.Identity, id string) (*domain.Listing, error)
	ListPublic(ctx context.Context, input ListListingsInput) (*ListingPage, error)
	ListOwned(ctx context.Context, caller domain.Identity, page, limit int) (*ListingPage, error)
	ListByModeration(ctx context.Context, caller domain.Identity, status domain.ModerationStatus, page, limit int) (*ListingPage, error)
	Update(ctx context.Context, caller domain.Identity, id string, input UpdateListingInput) (*domain.Listing, error)
	Delete(ctx context.Context, caller domain.Identity, id string) error
	// Moderate applies an admin moderation transition. Same-state requests
	// are idempotent no-ops; a lost concurrent race returns
	// domain.ErrModerationConflict.
	Moderate(ctx context.Context, caller domain.Identity, id string, target domain.ModerationStatus) (*domain.Listing, error)
}
