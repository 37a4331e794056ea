package ports

import (
	"context"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

// ListPostsFilter carries query parameters for blog post queries.
type ListPostsFilter struct {
	VisibleOnly bool
	OwnerID     string
	Moderation  domain.ModerationStatus
	Tag         string
	Page        int
	Limit       int
}

// PostRepository defines persistence operations for blog posts.
type PostRepository interface {
	Create(ctx context.Context, p *domain.BlogPost) (*domain.BlogPost, error)
	FindByID(ctx context.Context, id string) (*domain.BlogPost, error)
	List(ctx context.Context, filter ListPostsFilter) ([]*domain.BlogPost, int64, error)
	Update(ctx context.Context, p *domain.BlogPost) error
	Delete(ctx context.Context, id string) error
	// UpdateModeration is the CAS moderation write; see ListingRepository.
	UpdateModeration(ctx context.Context, id string, from, to domain.ModerationStatus) error
}
