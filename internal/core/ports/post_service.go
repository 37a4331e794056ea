package ports

import (
	"context"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

// CreatePostInput carries all data needed to submit a blog post.
type CreatePostInput struct {
	Title  string
	Body   string
	Tags   []string
	Status domain.PostStatus
}

// UpdatePostInput carries owner-editable post fields.
type UpdatePostInput struct {
	Title  string
	Body   string
	Tags   []string
	Status domain.PostStatus
}

// ListPostsInput carries parameters for the public post list endpoint.
type ListPostsInput struct {
	Tag   string
	Page  int
	Limit int
}

// PostPage is one page of posts plus pagination metadata.
type PostPage struct {
	Items      []*domain.BlogPost
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// PostService defines use-case operations for blog posts. Authorization
// semantics mirror ListingService; creation is open to any authenticated
// identity.
type PostService interface {
	Create(ctx context.Context, caller domain.Identity, input CreatePostInput) (*domain.BlogPost, error)
	Get(ctx context.Context, caller domain.Identity, id string) (*domain.BlogPost, error)
	ListPublic(ctx context.Context, input ListPostsInput) (*PostPage, error)
	ListOwned(ctx context.Context, caller domain.Identity, page, limit int) (*PostPage, error)
	ListByModeration(ctx context.Context, caller domain.Identity, status domain.ModerationStatus, page, limit int) (*PostPage, error)
	Update(ctx context.Context, caller domain.Identity, id string, input UpdatePostInput) (*domain.BlogPost, error)
	Delete(ctx context.Context, caller domain.Identity, id string) error
	Moderate(ctx context.Context, caller domain.Identity, id string, target domain.ModerationStatus) (*domain.BlogPost, error)
}
