package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-api/internal/api/metrics"
	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/policy"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

type postService struct {
	repo   ports.PostRepository
	engine *policy.Engine
	audit  AuditSink
	log    zerolog.Logger
}

// NewPostService returns a PostService implementation.
func NewPostService(repo ports.PostRepository, engine *policy.Engine, audit AuditSink, log zerolog.Logger) ports.PostService {
	return &postService{repo: repo, engine: engine, audit: audit, log: log}
}

// Create submits a blog post. Open to any authenticated identity.
func (s *postService) Create(ctx context.Context, caller domain.Identity, in ports.CreatePostInput) (*domain.BlogPost, error) {
	d := authorize(s.engine, caller, policy.Operation{
		Resource: policy.ResourcePost,
		Action:   policy.ActionCreate,
	})
	if !d.Allowed {
		return nil, d.Err()
	}

	status := in.Status
	if status == "" {
		status = domain.PostDraft
	}

	// The role claim alone never earns the auto-approve shortcut.
	moderation := domain.ModerationPending
	if s.engine.IsSuperAdmin(caller) {
		moderation = domain.ModerationApproved
	}

	now := time.Now().UTC()
	post := &domain.BlogPost{
		OwnerID:          caller.SubjectID,
		Title:            in.Title,
		Body:             in.Body,
		Tags:             in.Tags,
		Status:           status,
		ModerationStatus: moderation,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	created, err := s.repo.Create(ctx, post)
	if err != nil {
		s.log.Error().Err(err).Str("owner_id", caller.SubjectID).Msg("failed to create post")
		return nil, err
	}
	s.log.Info().Str("post_id", created.ID).Str("owner_id", created.OwnerID).Msg("post created")
	return created, nil
}

// Get retrieves one post, reporting denied reads as not-found.
func (s *postService) Get(ctx context.Context, caller domain.Identity, id string) (*domain.BlogPost, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := authorize(s.engine, caller, policy.Operation{
		Resource:   policy.ResourcePost,
		Action:     policy.ActionRead,
		OwnerID:    post.OwnerID,
		Moderation: post.ModerationStatus,
	})
	if !d.Allowed {
		return nil, domain.ErrPostNotFound
	}
	return post, nil
}

// ListPublic returns approved, published posts.
func (s *postService) ListPublic(ctx context.Context, in ports.ListPostsInput) (*ports.PostPage, error) {
	page, limit := normalizePage(in.Page, in.Limit)
	items, total, err := s.repo.List(ctx, ports.ListPostsFilter{
		VisibleOnly: true,
		Tag:         in.Tag,
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}
	return postPage(items, total, page, limit), nil
}

// ListOwned returns the caller's posts in any moderation state.
func (s *postService) ListOwned(ctx context.Context, caller domain.Identity, pageNum, limit int) (*ports.PostPage, error) {
	if caller.IsAnonymous() {
		return nil, domain.ErrUnauthenticated
	}
	page, lim := normalizePage(pageNum, limit)
	items, total, err := s.repo.List(ctx, ports.ListPostsFilter{
		OwnerID: caller.SubjectID,
		Page:    page,
		Limit:   lim,
	})
	if err != nil {
		return nil, err
	}
	return postPage(items, total, page, lim), nil
}

// ListByModeration is the admin review queue for posts.
func (s *postService) ListByModeration(ctx context.Context, caller domain.Identity, status domain.ModerationStatus, pageNum, limit int) (*ports.PostPage, error) {
	d := authorize(s.engine, caller, policy.Operation{
		Resource: policy.ResourcePost,
		Action:   policy.ActionModerate,
	})
	if !d.Allowed {
		return nil, d.Err()
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidModerationState
	}

	page, lim := normalizePage(pageNum, limit)
	items, total, err := s.repo.List(ctx, ports.ListPostsFilter{
		Moderation: status,
		Page:       page,
		Limit:      lim,
	})
	if err != nil {
		return nil, err
	}
	return postPage(items, total, page, lim), nil
}

// Update edits content fields against the persisted owner, fetched fresh.
func (s *postService) Update(ctx context.Context, caller domain.Identity, id string, in ports.UpdatePostInput) (*domain.BlogPost, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := authorize(s.engine, caller, policy.Operation{
		Resource:   policy.ResourcePost,
		Action:     policy.ActionUpdate,
		OwnerID:    post.OwnerID,
		Moderation: post.ModerationStatus,
	})
	if !d.Allowed {
		return nil, d.Err()
	}

	post.Title = in.Title
	post.Body = in.Body
	post.Tags = in.Tags
	if in.Status != "" {
		post.Status = in.Status
	}
	if !s.engine.IsSuperAdmin(caller) {
		post.ModerationStatus = domain.ModerationPending
	}
	post.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, post); err != nil {
		s.log.Error().Err(err).Str("post_id", id).Msg("failed to update post")
		return nil, err
	}
	return post, nil
}

// Delete removes a post; owner or recognized admin only.
func (s *postService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	d := authorize(s.engine, caller, policy.Operation{
		Resource:   policy.ResourcePost,
		Action:     policy.ActionDelete,
		OwnerID:    post.OwnerID,
		Moderation: post.ModerationStatus,
	})
	if !d.Allowed {
		return d.Err()
	}
	return s.repo.Delete(ctx, id)
}

// Moderate applies an admin moderation transition; see the listing variant
// for the compare-and-swap contract.
func (s *postService) Moderate(ctx context.Context, caller domain.Identity, id string, target domain.ModerationStatus) (*domain.BlogPost, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := authorize(s.engine, caller, policy.Operation{
		Resource:   policy.ResourcePost,
		Action:     policy.ActionModerate,
		OwnerID:    post.OwnerID,
		Moderation: post.ModerationStatus,
	})
	if !d.Allowed {
		return nil, d.Err()
	}

	next, err := domain.NextModeration(post.ModerationStatus, target)
	if err != nil {
		return nil, err
	}
	if next == post.ModerationStatus {
		return post, nil
	}

	if err := s.repo.UpdateModeration(ctx, id, post.ModerationStatus, next); err != nil {
		if errors.Is(err, domain.ErrModerationConflict) {
			metrics.ModerationTransitionsTotal.WithLabelValues("post", string(next), "conflict").Inc()
		}
		return nil, err
	}

	metrics.ModerationTransitionsTotal.WithLabelValues("post", string(next), "applied").Inc()
	if s.audit != nil {
		s.audit.Enqueue(domain.ModerationAudit{
			ContentKind: string(policy.ResourcePost),
			ContentID:   id,
			From:        post.ModerationStatus,
			To:          next,
			ActorID:     caller.SubjectID,
			Timestamp:   time.Now().UTC(),
		})
	}

	post.ModerationStatus = next
	post.UpdatedAt = time.Now().UTC()
	return post, nil
}

func postPage(items []*domain.BlogPost, total int64, page, limit int) *ports.PostPage {
	if items == nil {
		items = []*domain.BlogPost{}
	}
	return &ports.PostPage{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}
}
